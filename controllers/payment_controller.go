package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"health-intake-backend/models"
	"health-intake-backend/repository"
	"health-intake-backend/services"

	"github.com/gin-gonic/gin"
)

// SessionOwners resolves the owner id behind a browser session.
type SessionOwners interface {
	SessionOwner(ctx context.Context, sessionID string) (string, error)
}

type PaymentController struct {
	paymentService *services.PaymentService
	appointments   repository.AppointmentStore
	owners         SessionOwners
}

// NewPaymentController accepts a nil paymentService when no gateway is
// configured; checkout and callback then answer 503.
func NewPaymentController(paymentService *services.PaymentService, appointments repository.AppointmentStore, owners SessionOwners) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		appointments:   appointments,
		owners:         owners,
	}
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrAppointmentNotPayable), errors.Is(err, repository.ErrReferenceInUse):
		status = http.StatusConflict
	case errors.Is(err, services.ErrPaymentNotVerified):
		status = http.StatusPaymentRequired
	}
	c.JSON(status, gin.H{"error": http.StatusText(status), "details": err.Error()})
}

func (pc *PaymentController) available(c *gin.Context) bool {
	if pc.paymentService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return false
	}
	return true
}

// ownedAppointment loads the :id appointment if it belongs to the caller's
// session. Anyone else's appointment answers 404.
func (pc *PaymentController) ownedAppointment(c *gin.Context) (*models.Appointment, bool) {
	id := c.Param("id")
	owner, err := pc.owners.SessionOwner(c.Request.Context(), sessionID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	appointment, err := pc.appointments.GetAppointment(c.Request.Context(), id)
	if err == nil && (owner == "" || appointment.OwnerID != owner) {
		err = fmt.Errorf("appointment %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return appointment, true
}

// GetAppointment returns a single appointment
func (pc *PaymentController) GetAppointment(c *gin.Context) {
	appointment, ok := pc.ownedAppointment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, appointment)
}

// StartCheckout opens a hosted checkout for a pending appointment
func (pc *PaymentController) StartCheckout(c *gin.Context) {
	if !pc.available(c) {
		return
	}
	if _, ok := pc.ownedAppointment(c); !ok {
		return
	}
	session, err := pc.paymentService.StartCheckout(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"appointment_id": c.Param("id"),
		"reference":      session.Reference,
		"redirect_url":   session.RedirectURL,
	})
}

// PaymentCallback is where the gateway returns the user after checkout. The
// reference must be the one issued for the appointment.
func (pc *PaymentController) PaymentCallback(c *gin.Context) {
	if !pc.available(c) {
		return
	}
	appointmentID := c.Query("appointment_id")
	reference := c.Query("reference")
	if appointmentID == "" || reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "appointment_id and reference are required"})
		return
	}

	appointment, err := pc.paymentService.ConfirmPayment(c.Request.Context(), appointmentID, reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

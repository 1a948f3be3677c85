package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/models"
	"health-intake-backend/repository"

	"go.uber.org/zap"
)

type CheckoutRequest struct {
	AppointmentID string  `json:"appointment_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	SuccessURL    string  `json:"success_url"`
}

type CheckoutSession struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url"`
}

// PaymentVerification is the gateway's view of a reference. AppointmentID
// is compared when the gateway echoes it.
type PaymentVerification struct {
	Paid          bool    `json:"paid"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	AppointmentID string  `json:"appointment_id,omitempty"`
}

// PaymentProvider is the hosted checkout gateway.
type PaymentProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	VerifyPayment(ctx context.Context, reference string) (*PaymentVerification, error)
}

// HTTPPaymentProvider talks JSON to a checkout gateway with a bearer key.
type HTTPPaymentProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPPaymentProvider(cfg config.PaymentConfig) *HTTPPaymentProvider {
	return &HTTPPaymentProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *HTTPPaymentProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := p.do(ctx, http.MethodPost, p.baseURL+"/checkout", req, &session); err != nil {
		return nil, err
	}
	if session.Reference == "" || session.RedirectURL == "" {
		return nil, errors.New("payment gateway returned an incomplete checkout session")
	}
	return &session, nil
}

func (p *HTTPPaymentProvider) VerifyPayment(ctx context.Context, reference string) (*PaymentVerification, error) {
	var verification PaymentVerification
	endpoint := p.baseURL + "/payments/" + url.PathEscape(reference)
	if err := p.do(ctx, http.MethodGet, endpoint, nil, &verification); err != nil {
		return nil, err
	}
	return &verification, nil
}

func (p *HTTPPaymentProvider) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment gateway error: %s: %s", resp.Status, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode payment response: %w", err)
	}
	return nil
}

// PaymentService moves an appointment from Pending to Confirmed once the
// gateway reports it paid.
type PaymentService struct {
	provider        PaymentProvider
	appointments    repository.AppointmentStore
	currency        string
	successURL      string
	appointmentHour int
	now             func() time.Time
	logger          *zap.Logger
}

func NewPaymentService(provider PaymentProvider, appointments repository.AppointmentStore, cfg *config.Config, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		provider:        provider,
		appointments:    appointments,
		currency:        cfg.Booking.Currency,
		successURL:      cfg.Payment.SuccessURL,
		appointmentHour: cfg.Booking.AppointmentHour,
		now:             time.Now,
		logger:          logger,
	}
}

// StartCheckout opens a checkout for a Pending, unpaid appointment.
func (s *PaymentService) StartCheckout(ctx context.Context, appointmentID string) (*CheckoutSession, error) {
	appointment, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appointment.Payable() {
		return nil, fmt.Errorf("%w: status %s, paid %t", ErrAppointmentNotPayable, appointment.Status, appointment.Paid)
	}

	session, err := s.provider.CreateCheckout(ctx, CheckoutRequest{
		AppointmentID: appointment.ID,
		Amount:        appointment.Amount,
		Currency:      s.currency,
		SuccessURL:    s.successURL,
	})
	if err != nil {
		s.logger.Error("checkout creation failed", zap.String("appointment_id", appointmentID), zap.Error(err))
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	if err := s.appointments.AttachCheckout(ctx, appointment.ID, session.Reference); err != nil {
		return nil, fmt.Errorf("record checkout: %w", err)
	}
	s.logger.Info("Checkout created", zap.String("appointment_id", appointmentID), zap.String("reference", session.Reference))
	return session, nil
}

// ConfirmPayment accepts only the reference issued by the appointment's
// latest checkout and verifies it with the gateway before writing. An
// already paid appointment is returned as stored.
func (s *PaymentService) ConfirmPayment(ctx context.Context, appointmentID, reference string) (*models.Appointment, error) {
	appointment, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.CheckoutReference == "" || appointment.CheckoutReference != reference {
		bookingsTotal.WithLabelValues("payment_unverified").Inc()
		s.logger.Warn("payment reference does not belong to appointment",
			zap.String("appointment_id", appointmentID), zap.String("reference", reference))
		return nil, fmt.Errorf("%w: reference was not issued for this appointment", ErrPaymentNotVerified)
	}
	if appointment.Paid {
		return appointment, nil
	}
	if appointment.Status != models.AppointmentPending {
		return nil, fmt.Errorf("%w: status %s", ErrAppointmentNotPayable, appointment.Status)
	}

	verification, err := s.provider.VerifyPayment(ctx, reference)
	if err != nil {
		bookingsTotal.WithLabelValues("payment_unverified").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotVerified, err)
	}
	if verification.AppointmentID != "" && verification.AppointmentID != appointmentID {
		bookingsTotal.WithLabelValues("payment_unverified").Inc()
		return nil, fmt.Errorf("%w: gateway reports appointment %s", ErrPaymentNotVerified, verification.AppointmentID)
	}
	if !verification.Paid || verification.Amount < appointment.Amount {
		bookingsTotal.WithLabelValues("payment_unverified").Inc()
		s.logger.Warn("payment not verified",
			zap.String("appointment_id", appointmentID),
			zap.Bool("paid", verification.Paid),
			zap.Float64("amount", verification.Amount),
			zap.Float64("expected", appointment.Amount))
		return nil, ErrPaymentNotVerified
	}

	txRef := verification.TransactionID
	if txRef == "" {
		txRef = reference
	}
	confirmed, err := s.appointments.ConfirmPayment(ctx, appointmentID, txRef, s.NextSlot())
	if errors.Is(err, repository.ErrReferenceInUse) {
		bookingsTotal.WithLabelValues("payment_unverified").Inc()
		s.logger.Warn("transaction already confirmed another appointment",
			zap.String("appointment_id", appointmentID), zap.String("reference", txRef))
	}
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	bookingsTotal.WithLabelValues("confirmed").Inc()
	s.logger.Info("Appointment confirmed",
		zap.String("appointment_id", appointmentID),
		zap.String("reference", txRef),
		zap.Time("appointment_date", confirmed.AppointmentDate))
	return confirmed, nil
}

// NextSlot is the next calendar day at the configured hour, local time.
// Slots are not checked for conflicts.
func (s *PaymentService) NextSlot() time.Time {
	now := s.now()
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), s.appointmentHour, 0, 0, 0, now.Location())
}

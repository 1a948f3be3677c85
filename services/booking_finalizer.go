package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"health-intake-backend/models"
	"health-intake-backend/repository"

	"go.uber.org/zap"
)

// placeholderLead is how far ahead a new appointment is dated until the
// payment step assigns the real slot.
const placeholderLead = 24 * time.Hour

type BookingResult struct {
	AppointmentID string
	Doctor        models.DoctorSnapshot
}

// BookingFinalizer turns a confirmed recommendation into a Pending, unpaid
// appointment. It never marks anything paid.
type BookingFinalizer struct {
	doctors      repository.DoctorDirectory
	appointments repository.AppointmentStore
	defaultFee   float64
	storeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewBookingFinalizer(doctors repository.DoctorDirectory, appointments repository.AppointmentStore,
	defaultFee float64, storeTimeout time.Duration, logger *zap.Logger) *BookingFinalizer {
	return &BookingFinalizer{
		doctors:      doctors,
		appointments: appointments,
		defaultFee:   defaultFee,
		storeTimeout: storeTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// ConfirmBooking fails with ErrDoctorUnavailable when the recommended
// doctor no longer resolves, and with ErrBookingFailed when the
// appointment cannot be written.
func (f *BookingFinalizer) ConfirmBooking(ctx context.Context, rec models.Recommendation, ownerID string) (*BookingResult, error) {
	ctx, cancel := bounded(ctx, f.storeTimeout)
	defer cancel()

	doctor, err := f.doctors.GetDoctor(ctx, rec.DoctorID)
	if errors.Is(err, repository.ErrNotFound) {
		bookingsTotal.WithLabelValues("doctor_unavailable").Inc()
		return nil, fmt.Errorf("%w: %s", ErrDoctorUnavailable, rec.DoctorID)
	}
	if err != nil {
		bookingsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrBookingFailed, err)
	}

	snapshot := doctor.Snapshot(f.defaultFee)
	appointment := &models.Appointment{
		OwnerID:         ownerID,
		DoctorID:        doctor.ID,
		AppointmentDate: f.now().Add(placeholderLead),
		Status:          models.AppointmentPending,
		Amount:          snapshot.Fee,
		Paid:            false,
	}
	id, err := f.appointments.CreateAppointment(ctx, appointment)
	if err != nil {
		bookingsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrBookingFailed, err)
	}

	bookingsTotal.WithLabelValues("created").Inc()
	f.logger.Info("Appointment created",
		zap.String("appointment_id", id), zap.String("doctor_id", doctor.ID), zap.Float64("amount", snapshot.Fee))
	return &BookingResult{AppointmentID: id, Doctor: snapshot}, nil
}

package services

import "errors"

var (
	ErrDoctorUnavailable     = errors.New("recommended doctor is no longer available")
	ErrBookingFailed         = errors.New("appointment could not be created")
	ErrLLMUnavailable        = errors.New("text completion is not configured")
	ErrSessionNotFound       = errors.New("session not found")
	ErrPaymentNotVerified    = errors.New("payment could not be verified")
	ErrAppointmentNotPayable = errors.New("appointment is not payable")
)

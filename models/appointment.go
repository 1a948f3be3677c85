package models

import "time"

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "Pending"
	AppointmentConfirmed AppointmentStatus = "Confirmed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// Appointment is created Pending and unpaid by the booking step. Only the
// payment confirmation path moves it to Confirmed and paid, and only with
// the gateway reference stored as CheckoutReference by the latest checkout.
type Appointment struct {
	ID                string            `bson:"_id" json:"id"`
	OwnerID           string            `bson:"owner_id" json:"owner_id"`
	DoctorID          string            `bson:"doctor_id" json:"doctor_id"`
	AppointmentDate   time.Time         `bson:"appointment_date" json:"appointment_date"`
	Status            AppointmentStatus `bson:"status" json:"status"`
	Amount            float64           `bson:"amount" json:"amount"`
	Paid              bool              `bson:"paid" json:"paid"`
	PaymentReference  string            `bson:"payment_reference,omitempty" json:"payment_reference,omitempty"`
	CheckoutReference string            `bson:"checkout_reference,omitempty" json:"-"`
	CreatedAt         time.Time         `bson:"created_at" json:"created_at"`
}

// Payable reports whether the appointment may still go through checkout.
func (a Appointment) Payable() bool {
	return a.Status == AppointmentPending && !a.Paid
}

// Package repository holds the read-only catalog readers and the
// transcript and appointment writers used by the intake services, with
// MongoDB, PostgreSQL and in-memory implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"health-intake-backend/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrReferenceInUse means a payment reference already confirmed a
	// different appointment.
	ErrReferenceInUse = errors.New("payment reference already used")
)

// DiseaseCatalog lists the known diseases with their symptom records.
type DiseaseCatalog interface {
	ListDiseases(ctx context.Context) ([]models.Disease, error)
}

// DatasetSource produces the bulk symptom-combination rows.
type DatasetSource interface {
	LoadSymptomDataset(ctx context.Context) ([]models.DatasetRecord, error)
}

// DoctorDirectory reads the doctor directory.
type DoctorDirectory interface {
	ListDoctors(ctx context.Context) ([]models.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*models.Doctor, error)
}

// TranscriptWriter appends chat messages.
type TranscriptWriter interface {
	AppendMessage(ctx context.Context, msg models.ChatMessage) error
}

// AppointmentStore creates and reads appointments. AttachCheckout and
// ConfirmPayment belong to the payment path. ConfirmPayment returns
// ErrReferenceInUse when reference is already stored on another appointment.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) (string, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	AttachCheckout(ctx context.Context, id, checkoutReference string) error
	ConfirmPayment(ctx context.Context, id, reference string, scheduledAt time.Time) (*models.Appointment, error)
}

// Store bundles every collaborator one backend provides.
type Store interface {
	DiseaseCatalog
	DatasetSource
	DoctorDirectory
	TranscriptWriter
	AppointmentStore
	Ping(ctx context.Context) error
}

// CatalogDatasetSource derives one symptom combination per disease from
// its present DiseaseSymptom records.
type CatalogDatasetSource struct {
	Catalog DiseaseCatalog
}

func (s CatalogDatasetSource) LoadSymptomDataset(ctx context.Context) ([]models.DatasetRecord, error) {
	diseases, err := s.Catalog.ListDiseases(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]models.DatasetRecord, 0, len(diseases))
	for _, d := range diseases {
		symptoms := d.PresentSymptoms()
		if len(symptoms) == 0 {
			continue
		}
		records = append(records, models.DatasetRecord{Disease: d.Name, Symptoms: symptoms})
	}
	return records, nil
}

package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"health-intake-backend/models"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It backs DB_TYPE=memory
// and the tests.
type MemoryStore struct {
	mu           sync.RWMutex
	diseases     []models.Disease
	dataset      []models.DatasetRecord
	doctors      []models.Doctor
	messages     []models.ChatMessage
	appointments map[string]*models.Appointment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{appointments: make(map[string]*models.Appointment)}
}

// SeedDiseases replaces the disease catalog.
func (s *MemoryStore) SeedDiseases(diseases ...models.Disease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diseases = append([]models.Disease(nil), diseases...)
}

// SeedDataset replaces the bulk symptom dataset.
func (s *MemoryStore) SeedDataset(records ...models.DatasetRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = append([]models.DatasetRecord(nil), records...)
}

// SeedDoctors replaces the doctor directory. Doctors without an id get one.
func (s *MemoryStore) SeedDoctors(doctors ...models.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors = make([]models.Doctor, len(doctors))
	for i, d := range doctors {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		s.doctors[i] = d
	}
}

// RemoveDoctor drops a doctor from the directory.
func (s *MemoryStore) RemoveDoctor(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.doctors[:0]
	for _, d := range s.doctors {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.doctors = kept
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) ListDiseases(ctx context.Context) ([]models.Disease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Disease(nil), s.diseases...), nil
}

func (s *MemoryStore) LoadSymptomDataset(ctx context.Context) ([]models.DatasetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DatasetRecord(nil), s.dataset...), nil
}

func (s *MemoryStore) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Doctor(nil), s.doctors...), nil
}

func (s *MemoryStore) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.doctors {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("doctor %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) AppendMessage(ctx context.Context, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of the transcript in append order.
func (s *MemoryStore) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.messages...)
}

func (s *MemoryStore) CreateAppointment(ctx context.Context, a *models.Appointment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	stored := *a
	s.appointments[a.ID] = &stored
	return a.ID, nil
}

func (s *MemoryStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	out := *a
	return &out, nil
}

// Appointments returns a copy of every stored appointment.
func (s *MemoryStore) Appointments() []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, *a)
	}
	return out
}

// AttachCheckout records the checkout reference on an unpaid appointment.
func (s *MemoryStore) AttachCheckout(ctx context.Context, id, checkoutReference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok || a.Paid {
		return fmt.Errorf("unpaid appointment %s: %w", id, ErrNotFound)
	}
	a.CheckoutReference = checkoutReference
	return nil
}

func (s *MemoryStore) ConfirmPayment(ctx context.Context, id, reference string, scheduledAt time.Time) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	if !a.Paid {
		for otherID, other := range s.appointments {
			if otherID != id && other.PaymentReference == reference {
				return nil, fmt.Errorf("reference %s: %w", reference, ErrReferenceInUse)
			}
		}
		a.Paid = true
		a.Status = models.AppointmentConfirmed
		a.PaymentReference = reference
		a.AppointmentDate = scheduledAt
	}
	out := *a
	return &out, nil
}

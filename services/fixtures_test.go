package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/models"
	"health-intake-backend/repository"
)

// fakeCompleter returns a canned reply and records every prompt.
type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages []string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt string, history []models.ChatTurn, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return f.reply, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

var errBackend = errors.New("backend down")

func present(names ...string) []models.DiseaseSymptom {
	out := make([]models.DiseaseSymptom, len(names))
	for i, n := range names {
		out[i] = models.DiseaseSymptom{Symptom: n, Present: true}
	}
	return out
}

// newClinicStore seeds the two-disease, two-doctor clinic used across the
// engine tests.
func newClinicStore() *repository.MemoryStore {
	store := repository.NewMemoryStore()
	store.SeedDiseases(
		models.Disease{
			ID:          "typhoid",
			Name:        "Typhoid",
			Description: "A bacterial infection spread through contaminated food and water.",
			Specialist:  "Internal Medicine",
			Symptoms:    present("fever", "headache", "abdominal pain"),
		},
		models.Disease{
			ID:          "heart-attack",
			Name:        "Heart Attack",
			Description: "Blocked blood flow to the heart muscle.",
			Specialist:  "Cardiologist",
			Symptoms:    present("chest pain", "shortness of breath", "sweating"),
		},
	)
	store.SeedDoctors(
		models.Doctor{ID: "dr-rahman", Name: "Dr. Rahman", Specialty: "Internal Medicine", Location: "Dhanmondi",
			Chamber: "Popular Diagnostic", ExperienceYears: models.Years(15), ConsultationFee: 1000},
		models.Doctor{ID: "dr-hossain", Name: "Dr. Hossain", Specialty: "Cardiologist", Location: "Dhanmondi",
			ExperienceYears: models.Years(20)},
	)
	return store
}

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Timeout: time.Second},
		AI:       config.AIConfig{Timeout: time.Second},
		Booking:  config.BookingConfig{DefaultFee: 500, Currency: "BDT", AppointmentHour: 16},
	}
}

// failingStore breaks chosen operations of a MemoryStore.
type failingStore struct {
	*repository.MemoryStore
	failDiseases     bool
	failDoctors      bool
	failAppointments bool
	failTranscript   bool
}

func (s *failingStore) ListDiseases(ctx context.Context) ([]models.Disease, error) {
	if s.failDiseases {
		return nil, errBackend
	}
	return s.MemoryStore.ListDiseases(ctx)
}

func (s *failingStore) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	if s.failDoctors {
		return nil, errBackend
	}
	return s.MemoryStore.ListDoctors(ctx)
}

func (s *failingStore) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	if s.failDoctors {
		return nil, errBackend
	}
	return s.MemoryStore.GetDoctor(ctx, id)
}

func (s *failingStore) CreateAppointment(ctx context.Context, a *models.Appointment) (string, error) {
	if s.failAppointments {
		return "", errBackend
	}
	return s.MemoryStore.CreateAppointment(ctx, a)
}

func (s *failingStore) AppendMessage(ctx context.Context, msg models.ChatMessage) error {
	if s.failTranscript {
		return errBackend
	}
	return s.MemoryStore.AppendMessage(ctx, msg)
}

package models

import (
	"errors"
	"testing"
)

func TestDecodeEmptyStateIsFresh(t *testing.T) {
	p, err := ConversationState{}.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := p.(Fresh); !ok {
		t.Fatalf("expected Fresh, got %T", p)
	}
}

func TestDecodeRecommendationSplitsOnDoctor(t *testing.T) {
	withDoctor, err := ConversationState{CurrentStep: StepRecommendation, DetectedDisease: "Typhoid", UserLocation: "Dhanmondi", RecommendedDoctorID: "d1"}.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rec, ok := withDoctor.(Recommendation)
	if !ok || rec.DoctorID != "d1" || rec.Location != "Dhanmondi" {
		t.Fatalf("unexpected phase %#v", withDoctor)
	}

	without, err := ConversationState{CurrentStep: StepRecommendation, DetectedDisease: "Typhoid", UserLocation: "Dhanmondi"}.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := without.(NoDoctorFound); !ok {
		t.Fatalf("expected NoDoctorFound, got %T", without)
	}
	if without.Step() != StepRecommendation {
		t.Fatalf("expected recommendation step, got %s", without.Step())
	}
}

func TestDecodeAttachesUnspecifiedConditionToOrphanDoctor(t *testing.T) {
	p, err := ConversationState{CurrentStep: StepRecommendation, RecommendedDoctorID: "d1"}.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if DiseaseOf(p) != UnspecifiedCondition {
		t.Fatalf("expected %q, got %q", UnspecifiedCondition, DiseaseOf(p))
	}
	if p.Encode().DetectedDisease == "" {
		t.Fatalf("encoded state must not carry a doctor without a disease")
	}
}

func TestDecodeRejectsUnknownStep(t *testing.T) {
	_, err := ConversationState{CurrentStep: "checkout"}.Decode()
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestDecodeRejectsBookingWithoutDoctor(t *testing.T) {
	_, err := ConversationState{CurrentStep: StepBooking, DetectedDisease: "Flu"}.Decode()
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestEncodeGreetingDropsLocationAndDoctor(t *testing.T) {
	s := Greeting{Disease: "Flu"}.Encode()
	if s.CurrentStep != StepGreeting || s.DetectedDisease != "Flu" || s.UserLocation != "" || s.RecommendedDoctorID != "" {
		t.Fatalf("unexpected state %#v", s)
	}
}

func TestDoctorFeeFallsBackToDefault(t *testing.T) {
	if got := (Doctor{}).Fee(500); got != 500 {
		t.Fatalf("expected default fee, got %v", got)
	}
	if got := (Doctor{ConsultationFee: 800}).Fee(500); got != 800 {
		t.Fatalf("expected doctor fee, got %v", got)
	}
}

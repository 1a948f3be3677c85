package models

import (
	"errors"
	"fmt"
)

// Step is the conversation phase stored for a session.
type Step string

const (
	StepGreeting       Step = "greeting"
	StepProblem        Step = "problem"
	StepLocation       Step = "location"
	StepRecommendation Step = "recommendation"
	StepBooking        Step = "booking"
)

// UnspecifiedCondition stands in for the detected disease when the user
// gave enough signal to move on but nothing matched a known condition.
const UnspecifiedCondition = "General health concern"

var ErrInvalidState = errors.New("invalid conversation state")

// ConversationState is the serialized form kept in the session store
// between turns. An empty CurrentStep means a fresh session.
type ConversationState struct {
	CurrentStep         Step   `json:"current_step,omitempty"`
	DetectedDisease     string `json:"detected_disease,omitempty"`
	UserLocation        string `json:"user_location,omitempty"`
	RecommendedDoctorID string `json:"recommended_doctor_id,omitempty"`
}

// Phase is the in-memory view of a ConversationState. Each variant holds
// exactly the fields valid for its step.
type Phase interface {
	Step() Step
	Encode() ConversationState
}

// Fresh is a session with no turns yet.
type Fresh struct{}

// Greeting has greeted the user. Disease is kept from an earlier cycle,
// if any.
type Greeting struct {
	Disease string
}

// Problem is waiting for more symptom detail.
type Problem struct {
	Disease string
}

// AwaitingLocation knows the condition and is waiting for a location.
type AwaitingLocation struct {
	Disease string
}

// Recommendation has a recommended doctor waiting for confirmation.
type Recommendation struct {
	Disease  string
	Location string
	DoctorID string
}

// NoDoctorFound reached the recommendation step without a doctor; an
// affirmative reply re-runs the ranker.
type NoDoctorFound struct {
	Disease  string
	Location string
}

// Booked has created a Pending appointment.
type Booked struct {
	Disease  string
	Location string
	DoctorID string
}

func (Fresh) Step() Step            { return "" }
func (Greeting) Step() Step         { return StepGreeting }
func (Problem) Step() Step          { return StepProblem }
func (AwaitingLocation) Step() Step { return StepLocation }
func (Recommendation) Step() Step   { return StepRecommendation }
func (NoDoctorFound) Step() Step    { return StepRecommendation }
func (Booked) Step() Step           { return StepBooking }

func (Fresh) Encode() ConversationState { return ConversationState{} }

func (p Greeting) Encode() ConversationState {
	return ConversationState{CurrentStep: StepGreeting, DetectedDisease: p.Disease}
}

func (p Problem) Encode() ConversationState {
	return ConversationState{CurrentStep: StepProblem, DetectedDisease: p.Disease}
}

func (p AwaitingLocation) Encode() ConversationState {
	return ConversationState{CurrentStep: StepLocation, DetectedDisease: p.Disease}
}

func (p Recommendation) Encode() ConversationState {
	return ConversationState{
		CurrentStep:         StepRecommendation,
		DetectedDisease:     p.Disease,
		UserLocation:        p.Location,
		RecommendedDoctorID: p.DoctorID,
	}
}

func (p NoDoctorFound) Encode() ConversationState {
	return ConversationState{CurrentStep: StepRecommendation, DetectedDisease: p.Disease, UserLocation: p.Location}
}

func (p Booked) Encode() ConversationState {
	return ConversationState{
		CurrentStep:         StepBooking,
		DetectedDisease:     p.Disease,
		UserLocation:        p.Location,
		RecommendedDoctorID: p.DoctorID,
	}
}

// DiseaseOf returns the detected disease carried by p, or "".
func DiseaseOf(p Phase) string {
	switch v := p.(type) {
	case Greeting:
		return v.Disease
	case Problem:
		return v.Disease
	case AwaitingLocation:
		return v.Disease
	case Recommendation:
		return v.Disease
	case NoDoctorFound:
		return v.Disease
	case Booked:
		return v.Disease
	default:
		return ""
	}
}

// Decode turns a stored state into its phase. A doctor id stored without a
// disease is attached to UnspecifiedCondition so the variant never holds a
// doctor without a disease. Unknown steps are rejected.
func (s ConversationState) Decode() (Phase, error) {
	disease := s.DetectedDisease
	if disease == "" && (s.RecommendedDoctorID != "" || s.CurrentStep == StepLocation) {
		disease = UnspecifiedCondition
	}

	switch s.CurrentStep {
	case "":
		return Fresh{}, nil
	case StepGreeting:
		return Greeting{Disease: s.DetectedDisease}, nil
	case StepProblem:
		return Problem{Disease: s.DetectedDisease}, nil
	case StepLocation:
		return AwaitingLocation{Disease: disease}, nil
	case StepRecommendation:
		if s.RecommendedDoctorID == "" {
			return NoDoctorFound{Disease: disease, Location: s.UserLocation}, nil
		}
		return Recommendation{Disease: disease, Location: s.UserLocation, DoctorID: s.RecommendedDoctorID}, nil
	case StepBooking:
		if s.RecommendedDoctorID == "" {
			return nil, fmt.Errorf("%w: booking without a doctor", ErrInvalidState)
		}
		return Booked{Disease: disease, Location: s.UserLocation, DoctorID: s.RecommendedDoctorID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown step %q", ErrInvalidState, s.CurrentStep)
	}
}

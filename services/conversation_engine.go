package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"health-intake-backend/models"
	"health-intake-backend/utils"

	"go.uber.org/zap"
)

const (
	// historyTurns is how many recent messages go to the model for a
	// free-form reply.
	historyTurns = 6

	personaPrompt = "You are a friendly health intake assistant for a clinic booking service. " +
		"Keep replies short and warm, two to four sentences. Never give a final diagnosis. " +
		"Always encourage the user to see a qualified medical professional, and invite them to describe their symptoms."

	greetingReply     = "Hello! I'm your health assistant. Tell me what symptoms you're experiencing and I'll help you find the right doctor."
	moreDetailReply   = "I'm sorry you're not feeling well. Could you tell me more about your symptoms and how long you've had them?"
	needsContextReply = "Thanks for sharing. I couldn't pinpoint a specific condition, but a doctor can look into it. Where are you located so I can find one near you?"
	askLocationReply  = "Where are you located? Please share your area or city so I can find a doctor near you."
	closingReply      = "No problem. Take care, and message me anytime if you need help."
	genericReply      = "I'm here to help. Tell me about your symptoms."
	healthCannedReply = "I understand you have health concerns. Please describe your symptoms so I can help you find the right doctor."
	otherCannedReply  = "I'm a health assistant. Tell me about your symptoms and I can suggest a doctor near you."
	bookingRetryReply = "Sorry, I couldn't complete the booking just now. Please reply \"yes\" to try again."
	unavailableReply  = "Sorry, that doctor is no longer available. Reply \"yes\" and I'll look for another one."
	disclaimer        = "This is not a diagnosis; please consult a doctor to confirm."
)

// TurnInput is one inbound message with the session's prior state.
type TurnInput struct {
	Message string
	OwnerID string
	State   models.ConversationState
	History []models.ChatTurn
}

// TurnResult always carries a reply and the state to store.
type TurnResult struct {
	Response            string
	State               models.ConversationState
	DetectedDisease     string
	RecommendedDoctorID string
	AppointmentID       string
	Doctor              *models.DoctorSnapshot
	RequiresLocation    bool
}

// ConversationEngine drives a session through greeting, symptom capture,
// location, recommendation and booking. It never returns an error.
type ConversationEngine struct {
	classifier *utils.IntentClassifier
	extractor  *SymptomExtractor
	matcher    *DiseaseMatcher
	mapper     *SpecialtyMapper
	ranker     *DoctorRanker
	finalizer  *BookingFinalizer
	llm        completion
	defaultFee float64
	currency   string
	logger     *zap.Logger
}

type EngineDeps struct {
	Classifier *utils.IntentClassifier
	Extractor  *SymptomExtractor
	Matcher    *DiseaseMatcher
	Mapper     *SpecialtyMapper
	Ranker     *DoctorRanker
	Finalizer  *BookingFinalizer
	LLM        TextCompleter
	AITimeout  time.Duration
	DefaultFee float64
	Currency   string
}

func NewConversationEngine(deps EngineDeps, logger *zap.Logger) *ConversationEngine {
	return &ConversationEngine{
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		matcher:    deps.Matcher,
		mapper:     deps.Mapper,
		ranker:     deps.Ranker,
		finalizer:  deps.Finalizer,
		llm:        completion{llm: deps.LLM, timeout: deps.AITimeout},
		defaultFee: deps.DefaultFee,
		currency:   deps.Currency,
		logger:     logger,
	}
}

// ProcessTurn applies the transition rules to one message. Anything
// unexpected, including a malformed stored state, yields a generic reply
// and a fresh state.
func (e *ConversationEngine) ProcessTurn(ctx context.Context, in TurnInput) (result TurnResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("conversation turn panicked",
				zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			result = TurnResult{Response: genericReply}
		}
		turnsTotal.WithLabelValues(stepLabel(result.State.CurrentStep)).Inc()
	}()

	phase, err := in.State.Decode()
	if err != nil {
		e.logger.Warn("discarding malformed conversation state", zap.Error(err))
		return TurnResult{Response: genericReply}
	}

	next, out := e.transition(ctx, phase, in)
	out.State = next.Encode()
	if out.DetectedDisease == "" {
		out.DetectedDisease = models.DiseaseOf(next)
	}
	return out
}

func stepLabel(step models.Step) string {
	if step == "" {
		return "fresh"
	}
	return string(step)
}

func (e *ConversationEngine) transition(ctx context.Context, phase models.Phase, in TurnInput) (models.Phase, TurnResult) {
	message := strings.TrimSpace(in.Message)
	disease := models.DiseaseOf(phase)

	// Greetings and fresh sessions.
	if _, fresh := phase.(models.Fresh); fresh || e.classifier.IsGreeting(message) {
		return models.Greeting{Disease: disease}, TurnResult{Response: greetingReply}
	}

	// Symptom capture. A booked session starts a new cycle on a new complaint.
	switch phase.(type) {
	case models.Greeting, models.Problem:
		if next, out, ok := e.captureProblem(ctx, phase, message); ok {
			return next, out
		}
	case models.Booked:
		if len(MatchSymptomPhrases(message)) > 0 || e.classifier.IsHealthRelated(message) {
			if next, out, ok := e.captureProblem(ctx, models.Greeting{}, message); ok {
				return next, out
			}
		}
	}

	// Location capture.
	_, awaiting := phase.(models.AwaitingLocation)
	if awaiting || (disease != "" && e.classifier.LooksLikeLocation(message) && phase.Step() != models.StepRecommendation) {
		if disease == "" {
			disease = models.UnspecifiedCondition
		}
		return e.recommend(ctx, disease, utils.ExtractLocation(message))
	}

	// Booking confirmation.
	switch p := phase.(type) {
	case models.Recommendation:
		switch e.classifier.ClassifyConfirmation(message) {
		case utils.ConfirmNo:
			return models.Greeting{}, TurnResult{Response: closingReply}
		case utils.ConfirmYes:
			return e.book(ctx, p, in.OwnerID)
		}
	case models.NoDoctorFound:
		switch e.classifier.ClassifyConfirmation(message) {
		case utils.ConfirmNo:
			return models.Greeting{}, TurnResult{Response: closingReply}
		case utils.ConfirmYes:
			return e.recommend(ctx, p.Disease, p.Location)
		}
	}

	return phase, TurnResult{Response: e.freeReply(ctx, message, in.History)}
}

// captureProblem runs extraction and matching. ok is false when the
// message carried no health signal at all, so later rules may apply.
func (e *ConversationEngine) captureProblem(ctx context.Context, phase models.Phase, message string) (models.Phase, TurnResult, bool) {
	symptoms := e.extractor.Extract(ctx, message)
	match := e.matcher.Match(ctx, message, symptoms)

	if match.Found() {
		d := match.Disease
		e.logger.Debug("disease matched", zap.String("disease", d.Name), zap.String("strategy", string(match.Strategy)))
		return models.AwaitingLocation{Disease: d.Name}, TurnResult{
			Response:         diseaseReply(d),
			DetectedDisease:  d.Name,
			RequiresLocation: true,
		}, true
	}
	if match.NeedsMoreContext {
		return models.AwaitingLocation{Disease: models.UnspecifiedCondition}, TurnResult{
			Response:         needsContextReply,
			RequiresLocation: true,
		}, true
	}
	if len(symptoms) > 0 || e.classifier.IsHealthRelated(message) {
		return models.Problem{Disease: models.DiseaseOf(phase)}, TurnResult{Response: moreDetailReply}, true
	}
	return nil, TurnResult{}, false
}

func diseaseReply(d *models.Disease) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on what you've described, this may be related to **%s**.", d.Name)
	if desc := strings.TrimSpace(d.Description); desc != "" {
		b.WriteString(" ")
		b.WriteString(desc)
	}
	b.WriteString(" ")
	b.WriteString(disclaimer)
	b.WriteString(" ")
	b.WriteString(askLocationReply)
	return b.String()
}

func (e *ConversationEngine) recommend(ctx context.Context, disease, location string) (models.Phase, TurnResult) {
	specialty := e.mapper.Map(ctx, disease)
	ranking, err := e.ranker.Rank(ctx, specialty, location)
	if err != nil {
		e.logger.Warn("doctor directory unavailable", zap.String("component", "doctor_ranker"), zap.Error(err))
	}

	doctor, ok := ranking.Best()
	if !ok {
		return models.NoDoctorFound{Disease: disease, Location: location}, TurnResult{
			Response: fmt.Sprintf("I couldn't find a %s in %s right now. Reply \"yes\" and I'll search again with broader criteria.", specialty, location),
		}
	}

	snapshot := doctor.Snapshot(e.defaultFee)
	return models.Recommendation{Disease: disease, Location: location, DoctorID: doctor.ID}, TurnResult{
		Response:            e.recommendationReply(doctor, snapshot),
		RecommendedDoctorID: doctor.ID,
		Doctor:              &snapshot,
	}
}

func (e *ConversationEngine) recommendationReply(d models.Doctor, s models.DoctorSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I recommend **%s** (%s).\n", s.Name, s.Specialty)
	if s.Chamber != "" {
		fmt.Fprintf(&b, "Chamber: %s\n", s.Chamber)
	}
	fmt.Fprintf(&b, "Location: %s\n", s.Location)
	if d.ExperienceYears != nil {
		fmt.Fprintf(&b, "Experience: %d years\n", *d.ExperienceYears)
	}
	fmt.Fprintf(&b, "Consultation fee: %.0f %s\n", s.Fee, e.currency)
	b.WriteString("Would you like me to book an appointment?")
	return b.String()
}

func (e *ConversationEngine) book(ctx context.Context, rec models.Recommendation, ownerID string) (models.Phase, TurnResult) {
	booking, err := e.finalizer.ConfirmBooking(ctx, rec, ownerID)
	switch {
	case errors.Is(err, ErrDoctorUnavailable):
		e.logger.Warn("recommended doctor vanished", zap.String("doctor_id", rec.DoctorID))
		return models.NoDoctorFound{Disease: rec.Disease, Location: rec.Location}, TurnResult{Response: unavailableReply}
	case err != nil:
		e.logger.Warn("booking failed", zap.String("component", "booking_finalizer"), zap.Error(err))
		return rec, TurnResult{Response: bookingRetryReply, RecommendedDoctorID: rec.DoctorID}
	}

	doctor := booking.Doctor
	return models.Booked{Disease: rec.Disease, Location: rec.Location, DoctorID: rec.DoctorID}, TurnResult{
		Response: fmt.Sprintf("Your appointment with %s is reserved (ID: %s). The consultation fee is %.0f %s. Please complete the payment to confirm it.",
			doctor.Name, booking.AppointmentID, doctor.Fee, e.currency),
		RecommendedDoctorID: rec.DoctorID,
		AppointmentID:       booking.AppointmentID,
		Doctor:              &doctor,
	}
}

// freeReply asks the model for a persona reply, or picks a canned one.
func (e *ConversationEngine) freeReply(ctx context.Context, message string, history []models.ChatTurn) string {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	reply, err := e.llm.run(ctx, "reply", personaPrompt, history, message)
	if err == nil && reply != "" {
		return reply
	}
	if err != nil && !errors.Is(err, ErrLLMUnavailable) {
		e.logger.Warn("free-form reply fell back to canned text", zap.String("component", "conversation_engine"), zap.Error(err))
	}

	switch {
	case e.classifier.IsGreeting(message):
		return greetingReply
	case e.classifier.IsHealthRelated(message):
		return healthCannedReply
	default:
		return otherCannedReply
	}
}

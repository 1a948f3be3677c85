package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"health-intake-backend/models"
	"health-intake-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxHistory is the number of chat turns kept on a session.
const maxHistory = 12

// ChatbotService runs one chat turn end to end: session load, engine,
// session save and transcript logging.
type ChatbotService struct {
	engine         *ConversationEngine
	sessions       SessionStore
	transcript     repository.TranscriptWriter
	storeTimeout   time.Duration
	paymentEnabled bool
	now            func() time.Time
	logger         *zap.Logger
}

func NewChatbotService(engine *ConversationEngine, sessions SessionStore, transcript repository.TranscriptWriter,
	storeTimeout time.Duration, paymentEnabled bool, logger *zap.Logger) *ChatbotService {
	return &ChatbotService{
		engine:         engine,
		sessions:       sessions,
		transcript:     transcript,
		storeTimeout:   storeTimeout,
		paymentEnabled: paymentEnabled,
		now:            time.Now,
		logger:         logger,
	}
}

// ProcessMessage handles req for sessionID, creating the session when it
// is empty or unknown. req.UserID, when set, names the session owner and
// must come from an authenticated channel. The only error is a context
// that is already done.
func (s *ChatbotService) ProcessMessage(ctx context.Context, sessionID string, req models.ChatRequest) (*models.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	channel := req.Channel
	if channel == "" {
		channel = models.ChannelWeb
	}

	record := s.loadSession(ctx, sessionID)
	if req.UserID != "" {
		record.OwnerID = req.UserID
	}

	result := s.engine.ProcessTurn(ctx, TurnInput{
		Message: req.Message,
		OwnerID: record.OwnerID,
		State:   record.State,
		History: record.History,
	})

	now := s.now()
	record.State = result.State
	record.History = appendHistory(record.History,
		models.ChatTurn{Role: models.RoleUser, Content: req.Message},
		models.ChatTurn{Role: models.RoleAssistant, Content: result.Response},
	)
	record.UpdatedAt = now
	s.saveSession(ctx, sessionID, record)

	s.logTranscript(ctx, models.ChatMessage{
		OwnerID:    record.OwnerID,
		Text:       req.Message,
		IsFromUser: true,
		Timestamp:  now,
		Channel:    channel,
	})
	s.logTranscript(ctx, models.ChatMessage{
		OwnerID:             record.OwnerID,
		Text:                result.Response,
		Timestamp:           now,
		DetectedDisease:     result.DetectedDisease,
		RecommendedDoctorID: result.RecommendedDoctorID,
		Channel:             channel,
	})

	return &models.ChatResponse{
		Response:            result.Response,
		SessionID:           sessionID,
		Step:                result.State.CurrentStep,
		RequiresLocation:    result.RequiresLocation,
		DetectedDisease:     result.DetectedDisease,
		RecommendedDoctorID: result.RecommendedDoctorID,
		AppointmentID:       result.AppointmentID,
		Doctor:              result.Doctor,
		Actions:             s.actionsFor(result),
	}, nil
}

// SessionOwner returns the owner id stored on sessionID, or "" when the
// session does not exist.
func (s *ChatbotService) SessionOwner(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	ctx, cancel := bounded(ctx, s.storeTimeout)
	defer cancel()
	record, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return record.OwnerID, nil
}

// ResetSession forgets the session so the next message starts fresh.
func (s *ChatbotService) ResetSession(ctx context.Context, sessionID string) error {
	ctx, cancel := bounded(ctx, s.storeTimeout)
	defer cancel()
	return s.sessions.Delete(ctx, sessionID)
}

func (s *ChatbotService) loadSession(ctx context.Context, sessionID string) *SessionRecord {
	ctx, cancel := bounded(ctx, s.storeTimeout)
	defer cancel()
	record, err := s.sessions.Load(ctx, sessionID)
	if err == nil {
		if record.OwnerID == "" {
			record.OwnerID = uuid.NewString()
		}
		return record
	}
	if !errors.Is(err, ErrSessionNotFound) {
		s.logger.Warn("session load failed, starting fresh", zap.String("session_id", sessionID), zap.Error(err))
	}
	return &SessionRecord{OwnerID: uuid.NewString()}
}

func (s *ChatbotService) saveSession(ctx context.Context, sessionID string, record *SessionRecord) {
	bestEffort(ctx, s.logger, s.storeTimeout, "save_session", func(ctx context.Context) error {
		return s.sessions.Save(ctx, sessionID, record)
	})
}

func (s *ChatbotService) logTranscript(ctx context.Context, msg models.ChatMessage) {
	if s.transcript == nil {
		return
	}
	bestEffort(ctx, s.logger, s.storeTimeout, "append_message", func(ctx context.Context) error {
		return s.transcript.AppendMessage(ctx, msg)
	})
}

func appendHistory(history []models.ChatTurn, turns ...models.ChatTurn) []models.ChatTurn {
	history = append(history, turns...)
	if len(history) > maxHistory {
		history = append([]models.ChatTurn(nil), history[len(history)-maxHistory:]...)
	}
	return history
}

func (s *ChatbotService) actionsFor(result TurnResult) []models.Action {
	switch {
	case result.AppointmentID != "" && s.paymentEnabled:
		return []models.Action{{
			Type:  "checkout",
			Label: "Pay and confirm",
			Payload: map[string]interface{}{
				"appointment_id": result.AppointmentID,
				"url":            fmt.Sprintf("/api/v1/appointments/%s/checkout", result.AppointmentID),
			},
		}}
	case result.State.CurrentStep == models.StepRecommendation && result.State.RecommendedDoctorID != "":
		return []models.Action{
			{Type: "quick_reply", Label: "Book appointment", Payload: map[string]interface{}{"message": "yes"}},
			{Type: "quick_reply", Label: "Not now", Payload: map[string]interface{}{"message": "no"}},
		}
	case result.RequiresLocation:
		return []models.Action{{Type: "request_location", Label: "Share my area"}}
	default:
		return nil
	}
}

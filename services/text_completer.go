package services

import (
	"context"
	"strings"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/models"

	"go.uber.org/zap"
)

// TextCompleter is the remote language model. Implementations return the
// model's text or an error; callers treat every error the same way.
type TextCompleter interface {
	Complete(ctx context.Context, systemPrompt string, history []models.ChatTurn, message string) (string, error)
}

// NewTextCompleter builds the configured provider, or nil when no API key
// is set.
func NewTextCompleter(cfg config.AIConfig, logger *zap.Logger) TextCompleter {
	if cfg.APIKey == "" {
		logger.Warn("No AI API key configured; language model fallbacks are disabled")
		return nil
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAIService(cfg)
	default:
		return NewGeminiService(cfg)
	}
}

// completion wraps one TextCompleter call with the timeout and metrics
// every caller needs. A nil completer yields ErrLLMUnavailable.
type completion struct {
	llm     TextCompleter
	timeout time.Duration
}

func (c completion) run(ctx context.Context, purpose, systemPrompt string, history []models.ChatTurn, message string) (string, error) {
	if c.llm == nil {
		llmRequestsTotal.WithLabelValues(purpose, "unavailable").Inc()
		return "", ErrLLMUnavailable
	}
	ctx, cancel := bounded(ctx, c.timeout)
	defer cancel()

	text, err := c.llm.Complete(ctx, systemPrompt, history, message)
	if err != nil {
		llmRequestsTotal.WithLabelValues(purpose, "error").Inc()
		return "", err
	}
	llmRequestsTotal.WithLabelValues(purpose, "ok").Inc()
	return strings.TrimSpace(text), nil
}

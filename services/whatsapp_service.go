// services/whatsapp_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/models"

	"go.uber.org/zap"
)

const defaultGraphURL = "https://graph.facebook.com"

type WhatsAppService struct {
	apiURL        string
	apiVersion    string
	accessToken   string
	phoneNumberID string
	verifyToken   string
	httpClient    *http.Client
	logger        *zap.Logger

	// Status tracking
	statusMu     sync.RWMutex
	lastSent     time.Time
	lastReceived time.Time
	dailyCount   map[string]int
	now          func() time.Time
}

func NewWhatsAppService(cfg config.WhatsAppConfig, logger *zap.Logger) *WhatsAppService {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultGraphURL
	}
	return &WhatsAppService{
		apiURL:        apiURL,
		apiVersion:    cfg.APIVersion,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		verifyToken:   cfg.VerifyToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     logger,
		dailyCount: make(map[string]int),
		now:        time.Now,
	}
}

// GetVerifyToken returns the webhook verification token
func (ws *WhatsAppService) GetVerifyToken() string {
	return ws.verifyToken
}

// SendTextMessage sends a simple text message
func (ws *WhatsAppService) SendTextMessage(ctx context.Context, to string, message string) error {
	payload := models.WhatsAppSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               CleanPhoneNumber(to),
		Type:             "text",
		Text: &models.WhatsAppText{
			Body: message,
		},
	}
	if err := ws.sendRequest(ctx, payload); err != nil {
		return err
	}
	ws.recordSent()
	return nil
}

// MarkMessageAsRead marks a message as read
func (ws *WhatsAppService) MarkMessageAsRead(ctx context.Context, messageID string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	return ws.sendRequest(ctx, payload)
}

func (ws *WhatsAppService) sendRequest(ctx context.Context, payload interface{}) error {
	url := fmt.Sprintf("%s/%s/%s/messages", ws.apiURL, ws.apiVersion, ws.phoneNumberID)

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+ws.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorResp struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			ws.logger.Warn("WhatsApp API error",
				zap.Int("status", resp.StatusCode),
				zap.Int("code", errorResp.Error.Code),
				zap.String("message", errorResp.Error.Message))
			return fmt.Errorf("WhatsApp API error %d: %s", errorResp.Error.Code, errorResp.Error.Message)
		}
		return fmt.Errorf("WhatsApp API error: %s", string(body))
	}
	return nil
}

// CleanPhoneNumber keeps digits only and adds the Bangladesh country code
// to local 11-digit numbers.
func CleanPhoneNumber(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "0") {
		cleaned = "88" + cleaned
	}
	return cleaned
}

func (ws *WhatsAppService) recordSent() {
	ws.statusMu.Lock()
	defer ws.statusMu.Unlock()
	ws.lastSent = ws.now()
}

// RecordInbound counts a received user message.
func (ws *WhatsAppService) RecordInbound() {
	ws.statusMu.Lock()
	defer ws.statusMu.Unlock()
	now := ws.now()
	ws.lastReceived = now
	ws.dailyCount[now.Format("2006-01-02")]++
}

// GetStatus returns the service status
func (ws *WhatsAppService) GetStatus() models.WhatsAppServiceStatus {
	ws.statusMu.RLock()
	defer ws.statusMu.RUnlock()

	return models.WhatsAppServiceStatus{
		Enabled:             ws.accessToken != "" && ws.phoneNumberID != "",
		LastMessageSent:     ws.lastSent,
		LastMessageReceived: ws.lastReceived,
		MessageCountToday:   ws.dailyCount[ws.now().Format("2006-01-02")],
	}
}

package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/models"

	"go.uber.org/zap"
)

func TestCleanPhoneNumber(t *testing.T) {
	cases := map[string]string{
		"01712-345678":   "8801712345678",
		"+8801712345678": "8801712345678",
		"1 (415) 555-01": "141555501",
	}
	for in, want := range cases {
		if got := CleanPhoneNumber(in); got != want {
			t.Errorf("CleanPhoneNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSendTextMessage(t *testing.T) {
	var sent models.WhatsAppSendMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/PHONE/messages" || r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":100,"message":"bad request"}}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&sent)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid"}]}`))
	}))
	defer srv.Close()

	ws := NewWhatsAppService(config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "PHONE", APIVersion: "v18.0"}, zap.NewNop())
	ws.apiURL = srv.URL
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	ws.now = func() time.Time { return now }

	if err := ws.SendTextMessage(context.Background(), "01712345678", "hello"); err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}
	if sent.To != "8801712345678" || sent.Text == nil || sent.Text.Body != "hello" || sent.MessagingProduct != "whatsapp" {
		t.Fatalf("unexpected payload %+v", sent)
	}

	ws.RecordInbound()
	ws.RecordInbound()
	status := ws.GetStatus()
	if !status.Enabled || status.MessageCountToday != 2 || !status.LastMessageSent.Equal(now) {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestSendTextMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":190,"message":"token expired"}}`))
	}))
	defer srv.Close()

	ws := NewWhatsAppService(config.WhatsAppConfig{APIVersion: "v18.0"}, zap.NewNop())
	ws.apiURL = srv.URL
	if err := ws.SendTextMessage(context.Background(), "123", "hi"); err == nil {
		t.Fatalf("expected an API error")
	}
	if !ws.GetStatus().LastMessageSent.IsZero() {
		t.Fatalf("a failed send must not count as sent")
	}
}

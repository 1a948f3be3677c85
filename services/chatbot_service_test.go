package services

import (
	"context"
	"testing"
	"time"

	"health-intake-backend/models"

	"go.uber.org/zap"
)

func TestIntakeConversationEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newClinicStore()
	bot := newTestChatbot(store, nil)

	steps := []struct {
		message string
		step    models.Step
	}{
		{"hi", models.StepGreeting},
		{"I have fever and headache for two days", models.StepLocation},
		{"Dhanmondi", models.StepRecommendation},
		{"yes", models.StepBooking},
	}

	var responses []*models.ChatResponse
	for _, s := range steps {
		resp, err := bot.ProcessMessage(ctx, "session-1", models.ChatRequest{Message: s.message})
		if err != nil {
			t.Fatalf("%q: %v", s.message, err)
		}
		if resp.Step != s.step {
			t.Fatalf("%q: step %q, want %q (reply %q)", s.message, resp.Step, s.step, resp.Response)
		}
		responses = append(responses, resp)
	}

	if got := responses[1]; got.DetectedDisease != "Typhoid" || !got.RequiresLocation || got.Actions[0].Type != "request_location" {
		t.Fatalf("unexpected symptom reply %+v", got)
	}
	if got := responses[2]; got.RecommendedDoctorID != "dr-rahman" || len(got.Actions) != 2 {
		t.Fatalf("unexpected recommendation %+v", got)
	}
	booked := responses[3]
	if booked.AppointmentID == "" || booked.Doctor == nil || booked.Doctor.Fee != 1000 {
		t.Fatalf("unexpected booking reply %+v", booked)
	}
	if booked.Actions != nil {
		t.Fatalf("no checkout action without a payment gateway, got %+v", booked.Actions)
	}

	appointments := store.Appointments()
	if len(appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appointments))
	}
	a := appointments[0]
	if a.ID != booked.AppointmentID || a.Status != models.AppointmentPending || a.Paid || a.Amount != 1000 || a.DoctorID != "dr-rahman" {
		t.Fatalf("unexpected appointment %+v", a)
	}

	messages := store.Messages()
	if len(messages) != 2*len(steps) {
		t.Fatalf("expected %d transcript lines, got %d", 2*len(steps), len(messages))
	}
	if !messages[0].IsFromUser || messages[1].IsFromUser || messages[0].Channel != models.ChannelWeb {
		t.Fatalf("unexpected transcript %+v", messages[:2])
	}
	if messages[0].OwnerID != a.OwnerID {
		t.Fatalf("appointment owner %q differs from transcript owner %q", a.OwnerID, messages[0].OwnerID)
	}
	if messages[5].RecommendedDoctorID != "dr-rahman" || messages[3].DetectedDisease != "Typhoid" {
		t.Fatalf("assistant lines should carry disease and doctor: %+v", messages)
	}
}

func TestCheckoutActionWhenPaymentEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Payment.BaseURL = "http://gateway.test"
	store := newClinicStore()
	bot := NewIntakeChatbot(cfg, IntakeDeps{Store: store, Sessions: NewMemorySessionStore(time.Hour)}, zap.NewNop())

	ctx := context.Background()
	for _, msg := range []string{"hi", "I have fever and headache for two days", "Dhanmondi"} {
		if _, err := bot.ProcessMessage(ctx, "s", models.ChatRequest{Message: msg}); err != nil {
			t.Fatalf("%q: %v", msg, err)
		}
	}
	resp, err := bot.ProcessMessage(ctx, "s", models.ChatRequest{Message: "yes"})
	if err != nil {
		t.Fatalf("yes: %v", err)
	}
	if len(resp.Actions) != 1 || resp.Actions[0].Type != "checkout" || resp.Actions[0].Payload["appointment_id"] != resp.AppointmentID {
		t.Fatalf("unexpected actions %+v", resp.Actions)
	}
}

func TestProcessMessageAssignsSessionID(t *testing.T) {
	bot := newTestChatbot(newClinicStore(), nil)
	resp, err := bot.ProcessMessage(context.Background(), "", models.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if resp.SessionID == "" || resp.Step != models.StepGreeting {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestProcessMessageHonoursCancelledContext(t *testing.T) {
	bot := newTestChatbot(newClinicStore(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := bot.ProcessMessage(ctx, "s", models.ChatRequest{Message: "hi"}); err == nil {
		t.Fatalf("expected an error for a cancelled context")
	}
}

func TestTranscriptFailureDoesNotFailTurn(t *testing.T) {
	store := &failingStore{MemoryStore: newClinicStore(), failTranscript: true}
	bot := newTestChatbot(store, nil)
	resp, err := bot.ProcessMessage(context.Background(), "s", models.ChatRequest{Message: "hi"})
	if err != nil || resp.Response != greetingReply {
		t.Fatalf("got %+v, %v", resp, err)
	}
}

func TestHistoryIsCapped(t *testing.T) {
	sessions := NewMemorySessionStore(time.Hour)
	bot := NewIntakeChatbot(testConfig(), IntakeDeps{Store: newClinicStore(), Sessions: sessions}, zap.NewNop())
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := bot.ProcessMessage(ctx, "s", models.ChatRequest{Message: "hello"}); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}
	record, err := sessions.Load(ctx, "s")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(record.History) != maxHistory {
		t.Fatalf("expected %d turns of history, got %d", maxHistory, len(record.History))
	}
}

func TestResetSessionStartsOver(t *testing.T) {
	ctx := context.Background()
	bot := newTestChatbot(newClinicStore(), nil)
	for _, msg := range []string{"hi", "I have fever and headache for two days"} {
		if _, err := bot.ProcessMessage(ctx, "s", models.ChatRequest{Message: msg}); err != nil {
			t.Fatalf("%q: %v", msg, err)
		}
	}
	if err := bot.ResetSession(ctx, "s"); err != nil {
		t.Fatalf("ResetSession: %v", err)
	}
	// a fresh session greets first, whatever the message
	resp, err := bot.ProcessMessage(ctx, "s", models.ChatRequest{Message: "Dhanmondi"})
	if err != nil || resp.Step != models.StepGreeting {
		t.Fatalf("got %+v, %v", resp, err)
	}
}

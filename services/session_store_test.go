package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"health-intake-backend/models"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore(time.Hour)

	if _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	record := &SessionRecord{
		OwnerID: "owner",
		State:   models.AwaitingLocation{Disease: "Typhoid"}.Encode(),
		History: []models.ChatTurn{{Role: models.RoleUser, Content: "fever"}},
	}
	if err := s.Save(ctx, "s1", record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	record.History[0].Content = "mutated"

	got, err := s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.State.CurrentStep != models.StepLocation || got.History[0].Content != "fever" {
		t.Fatalf("unexpected record %+v", got)
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("deleted session still loads: %v", err)
	}
}

func TestMemorySessionStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	s := NewMemorySessionStore(30 * time.Minute)
	s.now = func() time.Time { return now }

	_ = s.Save(ctx, "old", &SessionRecord{OwnerID: "a", UpdatedAt: now})
	now = now.Add(20 * time.Minute)
	_ = s.Save(ctx, "new", &SessionRecord{OwnerID: "b", UpdatedAt: now})

	now = now.Add(15 * time.Minute)
	if _, err := s.Load(ctx, "old"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("idle session should expire, got %v", err)
	}
	if _, err := s.Load(ctx, "new"); err != nil {
		t.Fatalf("fresh session expired early: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", s.Len())
	}
}

func TestSessionKey(t *testing.T) {
	if got := sessionKey("abc"); got != "intake:session:abc" {
		t.Fatalf("sessionKey = %q", got)
	}
}

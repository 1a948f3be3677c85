package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"health-intake-backend/models"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "intake:session:"

// SessionRecord is what a session carries between turns.
type SessionRecord struct {
	OwnerID   string                   `json:"owner_id"`
	State     models.ConversationState `json:"state"`
	History   []models.ChatTurn        `json:"history,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// SessionStore keeps SessionRecords with an idle expiry. Load returns
// ErrSessionNotFound for unknown or expired sessions.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*SessionRecord, error)
	Save(ctx context.Context, sessionID string, record *SessionRecord) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore stores JSON records whose TTL is refreshed on every save.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*SessionRecord, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var record SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &record, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, record *SessionRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu      sync.Mutex
	records map[string]SessionRecord
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		records: make(map[string]SessionRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemorySessionStore) Load(ctx context.Context, sessionID string) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.ttl > 0 && s.now().Sub(record.UpdatedAt) > s.ttl {
		delete(s.records, sessionID)
		return nil, ErrSessionNotFound
	}
	record.History = append([]models.ChatTurn(nil), record.History...)
	return &record, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, sessionID string, record *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	stored.History = append([]models.ChatTurn(nil), record.History...)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = s.now()
	}
	s.records[sessionID] = stored
	s.sweep()
	return nil
}

// sweep drops expired records. Callers hold mu.
func (s *MemorySessionStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	for id, r := range s.records {
		if now.Sub(r.UpdatedAt) > s.ttl {
			delete(s.records, id)
		}
	}
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionID)
	return nil
}

// Len reports the number of live sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.records)
}

package intent

import (
	"context"
	"sync"
	"time"

	"github.com/shadowbot/shadowbot/internal/models"
)

var _ models.IntentStore = (*MemoryStore)(nil)

type entry struct {
	intent    models.Intent
	expiresAt time.Time
}

// MemoryStore is a process-local IntentStore, used when no Redis URL is configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(ttl, time.Now)
}

func NewMemoryStoreWithClock(ttl time.Duration, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

func (s *MemoryStore) Set(ctx context.Context, chatID string, intent models.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()
	if intent == models.IntentNone {
		delete(s.entries, chatID)
		return nil
	}
	s.entries[chatID] = entry{intent: intent, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Pop(ctx context.Context, chatID string) (models.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[chatID]
	if !ok {
		return models.IntentNone, nil
	}
	delete(s.entries, chatID)
	if !s.now().Before(e.expiresAt) {
		return models.IntentNone, nil
	}
	return e.intent, nil
}

// evictExpired bounds the map for chats that never come back. Caller holds mu.
func (s *MemoryStore) evictExpired() {
	now := s.now()
	for chatID, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, chatID)
		}
	}
}

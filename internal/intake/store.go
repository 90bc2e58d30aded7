package intake

import (
	"context"
	"sync"
	"time"

	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/platform/logger"
)

// Store is the process-wide conversation table. State lives only for the
// lifetime of the process; there is no durability across restarts.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	log           *logger.Logger
}

// NewStore creates an empty conversation table.
func NewStore(log *logger.Logger) *Store {
	return &Store{
		conversations: make(map[string]*domain.Conversation),
		log:           log,
	}
}

// Get returns the conversation for the key, or nil.
func (s *Store) Get(id string) *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations[id]
}

// Create replaces any existing state for the key with a fresh conversation.
func (s *Store) Create(id string, variant domain.FlowVariant) *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := domain.NewConversation(id, variant, time.Now())
	s.conversations[id] = conv
	return conv
}

// Delete discards the conversation state for the key.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
}

// Len returns the number of active conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// EvictIdle removes conversations idle longer than ttl and returns how
// many were evicted.
func (s *Store) EvictIdle(ttl time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, conv := range s.conversations {
		if now.Sub(conv.LastActivity) > ttl {
			delete(s.conversations, id)
			evicted++
		}
	}
	return evicted
}

// RunEviction periodically evicts idle conversations until the context
// ends. Abandoned conversations would otherwise leak for the process
// lifetime.
func (s *Store) RunEviction(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := s.EvictIdle(ttl, now); evicted > 0 {
				s.log.Info("evicted idle conversations", "count", evicted)
			}
		}
	}
}

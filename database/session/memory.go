package session

import (
	"context"
	"sync"

	"courtbook/models"
)

// MemoryStore keeps conversations in process memory. Default store when no
// Redis is configured; conversations live until the process exits.
type MemoryStore struct {
	mu    sync.RWMutex
	table map[string]models.Conversation
	locks *userLocks
}

// NewMemoryStore returns an empty in-memory conversation table.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		table: make(map[string]models.Conversation),
		locks: newUserLocks(),
	}
}

func (s *MemoryStore) Lock(userID string) func() {
	return s.locks.lock(userID)
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.table[userID]
	if !ok {
		return nil, nil
	}
	// Copy out so callers mutate their own view until Save.
	out := conv
	return &out, nil
}

func (s *MemoryStore) Save(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[conv.UserID] = *conv
	return nil
}

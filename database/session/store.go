// Package session stores per-user booking conversations. The workflow
// engine treats the store as an injected table: get, mutate, save, all under
// a per-user lock so concurrent events from one user never interleave.
package session

import (
	"context"
	"sync"

	"courtbook/models"
)

// Store is the keyed conversation table handed to the state machine.
type Store interface {
	// Lock serializes event handling for one user and returns the unlock
	// function. Events from different users proceed concurrently.
	Lock(userID string) func()
	// Get returns the user's conversation, or nil when none exists yet.
	Get(ctx context.Context, userID string) (*models.Conversation, error)
	// Save persists the conversation after a mutation.
	Save(ctx context.Context, conv *models.Conversation) error
}

// userLocks hands out one mutex per user id. Locks are never released from
// the map; the population is bounded by the user base, same as the
// conversations themselves.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Package session provides session store implementations.
package session

import (
	"context"
	"sync"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// MemoryStore keeps sessions in process memory. Values are copied on the
// way in and out so callers never share state through the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*model.Session)}
}

// Get returns the session for userID.
func (s *MemoryStore) Get(_ context.Context, userID string) (*model.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, false, nil
	}
	return sess.Clone(), true, nil
}

// Put stores sess under its user id.
func (s *MemoryStore) Put(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess.Clone()
	return nil
}

// Len reports the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

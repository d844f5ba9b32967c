package repository

import (
	"context"
	"sync"
	"time"

	"scdb-dashboard/models"

	"github.com/google/uuid"
)

// MemorySessionStore keeps sessions in process memory. Sessions idle for
// longer than ttl are invisible to Load and removed by Sweep.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates an empty store; ttl <= 0 disables expiry
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[uuid.UUID]models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Save creates or replaces a session
func (s *MemorySessionStore) Save(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = *sess
	return nil
}

// Load returns a live session and marks it as used
func (s *MemorySessionStore) Load(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, ErrNotFound
	}
	sess.UpdatedAt = s.now()
	s.sessions[id] = sess
	return &sess, nil
}

// Delete removes a session
func (s *MemorySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones not yet swept included
func (s *MemorySessionStore) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

// Sweep removes expired sessions and returns how many were removed
func (s *MemorySessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// TTL returns the idle lifetime of a session
func (s *MemorySessionStore) TTL() time.Duration { return s.ttl }

func (s *MemorySessionStore) expired(sess models.Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}

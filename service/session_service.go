package service

import (
	"context"
	"errors"
	"time"

	"scdb-dashboard/models"
	"scdb-dashboard/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists sessions. Load must return repository.ErrNotFound
// for unknown or expired sessions.
type SessionStore interface {
	Save(ctx context.Context, sess *models.Session) error
	Load(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Len(ctx context.Context) (int, error)
}

// sweeper is implemented by stores that expire sessions in process
type sweeper interface {
	Sweep() int
	TTL() time.Duration
}

// SessionService gives each browser session its own dashboard state
type SessionService struct {
	dashboard *DashboardService
	store     SessionStore
	logger    zerolog.Logger
	now       func() time.Time
}

// SessionServiceOption is a functional option for SessionService
type SessionServiceOption func(*SessionService)

// WithSessionStore sets where sessions live
func WithSessionStore(store SessionStore) SessionServiceOption {
	return func(s *SessionService) {
		s.store = store
	}
}

// WithSessionLogger sets the logger
func WithSessionLogger(logger zerolog.Logger) SessionServiceOption {
	return func(s *SessionService) {
		s.logger = logger
	}
}

// NewSessionService creates a new session service. Without a store, sessions
// are kept in memory for two idle hours.
func NewSessionService(dashboard *DashboardService, opts ...SessionServiceOption) *SessionService {
	s := &SessionService{
		dashboard: dashboard,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemorySessionStore(2 * time.Hour)
	}
	return s
}

// Create starts a session in the default state
func (s *SessionService) Create(ctx context.Context) (*models.Session, error) {
	now := s.now()
	sess := &models.Session{
		ID:        uuid.New(),
		State:     s.dashboard.DefaultState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns a session
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sess, err := s.store.Load(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return sess, err
}

// Update replaces a session's state with its normalized form
func (s *SessionService) Update(ctx context.Context, id uuid.UUID, state models.DashboardState) (*models.Session, []string, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	normalized, warnings := s.dashboard.Normalize(state)
	sess.State = normalized
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, nil, err
	}
	return sess, warnings, nil
}

// Delete ends a session
func (s *SessionService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// Compute recomputes the dashboard for a session's current state
func (s *SessionService) Compute(ctx context.Context, id uuid.UUID) (*DashboardResult, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.dashboard.Compute(sess.State)
}

// Len returns the number of stored sessions
func (s *SessionService) Len(ctx context.Context) (int, error) {
	return s.store.Len(ctx)
}

// Start sweeps expired sessions until ctx is done. Stores that expire
// sessions themselves need no sweeper.
func (s *SessionService) Start(ctx context.Context) {
	sw, ok := s.store.(sweeper)
	if !ok {
		return
	}
	ttl := sw.TTL()
	if ttl <= 0 {
		s.logger.Info().Msg("Session expiry disabled")
		return
	}

	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sw.Sweep(); n > 0 {
					s.logger.Info().Int("removed", n).Msg("Expired idle sessions")
				}
			}
		}
	}()
	s.logger.Info().Dur("ttl", ttl).Dur("interval", interval).Msg("Session sweeper started")
}

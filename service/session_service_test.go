package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scdb-dashboard/models"
	"scdb-dashboard/repository"

	"github.com/google/uuid"
)

func newSessions(t *testing.T) *SessionService {
	t.Helper()
	return NewSessionService(newDashboard(t),
		WithSessionStore(repository.NewMemorySessionStore(time.Hour)))
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newSessions(t)
	a, err := s.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = s.Update(ctx, a.ID, models.DashboardState{
		Selection: models.FilterSelection{Categories: map[string][]string{"chief": {"Roberts"}}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	ra, err := s.Compute(ctx, a.ID)
	if err != nil {
		t.Fatalf("Compute a: %v", err)
	}
	rb, err := s.Compute(ctx, b.ID)
	if err != nil {
		t.Fatalf("Compute b: %v", err)
	}
	if ra.Matched != 4 || rb.Matched != 10 {
		t.Errorf("matched a=%d b=%d, want 4 and 10", ra.Matched, rb.Matched)
	}
}

func TestSessionCreateUsesDefaultState(t *testing.T) {
	s := newSessions(t)
	sess, err := s.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sess.State.BarVariable != "issueArea" || len(sess.State.Columns) != 5 {
		t.Errorf("unexpected initial state %+v", sess.State)
	}
}

func TestSessionUpdateNormalizes(t *testing.T) {
	ctx := context.Background()
	s := newSessions(t)
	sess, err := s.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	updated, warnings, err := s.Update(ctx, sess.ID, models.DashboardState{BarVariable: "nope"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.State.BarVariable != "issueArea" || len(warnings) != 1 {
		t.Errorf("bar variable %q, warnings %v", updated.State.BarVariable, warnings)
	}
	if updated.State.Selection.TermStart != 1990 || updated.State.Selection.TermEnd != 2012 {
		t.Errorf("open bounds not resolved: %+v", updated.State.Selection)
	}

	stored, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.State.BarVariable != "issueArea" {
		t.Errorf("stored state not normalized: %+v", stored.State)
	}
}

func TestSessionNotFound(t *testing.T) {
	ctx := context.Background()
	s := newSessions(t)
	id := uuid.New()

	if _, err := s.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get: %v", err)
	}
	if _, _, err := s.Update(ctx, id, models.DashboardState{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Update: %v", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete: %v", err)
	}
	if _, err := s.Compute(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Compute: %v", err)
	}
}

func TestSessionDelete(t *testing.T) {
	ctx := context.Background()
	s := newSessions(t)
	sess, err := s.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected deleted session to be gone, got %v", err)
	}
}

func TestSessionStartStopsWithContext(t *testing.T) {
	s := newSessions(t)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	if _, err := s.Create(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Len(context.Background()); n != 1 {
		t.Errorf("Len = %d", n)
	}
}

func TestSessionsConcurrentUse(t *testing.T) {
	ctx := context.Background()
	s := newSessions(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := s.Create(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			if _, _, err := s.Update(ctx, sess.ID, models.DashboardState{TrendVariable: "chief"}); err != nil {
				t.Error(err)
				return
			}
			if _, err := s.Compute(ctx, sess.ID); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n, _ := s.Len(ctx); n != 8 {
		t.Errorf("Len = %d, want 8", n)
	}
}

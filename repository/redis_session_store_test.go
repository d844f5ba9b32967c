package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"scdb-dashboard/models"

	"github.com/google/uuid"
)

func TestRedisSessionStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()

	store, err := NewRedisSessionStore(ctx, url, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisSessionStore: %v", err)
	}
	defer store.Close()

	sess := &models.Session{
		ID:    uuid.New(),
		State: models.DashboardState{Columns: []string{"caseId"}, BarVariable: "chief"},
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	defer store.Delete(ctx, sess.ID)

	loaded, err := store.Load(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.State.BarVariable != "chief" || len(loaded.State.Columns) != 1 {
		t.Errorf("unexpected session %+v", loaded)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

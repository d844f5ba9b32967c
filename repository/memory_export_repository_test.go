package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"scdb-dashboard/models"

	"github.com/google/uuid"
)

func TestMemoryExportRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExportRepository()

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	older := &models.Export{ID: uuid.New(), Filename: "a.csv", Format: models.ExportCSV, RowCount: 3}
	newer := &models.Export{ID: uuid.New(), Filename: "b.xlsx", Format: models.ExportXLSX, RowCount: 1}
	if err := repo.Create(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatal(err)
	}
	if older.CreatedAt.IsZero() {
		t.Error("Create should stamp CreatedAt")
	}

	got, err := repo.GetByID(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Filename != "a.csv" || got.RowCount != 3 {
		t.Errorf("unexpected export %+v", got)
	}

	recent, err := repo.ListRecent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != newer.ID {
		t.Errorf("ListRecent(1) = %+v", recent)
	}

	before, err := repo.ListBefore(ctx, newer.CreatedAt)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 1 || before[0].ID != older.ID {
		t.Errorf("ListBefore = %+v", before)
	}

	if err := repo.Delete(ctx, older.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, older.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, older.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting twice: expected ErrNotFound, got %v", err)
	}
}

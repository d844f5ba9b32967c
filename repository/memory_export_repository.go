package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"scdb-dashboard/models"

	"github.com/google/uuid"
)

// MemoryExportRepository keeps export records in process memory.
// Used when no DATABASE_URL is configured.
type MemoryExportRepository struct {
	mu      sync.RWMutex
	exports map[uuid.UUID]models.Export
	now     func() time.Time
}

// NewMemoryExportRepository creates an empty in-memory export repository
func NewMemoryExportRepository() *MemoryExportRepository {
	return &MemoryExportRepository{
		exports: make(map[uuid.UUID]models.Export),
		now:     time.Now,
	}
}

// Create stores an export record
func (r *MemoryExportRepository) Create(ctx context.Context, export *models.Export) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	export.CreatedAt = r.now().UTC()
	r.exports[export.ID] = *export
	return nil
}

// GetByID retrieves an export by ID
func (r *MemoryExportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Export, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	export, ok := r.exports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &export, nil
}

// ListRecent retrieves the most recent exports, newest first
func (r *MemoryExportRepository) ListRecent(ctx context.Context, limit int) ([]*models.Export, error) {
	r.mu.RLock()
	exports := make([]*models.Export, 0, len(r.exports))
	for _, e := range r.exports {
		e := e
		exports = append(exports, &e)
	}
	r.mu.RUnlock()

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].CreatedAt.After(exports[j].CreatedAt)
	})
	if limit > 0 && len(exports) > limit {
		exports = exports[:limit]
	}
	return exports, nil
}

// ListBefore retrieves exports created before cutoff, oldest first
func (r *MemoryExportRepository) ListBefore(ctx context.Context, cutoff time.Time) ([]*models.Export, error) {
	r.mu.RLock()
	var exports []*models.Export
	for _, e := range r.exports {
		if e.CreatedAt.Before(cutoff) {
			e := e
			exports = append(exports, &e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].CreatedAt.Before(exports[j].CreatedAt)
	})
	return exports, nil
}

// Delete removes an export record
func (r *MemoryExportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exports[id]; !ok {
		return ErrNotFound
	}
	delete(r.exports, id)
	return nil
}

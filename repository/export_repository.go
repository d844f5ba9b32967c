package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scdb-dashboard/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ExportRepository handles database operations for archived exports
type ExportRepository struct {
	db *pgxpool.Pool
}

// NewExportRepository creates a new export repository
func NewExportRepository(db *pgxpool.Pool) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts an export record; the caller assigns the ID
func (r *ExportRepository) Create(ctx context.Context, export *models.Export) error {
	query := `
		INSERT INTO exports (
			id, filename, format, mime_type, row_count, size, storage_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		export.ID,
		export.Filename,
		export.Format,
		export.MimeType,
		export.RowCount,
		export.Size,
		export.StoragePath,
	).Scan(&export.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}
	return nil
}

// GetByID retrieves an export by ID
func (r *ExportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Export, error) {
	export := &models.Export{}
	query := `
		SELECT id, filename, format, mime_type, row_count, size, storage_path, created_at
		FROM exports
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&export.ID,
		&export.Filename,
		&export.Format,
		&export.MimeType,
		&export.RowCount,
		&export.Size,
		&export.StoragePath,
		&export.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return export, nil
}

// ListRecent retrieves the most recent exports, newest first
func (r *ExportRepository) ListRecent(ctx context.Context, limit int) ([]*models.Export, error) {
	query := `
		SELECT id, filename, format, mime_type, row_count, size, storage_path, created_at
		FROM exports
		ORDER BY created_at DESC
		LIMIT $1`

	return r.list(ctx, query, limit)
}

// ListBefore retrieves exports created before cutoff, oldest first
func (r *ExportRepository) ListBefore(ctx context.Context, cutoff time.Time) ([]*models.Export, error) {
	query := `
		SELECT id, filename, format, mime_type, row_count, size, storage_path, created_at
		FROM exports
		WHERE created_at < $1
		ORDER BY created_at ASC`

	return r.list(ctx, query, cutoff)
}

func (r *ExportRepository) list(ctx context.Context, query string, args ...any) ([]*models.Export, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*models.Export
	for rows.Next() {
		export := &models.Export{}
		err := rows.Scan(
			&export.ID,
			&export.Filename,
			&export.Format,
			&export.MimeType,
			&export.RowCount,
			&export.Size,
			&export.StoragePath,
			&export.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		exports = append(exports, export)
	}

	return exports, rows.Err()
}

// Delete deletes an export record
func (r *ExportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM exports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

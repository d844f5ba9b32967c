package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"scdb-dashboard/models"
	"scdb-dashboard/repository"
	"scdb-dashboard/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for export formats other than csv and xlsx
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrExportNotFound is returned when an archived export does not exist
	ErrExportNotFound = errors.New("export not found")
)

const exportSheet = "Data"

// ExportRecorder stores export metadata
type ExportRecorder interface {
	Create(ctx context.Context, export *models.Export) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Export, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Export, error)
	ListBefore(ctx context.Context, cutoff time.Time) ([]*models.Export, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExportService serializes the displayed table and optionally archives it
type ExportService struct {
	basename string
	store    storage.Storage
	exports  ExportRecorder
	logger   zerolog.Logger
}

// ExportServiceOption is a functional option for ExportService
type ExportServiceOption func(*ExportService)

// WithExportBasename sets the download filename without extension
func WithExportBasename(name string) ExportServiceOption {
	return func(s *ExportService) {
		s.basename = name
	}
}

// WithArchive enables archiving: files go to store and metadata to exports
func WithArchive(store storage.Storage, exports ExportRecorder) ExportServiceOption {
	return func(s *ExportService) {
		s.store = store
		s.exports = exports
	}
}

// WithExportLogger sets the logger
func WithExportLogger(logger zerolog.Logger) ExportServiceOption {
	return func(s *ExportService) {
		s.logger = logger
	}
}

// NewExportService creates a new export service
func NewExportService(opts ...ExportServiceOption) *ExportService {
	s := &ExportService{
		basename: "filtered_dashboard_data",
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportRequest carries the exact table the user sees
type ExportRequest struct {
	Columns []string
	Rows    [][]string
	Format  models.ExportFormat
}

// ExportResult is a serialized export ready for download
type ExportResult struct {
	Filename string
	MimeType string
	Data     []byte
	// Archived is nil when archiving is disabled or failed
	Archived *models.Export
}

// Filename returns the deterministic download name for a format
func (s *ExportService) Filename(format models.ExportFormat) string {
	return s.basename + "." + string(format)
}

// Archiving reports whether exports are archived
func (s *ExportService) Archiving() bool {
	return s.store != nil && s.exports != nil
}

// Export serializes the rows. Archive failures are logged and do not fail the export.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if req.Format == "" {
		req.Format = models.ExportCSV
	}

	var buf bytes.Buffer
	switch req.Format {
	case models.ExportCSV:
		if err := WriteCSV(&buf, req.Columns, req.Rows); err != nil {
			return nil, err
		}
	case models.ExportXLSX:
		if err := WriteXLSX(&buf, req.Columns, req.Rows); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}

	filename := s.Filename(req.Format)
	result := &ExportResult{
		Filename: filename,
		MimeType: storage.ContentType(filename),
		Data:     buf.Bytes(),
	}

	if s.Archiving() {
		archived, err := s.archive(ctx, result, req.Format, len(req.Rows))
		if err != nil {
			s.logger.Error().Err(err).Str("filename", filename).Msg("Failed to archive export")
		} else {
			result.Archived = archived
		}
	}
	return result, nil
}

func (s *ExportService) archive(ctx context.Context, result *ExportResult, format models.ExportFormat, rows int) (*models.Export, error) {
	export := &models.Export{
		ID:       uuid.New(),
		Filename: result.Filename,
		Format:   format,
		MimeType: result.MimeType,
		RowCount: rows,
		Size:     int64(len(result.Data)),
	}

	path, err := s.store.Upload(ctx, export.ID, export.Filename, bytes.NewReader(result.Data))
	if err != nil {
		return nil, err
	}
	export.StoragePath = path

	if err := s.exports.Create(ctx, export); err != nil {
		if delErr := s.store.Delete(ctx, path); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", path).Msg("Failed to remove orphaned export file")
		}
		return nil, err
	}
	return export, nil
}

// GetExport returns an archived export's metadata and content
func (s *ExportService) GetExport(ctx context.Context, id uuid.UUID) (*models.Export, io.ReadCloser, error) {
	if !s.Archiving() {
		return nil, nil, ErrExportNotFound
	}

	export, err := s.exports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrExportNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Download(ctx, export.StoragePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, ErrExportNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return export, rc, nil
}

// ListExports returns the most recent archived exports
func (s *ExportService) ListExports(ctx context.Context, limit int) ([]*models.Export, error) {
	if !s.Archiving() {
		return []*models.Export{}, nil
	}
	exports, err := s.exports.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if exports == nil {
		exports = []*models.Export{}
	}
	return exports, nil
}

// DeleteExport removes an archived export's file and record
func (s *ExportService) DeleteExport(ctx context.Context, id uuid.UUID) error {
	if !s.Archiving() {
		return ErrExportNotFound
	}

	export, err := s.exports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrExportNotFound
	}
	if err != nil {
		return err
	}
	return s.remove(ctx, export)
}

// Prune removes archived exports created before cutoff and returns how many
// were removed. A failed removal is reported and does not stop the rest.
func (s *ExportService) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if !s.Archiving() {
		return 0, nil
	}

	expired, err := s.exports.ListBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, export := range expired {
		if err := s.remove(ctx, export); err != nil {
			errs = append(errs, fmt.Errorf("export %s: %w", export.ID, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// StartRetention prunes exports older than maxAge until ctx is done.
// A non-positive maxAge keeps exports forever.
func (s *ExportService) StartRetention(ctx context.Context, maxAge time.Duration) {
	if !s.Archiving() || maxAge <= 0 {
		return
	}

	interval := maxAge / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := s.Prune(ctx, now.Add(-maxAge))
				if err != nil {
					s.logger.Error().Err(err).Msg("Failed to prune exports")
				}
				if n > 0 {
					s.logger.Info().Int("removed", n).Msg("Pruned expired exports")
				}
			}
		}
	}()
	s.logger.Info().Dur("retention", maxAge).Dur("interval", interval).Msg("Export retention started")
}

func (s *ExportService) remove(ctx context.Context, export *models.Export) error {
	if err := s.store.Delete(ctx, export.StoragePath); err != nil {
		return err
	}
	if err := s.exports.Delete(ctx, export.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// WriteCSV writes a header of columns followed by rows. No rows gives a header-only file.
func WriteCSV(w io.Writer, columns []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(fitRow(row, len(columns))); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same content as WriteCSV into a single worksheet.
// Cells that parse as numbers are stored as numbers.
func WriteXLSX(w io.Writer, columns []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, row := range rows {
		row = fitRow(row, len(columns))
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(v string) interface{} {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return v
}

func fitRow(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// ExportFormat represents the file format of a table export
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Export represents an archived table export
type Export struct {
	ID          uuid.UUID    `json:"id"`
	Filename    string       `json:"filename"`
	Format      ExportFormat `json:"format"`
	MimeType    string       `json:"mime_type"`
	RowCount    int          `json:"row_count"`
	Size        int64        `json:"size"`
	StoragePath string       `json:"storage_path"`
	CreatedAt   time.Time    `json:"created_at"`
}

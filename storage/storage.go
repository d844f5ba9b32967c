package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrObjectNotFound is returned when a storage path does not exist
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidPath is returned for storage paths outside the archive
	ErrInvalidPath = errors.New("invalid storage path")
)

// Storage archives exported files
type Storage interface {
	// Upload stores a file and returns the storage path
	Upload(ctx context.Context, id uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves a file by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a file by storage path
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeNone  StorageType = "none"
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	S3Prefix     string // Key prefix inside the bucket
	AWSAccessKey string
	AWSSecretKey string
}

// ConfigFromEnv reads storage configuration from environment variables
func ConfigFromEnv() StorageConfig {
	cfg := StorageConfig{
		Type:         StorageType(os.Getenv("STORAGE_TYPE")),
		LocalPath:    os.Getenv("STORAGE_LOCAL_PATH"),
		S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
		S3Region:     os.Getenv("AWS_REGION"),
		S3Prefix:     os.Getenv("AWS_S3_PREFIX"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if cfg.Type == "" {
		cfg.Type = StorageTypeNone
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = "./storage/exports"
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	if cfg.S3Prefix == "" {
		cfg.S3Prefix = "scdb/exports"
	}
	return cfg
}

// NewStorage creates a storage backend. StorageTypeNone returns a nil
// Storage, which disables archiving.
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeNone:
		return nil, nil
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStorageFromEnv creates a storage backend from environment variables
func NewStorageFromEnv(ctx context.Context) (Storage, error) {
	return NewStorage(ctx, ConfigFromEnv())
}

// ContentType determines the MIME type of an exported file from its name
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// objectPath places each export under its own ID, sharded by the first
// two characters: "3f/3f2a.../filtered_dashboard_data.csv".
func objectPath(id uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.NewReplacer(" ", "_", "..", "_").Replace(name)
	if name == "" || name == "." || name == "/" {
		name = "export"
	}
	key := id.String()
	return path.Join(key[:2], key, name)
}

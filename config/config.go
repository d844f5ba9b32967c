package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RunMode selects debug or production behavior
type RunMode string

const (
	ModeDebug      RunMode = "debug"
	ModeProduction RunMode = "production"
)

// SessionBackend selects where session state lives
type SessionBackend string

const (
	SessionsInMemory SessionBackend = "memory"
	SessionsInRedis  SessionBackend = "redis"
)

// Config holds process configuration read from the environment
type Config struct {
	Port         string
	Mode         RunMode
	DatasetPath  string
	LayoutPath   string
	SessionTTL   time.Duration
	SessionStore SessionBackend
	RedisURL     string
	DatabaseURL  string // empty disables the Postgres export repository

	// ExportRetention is how long archived exports are kept; zero keeps them forever
	ExportRetention time.Duration
}

// LoadDotEnv loads a .env file from the working directory, falling back to
// the project root when run from cmd/<name>/. It reports whether a file was found.
func LoadDotEnv() bool {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			return false
		}
	}
	return true
}

// FromEnv builds a Config from environment variables
func FromEnv() (Config, error) {
	cfg := Config{
		Port:         os.Getenv("PORT"),
		Mode:         RunMode(os.Getenv("APP_MODE")),
		DatasetPath:  os.Getenv("DATASET_PATH"),
		LayoutPath:   os.Getenv("DASHBOARD_CONFIG"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SessionTTL:   2 * time.Hour,
		SessionStore: SessionBackend(os.Getenv("SESSION_STORE")),
		RedisURL:     os.Getenv("REDIS_URL"),

		ExportRetention: 24 * time.Hour,
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeDebug
	}
	if cfg.Mode != ModeDebug && cfg.Mode != ModeProduction {
		return Config{}, fmt.Errorf("APP_MODE must be %q or %q, got %q", ModeDebug, ModeProduction, cfg.Mode)
	}
	if cfg.DatasetPath == "" {
		cfg.DatasetPath = "SCDB_2024_01_caseCentered_Citation.csv"
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.SessionTTL = ttl
	}
	if v := os.Getenv("EXPORT_RETENTION"); v != "" {
		retention, err := time.ParseDuration(v)
		if err != nil || retention < 0 {
			return Config{}, fmt.Errorf("invalid EXPORT_RETENTION %q", v)
		}
		cfg.ExportRetention = retention
	}
	switch cfg.SessionStore {
	case "":
		cfg.SessionStore = SessionsInMemory
	case SessionsInMemory:
	case SessionsInRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required when SESSION_STORE=%s", SessionsInRedis)
		}
	default:
		return Config{}, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionsInMemory, SessionsInRedis, cfg.SessionStore)
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	return cfg, nil
}

// Debug reports whether the process runs in debug mode
func (c Config) Debug() bool {
	return c.Mode == ModeDebug
}

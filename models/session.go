package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one browser's isolated dashboard state
type Session struct {
	ID        uuid.UUID      `json:"id"`
	State     DashboardState `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

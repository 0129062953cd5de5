package pipeline

import (
	"time"

	"github.com/andresuchdata/salesdash/internal/normalize"
)

// Status represents the outcome of a load run
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Summary describes a single load of the dashboard table
type Summary struct {
	Source      string           `json:"source"`
	Status      Status           `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Duration    time.Duration    `json:"duration_ns"`
	Columns     int              `json:"columns"`
	Rows        int              `json:"rows"`
	Normalize   normalize.Report `json:"normalize"`
	Error       string           `json:"error,omitempty"`
}

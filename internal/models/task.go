package models

import "time"

// TaskStatus is the lifecycle state of a queued extraction.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
)

// ExtractionTask tracks one file submitted for asynchronous extraction.
type ExtractionTask struct {
	ID        string            `json:"id"`
	Path      string            `json:"path"`
	Status    TaskStatus        `json:"status"`
	Progress  float64           `json:"progress"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}

package models

import "time"

// JobStatus is the state of a background job. Processing is the only
// non-terminal state.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition is expected from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IsValid reports whether s is a known status.
func (s JobStatus) IsValid() bool {
	return s == JobStatusProcessing || s.IsTerminal()
}

// Job tracks post-capture work that runs after the request returned.
type Job struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ImageID   string    `json:"image_id,omitempty"`
	Kind      string    `json:"kind"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Job kinds.
const (
	JobKindCapture = "capture"
	JobKindExport  = "export"
)

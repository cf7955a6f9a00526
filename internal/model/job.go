package model

import "time"

// Job represents one end-to-end highlight run for a single media source.
// Jobs live only in memory; they are created on submission, mutated by
// exactly one worker goroutine, and removed by an explicit cleanup call.
type Job struct {
	ID          string       `json:"id"`
	Source      JobSource    `json:"source"`
	Status      JobStatus    `json:"status"`
	Progress    int          `json:"progress"`
	CurrentStep string       `json:"currentStep,omitempty"`
	Results     []ClipResult `json:"results,omitempty"`
	Error       *string      `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	StartedAt   *time.Time   `json:"startedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`

	// Filesystem state, never serialized to callers.
	MediaPath string `json:"-"`
	OutputDir string `json:"-"`
}

// LinkJobRequest is the body of POST /api/jobs/link.
type LinkJobRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// SubmitJobResponse acknowledges an accepted job.
type SubmitJobResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

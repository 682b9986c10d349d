package models

import "time"

// JobStatus is the lifecycle state of a scrape job.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Progress messages reported while a job runs.
const (
	ProgressConnecting = "Connecting to page..."
	ProgressImages     = "Processing images..."
	ProgressPackaging  = "Packaging results..."
)

// Job is one entry in the job ledger.
type Job struct {
	ID       string         `json:"job_id"`
	Status   JobStatus      `json:"status"`
	Progress *string        `json:"progress"`
	Result   *ProductResult `json:"result"`
	Error    *string        `json:"error"`

	// CreatedAt drives retention; it is not part of the API payload.
	CreatedAt time.Time `json:"-"`
}

// Package jobs runs scrape jobs in the background and keeps the ledger
// clients poll for progress.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/shopsnap/models"
)

// ErrNotFound is returned for unknown or expired job IDs.
var ErrNotFound = errors.New("job not found")

// Store is the job ledger. Get returns a copy; callers mutate jobs only
// through Update. Update on a terminal job is a no-op.
type Store interface {
	Create(ctx context.Context, id string) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	Update(ctx context.Context, id string, fn func(*models.Job)) error
	Delete(ctx context.Context, id string) error
	ListExpired(ctx context.Context, cutoff time.Time) ([]string, error)
}

// NewID returns a fresh job ID.
func NewID() string {
	return uuid.NewString()
}

// ProgressStarting is the progress of a job that has not begun work.
const ProgressStarting = "Starting..."

func newJob(id string, now time.Time) *models.Job {
	progress := ProgressStarting
	return &models.Job{
		ID:        id,
		Status:    models.JobProcessing,
		Progress:  &progress,
		CreatedAt: now,
	}
}

package jobs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Sweeper removes jobs and their output directories once they are older
// than the retention period.
type Sweeper struct {
	store     Store
	dir       string
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewSweeper creates a Sweeper for job directories under dir.
func NewSweeper(store Store, dir string, retention, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, dir: dir, retention: retention, interval: interval, logger: logger}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(ctx, now); n > 0 {
				s.logger.Info("expired jobs removed", "count", n)
			}
		}
	}
}

// Sweep removes every job created before now minus retention, plus job
// directories left behind by a previous process. It returns the number
// of ledger entries removed.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-s.retention)

	ids, err := s.store.ListExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("list expired jobs failed", "err", err)
		return 0
	}

	removed := 0
	for _, id := range ids {
		if err := os.RemoveAll(filepath.Join(s.dir, id)); err != nil {
			s.logger.Warn("job dir removal failed", "job_id", id, "err", err)
		}
		if err := s.store.Delete(ctx, id); err != nil {
			s.logger.Warn("job delete failed", "job_id", id, "err", err)
			continue
		}
		removed++
	}

	s.sweepOrphans(ctx, cutoff)
	return removed
}

// sweepOrphans deletes stale job-ID-named directories with no ledger
// entry. Anything not named like a job ID is left alone.
func (s *Sweeper) sweepOrphans(ctx context.Context, cutoff time.Time) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read jobs dir failed", "dir", s.dir, "err", err)
		}
		return
	}
	for _, e := range entries {
		if !e.IsDir() || uuid.Validate(e.Name()) != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if _, err := s.store.Get(ctx, e.Name()); !errors.Is(err, ErrNotFound) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			s.logger.Warn("orphan dir removal failed", "dir", e.Name(), "err", err)
		}
	}
}

package scraper

import (
	"context"
	"log/slog"
	"time"
)

// Ensure LoggingAcquirer implements Acquirer.
var _ Acquirer = (*LoggingAcquirer)(nil)

// LoggingAcquirer wraps an Acquirer with one log line per call.
type LoggingAcquirer struct {
	next   Acquirer
	logger *slog.Logger
}

// NewLoggingAcquirer creates a new LoggingAcquirer.
func NewLoggingAcquirer(next Acquirer, logger *slog.Logger) *LoggingAcquirer {
	return &LoggingAcquirer{next: next, logger: logger}
}

// Acquire logs the URL, page size, duration and error of the wrapped call.
func (a *LoggingAcquirer) Acquire(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		a.logger.Info("acquire",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Acquire(ctx, url)
}

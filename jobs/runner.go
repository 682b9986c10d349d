package jobs

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/use-agent/shopsnap/extractor"
	"github.com/use-agent/shopsnap/imageproc"
	"github.com/use-agent/shopsnap/metrics"
	"github.com/use-agent/shopsnap/models"
	"github.com/use-agent/shopsnap/packager"
	"github.com/use-agent/shopsnap/scraper"
	"github.com/use-agent/shopsnap/snapshot"
	"github.com/use-agent/shopsnap/webhook"
)

// HistorySaver records completed results. *history.Store implements it.
type HistorySaver interface {
	Save(ctx context.Context, jobID string, result *models.ProductResult) error
}

// ExtractFunc turns rendered HTML into a RawPageExtract.
type ExtractFunc func(rawHTML, sourceURL string) *models.RawPageExtract

// Runner drives one scrape job from acquisition to a packaged result.
type Runner struct {
	store     Store
	acquirer  scraper.Acquirer
	images    *imageproc.Processor
	dir       string
	extract   ExtractFunc
	snapshots *snapshot.Renderer
	history   HistorySaver
	webhooks  *webhook.Sender
	logger    *slog.Logger

	wg sync.WaitGroup
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSnapshots adds a Markdown page snapshot to every package.
func WithSnapshots(r *snapshot.Renderer) RunnerOption {
	return func(rn *Runner) { rn.snapshots = r }
}

// WithHistory records completed results.
func WithHistory(h HistorySaver) RunnerOption {
	return func(rn *Runner) { rn.history = h }
}

// WithWebhooks notifies request webhook URLs when jobs finish.
func WithWebhooks(s *webhook.Sender) RunnerOption {
	return func(rn *Runner) { rn.webhooks = s }
}

// WithExtractor replaces extractor.Extract.
func WithExtractor(fn ExtractFunc) RunnerOption {
	return func(rn *Runner) { rn.extract = fn }
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(rn *Runner) { rn.logger = l }
}

// NewRunner creates a Runner writing job output under dir/<job id>.
func NewRunner(store Store, acquirer scraper.Acquirer, images *imageproc.Processor, dir string, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    store,
		acquirer: acquirer,
		images:   images,
		dir:      dir,
		extract:  extractor.Extract,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JobDir is where a job's product.json, images and result.zip live.
func (r *Runner) JobDir(id string) string {
	return filepath.Join(r.dir, id)
}

// Submit records a new job and runs it in the background. The job
// outlives ctx's cancellation but keeps its values.
func (r *Runner) Submit(ctx context.Context, req models.ScrapeRequest) (*models.Job, error) {
	job, err := r.store.Create(ctx, NewID())
	if err != nil {
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.Run(bg, job.ID, req)
	}()
	return job, nil
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Run executes the job synchronously and leaves it completed or failed
// in the store. The returned error is the failure cause, if any.
func (r *Runner) Run(ctx context.Context, id string, req models.ScrapeRequest) error {
	start := time.Now()
	log := r.logger.With("job_id", id, "url", req.URL)

	result, err := r.execute(ctx, id, req)
	if err != nil {
		msg := err.Error()
		r.finish(ctx, id, func(j *models.Job) {
			j.Status = models.JobFailed
			j.Error = &msg
		})
		metrics.JobsTotal.WithLabelValues(string(models.JobFailed)).Inc()
		metrics.JobDuration.Observe(time.Since(start).Seconds())
		log.Error("job failed", "err", err, "elapsed", time.Since(start))
		r.notify(ctx, id, req)
		return err
	}

	r.finish(ctx, id, func(j *models.Job) {
		j.Status = models.JobCompleted
		j.Result = result
	})
	metrics.JobsTotal.WithLabelValues(string(models.JobCompleted)).Inc()
	metrics.JobDuration.Observe(time.Since(start).Seconds())
	log.Info("job completed",
		"model", result.ProductModel,
		"main", len(result.MainImages),
		"gallery", len(result.GalleryImages),
		"elapsed", time.Since(start),
	)

	if r.history != nil {
		if err := r.history.Save(ctx, id, result); err != nil {
			log.Warn("history save failed", "err", err)
		}
	}
	r.notify(ctx, id, req)
	return nil
}

func (r *Runner) execute(ctx context.Context, id string, req models.ScrapeRequest) (*models.ProductResult, error) {
	r.progress(ctx, id, models.ProgressConnecting)
	html, err := r.acquirer.Acquire(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	extract := r.extract(html, req.URL)

	r.progress(ctx, id, models.ProgressImages)
	jobDir := r.JobDir(id)
	result, err := r.images.Process(ctx, extract, jobDir, req.ProductModel)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "image processing failed", err)
	}
	metrics.ObserveImages(len(extract.ImageURLs), len(result.MainImages), len(result.GalleryImages))

	r.progress(ctx, id, models.ProgressPackaging)
	var snap string
	if r.snapshots != nil {
		snap = r.snapshots.Render(html, req.URL)
	}
	if err := packager.Package(result, jobDir, snap); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) progress(ctx context.Context, id, msg string) {
	err := r.store.Update(ctx, id, func(j *models.Job) {
		j.Progress = &msg
	})
	if err != nil {
		r.logger.Warn("progress update failed", "job_id", id, "err", err)
	}
}

// finish applies a terminal transition; progress is cleared.
func (r *Runner) finish(ctx context.Context, id string, fn func(*models.Job)) {
	err := r.store.Update(ctx, id, func(j *models.Job) {
		fn(j)
		j.Progress = nil
	})
	if err != nil {
		r.logger.Error("job state update failed", "job_id", id, "err", err)
	}
}

func (r *Runner) notify(ctx context.Context, id string, req models.ScrapeRequest) {
	if r.webhooks == nil || req.WebhookURL == "" {
		return
	}
	job, err := r.store.Get(ctx, id)
	if err != nil {
		r.logger.Warn("webhook skipped", "job_id", id, "err", err)
		return
	}
	r.webhooks.DeliverAsync(req.WebhookURL, webhook.NewEvent(job))
}

// Package imageproc downloads candidate product images, sorts them into
// main (white background) and gallery shots, normalizes their geometry
// and writes them as JPEG files.
package imageproc

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/shopsnap/models"
	"golang.org/x/sync/errgroup"
)

// ImagesDir is the sub-directory of a job directory holding saved images.
const ImagesDir = "images"

// Processor turns a RawPageExtract into a ProductResult. It is safe for
// concurrent use by multiple jobs.
type Processor struct {
	client      *http.Client
	timeout     time.Duration
	maxBytes    int64
	concurrency int
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithHTTPClient sets the client used for image downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Processor) { p.client = c }
}

// WithTimeout sets the per-image download deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) { p.timeout = d }
}

// WithMaxBytes caps a single image body.
func WithMaxBytes(n int64) Option {
	return func(p *Processor) { p.maxBytes = n }
}

// WithConcurrency sets how many candidates are fetched and transformed at
// once. Output does not depend on it.
func WithConcurrency(n int) Option {
	return func(p *Processor) { p.concurrency = n }
}

// WithLogger sets the logger for skipped candidates.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// New creates a Processor with defaults: 30s per image, 20 MiB cap,
// one image at a time.
func New(opts ...Option) *Processor {
	p := &Processor{
		client:      http.DefaultClient,
		timeout:     30 * time.Second,
		maxBytes:    20 << 20,
		concurrency: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	return p
}

// prepared is a candidate that made it through fetch, decode, classify,
// transform and encode, waiting for its number.
type prepared struct {
	class Class
	jpeg  []byte
	err   error
}

// Process downloads every candidate in extract.ImageURLs and saves the
// survivors under outDir/images. model overrides extract.ProductModel for
// naming and in the result.
//
// Candidates are prepared concurrently but numbered and written in
// discovery order, so the numbering is the same for any concurrency. One
// counter is shared by main and gallery images and advances only on a
// successful write; skipped candidates leave no gap.
func (p *Processor) Process(ctx context.Context, extract *models.RawPageExtract, outDir, model string) (*models.ProductResult, error) {
	if model == "" {
		model = extract.ProductModel
	}
	if model == "" {
		model = models.DefaultModel
	}

	imagesDir := filepath.Join(outDir, ImagesDir)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, err
	}

	slots := make([]prepared, len(extract.ImageURLs))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, u := range extract.ImageURLs {
		g.Go(func() error {
			slots[i] = p.prepare(ctx, u, extract.SourceURL)
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	result := &models.ProductResult{
		ProductName:   extract.ProductName,
		ProductModel:  model,
		MainImages:    []string{},
		GalleryImages: []string{},
		Summary:       extract.Summary,
		Description:   extract.Description,
		SourceURL:     extract.SourceURL,
	}

	counter := 1
	for i, s := range slots {
		if s.err != nil {
			p.logger.Debug("image skipped", "url", extract.ImageURLs[i], "err", s.err)
			continue
		}
		name := FileName(model, counter)
		if err := os.WriteFile(filepath.Join(imagesDir, name), s.jpeg, 0o644); err != nil {
			p.logger.Warn("image write failed", "url", extract.ImageURLs[i], "file", name, "err", err)
			continue
		}
		counter++

		if s.class == ClassMain {
			result.MainImages = append(result.MainImages, name)
		} else {
			result.GalleryImages = append(result.GalleryImages, name)
		}
	}

	p.logger.Info("images processed",
		"source_url", extract.SourceURL,
		"candidates", len(extract.ImageURLs),
		"main", len(result.MainImages),
		"gallery", len(result.GalleryImages),
	)
	return result, nil
}

// prepare runs one candidate up to the encoded JPEG.
func (p *Processor) prepare(ctx context.Context, rawURL, referer string) prepared {
	data, err := p.fetch(ctx, rawURL, referer)
	if err != nil {
		return prepared{err: err}
	}
	img, err := decode(data)
	if err != nil {
		return prepared{err: err}
	}

	rgb := toRGB(img)
	class := Classify(rgb)
	out, err := encodeJPEG(transform(rgb, class))
	if err != nil {
		return prepared{err: err}
	}
	return prepared{class: class, jpeg: out}
}

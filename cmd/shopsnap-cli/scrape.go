package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/use-agent/shopsnap/extractor"
	"github.com/use-agent/shopsnap/imageproc"
	"github.com/use-agent/shopsnap/models"
	"github.com/use-agent/shopsnap/packager"
	"github.com/use-agent/shopsnap/snapshot"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	if err := os.MkdirAll(c.Out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fmt.Fprintln(deps.Stderr, models.ProgressConnecting)
	html, err := deps.Acquirer.Acquire(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed")
		return err
	}
	extract := extractor.Extract(html, c.URL)

	fmt.Fprintln(deps.Stderr, models.ProgressImages)
	proc := imageproc.New(imageProcessorOptions(deps, c.Concurrency)...)
	result, err := proc.Process(deps.Ctx, extract, c.Out, c.Model)
	if err != nil {
		return fmt.Errorf("failed to process images: %w", err)
	}

	fmt.Fprintln(deps.Stderr, models.ProgressPackaging)
	var snap string
	if !c.NoSnapshot {
		snap = snapshot.NewRenderer().Render(html, c.URL)
	}
	if err := packager.Package(result, c.Out, snap); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stderr, "%d main, %d gallery images; wrote %s\n",
		len(result.MainImages), len(result.GalleryImages), filepath.Join(c.Out, packager.ArchiveFile))

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func imageProcessorOptions(deps *Dependencies, concurrency int) []imageproc.Option {
	cfg := deps.Config.Images
	opts := []imageproc.Option{
		imageproc.WithTimeout(cfg.Timeout),
		imageproc.WithMaxBytes(cfg.MaxBytes),
		imageproc.WithConcurrency(concurrency),
		imageproc.WithLogger(deps.Logger),
	}
	if cfg.TLSFingerprint {
		opts = append(opts, imageproc.WithHTTPClient(&http.Client{Transport: imageproc.NewChromeTransport()}))
	}
	return opts
}

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/use-agent/shopsnap/config"
	"github.com/use-agent/shopsnap/scraper"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Config   *config.Config
	Logger   *slog.Logger
	Acquirer scraper.Acquirer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log debug output to stderr"`

	Scrape  ScrapeCmd  `cmd:"" help:"Scrape a product page and write product.json, images and result.zip"`
	Extract ExtractCmd `cmd:"" help:"Print the raw page extract as JSON"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URL         string `arg:"" help:"Product page URL"`
	Model       string `short:"m" help:"Product model; overrides the extracted one"`
	Out         string `short:"o" default:"." help:"Output directory"`
	Concurrency int    `short:"c" default:"1" help:"Images fetched and transformed at once"`
	NoSnapshot  bool   `help:"Skip the page.md snapshot"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Source  string `arg:"" help:"Product page URL, or a saved HTML file"`
	BaseURL string `help:"Page URL used to resolve relative links when reading a file"`
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/use-agent/shopsnap/api"
	"github.com/use-agent/shopsnap/config"
	"github.com/use-agent/shopsnap/history"
	"github.com/use-agent/shopsnap/imageproc"
	"github.com/use-agent/shopsnap/jobs"
	"github.com/use-agent/shopsnap/scraper"
	"github.com/use-agent/shopsnap/snapshot"
	"github.com/use-agent/shopsnap/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("shopsnap starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"jobs_dir", cfg.Jobs.Dir,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(cfg.Jobs.Dir, 0o755); err != nil {
		slog.Error("failed to create jobs dir", "dir", cfg.Jobs.Dir, "error", err)
		os.Exit(1)
	}

	// ── 3. Job ledger (Redis when configured) ───────────────────────
	var store jobs.Store = jobs.NewMemoryStore()
	if cfg.Jobs.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Jobs.RedisAddr,
			Password: cfg.Jobs.RedisPassword,
			DB:       cfg.Jobs.RedisDB,
		})
		defer rdb.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Jobs.RedisAddr, "error", err)
			os.Exit(1)
		}
		store = jobs.NewRedisStore(rdb, cfg.Jobs.Retention)
		slog.Info("using redis job ledger", "addr", cfg.Jobs.RedisAddr)
	}

	// ── 4. Result history (optional) ────────────────────────────────
	var hist *history.Store
	if cfg.History.Path != "" {
		var err error
		hist, err = history.Open(cfg.History.Path)
		if err != nil {
			slog.Error("failed to open history database", "path", cfg.History.Path, "error", err)
			os.Exit(1)
		}
		defer hist.Close()
	}

	// ── 5. Pipeline: browser → extractor → images → package ─────────
	acquirer := scraper.NewLoggingAcquirer(scraper.NewBrowser(cfg.Browser, cfg.Acquire), slog.Default())

	imageOpts := []imageproc.Option{
		imageproc.WithTimeout(cfg.Images.Timeout),
		imageproc.WithMaxBytes(cfg.Images.MaxBytes),
		imageproc.WithConcurrency(cfg.Images.Concurrency),
	}
	if cfg.Images.TLSFingerprint {
		imageOpts = append(imageOpts, imageproc.WithHTTPClient(&http.Client{Transport: imageproc.NewChromeTransport()}))
	}

	webhooks := webhook.New(cfg.Webhook.Secret, cfg.Webhook.RetryDelays, slog.Default())
	runnerOpts := []jobs.RunnerOption{
		jobs.WithSnapshots(snapshot.NewRenderer()),
		jobs.WithWebhooks(webhooks),
	}
	if hist != nil {
		runnerOpts = append(runnerOpts, jobs.WithHistory(hist))
	}
	runner := jobs.NewRunner(store, acquirer, imageproc.New(imageOpts...), cfg.Jobs.Dir, runnerOpts...)

	// ── 6. Expired job sweeper ──────────────────────────────────────
	sweeper := jobs.NewSweeper(store, cfg.Jobs.Dir, cfg.Jobs.Retention, cfg.Jobs.CleanupInterval, slog.Default())
	go sweeper.Run(ctx)

	// ── 7. Setup router ─────────────────────────────────────────────
	deps := api.Deps{
		Config:    cfg,
		Store:     store,
		Runner:    runner,
		Logger:    slog.Default(),
		StartTime: time.Now(),
	}
	if hist != nil {
		deps.History = hist
	}
	router := api.NewRouter(ctx, deps)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	cancel()

	// Running jobs get a bounded grace period; their browsers are killed
	// when the process exits regardless.
	done := make(chan struct{})
	go func() {
		runner.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("in-flight jobs finished")
	case <-time.After(30 * time.Second):
		slog.Warn("in-flight jobs abandoned")
	}

	slog.Info("shopsnap stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Acquire   AcquireConfig
	Images    ImageConfig
	Jobs      JobsConfig
	History   HistoryConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string // default: ["http://localhost:3000"]
}

// BrowserConfig controls the headless browser launched per acquisition.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is passed to the browser as --proxy-server.
	Proxy string

	// Stealth injects anti-bot-detection evasions into every page.
	Stealth bool // default: true

	// BlockAds aborts requests to known ad and tracking domains.
	BlockAds bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// Images are never blocked: lazy loaders need them.
	BlockedResourceTypes []string // default: ["Font", "Media"]
}

// AcquireConfig controls page loading and lazy-load triggering.
type AcquireConfig struct {
	// NavigationTimeout bounds navigation plus DOMContentLoaded.
	NavigationTimeout time.Duration // default: 60s

	// SettleDelay is the wait after DOMContentLoaded before scrolling.
	SettleDelay time.Duration // default: 3s

	// ScrollDelay is the wait after each scroll step.
	ScrollDelay time.Duration // default: 1s
}

// ImageConfig controls image download and processing.
type ImageConfig struct {
	// Timeout is the per-image download deadline.
	Timeout time.Duration // default: 30s

	// MaxBytes caps a single image body.
	MaxBytes int64 // default: 20 MiB

	// Concurrency is the number of images fetched and transformed at once.
	Concurrency int // default: 1

	// TLSFingerprint dials image hosts with a Chrome TLS ClientHello.
	TLSFingerprint bool // default: false
}

// JobsConfig controls the job ledger and its cleanup.
type JobsConfig struct {
	// Dir is the parent of all per-job output directories.
	Dir string // default: "/tmp/scraper_jobs"

	// Retention is how long a job and its files are kept.
	Retention time.Duration // default: 30m

	// CleanupInterval is how often expired jobs are swept.
	CleanupInterval time.Duration // default: 10m

	// RedisAddr selects the Redis ledger; empty keeps jobs in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// HistoryConfig controls the SQLite result history.
type HistoryConfig struct {
	// Path is the database file or ":memory:"; empty disables history.
	Path string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// WebhookConfig controls job completion callbacks.
type WebhookConfig struct {
	// Secret signs payloads with HMAC-SHA256. Empty disables signing.
	Secret string

	// RetryDelays are the waits before each redelivery attempt.
	RetryDelays []time.Duration // default: [1s, 5s, 30s]
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        envOr("SHOPSNAP_HOST", "0.0.0.0"),
			Port:        envIntOr("SHOPSNAP_PORT", 8000),
			Mode:        envOr("SHOPSNAP_MODE", "release"),
			CORSOrigins: envSliceOr("SHOPSNAP_CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Browser: BrowserConfig{
			Headless:             envBoolOr("SHOPSNAP_HEADLESS", true),
			NoSandbox:            envBoolOr("SHOPSNAP_NO_SANDBOX", true),
			BrowserBin:           os.Getenv("SHOPSNAP_BROWSER_BIN"),
			Proxy:                os.Getenv("SHOPSNAP_PROXY"),
			Stealth:              envBoolOr("SHOPSNAP_STEALTH", true),
			BlockAds:             envBoolOr("SHOPSNAP_BLOCK_ADS", true),
			BlockedResourceTypes: envSliceOr("SHOPSNAP_BLOCKED_RESOURCES", []string{"Font", "Media"}),
		},
		Acquire: AcquireConfig{
			NavigationTimeout: envDurationOr("SHOPSNAP_NAV_TIMEOUT", 60*time.Second),
			SettleDelay:       envDurationOr("SHOPSNAP_SETTLE_DELAY", 3*time.Second),
			ScrollDelay:       envDurationOr("SHOPSNAP_SCROLL_DELAY", time.Second),
		},
		Images: ImageConfig{
			Timeout:        envDurationOr("SHOPSNAP_IMAGE_TIMEOUT", 30*time.Second),
			MaxBytes:       int64(envIntOr("SHOPSNAP_IMAGE_MAX_BYTES", 20<<20)),
			Concurrency:    envIntOr("SHOPSNAP_IMAGE_CONCURRENCY", 1),
			TLSFingerprint: envBoolOr("SHOPSNAP_IMAGE_TLS_FINGERPRINT", false),
		},
		Jobs: JobsConfig{
			Dir:             envOr("SHOPSNAP_JOBS_DIR", "/tmp/scraper_jobs"),
			Retention:       envDurationOr("SHOPSNAP_JOB_RETENTION", 30*time.Minute),
			CleanupInterval: envDurationOr("SHOPSNAP_CLEANUP_INTERVAL", 10*time.Minute),
			RedisAddr:       os.Getenv("SHOPSNAP_REDIS_ADDR"),
			RedisPassword:   os.Getenv("SHOPSNAP_REDIS_PASSWORD"),
			RedisDB:         envIntOr("SHOPSNAP_REDIS_DB", 0),
		},
		History: HistoryConfig{
			Path: os.Getenv("SHOPSNAP_HISTORY_DB"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SHOPSNAP_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SHOPSNAP_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SHOPSNAP_RATE_RPS", 2.0),
			Burst:             envIntOr("SHOPSNAP_RATE_BURST", 5),
		},
		Webhook: WebhookConfig{
			Secret:      os.Getenv("SHOPSNAP_WEBHOOK_SECRET"),
			RetryDelays: envDurationSliceOr("SHOPSNAP_WEBHOOK_RETRY_DELAYS", []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}),
		},
		Log: LogConfig{
			Level:  envOr("SHOPSNAP_LOG_LEVEL", "info"),
			Format: envOr("SHOPSNAP_LOG_FORMAT", "json"),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"Font", "Media"}, cfg.Browser.BlockedResourceTypes)
	assert.Equal(t, 60*time.Second, cfg.Acquire.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Acquire.SettleDelay)
	assert.Equal(t, time.Second, cfg.Acquire.ScrollDelay)
	assert.Equal(t, 30*time.Second, cfg.Images.Timeout)
	assert.Equal(t, int64(20<<20), cfg.Images.MaxBytes)
	assert.Equal(t, 1, cfg.Images.Concurrency)
	assert.Equal(t, "/tmp/scraper_jobs", cfg.Jobs.Dir)
	assert.Equal(t, 30*time.Minute, cfg.Jobs.Retention)
	assert.Equal(t, 10*time.Minute, cfg.Jobs.CleanupInterval)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.Webhook.RetryDelays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SHOPSNAP_PORT", "9100")
	t.Setenv("SHOPSNAP_IMAGE_CONCURRENCY", "4")
	t.Setenv("SHOPSNAP_API_KEYS", "a, b ,,c")
	t.Setenv("SHOPSNAP_JOB_RETENTION", "5m")
	t.Setenv("SHOPSNAP_WEBHOOK_RETRY_DELAYS", "10ms,bogus,20ms")
	t.Setenv("SHOPSNAP_HEADLESS", "not-a-bool")

	cfg := Load()

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Images.Concurrency)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.Retention)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, cfg.Webhook.RetryDelays)
	assert.True(t, cfg.Browser.Headless, "unparseable values fall back to the default")
}

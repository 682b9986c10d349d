// Package scraper renders product pages in a headless browser.
package scraper

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/shopsnap/config"
	"github.com/use-agent/shopsnap/models"
)

// Acquirer returns the fully rendered HTML of a page.
type Acquirer interface {
	Acquire(ctx context.Context, url string) (html string, err error)
}

// Ensure Browser implements Acquirer at compile time.
var _ Acquirer = (*Browser)(nil)

// Browser is an Acquirer that launches an isolated Chrome for every call
// and kills it before returning. No state is shared between calls, so it
// is safe for concurrent use.
type Browser struct {
	browserCfg config.BrowserConfig
	acquireCfg config.AcquireConfig
}

// NewBrowser creates a Browser. Nothing is launched until Acquire.
func NewBrowser(browserCfg config.BrowserConfig, acquireCfg config.AcquireConfig) *Browser {
	return &Browser{browserCfg: browserCfg, acquireCfg: acquireCfg}
}

// newLauncher builds the launcher with the stealth-leaning flag set.
func (b *Browser) newLauncher() *launcher.Launcher {
	l := launcher.New().
		Headless(b.browserCfg.Headless).
		NoSandbox(b.browserCfg.NoSandbox)

	if b.browserCfg.BrowserBin != "" {
		l = l.Bin(b.browserCfg.BrowserBin)
	}
	if b.browserCfg.Proxy != "" {
		l = l.Proxy(b.browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	return l
}

// launch starts a browser and connects to it. The returned release func
// closes the connection, kills the process and removes its profile dir;
// it must be called on every path.
func (b *Browser) launch() (*rod.Browser, func(), error) {
	l := b.newLauncher()
	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, nil, models.NewScrapeError(models.ErrCodeAcquisition, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, nil, models.NewScrapeError(models.ErrCodeAcquisition, "failed to connect to browser", err)
	}

	release := func() {
		if err := browser.Close(); err != nil {
			slog.Debug("browser close failed", "error", err)
		}
		l.Kill()
		l.Cleanup()
	}
	return browser, release, nil
}

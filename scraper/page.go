package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/shopsnap/models"
	"github.com/ysmood/gson"
)

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Acquire renders targetURL and returns the page HTML after lazy-loaded
// content had a chance to appear.
//
// Lifecycle:
//
//  1. Launch          – fresh browser, released on every exit path
//  2. Page setup      – UA, stealth, Referer, hijack (before navigation)
//  3. Navigate        – bounded by the navigation timeout, waits for
//     DOMContentLoaded
//  4. Lazy-load       – settle, scroll to half height, wait, scroll to
//     full height, wait
//  5. Extract         – page.HTML()
//
// There is no retry.
func (b *Browser) Acquire(ctx context.Context, targetURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", categorizeError(err, "acquisition not started")
	}

	// ── 1. Launch ─────────────────────────────────────────────────────
	browser, release, err := b.launch()
	if err != nil {
		return "", err
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeAcquisition, "failed to open page", err)
	}
	defer func() { _ = page.Close() }()

	// ── 2. Page setup ─────────────────────────────────────────────────
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: desktopUA}); err != nil {
		slog.Debug("user agent override failed", "error", err)
	}
	if b.browserCfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if u, err := url.Parse(targetURL); err == nil && u.Hostname() != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Referer": "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
			}),
		}.Call(page)
	}
	if router := setupHijack(page, b.browserCfg.BlockedResourceTypes, b.browserCfg.BlockAds); router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 3. Navigate ───────────────────────────────────────────────────
	navCtx, cancel := context.WithTimeout(ctx, b.acquireCfg.NavigationTimeout)
	defer cancel()
	np := page.Context(navCtx)

	waitDOM := np.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := np.Navigate(targetURL); err != nil {
		return "", categorizeError(err, "navigation to target URL failed")
	}
	waitDOM()
	if err := navCtx.Err(); err != nil {
		return "", categorizeError(err, "page did not reach DOMContentLoaded")
	}

	// ── 4. Lazy-load ──────────────────────────────────────────────────
	p := page.Context(ctx)
	if err := triggerLazyLoad(ctx, p, b.acquireCfg.SettleDelay, b.acquireCfg.ScrollDelay); err != nil {
		return "", err
	}

	// ── 5. Extract ────────────────────────────────────────────────────
	html, err := p.HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return html, nil
}

// scrollSteps are fractions of document height to scroll to, in order.
var scrollSteps = []float64{0.5, 1}

// triggerLazyLoad waits for the page to settle, then scrolls down in
// steps so that lazy loaders swap in real image sources.
func triggerLazyLoad(ctx context.Context, p *rod.Page, settle, pause time.Duration) error {
	if err := sleepCtx(ctx, settle); err != nil {
		return categorizeError(err, "interrupted while page settled")
	}
	for _, frac := range scrollSteps {
		if _, err := p.Eval(`(f) => window.scrollTo(0, document.body.scrollHeight * f)`, frac); err != nil {
			return categorizeError(err, "scroll failed")
		}
		if err := sleepCtx(ctx, pause); err != nil {
			return categorizeError(err, "interrupted while scrolling")
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// tell timeouts from other acquisition failures.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeAcquisition, msg, err)
	}
}

package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/gaurav-prasanna/jobsnap/core"
)

// navTimeout bounds navigation plus the initial load wait.
const navTimeout = 60 * time.Second

// Tab wraps a Rod page as a core.PageHandle. Scroll commands go through
// plain JS evaluation, which Chromium coalesces happily under rapid
// repetition; captures use the CDP viewport screenshot.
type Tab struct {
	page *rod.Page
	url  string
}

// OpenTab creates a tab, applies the configured viewport, and navigates
// to the URL, waiting for the load event and a short DOM-stability window.
func (m *Manager) OpenTab(ctx context.Context, pageURL string) (*Tab, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if m.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.ViewportWidth,
		Height:            m.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn().Str("url", pageURL).Err(err).Msg("browser: wait load timeout")
	}
	// Give SPAs a chance to finish their first render; not a guarantee.
	if err := page.Context(navCtx).WaitStable(time.Second); err != nil {
		m.cfg.Logger.Debug().Str("url", pageURL).Err(err).Msg("browser: page did not stabilise")
	}

	return &Tab{page: page, url: pageURL}, nil
}

// URL returns the address the tab was opened at.
func (t *Tab) URL() string { return t.url }

// Metrics reads the page's total scrollable height and viewport height.
// scrollHeight is taken from both body and documentElement because job
// boards disagree about which one actually scrolls.
func (t *Tab) Metrics(ctx context.Context) (core.PageMetrics, error) {
	res, err := t.page.Context(ctx).Eval(`() => ({
		total: Math.max(
			document.body ? document.body.scrollHeight : 0,
			document.documentElement ? document.documentElement.scrollHeight : 0,
		),
		viewport: window.innerHeight,
	})`)
	if err != nil {
		return core.PageMetrics{}, fmt.Errorf("browser: read metrics: %w", err)
	}
	return core.PageMetrics{
		TotalHeight:    res.Value.Get("total").Int(),
		ViewportHeight: res.Value.Get("viewport").Int(),
	}, nil
}

// ScrollY reads the current vertical scroll offset.
func (t *Tab) ScrollY(ctx context.Context) (int, error) {
	res, err := t.page.Context(ctx).Eval(`() => window.scrollY`)
	if err != nil {
		return 0, fmt.Errorf("browser: read scroll position: %w", err)
	}
	return res.Value.Int(), nil
}

// ScrollTo commands an absolute vertical scroll.
func (t *Tab) ScrollTo(ctx context.Context, y int) error {
	_, err := t.page.Context(ctx).Eval(`y => window.scrollTo(0, y)`, y)
	if err != nil {
		return fmt.Errorf("browser: scroll to %d: %w", y, err)
	}
	return nil
}

// CaptureViewport rasterizes the currently visible viewport as PNG.
func (t *Tab) CaptureViewport(ctx context.Context) ([]byte, error) {
	png, err := t.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: capture viewport: %w", err)
	}
	return png, nil
}

// Content returns the rendered HTML for metadata extraction.
func (t *Tab) Content(ctx context.Context) (string, error) {
	html, err := t.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: read page HTML: %w", err)
	}
	return html, nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.page != nil {
		return t.page.Close()
	}
	return nil
}

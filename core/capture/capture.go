// Package capture realizes a tile plan against a live, asynchronously
// rendering page. The protocol per offset is strictly sequential:
// scroll → settle → rasterize → append. The page's scroll position is a
// shared mutable resource, so nothing here runs concurrently, and the
// original scroll offset is restored on every exit path.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/jobsnap/core"
)

// DefaultSettle is the fixed wait after each scroll command, allowing
// asynchronous layout and paint to finish before the viewport is
// rasterized. This is a heuristic, not a render-complete signal: complex
// pages may need more, static pages less. Tune via Config.Settle.
const DefaultSettle = 300 * time.Millisecond

// DefaultStepTimeout bounds each individual scroll/capture call so a
// capture request that never resolves fails the save instead of stalling it.
const DefaultStepTimeout = 30 * time.Second

// Config tunes the capture loop.
type Config struct {
	// Settle is the per-tile settlement wait. Default: DefaultSettle.
	Settle time.Duration

	// StepTimeout bounds each scroll and capture call. Default: DefaultStepTimeout.
	StepTimeout time.Duration

	Logger zerolog.Logger
}

func (c *Config) defaults() {
	if c.Settle <= 0 {
		c.Settle = DefaultSettle
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = DefaultStepTimeout
	}
}

// Loop captures one tile per planned offset, in plan order.
type Loop struct {
	cfg Config
}

// New creates a capture Loop with the given config.
func New(cfg Config) *Loop {
	cfg.defaults()
	return &Loop{cfg: cfg}
}

// Run scrolls the page through every offset and returns the captured tiles
// in plan order. On any failure it returns a *core.CaptureError identifying
// the offset and step; the page's original scroll offset is restored before
// returning, success or not. Cancelling ctx aborts before the next scroll,
// also with restoration. A single-offset plan still runs the full protocol.
func (l *Loop) Run(ctx context.Context, page core.PageHandle, offsets []int) ([]core.Tile, error) {
	if len(offsets) == 0 {
		return nil, &core.CaptureError{Offset: 0, Step: core.StepScroll, Err: fmt.Errorf("empty tile plan")}
	}

	// Record the scroll position the user left the page at. Restoration is
	// best effort: a restore failure never masks the capture error.
	origin, err := page.ScrollY(ctx)
	if err != nil {
		return nil, &core.CaptureError{Offset: 0, Step: core.StepScroll, Err: fmt.Errorf("reading original scroll position: %w", err)}
	}
	defer func() {
		restoreCtx, cancel := context.WithTimeout(context.Background(), l.cfg.StepTimeout)
		defer cancel()
		if rerr := page.ScrollTo(restoreCtx, origin); rerr != nil {
			l.cfg.Logger.Warn().Err(rerr).Str("step", string(core.StepRestore)).
				Int("origin", origin).Msg("failed to restore scroll position")
		}
	}()

	tiles := make([]core.Tile, 0, len(offsets))
	for _, offset := range offsets {
		if err := ctx.Err(); err != nil {
			return nil, &core.CaptureError{Offset: offset, Step: core.StepScroll, Err: err}
		}

		if err := l.scroll(ctx, page, offset); err != nil {
			return nil, &core.CaptureError{Offset: offset, Step: core.StepScroll, Err: err}
		}

		l.cfg.Logger.Debug().Int("offset", offset).Dur("settle", l.cfg.Settle).Msg("waiting for render to settle")
		if err := sleep(ctx, l.cfg.Settle); err != nil {
			return nil, &core.CaptureError{Offset: offset, Step: core.StepScroll, Err: err}
		}

		png, err := l.rasterize(ctx, page)
		if err != nil {
			return nil, &core.CaptureError{Offset: offset, Step: core.StepCapture, Err: err}
		}
		if len(png) == 0 {
			return nil, &core.CaptureError{Offset: offset, Step: core.StepCapture, Err: fmt.Errorf("capture returned an empty image")}
		}

		tiles = append(tiles, core.Tile{Offset: offset, PNG: png})
	}

	return tiles, nil
}

// scroll issues the scroll command under the step timeout.
func (l *Loop) scroll(ctx context.Context, page core.PageHandle, y int) error {
	stepCtx, cancel := context.WithTimeout(ctx, l.cfg.StepTimeout)
	defer cancel()
	return page.ScrollTo(stepCtx, y)
}

// rasterize requests a viewport capture under the step timeout.
func (l *Loop) rasterize(ctx context.Context, page core.PageHandle) ([]byte, error) {
	stepCtx, cancel := context.WithTimeout(ctx, l.cfg.StepTimeout)
	defer cancel()
	return page.CaptureViewport(stepCtx)
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

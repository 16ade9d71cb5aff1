// Package plan computes the scroll offsets needed to cover a page with
// viewport-sized captures. Pure and deterministic: the capture loop realizes
// the plan, this package only does the arithmetic.
package plan

import (
	"errors"

	"github.com/gaurav-prasanna/jobsnap/core"
)

// ErrBadViewport is returned when the viewport height is not positive.
var ErrBadViewport = errors.New("plan: viewport height must be positive")

// Offsets returns the ordered scroll offsets covering [0, totalHeight).
// Offsets start at 0 and step by the viewport height; every offset is
// strictly below the total height, so the final tile may extend past the
// bottom (over-capture, never under-capture). A page with no scrollable
// height still yields the single offset 0: even an empty page produces one
// tile. When the total is an exact multiple of the viewport, the last
// offset is totalHeight-viewportHeight — no empty trailing tile.
func Offsets(m core.PageMetrics) ([]int, error) {
	if m.ViewportHeight <= 0 {
		return nil, ErrBadViewport
	}
	if m.TotalHeight <= 0 {
		return []int{0}, nil
	}

	offsets := make([]int, 0, (m.TotalHeight+m.ViewportHeight-1)/m.ViewportHeight)
	for y := 0; y < m.TotalHeight; y += m.ViewportHeight {
		offsets = append(offsets, y)
	}
	return offsets, nil
}

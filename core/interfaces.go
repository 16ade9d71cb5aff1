// Package core defines the types and collaborator interfaces for the
// jobsnap capture pipeline. Each stage is a clean, testable interface;
// the live-browser, extraction, and upload implementations live in their
// own packages and are injected into the Pipeline.
package core

import "context"

// PageMetrics holds the scroll geometry of the target page, read once per
// capture session. Both values are pixels; TotalHeight may legitimately be
// zero for a degenerate/empty page.
type PageMetrics struct {
	TotalHeight    int
	ViewportHeight int
}

// Tile is one raster capture of the visible viewport at a given scroll
// offset. Tiles are never mutated after capture and are consumed exactly
// once, in capture order, by the assembler.
type Tile struct {
	Offset int
	PNG    []byte
}

// JobMetadata is the structured record extracted from the posting page.
// The pipeline treats all fields as opaque strings.
type JobMetadata struct {
	Title       string
	Company     string
	URL         string
	Description string // Markdown rendering of the posting body, may be empty
	CompanyNote string // optional generated one-liner about the company
}

// Record identifies the remote entry created for one saved posting.
type Record struct {
	ID       string
	Filename string
	Pages    int
	Meta     JobMetadata
}

// PageHandle is the live browser tab the pipeline captures. Implementations
// must tolerate repeated rapid ScrollTo calls. All methods honor ctx.
type PageHandle interface {
	// URL returns the page's current address.
	URL() string
	// Metrics reads total scrollable height and viewport height.
	Metrics(ctx context.Context) (PageMetrics, error)
	// ScrollY reads the current vertical scroll offset.
	ScrollY(ctx context.Context) (int, error)
	// ScrollTo commands an absolute vertical scroll.
	ScrollTo(ctx context.Context, y int) error
	// CaptureViewport rasterizes the currently visible viewport as PNG.
	CaptureViewport(ctx context.Context) ([]byte, error)
	// Content returns the page's rendered HTML for metadata extraction.
	Content(ctx context.Context) (string, error)
}

// Extractor guesses job metadata from rendered HTML. Heuristic by nature;
// it must always return a usable (possibly fallback) result.
type Extractor interface {
	Extract(html string, pageURL string) JobMetadata
}

// Uploader hands a finished document and its metadata to the record store.
// Implementations must not retry internally; failures surface verbatim.
type Uploader interface {
	Upload(ctx context.Context, document []byte, mimeType string, filename string, meta JobMetadata) (string, error)
}

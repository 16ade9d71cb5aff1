package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// MIMETypePDF is the content type of the produced artifact.
const MIMETypePDF = "application/pdf"

// CaptureLoop realizes a tile plan against a live page.
type CaptureLoop interface {
	Run(ctx context.Context, page PageHandle, offsets []int) ([]Tile, error)
}

// PlanFunc computes the tile plan for the given metrics.
type PlanFunc func(PageMetrics) ([]int, error)

// AssembleFunc builds the document from tiles under an optional byte cap.
type AssembleFunc func(tiles []Tile, maxBytes int64) ([]byte, error)

// NameFunc derives the artifact filename from the extracted metadata.
type NameFunc func(meta JobMetadata) string

// Pipeline sequences one save operation: extract metadata, capture tiles,
// assemble the document, upload. It short-circuits on the first failing
// stage and never uploads a partial document.
type Pipeline struct {
	Extractor Extractor
	Capture   CaptureLoop
	Plan      PlanFunc
	Assemble  AssembleFunc
	Uploader  Uploader
	Filename  NameFunc

	// MaxBytes caps the document size (0 disables the cap).
	MaxBytes int64

	// PageCount reads the assembled document's page count for the returned
	// Record. Optional; 0 is reported when nil.
	PageCount func(pdf []byte) (int, error)

	// Persist, when set, writes the assembled document locally before the
	// upload. A persist failure aborts the save.
	Persist func(filename string, document []byte) error

	// Describe, when set, generates a short company note for the record.
	// Best effort: a failure is logged and the save proceeds without it.
	Describe func(ctx context.Context, company string) (string, error)

	Logger zerolog.Logger

	mu     sync.Mutex
	active map[PageHandle]struct{}
}

// Save runs the full pipeline for one page. A second concurrent Save
// against the same page handle fails with ErrSaveInProgress: captures share
// the page's scroll position and must not interleave. Each save is
// independently retryable after any failure.
func (p *Pipeline) Save(ctx context.Context, page PageHandle) (*Record, error) {
	if err := p.acquire(page); err != nil {
		return nil, err
	}
	defer p.release(page)

	log := p.Logger.With().Str("url", page.URL()).Logger()

	html, err := page.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page content: %w", err)
	}
	meta := p.Extractor.Extract(html, page.URL())
	if meta.Title == "" {
		return nil, fmt.Errorf("extractor returned an empty job title")
	}
	log.Info().Str("title", meta.Title).Str("company", meta.Company).Msg("extracted job metadata")

	if p.Describe != nil {
		note, derr := p.Describe(ctx, meta.Company)
		if derr != nil {
			log.Warn().Err(derr).Msg("company description skipped")
		} else {
			meta.CompanyNote = note
		}
	}

	metrics, err := page.Metrics(ctx)
	if err != nil {
		return nil, &MetricsError{URL: page.URL(), Err: err}
	}

	offsets, err := p.Plan(metrics)
	if err != nil {
		return nil, &MetricsError{URL: page.URL(), Err: err}
	}
	log.Info().Int("total_height", metrics.TotalHeight).Int("viewport_height", metrics.ViewportHeight).
		Ints("offsets", offsets).Msg("planned capture")

	tiles, err := p.Capture.Run(ctx, page, offsets)
	if err != nil {
		return nil, err
	}
	log.Info().Int("tiles", len(tiles)).Msg("captured tiles")

	document, err := p.Assemble(tiles, p.MaxBytes)
	if err != nil {
		return nil, err
	}

	pages := 0
	if p.PageCount != nil {
		if pages, err = p.PageCount(document); err != nil {
			return nil, err
		}
	}
	filename := p.Filename(meta)
	log.Info().Int("pages", pages).Int("bytes", len(document)).Str("filename", filename).Msg("assembled document")

	if p.Persist != nil {
		if err := p.Persist(filename, document); err != nil {
			return nil, fmt.Errorf("persisting document: %w", err)
		}
	}

	id, err := p.Uploader.Upload(ctx, document, MIMETypePDF, filename, meta)
	if err != nil {
		return nil, err
	}
	log.Info().Str("record_id", id).Msg("uploaded record")

	return &Record{ID: id, Filename: filename, Pages: pages, Meta: meta}, nil
}

func (p *Pipeline) acquire(page PageHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		p.active = make(map[PageHandle]struct{})
	}
	if _, busy := p.active[page]; busy {
		return ErrSaveInProgress
	}
	p.active[page] = struct{}{}
	return nil
}

func (p *Pipeline) release(page PageHandle) {
	p.mu.Lock()
	delete(p.active, page)
	p.mu.Unlock()
}

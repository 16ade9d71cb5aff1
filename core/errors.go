package core

import (
	"errors"
	"fmt"
)

// ErrSaveInProgress is returned when a second save is started against a
// page handle that already has one running. Captures against the same page
// would race on scroll position.
var ErrSaveInProgress = errors.New("a save operation is already running for this page")

// CaptureStep names the sub-step of the scroll-capture protocol that failed.
type CaptureStep string

const (
	StepScroll  CaptureStep = "scroll"
	StepCapture CaptureStep = "capture"
	StepRestore CaptureStep = "restore"
)

// MetricsError reports that the page's scroll geometry could not be read.
type MetricsError struct {
	URL string
	Err error
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("reading page metrics for %s: %v", e.URL, e.Err)
}

func (e *MetricsError) Unwrap() error { return e.Err }

// CaptureError reports a failed scroll or raster capture at a given offset.
type CaptureError struct {
	Offset int
	Step   CaptureStep
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture: %s failed at offset %d: %v", e.Step, e.Offset, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// AssemblyError reports an undecodable tile or an empty tile sequence.
// TileIndex is -1 when no single tile is at fault.
type AssemblyError struct {
	TileIndex int
	Err       error
}

func (e *AssemblyError) Error() string {
	if e.TileIndex < 0 {
		return fmt.Sprintf("assemble: %v", e.Err)
	}
	return fmt.Sprintf("assemble: tile %d: %v", e.TileIndex, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// UploadError reports a transport or protocol failure from the record store.
// Stage names the step of the upload handshake that failed.
type UploadError struct {
	Stage string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload: %s: %v", e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

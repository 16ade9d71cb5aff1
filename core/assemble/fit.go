package assemble

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/gaurav-prasanna/jobsnap/core"
)

// Size-cap re-encode parameters. The record store rejects oversized
// attachments, so when the native assembly is too big we trade fidelity
// for size: JPEG instead of PNG, then progressively smaller scales.
const (
	fitJPEGQuality = 85
	fitScaleStep   = 0.8
	fitMinWidth    = 800
	fitMaxAttempts = 7
)

// FitUnder assembles tiles like Assemble, but guarantees a best effort at
// keeping the output at or below maxBytes. If the native PNG assembly
// already fits (or maxBytes <= 0), it is returned untouched. Otherwise the
// tiles are re-encoded as JPEG and downscaled by fitScaleStep per attempt,
// never below fitMinWidth pixels wide; after fitMaxAttempts the smallest
// attempt is returned even if it still exceeds the cap.
func FitUnder(tiles []core.Tile, maxBytes int64) ([]byte, error) {
	native, err := Assemble(tiles)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 || int64(len(native)) <= maxBytes {
		return native, nil
	}

	decoded := make([]image.Image, 0, len(tiles))
	for i, tile := range tiles {
		img, err := png.Decode(bytes.NewReader(tile.PNG))
		if err != nil {
			return nil, &core.AssemblyError{TileIndex: i, Err: fmt.Errorf("decoding tile PNG: %w", err)}
		}
		decoded = append(decoded, img)
	}

	scale := 1.0
	var smallest []byte
	for attempt := 0; attempt < fitMaxAttempts; attempt++ {
		out, err := buildScaled(decoded, scale)
		if err != nil {
			return nil, err
		}
		if int64(len(out)) <= maxBytes {
			return out, nil
		}
		if smallest == nil || len(out) < len(smallest) {
			smallest = out
		}
		if atMinWidth(decoded, scale) {
			break
		}
		scale *= fitScaleStep
	}
	return smallest, nil
}

// buildScaled resamples every tile to scale and assembles the JPEG pages.
func buildScaled(decoded []image.Image, scale float64) ([]byte, error) {
	images := make([]pageImage, 0, len(decoded))
	for i, src := range decoded {
		b := src.Bounds()
		w := int(float64(b.Dx()) * scale)
		if w < fitMinWidth && b.Dx() >= fitMinWidth {
			w = fitMinWidth
		}
		if w < 1 {
			w = 1
		}
		h := b.Dy() * w / b.Dx()
		if h < 1 {
			h = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: fitJPEGQuality}); err != nil {
			return nil, &core.AssemblyError{TileIndex: i, Err: fmt.Errorf("encoding JPEG: %w", err)}
		}
		images = append(images, pageImage{
			name:    fmt.Sprintf("tile-%d-s%d", i, int(scale*100)),
			data:    buf.Bytes(),
			imgType: "JPG",
			width:   float64(w),
			height:  float64(h),
		})
	}
	return buildPDF(images)
}

// atMinWidth reports whether every tile has already been clamped to the
// minimum width at the current scale, meaning further steps change nothing.
func atMinWidth(decoded []image.Image, scale float64) bool {
	for _, img := range decoded {
		w := img.Bounds().Dx()
		if w >= fitMinWidth && int(float64(w)*scale) > fitMinWidth {
			return false
		}
	}
	return true
}

// Package assemble turns an ordered sequence of captured tiles into a
// single multi-page PDF, one page per tile. Pages are sized exactly to
// their tile's pixel dimensions at scale 1 (point == pixel, 72 dpi), so a
// partial final tile simply yields a shorter last page. FitUnder adds an
// opt-in size cap that re-encodes and downscales tiles until the document
// fits; the plain Assemble path never resamples.
package assemble

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/jobsnap/core"
)

// Assemble builds the document from tiles in capture order. It fails with
// *core.AssemblyError if the sequence is empty or a tile cannot be decoded
// as PNG. The output has exactly len(tiles) pages and each page's point
// dimensions equal its tile's pixel dimensions.
func Assemble(tiles []core.Tile) ([]byte, error) {
	if len(tiles) == 0 {
		return nil, &core.AssemblyError{TileIndex: -1, Err: fmt.Errorf("no tiles to assemble")}
	}

	images := make([]pageImage, 0, len(tiles))
	for i, tile := range tiles {
		cfg, err := png.DecodeConfig(bytes.NewReader(tile.PNG))
		if err != nil {
			return nil, &core.AssemblyError{TileIndex: i, Err: fmt.Errorf("decoding tile PNG: %w", err)}
		}
		images = append(images, pageImage{
			name:    fmt.Sprintf("tile-%d", i),
			data:    tile.PNG,
			imgType: "PNG",
			width:   float64(cfg.Width),
			height:  float64(cfg.Height),
		})
	}

	return buildPDF(images)
}

// pageImage is one decoded-and-measured image destined for its own page.
type pageImage struct {
	name    string
	data    []byte
	imgType string // "PNG" or "JPG"
	width   float64
	height  float64
}

// buildPDF lays each image on a page of identical size, drawn from the
// origin with no margin, no scaling, no cropping.
func buildPDF(images []pageImage) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: images[0].width, Ht: images[0].height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	for i, img := range images {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: img.width, Ht: img.height})

		opts := gofpdf.ImageOptions{ImageType: img.imgType}
		pdf.RegisterImageOptionsReader(img.name, opts, bytes.NewReader(img.data))
		if err := pdf.Error(); err != nil {
			return nil, &core.AssemblyError{TileIndex: i, Err: fmt.Errorf("registering image: %w", err)}
		}
		pdf.ImageOptions(img.name, 0, 0, img.width, img.height, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, &core.AssemblyError{TileIndex: i, Err: fmt.Errorf("placing image: %w", err)}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &core.AssemblyError{TileIndex: -1, Err: fmt.Errorf("writing PDF: %w", err)}
	}
	return buf.Bytes(), nil
}

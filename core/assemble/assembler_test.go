package assemble_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/jobsnap/core"
	"github.com/gaurav-prasanna/jobsnap/core/assemble"
)

// tilePNG builds a solid-color PNG of the given pixel dimensions.
func tilePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 220, B: 240, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAssemblePageDimensionsMatchTiles(t *testing.T) {
	// Heterogeneous sizes on purpose: the final tile of a real capture is
	// usually a clipped viewport.
	dims := [][2]int{{1280, 720}, {1280, 720}, {1280, 300}}

	tiles := make([]core.Tile, len(dims))
	for i, d := range dims {
		tiles[i] = core.Tile{Offset: i * 720, PNG: tilePNG(t, d[0], d[1])}
	}

	pdf, err := assemble.Assemble(tiles)
	require.NoError(t, err)

	count, err := assemble.PageCount(pdf)
	require.NoError(t, err)
	assert.Equal(t, len(tiles), count)

	pageDims, err := api.PageDims(bytes.NewReader(pdf), nil)
	require.NoError(t, err)
	require.Len(t, pageDims, len(dims))
	for i, d := range dims {
		assert.InDelta(t, float64(d[0]), pageDims[i].Width, 0.5, "page %d width", i)
		assert.InDelta(t, float64(d[1]), pageDims[i].Height, 0.5, "page %d height", i)
	}
}

func TestAssembleEmptySequence(t *testing.T) {
	_, err := assemble.Assemble(nil)

	var asmErr *core.AssemblyError
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, -1, asmErr.TileIndex)
}

func TestAssembleUndecodableTile(t *testing.T) {
	tiles := []core.Tile{
		{Offset: 0, PNG: tilePNG(t, 100, 100)},
		{Offset: 100, PNG: []byte("not a png")},
	}

	_, err := assemble.Assemble(tiles)

	var asmErr *core.AssemblyError
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, 1, asmErr.TileIndex)
}

func TestFitUnderNoCapReturnsNative(t *testing.T) {
	tiles := []core.Tile{{Offset: 0, PNG: tilePNG(t, 200, 150)}}

	native, err := assemble.Assemble(tiles)
	require.NoError(t, err)

	fitted, err := assemble.FitUnder(tiles, 0)
	require.NoError(t, err)
	assert.Equal(t, native, fitted)
}

func TestFitUnderShrinksOversizedDocument(t *testing.T) {
	// A 1600px-wide tile assembled natively is comfortably over a few KiB;
	// the refit path must produce a valid, smaller document.
	tiles := []core.Tile{{Offset: 0, PNG: tilePNG(t, 1600, 1200)}}

	native, err := assemble.Assemble(tiles)
	require.NoError(t, err)

	fitted, err := assemble.FitUnder(tiles, int64(len(native)-1))
	require.NoError(t, err)
	assert.Less(t, len(fitted), len(native))

	count, err := assemble.PageCount(fitted)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

package assemble

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/gaurav-prasanna/jobsnap/core"
)

// PageCount reads the page count of an assembled document. Used by the
// pipeline to report what it is about to upload and by callers verifying
// that page count equals tile count.
func PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), nil)
	if err != nil {
		return 0, &core.AssemblyError{TileIndex: -1, Err: fmt.Errorf("reading page count: %w", err)}
	}
	return n, nil
}

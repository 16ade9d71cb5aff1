// Package output derives artifact filenames from job metadata and writes
// local copies of the assembled document.
// Filenames follow {ISO-date}-{company}-{title}.pdf with both fields
// sanitized for filesystem safety and capped at 80 characters.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gaurav-prasanna/jobsnap/core"
)

const maxFieldLen = 80

// Writer writes assembled documents to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// Write stores the document under the given filename and returns the path.
func (w *Writer) Write(filename string, document []byte) (string, error) {
	path := filepath.Join(w.OutputDir, filename)
	if err := os.WriteFile(path, document, 0o644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// Filename builds the artifact name for one save:
// 2026-08-26-Acme_Corp-Senior_Gopher.pdf
func Filename(meta core.JobMetadata) string {
	return FilenameAt(meta, time.Now())
}

// FilenameAt is Filename with an injectable clock.
func FilenameAt(meta core.JobMetadata, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.pdf",
		now.Format("2006-01-02"),
		Sanitize(meta.Company),
		Sanitize(meta.Title))
}

var (
	whitespace    = regexp.MustCompile(`\s+`)
	forbiddenRune = regexp.MustCompile(`[\\/:*?"<>|]`)
)

// Sanitize makes a metadata field safe for filenames: whitespace collapsed
// and replaced by underscores, path-unsafe characters stripped, truncated
// to 80 characters. Empty input becomes "Unknown".
func Sanitize(field string) string {
	s := whitespace.ReplaceAllString(strings.TrimSpace(field), " ")
	s = forbiddenRune.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "_")
	if r := []rune(s); len(r) > maxFieldLen {
		s = string(r[:maxFieldLen])
	}
	if s == "" {
		return "Unknown"
	}
	return s
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/jobsnap/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "2022-06-28", cfg.NotionVersion)
	assert.Equal(t, "Description", cfg.FilesProperty)
	assert.Equal(t, 5.0, cfg.MaxPDFMB)
	assert.Equal(t, 1280, cfg.ViewportWidth)
	assert.Equal(t, 720, cfg.ViewportHeight)
	assert.Equal(t, 300, cfg.SettleMs)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
notion_token: from-yaml
viewport_width: 1920
settle_ms: 500
max_pdf_mb: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("NOTION_TOKEN", "from-env")
	t.Setenv("MAX_PDF_MB", "2.5")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.NotionToken, "env wins over yaml")
	assert.Equal(t, 1920, cfg.ViewportWidth)
	assert.Equal(t, 500, cfg.SettleMs)
	assert.Equal(t, 2.5, cfg.MaxPDFMB)
}

func TestMaxPDFBytes(t *testing.T) {
	cfg := &config.Config{MaxPDFMB: 5}
	assert.Equal(t, int64(5*1024*1024), cfg.MaxPDFBytes())

	cfg.MaxPDFMB = 0
	assert.Equal(t, int64(0), cfg.MaxPDFBytes())
}

// Package config loads jobsnap settings from .env, environment variables,
// and an optional YAML file. Env vars win over YAML; defaults fill the
// rest. Load itself never requires credentials; the Notion client checks
// its token and database ID (needed even with --no-upload, which still
// creates the record page), and --describe checks GROQ_API_KEY.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the YAML config location checked when none is given.
const DefaultPath = "configs/config.yaml"

// Config holds every tunable of the tool.
type Config struct {
	// Notion credentials and schema knobs.
	NotionToken      string `yaml:"notion_token"`
	NotionDatabaseID string `yaml:"notion_database_id"`
	NotionVersion    string `yaml:"notion_version"`
	FilesProperty    string `yaml:"notion_files_property"`
	NoteProperty     string `yaml:"notion_note_property"`

	// MaxPDFMB caps the uploaded document size in megabytes. 0 disables.
	MaxPDFMB float64 `yaml:"max_pdf_mb"`

	// Groq credentials for --describe.
	GroqAPIKey string `yaml:"groq_api_key"`
	GroqModel  string `yaml:"groq_model"`

	// Capture geometry and timing.
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`
	SettleMs       int `yaml:"settle_ms"`

	// HistoryPath is the local SQLite archive of saved postings.
	HistoryPath string `yaml:"history_path"`
}

// Load reads .env, the YAML file at path (DefaultPath when empty; a missing
// file is fine), then applies env overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if path == "" {
		path = DefaultPath
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.NotionToken, "NOTION_TOKEN")
	setString(&cfg.NotionDatabaseID, "NOTION_DATABASE_ID")
	setString(&cfg.NotionVersion, "NOTION_VERSION")
	setString(&cfg.FilesProperty, "NOTION_FILES_PROPERTY_NAME")
	setString(&cfg.NoteProperty, "NOTION_NOTE_PROPERTY_NAME")
	setString(&cfg.GroqAPIKey, "GROQ_API_KEY")
	setString(&cfg.GroqModel, "GROQ_MODEL")
	setString(&cfg.HistoryPath, "JOBSNAP_HISTORY_PATH")

	if v := os.Getenv("MAX_PDF_MB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MaxPDFMB = f
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.NotionVersion == "" {
		cfg.NotionVersion = "2022-06-28"
	}
	if cfg.FilesProperty == "" {
		cfg.FilesProperty = "Description"
	}
	if cfg.MaxPDFMB == 0 {
		cfg.MaxPDFMB = 5
	}
	if cfg.GroqModel == "" {
		cfg.GroqModel = "llama-3.1-70b-versatile"
	}
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = 1280
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = 720
	}
	if cfg.SettleMs <= 0 {
		cfg.SettleMs = 300
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = ".jobsnap/history.db"
	}
}

// MaxPDFBytes converts the configured MB cap to bytes.
func (c *Config) MaxPDFBytes() int64 {
	if c.MaxPDFMB <= 0 {
		return 0
	}
	return int64(c.MaxPDFMB * 1024 * 1024)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

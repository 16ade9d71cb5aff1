// Package cmd — save command.
// This is the main command that orchestrates one archival run per URL:
// open tab → extract metadata → capture tiles → assemble PDF → upload.
//
// Multiple URLs are processed with bounded concurrency; each URL gets its
// own tab, so the one-save-per-page rule is never violated.
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/jobsnap/browser"
	"github.com/gaurav-prasanna/jobsnap/config"
	"github.com/gaurav-prasanna/jobsnap/core"
	"github.com/gaurav-prasanna/jobsnap/core/assemble"
	"github.com/gaurav-prasanna/jobsnap/core/capture"
	"github.com/gaurav-prasanna/jobsnap/core/extract"
	"github.com/gaurav-prasanna/jobsnap/core/plan"
	"github.com/gaurav-prasanna/jobsnap/describe"
	"github.com/gaurav-prasanna/jobsnap/history"
	"github.com/gaurav-prasanna/jobsnap/log"
	"github.com/gaurav-prasanna/jobsnap/notion"
	"github.com/gaurav-prasanna/jobsnap/output"
)

// Flag variables.
var (
	flagNoUpload    bool
	flagKeepLocal   bool
	flagDescribe    bool
	flagForce       bool
	flagOutputDir   string
	flagConfig      string
	flagSettleMs    int
	flagViewportW   int
	flagViewportH   int
	flagTimeout     time.Duration
	flagConcurrency int
	flagRemoteURL   string
)

var saveCmd = &cobra.Command{
	Use:   "save <url>...",
	Short: "Capture job postings and file them into Notion",
	Long: `Save captures each URL's rendered page as viewport-height tiles,
assembles them into a multi-page PDF, and creates a Notion database page
with the PDF attached.

Examples:
  jobsnap save https://acme.wd3.myworkdayjobs.com/jobs/123
  jobsnap save https://example.com/careers/42 --keep-local --output_dir ./saved
  jobsnap save <url1> <url2> --concurrency 2 --describe`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)

	saveCmd.Flags().BoolVar(&flagNoUpload, "no-upload", false, "Create the Notion page without attaching the PDF")
	saveCmd.Flags().BoolVar(&flagKeepLocal, "keep-local", false, "Keep a local copy of the PDF")
	saveCmd.Flags().BoolVar(&flagDescribe, "describe", false, "Generate a short company description via Groq")
	saveCmd.Flags().BoolVar(&flagForce, "force", false, "Save even if the URL is already in the local history")

	saveCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Directory for local copies (default: current directory)")
	saveCmd.Flags().StringVar(&flagConfig, "config", "", "YAML config path (default: configs/config.yaml)")
	saveCmd.Flags().StringVar(&flagRemoteURL, "browser_url", "", "WebSocket URL of an external Chrome (default: launch locally)")

	saveCmd.Flags().IntVar(&flagSettleMs, "settle_ms", 0, "Post-scroll settlement wait in milliseconds")
	saveCmd.Flags().IntVar(&flagViewportW, "viewport_width", 0, "Viewport width in pixels")
	saveCmd.Flags().IntVar(&flagViewportH, "viewport_height", 0, "Viewport height in pixels")
	saveCmd.Flags().DurationVar(&flagTimeout, "timeout", 5*time.Minute, "Overall timeout per URL")
	saveCmd.Flags().IntVar(&flagConcurrency, "concurrency", 1, "URLs processed in parallel (each in its own tab)")
}

func runSave(cmd *cobra.Command, args []string) error {
	logger := log.NewLogger("save")

	for _, raw := range args {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid URL: %s (must include scheme, e.g. https://example.com)", raw)
		}
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	applyFlags(cfg)

	uploader, err := notion.New(notion.Config{
		Token:         cfg.NotionToken,
		DatabaseID:    cfg.NotionDatabaseID,
		Version:       cfg.NotionVersion,
		FilesProperty: cfg.FilesProperty,
		NoteProperty:  cfg.NoteProperty,
		AttachFile:    !flagNoUpload,
		Logger:        log.NewLogger("notion"),
	})
	if err != nil {
		return err
	}

	archive, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer archive.Close()

	mgr := browser.NewManager(browser.Config{
		RemoteURL:      flagRemoteURL,
		Stealth:        true,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		Logger:         log.NewLogger("browser"),
	})
	if err := mgr.Start(cmd.Context()); err != nil {
		return err
	}
	defer mgr.Close()

	pipeline := &core.Pipeline{
		Extractor: extract.New(),
		Capture: capture.New(capture.Config{
			Settle: time.Duration(cfg.SettleMs) * time.Millisecond,
			Logger: log.NewLogger("capture"),
		}),
		Plan:      plan.Offsets,
		Assemble:  assemble.FitUnder,
		Uploader:  uploader,
		Filename:  output.Filename,
		MaxBytes:  cfg.MaxPDFBytes(),
		PageCount: assemble.PageCount,
		Logger:    log.NewLogger("pipeline"),
	}

	if flagKeepLocal {
		writer, err := output.New(flagOutputDir)
		if err != nil {
			return fmt.Errorf("initializing output writer: %w", err)
		}
		pipeline.Persist = func(filename string, document []byte) error {
			path, werr := writer.Write(filename, document)
			if werr == nil {
				fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
			}
			return werr
		}
	}

	if flagDescribe {
		if cfg.GroqAPIKey == "" {
			return fmt.Errorf("--describe requires GROQ_API_KEY")
		}
		gen := describe.New(cfg.GroqAPIKey, cfg.GroqModel, "")
		pipeline.Describe = gen.Company
	}

	var errCount atomic.Int64
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(flagConcurrency)

	for _, pageURL := range args {
		g.Go(func() error {
			if err := saveOne(ctx, pipeline, mgr, archive, pageURL); err != nil {
				logger.Error().Str("url", pageURL).Err(err).Msg("save failed")
				errCount.Add(1)
			}
			return nil // keep processing the remaining URLs
		})
	}
	_ = g.Wait()

	if n := errCount.Load(); n > 0 {
		return fmt.Errorf("%d/%d saves failed", n, len(args))
	}
	return nil
}

// saveOne archives a single URL: history check, tab, pipeline, record.
func saveOne(ctx context.Context, pipeline *core.Pipeline, mgr *browser.Manager, archive *history.Store, pageURL string) error {
	if !flagForce {
		seen, err := archive.Seen(ctx, pageURL)
		if err != nil {
			return err
		}
		if seen {
			entry, _ := archive.Get(ctx, pageURL)
			if entry != nil {
				fmt.Fprintf(os.Stdout, "• Already saved: %s (record %s, %s) — use --force to save again\n",
					pageURL, entry.RecordID, entry.SavedAt.Format("2006-01-02"))
			}
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, flagTimeout)
	defer cancel()

	tab, err := mgr.OpenTab(ctx, pageURL)
	if err != nil {
		return err
	}
	defer tab.Close()

	record, err := pipeline.Save(ctx, tab)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "✓ Saved %s (%d pages) → record %s\n", record.Filename, record.Pages, record.ID)

	return archive.Record(ctx, history.Entry{
		URL:      pageURL,
		Title:    record.Meta.Title,
		Company:  record.Meta.Company,
		RecordID: record.ID,
	})
}

// applyFlags lets command-line flags override loaded config.
func applyFlags(cfg *config.Config) {
	if flagSettleMs > 0 {
		cfg.SettleMs = flagSettleMs
	}
	if flagViewportW > 0 {
		cfg.ViewportWidth = flagViewportW
	}
	if flagViewportH > 0 {
		cfg.ViewportHeight = flagViewportH
	}
}

// Package cmd implements the CLI commands for jobsnap using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobsnap",
	Short: "jobsnap — archive job postings as multi-page PDFs in Notion",
	Long: `jobsnap captures a job posting's full rendered page as viewport-sized
tiles, assembles them into one PDF page per tile, extracts the posting's
title and company, and files everything into a Notion database.

Usage:
  jobsnap save <url> [flags]`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

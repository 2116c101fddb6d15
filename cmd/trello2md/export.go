// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trello2md/internal/export"
	"github.com/pdiddy/trello2md/internal/manifest"
	"github.com/pdiddy/trello2md/internal/report"
	"github.com/pdiddy/trello2md/internal/sink"
	"github.com/pdiddy/trello2md/internal/trello"
	"github.com/pdiddy/trello2md/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export [board-ids...]",
	Short: "Export boards to folders of Markdown files",
	Long: `Export rebuilds each board as a folder tree under --output-dir. Boards
are given as Trello board IDs or short links (fetched from the API) or as
JSON export files with --input.

Uploaded attachments are downloaded next to their card and links to them are
rewritten to the local copy. Attachments already downloaded by an earlier
run into the same output directory are skipped.

The command exits non-zero when a board, list or card failed validation.
Everything that could be exported is still written.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringArray("input", nil, "board export JSON file (repeatable)")
	exportCmd.Flags().String("output-dir", defaultOutputDir, "base directory boards are written under")
	exportCmd.Flags().Bool("no-attachments", false, "do not download attachments")
	exportCmd.Flags().Int("concurrency", defaultConcurrency, "maximum concurrent attachment downloads")
	exportCmd.Flags().Bool("skip-archived", false, "leave archived lists and cards out")
	exportCmd.Flags().String("summary-file", "", "write the run summary as YAML to this file")
	exportCmd.Flags().String("s3-bucket", "", "mirror exported boards to this S3 bucket")
	exportCmd.Flags().String("s3-prefix", "", "key prefix inside the S3 bucket")
	exportCmd.Flags().String("s3-endpoint", "", "S3-compatible endpoint URL (default: AWS)")
	exportCmd.Flags().String("s3-region", "us-east-1", "S3 region")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	inputs, _ := cmd.Flags().GetStringArray("input")
	if len(args) == 0 && len(inputs) == 0 {
		return fmt.Errorf("provide one or more board IDs or --input files")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := exportConfig(cmd)

	store, err := manifest.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := export.Deps{
		HTTPClient: httpClient(cfg.Download.HTTPConfig),
		Manifest:   store,
	}
	if cfg.S3.Enabled() {
		client, err := sink.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return err
		}
		deps.S3 = client
	}

	var (
		summaries []report.Summary
		failed    int
		fatal     error
	)
	for _, src := range boardSources(args, inputs) {
		raw, err := src.load(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed:  %s (%v)\n", src, err)
			failed++
			continue
		}

		res, err := export.Run(ctx, raw, cfg, deps, os.Stdout)
		summaries = append(summaries, res.Summary)
		report.Print(os.Stdout, res.Summary, styledOutput())
		if err != nil {
			if !errors.Is(err, export.ErrStructural) {
				fmt.Fprintf(os.Stderr, "failed:  %s (%v)\n", src, err)
				failed++
			}
			if fatal == nil {
				fatal = err
			}
		}
	}

	if cfg.SummaryFile != "" {
		if err := report.WriteYAML(cfg.SummaryFile, summaries); err != nil {
			return err
		}
		fmt.Printf("Summary written to %s\n", cfg.SummaryFile)
	}

	if failed > 0 {
		return fmt.Errorf("%d board(s) failed export", failed)
	}
	return fatal
}

// boardSource is a board to export: an export file or a board ID.
type boardSource struct {
	file    string
	boardID string
}

func (s boardSource) String() string {
	if s.file != "" {
		return s.file
	}
	return "board " + s.boardID
}

func (s boardSource) load(ctx context.Context) (*types.Board, error) {
	if s.file != "" {
		return trello.ReadExport(s.file)
	}
	cfg := trelloConfig()
	return trello.NewClient(httpClient(cfg.HTTPConfig), cfg, os.Stderr).FetchBoard(ctx, s.boardID)
}

func boardSources(ids, files []string) []boardSource {
	var sources []boardSource
	for _, f := range files {
		sources = append(sources, boardSource{file: f})
	}
	for _, id := range ids {
		sources = append(sources, boardSource{boardID: id})
	}
	return sources
}

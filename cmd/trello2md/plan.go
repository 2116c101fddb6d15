// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trello2md/internal/export"
	"github.com/pdiddy/trello2md/internal/report"
)

var planCmd = &cobra.Command{
	Use:   "plan [board-id]",
	Short: "Print the folder and file layout of a board without writing it",
	Long: `Plan links, orders and allocates the paths of a board and prints the
result as YAML or JSON. Nothing is written or downloaded. Skipped entities
are listed on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().String("input", "", "board export JSON file")
	planCmd.Flags().String("output-dir", defaultOutputDir, "base directory paths are computed under")
	planCmd.Flags().String("format", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	format, _ := cmd.Flags().GetString("format")
	outputDir := stringSetting(cmd, "output-dir", "output_dir")

	var src boardSource
	switch {
	case input != "":
		src.file = input
	case len(args) == 1:
		src.boardID = args[0]
	default:
		return fmt.Errorf("provide a board ID or --input file")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := src.load(ctx)
	if err != nil {
		return err
	}

	b, errs, err := export.Plan(raw, outputDir)
	for _, is := range report.Summarize(errs) {
		fmt.Fprintf(os.Stderr, "skipped: %s %s (%s)\n", is.Kind, is.ID, is.Reason)
	}
	if err != nil {
		return err
	}
	plan := export.Describe(b)

	switch format {
	case "yaml", "":
		data, err := yaml.Marshal(plan)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		os.Stdout.Write(data)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

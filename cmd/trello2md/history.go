// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trello2md/internal/manifest"
)

var historyCmd = &cobra.Command{
	Use:   "history <board-id>",
	Short: "List earlier export runs of a board",
	Long: `History reads the manifest under --output-dir and lists the recorded
export runs of a board, most recent first. The board is given by its Trello
ID, not its short link.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("output-dir", defaultOutputDir, "base directory boards were exported under")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := manifest.NewStore(stringSetting(cmd, "output-dir", "output_dir"))
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx, args[0])
	if err != nil {
		return err
	}
	formatRuns(os.Stdout, args[0], runs)
	return nil
}

func formatRuns(w io.Writer, boardID string, runs []manifest.Run) {
	if len(runs) == 0 {
		fmt.Fprintf(w, "No runs recorded for board %s.\n", boardID)
		return
	}
	fmt.Fprintf(w, "%-5s  %-20s  %-9s  %5s  %10s  %7s  %6s  %6s\n",
		"Run", "Started", "Duration", "Cards", "Downloaded", "Skipped", "Failed", "Issues")
	fmt.Fprintln(w, strings.Repeat("-", 84))
	for _, r := range runs {
		fmt.Fprintf(w, "%-5d  %-20s  %-9s  %5d  %10d  %7d  %6d  %6d\n",
			r.ID, r.StartedAt.UTC().Format(time.RFC3339),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Cards, r.Downloaded, r.Skipped, r.Failed, r.Issues)
	}
}

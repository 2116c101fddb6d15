// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trello2md/internal/trello"
	"github.com/pdiddy/trello2md/internal/validate"
	"github.com/pdiddy/trello2md/pkg/types"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List the boards available for export",
	Long: `Boards lists the boards of the authenticated Trello member, or the boards
in a JSON file given with --input (an array of boards or a single export).
Closed boards are hidden unless --all is given. Boards missing a name or
short link are reported and left out.`,
	RunE: runBoards,
}

func init() {
	boardsCmd.Flags().String("input", "", "JSON file with board summaries")
	boardsCmd.Flags().Bool("all", false, "include closed boards")
	boardsCmd.Flags().Bool("json", false, "output boards as JSON")

	rootCmd.AddCommand(boardsCmd)
}

func runBoards(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	all, _ := cmd.Flags().GetBool("all")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var (
		list []types.BoardSummary
		err  error
	)
	if input != "" {
		list, err = readSummaries(input)
	} else {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg := trelloConfig()
		list, err = trello.NewClient(httpClient(cfg.HTTPConfig), cfg, os.Stderr).ListBoards(ctx, all)
	}
	if err != nil {
		return err
	}

	boards := filterBoards(list, all)
	return formatBoardsOutput(boards, jsonOutput)
}

func readSummaries(path string) ([]types.BoardSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return trello.ParseBoardSummaries(f)
}

// filterBoards drops invalid boards with a warning, and closed boards unless
// all is set.
func filterBoards(list []types.BoardSummary, all bool) []types.BoardSummary {
	var boards []types.BoardSummary
	for i := range list {
		b := &list[i]
		if err := validate.Check(b); err != nil {
			fmt.Fprintf(os.Stderr, "skipped: %v\n", err)
			continue
		}
		if b.Closed && !all {
			continue
		}
		boards = append(boards, *b)
	}
	return boards
}

func formatBoardsOutput(boards []types.BoardSummary, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(boards)
	}

	if len(boards) == 0 {
		fmt.Println("No boards found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-26s  %-10s  %-40s  %s\n", "ID", "Short link", "Name", "Status")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, b := range boards {
		name := truncateName(b.Name, 40)
		status := "open"
		if b.Closed {
			status = "closed"
		}
		fmt.Fprintf(os.Stdout, "%-26s  %-10s  %-40s  %s\n", b.ID, b.ShortLink, name, status)
	}

	fmt.Fprintf(os.Stdout, "\n%d boards\n", len(boards))
	return nil
}

// truncateName shortens name to at most n runes, marking the cut with "...".
func truncateName(name string, n int) string {
	runes := []rune(name)
	if len(runes) <= n {
		return name
	}
	return string(runes[:n-3]) + "..."
}

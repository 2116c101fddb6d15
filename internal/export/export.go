// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export runs a board export end to end: plan the tree, render the
// Markdown files, download attachments, rewrite links to the downloaded
// copies, record the run in the manifest and optionally mirror the result
// to S3.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/trello2md/internal/download"
	"github.com/pdiddy/trello2md/internal/link"
	"github.com/pdiddy/trello2md/internal/manifest"
	"github.com/pdiddy/trello2md/internal/render"
	"github.com/pdiddy/trello2md/internal/report"
	"github.com/pdiddy/trello2md/internal/sink"
	"github.com/pdiddy/trello2md/pkg/types"
)

// ErrStructural is returned by Run when a list or card failed validation
// and its subtree was left out of the export.
var ErrStructural = errors.New("structural entities were skipped")

// Deps are the collaborators of Run. Every field is optional.
type Deps struct {
	// HTTPClient downloads attachments (default http.DefaultClient).
	HTTPClient *http.Client

	// Manifest records the plan, downloads and run. Without it every
	// attachment is downloaded again.
	Manifest *manifest.Store

	// S3 receives a mirror of the board folder when cfg.S3 is enabled.
	S3 sink.Client
}

// Result is the outcome of Run.
type Result struct {
	Board   *types.Board
	Summary report.Summary
	Errors  []error
}

// Run exports raw under cfg.OutputDir. Progress goes to w. Per-entity
// failures are collected in the summary and do not stop the run. The
// returned error is non-nil when the board could not be planned, when a
// stage failed as a whole, or (wrapping ErrStructural) when a list or card
// was skipped.
func Run(ctx context.Context, raw *types.Board, cfg types.ExportConfig, deps Deps, w io.Writer) (Result, error) {
	started := time.Now()

	b, errs, err := Plan(raw, cfg.OutputDir)
	res := Result{Board: b, Errors: errs}
	res.Summary.Issues = report.Summarize(errs)
	if err != nil {
		if raw != nil {
			res.Summary.Board = raw.Name
		}
		return res, err
	}
	res.Summary.Board = b.Name
	res.Summary.Folder = b.FolderPath
	fmt.Fprintf(w, "planned %s: %d lists, %d cards, %d issues\n", b.Name, len(b.Lists), len(b.Cards), len(errs))

	stats, err := render.WriteBoard(b, render.Options{SkipArchived: cfg.SkipArchived}, w)
	if err != nil {
		return res, fmt.Errorf("rendering board: %w", err)
	}
	res.Summary.Cards = stats.Cards
	res.Summary.CardsSkipped = stats.Skipped
	res.Summary.CardsFailed = stats.Failed

	if deps.Manifest != nil {
		res.Summary.Moved = movedCards(ctx, deps.Manifest, b, w)
		if err := deps.Manifest.RecordPlan(ctx, b); err != nil {
			fmt.Fprintf(w, "warning: manifest plan not recorded: %v\n", err)
		}
	}

	if cfg.DownloadAttachments {
		batch := downloadAttachments(ctx, b, cfg, deps, w)
		res.Summary.Downloaded = batch.Downloaded
		res.Summary.DownloadSkipped = batch.Skipped
		res.Summary.DownloadFailed = batch.Failed
		for _, r := range batch.Results {
			if r.Err != nil {
				res.Summary.Issues = append(res.Summary.Issues, report.Issue{
					Kind:   types.KindAttachment,
					ID:     r.AttachmentID,
					Reason: "download failed: " + r.Err.Error(),
				})
			}
		}
	}

	if deps.S3 != nil && cfg.S3.Enabled() {
		if err := mirror(ctx, b, cfg.S3, deps.S3, w); err != nil {
			return res, err
		}
	}

	if deps.Manifest != nil {
		_, err := deps.Manifest.RecordRun(ctx, manifest.Run{
			BoardID:    b.ID,
			BoardName:  b.Name,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Cards:      res.Summary.Cards,
			Downloaded: res.Summary.Downloaded,
			Skipped:    res.Summary.DownloadSkipped,
			Failed:     res.Summary.DownloadFailed,
			Issues:     len(res.Summary.Issues),
		})
		if err != nil {
			fmt.Fprintf(w, "warning: manifest run not recorded: %v\n", err)
		}
	}

	for _, e := range errs {
		if link.IsFatal(e) {
			return res, fmt.Errorf("%w: %w", ErrStructural, e)
		}
	}
	return res, nil
}

// movedCards reports every card whose description file is not where the
// previous run put it, and returns how many there are. The old files are
// left in place.
func movedCards(ctx context.Context, store *manifest.Store, b *types.Board, w io.Writer) int {
	moved := 0
	for _, c := range b.Cards {
		prev, err := store.PlannedPath(ctx, b.ID, types.KindCard, c.ID)
		if err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
			return moved
		}
		if prev != "" && prev != c.DescriptionPath {
			fmt.Fprintf(w, "moved:   card %s %s -> %s\n", c.ID, prev, c.DescriptionPath)
			moved++
		}
	}
	return moved
}

// skipFunc returns the download filter matching the render options.
func skipFunc(skipArchived bool) func(*types.List, *types.Card) bool {
	if !skipArchived {
		return nil
	}
	return func(l *types.List, c *types.Card) bool {
		return l.Closed || c.Closed
	}
}

func downloadAttachments(ctx context.Context, b *types.Board, cfg types.ExportConfig, deps Deps, w io.Writer) download.BatchResult {
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	var present download.Present
	if deps.Manifest != nil {
		present = deps.Manifest.Present
	}

	skip := skipFunc(cfg.SkipArchived)
	jobs := download.Jobs(b, skip)
	fmt.Fprintf(w, "downloading %d attachments\n", len(jobs))
	batch := download.New(client, cfg.Download, present).Batch(ctx, jobs, w)

	ok := batch.Succeeded()
	for _, l := range b.Lists {
		for _, c := range l.Cards {
			if skip != nil && skip(l, c) {
				continue
			}
			if err := render.RewriteLinks(c, ok); err != nil {
				fmt.Fprintf(w, "failed:  links of card %s (%v)\n", c.ID, err)
			}
		}
	}

	if deps.Manifest != nil {
		if err := deps.Manifest.MarkDownloaded(ctx, batch); err != nil {
			fmt.Fprintf(w, "warning: manifest downloads not recorded: %v\n", err)
		}
	}
	return batch
}

func mirror(ctx context.Context, b *types.Board, cfg types.S3Config, c sink.Client, w io.Writer) error {
	if err := sink.EnsureBucket(ctx, c, cfg.Bucket); err != nil {
		return fmt.Errorf("mirroring to S3: %w", err)
	}
	if _, err := sink.Mirror(ctx, c, cfg.Bucket, cfg.Prefix, b.FolderPath, w); err != nil {
		return fmt.Errorf("mirroring to S3: %w", err)
	}
	return nil
}

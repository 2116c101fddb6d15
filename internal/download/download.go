// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches uploaded card attachments to the paths the path
// allocator assigned to them.
//
// Jobs run as a bounded-concurrency batch. Every job writes only its own
// pre-assigned path and its own result slot, so jobs share no state beyond
// the progress writer.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/trello2md/internal/httputil"
	"github.com/pdiddy/trello2md/internal/paths"
	"github.com/pdiddy/trello2md/pkg/types"
)

const defaultConcurrency = 4

// Job is one attachment download.
type Job struct {
	CardID       string
	AttachmentID string
	URL          string
	Dest         string
}

// Result is the outcome of one Job.
type Result struct {
	Job
	Bytes   int64
	Skipped bool
	Err     error
}

// BatchResult holds the outcome of a download batch, one result per job in
// job order.
type BatchResult struct {
	Results    []Result
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of jobs processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Succeeded returns the IDs of attachments present at their destination
// after the batch, whether downloaded now or skipped as already present.
func (r BatchResult) Succeeded() map[string]bool {
	ok := make(map[string]bool, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil {
			ok[res.AttachmentID] = true
		}
	}
	return ok
}

// Jobs lists a download job for every uploaded attachment of b. Cards in
// skip are left out. b must already have its paths allocated.
func Jobs(b *types.Board, skip func(*types.List, *types.Card) bool) []Job {
	var jobs []Job
	for _, l := range b.Lists {
		for _, c := range l.Cards {
			if skip != nil && skip(l, c) {
				continue
			}
			for _, a := range c.Attachments {
				if !a.IsUpload {
					continue
				}
				jobs = append(jobs, Job{
					CardID:       c.ID,
					AttachmentID: a.ID,
					URL:          a.URL,
					Dest:         paths.AttachmentFile(c, a),
				})
			}
		}
	}
	return jobs
}

// Present reports whether an attachment is already stored at a destination.
// The manifest implements it.
type Present func(ctx context.Context, job Job) bool

// Downloader runs download batches.
type Downloader struct {
	client  *http.Client
	cfg     types.DownloadConfig
	present Present
}

// New returns a Downloader. present may be nil.
func New(client *http.Client, cfg types.DownloadConfig, present Present) *Downloader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Downloader{client: client, cfg: cfg, present: present}
}

// Batch downloads every job with at most cfg.Concurrency in flight and
// returns once all of them have finished. Failures are recorded per job and
// never stop the batch; a cancelled context stops jobs that have not started.
func (d *Downloader) Batch(ctx context.Context, jobs []Job, w io.Writer) BatchResult {
	results := make([]Result, len(jobs))
	var mu sync.Mutex
	logf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	g := new(errgroup.Group)
	g.SetLimit(d.cfg.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			res := Result{Job: job}
			switch {
			case ctx.Err() != nil:
				res.Err = ctx.Err()
			case d.present != nil && d.present(ctx, job) && fileExists(job.Dest):
				res.Skipped = true
			default:
				res.Bytes, res.Err = d.fetch(ctx, job)
			}
			results[i] = res

			switch {
			case res.Err != nil:
				logf("failed:  %s (%v)\n", job.AttachmentID, res.Err)
			case res.Skipped:
				logf("skipped: %s (already downloaded)\n", job.AttachmentID)
			default:
				logf("downloaded: %s (%d bytes)\n", job.AttachmentID, res.Bytes)
			}
			return nil
		})
	}
	g.Wait()

	batch := BatchResult{Results: results}
	for _, res := range results {
		switch {
		case res.Err != nil:
			batch.Failed++
		case res.Skipped:
			batch.Skipped++
		default:
			batch.Downloaded++
		}
	}
	fmt.Fprintf(w, "\nDownload summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		batch.Downloaded, batch.Skipped, batch.Failed, batch.Total())
	return batch
}

// fetch downloads job.URL to job.Dest using a temporary file renamed on
// success, so a failed download never leaves a partial file at Dest.
func (d *Downloader) fetch(ctx context.Context, job Job) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(job.Dest), 0o755); err != nil {
		return 0, fmt.Errorf("creating directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	if d.cfg.APIKey != "" && d.cfg.Token != "" {
		req.Header.Set("Authorization",
			fmt.Sprintf(`OAuth oauth_consumer_key="%s", oauth_token="%s"`, d.cfg.APIKey, d.cfg.Token))
	}

	resp, err := httputil.DoWithRetry(ctx, d.client, req, d.cfg.MaxRetries, nil)
	if err != nil {
		return 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, job.URL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(job.Dest), ".download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, job.Dest); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

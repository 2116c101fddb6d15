// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest records what an export wrote: the path plan of each board,
// the attachments already downloaded, and a log of runs. A later run over
// the same output directory reads it to skip attachments it already has.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trello2md/internal/download"
	"github.com/pdiddy/trello2md/pkg/types"
)

const (
	// Dir is the manifest directory inside the output directory.
	Dir    = ".trello2md"
	dbFile = "manifest.db"
)

// Store manages the manifest SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the manifest at outputDir/.trello2md/manifest.db.
func NewStore(outputDir string) (*Store, error) {
	dbDir := filepath.Join(outputDir, Dir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dbDir, dbFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			board_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT,
			path TEXT NOT NULL,
			archived INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (board_id, kind, id)
		)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id TEXT PRIMARY KEY,
			card_id TEXT NOT NULL,
			url TEXT NOT NULL,
			dest TEXT NOT NULL,
			bytes INTEGER,
			downloaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_card_id ON attachments(card_id)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id TEXT NOT NULL,
			board_name TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			cards INTEGER,
			downloaded INTEGER,
			skipped INTEGER,
			failed INTEGER,
			issues INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordPlan replaces the stored path plan of b with its current one. b must
// have its paths allocated.
func (s *Store) RecordPlan(ctx context.Context, b *types.Board) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE board_id = ?`, b.ID); err != nil {
		return fmt.Errorf("deleting old plan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO entries (board_id, kind, id, name, path, archived) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	insert := func(kind types.Kind, id, name, path string, archived bool) error {
		if _, err := stmt.ExecContext(ctx, b.ID, string(kind), id, name, path, archived); err != nil {
			return fmt.Errorf("inserting %s %s: %w", kind, id, err)
		}
		return nil
	}

	if err := insert(types.KindBoard, b.ID, b.Name, b.FolderPath, b.Closed); err != nil {
		return err
	}
	for _, l := range b.Lists {
		if err := insert(types.KindList, l.ID, l.Name, l.FolderPath, l.Closed); err != nil {
			return err
		}
		for _, c := range l.Cards {
			if err := insert(types.KindCard, c.ID, c.Name, c.DescriptionPath, c.Closed); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// PlannedPath returns the path recorded for an entity, or "" when none is.
func (s *Store) PlannedPath(ctx context.Context, boardID string, kind types.Kind, id string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT path FROM entries WHERE board_id = ? AND kind = ? AND id = ?`,
		boardID, string(kind), id,
	).Scan(&path)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying plan: %w", err)
	}
	return path, nil
}

// Present reports whether job's attachment was downloaded to the same
// destination by an earlier run. It matches download.Present.
func (s *Store) Present(ctx context.Context, job download.Job) bool {
	var dest string
	err := s.db.QueryRowContext(ctx,
		`SELECT dest FROM attachments WHERE id = ?`, job.AttachmentID,
	).Scan(&dest)
	return err == nil && dest == job.Dest
}

// MarkDownloaded records every successfully downloaded attachment of result.
// Skipped and failed jobs are left as they were.
func (s *Store) MarkDownloaded(ctx context.Context, result download.BatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO attachments (id, card_id, url, dest, bytes, downloaded_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			card_id=excluded.card_id, url=excluded.url, dest=excluded.dest,
			bytes=excluded.bytes, downloaded_at=excluded.downloaded_at`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, res := range result.Results {
		if res.Err != nil || res.Skipped {
			continue
		}
		if _, err := stmt.ExecContext(ctx, res.AttachmentID, res.CardID, res.URL, res.Dest, res.Bytes, now); err != nil {
			return fmt.Errorf("recording attachment %s: %w", res.AttachmentID, err)
		}
	}

	return tx.Commit()
}

// Run is one export run as stored in the manifest.
type Run struct {
	ID         int64
	BoardID    string
	BoardName  string
	StartedAt  time.Time
	FinishedAt time.Time
	Cards      int
	Downloaded int
	Skipped    int
	Failed     int
	Issues     int
}

// RecordRun appends r to the run log and returns its ID.
func (s *Store) RecordRun(ctx context.Context, r Run) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (board_id, board_name, started_at, finished_at, cards, downloaded, skipped, failed, issues)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BoardID, r.BoardName,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Cards, r.Downloaded, r.Skipped, r.Failed, r.Issues,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return res.LastInsertId()
}

// Runs returns the recorded runs of a board, most recent first.
func (s *Store) Runs(ctx context.Context, boardID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_id, board_name, started_at, finished_at, cards, downloaded, skipped, failed, issues
		 FROM runs WHERE board_id = ? ORDER BY id DESC`, boardID)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.BoardID, &r.BoardName, &started, &finished,
			&r.Cards, &r.Downloaded, &r.Skipped, &r.Failed, &r.Issues); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trello2md/internal/download"
	"github.com/pdiddy/trello2md/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	_, dir := testStore(t)
	assert.FileExists(t, filepath.Join(dir, Dir, dbFile))

	// Reopening an existing manifest keeps the schema.
	s2, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestPresent_MarkDownloaded(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	ok := download.Job{CardID: "C1", AttachmentID: "T1", URL: "https://x/a", Dest: "/out/a.png"}
	bad := download.Job{CardID: "C1", AttachmentID: "T2", URL: "https://x/b", Dest: "/out/b.png"}
	skipped := download.Job{CardID: "C1", AttachmentID: "T3", URL: "https://x/c", Dest: "/out/c.png"}

	assert.False(t, s.Present(ctx, ok))

	require.NoError(t, s.MarkDownloaded(ctx, download.BatchResult{Results: []download.Result{
		{Job: ok, Bytes: 10},
		{Job: bad, Err: errors.New("HTTP 404")},
		{Job: skipped, Skipped: true},
	}}))

	assert.True(t, s.Present(ctx, ok))
	assert.False(t, s.Present(ctx, bad))
	assert.False(t, s.Present(ctx, skipped))

	moved := ok
	moved.Dest = "/out/renamed/a.png"
	assert.False(t, s.Present(ctx, moved), "a different destination needs a new download")

	// A later download to the new path replaces the record.
	require.NoError(t, s.MarkDownloaded(ctx, download.BatchResult{Results: []download.Result{{Job: moved}}}))
	assert.True(t, s.Present(ctx, moved))
	assert.False(t, s.Present(ctx, ok))
}

func TestRecordPlan(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	card := &types.Card{ID: "C1", Name: "Card", DescriptionPath: "/out/B/000 L/000 Card.md"}
	b := &types.Board{
		ID: "B1", Name: "B", FolderPath: "/out/B",
		Lists: []*types.List{{ID: "L1", Name: "L", FolderPath: "/out/B/000 L", Cards: []*types.Card{card}}},
	}
	require.NoError(t, s.RecordPlan(ctx, b))

	got, err := s.PlannedPath(ctx, "B1", types.KindCard, "C1")
	require.NoError(t, err)
	assert.Equal(t, card.DescriptionPath, got)

	// Replanning drops entities no longer on the board.
	b.Lists[0].Cards = nil
	require.NoError(t, s.RecordPlan(ctx, b))
	got, err = s.PlannedPath(ctx, "B1", types.KindCard, "C1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.PlannedPath(ctx, "B1", types.KindList, "L1")
	require.NoError(t, err)
	assert.Equal(t, "/out/B/000 L", got)
}

func TestRecordRun(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 2; i++ {
		id, err := s.RecordRun(ctx, Run{
			BoardID: "B1", BoardName: "Board",
			StartedAt: start.Add(time.Duration(i) * time.Hour), FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Minute),
			Cards: 3, Downloaded: i, Failed: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	runs, err := s.Runs(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(2), runs[0].ID)
	assert.Equal(t, 1, runs[0].Downloaded)
	assert.True(t, runs[1].StartedAt.Equal(start))

	none, err := s.Runs(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

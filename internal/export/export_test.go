// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trello2md/internal/manifest"
	"github.com/pdiddy/trello2md/internal/paths"
	"github.com/pdiddy/trello2md/internal/validate"
	"github.com/pdiddy/trello2md/pkg/types"
)

// attachmentServer serves "/files/<name>" and counts requests. Anything else
// is a 404.
func attachmentServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if !strings.HasPrefix(r.URL.Path, "/files/") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("data:" + strings.TrimPrefix(r.URL.Path, "/files/")))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func rawBoard(base string) *types.Board {
	return &types.Board{
		ID: "B1", Name: "Roadmap", ShortLink: "AbCd",
		Lists: []*types.List{
			{ID: "L1", Name: "Todo", Pos: 1},
			{ID: "L2", Name: "Done", Pos: 2, Closed: true},
		},
		Cards: []*types.Card{
			{ID: "C1", Name: "Write docs", IDList: "L1", ShortURL: "https://trello.com/c/1", Pos: 1,
				Desc: "Screenshot: " + base + "/files/shot.png",
				Attachments: []*types.Attachment{
					{ID: "T1", Name: "shot.png", URL: base + "/files/shot.png", IsUpload: true, FileName: "shot.png"},
					{ID: "T2", Name: "gone.png", URL: base + "/missing/gone.png", IsUpload: true},
					{ID: "T3", Name: "roadmap doc", URL: "https://example.com/roadmap"},
				}},
			{ID: "C2", Name: "Shipped", IDList: "L2", ShortURL: "https://trello.com/c/2",
				Attachments: []*types.Attachment{
					{ID: "T4", Name: "old.txt", URL: base + "/files/old.txt", IsUpload: true},
				}},
		},
		Actions: []*types.Action{
			{ID: "A1", Type: types.ActionCommentCard, Date: "2021-01-01T00:00:00.000Z",
				Data: types.ActionData{Text: "see " + base + "/files/shot.png", Card: types.ActionCard{ID: "C1"}}},
		},
	}
}

func testConfig(out string) types.ExportConfig {
	return types.ExportConfig{
		OutputDir:           out,
		DownloadAttachments: true,
		Download:            types.DownloadConfig{Concurrency: 2, HTTPConfig: types.HTTPConfig{MaxRetries: 0}},
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPlan(t *testing.T) {
	b, errs, err := Plan(rawBoard("http://x"), "/out")
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, filepath.Join("/out", "Roadmap (AbCd)"), b.FolderPath)
	assert.NotEmpty(t, b.Cards[0].DescriptionPath)
}

func TestPlan_InvalidBoard(t *testing.T) {
	raw := rawBoard("http://x")
	raw.Name = ""
	b, errs, err := Plan(raw, "/out")
	assert.Nil(t, b)
	require.Len(t, errs, 1)
	require.Error(t, err)

	var missing *validate.MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"Name"}, missing.Fields)
}

func TestDescribe(t *testing.T) {
	b, _, err := Plan(rawBoard("http://x"), "/out")
	require.NoError(t, err)

	p := Describe(b)
	require.Len(t, p.Lists, 2)
	assert.Equal(t, 0, p.Lists[1].Index)
	assert.True(t, p.Lists[1].Archived)
	card := p.Lists[0].Cards[0]
	assert.Equal(t, b.Cards[0].DescriptionPath, card.Description)
	assert.NotEmpty(t, card.Comments)
	assert.Empty(t, card.Checklists)
	require.Len(t, card.Attachments, 3)
	assert.True(t, strings.HasPrefix(card.Attachments[0].Relative, "000"+paths.SpaceToken+"Write"))

	data, err := yaml.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "short_link: AbCd")
}

func TestRun(t *testing.T) {
	var hits int32
	ts := attachmentServer(t, &hits)
	out := t.TempDir()

	store, err := manifest.NewStore(out)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var log bytes.Buffer
	res, err := Run(context.Background(), rawBoard(ts.URL), testConfig(out), Deps{HTTPClient: ts.Client(), Manifest: store}, &log)
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, "Roadmap", s.Board)
	assert.Equal(t, 2, s.Cards)
	assert.Equal(t, 2, s.Downloaded)
	assert.Equal(t, 1, s.DownloadFailed)
	require.Len(t, s.Issues, 1)
	assert.Equal(t, types.KindAttachment, s.Issues[0].Kind)
	assert.Equal(t, "T2", s.Issues[0].ID)

	c1 := res.Board.Cards[0]
	shot := c1.Attachments[0]
	assert.Equal(t, "data:shot.png", read(t, paths.AttachmentFile(c1, shot)))
	assert.NoFileExists(t, paths.AttachmentFile(c1, c1.Attachments[1]))

	desc := read(t, c1.DescriptionPath)
	assert.Contains(t, desc, "Screenshot: "+shot.RelativeAttachmentPathSpacesReplaced)
	assert.Contains(t, desc, ts.URL+"/missing/gone.png", "failed downloads keep their URL")
	assert.Contains(t, read(t, c1.CommentsPath), "see "+shot.RelativeAttachmentPathSpacesReplaced)

	runs, err := store.Runs(context.Background(), "B1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Downloaded)

	// A second run over the same output directory reuses what is on disk.
	atomic.StoreInt32(&hits, 0)
	res, err = Run(context.Background(), rawBoard(ts.URL), testConfig(out), Deps{HTTPClient: ts.Client(), Manifest: store}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.DownloadSkipped)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "only the failed attachment is requested again")
	assert.Contains(t, read(t, res.Board.Cards[0].DescriptionPath), shot.RelativeAttachmentPathSpacesReplaced)
	assert.Zero(t, res.Summary.Moved)
}

func TestRun_ReportsMovedCards(t *testing.T) {
	out := t.TempDir()
	cfg := testConfig(out)
	cfg.DownloadAttachments = false

	store, err := manifest.NewStore(out)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	first, err := Run(context.Background(), rawBoard("http://x"), cfg, Deps{Manifest: store}, io.Discard)
	require.NoError(t, err)
	oldPath := first.Board.Cards[0].DescriptionPath

	raw := rawBoard("http://x")
	raw.Cards[0].Name = "Write the docs"
	var log bytes.Buffer
	res, err := Run(context.Background(), raw, cfg, Deps{Manifest: store}, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.Moved)
	assert.Contains(t, log.String(), "moved:   card C1 "+oldPath)
	got, err := store.PlannedPath(context.Background(), "B1", types.KindCard, "C1")
	require.NoError(t, err)
	assert.Equal(t, res.Board.Cards[0].DescriptionPath, got)
}

func TestRun_SkipArchived(t *testing.T) {
	var hits int32
	ts := attachmentServer(t, &hits)
	out := t.TempDir()

	cfg := testConfig(out)
	cfg.SkipArchived = true
	res, err := Run(context.Background(), rawBoard(ts.URL), cfg, Deps{HTTPClient: ts.Client()}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.Cards)
	assert.Equal(t, 1, res.Summary.CardsSkipped)
	assert.Equal(t, 1, res.Summary.Downloaded, "archived card attachments are not fetched")
	assert.NoFileExists(t, res.Board.Cards[1].DescriptionPath)
}

func TestRun_NoAttachments(t *testing.T) {
	var hits int32
	ts := attachmentServer(t, &hits)

	cfg := testConfig(t.TempDir())
	cfg.DownloadAttachments = false
	res, err := Run(context.Background(), rawBoard(ts.URL), cfg, Deps{HTTPClient: ts.Client()}, io.Discard)
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Contains(t, read(t, res.Board.Cards[0].DescriptionPath), ts.URL+"/files/shot.png")
}

func TestRun_InvalidBoard(t *testing.T) {
	raw := rawBoard("http://x")
	raw.ShortLink = ""
	out := t.TempDir()

	res, err := Run(context.Background(), raw, testConfig(out), Deps{}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ShortLink")
	assert.Nil(t, res.Board)
	assert.True(t, res.Summary.HasFatal())

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written for an invalid board")
}

func TestRun_InvalidListSkipsSubtree(t *testing.T) {
	raw := rawBoard("http://x")
	raw.Lists[1].Name = ""
	cfg := testConfig(t.TempDir())
	cfg.DownloadAttachments = false

	res, err := Run(context.Background(), raw, cfg, Deps{}, io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructural))
	assert.Contains(t, err.Error(), "list L2")

	require.NotNil(t, res.Board)
	assert.Equal(t, 1, res.Summary.Cards, "the valid list is still written")
	assert.FileExists(t, res.Board.Cards[0].DescriptionPath)
	assert.Len(t, res.Summary.Issues, 2)
}

type memBucket struct {
	keys []string
}

func (m *memBucket) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (m *memBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.keys = append(m.keys, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func TestRun_MirrorsToS3(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.DownloadAttachments = false
	cfg.S3 = types.S3Config{Bucket: "backups", Prefix: "trello"}

	bucket := &memBucket{}
	_, err := Run(context.Background(), rawBoard("http://x"), cfg, Deps{S3: bucket}, io.Discard)
	require.NoError(t, err)

	assert.Contains(t, bucket.keys, "trello/Roadmap (AbCd)/000 Todo/000 Write docs.md")
	assert.Contains(t, bucket.keys, "trello/Roadmap (AbCd)/Archived Lists/000 Done/000 Shipped.md")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trello

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trello2md/pkg/types"
)

const sampleExport = `{
  "id": "b1", "name": "Roadmap", "shortLink": "AbCd1234", "closed": false,
  "lists": [
    {"id": "L1", "name": "Todo", "closed": false, "pos": 16384},
    {"id": "L2", "name": "Done", "closed": true, "pos": "32768.5"}
  ],
  "cards": [
    {"id": "C1", "name": "Write docs", "idList": "L1", "desc": "see ![](https://trello.com/x.png)",
     "pos": "top", "closed": false, "shortUrl": "https://trello.com/c/aaa11bb2",
     "idChecklists": ["K1"], "labels": [{"name": "ignored"}],
     "attachments": [{"id": "T1", "name": "x.png", "url": "https://trello.com/x.png", "isUpload": true,
                      "fileName": "x.png", "mimeType": "image/png", "bytes": 42}]}
  ],
  "checklists": [
    {"id": "K1", "name": "Steps", "idCard": "C1", "pos": 1,
     "checkItems": [{"id": "I1", "name": "draft", "idChecklist": "K1", "pos": null, "state": "complete"}]}
  ],
  "actions": [
    {"id": "A1", "type": "commentCard", "date": "2021-01-01T00:00:00.000Z",
     "data": {"text": "hi", "card": {"id": "C1", "name": "Write docs"}},
     "memberCreator": {"fullName": "Ada L", "username": "ada"}}
  ]
}`

func TestParseExport(t *testing.T) {
	b, err := ParseExport(strings.NewReader(sampleExport))
	require.NoError(t, err)

	assert.Equal(t, "Roadmap", b.Name)
	assert.Equal(t, "AbCd1234", b.ShortLink)
	require.Len(t, b.Lists, 2)
	assert.Equal(t, types.Position(16384), b.Lists[0].Pos)
	assert.Equal(t, types.Position(32768.5), b.Lists[1].Pos)
	assert.True(t, b.Lists[1].Closed)

	require.Len(t, b.Cards, 1)
	c := b.Cards[0]
	assert.True(t, math.IsInf(float64(c.Pos), -1))
	assert.Equal(t, "L1", c.IDList)
	assert.Equal(t, []string{"K1"}, c.IDChecklists)
	require.Len(t, c.Attachments, 1)
	assert.True(t, c.Attachments[0].IsUpload)
	assert.Equal(t, int64(42), c.Attachments[0].Bytes)

	require.Len(t, b.Checklists, 1)
	assert.True(t, b.Checklists[0].CheckItems[0].Complete())
	assert.Equal(t, types.Position(0), b.Checklists[0].CheckItems[0].Pos)

	require.Len(t, b.Actions, 1)
	assert.Equal(t, "C1", b.Actions[0].Data.Card.ID)
	assert.Equal(t, "Ada L", b.Actions[0].MemberCreator.FullName)
}

func TestParseExport_Invalid(t *testing.T) {
	_, err := ParseExport(strings.NewReader(`{"lists": [{"pos": "sideways"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid position")
}

func TestReadExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))

	b, err := ReadExport(path)
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	_, err = ReadExport(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseBoardSummaries(t *testing.T) {
	list, err := ParseBoardSummaries(strings.NewReader(`[
		{"id": "b1", "name": "One", "shortLink": "s1", "closed": false},
		{"id": "b2", "name": "Two", "shortLink": "s2", "closed": true}
	]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[1].Closed)

	// A full export is accepted as a single summary.
	single, err := ParseBoardSummaries(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "AbCd1234", single[0].ShortLink)
}

// fakeAPI serves the subset of the Trello API used by Client.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	api := r.PathPrefix("/1").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			if q.Get("key") != "k" || q.Get("token") != "t" {
				http.Error(w, "invalid key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	api.HandleFunc("/boards/{id}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] != "AbCd1234" {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}
		q := req.URL.Query()
		assert.Equal(t, "commentCard", q.Get("actions"))
		assert.Equal(t, "true", q.Get("card_attachments"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleExport))
	}).Methods(http.MethodGet)
	api.HandleFunc("/members/me/boards", func(w http.ResponseWriter, req *http.Request) {
		boards := []types.BoardSummary{{ID: "b1", Name: "Open", ShortLink: "s1"}}
		if req.URL.Query().Get("filter") != "open" {
			boards = append(boards, types.BoardSummary{ID: "b2", Name: "Closed", ShortLink: "s2", Closed: true})
		}
		json.NewEncoder(w).Encode(boards)
	}).Methods(http.MethodGet)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func testClient(ts *httptest.Server, key string) *Client {
	return NewClient(ts.Client(), types.TrelloConfig{
		BaseURL: ts.URL + "/1/",
		APIKey:  key,
		Token:   "t",
	}, nil)
}

func TestClient_FetchBoard(t *testing.T) {
	ts := fakeAPI(t)

	b, err := testClient(ts, "k").FetchBoard(context.Background(), "AbCd1234")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", b.Name)
	assert.Len(t, b.Cards, 1)

	_, err = testClient(ts, "k").FetchBoard(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "board not found")
}

func TestClient_Unauthorized(t *testing.T) {
	ts := fakeAPI(t)
	_, err := testClient(ts, "wrong").FetchBoard(context.Background(), "AbCd1234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestClient_RequiresCredentials(t *testing.T) {
	c := NewClient(http.DefaultClient, types.TrelloConfig{}, nil)
	_, err := c.ListBoards(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key and token")
}

func TestClient_ListBoards(t *testing.T) {
	ts := fakeAPI(t)

	open, err := testClient(ts, "k").ListBoards(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	all, err := testClient(ts, "k").ListBoards(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[1].Closed)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trello reads board exports, either from a JSON file saved through
// the Trello web UI (trello.com/b/<id>.json) or from the REST API.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/trello2md/internal/httputil"
	"github.com/pdiddy/trello2md/pkg/types"
)

// DefaultBaseURL is the Trello REST API root.
const DefaultBaseURL = "https://api.trello.com/1"

const (
	defaultActionsLimit = 1000
	maxErrorBody        = 512
)

// ParseExport decodes a full board export.
func ParseExport(r io.Reader) (*types.Board, error) {
	var b types.Board
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("parsing board export: %w", err)
	}
	return &b, nil
}

// ReadExport reads a board export from a file.
func ReadExport(path string) (*types.Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()
	b, err := ParseExport(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ParseBoardSummaries decodes the board-listing shape: either a JSON array
// of boards or a single board object. Nested collections are ignored.
func ParseBoardSummaries(r io.Reader) ([]types.BoardSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading board list: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var one types.BoardSummary
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("parsing board: %w", err)
		}
		return []types.BoardSummary{one}, nil
	}
	var many []types.BoardSummary
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("parsing board list: %w", err)
	}
	return many, nil
}

// Client talks to the Trello REST API.
type Client struct {
	http *http.Client
	cfg  types.TrelloConfig
	log  io.Writer
}

// NewClient returns a client for cfg. Retry notices go to w, which may be nil.
func NewClient(httpClient *http.Client, cfg types.TrelloConfig, w io.Writer) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ActionsLimit <= 0 || cfg.ActionsLimit > defaultActionsLimit {
		cfg.ActionsLimit = defaultActionsLimit
	}
	if w == nil {
		w = io.Discard
	}
	return &Client{http: httpClient, cfg: cfg, log: w}
}

// FetchBoard downloads the full export of the board with the given ID or
// short link, including lists, cards with attachments, checklists and
// comment actions.
func (c *Client) FetchBoard(ctx context.Context, board string) (*types.Board, error) {
	q := url.Values{}
	q.Set("fields", "all")
	q.Set("lists", "all")
	q.Set("cards", "all")
	q.Set("card_attachments", "true")
	q.Set("checklists", "all")
	q.Set("actions", types.ActionCommentCard)
	q.Set("actions_limit", strconv.Itoa(c.cfg.ActionsLimit))
	q.Set("action_memberCreator_fields", "fullName,username")

	var b types.Board
	if err := c.get(ctx, "/boards/"+url.PathEscape(board), q, &b); err != nil {
		return nil, fmt.Errorf("fetching board %s: %w", board, err)
	}
	return &b, nil
}

// ListBoards returns the boards of the authenticated member. Closed boards
// are included only when includeClosed is set.
func (c *Client) ListBoards(ctx context.Context, includeClosed bool) ([]types.BoardSummary, error) {
	q := url.Values{}
	q.Set("fields", "id,name,shortLink,url,closed")
	if !includeClosed {
		q.Set("filter", "open")
	}

	var boards []types.BoardSummary
	if err := c.get(ctx, "/members/me/boards", q, &boards); err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	return boards, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if !c.cfg.HasCredentials() {
		return fmt.Errorf("trello API key and token are required")
	}
	q.Set("key", c.cfg.APIKey)
	q.Set("token", c.cfg.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(c.cfg.BaseURL, "/")+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries, c.log)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

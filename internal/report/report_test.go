// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trello2md/internal/link"
	"github.com/pdiddy/trello2md/internal/validate"
	"github.com/pdiddy/trello2md/pkg/types"
)

func sampleErrors() []error {
	return []error{
		&validate.MissingRequiredFieldError{Kind: types.KindList, ID: "L9", Fields: []string{"Name"}},
		&link.UnresolvedReferenceError{Kind: types.KindCard, ID: "C7", Field: "IDList", Target: types.KindList, Ref: "LX"},
		&link.DuplicateIdentifierError{Kind: types.KindCard, ID: "C1", Index: 4},
		fmt.Errorf("linking: %w", &link.SubtreeAbortedError{Kind: types.KindCard, ID: "C8", ParentKind: types.KindList, ParentID: "L9"}),
		&validate.MissingRequiredFieldError{Kind: types.KindAttachment, ID: "T1", Fields: []string{"URL"}},
		errors.New("download T2: HTTP 404"),
	}
}

func TestSummarize(t *testing.T) {
	issues := Summarize(sampleErrors())
	require.Len(t, issues, 6)

	assert.Equal(t, Issue{Kind: types.KindList, ID: "L9", Reason: "missing required field(s) Name", Fatal: true}, issues[0])
	assert.Equal(t, `IDList "LX" does not match any list`, issues[1].Reason)
	assert.Equal(t, "C1", issues[2].ID)
	assert.Equal(t, Issue{Kind: types.KindCard, ID: "C8", Reason: "list L9 is invalid"}, issues[3])
	assert.False(t, issues[4].Fatal, "leaf failures are not fatal")
	assert.Equal(t, Issue{Reason: "download T2: HTTP 404"}, issues[5])

	assert.True(t, Summary{Issues: issues}.HasFatal())
	assert.False(t, Summary{Issues: issues[1:]}.HasFatal())
}

func TestPrint_Plain(t *testing.T) {
	s := Summary{Board: "Roadmap", Folder: "/out/Roadmap (abc)", Cards: 3, CardsSkipped: 1, Downloaded: 2, DownloadFailed: 1,
		Issues: Summarize(sampleErrors()[:2])}

	var buf bytes.Buffer
	Print(&buf, s, false)
	out := buf.String()

	assert.Contains(t, out, "Export summary: Roadmap")
	assert.Contains(t, out, "cards: 3 written, 1 skipped, 0 failed")
	assert.Contains(t, out, "attachments: 2 downloaded, 0 skipped, 1 failed")
	assert.Contains(t, out, "issues: 2")
	assert.Contains(t, out, "  list L9: missing required field(s) Name")
	assert.NotContains(t, out, "\x1b[", "plain output has no escape codes")
	assert.NotContains(t, out, "moved:")

	buf.Reset()
	s.Moved = 2
	Print(&buf, s, false)
	assert.Contains(t, buf.String(), "moved: 2 cards since the last run")
}

func TestPrint_Styled(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Summary{Board: "Roadmap"}, true)
	assert.Contains(t, buf.String(), "Export summary: Roadmap")
	assert.Contains(t, buf.String(), "╭", "styled output is boxed")
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.yaml")
	s := Summary{Board: "Roadmap", Cards: 2, Issues: Summarize(sampleErrors()[:1])}
	require.NoError(t, WriteYAML(path, []Summary{s}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []Summary
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, s, got[0])
	assert.Contains(t, string(data), "fatal: true")
}

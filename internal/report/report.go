// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report builds the end-of-run summary of an export: counts of what
// was written and downloaded, and every entity that was skipped with the
// reason why. The summary prints to a terminal and saves as YAML.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trello2md/internal/link"
	"github.com/pdiddy/trello2md/internal/validate"
	"github.com/pdiddy/trello2md/pkg/types"
)

// Issue is one skipped or degraded entity.
type Issue struct {
	Kind   types.Kind `json:"kind" yaml:"kind"`
	ID     string     `json:"id" yaml:"id"`
	Reason string     `json:"reason" yaml:"reason"`
	Fatal  bool       `json:"fatal,omitempty" yaml:"fatal,omitempty"`
}

// Summary is the outcome of one board export.
type Summary struct {
	Board           string  `json:"board" yaml:"board"`
	Folder          string  `json:"folder" yaml:"folder"`
	Cards           int     `json:"cards" yaml:"cards"`
	CardsSkipped    int     `json:"cards_skipped" yaml:"cards_skipped"`
	CardsFailed     int     `json:"cards_failed" yaml:"cards_failed"`
	Downloaded      int     `json:"downloaded" yaml:"downloaded"`
	DownloadSkipped int     `json:"download_skipped" yaml:"download_skipped"`
	DownloadFailed  int     `json:"download_failed" yaml:"download_failed"`
	Moved           int     `json:"moved,omitempty" yaml:"moved,omitempty"`
	Issues          []Issue `json:"issues" yaml:"issues"`
}

// HasFatal reports whether any issue aborted a structural entity.
func (s Summary) HasFatal() bool {
	for _, is := range s.Issues {
		if is.Fatal {
			return true
		}
	}
	return false
}

// Summarize turns the errors collected during an export into issues, in the
// order they were recorded.
func Summarize(errs []error) []Issue {
	issues := make([]Issue, 0, len(errs))
	for _, err := range errs {
		issues = append(issues, issueFor(err))
	}
	return issues
}

func issueFor(err error) Issue {
	var (
		missing    *validate.MissingRequiredFieldError
		unresolved *link.UnresolvedReferenceError
		duplicate  *link.DuplicateIdentifierError
		aborted    *link.SubtreeAbortedError
	)
	switch {
	case errors.As(err, &missing):
		return Issue{
			Kind:   missing.Kind,
			ID:     missing.ID,
			Reason: "missing required field(s) " + strings.Join(missing.Fields, ", "),
			Fatal:  missing.Structural(),
		}
	case errors.As(err, &unresolved):
		return Issue{
			Kind:   unresolved.Kind,
			ID:     unresolved.ID,
			Reason: fmt.Sprintf("%s %q does not match any %s", unresolved.Field, unresolved.Ref, unresolved.Target),
		}
	case errors.As(err, &duplicate):
		return Issue{
			Kind:   duplicate.Kind,
			ID:     duplicate.ID,
			Reason: fmt.Sprintf("duplicate identifier at index %d", duplicate.Index),
		}
	case errors.As(err, &aborted):
		return Issue{
			Kind:   aborted.Kind,
			ID:     aborted.ID,
			Reason: fmt.Sprintf("%s %s is invalid", aborted.ParentKind, aborted.ParentID),
		}
	default:
		return Issue{Reason: err.Error()}
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))
	fatalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Print writes s to w. When styled is set the summary is boxed and coloured
// for a terminal; otherwise it is plain text.
func Print(w io.Writer, s Summary, styled bool) {
	render := func(st lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return st.Render(text)
	}

	var lines []string
	lines = append(lines, render(titleStyle, "Export summary: "+s.Board))
	if s.Folder != "" {
		lines = append(lines, render(labelStyle, "folder:")+" "+s.Folder)
	}
	lines = append(lines,
		render(labelStyle, "cards:")+fmt.Sprintf(" %d written, %d skipped, %d failed", s.Cards, s.CardsSkipped, s.CardsFailed),
		render(labelStyle, "attachments:")+fmt.Sprintf(" %d downloaded, %d skipped, %d failed", s.Downloaded, s.DownloadSkipped, s.DownloadFailed),
	)
	if s.Moved > 0 {
		lines = append(lines, render(labelStyle, "moved:")+fmt.Sprintf(" %d cards since the last run", s.Moved))
	}
	lines = append(lines, render(labelStyle, "issues:")+fmt.Sprintf(" %d", len(s.Issues)))
	for _, is := range s.Issues {
		line := "  " + formatIssue(is)
		if is.Fatal {
			line = render(fatalStyle, line)
		} else {
			line = render(warnStyle, line)
		}
		lines = append(lines, line)
	}

	out := strings.Join(lines, "\n")
	if styled {
		out = boxStyle.Render(out)
	}
	fmt.Fprintln(w, out)
}

func formatIssue(is Issue) string {
	if is.Kind == "" {
		return is.Reason
	}
	id := is.ID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("%s %s: %s", is.Kind, id, is.Reason)
}

// WriteYAML saves the summaries of a run, one per board, to path.
func WriteYAML(path string, summaries []Summary) error {
	data, err := yaml.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes the Markdown files of a path-allocated board.
//
// Attachments are first linked by their remote URL. Once the download
// batch has finished, RewriteLinks swaps the URL of every downloaded
// attachment for its relative path in a single find-and-replace pass.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/trello2md/pkg/types"
)

// Options control what WriteBoard renders.
type Options struct {
	// SkipArchived leaves archived lists and cards out.
	SkipArchived bool
}

// Stats counts the outcome of a WriteBoard run.
type Stats struct {
	Cards   int
	Skipped int
	Failed  int
}

// Total returns the number of cards considered.
func (s Stats) Total() int {
	return s.Cards + s.Skipped + s.Failed
}

// WriteBoard renders every card of b, creating list folders as needed. It
// continues after individual card failures and reports them on w.
func WriteBoard(b *types.Board, opts Options, w io.Writer) (Stats, error) {
	var stats Stats
	if err := os.MkdirAll(b.FolderPath, 0o755); err != nil {
		return stats, fmt.Errorf("creating board folder: %w", err)
	}

	for _, l := range b.Lists {
		if opts.SkipArchived && l.Closed {
			stats.Skipped += len(l.Cards)
			continue
		}
		if err := os.MkdirAll(l.FolderPath, 0o755); err != nil {
			fmt.Fprintf(w, "failed:  list %s (%v)\n", l.Name, err)
			stats.Failed += len(l.Cards)
			continue
		}
		for _, c := range l.Cards {
			if opts.SkipArchived && c.Closed {
				stats.Skipped++
				continue
			}
			if err := WriteCard(c); err != nil {
				fmt.Fprintf(w, "failed:  card %s (%v)\n", c.ID, err)
				stats.Failed++
				continue
			}
			stats.Cards++
		}
	}
	return stats, nil
}

// WriteCard writes the description file of c, plus its comments and
// checklists files when c has any.
func WriteCard(c *types.Card) error {
	if err := os.MkdirAll(filepath.Dir(c.DescriptionPath), 0o755); err != nil {
		return fmt.Errorf("creating card folder: %w", err)
	}
	if err := writeFile(c.DescriptionPath, Description(c)); err != nil {
		return err
	}
	if len(c.Comments) > 0 {
		if err := writeFile(c.CommentsPath, Comments(c)); err != nil {
			return err
		}
	}
	if len(c.Checklists) > 0 {
		if err := writeFile(c.ChecklistsPath, Checklists(c)); err != nil {
			return err
		}
	}
	return nil
}

// Description renders the main card file.
func Description(c *types.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Name)
	if desc := strings.TrimSpace(c.Desc); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}
	if len(c.Attachments) > 0 {
		b.WriteString("## Attachments\n\n")
		for _, a := range c.Attachments {
			fmt.Fprintf(&b, "- [%s](%s)\n", escapeLinkText(a.Name), a.URL)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "Trello: <%s>\n", c.ShortURL)
	if c.Closed {
		b.WriteString("\nArchived.\n")
	}
	return b.String()
}

// Comments renders the comment log of c, oldest first.
func Comments(c *types.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Comments on %s\n", c.Name)
	for _, a := range c.Comments {
		author := a.MemberCreator.FullName
		if author == "" {
			author = a.MemberCreator.Username
		}
		if author == "" {
			author = "unknown"
		}
		fmt.Fprintf(&b, "\n## %s, %s\n\n%s\n", a.Date, author, strings.TrimSpace(a.Data.Text))
	}
	return b.String()
}

// Checklists renders the checklists of c as task lists.
func Checklists(c *types.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Checklists for %s\n", c.Name)
	for _, cl := range c.Checklists {
		fmt.Fprintf(&b, "\n## %s\n\n", cl.Name)
		for _, item := range cl.CheckItems {
			mark := " "
			if item.Complete() {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", mark, item.Name)
		}
	}
	return b.String()
}

// RewriteLinks replaces the remote URL of each attachment of c whose ID is
// in downloaded with its relative path, in the description and comments
// files. Files that were not written are ignored.
func RewriteLinks(c *types.Card, downloaded map[string]bool) error {
	var pairs []string
	for _, a := range c.Attachments {
		if downloaded[a.ID] && a.URL != "" {
			pairs = append(pairs, a.URL, a.RelativeAttachmentPathSpacesReplaced)
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	r := strings.NewReplacer(pairs...)

	for _, path := range []string{c.DescriptionPath, c.CommentsPath} {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := writeFile(path, r.Replace(string(data))); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

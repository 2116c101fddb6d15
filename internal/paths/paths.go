// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package paths allocates the file and folder paths of an ordered board.
// Allocation is pure string computation; nothing is created on disk.
//
// Paths are fixed before rendering or downloading starts: attachments are
// fetched in a later concurrent batch and Markdown links are rewritten to
// the allocated relative paths once that batch completes.
package paths

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/trello2md/pkg/types"
)

// SpaceToken replaces spaces in relative attachment paths embedded in
// Markdown.
const SpaceToken = "%20"

const (
	archivedListsDir = "Archived Lists"
	archivedCardsDir = "Archived Cards"
	commentsSuffix   = " - Comments.md"
	checklistsSuffix = " - Checklists.md"
	attachmentsDir   = " - Attachments"
	maxExtRunes      = 10
)

// AllocatePaths fills the derived path fields of b, its lists, cards and
// attachments. b must already be linked and ordered.
func AllocatePaths(b *types.Board, baseDir string) {
	b.FolderPath = filepath.Join(baseDir, BoardFolderName(b))

	openLists, archivedLists := countArchived(b.Lists)
	for _, l := range b.Lists {
		if l.Closed {
			l.FolderPath = filepath.Join(b.FolderPath, archivedListsDir,
				numbered(l.ArchivedListIndex, archivedLists, Sanitize(l.Name)))
		} else {
			l.FolderPath = filepath.Join(b.FolderPath,
				numbered(l.NonArchivedListIndex, openLists, Sanitize(l.Name)))
		}
		l.ArchiveFolderPath = filepath.Join(l.FolderPath, archivedCardsDir)

		openCards, archivedCards := countArchived(l.Cards)
		for _, c := range l.Cards {
			dir, s := l.FolderPath, numbered(c.NonArchivedCardIndex, openCards, Sanitize(c.Name))
			if c.Closed {
				dir, s = l.ArchiveFolderPath, numbered(c.ArchivedCardIndex, archivedCards, Sanitize(c.Name))
			}
			c.DescriptionPath = filepath.Join(dir, s+".md")
			c.CommentsPath = filepath.Join(dir, s+commentsSuffix)
			c.ChecklistsPath = filepath.Join(dir, s+checklistsSuffix)

			for i, a := range c.Attachments {
				rel := path.Join(s+attachmentsDir, numbered(i, len(c.Attachments), attachmentFileName(a)))
				a.RelativeAttachmentPathSpacesReplaced = EscapeSpaces(rel)
			}
		}
	}
}

// BoardFolderName returns the folder name of a board: its sanitized name
// followed by its short link, so boards sharing a name do not collide.
func BoardFolderName(b *types.Board) string {
	return fmt.Sprintf("%s (%s)", Sanitize(b.Name), Sanitize(b.ShortLink))
}

// CardDir returns the folder holding the files of c.
func CardDir(c *types.Card) string {
	return filepath.Dir(c.DescriptionPath)
}

// AttachmentFile returns the on-disk path of a, with literal spaces.
func AttachmentFile(c *types.Card, a *types.Attachment) string {
	return filepath.Join(CardDir(c), filepath.FromSlash(UnescapeSpaces(a.RelativeAttachmentPathSpacesReplaced)))
}

// Parentheses are legal in file names but end or nest a Markdown link
// destination, so they are percent-encoded along with spaces.
var (
	escaper   = strings.NewReplacer(" ", SpaceToken, "(", "%28", ")", "%29")
	unescaper = strings.NewReplacer(SpaceToken, " ", "%28", "(", "%29", ")")
)

// EscapeSpaces replaces spaces with SpaceToken and percent-encodes
// parentheses, so the result is a valid Markdown link destination.
func EscapeSpaces(p string) string {
	return escaper.Replace(p)
}

// UnescapeSpaces reverses EscapeSpaces. It is exact for paths built from
// sanitized names, which never contain '%'.
func UnescapeSpaces(p string) string {
	return unescaper.Replace(p)
}

// numbered builds "<index> <element>", zero-padding the index to the width
// needed by the sibling count (at least 3 digits). element must already be
// sanitized.
func numbered(index, count int, element string) string {
	width := len(strconv.Itoa(count - 1))
	if width < 3 {
		width = 3
	}
	return fmt.Sprintf("%0*d %s", width, index, element)
}

// attachmentFileName picks the download file name: the upload's file name,
// then the last URL path segment, then the display name. The extension is
// sanitized separately so truncation keeps it.
func attachmentFileName(a *types.Attachment) string {
	name := a.FileName
	if name == "" {
		if u, err := url.Parse(a.URL); err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				name = base
			}
		}
	}
	if name == "" {
		name = a.Name
	}

	ext := path.Ext(name)
	if ext == name || len(ext) < 2 || len([]rune(ext)) > maxExtRunes || strings.ContainsAny(ext, " %") {
		return Sanitize(name)
	}
	return Sanitize(strings.TrimSuffix(name, ext)) + Sanitize(ext)
}

func countArchived[T interface{ Archived() bool }](items []T) (open, archived int) {
	for _, item := range items {
		if item.Archived() {
			archived++
		} else {
			open++
		}
	}
	return open, archived
}

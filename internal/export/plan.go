// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"

	"github.com/pdiddy/trello2md/internal/link"
	"github.com/pdiddy/trello2md/internal/order"
	"github.com/pdiddy/trello2md/internal/paths"
	"github.com/pdiddy/trello2md/pkg/types"
)

// Plan links raw, orders its siblings and allocates every path below
// baseDir. The returned errors are the entities skipped along the way. A
// board that fails validation yields a nil board and a non-nil error.
func Plan(raw *types.Board, baseDir string) (*types.Board, []error, error) {
	b, errs := link.Link(raw)
	if b == nil {
		if len(errs) > 0 {
			return nil, errs, fmt.Errorf("linking board: %w", errs[0])
		}
		return nil, errs, fmt.Errorf("linking board: no board")
	}
	order.AssignOrder(b)
	paths.AllocatePaths(b, baseDir)
	return b, errs, nil
}

// BoardPlan is the serialisable path plan of a board.
type BoardPlan struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	ShortLink string     `json:"short_link" yaml:"short_link"`
	Folder    string     `json:"folder" yaml:"folder"`
	Lists     []ListPlan `json:"lists" yaml:"lists"`
}

// ListPlan is the path plan of one list.
type ListPlan struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Archived      bool       `json:"archived,omitempty" yaml:"archived,omitempty"`
	Index         int        `json:"index" yaml:"index"`
	Folder        string     `json:"folder" yaml:"folder"`
	ArchiveFolder string     `json:"archive_folder" yaml:"archive_folder"`
	Cards         []CardPlan `json:"cards" yaml:"cards"`
}

// CardPlan is the path plan of one card. Comments and Checklists are empty
// when the card has none to write.
type CardPlan struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Archived    bool             `json:"archived,omitempty" yaml:"archived,omitempty"`
	Index       int              `json:"index" yaml:"index"`
	Description string           `json:"description" yaml:"description"`
	Comments    string           `json:"comments,omitempty" yaml:"comments,omitempty"`
	Checklists  string           `json:"checklists,omitempty" yaml:"checklists,omitempty"`
	Attachments []AttachmentPlan `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// AttachmentPlan is the relative link target of one attachment.
type AttachmentPlan struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Upload   bool   `json:"upload" yaml:"upload"`
	Relative string `json:"relative" yaml:"relative"`
}

// Describe returns the path plan of a planned board.
func Describe(b *types.Board) BoardPlan {
	p := BoardPlan{
		ID:        b.ID,
		Name:      b.Name,
		ShortLink: b.ShortLink,
		Folder:    b.FolderPath,
	}
	for _, l := range b.Lists {
		lp := ListPlan{
			ID:            l.ID,
			Name:          l.Name,
			Archived:      l.Closed,
			Index:         listIndex(l),
			Folder:        l.FolderPath,
			ArchiveFolder: l.ArchiveFolderPath,
		}
		for _, c := range l.Cards {
			cp := CardPlan{
				ID:          c.ID,
				Name:        c.Name,
				Archived:    c.Closed,
				Index:       c.Index(),
				Description: c.DescriptionPath,
			}
			if len(c.Comments) > 0 {
				cp.Comments = c.CommentsPath
			}
			if len(c.Checklists) > 0 {
				cp.Checklists = c.ChecklistsPath
			}
			for _, a := range c.Attachments {
				cp.Attachments = append(cp.Attachments, AttachmentPlan{
					ID:       a.ID,
					Name:     a.Name,
					Upload:   a.IsUpload,
					Relative: a.RelativeAttachmentPathSpacesReplaced,
				})
			}
			lp.Cards = append(lp.Cards, cp)
		}
		p.Lists = append(p.Lists, lp)
	}
	return p
}

func listIndex(l *types.List) int {
	if l.Closed {
		return l.ArchivedListIndex
	}
	return l.NonArchivedListIndex
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind names an entity collection of a board export.
type Kind string

const (
	KindBoard        Kind = "board"
	KindBoardSummary Kind = "board summary"
	KindList         Kind = "list"
	KindCard         Kind = "card"
	KindChecklist    Kind = "checklist"
	KindCheckItem    Kind = "check item"
	KindAction       Kind = "action"
	KindAttachment   Kind = "attachment"
)

// ActionCommentCard is the only action type turned into card comments.
const ActionCommentCard = "commentCard"

// Check item states as exported by Trello.
const (
	CheckItemComplete   = "complete"
	CheckItemIncomplete = "incomplete"
)

// Entity is implemented by every record of a board export.
type Entity interface {
	Kind() Kind
	// Identifier returns the value used to name the entity in reports.
	Identifier() string
}

// Archivable is the shared "named, archivable" capability of boards, lists
// and cards.
type Archivable interface {
	DisplayName() string
	Archived() bool
}

// Position is a sibling-ordering key. It is not unique and not contiguous.
// Besides JSON numbers it accepts numeric strings and the keywords "top" and
// "bottom" used by the Trello API.
type Position float64

// UnmarshalJSON implements json.Unmarshaler.
func (p *Position) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*p = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
		switch strings.ToLower(s) {
		case "top":
			*p = Position(math.Inf(-1))
			return nil
		case "bottom":
			*p = Position(math.Inf(1))
			return nil
		case "":
			*p = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid position %s: %w", string(data), err)
	}
	*p = Position(f)
	return nil
}

// MarshalJSON keeps infinite positions encodable.
func (p Position) MarshalJSON() ([]byte, error) {
	f := float64(p)
	switch {
	case math.IsInf(f, -1):
		return []byte(`"top"`), nil
	case math.IsInf(f, 1):
		return []byte(`"bottom"`), nil
	case math.IsNaN(f):
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Key returns the value used for sorting. NaN sorts after every number.
func (p Position) Key() float64 {
	f := float64(p)
	if math.IsNaN(f) {
		return math.Inf(1)
	}
	return f
}

// BoardSummary is the board shape returned by /members/me/boards. It carries
// no nested collections.
type BoardSummary struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	ShortLink string `json:"shortLink" yaml:"short_link"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Closed    bool   `json:"closed" yaml:"closed"`
}

func (b *BoardSummary) Kind() Kind          { return KindBoardSummary }
func (b *BoardSummary) Identifier() string  { return firstNonEmpty(b.ShortLink, b.ID, b.Name) }
func (b *BoardSummary) DisplayName() string { return b.Name }
func (b *BoardSummary) Archived() bool      { return b.Closed }

// Board is a full board export (trello.com/b/<id>.json). Before linking the
// collections are flat and cross-referenced by identifier only.
type Board struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	ShortLink  string       `json:"shortLink"`
	URL        string       `json:"url,omitempty"`
	Closed     bool         `json:"closed"`
	Lists      []*List      `json:"lists"`
	Cards      []*Card      `json:"cards"`
	Checklists []*Checklist `json:"checklists"`
	Actions    []*Action    `json:"actions"`

	// FolderPath is the directory allocated for the board.
	FolderPath string `json:"-"`
}

func (b *Board) Kind() Kind          { return KindBoard }
func (b *Board) Identifier() string  { return firstNonEmpty(b.ShortLink, b.ID, b.Name) }
func (b *Board) DisplayName() string { return b.Name }
func (b *Board) Archived() bool      { return b.Closed }

// Summary returns the board-listing shape of b.
func (b *Board) Summary() BoardSummary {
	return BoardSummary{ID: b.ID, Name: b.Name, ShortLink: b.ShortLink, URL: b.URL, Closed: b.Closed}
}

// List is a column of a board.
type List struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Closed bool     `json:"closed"`
	Pos    Position `json:"pos"`

	// Cards holds the linked cards of the list, ordered after AssignOrder.
	Cards []*Card `json:"-"`

	// NonArchivedListIndex and ArchivedListIndex number open and archived
	// lists separately. The index that does not apply is -1.
	NonArchivedListIndex int `json:"-"`
	ArchivedListIndex    int `json:"-"`

	// FolderPath is the directory for the list's open cards.
	FolderPath string `json:"-"`

	// ArchiveFolderPath is the directory for the list's archived cards.
	ArchiveFolderPath string `json:"-"`
}

func (l *List) Kind() Kind          { return KindList }
func (l *List) Identifier() string  { return firstNonEmpty(l.ID, l.Name) }
func (l *List) DisplayName() string { return l.Name }
func (l *List) Archived() bool      { return l.Closed }
func (l *List) Position() float64   { return l.Pos.Key() }

// Card is a single card of a list.
type Card struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	IDList       string        `json:"idList"`
	IDBoard      string        `json:"idBoard,omitempty"`
	Desc         string        `json:"desc"`
	Pos          Position      `json:"pos"`
	Closed       bool          `json:"closed"`
	ShortURL     string        `json:"shortUrl"`
	IDChecklists []string      `json:"idChecklists"`
	Attachments  []*Attachment `json:"attachments"`

	// Checklists are the linked checklists of the card.
	Checklists []*Checklist `json:"-"`

	// Comments are the card's commentCard actions in ascending date order.
	Comments []*Action `json:"-"`

	// NonArchivedCardIndex and ArchivedCardIndex number the open and
	// archived cards of a list separately. The index that does not apply
	// is -1.
	NonArchivedCardIndex int `json:"-"`
	ArchivedCardIndex    int `json:"-"`

	DescriptionPath string `json:"-"`
	CommentsPath    string `json:"-"`
	ChecklistsPath  string `json:"-"`
}

func (c *Card) Kind() Kind          { return KindCard }
func (c *Card) Identifier() string  { return firstNonEmpty(c.ID, c.ShortURL, c.Name) }
func (c *Card) DisplayName() string { return c.Name }
func (c *Card) Archived() bool      { return c.Closed }
func (c *Card) Position() float64   { return c.Pos.Key() }

// Index returns whichever of the two card indices applies to c.
func (c *Card) Index() int {
	if c.Closed {
		return c.ArchivedCardIndex
	}
	return c.NonArchivedCardIndex
}

// Checklist is a named list of check items on a card.
type Checklist struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	IDCard     string       `json:"idCard"`
	Pos        Position     `json:"pos"`
	CheckItems []*CheckItem `json:"checkItems"`
}

func (c *Checklist) Kind() Kind         { return KindChecklist }
func (c *Checklist) Identifier() string { return firstNonEmpty(c.ID, c.Name) }
func (c *Checklist) Archived() bool     { return false }
func (c *Checklist) Position() float64  { return c.Pos.Key() }

// CheckItem is one entry of a checklist.
type CheckItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	IDChecklist string   `json:"idChecklist"`
	Pos         Position `json:"pos"`
	State       string   `json:"state"`
}

func (i *CheckItem) Kind() Kind         { return KindCheckItem }
func (i *CheckItem) Identifier() string { return firstNonEmpty(i.ID, i.Name) }
func (i *CheckItem) Archived() bool     { return false }
func (i *CheckItem) Position() float64  { return i.Pos.Key() }

// Complete reports whether the item is checked.
func (i *CheckItem) Complete() bool { return i.State == CheckItemComplete }

// Action is an event record. Only commentCard actions are processed.
type Action struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Date          string     `json:"date"`
	Data          ActionData `json:"data"`
	MemberCreator Member     `json:"memberCreator"`
}

func (a *Action) Kind() Kind         { return KindAction }
func (a *Action) Identifier() string { return a.ID }

// ActionData is the payload of an action.
type ActionData struct {
	Text string     `json:"text"`
	Card ActionCard `json:"card"`
}

// ActionCard is the subset of card fields carried in an action payload.
type ActionCard struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	ShortLink string `json:"shortLink,omitempty"`
}

// Member identifies the author of an action.
type Member struct {
	FullName string `json:"fullName,omitempty"`
	Username string `json:"username,omitempty"`
}

// Attachment is a file or link attached to a card.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	IsUpload bool   `json:"isUpload"`
	FileName string `json:"fileName,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    int64  `json:"bytes,omitempty"`

	// RelativeAttachmentPathSpacesReplaced is the download target relative
	// to the card's folder, slash separated, with spaces escaped as %20.
	RelativeAttachmentPathSpacesReplaced string `json:"-"`
}

func (a *Attachment) Kind() Kind         { return KindAttachment }
func (a *Attachment) Identifier() string { return firstNonEmpty(a.ID, a.Name, a.URL) }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

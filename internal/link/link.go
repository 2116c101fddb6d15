// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package link rebuilds the board tree from the flat, identifier-linked
// collections of a board export.
//
// Each collection is indexed once (identifier to entity), then every
// reference is resolved against the index. Leaf failures drop the entity
// and record an error; structural failures (list, card) drop the whole
// subtree.
package link

import (
	"sort"

	"github.com/pdiddy/trello2md/internal/validate"
	"github.com/pdiddy/trello2md/pkg/types"
)

// Link validates raw and resolves its cross references. The returned board
// shares entities with raw: Lists, Cards, Checklists and Actions hold only
// the linked entities, List.Cards, Card.Checklists and Card.Comments are
// populated. Errors are returned in discovery order.
//
// When the board itself fails validation Link returns a nil board.
func Link(raw *types.Board) (*types.Board, []error) {
	if err := validate.Check(raw); err != nil {
		return nil, []error{err}
	}

	l := &linker{
		out: &types.Board{
			ID:        raw.ID,
			Name:      raw.Name,
			ShortLink: raw.ShortLink,
			URL:       raw.URL,
			Closed:    raw.Closed,
		},
		lists:         make(map[string]*types.List, len(raw.Lists)),
		cards:         make(map[string]*types.Card, len(raw.Cards)),
		checklists:    make(map[string]*types.Checklist, len(raw.Checklists)),
		checklistCard: make(map[string]string),
		byCard:        make(map[string][]string),
		dropped:       make(map[string]bool),
		abortedLists:  make(map[string]bool),
		abortedCards:  make(map[string]bool),
	}

	l.indexLists(raw.Lists)
	l.indexChecklists(raw.Checklists)
	l.linkCards(raw.Cards)
	l.reportOrphanChecklists(raw.Checklists)
	l.linkComments(raw.Actions)

	return l.out, l.errs
}

type linker struct {
	out  *types.Board
	errs []error

	lists      map[string]*types.List
	cards      map[string]*types.Card
	checklists map[string]*types.Checklist

	// checklistCard records the card each checklist was attached to.
	checklistCard map[string]string

	// byCard groups indexed checklist IDs by IDCard in collection order. It
	// backs cards whose export omits idChecklists.
	byCard map[string][]string

	// dropped holds checklist IDs that failed validation, so references to
	// them are not reported a second time.
	dropped map[string]bool

	abortedLists map[string]bool
	abortedCards map[string]bool
}

func (l *linker) report(err error) {
	l.errs = append(l.errs, err)
}

func (l *linker) indexLists(lists []*types.List) {
	for i, list := range lists {
		if list == nil {
			continue
		}
		if err := validate.Check(list); err != nil {
			l.report(err)
			if list.ID != "" {
				l.abortedLists[list.ID] = true
			}
			continue
		}
		if _, dup := l.lists[list.ID]; dup {
			l.report(&DuplicateIdentifierError{Kind: types.KindList, ID: list.ID, Index: i})
			continue
		}
		list.Cards = nil
		l.lists[list.ID] = list
		l.out.Lists = append(l.out.Lists, list)
	}
}

func (l *linker) indexChecklists(checklists []*types.Checklist) {
	for i, cl := range checklists {
		if cl == nil {
			continue
		}
		if err := validate.Check(cl); err != nil {
			l.report(err)
			if cl.ID != "" {
				l.dropped[cl.ID] = true
			}
			continue
		}
		if _, dup := l.checklists[cl.ID]; dup {
			l.report(&DuplicateIdentifierError{Kind: types.KindChecklist, ID: cl.ID, Index: i})
			continue
		}
		l.checklists[cl.ID] = cl
		l.byCard[cl.IDCard] = append(l.byCard[cl.IDCard], cl.ID)
	}
}

func (l *linker) filterCheckItems(items []*types.CheckItem) []*types.CheckItem {
	seen := make(map[string]bool, len(items))
	kept := items[:0:0]
	for i, item := range items {
		if item == nil {
			continue
		}
		if err := validate.Check(item); err != nil {
			l.report(err)
			continue
		}
		if seen[item.ID] {
			l.report(&DuplicateIdentifierError{Kind: types.KindCheckItem, ID: item.ID, Index: i})
			continue
		}
		seen[item.ID] = true
		kept = append(kept, item)
	}
	return kept
}

func (l *linker) linkCards(cards []*types.Card) {
	for i, card := range cards {
		if card == nil {
			continue
		}
		if err := validate.Check(card); err != nil {
			l.report(err)
			if card.ID != "" {
				l.abortedCards[card.ID] = true
			}
			continue
		}
		if _, dup := l.cards[card.ID]; dup {
			l.report(&DuplicateIdentifierError{Kind: types.KindCard, ID: card.ID, Index: i})
			continue
		}

		list, ok := l.lists[card.IDList]
		if !ok {
			if l.abortedLists[card.IDList] {
				l.report(&SubtreeAbortedError{Kind: types.KindCard, ID: card.ID, ParentKind: types.KindList, ParentID: card.IDList})
			} else {
				l.report(&UnresolvedReferenceError{
					Kind: types.KindCard, ID: card.ID, Field: "IDList", Target: types.KindList, Ref: card.IDList,
				})
			}
			l.abortedCards[card.ID] = true
			continue
		}

		if card.IDBoard == "" {
			card.IDBoard = l.out.ID
		}
		card.Attachments = l.filterAttachments(card.Attachments)
		card.Checklists = l.resolveChecklists(card, l.byCard[card.ID])
		card.Comments = nil

		l.cards[card.ID] = card
		list.Cards = append(list.Cards, card)
		l.out.Cards = append(l.out.Cards, card)
	}
}

func (l *linker) resolveChecklists(card *types.Card, fallback []string) []*types.Checklist {
	ids := card.IDChecklists
	if len(ids) == 0 {
		ids = fallback
	}
	var resolved []*types.Checklist
	for _, id := range ids {
		cl, ok := l.checklists[id]
		if !ok {
			if l.dropped[id] {
				continue
			}
			l.report(&UnresolvedReferenceError{
				Kind: types.KindCard, ID: card.ID, Field: "IDChecklists", Target: types.KindChecklist, Ref: id,
			})
			continue
		}
		if _, taken := l.checklistCard[id]; taken {
			continue
		}
		l.checklistCard[id] = card.ID
		// Items are checked only once the owning card is known to survive.
		cl.CheckItems = l.filterCheckItems(cl.CheckItems)
		resolved = append(resolved, cl)
		l.out.Checklists = append(l.out.Checklists, cl)
	}
	return resolved
}

func (l *linker) filterAttachments(attachments []*types.Attachment) []*types.Attachment {
	seen := make(map[string]bool, len(attachments))
	kept := attachments[:0:0]
	for i, a := range attachments {
		if a == nil {
			continue
		}
		if err := validate.Check(a); err != nil {
			l.report(err)
			continue
		}
		if seen[a.ID] {
			l.report(&DuplicateIdentifierError{Kind: types.KindAttachment, ID: a.ID, Index: i})
			continue
		}
		seen[a.ID] = true
		kept = append(kept, a)
	}
	return kept
}

func (l *linker) reportOrphanChecklists(checklists []*types.Checklist) {
	for _, cl := range checklists {
		if cl == nil || l.checklists[cl.ID] != cl {
			continue
		}
		if _, attached := l.checklistCard[cl.ID]; attached || l.abortedCards[cl.IDCard] {
			continue
		}
		l.report(&UnresolvedReferenceError{
			Kind: types.KindChecklist, ID: cl.ID, Field: "IDCard", Target: types.KindCard, Ref: cl.IDCard,
		})
	}
}

func (l *linker) linkComments(actions []*types.Action) {
	seen := make(map[string]bool)
	var touched []*types.Card

	for i, a := range actions {
		if a == nil || a.Type != types.ActionCommentCard {
			continue
		}
		if err := validate.Check(a); err != nil {
			l.report(err)
			continue
		}
		if seen[a.ID] {
			l.report(&DuplicateIdentifierError{Kind: types.KindAction, ID: a.ID, Index: i})
			continue
		}
		seen[a.ID] = true

		target := a.Data.Card.ID
		card, ok := l.cards[target]
		if !ok {
			if !l.abortedCards[target] {
				l.report(&UnresolvedReferenceError{
					Kind: types.KindAction, ID: a.ID, Field: "Data.Card.ID", Target: types.KindCard, Ref: target,
				})
			}
			continue
		}
		if len(card.Comments) == 0 {
			touched = append(touched, card)
		}
		card.Comments = append(card.Comments, a)
		l.out.Actions = append(l.out.Actions, a)
	}

	// ISO-8601 timestamps of equal width sort correctly as strings.
	for _, card := range touched {
		sort.SliceStable(card.Comments, func(i, j int) bool {
			return card.Comments[i].Date < card.Comments[j].Date
		})
	}
}

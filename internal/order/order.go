// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package order assigns deterministic sibling order to a linked board.
//
// Siblings are sorted by ascending position; equal positions keep their
// collection order, never ID or name order. Open and archived siblings are
// then numbered by two independent zero-based counters so each numbering is
// gap-free on its own.
package order

import (
	"sort"

	"github.com/pdiddy/trello2md/pkg/types"
)

// Positioned is any sibling with a position key and an archived flag.
type Positioned interface {
	Position() float64
	Archived() bool
}

// SortByPos sorts items by ascending position. The sort is stable.
func SortByPos[T Positioned](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position() < items[j].Position()
	})
}

// Number walks items in order and calls set with the item's open and
// archived index. The index that does not apply is -1.
func Number[T Positioned](items []T, set func(item T, open, archived int)) (open, archived int) {
	for _, item := range items {
		if item.Archived() {
			set(item, -1, archived)
			archived++
			continue
		}
		set(item, open, -1)
		open++
	}
	return open, archived
}

// AssignOrder sorts and numbers lists, cards, checklists and check items of
// b in place. b must already be linked.
func AssignOrder(b *types.Board) {
	SortByPos(b.Lists)
	Number(b.Lists, func(l *types.List, open, archived int) {
		l.NonArchivedListIndex = open
		l.ArchivedListIndex = archived
	})

	for _, l := range b.Lists {
		SortByPos(l.Cards)
		Number(l.Cards, func(c *types.Card, open, archived int) {
			c.NonArchivedCardIndex = open
			c.ArchivedCardIndex = archived
		})

		for _, c := range l.Cards {
			SortByPos(c.Checklists)
			for _, cl := range c.Checklists {
				SortByPos(cl.CheckItems)
			}
		}
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package link

import (
	"errors"
	"fmt"

	"github.com/pdiddy/trello2md/internal/validate"
	"github.com/pdiddy/trello2md/pkg/types"
)

// UnresolvedReferenceError reports a foreign-key-style identifier that does
// not resolve against its target index.
type UnresolvedReferenceError struct {
	Kind   types.Kind // kind of the referencing entity
	ID     string     // identifier of the referencing entity
	Field  string     // referencing field, e.g. "IDList"
	Target types.Kind // kind the field points at
	Ref    string     // the unresolved identifier
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s %s: %s %q does not match any %s", e.Kind, e.ID, e.Field, e.Ref, e.Target)
}

// DuplicateIdentifierError reports a second entity of the same kind sharing
// an identifier. The first occurrence is kept.
type DuplicateIdentifierError struct {
	Kind  types.Kind
	ID    string
	Index int // collection index of the dropped duplicate
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("%s %s: duplicate identifier at index %d, keeping the first occurrence", e.Kind, e.ID, e.Index)
}

// SubtreeAbortedError reports an entity skipped because a structural
// ancestor failed validation.
type SubtreeAbortedError struct {
	Kind       types.Kind
	ID         string
	ParentKind types.Kind
	ParentID   string
}

func (e *SubtreeAbortedError) Error() string {
	return fmt.Sprintf("%s %s: skipped because %s %s is invalid", e.Kind, e.ID, e.ParentKind, e.ParentID)
}

// IsFatal reports whether err is a structural validation failure, one that
// aborted a board, list or card subtree.
func IsFatal(err error) bool {
	var mrf *validate.MissingRequiredFieldError
	return errors.As(err, &mrf) && mrf.Structural()
}

// HasFatal reports whether any of errs is fatal.
func HasFatal(errs []error) bool {
	for _, err := range errs {
		if IsFatal(err) {
			return true
		}
	}
	return false
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate gates board export entities on their required fields.
// The rules are a table keyed by entity kind; adding a kind means adding a
// row, not a new predicate.
package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pdiddy/trello2md/pkg/types"
)

// requiredFields lists, per kind, the struct fields that must be non-empty.
var requiredFields = map[types.Kind][]string{
	types.KindBoard:        {"Name", "ShortLink"},
	types.KindBoardSummary: {"ID", "Name", "ShortLink"},
	types.KindList:         {"Name", "ID"},
	types.KindCard:         {"Name", "ID", "IDList", "ShortURL"},
	types.KindChecklist:    {"Name", "ID", "IDCard"},
	types.KindCheckItem:    {"Name", "ID", "State"},
	types.KindAction:       {"ID", "Type", "Date"},
	types.KindAttachment:   {"Name", "URL", "ID"},
}

// structural kinds anchor a subtree; a failure aborts everything below them.
var structural = map[types.Kind]bool{
	types.KindBoard:        true,
	types.KindBoardSummary: true,
	types.KindList:         true,
	types.KindCard:         true,
}

// MissingRequiredFieldError reports an entity whose required fields are
// empty after parsing.
type MissingRequiredFieldError struct {
	Kind   types.Kind
	ID     string
	Fields []string
}

func (e *MissingRequiredFieldError) Error() string {
	id := e.ID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("%s %s: missing required field(s) %s", e.Kind, id, strings.Join(e.Fields, ", "))
}

// Structural reports whether the entity anchors a subtree.
func (e *MissingRequiredFieldError) Structural() bool {
	return IsStructural(e.Kind)
}

// IsStructural reports whether entities of kind k anchor a subtree.
func IsStructural(k types.Kind) bool {
	return structural[k]
}

// RequiredFields returns the required field names for k.
func RequiredFields(k types.Kind) []string {
	return append([]string(nil), requiredFields[k]...)
}

// IsValid reports whether every required field of e is filled. A nil
// entity is never valid.
func IsValid(e types.Entity) bool {
	if isNil(e) {
		return false
	}
	return len(Missing(e)) == 0
}

// Missing returns the names of the required fields of e that are empty, in
// rule order.
func Missing(e types.Entity) []string {
	if isNil(e) {
		return nil
	}
	v := reflect.Indirect(reflect.ValueOf(e))
	var missing []string
	for _, name := range requiredFields[e.Kind()] {
		f := v.FieldByName(name)
		if !f.IsValid() || isEmpty(f) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Check returns a *MissingRequiredFieldError when e fails its rules.
func Check(e types.Entity) error {
	if isNil(e) {
		return &MissingRequiredFieldError{Fields: []string{"<entity>"}}
	}
	missing := Missing(e)
	if len(missing) == 0 {
		return nil
	}
	return &MissingRequiredFieldError{Kind: e.Kind(), ID: e.Identifier(), Fields: missing}
}

func isEmpty(f reflect.Value) bool {
	switch f.Kind() {
	case reflect.String:
		return f.String() == ""
	case reflect.Slice, reflect.Map:
		return f.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return f.IsNil()
	}
	return f.IsZero()
}

func isNil(e types.Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

package domain

import (
	"fmt"
	"strings"
)

// MenuActionType discriminates the actions a requirement menu can offer.
type MenuActionType int

const (
	// ActionUploadDocument asks the agent to upload a document of a kind.
	ActionUploadDocument MenuActionType = iota
	// ActionEnterMetadata asks the agent to type a metadata value.
	ActionEnterMetadata
)

// MenuAction is one selectable item on the requirement menu. The set of
// actions is closed: callbacks decode into exactly these variants or fail.
type MenuAction struct {
	Type     MenuActionType
	Document DocumentKind  // set when Type is ActionUploadDocument
	Field    MetadataField // set when Type is ActionEnterMetadata
}

// Label returns the text shown on the menu button.
func (a MenuAction) Label() string {
	switch a.Type {
	case ActionUploadDocument:
		return a.Document.Label()
	default:
		return a.Field.Label()
	}
}

// Encode serializes the action into callback data.
func (a MenuAction) Encode() string {
	switch a.Type {
	case ActionUploadDocument:
		return "doc:" + string(a.Document)
	default:
		return "meta:" + string(a.Field)
	}
}

// DecodeMenuAction parses callback data back into a menu action. Unknown
// prefixes and unknown kinds are rejected rather than dispatched.
func DecodeMenuAction(data string) (MenuAction, error) {
	prefix, rest, found := strings.Cut(data, ":")
	if !found {
		return MenuAction{}, fmt.Errorf("malformed menu action %q", data)
	}

	switch prefix {
	case "doc":
		kind := DocumentKind(rest)
		if !IsKnownDocumentKind(kind) {
			return MenuAction{}, fmt.Errorf("unknown document kind %q", rest)
		}
		return MenuAction{Type: ActionUploadDocument, Document: kind}, nil
	case "meta":
		field := MetadataField(rest)
		if _, ok := metadataLabels[field]; !ok {
			return MenuAction{}, fmt.Errorf("unknown metadata field %q", rest)
		}
		return MenuAction{Type: ActionEnterMetadata, Field: field}, nil
	default:
		return MenuAction{}, fmt.Errorf("unknown menu action prefix %q", prefix)
	}
}

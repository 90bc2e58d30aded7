package domain

import (
	"time"

	"leadintake_backend/internal/record"
)

// DocumentStatus tracks one required document within a conversation.
type DocumentStatus struct {
	Uploaded bool
	// Fields holds the extracted structured fields. A nil map on an
	// uploaded document means extraction failed; assembly tolerates it.
	Fields map[string]string
}

// Upload is one received file, owned by the conversation until consumed.
type Upload struct {
	Kind     DocumentKind
	FileName string
	MIMEType string
	Data     []byte
}

// Conversation is the per-conversation intake state. One instance exists
// per active conversation; it is created on the first inbound event and
// discarded on completion, cancellation, or idle eviction.
type Conversation struct {
	ID      string
	Variant FlowVariant
	Stage   Stage

	// PendingDocument is the kind selected from the menu; uploads are only
	// valid for this kind while Stage is StageAwaitingUpload.
	PendingDocument DocumentKind
	// PendingField is the metadata field last requested; text replies route
	// here while Stage is StageCollectingMetadata.
	PendingField MetadataField

	Documents    map[DocumentKind]*DocumentStatus
	Metadata     map[MetadataField]string
	Confirmation Confirmation

	// Attachments are retained until publish so the board upload can attach
	// the original files. Extraction only ever reads the derived fields.
	Attachments []Upload

	// AssembledOnce guards the single-fire transition into confirmation;
	// Record is set exactly once alongside it and never mutated after.
	AssembledOnce bool
	Record        *record.Record

	LastActivity time.Time
}

// NewConversation creates intake state for a conversation key.
func NewConversation(id string, variant FlowVariant, now time.Time) *Conversation {
	docs := make(map[DocumentKind]*DocumentStatus)
	for _, kind := range variant.RequiredDocuments() {
		docs[kind] = &DocumentStatus{}
	}
	return &Conversation{
		ID:           id,
		Variant:      variant,
		Stage:        StageAwaitingName,
		Documents:    docs,
		Metadata:     make(map[MetadataField]string),
		LastActivity: now,
	}
}

// Touch records activity for idle eviction.
func (c *Conversation) Touch(now time.Time) {
	c.LastActivity = now
}

// Requires reports whether the variant requires the given document kind.
func (c *Conversation) Requires(kind DocumentKind) bool {
	_, ok := c.Documents[kind]
	return ok
}

// MarkUploaded flags a required document as received and stores whatever
// fields extraction produced. A failed extraction passes nil fields; the
// document still counts as uploaded.
func (c *Conversation) MarkUploaded(kind DocumentKind, fields map[string]string) {
	status, ok := c.Documents[kind]
	if !ok {
		return
	}
	status.Uploaded = true
	status.Fields = fields
}

// Outstanding computes the requirement menu: exactly the not-yet-satisfied
// items, documents first, no duplicates, no completed entries.
func (c *Conversation) Outstanding() []MenuAction {
	var actions []MenuAction
	for _, kind := range c.Variant.RequiredDocuments() {
		if status := c.Documents[kind]; status == nil || !status.Uploaded {
			actions = append(actions, MenuAction{Type: ActionUploadDocument, Document: kind})
		}
	}
	for _, field := range c.Variant.RequiredMetadata() {
		if _, ok := c.Metadata[field]; !ok {
			actions = append(actions, MenuAction{Type: ActionEnterMetadata, Field: field})
		}
	}
	return actions
}

// Complete reports whether every required document is uploaded and every
// required metadata field is populated. Assembly may only run once this
// holds.
func (c *Conversation) Complete() bool {
	return len(c.Outstanding()) == 0
}

// ExtractedFields returns the per-document field maps for assembly.
func (c *Conversation) ExtractedFields() map[DocumentKind]map[string]string {
	out := make(map[DocumentKind]map[string]string, len(c.Documents))
	for kind, status := range c.Documents {
		if status.Uploaded {
			out[kind] = status.Fields
		}
	}
	return out
}

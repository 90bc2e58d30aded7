// Package events re-exports the platform event bus and defines the domain
// events the intake flow emits. Modules import events from here while the
// bus implementation lives in platform/events.
package events

import (
	platformevents "leadintake_backend/platform/events"
	"leadintake_backend/platform/logger"
)

// Bus is a type alias to the platform Bus interface.
type Bus = platformevents.Bus

// BaseEvent is a type alias to the platform BaseEvent.
type BaseEvent = platformevents.BaseEvent

// Handler is a type alias to the platform Handler.
type Handler = platformevents.Handler

// HandlerFunc is a type alias to the platform HandlerFunc.
type HandlerFunc = platformevents.HandlerFunc

// Event is a type alias to the platform Event interface.
type Event = platformevents.Event

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *platformevents.InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// Event names.
const (
	NameRecordAssembled   = "intake.record_assembled"
	NameIntakeCompleted   = "intake.completed"
	NamePublishFailed     = "intake.publish_failed"
	NameDocumentExtracted = "intake.document_extracted"
)

// RecordAssembled fires once per conversation when all requirements are
// satisfied and the canonical record has been built.
type RecordAssembled struct {
	BaseEvent
	ConversationID string
	ItemName       string
}

func (RecordAssembled) EventName() string { return NameRecordAssembled }

// IntakeCompleted fires after a successful board publish.
type IntakeCompleted struct {
	BaseEvent
	ConversationID string
	ItemID         string
}

func (IntakeCompleted) EventName() string { return NameIntakeCompleted }

// PublishFailed fires when the board rejects or fails the submission.
type PublishFailed struct {
	BaseEvent
	ConversationID string
	Reason         string
}

func (PublishFailed) EventName() string { return NamePublishFailed }

// DocumentExtracted fires per document once extraction settles, whether or
// not it produced fields.
type DocumentExtracted struct {
	BaseEvent
	ConversationID string
	DocumentKind   string
	FieldCount     int
}

func (DocumentExtracted) EventName() string { return NameDocumentExtracted }

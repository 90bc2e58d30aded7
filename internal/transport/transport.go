// Package transport defines the messaging-transport interface the intake
// core consumes: inbound events and outbound replies. Concrete transports
// (Telegram polling, Telegram webhook) live in their own packages.
package transport

import "context"

// EventKind discriminates the three inbound event types.
type EventKind int

const (
	// EventText is a plain text reply or command.
	EventText EventKind = iota
	// EventButton is a menu button selection.
	EventButton
	// EventUpload is a file upload with its MIME type.
	EventUpload
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventButton:
		return "button"
	case EventUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// Upload carries one received file.
type Upload struct {
	FileName string
	MIMEType string
	Data     []byte
}

// Event is one inbound transport event, tagged with its conversation key.
// Exactly the field implied by Kind is populated.
type Event struct {
	ConversationID string
	Kind           EventKind
	Text           string
	ButtonData     string
	Upload         *Upload
}

// Button is a selectable option rendered with a prompt.
type Button struct {
	Label string
	Data  string
}

// Responder sends replies back to a conversation. Delivery is best-effort;
// the core offers no exactly-once guarantee toward the transport.
type Responder interface {
	SendText(ctx context.Context, conversationID, text string) error
	SendMenu(ctx context.Context, conversationID, text string, buttons []Button) error
}

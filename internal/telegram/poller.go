package telegram

import (
	"context"
	"errors"
	"time"

	"leadintake_backend/internal/transport"
	"leadintake_backend/platform/logger"
)

// Poller converts long-polled Bot API updates into transport events.
// Updates are delivered strictly in arrival order; the dispatch loop on the
// receiving side preserves that order per conversation.
type Poller struct {
	client      *Client
	pollTimeout time.Duration
	log         *logger.Logger
}

// NewPoller creates a long-polling update source.
func NewPoller(client *Client, pollTimeout time.Duration, log *logger.Logger) *Poller {
	return &Poller{
		client:      client,
		pollTimeout: pollTimeout,
		log:         log,
	}
}

// Run polls until the context ends, pushing converted events into out.
func (p *Poller) Run(ctx context.Context, out chan<- transport.Event) error {
	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("getUpdates failed, backing off", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			event, ok, err := p.client.EventFromUpdate(ctx, update)
			if err != nil {
				p.log.Warn("failed to convert update", "update_id", update.UpdateID, "error", err)
				continue
			}
			if !ok {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// EventFromUpdate maps a Bot API update to a transport event. The second
// return value is false for update types the intake core ignores. Photo
// and document messages resolve their file bytes before dispatch, so the
// engine only ever sees complete uploads.
func (c *Client) EventFromUpdate(ctx context.Context, update Update) (transport.Event, bool, error) {
	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		if cb.Message == nil {
			return transport.Event{}, false, errors.New("callback query without message")
		}
		c.AnswerCallback(ctx, cb.ID)
		return transport.Event{
			ConversationID: conversationID(cb.Message.Chat.ID),
			Kind:           transport.EventButton,
			ButtonData:     cb.Data,
		}, true, nil
	}

	msg := update.Message
	if msg == nil {
		return transport.Event{}, false, nil
	}
	convID := conversationID(msg.Chat.ID)

	switch {
	case msg.Document != nil:
		data, err := c.DownloadFile(ctx, msg.Document.FileID)
		if err != nil {
			return transport.Event{}, false, err
		}
		return transport.Event{
			ConversationID: convID,
			Kind:           transport.EventUpload,
			Upload: &transport.Upload{
				FileName: msg.Document.FileName,
				MIMEType: msg.Document.MimeType,
				Data:     data,
			},
		}, true, nil

	case len(msg.Photo) > 0:
		// Telegram sends multiple sizes; take the largest.
		largest := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.FileSize > largest.FileSize {
				largest = p
			}
		}
		data, err := c.DownloadFile(ctx, largest.FileID)
		if err != nil {
			return transport.Event{}, false, err
		}
		return transport.Event{
			ConversationID: convID,
			Kind:           transport.EventUpload,
			Upload: &transport.Upload{
				FileName: "photo.jpg",
				MIMEType: "image/jpeg",
				Data:     data,
			},
		}, true, nil

	case msg.Text != "":
		return transport.Event{
			ConversationID: convID,
			Kind:           transport.EventText,
			Text:           msg.Text,
		}, true, nil

	default:
		return transport.Event{}, false, nil
	}
}

// Package intake implements the conversation engine: the state machine that
// sequences document uploads and metadata entry, and triggers assembly and
// publishing once the intake is complete and confirmed.
package intake

import (
	"context"
	"strings"
	"time"

	"leadintake_backend/internal/assembler"
	"leadintake_backend/internal/board"
	"leadintake_backend/internal/events"
	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/internal/record"
	"leadintake_backend/internal/storage"
	"leadintake_backend/internal/transport"
	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
	"leadintake_backend/platform/phone"
)

// Extractor derives structured fields from an uploaded document.
type Extractor interface {
	Extract(ctx context.Context, kind domain.DocumentKind, data []byte, mimeType string) (map[string]string, error)
}

// Publisher pushes an assembled record to the external board.
type Publisher interface {
	Publish(ctx context.Context, rec *record.Record, attachments []board.Attachment, withDealerRecord bool) (string, error)
}

// Archiver durably stores received document bytes. Optional.
type Archiver interface {
	Store(ctx context.Context, folder, fileName, contentType string, data []byte) (string, error)
}

// Engine drives all conversation state transitions. Events are handled on a
// single dispatch loop, so per-conversation state is never touched by two
// handlers at once and arrival order is preserved.
type Engine struct {
	store          *Store
	responder      transport.Responder
	extractor      Extractor
	publisher      Publisher
	archiver       Archiver
	bus            events.Bus
	sourceTag      string
	maxUploadBytes int64
	log            *logger.Logger
}

// NewEngine wires the conversation engine. archiver may be nil;
// maxUploadBytes of zero disables the size gate.
func NewEngine(store *Store, responder transport.Responder, extractor Extractor, publisher Publisher, archiver Archiver, bus events.Bus, sourceTag string, maxUploadBytes int64, log *logger.Logger) *Engine {
	return &Engine{
		store:          store,
		responder:      responder,
		extractor:      extractor,
		publisher:      publisher,
		archiver:       archiver,
		bus:            bus,
		sourceTag:      sourceTag,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// Run consumes transport events until the context ends. This is the single
// cooperative loop: one event is fully handled before the next is read.
func (e *Engine) Run(ctx context.Context, eventCh <-chan transport.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-eventCh:
			e.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent processes one inbound event. Unexpected panics are caught at
// this boundary: they are logged, the user gets a generic failure message,
// and the conversation state is left as-is so the agent can retry the step.
func (e *Engine) HandleEvent(ctx context.Context, ev transport.Event) {
	log := e.log.WithConversationID(ev.ConversationID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("event handler panicked", "panic", r, "kind", ev.Kind.String())
			e.send(ctx, ev.ConversationID, msgGenericFailure)
		}
	}()

	if ev.Kind == transport.EventText && strings.HasPrefix(ev.Text, "/") {
		e.handleCommand(ctx, ev.ConversationID, ev.Text)
		return
	}

	conv := e.store.Get(ev.ConversationID)
	if conv == nil {
		// First inbound event for this conversation: create state and open
		// the flow. The triggering event itself is not consumed as input.
		conv = e.store.Create(ev.ConversationID, domain.VariantNewPolicy)
		e.send(ctx, ev.ConversationID, msgWelcome)
		return
	}
	conv.Touch(time.Now())
	log.TransportEvent(ev.Kind.String(), ev.ConversationID, conv.Stage.String())

	switch ev.Kind {
	case transport.EventText:
		e.handleText(ctx, conv, ev.Text)
	case transport.EventButton:
		e.handleButton(ctx, conv, ev.ButtonData)
	case transport.EventUpload:
		e.handleUpload(ctx, conv, ev.Upload)
	}
}

func (e *Engine) handleCommand(ctx context.Context, conversationID, text string) {
	command, payload, _ := strings.Cut(strings.TrimSpace(text), " ")

	switch strings.ToLower(command) {
	case "/start":
		variant := domain.VariantNewPolicy
		if parsed, ok := domain.ParseVariant(strings.TrimSpace(payload)); ok {
			variant = parsed
		}
		e.store.Create(conversationID, variant)
		e.send(ctx, conversationID, msgWelcome)

	case "/cancel":
		if e.store.Get(conversationID) == nil {
			e.send(ctx, conversationID, msgNothingActive)
			return
		}
		e.store.Delete(conversationID)
		e.send(ctx, conversationID, msgCancelled)

	default:
		e.send(ctx, conversationID, msgHelp)
	}
}

func (e *Engine) handleText(ctx context.Context, conv *domain.Conversation, text string) {
	text = strings.TrimSpace(text)

	switch conv.Stage {
	case domain.StageAwaitingName:
		if text == "" {
			e.send(ctx, conv.ID, msgWelcome)
			return
		}
		conv.Metadata[domain.FieldAgentName] = text
		e.advance(ctx, conv)

	case domain.StageCollectingMetadata:
		field := conv.PendingField
		if field == domain.FieldContact && !phone.IsDigitsOnly(text) {
			// Invalid input re-prompts; a previously stored valid value is
			// never overwritten.
			e.send(ctx, conv.ID, rejectInvalidContact())
			return
		}
		if text == "" {
			e.send(ctx, conv.ID, promptForField(field))
			return
		}
		conv.Metadata[field] = text
		conv.PendingField = ""
		e.advance(ctx, conv)

	case domain.StageAwaitingConfirmation:
		if !strings.EqualFold(text, "yes") {
			e.send(ctx, conv.ID, msgConfirmHint)
			return
		}
		conv.Confirmation = domain.ConfirmationConfirmed
		e.transition(conv, domain.StageAwaitingSubmit)
		e.send(ctx, conv.ID, msgSubmitHint)

	case domain.StageAwaitingSubmit:
		if !strings.EqualFold(text, "submit") {
			e.send(ctx, conv.ID, msgSubmitHint)
			return
		}
		e.publish(ctx, conv)

	default:
		// Free text while a menu is pending: show the menu again.
		e.sendMenu(ctx, conv)
	}
}

func (e *Engine) handleButton(ctx context.Context, conv *domain.Conversation, data string) {
	if conv.Stage != domain.StageChoosing {
		// A menu press outside the choosing state is stale; re-issue the
		// prompt for whatever the conversation actually expects.
		e.reprompt(ctx, conv)
		return
	}

	action, err := domain.DecodeMenuAction(data)
	if err != nil {
		e.log.Warn("rejecting malformed menu action", "conversation_id", conv.ID, "data", data)
		e.sendMenu(ctx, conv)
		return
	}

	if !e.actionOutstanding(conv, action) {
		// Completed or foreign item selected from a stale menu.
		e.sendMenu(ctx, conv)
		return
	}

	switch action.Type {
	case domain.ActionUploadDocument:
		conv.PendingDocument = action.Document
		e.transition(conv, domain.StageAwaitingUpload)
		e.send(ctx, conv.ID, promptForDocument(action.Document))
	case domain.ActionEnterMetadata:
		conv.PendingField = action.Field
		e.transition(conv, domain.StageCollectingMetadata)
		e.send(ctx, conv.ID, promptForField(action.Field))
	}
}

func (e *Engine) handleUpload(ctx context.Context, conv *domain.Conversation, upload *transport.Upload) {
	if upload == nil {
		return
	}
	if conv.Stage != domain.StageAwaitingUpload {
		// An upload before its prompt is meaningless: reject, never queue.
		e.send(ctx, conv.ID, rejectUnexpectedUpload(conv))
		return
	}
	if !storage.IsAllowedContentType(upload.MIMEType) {
		e.send(ctx, conv.ID, rejectWrongMIME(conv.PendingDocument))
		return
	}
	if e.maxUploadBytes > 0 && int64(len(upload.Data)) > e.maxUploadBytes {
		e.send(ctx, conv.ID, rejectTooLarge(conv.PendingDocument))
		return
	}

	kind := conv.PendingDocument

	if e.archiver != nil {
		if _, err := e.archiver.Store(ctx, conv.ID, upload.FileName, upload.MIMEType, upload.Data); err != nil {
			e.log.Warn("document archive failed", "conversation_id", conv.ID, "error", err)
		}
	}

	fields, err := e.extractor.Extract(ctx, kind, upload.Data, upload.MIMEType)
	if err != nil {
		// Extraction failure is not a blocking error: the document was
		// received, so it counts as uploaded with absent fields.
		e.log.ExtractionError(string(kind), err)
		if apperr.Is(err, apperr.KindNoText) {
			e.send(ctx, conv.ID, "I could not read any text from that document; continuing without its details.")
		} else {
			e.send(ctx, conv.ID, "I could not extract details from that document; continuing without them.")
		}
		fields = nil
	}

	e.bus.Publish(ctx, events.DocumentExtracted{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conv.ID,
		DocumentKind:   string(kind),
		FieldCount:     len(fields),
	})

	conv.MarkUploaded(kind, fields)
	conv.Attachments = append(conv.Attachments, domain.Upload{
		Kind:     kind,
		FileName: upload.FileName,
		MIMEType: upload.MIMEType,
		Data:     upload.Data,
	})
	conv.PendingDocument = ""

	e.advance(ctx, conv)
}

// advance moves the conversation forward after a requirement was satisfied:
// back to the menu while anything is outstanding, or into confirmation with
// a single-fire assembly once everything is present.
func (e *Engine) advance(ctx context.Context, conv *domain.Conversation) {
	if !conv.Complete() {
		e.transition(conv, domain.StageChoosing)
		e.sendMenu(ctx, conv)
		return
	}

	if !conv.AssembledOnce {
		conv.Record = assembler.Assemble(conv.Metadata, conv.ExtractedFields(), e.sourceTag)
		conv.AssembledOnce = true
		e.bus.Publish(ctx, events.RecordAssembled{
			BaseEvent:      events.NewBaseEvent(),
			ConversationID: conv.ID,
			ItemName:       conv.Record.ItemName,
		})
	}

	e.transition(conv, domain.StageAwaitingConfirmation)
	e.send(ctx, conv.ID, summarize(conv.Record))
}

// publish submits the assembled record and ends the conversation either
// way: a failed publish is reported and only retried by restarting the
// flow manually.
func (e *Engine) publish(ctx context.Context, conv *domain.Conversation) {
	rec := conv.Record
	if rec == nil {
		e.log.Error("submit reached without assembled record", "conversation_id", conv.ID)
		e.send(ctx, conv.ID, msgGenericFailure)
		return
	}

	attachments := make([]board.Attachment, 0, len(conv.Attachments))
	for _, upload := range conv.Attachments {
		attachments = append(attachments, board.Attachment{
			FileName: upload.FileName,
			MIMEType: upload.MIMEType,
			Data:     upload.Data,
		})
	}

	itemID, err := e.publisher.Publish(ctx, rec, attachments, conv.Variant.RequiresDealerRecord())
	e.log.PublishResult(conv.ID, itemID, err)

	e.transition(conv, domain.StageTerminated)
	e.store.Delete(conv.ID)

	if err != nil {
		e.bus.Publish(ctx, events.PublishFailed{
			BaseEvent:      events.NewBaseEvent(),
			ConversationID: conv.ID,
			Reason:         err.Error(),
		})
		e.send(ctx, conv.ID, msgPublishFailed)
		return
	}

	e.bus.Publish(ctx, events.IntakeCompleted{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conv.ID,
		ItemID:         itemID,
	})
	e.send(ctx, conv.ID, msgPublishOK)
}

// actionOutstanding reports whether the action is still on the menu.
func (e *Engine) actionOutstanding(conv *domain.Conversation, action domain.MenuAction) bool {
	for _, outstanding := range conv.Outstanding() {
		if outstanding == action {
			return true
		}
	}
	return false
}

// reprompt re-issues the prompt matching the current stage.
func (e *Engine) reprompt(ctx context.Context, conv *domain.Conversation) {
	switch conv.Stage {
	case domain.StageAwaitingName:
		e.send(ctx, conv.ID, msgWelcome)
	case domain.StageAwaitingUpload:
		e.send(ctx, conv.ID, promptForDocument(conv.PendingDocument))
	case domain.StageCollectingMetadata:
		e.send(ctx, conv.ID, promptForField(conv.PendingField))
	case domain.StageAwaitingConfirmation:
		e.send(ctx, conv.ID, msgConfirmHint)
	case domain.StageAwaitingSubmit:
		e.send(ctx, conv.ID, msgSubmitHint)
	default:
		e.sendMenu(ctx, conv)
	}
}

func (e *Engine) transition(conv *domain.Conversation, to domain.Stage) {
	e.log.StageTransition(conv.ID, conv.Stage.String(), to.String())
	conv.Stage = to
}

func (e *Engine) sendMenu(ctx context.Context, conv *domain.Conversation) {
	actions := conv.Outstanding()
	if err := e.responder.SendMenu(ctx, conv.ID, msgChooseNext, menuButtons(actions)); err != nil {
		e.log.Warn("failed to send menu", "conversation_id", conv.ID, "error", err)
	}
}

func (e *Engine) send(ctx context.Context, conversationID, text string) {
	if err := e.responder.SendText(ctx, conversationID, text); err != nil {
		e.log.Warn("failed to send message", "conversation_id", conversationID, "error", err)
	}
}

// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// ConversationIDKey is the context key for the transport conversation ID
	ConversationIDKey contextKey = "conversation_id"
	// CorrelationIDKey is the context key for a pipeline correlation ID
	CorrelationIDKey contextKey = "correlation_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports conversation_id and correlation_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if convID, ok := ctx.Value(ConversationIDKey).(string); ok && convID != "" {
		newLogger = newLogger.WithConversationID(convID)
	}

	if corrID, ok := ctx.Value(CorrelationIDKey).(string); ok && corrID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("correlation_id", corrID)),
		}
	}

	return newLogger
}

// WithConversationID returns a logger with the conversation ID attached
func (l *Logger) WithConversationID(convID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("conversation_id", convID)),
	}
}

// TransportEvent logs an inbound transport event
func (l *Logger) TransportEvent(kind, conversationID, stage string) {
	l.Info("transport_event",
		slog.String("kind", kind),
		slog.String("conversation_id", conversationID),
		slog.String("stage", stage),
	)
}

// StageTransition logs a conversation stage change
func (l *Logger) StageTransition(conversationID, from, to string) {
	l.Info("stage_transition",
		slog.String("conversation_id", conversationID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// ExtractionError logs a failed document extraction
func (l *Logger) ExtractionError(documentKind string, err error) {
	l.Warn("extraction_error",
		slog.String("document_kind", documentKind),
		slog.String("error", err.Error()),
	)
}

// PublishResult logs the outcome of a board publish attempt
func (l *Logger) PublishResult(conversationID, itemID string, err error) {
	if err != nil {
		l.Error("publish_failed",
			slog.String("conversation_id", conversationID),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Info("publish_succeeded",
		slog.String("conversation_id", conversationID),
		slog.String("item_id", itemID),
	)
}

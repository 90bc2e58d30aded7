package extraction

import (
	"context"
	"time"

	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
)

// Service orchestrates the recognition and structured-extraction steps.
// Extraction is the only unreliable, latency-bearing part of the intake
// flow, so the whole contract is fail-soft: callers mark the document
// uploaded regardless and tolerate absent fields.
type Service struct {
	ocr     *OCRClient
	ai      FieldExtractor
	timeout time.Duration
	log     *logger.Logger
}

// NewService creates the extraction service. ai may be nil, in which case
// only service-side structured content yields fields. timeout bounds one
// whole Extract call; zero disables the bound.
func NewService(ocr *OCRClient, ai FieldExtractor, timeout time.Duration, log *logger.Logger) *Service {
	return &Service{ocr: ocr, ai: ai, timeout: timeout, log: log}
}

// Extract turns document bytes into structured fields. Error kinds follow
// the extraction taxonomy: KindNoText when the input held no recoverable
// text, KindExtraction for everything transient.
func (s *Service) Extract(ctx context.Context, kind domain.DocumentKind, data []byte, mimeType string) (map[string]string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.ocr.Recognize(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	if result.StructuredContent != "" {
		return ParseStructuredFields(result.StructuredContent)
	}

	if s.ai == nil {
		return nil, apperr.Extraction("no structured extractor configured", nil)
	}
	return s.ai.ExtractFields(ctx, kind, result.Text)
}

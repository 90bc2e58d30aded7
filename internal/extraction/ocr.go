// Package extraction turns uploaded document images into structured fields
// via the external OCR service and an AI field-extraction step.
package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
)

const ocrHTTPTimeout = 60 * time.Second

// OCRClient calls the external text-recognition service. The service
// accepts binary image or PDF content and returns JSON holding either raw
// text or a content field with JSON-encoded structured fields.
type OCRClient struct {
	baseURL    string
	apiKey     string
	overlayDir string
	http       *http.Client
	log        *logger.Logger
}

// NewOCRClient creates an OCR service client. overlayDir receives the
// transient searchable-PDF artifacts the service can return.
func NewOCRClient(baseURL, apiKey, overlayDir string, log *logger.Logger) *OCRClient {
	return &OCRClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		overlayDir: overlayDir,
		http:       &http.Client{Timeout: ocrHTTPTimeout},
		log:        log,
	}
}

// OCRResult is the normalized response of a recognition call.
type OCRResult struct {
	// Text is the raw recognized text; empty when the service returned
	// structured content instead.
	Text string
	// StructuredContent is a JSON-encoded field map, present when the
	// service performed its own structured extraction.
	StructuredContent string
	// OverlayPath is the validated searchable-PDF artifact on local disk,
	// empty when the service returned none.
	OverlayPath string
}

type ocrResponse struct {
	Text       string `json:"text"`
	Content    string `json:"content"`
	OverlayPDF string `json:"overlay_pdf"` // base64
}

// Recognize submits document bytes and normalizes the response. A response
// with neither text nor structured content is a NoText error; transport and
// artifact problems are Extraction errors.
func (c *OCRClient) Recognize(ctx context.Context, data []byte, mimeType string) (*OCRResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Extraction("build OCR request", err)
	}
	req.Header.Set("Content-Type", mimeType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Extraction("OCR request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperr.Extraction(
			fmt.Sprintf("OCR service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Extraction("decode OCR response", err)
	}

	result := &OCRResult{
		Text:              strings.TrimSpace(parsed.Text),
		StructuredContent: strings.TrimSpace(parsed.Content),
	}

	if parsed.OverlayPDF != "" {
		path, err := c.writeOverlay(parsed.OverlayPDF)
		if err != nil {
			// An invalid artifact invalidates the whole response: nothing
			// downstream may consume it.
			return nil, err
		}
		result.OverlayPath = path
	}

	if result.Text == "" && result.StructuredContent == "" {
		return nil, apperr.NoText("document contained no recoverable text")
	}
	return result, nil
}

// writeOverlay decodes the searchable-PDF artifact to transient storage and
// validates that it is well-formed before anything downstream may read it.
func (c *OCRClient) writeOverlay(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperr.Extraction("decode overlay artifact", err)
	}
	if err := ValidateOverlay(data); err != nil {
		return "", err
	}

	path := filepath.Join(c.overlayDir, fmt.Sprintf("overlay_%s.pdf", uuid.New().String()[:8]))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", apperr.Extraction("write overlay artifact", err)
	}
	return path, nil
}

// ValidateOverlay checks that an overlay artifact is a well-formed PDF.
// An invalid artifact is an extraction failure, never passed downstream.
func ValidateOverlay(data []byte) error {
	if len(data) < 5 || !bytes.HasPrefix(data, []byte("%PDF-")) {
		return apperr.Extraction("overlay artifact is not a valid PDF", nil)
	}
	return nil
}

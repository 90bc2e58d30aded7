package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/platform/apperr"
)

// FieldExtractor turns a document's recognized text into structured fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, kind domain.DocumentKind, text string) (map[string]string, error)
}

// GeminiExtractor implements FieldExtractor on the Gemini API with a JSON
// response mode.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates the AI field extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiExtractor{client: client, model: model}, nil
}

// documentFields lists the field names the extractor should produce per
// document kind. These names feed the assembler's static mapping table.
var documentFields = map[domain.DocumentKind][]string{
	domain.DocumentIdentityCard: {"full_name", "id_number"},
	domain.DocumentLicense:      {"license_number", "license_class", "issue_date"},
	domain.DocumentLogCard:      {"owner_id", "vehicle_make", "vehicle_model", "registration_date"},
}

// ExtractFields prompts the model with the recognized text and parses the
// JSON object it returns. Malformed model output is an extraction failure;
// the caller degrades to absent fields.
func (g *GeminiExtractor) ExtractFields(ctx context.Context, kind domain.DocumentKind, text string) (map[string]string, error) {
	prompt := buildExtractionPrompt(kind, text)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, apperr.Extraction("gemini extraction failed", err)
	}

	return ParseStructuredFields(result.Text())
}

func buildExtractionPrompt(kind domain.DocumentKind, text string) string {
	fields := documentFields[kind]
	var b strings.Builder
	fmt.Fprintf(&b, "The following text was recognized from a %s document.\n", kind.Label())
	b.WriteString("Return a JSON object with exactly these string keys, using an empty string for anything the text does not contain:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("Dates must keep the form they appear in, e.g. \"05 Jan 2023\".\n\nText:\n")
	b.WriteString(text)
	return b.String()
}

// ParseStructuredFields decodes a JSON-encoded field map, dropping empty
// values. Malformed JSON is an extraction failure, not a crash.
func ParseStructuredFields(encoded string) (map[string]string, error) {
	var raw map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(encoded)), &raw); err != nil {
		return nil, apperr.Extraction("structured extraction returned malformed JSON", err)
	}

	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		value = strings.TrimSpace(value)
		if value != "" {
			fields[key] = value
		}
	}
	return fields, nil
}

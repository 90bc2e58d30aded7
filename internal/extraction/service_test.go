package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
)

type stubFieldExtractor struct {
	fields map[string]string
	err    error
	calls  int
}

func (s *stubFieldExtractor) ExtractFields(_ context.Context, _ domain.DocumentKind, text string) (map[string]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.fields, nil
}

func ocrServer(t *testing.T, response map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recognize" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
}

func TestExtractUsesStructuredContentDirectly(t *testing.T) {
	server := ocrServer(t, map[string]string{
		"content": `{"id_number":"S1234567A","full_name":"Ben Lim","empty":""}`,
	})
	defer server.Close()

	log := logger.New("development")
	ai := &stubFieldExtractor{fields: map[string]string{"unused": "x"}}
	svc := NewService(NewOCRClient(server.URL, "key", t.TempDir(), log), ai, 0, log)

	fields, err := svc.Extract(context.Background(), domain.DocumentIdentityCard, []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fields["id_number"] != "S1234567A" || fields["full_name"] != "Ben Lim" {
		t.Errorf("fields = %v", fields)
	}
	if _, ok := fields["empty"]; ok {
		t.Error("empty values must be dropped")
	}
	if ai.calls != 0 {
		t.Error("AI extractor must not be called when structured content exists")
	}
}

func TestExtractFallsBackToAIOnRawText(t *testing.T) {
	server := ocrServer(t, map[string]string{"text": "LICENCE NO L-778899 CLASS 3A"})
	defer server.Close()

	log := logger.New("development")
	ai := &stubFieldExtractor{fields: map[string]string{"license_number": "L-778899", "license_class": "3A"}}
	svc := NewService(NewOCRClient(server.URL, "key", t.TempDir(), log), ai, 0, log)

	fields, err := svc.Extract(context.Background(), domain.DocumentLicense, []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ai.calls != 1 {
		t.Errorf("AI extractor calls = %d, want 1", ai.calls)
	}
	if fields["license_number"] != "L-778899" {
		t.Errorf("fields = %v", fields)
	}
}

func TestExtractNoTextIsNoTextKind(t *testing.T) {
	server := ocrServer(t, map[string]string{"text": "   "})
	defer server.Close()

	log := logger.New("development")
	svc := NewService(NewOCRClient(server.URL, "key", t.TempDir(), log), &stubFieldExtractor{}, 0, log)

	_, err := svc.Extract(context.Background(), domain.DocumentLogCard, []byte("img"), "image/jpeg")
	if err == nil {
		t.Fatal("expected error for empty recognition result")
	}
	if apperr.GetKind(err) != apperr.KindNoText {
		t.Errorf("error kind = %v, want KindNoText", apperr.GetKind(err))
	}
}

func TestExtractWithoutAIExtractorFails(t *testing.T) {
	server := ocrServer(t, map[string]string{"text": "some recognized text"})
	defer server.Close()

	log := logger.New("development")
	svc := NewService(NewOCRClient(server.URL, "key", t.TempDir(), log), nil, 0, log)

	_, err := svc.Extract(context.Background(), domain.DocumentLogCard, []byte("img"), "image/jpeg")
	if apperr.GetKind(err) != apperr.KindExtraction {
		t.Errorf("error = %v, want KindExtraction", err)
	}
}

func TestRecognizeWritesValidOverlay(t *testing.T) {
	overlay := base64.StdEncoding.EncodeToString([]byte("%PDF-1.7 fake body"))
	server := ocrServer(t, map[string]string{
		"text":        "recognized",
		"overlay_pdf": overlay,
	})
	defer server.Close()

	dir := t.TempDir()
	log := logger.New("development")
	client := NewOCRClient(server.URL, "key", dir, log)

	result, err := client.Recognize(context.Background(), []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if result.OverlayPath == "" {
		t.Fatal("overlay path not set")
	}
	if filepath.Dir(result.OverlayPath) != dir {
		t.Errorf("overlay written to %q, want inside %q", result.OverlayPath, dir)
	}
	data, err := os.ReadFile(result.OverlayPath)
	if err != nil {
		t.Fatalf("read overlay: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Errorf("overlay content = %q", data)
	}
}

func TestRecognizeRejectsInvalidOverlay(t *testing.T) {
	overlay := base64.StdEncoding.EncodeToString([]byte("not a pdf at all"))
	server := ocrServer(t, map[string]string{
		"text":        "recognized",
		"overlay_pdf": overlay,
	})
	defer server.Close()

	log := logger.New("development")
	client := NewOCRClient(server.URL, "key", t.TempDir(), log)

	_, err := client.Recognize(context.Background(), []byte("img"), "image/jpeg")
	if err == nil {
		t.Fatal("invalid overlay artifact must fail the recognition call")
	}
	if apperr.GetKind(err) != apperr.KindExtraction {
		t.Errorf("error kind = %v, want KindExtraction", apperr.GetKind(err))
	}
}

func TestParseStructuredFields(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "valid object",
			input: `{"owner_id":"S1","vehicle_make":" Toyota "}`,
			want:  map[string]string{"owner_id": "S1", "vehicle_make": "Toyota"},
		},
		{
			name:  "empty values dropped",
			input: `{"owner_id":"","vehicle_make":"Honda"}`,
			want:  map[string]string{"vehicle_make": "Honda"},
		},
		{
			name:    "malformed JSON",
			input:   `{"owner_id": `,
			wantErr: true,
		},
		{
			name:    "non-object",
			input:   `["a","b"]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStructuredFields(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStructuredFields(%q) expected error", tt.input)
				}
				if apperr.GetKind(err) != apperr.KindExtraction {
					t.Errorf("error kind = %v, want KindExtraction", apperr.GetKind(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStructuredFields(%q): %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("fields = %v, want %v", got, tt.want)
			}
			for key, want := range tt.want {
				if got[key] != want {
					t.Errorf("field %s = %q, want %q", key, got[key], want)
				}
			}
		})
	}
}

package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadintake_backend/internal/record"
	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
)

func TestEncodeColumns(t *testing.T) {
	rec := &record.Record{
		ItemName: "Ben Lim",
		Columns: map[string]record.Value{
			record.ColumnAgentName:    record.TextValue("Alice Tan"),
			record.ColumnRegistration: record.DateValue("2022-03-14"),
			record.ColumnContact:      record.PhoneValue("+6591234567", "SG"),
			record.ColumnLicenseIssue: record.Absent(),
		},
	}

	encoded, err := EncodeColumns(rec)
	if err != nil {
		t.Fatalf("EncodeColumns: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(encoded), &payload); err != nil {
		t.Fatalf("encoded column values are not valid JSON: %v", err)
	}

	if got := payload[record.ColumnAgentName]; got != "Alice Tan" {
		t.Errorf("text column = %v", got)
	}
	date, ok := payload[record.ColumnRegistration].(map[string]any)
	if !ok || date["date"] != "2022-03-14" {
		t.Errorf("date column = %v", payload[record.ColumnRegistration])
	}
	phone, ok := payload[record.ColumnContact].(map[string]any)
	if !ok || phone["phone"] != "+6591234567" || phone["countryShortName"] != "SG" {
		t.Errorf("phone column = %v", payload[record.ColumnContact])
	}
	if _, present := payload[record.ColumnLicenseIssue]; present {
		t.Error("absent column must be skipped, not serialized")
	}
}

// boardStub records create_item calls and answers with sequential item IDs.
type boardStub struct {
	createCalls   []map[string]any
	uploadCalls   int
	failCreates   bool
	failSecondary bool
}

func (s *boardStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Helper()
		if r.URL.Path == "/file" {
			s.uploadCalls++
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data":{"add_file_to_column":{"id":"f1"}}}`))
			return
		}

		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		s.createCalls = append(s.createCalls, req.Variables)

		if s.failCreates || (s.failSecondary && len(s.createCalls) > 1) {
			_, _ = w.Write([]byte(`{"errors":[{"message":"board unavailable"}]}`))
			return
		}
		itemID := "100"
		if len(s.createCalls) > 1 {
			itemID = "200"
		}
		_, _ = w.Write([]byte(`{"data":{"create_item":{"id":"` + itemID + `"}}}`))
	}
}

func testRecord() *record.Record {
	return &record.Record{
		ItemName:  "Ben Lim",
		SourceTag: "telegram-intake",
		Columns: map[string]record.Value{
			record.ColumnAgentName:  record.TextValue("Alice Tan"),
			record.ColumnDealership: record.TextValue("Orchard Motors"),
			record.ColumnSource:     record.TextValue("telegram-intake"),
		},
	}
}

func TestPublishCreatesPrimaryAndDealerRecord(t *testing.T) {
	stub := &boardStub{}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	log := logger.New("development")
	publisher := NewPublisher(NewClient(server.URL, "token", log), "55", "66", "files", log)

	itemID, err := publisher.Publish(context.Background(), testRecord(), []Attachment{
		{FileName: "logcard.pdf", MIMEType: "application/pdf", Data: []byte("%PDF-1.4")},
	}, true)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if itemID != "100" {
		t.Errorf("item ID = %q, want 100", itemID)
	}
	if len(stub.createCalls) != 2 {
		t.Fatalf("create_item calls = %d, want primary plus dealer record", len(stub.createCalls))
	}
	if stub.uploadCalls != 1 {
		t.Errorf("upload calls = %d, want 1", stub.uploadCalls)
	}

	primary := stub.createCalls[0]
	if primary["boardID"] != "55" || primary["itemName"] != "Ben Lim" {
		t.Errorf("primary variables = %v", primary)
	}
	dealer := stub.createCalls[1]
	if dealer["boardID"] != "66" || dealer["itemName"] != "Orchard Motors" {
		t.Errorf("dealer variables = %v", dealer)
	}
	columnValues, _ := dealer["columnValues"].(string)
	var dealerColumns map[string]any
	if err := json.Unmarshal([]byte(columnValues), &dealerColumns); err != nil {
		t.Fatalf("dealer column values: %v", err)
	}
	if dealerColumns["text_lead_item"] != "100" {
		t.Errorf("dealer record does not reference primary item: %v", dealerColumns)
	}
}

func TestPublishWithoutDealerRecord(t *testing.T) {
	stub := &boardStub{}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	log := logger.New("development")
	publisher := NewPublisher(NewClient(server.URL, "token", log), "55", "66", "files", log)

	if _, err := publisher.Publish(context.Background(), testRecord(), nil, false); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(stub.createCalls) != 1 {
		t.Errorf("create_item calls = %d, want 1", len(stub.createCalls))
	}
}

func TestPublishPrimaryFailureIsPublishError(t *testing.T) {
	stub := &boardStub{failCreates: true}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	log := logger.New("development")
	publisher := NewPublisher(NewClient(server.URL, "token", log), "55", "", "files", log)

	_, err := publisher.Publish(context.Background(), testRecord(), nil, false)
	if err == nil {
		t.Fatal("Publish should fail when the primary create fails")
	}
	if apperr.GetKind(err) != apperr.KindPublish {
		t.Errorf("error kind = %v, want KindPublish", apperr.GetKind(err))
	}
}

func TestPublishSecondaryFailureStillSucceeds(t *testing.T) {
	stub := &boardStub{failSecondary: true}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	log := logger.New("development")
	publisher := NewPublisher(NewClient(server.URL, "token", log), "55", "66", "files", log)

	itemID, err := publisher.Publish(context.Background(), testRecord(), nil, true)
	if err != nil {
		t.Fatalf("Publish should tolerate dealer-record failure: %v", err)
	}
	if itemID != "100" {
		t.Errorf("item ID = %q", itemID)
	}
	if len(stub.createCalls) != 2 {
		t.Errorf("create_item calls = %d, want 2 (secondary attempted)", len(stub.createCalls))
	}
}

func TestUploadFileRejectsNonNumericItemID(t *testing.T) {
	log := logger.New("development")
	client := NewClient("http://localhost:0", "token", log)

	err := client.UploadFile(context.Background(), `1) {id}} mutation x(`, "files", "a.pdf", nil)
	if err == nil {
		t.Fatal("non-numeric item ID must be rejected before any request is made")
	}
}

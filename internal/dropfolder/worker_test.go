package dropfolder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"

	"leadintake_backend/internal/board"
	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/internal/record"
	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
)

type stubExtractor struct {
	fields map[string]string
	err    error
}

func (s *stubExtractor) Extract(_ context.Context, _ domain.DocumentKind, _ []byte, _ string) (map[string]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fields, nil
}

type stubPublisher struct {
	calls      int
	lastRecord *record.Record
	lastAttach []board.Attachment
	lastDealer bool
	err        error
}

func (s *stubPublisher) Publish(_ context.Context, rec *record.Record, attachments []board.Attachment, withDealerRecord bool) (string, error) {
	s.calls++
	s.lastRecord = rec
	s.lastAttach = attachments
	s.lastDealer = withDealerRecord
	if s.err != nil {
		return "", s.err
	}
	return "300", nil
}

func pipelineWorker(extractor Extractor, publisher Publisher) *Worker {
	return &Worker{
		extractor: extractor,
		publisher: publisher,
		log:       logger.New("development"),
	}
}

func depositFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 logcard"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func processTask(t *testing.T, path string) *asynq.Task {
	t.Helper()
	task, err := NewProcessFileTask(ProcessFilePayload{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func TestHandleProcessFilePublishesLogCard(t *testing.T) {
	publisher := &stubPublisher{}
	worker := pipelineWorker(&stubExtractor{fields: map[string]string{
		"owner_id":          "S1234567A",
		"vehicle_make":      "Toyota",
		"registration_date": "14 Mar 2022",
	}}, publisher)

	path := depositFile(t, "deposited.pdf")
	if err := worker.handleProcessFile(context.Background(), processTask(t, path)); err != nil {
		t.Fatalf("handleProcessFile: %v", err)
	}

	if publisher.calls != 1 {
		t.Fatalf("publish calls = %d", publisher.calls)
	}
	if publisher.lastDealer {
		t.Error("drop-folder records must never create dealership records")
	}
	rec := publisher.lastRecord
	if rec.SourceTag != "drop-folder" {
		t.Errorf("source tag = %q", rec.SourceTag)
	}
	if rec.Columns[record.ColumnAgentName].Text != "unattended-intake" {
		t.Errorf("agent column = %+v, want placeholder", rec.Columns[record.ColumnAgentName])
	}
	if rec.Columns[record.ColumnVehicleMake].Text != "Toyota" {
		t.Errorf("vehicle make = %+v", rec.Columns[record.ColumnVehicleMake])
	}
	if len(publisher.lastAttach) != 1 || publisher.lastAttach[0].FileName != "deposited.pdf" {
		t.Errorf("attachments = %+v", publisher.lastAttach)
	}
}

func TestHandleProcessFileDegradesOnExtractionFailure(t *testing.T) {
	publisher := &stubPublisher{}
	worker := pipelineWorker(&stubExtractor{err: apperr.NoText("blank page")}, publisher)

	path := depositFile(t, "blank.pdf")
	if err := worker.handleProcessFile(context.Background(), processTask(t, path)); err != nil {
		t.Fatalf("extraction failure must not fail the task: %v", err)
	}

	if publisher.calls != 1 {
		t.Fatal("record must still be published with absent fields")
	}
	if _, ok := publisher.lastRecord.Columns[record.ColumnVehicleMake]; ok {
		t.Error("failed extraction must not contribute document columns")
	}
}

func TestHandleProcessFilePublishFailureRetries(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("board unavailable")}
	worker := pipelineWorker(&stubExtractor{}, publisher)

	path := depositFile(t, "retry.pdf")
	err := worker.handleProcessFile(context.Background(), processTask(t, path))
	if err == nil {
		t.Fatal("publish failure must surface so the queue retries the task")
	}
}

func TestHandleProcessFileMissingFile(t *testing.T) {
	worker := pipelineWorker(&stubExtractor{}, &stubPublisher{})
	task := processTask(t, filepath.Join(t.TempDir(), "gone.pdf"))
	if err := worker.handleProcessFile(context.Background(), task); err == nil {
		t.Fatal("missing file must fail the task")
	}
}

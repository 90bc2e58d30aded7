package dropfolder

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"leadintake_backend/internal/assembler"
	"leadintake_backend/internal/board"
	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/internal/record"
	"leadintake_backend/platform/logger"
)

// sourceTag marks records originating from the drop folder, as opposed to
// the live conversation flow.
const sourceTag = "drop-folder"

// Extractor matches the intake engine's extraction contract.
type Extractor interface {
	Extract(ctx context.Context, kind domain.DocumentKind, data []byte, mimeType string) (map[string]string, error)
}

// Publisher matches the intake engine's publishing contract.
type Publisher interface {
	Publish(ctx context.Context, rec *record.Record, attachments []board.Attachment, withDealerRecord bool) (string, error)
}

// Worker runs the drop-folder pipeline: a periodic scan task enqueues one
// process task per newly seen file, and each process task independently
// runs Extractor, Assembler and Publisher. This path shares no mutable
// state with the conversation engine and never sees live conversation
// metadata; it substitutes placeholder metadata instead.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	client    *asynq.Client
	mux       *asynq.ServeMux
	queue     string

	scanner   *Scanner
	extractor Extractor
	publisher Publisher
	log       *logger.Logger
}

// Config carries the worker's queue and scan settings.
type Config struct {
	RedisURL         string
	RedisTLSInsecure bool
	Queue            string
	Concurrency      int
	ScanSpec         string // cron or @every spec for the periodic scan
}

// NewWorker wires the asynq server, scheduler and handlers.
func NewWorker(cfg Config, scanner *Scanner, extractor Extractor, publisher Publisher, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL, cfg.RedisTLSInsecure)
	if err != nil {
		return nil, err
	}

	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 5
	}
	scanSpec := cfg.ScanSpec
	if scanSpec == "" {
		scanSpec = "@every 1m"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	scheduler := asynq.NewScheduler(opt, nil)
	if _, err := scheduler.Register(scanSpec, NewScanTask(), asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register scan task: %w", err)
	}

	w := &Worker{
		server:    server,
		scheduler: scheduler,
		client:    asynq.NewClient(opt),
		mux:       asynq.NewServeMux(),
		queue:     queue,
		scanner:   scanner,
		extractor: extractor,
		publisher: publisher,
		log:       log,
	}

	w.mux.HandleFunc(TaskScan, w.handleScan)
	w.mux.HandleFunc(TaskProcessFile, w.handleProcessFile)

	return w, nil
}

// Run starts the scheduler and the worker server, blocking until the
// context ends.
func (w *Worker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	return nil
}

// Close releases the enqueue client.
func (w *Worker) Close() error {
	if w == nil || w.client == nil {
		return nil
	}
	return w.client.Close()
}

func (w *Worker) handleScan(ctx context.Context, _ *asynq.Task) error {
	fresh, err := w.scanner.ListNew()
	if err != nil {
		return fmt.Errorf("scan drop folder: %w", err)
	}

	for _, path := range fresh {
		task, err := NewProcessFileTask(ProcessFilePayload{Path: path})
		if err != nil {
			return err
		}
		if _, err := w.client.EnqueueContext(ctx, task, asynq.Queue(w.queue)); err != nil {
			w.log.Error("failed to enqueue drop file", "path", path, "error", err)
			continue
		}
		w.log.Info("claimed drop file", "path", path)
	}
	return nil
}

// handleProcessFile runs one deposited file through the pipeline. Deposited
// files are vehicle log cards by convention; extraction failures degrade to
// a record with absent document fields, same as the live flow.
func (w *Worker) handleProcessFile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseProcessFilePayload(task)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(payload.Path)
	if err != nil {
		return fmt.Errorf("read drop file: %w", err)
	}

	fields, err := w.extractor.Extract(ctx, domain.DocumentLogCard, data, "application/pdf")
	if err != nil {
		w.log.ExtractionError(string(domain.DocumentLogCard), err)
		fields = nil
	}

	rec := assembler.Assemble(placeholderMetadata(), map[domain.DocumentKind]map[string]string{
		domain.DocumentLogCard: fields,
	}, sourceTag)

	attachment := board.Attachment{
		FileName: filepath.Base(payload.Path),
		MIMEType: "application/pdf",
		Data:     data,
	}

	itemID, err := w.publisher.Publish(ctx, rec, []board.Attachment{attachment}, false)
	if err != nil {
		return fmt.Errorf("publish drop file %s: %w", payload.Path, err)
	}

	w.log.Info("published drop file", "path", payload.Path, "item_id", itemID)
	return nil
}

// placeholderMetadata substitutes for live conversation metadata, which
// this path must never be given.
func placeholderMetadata() map[domain.MetadataField]string {
	return map[domain.MetadataField]string{
		domain.FieldAgentName: "unattended-intake",
	}
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"leadintake_backend/internal/board"
	"leadintake_backend/internal/config"
	"leadintake_backend/internal/events"
	"leadintake_backend/internal/extraction"
	"leadintake_backend/internal/intake"
	"leadintake_backend/internal/storage"
	"leadintake_backend/internal/telegram"
	"leadintake_backend/internal/transport"
	"leadintake_backend/platform/logger"
)

const liveSourceTag = "telegram-intake"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := cfg.ValidateBot(); err != nil {
		panic("invalid bot config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting intake bot", "env", cfg.Env, "transport", cfg.TransportMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := telegram.NewClient(cfg.TelegramBaseURL, cfg.TelegramToken, cfg.SendRatePerSec, log)

	ocr := extraction.NewOCRClient(cfg.OCRBaseURL, cfg.OCRAPIKey, cfg.OverlayDir, log)
	var fieldExtractor extraction.FieldExtractor
	if cfg.GeminiAPIKey != "" {
		gemini, err := extraction.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			panic("failed to initialize gemini extractor: " + err.Error())
		}
		fieldExtractor = gemini
	} else {
		log.Warn("GEMINI_API_KEY not set; structured extraction limited to OCR-side content")
	}
	extractor := extraction.NewService(ocr, fieldExtractor, cfg.ExtractTimeout, log)

	var archiver intake.Archiver
	if cfg.ArchiveEnabled {
		archive, err := storage.NewArchiveService(ctx, storage.Config{
			Endpoint:    cfg.MinIOEndpoint,
			AccessKey:   cfg.MinIOAccessKey,
			SecretKey:   cfg.MinIOSecretKey,
			UseSSL:      cfg.MinIOUseSSL,
			Bucket:      cfg.MinIOBucket,
			MaxFileSize: cfg.MinIOMaxFileSize,
		})
		if err != nil {
			panic("failed to initialize document archive: " + err.Error())
		}
		archiver = archive
	}

	boardClient := board.NewClient(cfg.BoardBaseURL, cfg.BoardToken, log)
	publisher := board.NewPublisher(boardClient, cfg.BoardID, cfg.DealerBoardID, cfg.BoardFileColumn, log)

	bus := events.NewInMemoryBus(log)
	registerEventLogging(bus, log)

	store := intake.NewStore(log)
	engine := intake.NewEngine(store, client, extractor, publisher, archiver, bus, liveSourceTag, cfg.MaxUploadBytes, log)

	eventCh := make(chan transport.Event, 64)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		engine.Run(ctx, eventCh)
		return nil
	})

	group.Go(func() error {
		store.RunEviction(ctx, cfg.EvictInterval, cfg.IdleTTL)
		return nil
	})

	switch cfg.TransportMode {
	case "webhook":
		server := telegram.NewWebhookServer(client, cfg.WebhookAddr, cfg.WebhookSecret, eventCh, log)
		group.Go(func() error {
			return server.Run(ctx)
		})
	default:
		poller := telegram.NewPoller(client, cfg.PollTimeout, log)
		group.Go(func() error {
			return poller.Run(ctx, eventCh)
		})
	}

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.Error("intake bot stopped", "error", err)
		os.Exit(1)
	}
	log.Info("intake bot shut down")
}

// registerEventLogging subscribes structured-log handlers for the intake
// lifecycle events.
func registerEventLogging(bus events.Bus, log *logger.Logger) {
	bus.Subscribe(events.NameRecordAssembled, events.HandlerFunc(func(_ context.Context, ev events.Event) error {
		if assembled, ok := ev.(events.RecordAssembled); ok {
			log.Info("record assembled", "conversation_id", assembled.ConversationID, "item_name", assembled.ItemName)
		}
		return nil
	}))
	bus.Subscribe(events.NameIntakeCompleted, events.HandlerFunc(func(_ context.Context, ev events.Event) error {
		if completed, ok := ev.(events.IntakeCompleted); ok {
			log.Info("intake completed", "conversation_id", completed.ConversationID, "item_id", completed.ItemID)
		}
		return nil
	}))
	bus.Subscribe(events.NamePublishFailed, events.HandlerFunc(func(_ context.Context, ev events.Event) error {
		if failed, ok := ev.(events.PublishFailed); ok {
			log.Error("publish failed", "conversation_id", failed.ConversationID, "reason", failed.Reason)
		}
		return nil
	}))
}

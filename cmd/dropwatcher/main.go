package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leadintake_backend/internal/board"
	"leadintake_backend/internal/config"
	"leadintake_backend/internal/dropfolder"
	"leadintake_backend/internal/extraction"
	"leadintake_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := cfg.ValidateDropWatcher(); err != nil {
		panic("invalid dropwatcher config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting dropwatcher", "env", cfg.Env, "folder", cfg.DropFolderPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ocr := extraction.NewOCRClient(cfg.OCRBaseURL, cfg.OCRAPIKey, cfg.OverlayDir, log)
	var fieldExtractor extraction.FieldExtractor
	if cfg.GeminiAPIKey != "" {
		gemini, err := extraction.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			panic("failed to initialize gemini extractor: " + err.Error())
		}
		fieldExtractor = gemini
	}
	extractor := extraction.NewService(ocr, fieldExtractor, cfg.ExtractTimeout, log)

	boardClient := board.NewClient(cfg.BoardBaseURL, cfg.BoardToken, log)
	publisher := board.NewPublisher(boardClient, cfg.BoardID, cfg.DealerBoardID, cfg.BoardFileColumn, log)

	scanner := dropfolder.NewScanner(cfg.DropFolderPath)

	worker, err := dropfolder.NewWorker(dropfolder.Config{
		RedisURL:    cfg.RedisURL,
		Queue:       cfg.AsynqQueue,
		Concurrency: cfg.AsynqConcurrency,
		ScanSpec:    fmt.Sprintf("@every %s", cfg.DropScanInterval),
	}, scanner, extractor, publisher, log)
	if err != nil {
		panic("failed to initialize dropfolder worker: " + err.Error())
	}
	defer func() { _ = worker.Close() }()

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("dropwatcher stopped", "error", err)
		os.Exit(1)
	}
	log.Info("dropwatcher shut down")
}

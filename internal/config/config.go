package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"leadintake_backend/platform/validator"
)

type Config struct {
	Env string

	// Messaging transport
	TelegramToken   string
	TelegramBaseURL string `validate:"url"`
	TransportMode   string `validate:"oneof=polling webhook"`
	WebhookAddr     string
	WebhookSecret   string `validate:"required_if=TransportMode webhook"`
	PollTimeout     time.Duration
	SendRatePerSec  float64

	// Intake engine
	IdleTTL        time.Duration
	EvictInterval  time.Duration
	MaxUploadBytes int64

	// Extraction
	OCRBaseURL     string
	OCRAPIKey      string
	OverlayDir     string
	GeminiAPIKey   string
	GeminiModel    string
	ExtractTimeout time.Duration

	// Board publishing
	BoardBaseURL    string `validate:"url"`
	BoardToken      string
	BoardID         string
	DealerBoardID   string
	BoardFileColumn string

	// Document archive (MinIO)
	ArchiveEnabled   bool
	MinIOEndpoint    string `validate:"required_if=ArchiveEnabled true"`
	MinIOAccessKey   string `validate:"required_if=ArchiveEnabled true"`
	MinIOSecretKey   string `validate:"required_if=ArchiveEnabled true"`
	MinIOUseSSL      bool
	MinIOBucket      string
	MinIOMaxFileSize int64

	// Drop-folder pipeline
	DropFolderPath   string
	DropScanInterval time.Duration
	RedisURL         string
	AsynqQueue       string
	AsynqConcurrency int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	archiveEnabled := strings.EqualFold(getEnv("ARCHIVE_ENABLED", "false"), "true")

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),

		TelegramToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		TransportMode:   strings.ToLower(getEnv("TRANSPORT_MODE", "polling")),
		WebhookAddr:     getEnv("WEBHOOK_ADDR", ":8443"),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		PollTimeout:     mustDuration(getEnv("POLL_TIMEOUT", "30s")),
		SendRatePerSec:  25,

		IdleTTL:        mustDuration(getEnv("CONVERSATION_IDLE_TTL", "2h")),
		EvictInterval:  mustDuration(getEnv("CONVERSATION_EVICT_INTERVAL", "10m")),
		MaxUploadBytes: getInt64Env("MAX_UPLOAD_BYTES", 20<<20),

		OCRBaseURL:     getEnv("OCR_BASE_URL", ""),
		OCRAPIKey:      getEnv("OCR_API_KEY", ""),
		OverlayDir:     getEnv("OCR_OVERLAY_DIR", os.TempDir()),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ExtractTimeout: mustDuration(getEnv("EXTRACT_TIMEOUT", "45s")),

		BoardBaseURL:    getEnv("BOARD_API_URL", "https://api.monday.com/v2"),
		BoardToken:      getEnv("BOARD_API_TOKEN", ""),
		BoardID:         getEnv("BOARD_ID", ""),
		DealerBoardID:   getEnv("DEALER_BOARD_ID", ""),
		BoardFileColumn: getEnv("BOARD_FILE_COLUMN", "files"),

		ArchiveEnabled:   archiveEnabled,
		MinIOEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:      strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucket:      getEnv("MINIO_BUCKET", "intake-documents"),
		MinIOMaxFileSize: getInt64Env("MINIO_MAX_FILE_SIZE", 50<<20),

		DropFolderPath:   getEnv("DROP_FOLDER_PATH", ""),
		DropScanInterval: mustDuration(getEnv("DROP_SCAN_INTERVAL", "1m")),
		RedisURL:         getEnv("REDIS_URL", ""),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "intake"),
		AsynqConcurrency: int(getInt64Env("ASYNQ_CONCURRENCY", 5)),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ValidateBot checks the settings the conversational process depends on.
func (c *Config) ValidateBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	return c.validatePublisher()
}

// ValidateDropWatcher checks the settings the drop-folder process depends on.
func (c *Config) ValidateDropWatcher() error {
	if c.DropFolderPath == "" {
		return fmt.Errorf("DROP_FOLDER_PATH is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return c.validatePublisher()
}

func (c *Config) validatePublisher() error {
	if c.BoardToken == "" {
		return fmt.Errorf("BOARD_API_TOKEN is required")
	}
	if c.BoardID == "" {
		return fmt.Errorf("BOARD_ID is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func getInt64Env(key string, fallback int64) int64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var parsed int64
	if _, err := fmt.Sscanf(strings.TrimSpace(val), "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

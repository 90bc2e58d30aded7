// Package telegram implements the messaging transport against the Telegram
// Bot API, in both long-polling and webhook modes.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"leadintake_backend/internal/transport"
	"leadintake_backend/platform/logger"
)

// Client talks to the Bot API for one bot token. Outbound sends share a
// rate limiter so bursts of prompts stay under the API's per-bot limit.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewClient creates a Bot API client.
func NewClient(baseURL, token string, sendRatePerSec float64, log *logger.Logger) *Client {
	if sendRatePerSec <= 0 {
		sendRatePerSec = 25
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 90 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(sendRatePerSec), 5),
		log:     log,
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope apiResponse[json.RawMessage]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%s returned error: %s", method, envelope.Description)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for new updates past the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendText sends a plain text reply.
func (c *Client) SendText(ctx context.Context, conversationID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID: conversationID,
		Text:   text,
	}, nil)
}

// SendMenu sends text with an inline keyboard, one button per row.
func (c *Client) SendMenu(ctx context.Context, conversationID, text string, buttons []transport.Button) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	rows := make([][]inlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []inlineKeyboardButton{{Text: b.Label, CallbackData: b.Data}})
	}

	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      conversationID,
		Text:        text,
		ReplyMarkup: &inlineKeyboardMarkup{InlineKeyboard: rows},
	}, nil)
}

// AnswerCallback acknowledges a button press so the client stops showing a
// loading state. Failures are logged, not propagated.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) {
	if err := c.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: callbackID}, nil); err != nil {
		c.log.Debug("answer callback failed", "error", err)
	}
}

// DownloadFile resolves a file ID and fetches its bytes.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	var file File
	if err := c.call(ctx, "getFile", map[string]string{"file_id": fileID}, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("file %s has no path", fileID)
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file download failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("file download returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// SetWebhook registers the webhook URL with the Bot API.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	return c.call(ctx, "setWebhook", map[string]string{
		"url":          webhookURL,
		"secret_token": secret,
	}, nil)
}

// conversationID formats a chat ID as the stable conversation key.
func conversationID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

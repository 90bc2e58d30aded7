// Package board publishes assembled records to the external work-management
// board over its GraphQL API.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"leadintake_backend/platform/logger"
)

const defaultHTTPTimeout = 30 * time.Second

// Client is a minimal GraphQL client for the board API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a board API client.
func NewClient(baseURL, token string, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		log:     log,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Do executes a GraphQL operation and unmarshals the data payload into out.
// Variables keep value serialization out of the query text; queries are
// never built by string interpolation.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("board request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("board API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode board response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return fmt.Errorf("board API error: %s", parsed.Errors[0].Message)
	}
	if out != nil {
		if err := json.Unmarshal(parsed.Data, out); err != nil {
			return fmt.Errorf("decode board data: %w", err)
		}
	}
	return nil
}

// UploadFile posts a file to the board's multipart file endpoint, attaching
// it to the given item's file column.
func (c *Client) UploadFile(ctx context.Context, itemID, columnID, fileName string, data []byte) error {
	// The file endpoint has no variable support for scalars, so the item ID
	// lands in the query text. It is a server-assigned numeric ID; reject
	// anything else.
	if !isNumericID(itemID) {
		return fmt.Errorf("invalid item id %q", itemID)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	query := fmt.Sprintf(
		`mutation add_file($file: File!) { add_file_to_column(item_id: %s, column_id: %q, file: $file) { id } }`,
		itemID, columnID,
	)
	if err := writer.WriteField("query", query); err != nil {
		return err
	}
	if err := writer.WriteField("map", `{"file":"variables.file"}`); err != nil {
		return err
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/file", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("file upload failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("file upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

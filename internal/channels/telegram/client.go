package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBase     = "https://api.telegram.org"
	defaultHTTPTimeout = 10 * time.Second
	maxDownloadBytes   = 20 << 20
)

// APIError is returned when the Bot API answers ok=false.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: API error %d: %s", e.Code, e.Description)
}

// Client calls the Telegram Bot API.
type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Bot API client. timeout <= 0 uses 10s.
func NewClient(token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		token:      token,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetAPIBase overrides the Bot API base URL (useful for testing).
func (c *Client) SetAPIBase(base string) {
	if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
		c.apiBase = base
	}
}

// SendMessage delivers text to a chat. parseMode "" sends plain text.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	req := SendMessageRequest{ChatID: chatID, Text: text, ParseMode: parseMode}
	return c.call(ctx, "sendMessage", req, nil)
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var file File
	if err := c.call(ctx, "getFile", map[string]string{"file_id": fileID}, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("telegram: getFile returned no file_path for %s", fileID)
	}
	return &file, nil
}

// DownloadFile fetches the bytes behind a getFile path.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, strings.TrimLeft(filePath, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: create download request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("telegram: download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: download file: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("telegram: read file: %w", err)
	}
	return data, nil
}

// FetchPhoto resolves and downloads a photo in one step.
func (c *Client) FetchPhoto(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return c.DownloadFile(ctx, file.FilePath)
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		return fmt.Errorf("telegram: %s failed: %w", method, redactToken(err, c.token))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram: read response: %w", err)
	}

	var envelope APIResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("telegram: unmarshal %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !envelope.OK {
		return &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<redacted>"))
}

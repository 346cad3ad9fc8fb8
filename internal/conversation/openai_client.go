package conversation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("conversation: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int32           `json:"max_tokens,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
}

// openAIMessage content is either a plain string or a list of content parts.
type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int32 `json:"prompt_tokens"`
		CompletionTokens int32 `json:"completion_tokens"`
		TotalTokens      int32 `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

type OpenAIOption func(*OpenAIClient)

func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithOpenAIHTTPClient(httpClient *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		c.httpClient = httpClient
	}
}

func WithOpenAIModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.defaultModel = strings.TrimSpace(model)
	}
}

// NewOpenAIClient creates a client authenticated with a bearer API key.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: openai api key is required")
	}
	c := &OpenAIClient{
		apiKey:       apiKey,
		baseURL:      defaultOpenAIBaseURL,
		defaultModel: "gpt-4o-mini",
		httpClient:   &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func chatCompletionsURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Complete sends a chat completion request and returns text plus token usage.
func (c *OpenAIClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if len(req.Messages) == 0 {
		return LLMResponse{}, errors.New("conversation: openai requires at least one message")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.defaultModel
	}

	payload := openAIChatRequest{
		Model:     model,
		Messages:  buildOpenAIMessages(req),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature >= 0 {
		temp := req.Temperature
		payload.Temperature = &temp
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: marshal openai request: %w", err)
	}

	url := chatCompletionsURL(c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: create openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: openai request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return LLMResponse{}, &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: read openai response: %w", err)
	}

	var decoded openAIChatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: decode openai response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return LLMResponse{}, errors.New("conversation: openai returned no choices")
	}

	out := LLMResponse{
		Text:       strings.TrimSpace(decoded.Choices[0].Message.Content),
		StopReason: decoded.Choices[0].FinishReason,
	}
	if decoded.Usage != nil {
		out.Usage = TokenUsage{
			InputTokens:  decoded.Usage.PromptTokens,
			OutputTokens: decoded.Usage.CompletionTokens,
			TotalTokens:  decoded.Usage.TotalTokens,
		}
	}
	return out, nil
}

func buildOpenAIMessages(req LLMRequest) []openAIMessage {
	messages := make([]openAIMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(strings.Join(req.System, "\n\n")); system != "" {
		messages = append(messages, openAIMessage{Role: ChatRoleSystem, Content: system})
	}
	for _, msg := range req.Messages {
		if len(msg.Images) == 0 {
			messages = append(messages, openAIMessage{Role: msg.Role, Content: msg.Content})
			continue
		}
		parts := make([]openAIContentPart, 0, len(msg.Images)+1)
		if strings.TrimSpace(msg.Content) != "" {
			parts = append(parts, openAIContentPart{Type: "text", Text: msg.Content})
		}
		for _, img := range msg.Images {
			parts = append(parts, openAIContentPart{
				Type:     "image_url",
				ImageURL: &openAIImageURL{URL: dataURL(img)},
			})
		}
		messages = append(messages, openAIMessage{Role: msg.Role, Content: parts})
	}
	return messages
}

func dataURL(img ImagePart) string {
	return "data:" + mimeOrDefault(img.MIMEType) + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

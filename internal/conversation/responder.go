package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/nutribot/internal/observability/metrics"
	"github.com/wolfman30/nutribot/pkg/logging"
)

// GenerationFailedReply replaces the model answer whenever the call fails.
const GenerationFailedReply = "Sorry, I couldn't generate a response."

const defaultTextTimeout = 30 * time.Second

var errEmptyCompletion = errors.New("conversation: model returned empty text")

// ModelReply is the text sent back plus the token usage that produced it.
// Canned and failed replies carry zero usage.
type ModelReply struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

type ResponderConfig struct {
	Model       string
	MaxTokens   int32
	Temperature float32
	Timeout     time.Duration
}

// Responder turns a user message plus recent history into a model reply.
type Responder struct {
	client  LLMClient
	cfg     ResponderConfig
	logger  *logging.Logger
	metrics *metrics.BotMetrics
}

func NewResponder(client LLMClient, cfg ResponderConfig, logger *logging.Logger, m *metrics.BotMetrics) *Responder {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTextTimeout
	}
	return &Responder{client: client, cfg: cfg, logger: logger, metrics: m}
}

// BuildPrompt prefixes the transcript when there is one. Without history the
// prompt is exactly the user's text.
func BuildPrompt(history []Turn, text string) string {
	transcript := FormatContext(history)
	if transcript == "" {
		return text
	}
	return transcript + "User: " + text
}

// Generate never returns an error: every failure becomes GenerationFailedReply
// with zero usage.
func (r *Responder) Generate(ctx context.Context, history []Turn, text string) ModelReply {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.Complete(ctx, LLMRequest{
		Model:       r.cfg.Model,
		System:      []string{TextSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: BuildPrompt(history, text)}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errEmptyCompletion
	}
	elapsed := time.Since(start).Seconds()

	if err != nil {
		r.metrics.ObserveLLMCall("text", "error", elapsed)
		r.logger.Error("text generation failed", "error", err, "history_turns", len(history))
		return ModelReply{Text: GenerationFailedReply}
	}

	r.metrics.ObserveLLMCall("text", "ok", elapsed)
	r.metrics.AddTokens("text", int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	return ModelReply{
		Text:         resp.Text,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
}

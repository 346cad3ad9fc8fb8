package nutrition

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/internal/observability/metrics"
	"github.com/wolfman30/nutribot/pkg/logging"
)

// AnalysisFailedReply is returned when the vision call fails.
const AnalysisFailedReply = "Sorry, I couldn't analyze the image."

const (
	defaultImageTimeout = 60 * time.Second
	analyzeInstruction  = "Analyze the food item in this image."
)

// ImagePrompt asks for exactly five labeled fields so ExtractFields can parse them.
const ImagePrompt = `You are an expert nutrition assistant. Analyze the food item in the image and respond clearly in this exact format, using double asterisks for bold (Telegram Markdown):

**Food:** <name of food item>
**Calories:** <calories in kcal>
**Proteins:** <protein in grams>
**Carbs:** <carbs in grams>
**Fat:** <fat in grams>

Do NOT include any additional text or commentary.

If you cannot analyze the image, reply: "Sorry, I couldn't analyze that."`

// Entry is one Meal Tracker row before the id and client name are added.
type Entry struct {
	Date        string
	Time        string
	Food        string
	Calories    string
	Proteins    string
	Carbs       string
	Fat         string
	ImageURL    string
	TimeElapsed float64
}

type AnalyzerConfig struct {
	Model       string
	MaxTokens   int32
	Temperature float32
	Timeout     time.Duration
}

// Analyzer estimates nutrition facts for a food photo using a vision model.
type Analyzer struct {
	client  conversation.LLMClient
	cfg     AnalyzerConfig
	logger  *logging.Logger
	metrics *metrics.BotMetrics
	now     func() time.Time
}

func NewAnalyzer(client conversation.LLMClient, cfg AnalyzerConfig, logger *logging.Logger, m *metrics.BotMetrics) *Analyzer {
	if client == nil {
		panic("nutrition: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultImageTimeout
	}
	return &Analyzer{client: client, cfg: cfg, logger: logger, metrics: m, now: time.Now}
}

// Analyze always returns an Entry. On failure the reply text is
// AnalysisFailedReply, every field is empty, and usage is zero.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, caption, imageURL string) (Entry, conversation.ModelReply) {
	start := a.now()
	reply := a.complete(ctx, image, caption)
	end := a.now()

	fields := ExtractFields(reply.Text)
	return Entry{
		Date:        end.Format("2006-01-02"),
		Time:        end.Format("15:04:05"),
		Food:        fields.Food,
		Calories:    fields.Calories,
		Proteins:    fields.Proteins,
		Carbs:       fields.Carbs,
		Fat:         fields.Fat,
		ImageURL:    imageURL,
		TimeElapsed: math.Round(end.Sub(start).Seconds()*100) / 100,
	}, reply
}

func (a *Analyzer) complete(ctx context.Context, image []byte, caption string) conversation.ModelReply {
	if len(image) == 0 {
		a.logger.Warn("image analysis skipped: empty image")
		return conversation.ModelReply{Text: AnalysisFailedReply}
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	instruction := analyzeInstruction
	if c := strings.TrimSpace(caption); c != "" {
		instruction = fmt.Sprintf("%s The user added: %s", analyzeInstruction, c)
	}

	start := time.Now()
	resp, err := a.client.Complete(ctx, conversation.LLMRequest{
		Model:  a.cfg.Model,
		System: []string{ImagePrompt},
		Messages: []conversation.ChatMessage{{
			Role:    conversation.ChatRoleUser,
			Content: instruction,
			Images:  []conversation.ImagePart{{MIMEType: "image/jpeg", Data: image}},
		}},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errors.New("nutrition: model returned empty text")
	}
	elapsed := time.Since(start).Seconds()
	if err != nil {
		a.metrics.ObserveLLMCall("image", "error", elapsed)
		a.logger.Error("image analysis failed", "error", err, "image_bytes", len(image))
		return conversation.ModelReply{Text: AnalysisFailedReply}
	}

	a.metrics.ObserveLLMCall("image", "ok", elapsed)
	a.metrics.AddTokens("image", int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	return conversation.ModelReply{
		Text:         resp.Text,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
}

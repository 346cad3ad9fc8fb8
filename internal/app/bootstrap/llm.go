package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/nutribot/internal/config"
	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/pkg/logging"
)

// AWSConfigLoader loads shared AWS SDK configuration on first use.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// Purpose selects which model an OpenAI-compatible provider defaults to.
// Gemini and Bedrock use one model for both.
type Purpose string

const (
	PurposeText   Purpose = "text"
	PurposeVision Purpose = "vision"
)

// BuildLLMClient wires the configured provider, wrapped with the fallback
// provider when one is set. The close func releases provider connections.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, purpose Purpose, loadAWS AWSConfigLoader, logger *logging.Logger) (conversation.LLMClient, func() error, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	primary, closePrimary, err := buildProvider(ctx, cfg, cfg.LLMProvider, purpose, loadAWS)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: primary llm provider: %w", err)
	}
	logger.Info("llm provider configured", "provider", cfg.LLMProvider, "purpose", purpose)

	if cfg.LLMFallbackProvider == "" || cfg.LLMFallbackProvider == cfg.LLMProvider {
		return primary, closePrimary, nil
	}

	fallback, closeFallback, err := buildProvider(ctx, cfg, cfg.LLMFallbackProvider, purpose, loadAWS)
	if err != nil {
		_ = closePrimary()
		return nil, nil, fmt.Errorf("bootstrap: fallback llm provider: %w", err)
	}
	logger.Info("llm fallback provider configured", "provider", cfg.LLMFallbackProvider, "purpose", purpose)

	closeBoth := func() error {
		err1 := closePrimary()
		err2 := closeFallback()
		if err1 != nil {
			return err1
		}
		return err2
	}
	return conversation.NewFallbackLLMClient(primary, fallback, logger), closeBoth, nil
}

func buildProvider(ctx context.Context, cfg *appconfig.Config, provider string, purpose Purpose, loadAWS AWSConfigLoader) (conversation.LLMClient, func() error, error) {
	noop := func() error { return nil }
	switch provider {
	case "openai":
		model, timeout := cfg.LLMModel, cfg.LLMTextTimeout
		if purpose == PurposeVision {
			timeout = cfg.LLMImageTimeout
			if strings.TrimSpace(cfg.VisionModel) != "" {
				model = cfg.VisionModel
			}
		}
		client, err := conversation.NewOpenAIClient(cfg.LLMAPIKey,
			conversation.WithOpenAIBaseURL(cfg.LLMBaseURL),
			conversation.WithOpenAIModel(model),
			conversation.WithOpenAIHTTPClient(&http.Client{Timeout: timeout}),
		)
		if err != nil {
			return nil, nil, err
		}
		return client, noop, nil
	case "gemini":
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case "bedrock":
		if loadAWS == nil {
			return nil, nil, fmt.Errorf("aws configuration loader is required for bedrock")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", provider)
	}
}

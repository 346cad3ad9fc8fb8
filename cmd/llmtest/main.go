package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/nutribot/cmd/mainconfig"
	"github.com/wolfman30/nutribot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/nutribot/internal/config"
	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/internal/nutrition"
	"github.com/wolfman30/nutribot/pkg/logging"
)

// llmtest sends one text turn, and optionally one food photo, through the
// configured providers. Usage: llmtest [path/to/photo.jpg]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	cfg := appconfig.Load()
	logger := logging.New("warn")
	loadAWS := mainconfig.Loader(cfg)

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("LLM Provider Test (provider=%s fallback=%s)\n", cfg.LLMProvider, orNone(cfg.LLMFallbackProvider))
	fmt.Println(strings.Repeat("=", 60))

	textClient, closeText, err := bootstrap.BuildLLMClient(ctx, cfg, bootstrap.PurposeText, loadAWS, logger)
	if err != nil {
		fmt.Printf("❌ Failed to build text client: %v\n", err)
		os.Exit(1)
	}
	defer closeText()

	responder := conversation.NewResponder(textClient, conversation.ResponderConfig{
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Temperature: float32(cfg.LLMTemperature),
		Timeout:     cfg.LLMTextTimeout,
	}, logger, nil)

	history := []conversation.Turn{
		{Input: "How many calories are in a boiled egg?", Output: "A large boiled egg has about 78 kcal."},
	}
	fmt.Println("\n[1] Text turn with one turn of history...")
	start := time.Now()
	reply := responder.Generate(ctx, history, "And how much protein?")
	fmt.Printf("    (%v) %s\n", time.Since(start).Round(time.Millisecond), reply.Text)
	fmt.Printf("    Tokens: in=%d, out=%d\n", reply.InputTokens, reply.OutputTokens)

	if len(os.Args) < 2 {
		fmt.Println("\n[2] Skipping image test (no photo path given)")
		return
	}

	image, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("❌ Failed to read photo: %v\n", err)
		os.Exit(1)
	}
	visionClient, closeVision, err := bootstrap.BuildLLMClient(ctx, cfg, bootstrap.PurposeVision, loadAWS, logger)
	if err != nil {
		fmt.Printf("❌ Failed to build vision client: %v\n", err)
		os.Exit(1)
	}
	defer closeVision()

	analyzer := nutrition.NewAnalyzer(visionClient, nutrition.AnalyzerConfig{
		MaxTokens: int32(cfg.LLMMaxTokens),
		Timeout:   cfg.LLMImageTimeout,
	}, logger, nil)

	fmt.Println("\n[2] Image analysis...")
	entry, analysis := analyzer.Analyze(ctx, image, "", "")
	fmt.Println(nutrition.FormatReport(entry, analysis.Text))
	fmt.Printf("    Tokens: in=%d, out=%d\n", analysis.InputTokens, analysis.OutputTokens)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

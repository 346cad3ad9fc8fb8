package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxHistoryLimit caps how many turns are remembered per user.
const MaxHistoryLimit = 10

// Config holds application configuration
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	DispatchTimeout time.Duration

	// Telegram
	TelegramBotToken      string
	TelegramWebhookSecret string
	TelegramAPIBase       string
	TelegramTimeout       time.Duration
	WebhookRateLimit      float64
	WebhookRateBurst      int

	// Routing and memory
	RoutingMode    string
	HistoryLimit   int
	HistoryBackend string
	HistoryTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	// Language model
	LLMProvider         string
	LLMFallbackProvider string
	LLMBaseURL          string
	LLMAPIKey           string
	LLMModel            string
	VisionModel         string
	LLMMaxTokens        int
	LLMTemperature      float64
	LLMTextTimeout      time.Duration
	LLMImageTimeout     time.Duration
	GeminiAPIKey        string
	GeminiModel         string
	BedrockModelID      string

	// Google collaborators
	SpreadsheetID       string
	DriveFolderID       string
	GoogleTokenJSON     string
	GoogleTokenFile     string
	CollaboratorTimeout time.Duration

	// Image storage
	StorageBackend  string
	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Feedback notifications
	FeedbackEmailTo   string
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables, after loading a .env
// file when one is present in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DispatchTimeout: getEnvAsDuration("DISPATCH_TIMEOUT", 2*time.Minute),

		TelegramBotToken:      getEnv("TELEGRAM_TOKEN", ""),
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		TelegramAPIBase:       getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		TelegramTimeout:       getEnvAsDuration("TELEGRAM_TIMEOUT", 10*time.Second),
		WebhookRateLimit:      getEnvAsFloat("WEBHOOK_RATE_LIMIT", 20),
		WebhookRateBurst:      getEnvAsInt("WEBHOOK_RATE_BURST", 40),

		RoutingMode:    strings.ToLower(strings.TrimSpace(getEnv("ROUTING_MODE", "model"))),
		HistoryLimit:   getEnvAsInt("HISTORY_LIMIT", 10),
		HistoryBackend: strings.ToLower(strings.TrimSpace(getEnv("HISTORY_BACKEND", "memory"))),
		HistoryTTL:     getEnvAsDuration("HISTORY_TTL", 24*time.Hour),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "openai"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		LLMBaseURL:          getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:           getEnv("LLM_API_KEY", ""),
		LLMModel:            getEnv("LLM_MODEL", "gpt-4o-mini"),
		VisionModel:         getEnv("VISION_MODEL", ""),
		LLMMaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMTextTimeout:      getEnvAsDuration("LLM_TEXT_TIMEOUT", 30*time.Second),
		LLMImageTimeout:     getEnvAsDuration("LLM_IMAGE_TIMEOUT", 60*time.Second),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),

		SpreadsheetID:       getEnv("SPREADSHEET_ID", ""),
		DriveFolderID:       getEnv("DRIVE_FOLDER_ID", ""),
		GoogleTokenJSON:     getEnv("GOOGLE_TOKEN_JSON", ""),
		GoogleTokenFile:     getEnv("GOOGLE_TOKEN_FILE", ""),
		CollaboratorTimeout: getEnvAsDuration("COLLABORATOR_TIMEOUT", 15*time.Second),

		StorageBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", "drive"))),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", "meal-images"),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		FeedbackEmailTo:   getEnv("FEEDBACK_EMAIL_TO", ""),
		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Nutrition Bot"),
	}
}

// GoogleEnabled reports whether any Google collaborator needs credentials.
func (c *Config) GoogleEnabled() bool {
	return strings.TrimSpace(c.SpreadsheetID) != "" ||
		(c.StorageBackend == "drive" && strings.TrimSpace(c.DriveFolderID) != "")
}

// Validate reports configuration that must stop the process before it serves.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	switch c.RoutingMode {
	case "model", "business":
	default:
		errs = append(errs, fmt.Errorf("ROUTING_MODE must be model or business, got %q", c.RoutingMode))
	}
	switch c.HistoryBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("HISTORY_BACKEND must be memory or redis, got %q", c.HistoryBackend))
	}
	if c.HistoryLimit <= 0 || c.HistoryLimit > MaxHistoryLimit {
		errs = append(errs, fmt.Errorf("HISTORY_LIMIT must be between 1 and %d, got %d", MaxHistoryLimit, c.HistoryLimit))
	}
	if err := c.validateProvider(c.LLMProvider); err != nil {
		errs = append(errs, err)
	}
	if c.LLMFallbackProvider != "" {
		if err := c.validateProvider(c.LLMFallbackProvider); err != nil {
			errs = append(errs, fmt.Errorf("fallback: %w", err))
		}
	}
	switch c.StorageBackend {
	case "drive", "none":
	case "s3":
		if strings.TrimSpace(c.S3Bucket) == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be drive, s3 or none, got %q", c.StorageBackend))
	}
	if c.GoogleEnabled() && strings.TrimSpace(c.GoogleTokenJSON) == "" && strings.TrimSpace(c.GoogleTokenFile) == "" {
		errs = append(errs, errors.New("GOOGLE_TOKEN_JSON or GOOGLE_TOKEN_FILE is required when Sheets or Drive logging is enabled"))
	}
	return errors.Join(errs...)
}

func (c *Config) validateProvider(provider string) error {
	switch provider {
	case "openai":
		if strings.TrimSpace(c.LLMAPIKey) == "" {
			return errors.New("LLM_API_KEY is required for the openai provider")
		}
	case "gemini":
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	case "bedrock":
		if strings.TrimSpace(c.BedrockModelID) == "" {
			return errors.New("BEDROCK_MODEL_ID is required for the bedrock provider")
		}
	default:
		return fmt.Errorf("unknown LLM provider %q", provider)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

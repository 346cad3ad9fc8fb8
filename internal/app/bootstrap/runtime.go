package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	appconfig "github.com/wolfman30/nutribot/internal/config"
	"github.com/wolfman30/nutribot/internal/conversation"
	"github.com/wolfman30/nutribot/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildHistoryStore picks the conversation memory backend. A Redis backend
// that cannot be reached degrades to process memory. The returned close
// func is never nil.
func BuildHistoryStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.HistoryStore, func() error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() error { return nil }
	if cfg.HistoryBackend != "redis" {
		logger.Info("using in-memory conversation history", "limit", cfg.HistoryLimit)
		return conversation.NewMemoryHistoryStore(cfg.HistoryLimit), noop
	}

	client := BuildRedisClient(ctx, cfg, logger, true)
	if client == nil {
		logger.Warn("redis history unavailable; falling back to in-memory history", "addr", cfg.RedisAddr)
		return conversation.NewMemoryHistoryStore(cfg.HistoryLimit), noop
	}
	logger.Info("using redis conversation history", "addr", cfg.RedisAddr, "limit", cfg.HistoryLimit, "ttl", cfg.HistoryTTL.String())
	store := conversation.NewRedisHistoryStore(client, cfg.HistoryLimit, cfg.HistoryTTL, otel.Tracer("nutribot/conversation"))
	return store, client.Close
}

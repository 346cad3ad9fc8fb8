package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultHistoryTTL = 24 * time.Hour

// RedisHistoryStore keeps each user's turns in a Redis list. Append pushes and
// trims inside one MULTI so concurrent writers for a key cannot overshoot the cap.
type RedisHistoryStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	limit  int
	ttl    time.Duration
}

func NewRedisHistoryStore(client *redis.Client, limit int, ttl time.Duration, tracer trace.Tracer) *RedisHistoryStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("nutribot.internal.conversation.history")
	}
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	return &RedisHistoryStore{
		redis:  client,
		tracer: tracer,
		limit:  limit,
		ttl:    ttl,
	}
}

func (s *RedisHistoryStore) Append(ctx context.Context, userKey string, turn Turn) error {
	ctx, span := s.tracer.Start(ctx, "conversation.append_turn",
		trace.WithAttributes(attribute.String("history.user_key", userKey)))
	defer span.End()

	data, err := json.Marshal(turn)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal turn: %w", err)
	}

	key := historyKey(userKey)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-s.limit), -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist turn: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) Turns(ctx context.Context, userKey string) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_turns",
		trace.WithAttributes(attribute.String("history.user_key", userKey)))
	defer span.End()

	raw, err := s.redis.LRange(ctx, historyKey(userKey), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("conversation: failed to decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func historyKey(userKey string) string {
	return fmt.Sprintf("history:%s", userKey)
}

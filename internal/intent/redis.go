package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shadowbot/shadowbot/internal/models"
)

var _ models.IntentStore = (*RedisStore)(nil)

// RedisStore keeps pending intents in Redis so they survive restarts and are
// shared between bot replicas.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func intentKey(chatID string) string {
	return fmt.Sprintf("intent:%s", chatID)
}

func (s *RedisStore) Set(ctx context.Context, chatID string, intent models.Intent) error {
	if intent == models.IntentNone {
		return s.rdb.Del(ctx, intentKey(chatID)).Err()
	}
	if err := s.rdb.Set(ctx, intentKey(chatID), string(intent), s.ttl).Err(); err != nil {
		return fmt.Errorf("set intent failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Pop(ctx context.Context, chatID string) (models.Intent, error) {
	val, err := s.rdb.GetDel(ctx, intentKey(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.IntentNone, nil
	}
	if err != nil {
		return models.IntentNone, fmt.Errorf("getdel intent failed: %w", err)
	}
	return models.Intent(val), nil
}

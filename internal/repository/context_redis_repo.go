package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"yagpt-bot/internal/models"
)

// RedisContextStore keeps each conversation window in a Redis list so several
// webhook replicas share one memory.
type RedisContextStore struct {
	redis  *redis.Client
	window int
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, window int, ttl time.Duration) *RedisContextStore {
	if window <= 0 {
		window = DefaultContextWindow
	}
	return &RedisContextStore{redis: client, window: window, ttl: ttl}
}

func contextKey(conversationID int64) string {
	return fmt.Sprintf("context:%d", conversationID)
}

func (s *RedisContextStore) Append(ctx context.Context, conversationID int64, turn models.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to encode turn: %w", err)
	}

	key := contextKey(conversationID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, int64(-s.window), -1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append turn for %d: %w", conversationID, err)
	}
	return nil
}

func (s *RedisContextStore) Recent(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}
	if limit > s.window {
		limit = s.window
	}

	raw, err := s.redis.LRange(ctx, contextKey(conversationID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read context for %d: %w", conversationID, err)
	}

	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var turn models.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("failed to decode turn for %d: %w", conversationID, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisContextStore) Clear(ctx context.Context, conversationID int64) error {
	if err := s.redis.Del(ctx, contextKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("failed to clear context for %d: %w", conversationID, err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"yagpt-bot/internal/models"
)

const (
	usageUsersKey    = "usage:users"
	usageMessagesKey = "usage:messages"
)

// RedisUsageCounter updates the per-user hash and the global total in one
// MULTI/EXEC so both move together.
type RedisUsageCounter struct {
	redis *redis.Client
}

func NewRedisUsageCounter(client *redis.Client) *RedisUsageCounter {
	return &RedisUsageCounter{redis: client}
}

func (c *RedisUsageCounter) Record(ctx context.Context, userID int64) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, usageUsersKey, strconv.FormatInt(userID, 10), 1)
		pipe.Incr(ctx, usageMessagesKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record usage for %d: %w", userID, err)
	}
	return nil
}

func (c *RedisUsageCounter) Snapshot(ctx context.Context) (models.UsageSnapshot, error) {
	var usersCmd *redis.MapStringStringCmd
	var totalCmd *redis.StringCmd

	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		usersCmd = pipe.HGetAll(ctx, usageUsersKey)
		totalCmd = pipe.Get(ctx, usageMessagesKey)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.UsageSnapshot{}, fmt.Errorf("failed to read usage: %w", err)
	}

	snap := models.UsageSnapshot{Users: make(map[int64]int64)}
	for rawID, rawCount := range usersCmd.Val() {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(rawCount, 10, 64)
		if err != nil {
			continue
		}
		snap.Users[id] = n
	}

	if total, err := totalCmd.Int64(); err == nil {
		snap.Messages = total
	}
	return snap, nil
}

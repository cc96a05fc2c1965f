package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"yagpt-bot/internal/fsstore"
	"yagpt-bot/internal/models"
)

// MemoryUsageCounter counts messages per user and in total under one lock.
// When created with NewFileUsageCounter the whole structure is rewritten to
// disk after every Record.
type MemoryUsageCounter struct {
	mu       sync.Mutex
	users    map[int64]int64
	total    int64
	path     string
	lockWait time.Duration
}

// DefaultStatsLockWait bounds how long Record waits for the stats file lock.
// Delivery contexts are never cancelled, so the wait must end on its own.
const DefaultStatsLockWait = 5 * time.Second

func NewMemoryUsageCounter() *MemoryUsageCounter {
	return &MemoryUsageCounter{users: make(map[int64]int64)}
}

// NewFileUsageCounter loads path if it exists and persists every update back to it.
func NewFileUsageCounter(path string) (*MemoryUsageCounter, error) {
	c := NewMemoryUsageCounter()
	c.path = path
	c.lockWait = DefaultStatsLockWait

	var file models.UsageFile
	found, err := fsstore.ReadJSON(path, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats file: %w", err)
	}
	if !found {
		return c, nil
	}

	for rawID, n := range file.Users {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		c.users[id] = n
		c.total += n
	}
	// The stored "messages" field is ignored; the total is always the sum of
	// the per-user counts.
	return c, nil
}

func (c *MemoryUsageCounter) Record(ctx context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.users[userID]++
	c.total++

	if c.path == "" {
		return nil
	}
	return c.saveLocked(ctx)
}

func (c *MemoryUsageCounter) Snapshot(ctx context.Context) (models.UsageSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	users := make(map[int64]int64, len(c.users))
	for id, n := range c.users {
		users[id] = n
	}
	return models.UsageSnapshot{Users: users, Messages: c.total}, nil
}

func (c *MemoryUsageCounter) saveLocked(ctx context.Context) error {
	file := models.UsageFile{
		Users:    make(map[string]int64, len(c.users)),
		Messages: c.total,
	}
	for id, n := range c.users {
		file.Users[strconv.FormatInt(id, 10)] = n
	}

	ctx, cancel := context.WithTimeout(ctx, c.lockWait)
	defer cancel()

	err := fsstore.WithLock(ctx, c.path+".lock", func() error {
		return fsstore.WriteJSONAtomic(c.path, file, fsstore.FileOptions{})
	})
	if err != nil {
		return fmt.Errorf("failed to save stats file: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"sync"

	"yagpt-bot/internal/models"
)

const DefaultContextWindow = 5

// MemoryContextStore keeps a bounded FIFO window of turns per conversation for
// the lifetime of the process.
type MemoryContextStore struct {
	mu     sync.Mutex
	window int
	turns  map[int64][]models.Turn
}

func NewMemoryContextStore(window int) *MemoryContextStore {
	if window <= 0 {
		window = DefaultContextWindow
	}
	return &MemoryContextStore{
		window: window,
		turns:  make(map[int64][]models.Turn),
	}
}

func (s *MemoryContextStore) Append(ctx context.Context, conversationID int64, turn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.turns[conversationID], turn)
	if over := len(turns) - s.window; over > 0 {
		// Copy so the evicted head can be collected.
		turns = append([]models.Turn(nil), turns[over:]...)
	}
	s.turns[conversationID] = turns
	return nil
}

func (s *MemoryContextStore) Recent(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.turns[conversationID]
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryContextStore) Clear(ctx context.Context, conversationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.turns, conversationID)
	return nil
}

package progress

import (
	"context"
	"slices"
	"sync"
	"time"
)

var _ Store = &MemoryStore{}

// MemoryStore keeps progress in process memory
type MemoryStore struct {
	// Now returns the current time, time.Now if nil
	Now func() time.Time

	mu         sync.RWMutex
	solved     map[string]struct{}
	streak     int
	lastSolved string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{solved: make(map[string]struct{})}
}

// IsSolved implements Store
func (s *MemoryStore) IsSolved(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.solved[id]
	return ok, nil
}

// MarkSolved implements Store
func (s *MemoryStore) MarkSolved(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.solved[id]; ok {
		return nil
	}
	s.solved[id] = struct{}{}
	today := now(s.Now)
	s.streak = nextStreak(s.streak, s.lastSolved, today)
	s.lastSolved = today.Format(DateLayout)
	return nil
}

// MarkUnsolved implements Store
func (s *MemoryStore) MarkUnsolved(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.solved, id)
	return nil
}

// Stats implements Store
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.solved))
	for id := range s.solved {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return Stats{
		Solved:     len(ids),
		Streak:     s.streak,
		LastSolved: s.lastSolved,
		SolvedIDs:  ids,
	}, nil
}

func now(f func() time.Time) time.Time {
	if f == nil {
		return time.Now()
	}
	return f()
}

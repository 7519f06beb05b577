package handoff

import (
	"context"
	"sync"
)

// MemorySet is a process-lifetime conversation set. Contents are lost on
// restart.
type MemorySet struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func NewMemorySet() *MemorySet {
	return &MemorySet{ids: make(map[int64]struct{})}
}

func (s *MemorySet) Has(_ context.Context, conversationID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[conversationID]
	return ok, nil
}

func (s *MemorySet) Add(_ context.Context, conversationID int64) error {
	s.mu.Lock()
	s.ids[conversationID] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Len returns the number of conversations in the set.
func (s *MemorySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

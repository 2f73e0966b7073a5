package ledger

import (
	"context"
	"sync"
)

type inMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	tail    int
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Store {
	return &inMemoryStore{tail: -1}
}

func (s *inMemoryStore) LastEntry(_ context.Context) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tail < 0 {
		return Entry{}, false, nil
	}
	return s.entries[s.tail], true, nil
}

func (s *inMemoryStore) Append(_ context.Context, entry Entry) error {
	if entry.BalanceAfter().IsNegative() {
		return ErrNegativeBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Sequence != uint64(len(s.entries))+1 {
		return ErrConcurrentModification
	}

	s.entries = append(s.entries, entry)
	if s.tail < 0 || newer(entry, s.entries[s.tail]) {
		s.tail = len(s.entries) - 1
	}
	return nil
}

// Len reports how many entries the log holds.
func (s *inMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

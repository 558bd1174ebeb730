package storage

import (
	"sync"

	"github.com/taxlot/matcher/internal/types"
)

// InMemoryMatchStore implements MatchStore using a bounded buffer that keeps
// only the N most recent matches.
type InMemoryMatchStore struct {
	matches []*types.Match
	maxSize int
	mutex   sync.RWMutex
}

// NewInMemoryMatchStore creates a new in-memory match store with a size limit.
func NewInMemoryMatchStore(maxSize int) *InMemoryMatchStore {
	return &InMemoryMatchStore{
		matches: make([]*types.Match, 0, maxSize),
		maxSize: maxSize,
	}
}

func (s *InMemoryMatchStore) Save(match *types.Match) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.matches = append(s.matches, match)
	if len(s.matches) > s.maxSize {
		s.matches = s.matches[len(s.matches)-s.maxSize:]
	}
	return nil
}

func (s *InMemoryMatchStore) SaveBatch(matches []*types.Match) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.matches = append(s.matches, matches...)
	if len(s.matches) > s.maxSize {
		s.matches = s.matches[len(s.matches)-s.maxSize:]
	}
	return nil
}

func (s *InMemoryMatchStore) GetRecent(limit int) ([]*types.Match, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 || limit > len(s.matches) {
		limit = len(s.matches)
	}
	start := len(s.matches) - limit
	result := make([]*types.Match, limit)
	copy(result, s.matches[start:])
	return result, nil
}

func (s *InMemoryMatchStore) Close() error {
	return nil
}

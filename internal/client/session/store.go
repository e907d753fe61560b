package session

import (
	"sync"

	"github.com/dmitrijs2005/tokenkeeper/internal/client/api"
)

// Store persists the current token pair between checks. Load returns
// (nil, nil) when no session is stored.
type Store interface {
	Save(pair *api.TokenPair) error
	Load() (*api.TokenPair, error)
	Clear() error
}

// MemoryStore keeps the pair in process memory. It is the right choice
// for a CLI session that dies with the process.
type MemoryStore struct {
	mu   sync.Mutex
	pair *api.TokenPair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(pair *api.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *pair
	s.pair = &p
	return nil
}

func (s *MemoryStore) Load() (*api.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pair == nil {
		return nil, nil
	}
	p := *s.pair
	return &p, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}

package memory

import (
	"context"
	"sync"

	"github.com/Apurer/herdbook-api/internal/domains/logs/ports"
)

var _ ports.KeyValueStore = (*Store)(nil)

// Store keeps values in process memory. Contents are lost on restart.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStore constructs an empty in-memory key space.
func NewStore() *Store {
	return &Store{values: map[string][]byte{}}
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set overwrites the value for key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

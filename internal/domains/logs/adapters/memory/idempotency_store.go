package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/herdbook-api/internal/domains/logs/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore remembers append keys in process memory.
type IdempotencyStore struct {
	mu   sync.RWMutex
	keys map[string]ports.IdempotencyRecord
	now  func() time.Time
}

// NewIdempotencyStore constructs an empty in-memory store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: map[string]ports.IdempotencyRecord{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns the record for key, or nil when the key was never saved.
func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.keys[key]; ok {
		return &rec, nil
	}
	return nil, nil
}

// Save stores the first record seen for a key; later saves must match it.
func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.keys[record.Key]; ok {
		if stored.RequestHash != record.RequestHash || stored.RecordID != record.RecordID {
			return &stored, ports.ErrIdempotencyConflict
		}
		return &stored, nil
	}
	record.CreatedAt = s.now()
	record.UpdatedAt = record.CreatedAt
	s.keys[record.Key] = record
	return &record, nil
}

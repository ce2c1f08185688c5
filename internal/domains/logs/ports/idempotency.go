package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload or collection.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord ties a client-supplied key to the record its append created.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	RecordID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdempotencyStore persists idempotency keys so retried appends are replayed instead of duplicated.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record; an existing key with the same hash and record id is returned as is.
	// An existing key pointing elsewhere returns ErrIdempotencyConflict with the stored record.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}

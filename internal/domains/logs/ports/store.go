package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record carries the requested id.
var ErrNotFound = errors.New("log record not found")

// KeyValueStore is the string-keyed local storage every collection lives in.
type KeyValueStore interface {
	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

package types

import "github.com/Apurer/herdbook-api/internal/domains/logs/domain"

// SaveWarning is reported when a write could not be persisted.
const SaveWarning = "could not save locally"

// AppendInput carries a new record; IdempotencyKey is optional.
type AppendInput struct {
	Collection     domain.Collection
	Record         domain.Record
	IdempotencyKey string
}

// ReplaceInput swaps the record with ID for Record.
type ReplaceInput struct {
	Collection domain.Collection
	ID         string
	Record     domain.Record
}

// PregnancyInput sets the pregnancy status of a breeding record.
type PregnancyInput struct {
	ID     string
	Status domain.PregnancyStatus
}

// WriteResult is the outcome of a write. Warning is set when persisting failed.
type WriteResult struct {
	Record   domain.Record
	Warning  string
	Replayed bool
	// SaveErr is the storage failure behind Warning.
	SaveErr error
	// KeyErr is set when the record was stored but its idempotency key was not.
	KeyErr error
}

// Saved reports whether the write reached storage.
func (r WriteResult) Saved() bool { return r.Warning == "" }

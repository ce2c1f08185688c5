package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/Apurer/herdbook-api/internal/domains/logs/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
	"github.com/Apurer/herdbook-api/internal/domains/logs/ports"
)

// Service keeps the breeding, feed and birth collections in a key value store.
type Service struct {
	store       ports.KeyValueStore
	notifier    ports.Notifier
	idempotency ports.IdempotencyStore
	newID       func() string
	now         func() time.Time

	// mu serializes every read-mutate-write cycle.
	mu sync.Mutex
}

type Option func(*Service)

// WithIdempotencyStore enables replay of appends that carry an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) { s.idempotency = store }
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService wires the logs service. notifier may be nil when nobody listens.
func NewService(store ports.KeyValueStore, notifier ports.Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Append stamps the record with an id and timestamps and pushes it onto the collection.
func (s *Service) Append(ctx context.Context, input types.AppendInput) (*types.WriteResult, error) {
	if err := input.Record.Validate(input.Collection); err != nil {
		return nil, mapError(err)
	}

	var (
		hash     string
		reuseID  string
		useIdemp = s.idempotency != nil && input.IdempotencyKey != ""
	)
	if useIdemp {
		var err error
		if hash, err = FingerprintAppend(input.Collection, input.Record); err != nil {
			return nil, err
		}
	}

	// The key lookup, the append and the key save form one critical section so
	// concurrent retries of the same key append at most once.
	s.mu.Lock()
	defer s.mu.Unlock()

	if useIdemp {
		existing, err := s.idempotency.Get(ctx, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.RequestHash != hash {
				return nil, ports.ErrIdempotencyConflict
			}
			if rec, ok := findRecord(s.ReadAll(ctx, input.Collection), existing.RecordID); ok {
				return &types.WriteResult{Record: rec, Replayed: true}, nil
			}
			// The first attempt never reached storage; retry it under the same id.
			reuseID = existing.RecordID
		}
	}

	records, _ := s.read(ctx, input.Collection)
	now := s.now().UTC()
	rec := input.Record.Clone()
	rec.ID = reuseID
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	records = append(records, rec)

	result := &types.WriteResult{Record: rec.Clone()}
	if err := s.write(ctx, input.Collection, records); err != nil {
		result.Warning = types.SaveWarning
		result.SaveErr = err
		return result, nil
	}
	s.publish(domain.ChangeEvent{Collection: input.Collection, Kind: domain.ChangeAppended, Record: rec.Clone()})

	if useIdemp {
		// The record is stored; a key that cannot be saved only loses replay for later retries.
		if _, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
			Key:         input.IdempotencyKey,
			RequestHash: hash,
			RecordID:    rec.ID,
		}); err != nil {
			result.KeyErr = err
		}
	}
	return result, nil
}

// ReadAll returns the collection, or an empty one when storage fails or holds garbage.
func (s *Service) ReadAll(ctx context.Context, collection domain.Collection) []domain.Record {
	records, _ := s.read(ctx, collection)
	return records
}

// Replace swaps the record carrying input.ID, keeping its id and creation time.
func (s *Service) Replace(ctx context.Context, input types.ReplaceInput) (*types.WriteResult, error) {
	if err := input.Record.Validate(input.Collection); err != nil {
		return nil, mapError(err)
	}
	return s.update(ctx, input.Collection, input.ID, func(current domain.Record) (domain.Record, error) {
		next := input.Record.Clone()
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		return next, nil
	})
}

// UpdatePregnancyStatus sets the status of a breeding record.
func (s *Service) UpdatePregnancyStatus(ctx context.Context, input types.PregnancyInput) (*types.WriteResult, error) {
	status, err := domain.ParsePregnancyStatus(string(input.Status))
	if err != nil {
		return nil, mapError(err)
	}
	return s.update(ctx, domain.CollectionBreeding, input.ID, func(current domain.Record) (domain.Record, error) {
		next := current.Clone()
		if err := next.SetPregnancyStatus(status); err != nil {
			return domain.Record{}, err
		}
		return next, nil
	})
}

// Watch calls fn with the current collection and again after each change to it.
func (s *Service) Watch(ctx context.Context, collection domain.Collection, fn func([]domain.Record)) error {
	if _, err := domain.ParseCollection(string(collection)); err != nil {
		return mapError(err)
	}
	if s.notifier == nil {
		fn(s.ReadAll(ctx, collection))
		<-ctx.Done()
		return nil
	}
	events, unsubscribe := s.notifier.Subscribe()
	defer unsubscribe()

	fn(s.ReadAll(ctx, collection))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Collection == collection {
				fn(s.ReadAll(ctx, collection))
			}
		}
	}
}

func (s *Service) update(ctx context.Context, collection domain.Collection, id string, fn func(domain.Record) (domain.Record, error)) (*types.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.read(ctx, collection)
	idx := indexOf(records, id)
	if idx < 0 || id == "" {
		return nil, fmt.Errorf("%w: %s/%s", ports.ErrNotFound, collection, id)
	}
	next, err := fn(records[idx])
	if err != nil {
		return nil, mapError(err)
	}
	next.UpdatedAt = s.now().UTC()
	records[idx] = next

	result := &types.WriteResult{Record: next.Clone()}
	if err := s.write(ctx, collection, records); err != nil {
		result.Warning = types.SaveWarning
		result.SaveErr = err
		return result, nil
	}
	s.publish(domain.ChangeEvent{Collection: collection, Kind: domain.ChangeReplaced, Record: next.Clone()})
	return result, nil
}

func (s *Service) read(ctx context.Context, collection domain.Collection) ([]domain.Record, error) {
	raw, ok, err := s.store.Get(ctx, string(collection))
	if err != nil {
		return []domain.Record{}, err
	}
	if !ok {
		return []domain.Record{}, nil
	}
	return DecodeCollection(raw), nil
}

func (s *Service) write(ctx context.Context, collection domain.Collection, records []domain.Record) error {
	payload, err := EncodeCollection(records)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	return s.store.Set(ctx, string(collection), payload)
}

func (s *Service) publish(event domain.ChangeEvent) {
	if s.notifier != nil {
		s.notifier.Publish(event)
	}
}

func indexOf(records []domain.Record, id string) int {
	for i, rec := range records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func findRecord(records []domain.Record, id string) (domain.Record, bool) {
	if idx := indexOf(records, id); idx >= 0 && id != "" {
		return records[idx], true
	}
	return domain.Record{}, false
}

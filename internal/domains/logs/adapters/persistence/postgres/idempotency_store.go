package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/herdbook-api/internal/domains/logs/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore persists append keys in PostgreSQL.
type IdempotencyStore struct {
	db *gorm.DB
}

// NewIdempotencyStore wires a PostgreSQL-backed idempotency store.
func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// IdempotencyKeyRecord maps one append key to the record it created.
type IdempotencyKeyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	RecordID    string    `gorm:"column:record_id;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (IdempotencyKeyRecord) TableName() string { return "log_idempotency_keys" }

// Get loads a record by key, returning nil when absent.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var row IdempotencyKeyRecord
	if err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPortRecord(row), nil
}

// Save inserts the key. A duplicate key is returned as is when it matches, otherwise
// ErrIdempotencyConflict is returned with the stored record.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	row := IdempotencyKeyRecord{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		RecordID:    record.RecordID,
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		return toPortRecord(row), nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	stored, getErr := s.Get(ctx, record.Key)
	if getErr != nil {
		return nil, getErr
	}
	if stored == nil {
		return nil, err
	}
	if stored.RequestHash != record.RequestHash || stored.RecordID != record.RecordID {
		return stored, ports.ErrIdempotencyConflict
	}
	return stored, nil
}

func (s *IdempotencyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency store not configured")
	}
	return nil
}

func toPortRecord(row IdempotencyKeyRecord) *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		RecordID:    row.RecordID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

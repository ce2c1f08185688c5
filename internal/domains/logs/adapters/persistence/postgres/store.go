package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/herdbook-api/internal/domains/logs/ports"
)

var _ ports.KeyValueStore = (*Store)(nil)

// Store keeps the local key space in PostgreSQL so collections survive restarts.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed key space. Caller manages DB lifecycle and migrations.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// LocalStorageRecord is one key of the local key space.
type LocalStorageRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:64"`
	Value     []byte    `gorm:"column:value;type:bytea"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (LocalStorageRecord) TableName() string { return "local_storage" }

// Get loads the value for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.ensureDB(); err != nil {
		return nil, false, err
	}
	var record LocalStorageRecord
	if err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return record.Value, true, nil
}

// Set upserts the value for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := LocalStorageRecord{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres local storage not configured")
	}
	return nil
}

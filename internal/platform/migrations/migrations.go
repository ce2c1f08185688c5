package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&wizardRecord{},
		&localStorageRecord{},
		&logIdempotencyRecord{},
	)
}

// Wizard schema mirrors the registrations Postgres adapter. JSON columns hold the draft.
type wizardRecord struct {
	ID          string         `gorm:"primaryKey;column:id;size:64"`
	CurrentStep int            `gorm:"column:current_step"`
	State       string         `gorm:"column:state;type:varchar(32)"`
	Sequence    int64          `gorm:"column:sequence"`
	Uploading   bool           `gorm:"column:uploading"`
	ReferenceID string         `gorm:"column:reference_id;index"`
	Details     []byte         `gorm:"column:details;type:jsonb"`
	Attachments []byte         `gorm:"column:attachments;type:jsonb"`
	FilledSlots pq.StringArray `gorm:"column:filled_slots;type:text[]"`
	LastOutcome []byte         `gorm:"column:last_outcome;type:jsonb"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;index"`
}

func (wizardRecord) TableName() string { return "registration_wizards" }

// Local storage schema mirrors the logs key space adapter.
type localStorageRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:64"`
	Value     []byte    `gorm:"column:value;type:bytea"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (localStorageRecord) TableName() string { return "local_storage" }

// Idempotency schema mirrors the logs idempotency adapter.
type logIdempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	RecordID    string    `gorm:"column:record_id;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (logIdempotencyRecord) TableName() string { return "log_idempotency_keys" }

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists registration wizards in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// wizardRecord maps a wizard and its draft onto one row.
type wizardRecord struct {
	ID          string                            `gorm:"primaryKey;column:id;size:64"`
	CurrentStep int                               `gorm:"column:current_step"`
	State       string                            `gorm:"column:state;type:varchar(32)"`
	Sequence    int64                             `gorm:"column:sequence"`
	Uploading   bool                              `gorm:"column:uploading"`
	ReferenceID string                            `gorm:"column:reference_id;index"`
	Details     domain.AnimalDetails              `gorm:"column:details;serializer:json"`
	Attachments map[domain.Slot]domain.Attachment `gorm:"column:attachments;serializer:json"`
	FilledSlots pq.StringArray                    `gorm:"column:filled_slots;type:text[]"`
	LastOutcome *domain.Outcome                   `gorm:"column:last_outcome;serializer:json"`
	CreatedAt   time.Time                         `gorm:"column:created_at"`
	UpdatedAt   time.Time                         `gorm:"column:updated_at;index"`
}

func (wizardRecord) TableName() string { return "registration_wizards" }

// Save inserts or updates a wizard.
func (r *Repository) Save(ctx context.Context, wizard *domain.Wizard) (*types.WizardProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if wizard == nil {
		return nil, errors.New("wizard is nil")
	}
	if wizard.ID == "" {
		return nil, domain.ErrEmptyWizardID
	}
	record := toRecord(wizard)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"current_step": record.CurrentStep,
				"state":        record.State,
				"sequence":     record.Sequence,
				"uploading":    record.Uploading,
				"reference_id": record.ReferenceID,
				"details":      gorm.Expr("EXCLUDED.details"),
				"attachments":  gorm.Expr("EXCLUDED.attachments"),
				"filled_slots": record.FilledSlots,
				"last_outcome": gorm.Expr("EXCLUDED.last_outcome"),
				"updated_at":   gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a wizard by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*types.WizardProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record wizardRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// Delete removes a wizard by identifier.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&wizardRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// ListUpdatedBefore returns wizards untouched since cutoff.
func (r *Repository) ListUpdatedBefore(ctx context.Context, cutoff time.Time) ([]*types.WizardProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []wizardRecord
	if err := r.db.WithContext(ctx).Where("updated_at < ?", cutoff).Order("updated_at").Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]*types.WizardProjection, 0, len(records))
	for i := range records {
		list = append(list, records[i].toProjection())
	}
	return list, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres registration repository not configured")
	}
	return nil
}

func toRecord(w *domain.Wizard) wizardRecord {
	filled := w.Draft.FilledSlots()
	slots := make(pq.StringArray, 0, len(filled))
	for _, slot := range filled {
		slots = append(slots, string(slot))
	}
	clone := w.Clone()
	return wizardRecord{
		ID:          clone.ID,
		CurrentStep: int(clone.CurrentStep),
		State:       string(clone.State),
		Sequence:    int64(clone.Sequence),
		Uploading:   clone.Uploading,
		ReferenceID: clone.Draft.ReferenceID,
		Details:     clone.Draft.Details,
		Attachments: clone.Draft.Attachments,
		FilledSlots: slots,
		LastOutcome: clone.LastOutcome,
	}
}

func (r wizardRecord) toProjection() *types.WizardProjection {
	state := domain.State(r.State)
	if state == "" {
		state = domain.StateIdle
	}
	wizard := &domain.Wizard{
		ID:          r.ID,
		CurrentStep: domain.Step(r.CurrentStep),
		State:       state,
		Sequence:    uint64(r.Sequence),
		Uploading:   r.Uploading,
		LastOutcome: r.LastOutcome,
		Draft: domain.RegistrationDraft{
			ReferenceID: r.ReferenceID,
			Details:     r.Details,
			Attachments: r.Attachments,
		},
	}
	if len(wizard.Draft.Attachments) == 0 {
		wizard.Draft.Attachments = nil
	}
	return types.NewWizardProjection(wizard, r.CreatedAt, r.UpdatedAt)
}

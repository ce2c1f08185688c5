package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	types "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	"github.com/Apurer/herdbook-api/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

type entry struct {
	wizard *domain.Wizard
	meta   projection.Metadata
}

// Repository keeps wizards in process memory.
type Repository struct {
	mu      sync.RWMutex
	wizards map[string]entry
	now     func() time.Time
}

func NewRepository() *Repository {
	return &Repository{wizards: map[string]entry{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Save(_ context.Context, wizard *domain.Wizard) (*types.WizardProjection, error) {
	if wizard == nil {
		return nil, errors.New("wizard is nil")
	}
	if wizard.ID == "" {
		return nil, domain.ErrEmptyWizardID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.wizards[wizard.ID]
	stored.wizard = wizard.Clone()
	stored.meta.Touch(r.now())
	r.wizards[wizard.ID] = stored
	return stored.projection(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*types.WizardProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.wizards[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return stored.projection(), nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wizards[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.wizards, id)
	return nil
}

func (r *Repository) ListUpdatedBefore(_ context.Context, cutoff time.Time) ([]*types.WizardProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*types.WizardProjection, 0)
	for _, stored := range r.wizards {
		if stored.meta.IdleBefore(cutoff) {
			list = append(list, stored.projection())
		}
	}
	return list, nil
}

func (e entry) projection() *types.WizardProjection {
	return types.NewWizardProjection(e.wizard.Clone(), e.meta.CreatedAt, e.meta.UpdatedAt)
}

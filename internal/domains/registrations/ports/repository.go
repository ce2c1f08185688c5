package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
)

var ErrNotFound = errors.New("registration wizard not found")

// Repository persists wizards between requests.
type Repository interface {
	Save(ctx context.Context, wizard *domain.Wizard) (*types.WizardProjection, error)
	GetByID(ctx context.Context, id string) (*types.WizardProjection, error)
	Delete(ctx context.Context, id string) error
	// ListUpdatedBefore returns wizards untouched since cutoff.
	ListUpdatedBefore(ctx context.Context, cutoff time.Time) ([]*types.WizardProjection, error)
}

package types

import (
	"time"

	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
	"github.com/Apurer/herdbook-api/internal/shared/projection"
)

// WizardProjection transports a wizard together with its persistence metadata.
type WizardProjection struct {
	Wizard   *domain.Wizard
	Metadata projection.Metadata
}

// NewWizardProjection wraps a wizard with persistence metadata.
func NewWizardProjection(wizard *domain.Wizard, createdAt, updatedAt time.Time) *WizardProjection {
	if wizard == nil {
		return nil
	}
	return &WizardProjection{
		Wizard:   wizard,
		Metadata: projection.Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
}

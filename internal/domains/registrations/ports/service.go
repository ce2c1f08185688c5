package ports

import (
	"context"
	"time"

	"github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
)

// Service defines the registration wizard use cases exposed to adapters.
type Service interface {
	Start(ctx context.Context) (*types.WizardProjection, error)
	Get(ctx context.Context, input types.WizardIdentifier) (*types.WizardProjection, error)
	UpdateDraft(ctx context.Context, input types.UpdateDraftInput) (*types.WizardProjection, error)
	Next(ctx context.Context, input types.WizardIdentifier) (*types.StepResult, error)
	Back(ctx context.Context, input types.WizardIdentifier) (*types.StepResult, error)
	SetAttachment(ctx context.Context, input types.AttachmentInput) (*types.WizardProjection, error)
	ClearAttachment(ctx context.Context, input types.ClearAttachmentInput) (*types.WizardProjection, error)
	DetectMuzzle(ctx context.Context, input types.WizardIdentifier) (*types.MuzzleResult, error)
	ClaimMuzzle(ctx context.Context, input types.ClaimInput) (*types.MuzzleMatch, error)
	ReferenceData(ctx context.Context, bearerToken string) (*types.ReferenceData, error)
	Submit(ctx context.Context, input types.SubmitInput) (*types.SubmitResult, error)
	Reset(ctx context.Context, input types.WizardIdentifier) (*types.WizardProjection, error)
	PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int, error)
}

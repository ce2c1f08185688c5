package ports

import (
	"context"

	"github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
)

// SubmissionOrchestrator runs the asset-creation request, durably or inline.
type SubmissionOrchestrator interface {
	Submit(ctx context.Context, submission types.AssetSubmission) (*types.SubmissionResponse, error)
}

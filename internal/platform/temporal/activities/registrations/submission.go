package registrations

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	regtypes "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	regports "github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
)

// SubmitAssetActivityName posts a registration to the farm backend.
const SubmitAssetActivityName = "registrations.activities.SubmitAsset"

// Activities groups activities that operate on the registrations bounded context.
type Activities struct {
	gateway regports.AssetGateway
}

// NewActivities wires the farm backend gateway into the Temporal activities bundle.
func NewActivities(gateway regports.AssetGateway) *Activities {
	return &Activities{gateway: gateway}
}

// SubmitAsset issues the asset-creation request. HTTP rejections are results, not failures.
func (a *Activities) SubmitAsset(ctx context.Context, submission regtypes.AssetSubmission) (*regtypes.SubmissionResponse, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.gateway == nil {
		logger.Error("asset submission activity not initialized", "wizardId", submission.WizardID)
		return nil, errors.New("asset submission activity not initialized")
	}
	logger.Info("SubmitAsset activity started",
		"wizardId", submission.WizardID,
		"sequence", submission.Sequence,
		"attachments", len(submission.Attachments),
	)
	resp, err := a.gateway.CreateAsset(ctx, submission)
	if err != nil {
		logger.Error("SubmitAsset activity failed", "wizardId", submission.WizardID, "error", err)
		return nil, err
	}
	logger.Info("SubmitAsset activity completed", "wizardId", submission.WizardID, "statusCode", resp.StatusCode)
	return resp, nil
}

package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	regtypes "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	regactivities "github.com/Apurer/herdbook-api/internal/platform/temporal/activities/registrations"
)

// RunAssetSubmissionSequence posts the registration exactly once; a retry is always a new user submission.
func RunAssetSubmissionSequence(ctx workflow.Context, submission regtypes.AssetSubmission) (*regtypes.SubmissionResponse, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("asset submission sequence started", "wizardId", submission.WizardID, "sequence", submission.Sequence)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}

	var response regtypes.SubmissionResponse
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), regactivities.SubmitAssetActivityName, submission).Get(ctx, &response)
	if err != nil {
		logger.Error("asset submission sequence failed", "wizardId", submission.WizardID, "error", err)
		return nil, err
	}
	logger.Info("asset submission sequence finished", "wizardId", submission.WizardID, "statusCode", response.StatusCode)
	return &response, nil
}

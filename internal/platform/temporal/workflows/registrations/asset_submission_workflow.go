package registrations

import (
	"go.temporal.io/sdk/workflow"

	regtypes "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/platform/temporal/sequences"
)

const (
	// AssetSubmissionWorkflowName is the public identifier for registering the workflow.
	AssetSubmissionWorkflowName = "registrations.workflows.AssetSubmission"
	// AssetSubmissionTaskQueue is the queue consumed by the worker processing submissions.
	AssetSubmissionTaskQueue = "ASSET_SUBMISSION"
)

// AssetSubmissionWorkflowInput carries one submission attempt.
type AssetSubmissionWorkflowInput struct {
	Submission regtypes.AssetSubmission
	TraceID    string
}

// AssetSubmissionWorkflow sends a registration to the farm backend.
func AssetSubmissionWorkflow(ctx workflow.Context, input AssetSubmissionWorkflowInput) (*regtypes.SubmissionResponse, error) {
	logger := workflow.GetLogger(ctx)
	wizardID := input.Submission.WizardID
	logger.Info("AssetSubmissionWorkflow started", withTraceID(input.TraceID, "wizardId", wizardID)...)
	response, err := sequences.RunAssetSubmissionSequence(ctx, input.Submission)
	if err != nil {
		logger.Error("AssetSubmissionWorkflow failed", withTraceID(input.TraceID, "wizardId", wizardID, "error", err)...)
		return nil, err
	}
	logger.Info("AssetSubmissionWorkflow completed", withTraceID(input.TraceID, "wizardId", wizardID, "statusCode", response.StatusCode)...)
	return response, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

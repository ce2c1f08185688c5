package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	regtypes "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	regworkflows "github.com/Apurer/herdbook-api/internal/platform/temporal/workflows/registrations"
)

func completedRun(response regtypes.SubmissionResponse) *mocks.WorkflowRun {
	run := &mocks.WorkflowRun{}
	run.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(1).(*regtypes.SubmissionResponse) = response
	}).Return(nil)
	return run
}

func TestTemporalSubmissions_StartsBoundedWorkflow(t *testing.T) {
	temporal := &mocks.Client{}
	var started client.StartWorkflowOptions
	temporal.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { started = args.Get(1).(client.StartWorkflowOptions) }).
		Return(completedRun(regtypes.SubmissionResponse{StatusCode: 201, AssetID: "asset-1"}), nil)

	response, err := NewTemporalSubmissions(temporal).Submit(context.Background(), regtypes.AssetSubmission{WizardID: "wiz-1", Sequence: 4})
	require.NoError(t, err)
	assert.Equal(t, "asset-1", response.AssetID)

	assert.Equal(t, "asset-submission-wiz-1-4", started.ID)
	assert.Equal(t, regworkflows.AssetSubmissionTaskQueue, started.TaskQueue)
	assert.Equal(t, SubmissionWorkflowTimeout, started.WorkflowExecutionTimeout)
	assert.Positive(t, started.WorkflowExecutionTimeout)
	temporal.AssertExpectations(t)
}

func TestTemporalSubmissions_JoinsRunningAttempt(t *testing.T) {
	temporal := &mocks.Client{}
	temporal.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("running", "req-1", "run-9"))
	temporal.On("GetWorkflow", mock.Anything, "asset-submission-wiz-1-2", "run-9").
		Return(completedRun(regtypes.SubmissionResponse{StatusCode: 400, Message: "tag taken"}))

	response, err := NewTemporalSubmissions(temporal).Submit(context.Background(), regtypes.AssetSubmission{WizardID: "wiz-1", Sequence: 2})
	require.NoError(t, err)
	assert.Equal(t, "tag taken", response.Message)
	temporal.AssertExpectations(t)
}

func TestTemporalSubmissions_StartFailure(t *testing.T) {
	temporal := &mocks.Client{}
	unavailable := errors.New("frontend unavailable")
	temporal.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, unavailable)

	_, err := NewTemporalSubmissions(temporal).Submit(context.Background(), regtypes.AssetSubmission{WizardID: "wiz-1", Sequence: 1})
	require.ErrorIs(t, err, unavailable)
}

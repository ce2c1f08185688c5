package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	regtypes "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	regworkflows "github.com/Apurer/herdbook-api/internal/platform/temporal/workflows/registrations"
)

var (
	_ ports.SubmissionOrchestrator = (*TemporalSubmissions)(nil)
	_ ports.SubmissionOrchestrator = (*InlineSubmissions)(nil)
)

// SubmissionWorkflowTimeout bounds one submission workflow, retries included.
const SubmissionWorkflowTimeout = 5 * time.Minute

// TemporalSubmissions runs asset submissions as Temporal workflows.
type TemporalSubmissions struct {
	client    client.Client
	taskQueue string
}

// NewTemporalSubmissions wires a Temporal client into the orchestrator.
func NewTemporalSubmissions(c client.Client) *TemporalSubmissions {
	return &TemporalSubmissions{client: c, taskQueue: regworkflows.AssetSubmissionTaskQueue}
}

// Submit starts the submission workflow and waits for the backend's answer.
func (o *TemporalSubmissions) Submit(ctx context.Context, submission regtypes.AssetSubmission) (*regtypes.SubmissionResponse, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal submissions not configured")
	}
	workflowID := buildSubmissionWorkflowID(submission)
	options := client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                o.taskQueue,
		WorkflowExecutionTimeout: SubmissionWorkflowTimeout,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		regworkflows.AssetSubmissionWorkflow,
		regworkflows.AssetSubmissionWorkflowInput{Submission: submission, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var response regtypes.SubmissionResponse
	if err := run.Get(ctx, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// InlineSubmissions calls the gateway directly, for tests or when Temporal is disabled.
type InlineSubmissions struct {
	gateway ports.AssetGateway
}

// NewInlineSubmissions wraps the gateway for synchronous execution.
func NewInlineSubmissions(gateway ports.AssetGateway) *InlineSubmissions {
	return &InlineSubmissions{gateway: gateway}
}

// Submit delegates to the gateway without durable orchestration.
func (o *InlineSubmissions) Submit(ctx context.Context, submission regtypes.AssetSubmission) (*regtypes.SubmissionResponse, error) {
	if o == nil || o.gateway == nil {
		return nil, errors.New("inline submissions not configured")
	}
	return o.gateway.CreateAsset(ctx, submission)
}

// buildSubmissionWorkflowID is stable per attempt so a duplicated start joins the running workflow.
func buildSubmissionWorkflowID(submission regtypes.AssetSubmission) string {
	if submission.WizardID == "" {
		return fmt.Sprintf("asset-submission-fallback-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("asset-submission-%s-%d", submission.WizardID, submission.Sequence)
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

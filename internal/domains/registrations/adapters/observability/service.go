package observability

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	types "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/domain"
	"github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
)

const tracerName = "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/observability/service"

// Service decorates the registrations port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) Start(ctx context.Context) (*types.WizardProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.Start")
	defer span.End()

	result, err := s.inner.Start(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to start registration")
	}
	span.SetAttributes(attribute.String("wizard.id", result.Wizard.ID))
	s.metrics.recordStarted(ctx)
	s.logInfo(ctx, "registration started", slog.String("wizard.id", result.Wizard.ID))
	return result, nil
}

func (s *Service) Get(ctx context.Context, input types.WizardIdentifier) (*types.WizardProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.Get", attribute.String("wizard.id", input.ID))
	defer span.End()

	result, err := s.inner.Get(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load registration", slog.String("wizard.id", input.ID))
	}
	return result, nil
}

func (s *Service) UpdateDraft(ctx context.Context, input types.UpdateDraftInput) (*types.WizardProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.UpdateDraft", attribute.String("wizard.id", input.ID))
	defer span.End()

	result, err := s.inner.UpdateDraft(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update draft", slog.String("wizard.id", input.ID))
	}
	s.logInfo(ctx, "draft updated", slog.String("wizard.id", input.ID), slog.String("wizard.step", result.Wizard.CurrentStep.String()))
	return result, nil
}

func (s *Service) Next(ctx context.Context, input types.WizardIdentifier) (*types.StepResult, error) {
	return s.navigate(ctx, "Service.Next", input, s.inner.Next)
}

func (s *Service) Back(ctx context.Context, input types.WizardIdentifier) (*types.StepResult, error) {
	return s.navigate(ctx, "Service.Back", input, s.inner.Back)
}

func (s *Service) navigate(ctx context.Context, name string, input types.WizardIdentifier, call func(context.Context, types.WizardIdentifier) (*types.StepResult, error)) (*types.StepResult, error) {
	ctx, span := s.startSpan(ctx, name, attribute.String("wizard.id", input.ID))
	defer span.End()

	result, err := call(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to change step", slog.String("wizard.id", input.ID))
	}
	step := result.Projection.Wizard.CurrentStep.String()
	span.SetAttributes(attribute.String("wizard.step", step), attribute.Int("wizard.step.issues", len(result.Issues)))
	s.logInfo(ctx, "step changed", slog.String("wizard.id", input.ID), slog.String("wizard.step", step), slog.Int("issues", len(result.Issues)))
	return result, nil
}

func (s *Service) SetAttachment(ctx context.Context, input types.AttachmentInput) (*types.WizardProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.SetAttachment",
		attribute.String("wizard.id", input.ID),
		attribute.String("attachment.slot", string(input.Slot)),
		attribute.Int64("attachment.size", input.File.FileSize()),
	)
	defer span.End()

	result, err := s.inner.SetAttachment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to store attachment", slog.String("wizard.id", input.ID), slog.String("attachment.slot", string(input.Slot)))
	}
	s.metrics.recordAttachment(ctx, input.Slot)
	s.logInfo(ctx, "attachment stored", slog.String("wizard.id", input.ID), slog.String("attachment.slot", string(input.Slot)))
	return result, nil
}

func (s *Service) ClearAttachment(ctx context.Context, input types.ClearAttachmentInput) (*types.WizardProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.ClearAttachment",
		attribute.String("wizard.id", input.ID),
		attribute.String("attachment.slot", string(input.Slot)),
	)
	defer span.End()

	result, err := s.inner.ClearAttachment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to clear attachment", slog.String("wizard.id", input.ID), slog.String("attachment.slot", string(input.Slot)))
	}
	s.logInfo(ctx, "attachment cleared", slog.String("wizard.id", input.ID), slog.String("attachment.slot", string(input.Slot)))
	return result, nil
}

func (s *Service) DetectMuzzle(ctx context.Context, input types.WizardIdentifier) (*types.MuzzleResult, error) {
	ctx, span := s.startSpan(ctx, "Service.DetectMuzzle", attribute.String("wizard.id", input.ID))
	defer span.End()

	started := time.Now()
	result, err := s.inner.DetectMuzzle(ctx, input)
	s.metrics.recordMuzzle(ctx, err == nil, time.Since(started))
	if err != nil {
		return nil, s.handleError(ctx, span, err, "muzzle detection failed", slog.String("wizard.id", input.ID))
	}
	span.SetAttributes(attribute.String("wizard.reference_id", result.Match.ReferenceID))
	s.logInfo(ctx, "muzzle identified", slog.String("wizard.id", input.ID), slog.String("wizard.reference_id", result.Match.ReferenceID))
	return result, nil
}

func (s *Service) ClaimMuzzle(ctx context.Context, input types.ClaimInput) (*types.MuzzleMatch, error) {
	ctx, span := s.startSpan(ctx, "Service.ClaimMuzzle", attribute.String("muzzle.filename", input.Video.Filename()))
	defer span.End()

	result, err := s.inner.ClaimMuzzle(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "muzzle claim failed")
	}
	s.logInfo(ctx, "muzzle claimed", slog.String("muzzle.matched_id", result.ReferenceID))
	return result, nil
}

func (s *Service) ReferenceData(ctx context.Context, bearerToken string) (*types.ReferenceData, error) {
	ctx, span := s.startSpan(ctx, "Service.ReferenceData", attribute.Bool("auth.bearer", bearerToken != ""))
	defer span.End()

	result, err := s.inner.ReferenceData(ctx, bearerToken)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load reference data")
	}
	failed := result.FailedLists()
	span.SetAttributes(attribute.Int("reference.failed", len(failed)))
	for _, list := range failed {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "reference list unavailable",
			slog.String("reference.list", string(list)),
			slog.String("error", result.Lists[list].Error),
		)
	}
	return result, nil
}

func (s *Service) Submit(ctx context.Context, input types.SubmitInput) (*types.SubmitResult, error) {
	ctx, span := s.startSpan(ctx, "Service.Submit",
		attribute.String("wizard.id", input.ID),
		attribute.Bool("submission.location", input.Location != nil),
	)
	defer span.End()

	s.logInfo(ctx, "submitting registration", slog.String("wizard.id", input.ID))
	result, err := s.inner.Submit(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "registration not submitted", slog.String("wizard.id", input.ID))
	}
	outcome := result.Outcome
	span.SetAttributes(
		attribute.String("submission.outcome", string(outcome.Status)),
		attribute.Int("submission.status_code", outcome.StatusCode),
		attribute.Bool("submission.stale", result.Stale),
	)
	s.metrics.recordSubmission(ctx, outcome.Status, result.Stale)
	attrs := []slog.Attr{
		slog.String("wizard.id", input.ID),
		slog.String("submission.outcome", string(outcome.Status)),
		slog.Int("submission.status_code", outcome.StatusCode),
		slog.Uint64("submission.sequence", outcome.Sequence),
	}
	switch {
	case result.Stale:
		s.logger.LogAttrs(ctx, slog.LevelWarn, "discarded stale submission response", attrs...)
	case outcome.Status == domain.OutcomeSuccess:
		s.logInfo(ctx, "registration submitted", append(attrs, slog.String("asset.id", outcome.AssetID))...)
	default:
		s.logger.LogAttrs(ctx, slog.LevelWarn, "registration rejected", append(attrs, slog.String("submission.message", outcome.Message))...)
	}
	return result, nil
}

func (s *Service) Reset(ctx context.Context, input types.WizardIdentifier) (*types.WizardProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.Reset", attribute.String("wizard.id", input.ID))
	defer span.End()

	result, err := s.inner.Reset(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reset registration", slog.String("wizard.id", input.ID))
	}
	s.logInfo(ctx, "registration reset", slog.String("wizard.id", input.ID))
	return result, nil
}

func (s *Service) PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	ctx, span := s.startSpan(ctx, "Service.PurgeAbandoned", attribute.String("purge.older_than", olderThan.String()))
	defer span.End()

	purged, err := s.inner.PurgeAbandoned(ctx, olderThan)
	if err != nil {
		return purged, s.handleError(ctx, span, err, "failed to purge abandoned registrations", slog.Int("purged", purged))
	}
	span.SetAttributes(attribute.Int("purge.count", purged))
	s.logInfo(ctx, "abandoned registrations purged", slog.Int("purged", purged))
	return purged, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	started     metric.Int64Counter
	attachments metric.Int64Counter
	submissions metric.Int64Counter
	muzzle      metric.Float64Histogram
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	started, _ := m.Int64Counter("registrations.service.started", metric.WithDescription("Number of registration wizards started"))
	attachments, _ := m.Int64Counter("registrations.service.attachments", metric.WithDescription("Number of attachments stored"))
	submissions, _ := m.Int64Counter("registrations.service.submissions", metric.WithDescription("Number of submissions by outcome"))
	muzzle, _ := m.Float64Histogram("registrations.service.muzzle.duration", metric.WithDescription("Muzzle matcher latency"), metric.WithUnit("s"))
	return serviceMetrics{
		started:     started,
		attachments: attachments,
		submissions: submissions,
		muzzle:      muzzle,
	}
}

func (m serviceMetrics) recordStarted(ctx context.Context) {
	addCounter(ctx, m.started, 1)
}

func (m serviceMetrics) recordAttachment(ctx context.Context, slot domain.Slot) {
	addCounter(ctx, m.attachments, 1, attribute.String("attachment.slot", string(slot)))
}

func (m serviceMetrics) recordSubmission(ctx context.Context, status domain.OutcomeStatus, stale bool) {
	addCounter(ctx, m.submissions, 1, attribute.String("submission.outcome", string(status)), attribute.Bool("submission.stale", stale))
}

func (m serviceMetrics) recordMuzzle(ctx context.Context, matched bool, elapsed time.Duration) {
	if m.muzzle == nil {
		return
	}
	m.muzzle.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.Bool("muzzle.matched", matched)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)

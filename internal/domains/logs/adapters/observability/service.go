package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	types "github.com/Apurer/herdbook-api/internal/domains/logs/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
	"github.com/Apurer/herdbook-api/internal/domains/logs/ports"
)

const tracerName = "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/observability/service"

// Service decorates the logs port with tracing, logging, and metrics.
type Service struct {
	inner  ports.Service
	tracer trace.Tracer
	logger *slog.Logger
	writes metric.Int64Counter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

// WithMeter creates the write counter on m.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if m == nil {
			return
		}
		s.writes, _ = m.Int64Counter("logs.service.writes", metric.WithDescription("Number of collection writes by operation and result"))
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
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
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) Append(ctx context.Context, input types.AppendInput) (*types.WriteResult, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Append", trace.WithAttributes(
		attribute.String("logs.collection", string(input.Collection)),
		attribute.Bool("logs.idempotent", input.IdempotencyKey != ""),
	))
	defer span.End()

	result, err := s.inner.Append(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to append log record", slog.String("logs.collection", string(input.Collection)))
	}
	s.observeWrite(ctx, span, "append", input.Collection, result)
	return result, nil
}

func (s *Service) ReadAll(ctx context.Context, collection domain.Collection) []domain.Record {
	ctx, span := s.tracer.Start(ctx, "Service.ReadAll", trace.WithAttributes(attribute.String("logs.collection", string(collection))))
	defer span.End()

	records := s.inner.ReadAll(ctx, collection)
	span.SetAttributes(attribute.Int("logs.records", len(records)))
	return records
}

func (s *Service) Replace(ctx context.Context, input types.ReplaceInput) (*types.WriteResult, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Replace", trace.WithAttributes(
		attribute.String("logs.collection", string(input.Collection)),
		attribute.String("logs.record.id", input.ID),
	))
	defer span.End()

	result, err := s.inner.Replace(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to replace log record",
			slog.String("logs.collection", string(input.Collection)), slog.String("logs.record.id", input.ID))
	}
	s.observeWrite(ctx, span, "replace", input.Collection, result)
	return result, nil
}

func (s *Service) UpdatePregnancyStatus(ctx context.Context, input types.PregnancyInput) (*types.WriteResult, error) {
	ctx, span := s.tracer.Start(ctx, "Service.UpdatePregnancyStatus", trace.WithAttributes(
		attribute.String("logs.record.id", input.ID),
		attribute.String("logs.pregnancy.status", string(input.Status)),
	))
	defer span.End()

	result, err := s.inner.UpdatePregnancyStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update pregnancy status", slog.String("logs.record.id", input.ID))
	}
	s.observeWrite(ctx, span, "pregnancy", domain.CollectionBreeding, result)
	return result, nil
}

func (s *Service) Watch(ctx context.Context, collection domain.Collection, fn func([]domain.Record)) error {
	s.logger.LogAttrs(ctx, slog.LevelDebug, "collection watch started", slog.String("logs.collection", string(collection)))
	err := s.inner.Watch(ctx, collection, fn)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "collection watch failed",
			slog.String("logs.collection", string(collection)), slog.String("error", err.Error()))
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "collection watch ended", slog.String("logs.collection", string(collection)))
	return nil
}

// observeWrite logs unsaved writes as warnings; callers still get the record.
func (s *Service) observeWrite(ctx context.Context, span trace.Span, op string, collection domain.Collection, result *types.WriteResult) {
	attrs := []slog.Attr{
		slog.String("logs.collection", string(collection)),
		slog.String("logs.record.id", result.Record.ID),
	}
	span.SetAttributes(attribute.String("logs.record.id", result.Record.ID), attribute.Bool("logs.saved", result.Saved()))
	if s.writes != nil {
		s.writes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("logs.operation", op),
			attribute.String("logs.collection", string(collection)),
			attribute.Bool("logs.saved", result.Saved()),
		))
	}
	if result.KeyErr != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "idempotency key not saved",
			append(attrs, slog.String("error", result.KeyErr.Error()))...)
	}
	switch {
	case !result.Saved():
		if result.SaveErr != nil {
			attrs = append(attrs, slog.String("error", result.SaveErr.Error()))
		}
		s.logger.LogAttrs(ctx, slog.LevelWarn, "log record not saved", attrs...)
	case result.Replayed:
		s.logger.LogAttrs(ctx, slog.LevelInfo, "log append replayed", attrs...)
	default:
		s.logger.LogAttrs(ctx, slog.LevelInfo, "log record "+op+" saved", attrs...)
	}
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

var _ ports.Service = (*Service)(nil)

package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	types "github.com/Apurer/herdbook-api/internal/domains/logs/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
)

var errStorage = errors.New("storage offline")

// stubService returns canned results for every write.
type stubService struct {
	result  *types.WriteResult
	err     error
	records []domain.Record
}

func (s stubService) Append(context.Context, types.AppendInput) (*types.WriteResult, error) {
	return s.result, s.err
}

func (s stubService) ReadAll(context.Context, domain.Collection) []domain.Record { return s.records }

func (s stubService) Replace(context.Context, types.ReplaceInput) (*types.WriteResult, error) {
	return s.result, s.err
}

func (s stubService) UpdatePregnancyStatus(context.Context, types.PregnancyInput) (*types.WriteResult, error) {
	return s.result, s.err
}

func (s stubService) Watch(ctx context.Context, _ domain.Collection, fn func([]domain.Record)) error {
	fn(s.records)
	return s.err
}

type harness struct {
	logs   *bytes.Buffer
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newDecorated(t *testing.T, inner stubService) (*harness, *Service) {
	t.Helper()
	h := &harness{logs: &bytes.Buffer{}, spans: tracetest.NewSpanRecorder(), reader: sdkmetric.NewManualReader()}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(h.spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(h.reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})
	svc := New(inner,
		WithLogger(slog.New(slog.NewJSONHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		WithTracer(tp.Tracer(tracerName)),
		WithMeter(mp.Meter(tracerName)),
	)
	return h, svc.(*Service)
}

func (h *harness) writes(t *testing.T) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "logs.service.writes" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestService_AppendPassesWarningThrough(t *testing.T) {
	unsaved := &types.WriteResult{
		Record:  domain.Record{ID: "rec-1", CowID: "cow-1"},
		Warning: types.SaveWarning,
		SaveErr: errStorage,
	}
	h, svc := newDecorated(t, stubService{result: unsaved})

	res, err := svc.Append(context.Background(), types.AppendInput{Collection: domain.CollectionFeed})
	require.NoError(t, err)
	assert.Same(t, unsaved, res)
	assert.Equal(t, types.SaveWarning, res.Warning)

	assert.Contains(t, h.logs.String(), `"level":"WARN"`)
	assert.Contains(t, h.logs.String(), "log record not saved")
	assert.Contains(t, h.logs.String(), errStorage.Error())
	assert.Equal(t, int64(1), h.writes(t))

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "Service.Append", ended[0].Name())
	assert.NotEqual(t, codes.Error, ended[0].Status().Code)
}

func TestService_AppendLogsUnsavedKey(t *testing.T) {
	stored := &types.WriteResult{Record: domain.Record{ID: "rec-2"}, KeyErr: errStorage}
	h, svc := newDecorated(t, stubService{result: stored})

	res, err := svc.Append(context.Background(), types.AppendInput{Collection: domain.CollectionFeed, IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.True(t, res.Saved())
	assert.Contains(t, h.logs.String(), "idempotency key not saved")
}

func TestService_ErrorsKeepIdentity(t *testing.T) {
	h, svc := newDecorated(t, stubService{err: errStorage})
	ctx := context.Background()

	_, err := svc.Append(ctx, types.AppendInput{Collection: domain.CollectionBirth})
	require.ErrorIs(t, err, errStorage)
	_, err = svc.Replace(ctx, types.ReplaceInput{Collection: domain.CollectionFeed, ID: "rec-1"})
	require.ErrorIs(t, err, errStorage)
	_, err = svc.UpdatePregnancyStatus(ctx, types.PregnancyInput{ID: "rec-1", Status: domain.PregnancyFailed})
	require.ErrorIs(t, err, errStorage)

	ended := h.spans.Ended()
	require.Len(t, ended, 3)
	for _, span := range ended {
		assert.Equal(t, codes.Error, span.Status().Code, span.Name())
	}
	assert.Zero(t, h.writes(t))
	assert.Contains(t, h.logs.String(), "failed to update pregnancy status")
}

func TestService_ReadAllAndWatchDelegate(t *testing.T) {
	records := []domain.Record{{ID: "a"}, {ID: "b"}}
	_, svc := newDecorated(t, stubService{records: records})

	assert.Equal(t, records, svc.ReadAll(context.Background(), domain.CollectionFeed))

	var seen int
	require.NoError(t, svc.Watch(context.Background(), domain.CollectionFeed, func(r []domain.Record) { seen = len(r) }))
	assert.Equal(t, 2, seen)
}

package observability

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseLevel(raw), raw)
	}
}

func TestInit_WithoutExporter(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	t.Setenv("LOG_FORMAT", "text")

	instruments, shutdown, err := Init(context.Background(), "herdbook-test")
	require.NoError(t, err)
	require.NotNil(t, instruments.Registry)
	assert.NotNil(t, instruments.Tracer("test"))
	assert.NotNil(t, instruments.Meter("test"))

	families, err := instruments.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))
}

package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windorbit/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestInitializeTelemetry_MetricsOnly(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "windorbit.prom")

	tel, err := InitializeTelemetry(config.TelemetryConfig{MetricsFile: metricsFile}, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, tel.TracerProvider)
	assert.NotNil(t, tel.Tracer)
	assert.NotNil(t, tel.MeterProvider)

	metrics, err := CreateFetchMetrics(tel.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordDay(ctx, ResultWritten)
	metrics.RecordDay(ctx, ResultWritten)
	metrics.RecordFailedDay(ctx, "COLLABORATOR")
	metrics.RecordFailedDay(ctx, "")
	metrics.RecordQuery(ctx, 1500*time.Millisecond, nil)
	metrics.RecordQuery(ctx, 200*time.Millisecond, errors.New("timeout"))
	metrics.RecordLines(ctx, 1450)

	require.NoError(t, tel.Shutdown(ctx))

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "windorbit_days_total")
	assert.Contains(t, text, `result="written"`)
	assert.Contains(t, text, `result="failed"`)
	assert.Contains(t, text, `error_type="COLLABORATOR"`)
	assert.Contains(t, text, `error_type="unknown"`)
	assert.Contains(t, text, "windorbit_query_duration_seconds")
	assert.Contains(t, text, "windorbit_lines_written_total")
}

func TestInitializeTelemetry_NoMetricsFile(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{}, quietLogger())
	require.NoError(t, err)
	assert.NoError(t, tel.WriteMetrics())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestInitializeTelemetry_TracingToFile(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "trace.json")

	tel, err := InitializeTelemetry(config.TelemetryConfig{Tracing: true, TraceFile: traceFile}, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)

	_, span := tel.Tracer.Start(context.Background(), "fetch-day")
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))

	content, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "fetch-day")
}

func TestFetchMetrics_NilSafe(t *testing.T) {
	var m *FetchMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordDay(ctx, ResultWritten)
		m.RecordFailedDay(ctx, "STORAGE")
		m.RecordQuery(ctx, time.Second, nil)
		m.RecordLines(ctx, 3)
	})
}

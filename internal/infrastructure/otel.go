package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"windorbit/internal/config"
)

const (
	ServiceName = "windorbit"
	MeterName   = "windorbit"
)

// Telemetry holds the tracing and metrics providers for one process
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry

	metricsFile string
	traceOut    io.Closer
	logger      *slog.Logger
}

// InitializeTelemetry sets up the meter provider (always) and the tracer
// provider (when cfg.Tracing is set). Metrics are gathered into a private
// Prometheus registry and written to cfg.MetricsFile on Shutdown.
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)

	t := &Telemetry{
		Registry:    prometheus.NewRegistry(),
		metricsFile: cfg.MetricsFile,
		logger:      logger,
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	otel.SetMeterProvider(t.MeterProvider)

	if !cfg.Tracing {
		t.Tracer = noop.NewTracerProvider().Tracer(MeterName)
		return t, nil
	}

	var out io.Writer = os.Stderr
	if cfg.TraceFile != "" {
		f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		t.traceOut = f
		out = f
	}

	spanExporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	t.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(t.TracerProvider)

	logger.Info("Tracing initialized",
		slog.String("exporter", "stdout"),
		slog.String("trace_file", cfg.TraceFile))

	return t, nil
}

// WriteMetrics writes the current metric values to the configured textfile.
// It is a no-op when no metrics file is configured.
func (t *Telemetry) WriteMetrics() error {
	if t.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(t.metricsFile, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	t.logger.Debug("Metrics written", slog.String("path", t.metricsFile))
	return nil
}

// Shutdown flushes metrics and spans and releases the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if err := t.WriteMetrics(); err != nil {
		errs = append(errs, err)
	}
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if t.traceOut != nil {
		if err := t.traceOut.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Day outcomes recorded by FetchMetrics
const (
	ResultWritten  = "written"
	ResultExisting = "existing"
	ResultFailed   = "failed"
)

// FetchMetrics are the instruments updated while fetching daily reports
type FetchMetrics struct {
	days          metric.Int64Counter
	queryDuration metric.Float64Histogram
	queryAttempts metric.Int64Counter
	linesWritten  metric.Int64Counter
}

// CreateFetchMetrics creates the fetch instruments on meter
func CreateFetchMetrics(meter metric.Meter) (*FetchMetrics, error) {
	days, err := meter.Int64Counter(
		"windorbit_days",
		metric.WithDescription("Days processed, by result"),
	)
	if err != nil {
		return nil, err
	}

	queryDuration, err := meter.Float64Histogram(
		"windorbit_query_duration_seconds",
		metric.WithDescription("Locator form query duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	queryAttempts, err := meter.Int64Counter(
		"windorbit_query_attempts",
		metric.WithDescription("Locator form query attempts, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	linesWritten, err := meter.Int64Counter(
		"windorbit_lines_written",
		metric.WithDescription("Lines written to daily files"),
	)
	if err != nil {
		return nil, err
	}

	return &FetchMetrics{
		days:          days,
		queryDuration: queryDuration,
		queryAttempts: queryAttempts,
		linesWritten:  linesWritten,
	}, nil
}

// RecordDay counts one processed day with its result
func (m *FetchMetrics) RecordDay(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.days.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordFailedDay counts one failed day, labelled with the error type that
// failed it
func (m *FetchMetrics) RecordFailedDay(ctx context.Context, errType string) {
	if m == nil {
		return
	}
	if errType == "" {
		errType = "unknown"
	}
	m.days.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", ResultFailed),
		attribute.String("error_type", errType),
	))
}

// RecordQuery records one query attempt
func (m *FetchMetrics) RecordQuery(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.queryDuration.Record(ctx, d.Seconds(), attrs)
	m.queryAttempts.Add(ctx, 1, attrs)
}

// RecordLines counts lines written for one day
func (m *FetchMetrics) RecordLines(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.linesWritten.Add(ctx, int64(n))
}

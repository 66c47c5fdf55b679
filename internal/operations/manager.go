package operations

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"windorbit/internal/daterange"
	apperrors "windorbit/internal/errors"
	"windorbit/internal/infrastructure"
	"windorbit/internal/locator"
	"windorbit/internal/record"
)

// FileWriter is the output side of a run
type FileWriter interface {
	CheckDir(dir string) error
	Exists(dir, filename string) bool
	Write(dir, filename string, lines []string) (string, error)
}

// progressEvery is how often, in days, a progress checkpoint is logged
const progressEvery = 5

// Manager runs fetches against a Querier and a FileWriter
type Manager struct {
	querier locator.Querier
	writer  FileWriter
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.FetchMetrics
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager's logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithTracer sets the tracer used for run and day spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

// WithMetrics sets the fetch metrics to update
func WithMetrics(metrics *infrastructure.FetchMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a new run manager
func NewManager(querier locator.Querier, writer FileWriter, opts ...Option) *Manager {
	m := &Manager{
		querier: querier,
		writer:  writer,
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("operations"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run fetches every day of cfg in order. The returned Summary is valid even
// when err is non-nil and covers the days handled before the failure.
func (m *Manager) Run(ctx context.Context, cfg RunConfig) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	if err := cfg.Validate(); err != nil {
		return summary, err
	}
	if err := m.writer.CheckDir(cfg.Dir); err != nil {
		return summary, err
	}

	summary.Expected = cfg.Windows()

	ctx, span := m.tracer.Start(ctx, "fetch", trace.WithAttributes(
		attribute.String("start", cfg.Start.Format("2006-01-02")),
		attribute.String("end", cfg.End.Format("2006-01-02")),
		attribute.Int("days", summary.Expected),
	))
	defer span.End()

	m.logger.InfoContext(ctx, "Fetch starting",
		slog.String("from", cfg.Start.Format("2006-01-02")),
		slog.String("to", cfg.End.Format("2006-01-02")),
		slog.String("output_dir", cfg.Dir),
		slog.Int("expected_files", summary.Expected),
		slog.String("failure_policy", string(cfg.FailurePolicy)),
		slog.Int("max_attempts", cfg.Retry.MaxAttempts),
		slog.Bool("skip_existing", cfg.SkipExisting))

	err := m.runWindows(ctx, cfg, summary)
	summary.Duration = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		infrastructure.WithError(m.logger, err).ErrorContext(ctx, "Fetch aborted",
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.Int("written", summary.Written),
			slog.Int("skipped", summary.Skipped),
			slog.Int("failed", summary.Failed),
			slog.Int("expected", summary.Expected))
		return summary, err
	}

	m.logger.InfoContext(ctx, "Fetch complete",
		slog.Int("written", summary.Written),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("expected", summary.Expected),
		slog.Duration("duration", summary.Duration))

	return summary, nil
}

func (m *Manager) runWindows(ctx context.Context, cfg RunConfig, summary *Summary) error {
	for w := range daterange.Expand(cfg.Start, cfg.End) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("fetch cancelled before %s: %w", w.Start.Format("2006-01-02"), err)
		}

		filename := record.Filename(w)

		if cfg.SkipExisting && m.writer.Exists(cfg.Dir, filename) {
			summary.Skipped++
			m.metrics.RecordDay(ctx, infrastructure.ResultExisting)
			m.logger.InfoContext(ctx, "File already exists, skipping",
				slog.String("file", filename))
			m.checkpoint(ctx, summary)
			continue
		}

		rec, err := m.fetchDay(ctx, w, cfg.Retry)
		if err != nil {
			failure := newDayFailure(w.Start, err)
			summary.Failed++
			summary.Failures = append(summary.Failures, failure)
			m.metrics.RecordFailedDay(ctx, string(failure.Type))

			if cfg.FailurePolicy != PolicySkip || ctx.Err() != nil {
				return err
			}
			infrastructure.WithError(m.logger, err).WarnContext(ctx, "Day failed, continuing",
				slog.String("day", w.Start.Format("2006-01-02")),
				slog.String("error_type", string(failure.Type)))
			m.checkpoint(ctx, summary)
			continue
		}

		path, err := m.writer.Write(cfg.Dir, rec.Filename, rec.Lines)
		if err != nil {
			failure := newDayFailure(w.Start, err)
			summary.Failed++
			summary.Failures = append(summary.Failures, failure)
			m.metrics.RecordFailedDay(ctx, string(failure.Type))
			return err
		}

		summary.Written++
		summary.Files = append(summary.Files, path)
		m.metrics.RecordDay(ctx, infrastructure.ResultWritten)
		m.metrics.RecordLines(ctx, len(rec.Lines))

		m.logger.InfoContext(ctx, fmt.Sprintf("Saved file %d of %d", summary.Processed(), summary.Expected),
			slog.String("day", w.Start.Format("2006-01-02")),
			slog.String("file", rec.Filename))
		m.checkpoint(ctx, summary)
	}
	return nil
}

// fetchDay queries one window and extracts its record, retrying per rc
func (m *Manager) fetchDay(ctx context.Context, w daterange.Window, rc RetryConfig) (record.DailyRecord, error) {
	ctx, span := m.tracer.Start(ctx, "fetch-day", trace.WithAttributes(
		attribute.String("day", w.Start.Format("2006-01-02")),
	))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= rc.MaxAttempts; attempt++ {
		started := time.Now()
		raw, err := m.querier.Query(ctx, w)
		if err == nil {
			var rec record.DailyRecord
			rec, err = record.Extract(w, raw)
			if err == nil {
				m.metrics.RecordQuery(ctx, time.Since(started), nil)
				span.SetAttributes(attribute.Int("lines", len(rec.Lines)), attribute.Int("attempts", attempt))
				return rec, nil
			}
		}
		m.metrics.RecordQuery(ctx, time.Since(started), err)

		// Anything the querier returns is a collaborator failure
		if !apperrors.IsType(err, apperrors.ErrTypeCollaborator) {
			err = apperrors.NewCollaboratorError("locator query failed", err)
		}
		lastErr = err

		if attempt >= rc.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := calculateRetryDelay(attempt, rc)
		m.logger.WarnContext(ctx, "Query failed, retrying",
			slog.String("day", w.Start.Format("2006-01-02")),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", rc.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())

	return record.DailyRecord{}, fmt.Errorf("day %s: %w", w.Start.Format("2006-01-02"), lastErr)
}

// calculateRetryDelay returns the wait after the given failed attempt,
// capped at MaxDelay. The product is compared as a float so large attempts
// can't overflow the conversion.
func calculateRetryDelay(attempt int, rc RetryConfig) time.Duration {
	delay := float64(rc.InitialDelay) * math.Pow(rc.Multiplier, float64(attempt-1))
	if rc.MaxDelay > 0 && delay > float64(rc.MaxDelay) {
		return rc.MaxDelay
	}
	if delay >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

func (m *Manager) checkpoint(ctx context.Context, s *Summary) {
	processed := s.Processed()
	if processed == 0 || processed%progressEvery != 0 || s.Expected == 0 {
		return
	}
	m.logger.InfoContext(ctx, "Progress checkpoint",
		slog.Int("total_processed", processed),
		slog.Int("written", s.Written),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
		slog.Int("expected", s.Expected),
		slog.Float64("percentage", float64(processed)/float64(s.Expected)*100))
}

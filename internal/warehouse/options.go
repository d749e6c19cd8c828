package warehouse

import (
	"context"
	"time"
)

// Logger is the minimal structured logging surface the pipeline emits to.
// *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder receives per-table and per-run load observations.
type MetricsRecorder interface {
	ObserveTableLoad(table string, counts Counts, duration time.Duration, err error)
	ObserveRun(status Status, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTableLoad(string, Counts, time.Duration, error) {}
func (noopMetrics) ObserveRun(Status, time.Duration)                      {}

// ReportSink archives the run report after the ledger entry is finalized.
type ReportSink interface {
	Archive(ctx context.Context, rep *RunReport) error
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics attaches a metrics recorder; the default discards everything.
func WithMetrics(m MetricsRecorder) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithClock overrides the time source, fixing run dates in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithReportSink attaches a run report archive destination.
func WithReportSink(s ReportSink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// Package observe provides application-wide observability primitives for
// entroppy: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint when metrics_addr is set. A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all entroppy metrics.
const meterName = "github.com/mrwong99/entroppy"

// Metrics holds all OpenTelemetry metric instruments for one solver run.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// StageDuration tracks wall-clock time per pipeline stage. Use with
	// attribute: attribute.String("stage", "dictionary"|"typogen"|"collision"|
	// "pattern"|"conflict"|"platform").
	StageDuration metric.Float64Histogram

	// CandidatesGenerated counts raw (typo, word) pairs produced by stage 2,
	// before collision resolution.
	CandidatesGenerated metric.Int64Counter

	// CorrectionsAccepted counts triples kept after a stage. Use with
	// attribute: attribute.String("stage", ...).
	CorrectionsAccepted metric.Int64Counter

	// CorrectionsDropped counts triples removed by a stage, tagged with why.
	// Use with attributes: attribute.String("stage", ...),
	// attribute.String("reason", "ambiguous"|"short"|"excluded"|"conflict"|
	// "charset"|"boundary_dedup"|"truncated").
	CorrectionsDropped metric.Int64Counter

	// ProviderRequests counts dictionary provider operations; cmd/entroppy
	// records provider construction under method "construct". Use with
	// attributes: attribute.String("method", ...),
	// attribute.String("status", "ok"|"error").
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts dictionary provider failures. Use with
	// attribute: attribute.String("method", ...).
	ProviderErrors metric.Int64Counter

	// ActiveWorkers tracks the number of stage-2 goroutines currently
	// holding a worker-pool slot.
	ActiveWorkers metric.Int64UpDownCounter

	// --- HTTP middleware (served only when metrics_addr is set) ---

	// HTTPRequestDuration tracks HTTP request processing time for the
	// /metrics and /healthz endpoints. Use with attributes:
	// attribute.String("method", ...), attribute.String("path", ...).
	HTTPRequestDuration metric.Float64Histogram
}

// stageDurationBuckets defines histogram bucket boundaries (in seconds)
// sized for a batch job whose stages run from milliseconds to minutes.
var stageDurationBuckets = []float64{
	0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("entroppy.stage.duration",
		metric.WithDescription("Wall-clock duration of one pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageDurationBuckets...),
	); err != nil {
		return nil, err
	}

	if met.CandidatesGenerated, err = m.Int64Counter("entroppy.candidates.generated",
		metric.WithDescription("Total (typo, word) candidate pairs produced by stage 2."),
	); err != nil {
		return nil, err
	}

	if met.CorrectionsAccepted, err = m.Int64Counter("entroppy.corrections.accepted",
		metric.WithDescription("Total correction triples kept by a stage, tagged by stage."),
	); err != nil {
		return nil, err
	}

	if met.CorrectionsDropped, err = m.Int64Counter("entroppy.corrections.dropped",
		metric.WithDescription("Total correction triples dropped by a stage, tagged by stage and reason."),
	); err != nil {
		return nil, err
	}

	if met.ProviderRequests, err = m.Int64Counter("entroppy.provider.requests",
		metric.WithDescription("Total dictionary provider lookups by method and status."),
	); err != nil {
		return nil, err
	}

	if met.ProviderErrors, err = m.Int64Counter("entroppy.provider.errors",
		metric.WithDescription("Total dictionary provider failures by method."),
	); err != nil {
		return nil, err
	}

	if met.ActiveWorkers, err = m.Int64UpDownCounter("entroppy.workers.active",
		metric.WithDescription("Number of stage-2 typo-generation workers currently running."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("entroppy.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordStageDuration records how long a pipeline stage took.
func (m *Metrics) RecordStageDuration(ctx context.Context, stage string, seconds float64) {
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordAccepted records corrections kept by stage.
func (m *Metrics) RecordAccepted(ctx context.Context, stage string, n int64) {
	if n == 0 {
		return
	}
	m.CorrectionsAccepted.Add(ctx, n, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordDropped records corrections dropped by stage and reason.
func (m *Metrics) RecordDropped(ctx context.Context, stage, reason string, n int64) {
	if n == 0 {
		return
	}
	m.CorrectionsDropped.Add(ctx, n, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("reason", reason),
	))
}

// RecordProviderRequest is a convenience method that records a dictionary
// provider request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, method, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a dictionary
// provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, method string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

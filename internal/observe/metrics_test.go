package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestStageDurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordStageDuration(ctx, "collision", 0.123)
	m.RecordStageDuration(ctx, "pattern", 0.456)

	rm := collect(t, reader)
	met := findMetric(rm, "entroppy.stage.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) != 2 {
		t.Fatalf("expected 2 data points (one per stage), got %d", len(hist.DataPoints))
	}
}

func TestRecordAcceptedAndDropped(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAccepted(ctx, "collision", 10)
	m.RecordDropped(ctx, "collision", "ambiguous", 3)
	m.RecordDropped(ctx, "collision", "short", 1)
	m.RecordDropped(ctx, "collision", "ambiguous", 0) // no-op, zero count

	rm := collect(t, reader)

	accepted := findMetric(rm, "entroppy.corrections.accepted")
	if accepted == nil {
		t.Fatal("accepted metric not found")
	}
	sum, ok := accepted.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("accepted metric is not a sum")
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 10 {
		t.Errorf("accepted count = %+v, want 10", sum.DataPoints)
	}

	dropped := findMetric(rm, "entroppy.corrections.dropped")
	if dropped == nil {
		t.Fatal("dropped metric not found")
	}
	dsum, ok := dropped.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("dropped metric is not a sum")
	}
	var total int64
	for _, dp := range dsum.DataPoints {
		total += dp.Value
	}
	if total != 4 {
		t.Errorf("total dropped = %d, want 4 (the zero-count call must not add a spurious data point)", total)
	}
}

func TestProviderRequestAndErrorCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "frequency", "ok")
	m.RecordProviderRequest(ctx, "frequency", "ok")
	m.RecordProviderRequest(ctx, "frequency", "error")
	m.RecordProviderError(ctx, "frequency")

	rm := collect(t, reader)

	reqMet := findMetric(rm, "entroppy.provider.requests")
	if reqMet == nil {
		t.Fatal("requests metric not found")
	}
	sum, ok := reqMet.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("requests metric is not a sum")
	}
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "status" && kv.Value.AsString() == "ok" {
				if dp.Value != 2 {
					t.Errorf("ok count = %d, want 2", dp.Value)
				}
			}
		}
	}

	errMet := findMetric(rm, "entroppy.provider.errors")
	if errMet == nil {
		t.Fatal("errors metric not found")
	}
	esum, ok := errMet.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("errors metric is not a sum")
	}
	if len(esum.DataPoints) == 0 || esum.DataPoints[0].Value != 1 {
		t.Errorf("error count = %+v, want 1", esum.DataPoints)
	}
}

func TestActiveWorkersGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveWorkers.Add(ctx, 1)
	m.ActiveWorkers.Add(ctx, 1)
	m.ActiveWorkers.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "entroppy.workers.active")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Errorf("gauge value = %+v, want 1", sum.DataPoints)
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.05,
		metric.WithAttributes(
			attribute.String("method", "GET"),
			attribute.String("path", "/healthz"),
		),
	)

	rm := collect(t, reader)
	met := findMetric(rm, "entroppy.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}

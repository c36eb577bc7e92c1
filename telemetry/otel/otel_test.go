package otelsink

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/unkn0wn-root/gqlcache"
)

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

func collect(t *testing.T, events ...gqlcache.Event) metricdata.ResourceMetrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	s, err := New(mp.Meter("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, e := range events {
		s.Emit(e)
	}
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func TestEventsCountedByKind(t *testing.T) {
	rm := collect(t,
		gqlcache.Event{Kind: gqlcache.QueryIssued},
		gqlcache.Event{Kind: gqlcache.CacheMiss, Duration: 20 * time.Millisecond},
		gqlcache.Event{Kind: gqlcache.QueryIssued},
		gqlcache.Event{Kind: gqlcache.CacheHit, Duration: time.Millisecond},
	)
	found := findMetric(rm, MetricEvents)
	if found == nil {
		t.Fatal("events metric not found")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("event.kind"))
		got[v.AsString()] = dp.Value
	}
	want := map[string]int64{"query_issued": 2, "cache_miss": 1, "cache_hit": 1}
	for k, n := range want {
		if got[k] != n {
			t.Errorf("%s = %d, want %d (all: %v)", k, got[k], n, got)
		}
	}
}

func TestLatencyOnlyForCompletedOperations(t *testing.T) {
	rm := collect(t,
		gqlcache.Event{Kind: gqlcache.MutationIssued},
		gqlcache.Event{Kind: gqlcache.UpsertMutation, Duration: 15 * time.Millisecond},
	)
	found := findMetric(rm, MetricLatency)
	if found == nil {
		t.Fatal("latency metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("data points = %d, want 1", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 || dp.Sum != 15 {
		t.Fatalf("count=%d sum=%v, want 1 / 15", dp.Count, dp.Sum)
	}
}

func TestNewReader(t *testing.T) {
	for _, name := range []string{"", "none", "stdout"} {
		r, err := NewReader(name, io.Discard)
		if err != nil || r == nil {
			t.Fatalf("NewReader(%q): %v", name, err)
		}
		_ = r.Shutdown(context.Background())
	}
	if _, err := NewReader("carrier-pigeon", nil); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestStdoutExporterWritesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	mp, err := NewMeterProvider("stdout", &buf)
	if err != nil {
		t.Fatalf("NewMeterProvider: %v", err)
	}
	s, err := New(mp.Meter("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Emit(gqlcache.Event{Kind: gqlcache.CacheHit, Duration: time.Millisecond})
	if err := mp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), MetricEvents) {
		t.Fatalf("metrics not written to the writer: %q", buf.String())
	}
}

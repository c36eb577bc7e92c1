// Package otelsink records telemetry events as OpenTelemetry metrics.
//
// Every event increments gqlcache.events.total (attribute event.kind);
// latency-bearing events (cache hit/miss, delete/upsert mutation) are also
// recorded on the gqlcache.latency histogram in milliseconds.
package otelsink

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/unkn0wn-root/gqlcache"
)

const (
	MetricEvents  = "gqlcache.events.total"
	MetricLatency = "gqlcache.latency"
)

type Sink struct {
	events  metric.Int64Counter
	latency metric.Float64Histogram
	attrs   map[gqlcache.EventKind]metric.MeasurementOption
}

var _ gqlcache.Sink = (*Sink)(nil)

func New(meter metric.Meter) (*Sink, error) {
	events, err := meter.Int64Counter(
		MetricEvents,
		metric.WithDescription("Query and mutation lifecycle events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		MetricLatency,
		metric.WithDescription("Time from call to completion in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	s := &Sink{events: events, latency: latency, attrs: make(map[gqlcache.EventKind]metric.MeasurementOption)}
	for _, k := range []gqlcache.EventKind{
		gqlcache.CacheHit, gqlcache.CacheMiss,
		gqlcache.DeleteMutation, gqlcache.UpsertMutation,
		gqlcache.QueryIssued, gqlcache.MutationIssued,
	} {
		s.attrs[k] = metric.WithAttributes(attribute.String("event.kind", k.String()))
	}
	return s, nil
}

func (s *Sink) Emit(e gqlcache.Event) {
	opt, ok := s.attrs[e.Kind]
	if !ok {
		return
	}
	ctx := context.Background()
	s.events.Add(ctx, 1, opt)
	switch e.Kind {
	case gqlcache.QueryIssued, gqlcache.MutationIssued:
	default:
		s.latency.Record(ctx, float64(e.Duration.Microseconds())/1000, opt)
	}
}

// NewReader creates a metrics reader by exporter name.
// Supported exporters: stdout (writes to w, os.Stderr when nil), prometheus, none
func NewReader(name string, w io.Writer) (sdkmetric.Reader, error) {
	switch name {
	case "stdout":
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		return exp, nil

	case "none", "":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	default:
		return nil, fmt.Errorf("unknown metrics exporter: %q", name)
	}
}

// NewMeterProvider wires NewReader into a meter provider. The caller owns
// Shutdown.
func NewMeterProvider(exporter string, w io.Writer) (*sdkmetric.MeterProvider, error) {
	r, err := NewReader(exporter, w)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(r)), nil
}

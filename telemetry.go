package gqlcache

import "time"

// EventKind names a telemetry event.
type EventKind uint8

const (
	CacheHit       EventKind = iota + 1 // query served from the store
	CacheMiss                           // query served by the network (hunt)
	DeleteMutation                      // delete mutation completed
	UpsertMutation                      // add/update mutation completed
	QueryIssued                         // a query started; Duration is zero
	MutationIssued                      // a mutation started; Duration is zero
)

func (k EventKind) String() string {
	switch k {
	case CacheHit:
		return "cache_hit"
	case CacheMiss:
		return "cache_miss"
	case DeleteMutation:
		return "delete_mutation"
	case UpsertMutation:
		return "upsert_mutation"
	case QueryIssued:
		return "query_issued"
	case MutationIssued:
		return "mutation_issued"
	default:
		return "unknown"
	}
}

// Event is one telemetry record. Latency kinds carry the time elapsed since
// the operation started; Query is the caller-supplied text.
type Event struct {
	Kind     EventKind
	Duration time.Duration
	Query    string
}

// Millis is Duration in whole milliseconds.
func (e Event) Millis() uint64 {
	if e.Duration <= 0 {
		return 0
	}
	return uint64(e.Duration.Milliseconds())
}

// Sink receives telemetry events. Emit is called on the hot path of every
// query and mutation: implementations MUST be cheap and non-blocking (wrap a
// slow sink with telemetry/async). A panicking Sink is recovered.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// NopSink is the default no-op.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// MultiSink fans an event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// usage:
//
//	raw := slogsink.New(slog.Default(), slogsink.Options{HitEvery: 100})
//	sink := asyncsink.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer sink.Close()
//
//	client, _ := gqlcache.New(gqlcache.Options{
//	    Store: store,
//	    Sink:  sink, // or `raw` if it is cheap enough to run inline
//	})
package asyncsink

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/gqlcache"
)

// Sink hands events to a worker pool over a bounded queue. Events arriving
// while the queue is full are dropped and counted.
type Sink struct {
	inner   gqlcache.Sink
	q       chan gqlcache.Event
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards q against send-after-close
	closed  bool
	dropped atomic.Uint64
}

var _ gqlcache.Sink = (*Sink)(nil)

func New(inner gqlcache.Sink, workers, qlen int) *Sink {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	s := &Sink{inner: inner, q: make(chan gqlcache.Event, qlen)}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer s.wg.Done()
			for e := range s.q {
				s.deliver(e)
			}
		}()
	}
	return s
}

func (s *Sink) deliver(e gqlcache.Event) {
	defer func() { _ = recover() }()
	s.inner.Emit(e)
}

// Close drains the queue and stops the workers. Emit after Close drops.
func (s *Sink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.q)
		s.mu.Unlock()
		s.wg.Wait()
	})
}

func (s *Sink) Emit(e gqlcache.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.q <- e:
	default: // drop
		s.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded.
func (s *Sink) Dropped() uint64 { return s.dropped.Load() }

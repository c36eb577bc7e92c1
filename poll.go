package gqlcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PollState is the lifecycle of a PollHandle: Idle -> Active -> Cancelled.
type PollState uint32

const (
	PollIdle PollState = iota
	PollActive
	PollCancelled
)

func (s PollState) String() string {
	switch s {
	case PollIdle:
		return "idle"
	case PollActive:
		return "active"
	case PollCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PollHandle controls one running poll.
type PollHandle struct {
	c        *Client
	query    string
	opts     RequestOptions
	interval time.Duration

	mu    sync.Mutex // guards state against launching a tick after Stop
	state PollState

	iters    atomic.Uint64
	inflight sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Poll re-runs query every opts.PollInterval until the handle is stopped or
// the Client is closed. Each tick issues an independent Query with the cache
// read skipped; ticks are not coalesced and may overlap when the network is
// slower than the period. Results are discarded and failures are logged.
//
// The poll keeps running after ctx is cancelled; only Stop ends it. Values
// carried by ctx are passed to every tick.
func (c *Client) Poll(ctx context.Context, query string, opts RequestOptions) (*PollHandle, error) {
	if opts.PollInterval <= 0 {
		return nil, ErrInvalidPollInterval
	}
	h := &PollHandle{
		c:        c,
		query:    query,
		opts:     opts,
		interval: opts.PollInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	h.opts.PollInterval = 0
	h.opts.SkipCacheRead = true

	c.pollMu.Lock()
	if c.closed {
		c.pollMu.Unlock()
		return nil, ErrClosed
	}
	c.polls[h] = struct{}{}
	c.pollMu.Unlock()

	h.mu.Lock()
	h.state = PollActive
	h.mu.Unlock()

	c.log.Debug("poll started", Fields{"query": short(query), "interval": h.interval.String()})
	go h.loop(context.WithoutCancel(ctx))
	return h, nil
}

func (h *PollHandle) loop(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer func() {
		t.Stop()
		h.inflight.Wait()
		h.c.pollMu.Lock()
		delete(h.c.polls, h)
		h.c.pollMu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-h.stop:
			return
		case <-t.C:
			h.mu.Lock()
			if h.state != PollActive {
				h.mu.Unlock()
				return
			}
			h.inflight.Add(1)
			h.iters.Add(1)
			h.mu.Unlock()
			go h.tick(ctx)
		}
	}
}

func (h *PollHandle) tick(ctx context.Context) {
	defer h.inflight.Done()
	// errors are logged by Query
	_, _ = h.c.Query(ctx, h.query, h.opts)
}

// Stop cancels the poll. No tick starts after Stop returns; ticks already
// running finish on their own (wait on Done). Calling Stop again is a no-op.
func (h *PollHandle) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.state = PollCancelled
		h.mu.Unlock()
		close(h.stop)
		h.c.log.Debug("poll stopped", Fields{"query": short(h.query), "iterations": h.iters.Load()})
	})
}

// Done is closed once the poll is stopped and its in-flight ticks returned.
func (h *PollHandle) Done() <-chan struct{} { return h.done }

func (h *PollHandle) State() PollState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Iterations is the number of ticks started so far.
func (h *PollHandle) Iterations() uint64 { return h.iters.Load() }

package gqlcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/gqlcache/provider/lru"
	"github.com/unkn0wn-root/gqlcache/transport"
	"github.com/unkn0wn-root/gqlcache/typename"
)

// Client runs queries and mutations against a Store and a Transport.
// It is safe for concurrent use.
type Client struct {
	store     Store // what callers and Update callbacks see (mirrored if configured)
	owned     *ProviderStore
	transport Transport
	normalize Normalizer
	sink      Sink
	mirror    Mirror
	log       Logger
	endpoint  string
	flight    *singleflight.Group
	now       func() time.Time

	updateMu sync.Mutex // Update callbacks run one at a time

	pollMu sync.Mutex
	polls  map[*PollHandle]struct{}
	closed bool
}

func newClient(opts Options) (*Client, error) {
	c := &Client{
		normalize: opts.Normalizer,
		mirror:    opts.Mirror,
		endpoint:  coalesce(opts.DefaultEndpoint, DefaultEndpoint),
		now:       time.Now,
		polls:     make(map[*PollHandle]struct{}),
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.sink = coalesce[Sink](opts.Sink, NopSink{})
	if c.normalize == nil {
		c.normalize = typename.Insert
	}
	if opts.CoalesceFetches {
		c.flight = new(singleflight.Group)
	}

	c.transport = opts.Transport
	if c.transport == nil {
		t, err := transport.New(transport.Config{BaseURL: opts.BaseURL})
		if err != nil {
			return nil, err
		}
		c.transport = t
	}

	store := opts.Store
	if store == nil {
		p, err := lru.New(0)
		if err != nil {
			return nil, err
		}
		ps, err := NewStore(StoreOptions{
			Namespace: DefaultNamespace,
			Provider:  p,
			Transport: c.transport,
			Logger:    c.log,
			TTL:       opts.CacheTTL,
		})
		if err != nil {
			return nil, err
		}
		c.owned = ps
		store = ps
	}
	if c.mirror != nil {
		store = &mirroredStore{Store: store, mirror: c.mirror, log: c.log}
	}
	c.store = store
	return c, nil
}

// Cache returns the store the Client reads and writes.
func (c *Client) Cache() Store { return c.store }

// Clear drops every cached response.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error("clear failed", Fields{"err": err})
		return asError("clear", KindCache, "", err)
	}
	return nil
}

// Close stops every active poll, waits for the poll loops to exit and
// releases the mirror and the default store. In-flight queries finish on
// their own. If ctx ends before the polls do, the mirror and store are
// still released and the returned error wraps ctx.Err().
func (c *Client) Close(ctx context.Context) error {
	c.pollMu.Lock()
	if c.closed {
		c.pollMu.Unlock()
		return nil
	}
	c.closed = true
	handles := make([]*PollHandle, 0, len(c.polls))
	for h := range c.polls {
		handles = append(handles, h)
	}
	c.pollMu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
	var waitErr error
wait:
	for _, h := range handles {
		select {
		case <-h.Done():
		case <-ctx.Done():
			waitErr = fmt.Errorf("gqlcache: waiting for polls: %w", ctx.Err())
			break wait
		}
	}

	// released even when the wait timed out; a second Close is a no-op
	var mirrorErr, storeErr error
	if c.mirror != nil {
		if err := c.mirror.Close(); err != nil {
			mirrorErr = fmt.Errorf("gqlcache: close mirror: %w", err)
		}
	}
	if c.owned != nil {
		storeErr = c.owned.Close(context.WithoutCancel(ctx))
	}
	return errors.Join(waitErr, mirrorErr, storeErr)
}

// fetch runs the transport, sharing one request between identical concurrent
// fetches when CoalesceFetches is on.
func (c *Client) fetch(ctx context.Context, endpoint, doc string) (Response, error) {
	if c.flight == nil {
		return c.transport.Do(ctx, endpoint, doc)
	}
	// the shared call must not die with whichever caller started it
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(endpoint+"\x00"+doc, func() (any, error) {
		return c.transport.Do(shared, endpoint, doc)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp := res.Val.(Response)
		if res.Shared {
			resp = Clone(resp)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) emit(e Event) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("telemetry sink panicked", Fields{"kind": e.Kind.String(), "panic": r})
		}
	}()
	c.sink.Emit(e)
}

func (c *Client) since(start time.Time) time.Duration { return c.now().Sub(start) }

// fail logs err and returns the empty result that goes with it.
func (c *Client) fail(op string, kind Kind, key, endpoint string, err error) (Result, error) {
	e := asError(op, kind, key, err)
	c.log.Error("request failed", Fields{
		"op":       e.Op,
		"kind":     e.Kind.String(),
		"endpoint": endpoint,
		"query":    short(key),
		"err":      e.Err,
	})
	return Result{}, e
}

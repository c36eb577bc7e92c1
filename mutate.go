package gqlcache

import (
	"context"
	"fmt"
)

// Mutate sends mutation to the network and reconciles the cache.
//
// The mutation is always normalized, and the normalized text is both what
// is sent and the cache key. WriteThrough hands the round trip and the cache
// change to the Store. Otherwise the transport is called directly, then the
// entry is removed (ToDelete), handed to Update, or written as is.
func (c *Client) Mutate(ctx context.Context, mutation string, opts MutationOptions) (Result, error) {
	if opts.Update != nil && ctx.Value(updateKey{}) == c {
		return c.fail("mutate", KindCallback, mutation, c.endpointOr(opts.Endpoint), ErrNestedUpdate)
	}

	start := c.now()
	c.emit(Event{Kind: MutationIssued, Query: mutation})

	endpoint := c.endpointOr(opts.Endpoint)
	doc := c.normalize(mutation)
	kind := UpsertMutation
	if opts.ToDelete {
		kind = DeleteMutation
	}

	var (
		resp Response
		src  Source
		err  error
	)
	if opts.WriteThrough {
		resp, err = c.store.WriteThrough(ctx, doc, Response{}, opts.ToDelete, endpoint)
		if err != nil {
			return c.fail("writeThrough", KindCache, mutation, endpoint, err)
		}
		src = SourceStore
		if !opts.ToDelete && opts.Update != nil {
			if err := c.runUpdate(ctx, opts.Update, resp); err != nil {
				return c.fail("update", KindCallback, mutation, endpoint, err)
			}
		}
	} else {
		resp, err = c.fetch(ctx, endpoint, doc)
		if err != nil {
			return c.fail("mutate", KindTransport, mutation, endpoint, err)
		}
		src = SourceNetwork
		if err := c.reconcile(ctx, mutation, doc, resp, opts); err != nil {
			return c.fail("mutate", KindCache, mutation, endpoint, err)
		}
	}

	d := c.since(start)
	c.emit(Event{Kind: kind, Duration: d, Query: mutation})
	c.log.Debug("mutation done", Fields{"kind": kind.String(), "endpoint": endpoint, "ms": d.Milliseconds()})
	return Result{Data: resp, Source: src, Latency: d}, nil
}

// reconcile applies the cache side of a direct mutation.
func (c *Client) reconcile(ctx context.Context, mutation, key string, resp Response, opts MutationOptions) error {
	switch {
	case opts.SkipCacheWrite:
		return nil
	case opts.ToDelete:
		return c.store.Write(ctx, key, nil, true)
	case opts.Update != nil:
		if err := c.runUpdate(ctx, opts.Update, resp); err != nil {
			return asError("update", KindCallback, mutation, err)
		}
		return nil
	default:
		return c.store.Write(ctx, key, Clone(resp), false)
	}
}

// updateKey marks contexts handed to an Update callback.
type updateKey struct{}

// runUpdate calls fn with a cache handle that is revoked when fn returns.
// Callbacks are serialized; a panic becomes an error. The ctx given to fn
// carries updateKey so a nested Mutate with its own Update fails instead of
// waiting on updateMu forever.
func (c *Client) runUpdate(ctx context.Context, fn UpdateFunc, resp Response) (err error) {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()

	ctx = context.WithValue(ctx, updateKey{}, c)
	h := &scopedStore{inner: c.store}
	defer h.release()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("update callback panicked: %v", r)
		}
	}()
	return fn(ctx, h, resp)
}

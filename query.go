package gqlcache

import "context"

// Query resolves query from the cache or, on a miss, from the network.
//
// With PollInterval set, Query starts a poll and returns at once with
// Result.Poll holding its handle; the poll's responses are not delivered to
// the caller. Otherwise exactly one of cache hit and network fetch happens.
// A store read error is logged and treated as a miss.
func (c *Client) Query(ctx context.Context, query string, opts RequestOptions) (Result, error) {
	if opts.PollInterval > 0 {
		h, err := c.Poll(ctx, query, opts)
		if err != nil {
			return Result{}, err
		}
		return Result{Poll: h, Source: SourcePoll}, nil
	}

	start := c.now()
	c.emit(Event{Kind: QueryIssued, Query: query})

	if !opts.SkipCacheRead {
		var (
			resp Response
			ok   bool
			err  error
		)
		if opts.WholeQuery {
			resp, ok, err = c.store.ReadWholeQuery(ctx, query)
		} else {
			resp, ok, err = c.store.Read(ctx, query)
		}
		switch {
		case err != nil:
			c.log.Warn("cache read failed", Fields{"query": short(query), "err": err})
		case ok && len(resp) > 0:
			d := c.since(start)
			c.emit(Event{Kind: CacheHit, Duration: d, Query: query})
			c.log.Debug("cache hit", Fields{"query": short(query), "whole": opts.WholeQuery})
			return Result{Data: resp, Source: SourceCache, Latency: d}, nil
		}
	}

	return c.hunt(ctx, huntParams{
		query:     query,
		endpoint:  c.endpointOr(opts.Endpoint),
		whole:     opts.WholeQuery,
		skipWrite: opts.SkipCacheWrite,
		start:     start,
	})
}

// hunt fetches p.query from the network and caches the response under the
// caller's text. A failed cache write is logged; the response is still
// returned.
func (c *Client) hunt(ctx context.Context, p huntParams) (Result, error) {
	doc := p.query
	if !p.whole {
		doc = c.normalize(doc)
	}

	resp, err := c.fetch(ctx, p.endpoint, doc)
	if err != nil {
		return c.fail("hunt", KindTransport, p.query, p.endpoint, err)
	}

	if !p.skipWrite {
		cp := Clone(resp)
		if p.whole {
			err = c.store.WriteWholeQuery(ctx, p.query, cp)
		} else {
			err = c.store.Write(ctx, p.query, cp, false)
		}
		if err != nil {
			c.log.Error("cache write failed", Fields{"op": "hunt", "query": short(p.query), "err": err})
		}
	}

	d := c.since(p.start)
	c.emit(Event{Kind: CacheMiss, Duration: d, Query: p.query})
	c.log.Debug("cache miss", Fields{"query": short(p.query), "endpoint": p.endpoint, "ms": d.Milliseconds()})
	return Result{Data: resp, Source: SourceNetwork, Latency: d}, nil
}

// Package gqlcache is a client-side caching layer for GraphQL traffic.
//
// A Client sits between data-fetching call sites and a GraphQL endpoint and
// decides, per call, whether a request is served from the cache or from the
// network, and how the cache is reconciled after a mutation.
//
// Components:
//   - Store: the cache. ProviderStore keeps framed, generation-stamped entries
//     in any provider.Provider (ristretto, bigcache, LRU, Redis).
//   - Transport: POSTs {"query": ...} to an endpoint (see package transport).
//   - Normalizer: adds __typename to outgoing documents (see package typename).
//   - Sink: receives latency events; Mirror shadows every cache write.
//
// Query strategies:
//
//	res, err := client.Query(ctx, "{user{id name}}", gqlcache.RequestOptions{})
//	// read-through: cache hit, or fetch + write on miss
//
//	res, _ = client.Query(ctx, q, gqlcache.RequestOptions{PollInterval: time.Second})
//	defer res.Poll.Stop() // refetches every second, bypassing the cache read
//
// Mutation strategies:
//
//	client.Mutate(ctx, m, gqlcache.MutationOptions{})                   // fetch, then upsert
//	client.Mutate(ctx, m, gqlcache.MutationOptions{ToDelete: true})     // fetch, then delete
//	client.Mutate(ctx, m, gqlcache.MutationOptions{WriteThrough: true}) // store does both
//
// Failures never panic and are always logged. They are returned as *Error
// with a Kind (transport, cache, callback); Result.Data is nil on failure.
package gqlcache

package gqlcache

import (
	"context"
	"time"
)

// Response is a decoded GraphQL response object ({"data": ..., "errors": ...}).
type Response = map[string]any

// Store is the cache consumed by the Client. ProviderStore is the bundled
// implementation; any type satisfying Store can be plugged in.
//
// Read and ReadWholeQuery return ok=false on a miss. Implementations must be
// safe for concurrent use; concurrent writers to one key race and the last
// write wins.
type Store interface {
	// Read looks up a response cached by Write.
	Read(ctx context.Context, query string) (Response, bool, error)
	// ReadWholeQuery looks up a response cached by WriteWholeQuery.
	ReadWholeQuery(ctx context.Context, query string) (Response, bool, error)
	// Write caches resp under query, or removes query when del is set.
	Write(ctx context.Context, query string, resp Response, del bool) error
	// WriteWholeQuery caches resp for query as an unmodified whole.
	WriteWholeQuery(ctx context.Context, query string, resp Response) error
	// WriteThrough performs the network round trip for query against
	// endpoint and applies the result to the cache (removal when del is set)
	// as one operation. resp is the placeholder the result is merged over.
	WriteThrough(ctx context.Context, query string, resp Response, del bool, endpoint string) (Response, error)
	// Clear drops every cached response.
	Clear(ctx context.Context) error
}

// Transport sends a document to endpoint and returns the decoded response.
// *transport.HTTP is the bundled implementation.
type Transport interface {
	Do(ctx context.Context, endpoint, query string) (Response, error)
}

// Normalizer prepares a document for transmission. It must be pure.
type Normalizer func(query string) string

// UpdateFunc applies custom cache edits after a mutation response arrives.
// The cache handle is only valid until the function returns; calls made
// through it afterwards fail with ErrHandleReleased. Update callbacks never
// run concurrently with each other, so a callback must not wait on another
// one: Mutate with an Update, called with the callback's ctx, fails with
// ErrNestedUpdate. Calling it with an unrelated ctx deadlocks.
type UpdateFunc func(ctx context.Context, cache Store, resp Response) error

// Mirror shadows cache writes somewhere durable or observable (a SQLite
// file, a debugging UI). It is called after every successful write, delete,
// write-through and clear made through the Client, Update callbacks included.
// Mirror errors are logged and never fail the operation.
type Mirror interface {
	Put(ctx context.Context, query string, whole bool, resp Response) error
	Delete(ctx context.Context, query string) error
	Reset(ctx context.Context) error
	Close() error
}

// Options configure a Client. The zero value is usable: it caches in an
// in-process LRU and sends requests to DefaultEndpoint relative to BaseURL.
type Options struct {
	Store     Store     // nil => ProviderStore over an in-process LRU (owned by the Client)
	Transport Transport // nil => transport.HTTP with BaseURL
	BaseURL   string    // used only when Transport is nil

	DefaultEndpoint string     // "" => "/graphql"
	Normalizer      Normalizer // nil => typename.Insert
	Sink            Sink       // nil => NopSink
	Mirror          Mirror     // optional; closed by Client.Close
	Logger          Logger     // nil => NopLogger

	// CoalesceFetches shares one in-flight network request between
	// concurrent identical fetches (same endpoint and document). Each caller
	// still gets its own copy of the response. Off by default.
	CoalesceFetches bool

	// CacheTTL applies to the default store only; 0 => 10m.
	CacheTTL time.Duration
}

// New builds a Client.
func New(opts Options) (*Client, error) {
	return newClient(opts)
}

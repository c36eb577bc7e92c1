package gqlcache

import "time"

// RequestOptions tune a single Query. The zero value reads and writes the
// cache, normalizes the document and uses the client's default endpoint.
type RequestOptions struct {
	Endpoint       string        // "" => client default
	SkipCacheRead  bool          // always go to the network
	SkipCacheWrite bool          // do not store the network response
	PollInterval   time.Duration // > 0 => repeat the query on this period
	WholeQuery     bool          // cache and send the document unmodified
}

// MutationOptions tune a single Mutate. The zero value sends the mutation
// directly and stores its response under the (normalized) mutation text.
type MutationOptions struct {
	Endpoint       string // "" => client default
	SkipCacheWrite bool   // leave the cache untouched
	ToDelete       bool   // remove the entry instead of writing it
	Update         UpdateFunc
	WriteThrough   bool // let the Store perform the round trip and the cache change together
}

// huntParams carries what the network fallback needs from its Query.
type huntParams struct {
	query     string
	endpoint  string
	whole     bool
	skipWrite bool
	start     time.Time
}

func (c *Client) endpointOr(e string) string {
	return coalesce(e, c.endpoint)
}

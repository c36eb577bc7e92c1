// Package lru is an in-process provider backed by a 2Q cache from
// hashicorp/golang-lru. Capacity is counted in entries; TTLs are enforced on
// read since the 2Q cache has no expiry of its own.
package lru

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	pr "github.com/unkn0wn-root/gqlcache/provider"
)

type entry struct {
	b   []byte
	exp time.Time // zero => no TTL
}

type Provider struct {
	mu  sync.Mutex // guards expiry check + delete on Get
	c   *lru.TwoQueueCache[string, entry]
	now func() time.Time
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Resetter = (*Provider)(nil)
)

// New returns a provider holding at most size entries (default 5000).
func New(size int) (*Provider, error) {
	if size <= 0 {
		size = 5000
	}
	c, err := lru.New2Q[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && p.now().After(e.exp) {
		p.c.Remove(key)
		return nil, false, nil
	}
	return e.b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = p.now().Add(ttl)
	}
	p.mu.Lock()
	p.c.Add(key, entry{b: value, exp: exp})
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	p.c.Remove(key)
	p.mu.Unlock()
	return nil
}

func (p *Provider) Reset(context.Context) error {
	p.mu.Lock()
	p.c.Purge()
	p.mu.Unlock()
	return nil
}

// Len reports the number of entries, expired ones included.
func (p *Provider) Len() int { return p.c.Len() }

func (p *Provider) Close(context.Context) error {
	return p.Reset(context.Background())
}

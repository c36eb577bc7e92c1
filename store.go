package gqlcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/gqlcache/codec"
	gen "github.com/unkn0wn-root/gqlcache/genstore"
	"github.com/unkn0wn-root/gqlcache/internal/util"
	"github.com/unkn0wn-root/gqlcache/internal/wire"
	pr "github.com/unkn0wn-root/gqlcache/provider"
)

// SetCostFunc weighs an entry for cost-aware providers (ristretto).
type SetCostFunc func(key string, raw []byte) int64

// StoreOptions tune a ProviderStore.
// Only Namespace and Provider are required.
type StoreOptions struct {
	Namespace string // isolates keys of several stores sharing one provider
	Provider  pr.Provider

	Codec           c.Codec[Response] // nil => codec.JSON
	GenStore        gen.GenStore      // nil => in-process LocalGenStore
	Transport       Transport         // needed by WriteThrough only
	Logger          Logger            // nil => NopLogger
	TTL             time.Duration     // 0 => 10m
	CleanupInterval time.Duration     // local gen cleanup; 0 => 1h
	GenRetention    time.Duration     // 0 => 30d
	ComputeSetCost  SetCostFunc       // nil => len(raw)
}

// ProviderStore implements Store over a byte provider.
//
// Keys are "<q|w>:<ns>:<epoch>:<digest>" (see internal/util). Each entry is a
// wire frame stamped with the generation its key had at write time; a delete
// bumps that generation, so entries written before the delete are rejected
// on read even if the provider still holds them. Clear bumps the namespace
// epoch, which moves every key at once.
type ProviderStore struct {
	ns             string
	provider       pr.Provider
	codec          c.Codec[Response]
	gen            gen.GenStore
	transport      Transport
	log            Logger
	ttl            time.Duration
	computeSetCost SetCostFunc
}

var _ Store = (*ProviderStore)(nil)

func NewStore(opts StoreOptions) (*ProviderStore, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("gqlcache: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("gqlcache: namespace is required")
	}

	s := &ProviderStore{
		ns:        opts.Namespace,
		provider:  opts.Provider,
		transport: opts.Transport,
	}

	s.codec = opts.Codec
	if s.codec == nil {
		s.codec = c.JSON[Response]{}
	}
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.ttl = coalesce(opts.TTL, defaultTTL)

	if opts.ComputeSetCost != nil {
		s.computeSetCost = opts.ComputeSetCost
	} else {
		s.computeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}

	if opts.GenStore != nil {
		s.gen = opts.GenStore
	} else {
		s.gen = gen.NewLocalGenStore(
			coalesce(opts.CleanupInterval, defaultSweep),
			coalesce(opts.GenRetention, defaultGenRetention),
		)
	}
	// a pruned epoch would move every key back to epoch 0
	if p, ok := s.gen.(gen.Pinner); ok {
		p.Pin(s.epochKey())
	}
	return s, nil
}

func (s *ProviderStore) Read(ctx context.Context, query string) (Response, bool, error) {
	return s.get(ctx, wire.KindQuery, query)
}

func (s *ProviderStore) ReadWholeQuery(ctx context.Context, query string) (Response, bool, error) {
	return s.get(ctx, wire.KindWhole, query)
}

func (s *ProviderStore) Write(ctx context.Context, query string, resp Response, del bool) error {
	if del {
		return s.invalidate(ctx, query)
	}
	return s.set(ctx, wire.KindQuery, query, resp)
}

func (s *ProviderStore) WriteWholeQuery(ctx context.Context, query string, resp Response) error {
	return s.set(ctx, wire.KindWhole, query, resp)
}

// WriteThrough sends query to endpoint, merges the result over resp and then
// removes (del) or stores the merged response under query. Transport
// failures come back as *Error of KindTransport and leave the cache as is.
func (s *ProviderStore) WriteThrough(ctx context.Context, query string, resp Response, del bool, endpoint string) (Response, error) {
	if s.transport == nil {
		return nil, ErrNoTransport
	}
	out, err := s.transport.Do(ctx, endpoint, query)
	if err != nil {
		return nil, &Error{Op: "writeThrough", Kind: KindTransport, Key: query, Err: err}
	}

	merged := Clone(resp)
	if merged == nil {
		merged = make(Response, len(out))
	}
	for k, v := range out {
		merged[k] = v
	}

	if del {
		err = s.invalidate(ctx, query)
	} else {
		err = s.set(ctx, wire.KindQuery, query, merged)
	}
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Clear rotates the namespace epoch. In-process providers are also reset to
// release memory; shared providers keep old entries until their TTL.
func (s *ProviderStore) Clear(ctx context.Context) error {
	epoch, err := s.gen.Bump(ctx, s.epochKey())
	if err != nil {
		return fmt.Errorf("gqlcache: clear: %w", err)
	}
	s.log.Debug("cache cleared", Fields{"ns": s.ns, "epoch": epoch})
	if r, ok := s.provider.(pr.Resetter); ok {
		if err := r.Reset(ctx); err != nil {
			s.log.Warn("provider reset failed", Fields{"ns": s.ns, "err": err})
		}
	}
	return nil
}

func (s *ProviderStore) Close(ctx context.Context) error {
	// gen store first (best effort)
	if s.gen != nil {
		_ = s.gen.Close(ctx)
	}
	return s.provider.Close(ctx)
}

func (s *ProviderStore) get(ctx context.Context, kind wire.Kind, query string) (Response, bool, error) {
	k, err := s.key(ctx, kind, query)
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	g, payload, err := wire.Decode(kind, raw)
	if err != nil {
		s.selfHeal(ctx, k, "corrupt")
		return nil, false, nil
	}
	cur, err := s.gen.Snapshot(ctx, k)
	if err != nil {
		return nil, false, err
	}
	if g != cur {
		s.selfHeal(ctx, k, "gen_mismatch")
		return nil, false, nil
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		s.selfHeal(ctx, k, "value_decode")
		return nil, false, nil
	}
	return v, true, nil
}

func (s *ProviderStore) set(ctx context.Context, kind wire.Kind, query string, resp Response) error {
	k, err := s.key(ctx, kind, query)
	if err != nil {
		return err
	}
	obs, err := s.gen.Snapshot(ctx, k)
	if err != nil {
		return err
	}
	payload, err := s.codec.Encode(resp)
	if err != nil {
		return err
	}
	frame := wire.Encode(kind, obs, payload)
	ok, err := s.provider.Set(ctx, k, frame, s.computeSetCost(k, frame), s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Debug("write rejected by provider (pressure)", Fields{"key": k, "query": short(query)})
	}
	return nil
}

// invalidate removes both the normalized and the whole-query entry for query.
// It only fails when neither the generation bump nor the delete went through
// for some key; one of the two is enough to hide the old entry.
func (s *ProviderStore) invalidate(ctx context.Context, query string) error {
	var errs []error
	for _, kind := range []wire.Kind{wire.KindQuery, wire.KindWhole} {
		k, err := s.key(ctx, kind, query)
		if err != nil {
			return err
		}
		newGen, bumpErr := s.gen.Bump(ctx, k)
		if bumpErr != nil {
			s.log.Error("gen bump error", Fields{"key": k, "err": bumpErr})
		}
		delErr := s.provider.Del(ctx, k)
		if bumpErr != nil && delErr != nil {
			errs = append(errs, &InvalidateError{Key: query, BumpErr: bumpErr, DelErr: delErr})
			continue
		}
		s.log.Debug("invalidated key", Fields{"key": k, "newGen": newGen})
	}
	return errors.Join(errs...)
}

func (s *ProviderStore) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = s.provider.Del(ctx, storageKey)
	s.log.Debug("dropped unreadable entry", Fields{"key": storageKey, "reason": reason})
}

func (s *ProviderStore) epochKey() string { return "epoch:" + s.ns }

func (s *ProviderStore) key(ctx context.Context, kind wire.Kind, query string) (string, error) {
	epoch, err := s.gen.Snapshot(ctx, s.epochKey())
	if err != nil {
		return "", fmt.Errorf("gqlcache: epoch snapshot: %w", err)
	}
	prefix := "q"
	if kind == wire.KindWhole {
		prefix = "w"
	}
	return util.StorageKey(prefix, s.ns, epoch, query), nil
}

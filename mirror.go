package gqlcache

import (
	"context"
	"sync/atomic"
)

// mirroredStore forwards every successful cache change to a Mirror.
type mirroredStore struct {
	Store
	mirror Mirror
	log    Logger
}

func (m *mirroredStore) Write(ctx context.Context, query string, resp Response, del bool) error {
	if err := m.Store.Write(ctx, query, resp, del); err != nil {
		return err
	}
	if del {
		m.report("delete", query, m.mirror.Delete(ctx, query))
	} else {
		m.report("put", query, m.mirror.Put(ctx, query, false, resp))
	}
	return nil
}

func (m *mirroredStore) WriteWholeQuery(ctx context.Context, query string, resp Response) error {
	if err := m.Store.WriteWholeQuery(ctx, query, resp); err != nil {
		return err
	}
	m.report("put", query, m.mirror.Put(ctx, query, true, resp))
	return nil
}

func (m *mirroredStore) WriteThrough(ctx context.Context, query string, resp Response, del bool, endpoint string) (Response, error) {
	out, err := m.Store.WriteThrough(ctx, query, resp, del, endpoint)
	if err != nil {
		return nil, err
	}
	if del {
		m.report("delete", query, m.mirror.Delete(ctx, query))
	} else {
		m.report("put", query, m.mirror.Put(ctx, query, false, out))
	}
	return out, nil
}

func (m *mirroredStore) Clear(ctx context.Context) error {
	if err := m.Store.Clear(ctx); err != nil {
		return err
	}
	m.report("reset", "", m.mirror.Reset(ctx))
	return nil
}

func (m *mirroredStore) report(op, query string, err error) {
	if err != nil {
		m.log.Warn("mirror update failed", Fields{"op": op, "query": short(query), "err": err})
	}
}

// scopedStore is the cache handle given to an Update callback. It stops
// working once the callback returns.
type scopedStore struct {
	inner    Store
	released atomic.Bool
}

var _ Store = (*scopedStore)(nil)

func (s *scopedStore) release() { s.released.Store(true) }

func (s *scopedStore) Read(ctx context.Context, query string) (Response, bool, error) {
	if s.released.Load() {
		return nil, false, ErrHandleReleased
	}
	return s.inner.Read(ctx, query)
}

func (s *scopedStore) ReadWholeQuery(ctx context.Context, query string) (Response, bool, error) {
	if s.released.Load() {
		return nil, false, ErrHandleReleased
	}
	return s.inner.ReadWholeQuery(ctx, query)
}

func (s *scopedStore) Write(ctx context.Context, query string, resp Response, del bool) error {
	if s.released.Load() {
		return ErrHandleReleased
	}
	return s.inner.Write(ctx, query, resp, del)
}

func (s *scopedStore) WriteWholeQuery(ctx context.Context, query string, resp Response) error {
	if s.released.Load() {
		return ErrHandleReleased
	}
	return s.inner.WriteWholeQuery(ctx, query, resp)
}

func (s *scopedStore) WriteThrough(ctx context.Context, query string, resp Response, del bool, endpoint string) (Response, error) {
	if s.released.Load() {
		return nil, ErrHandleReleased
	}
	return s.inner.WriteThrough(ctx, query, resp, del, endpoint)
}

func (s *scopedStore) Clear(ctx context.Context) error {
	if s.released.Load() {
		return ErrHandleReleased
	}
	return s.inner.Clear(ctx)
}

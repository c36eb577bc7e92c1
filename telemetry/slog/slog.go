// Package slogsink writes telemetry events to a log/slog logger.
package slogsink

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/gqlcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// Skip QueryIssued/MutationIssued.
	SkipIssued bool
	// Optional query redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Sink struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ gqlcache.Sink = (*Sink)(nil)

func New(l *slog.Logger, opts Options) *Sink {
	return &Sink{l: l, opts: opts}
}

func (s *Sink) redact(q string) string {
	if s.opts.Redact != nil {
		return s.opts.Redact(q)
	}
	sum := sha256.Sum256([]byte(q))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (s *Sink) Emit(e gqlcache.Event) {
	if s.l == nil {
		return
	}
	switch e.Kind {
	case gqlcache.CacheHit:
		if !sample(s.opts.HitEvery, &s.hitCtr) {
			return
		}
		s.l.Debug("gqlcache.cache_hit", "query", s.redact(e.Query), "ms", e.Millis())
	case gqlcache.CacheMiss:
		if !sample(s.opts.MissEvery, &s.missCtr) {
			return
		}
		s.l.Info("gqlcache.cache_miss", "query", s.redact(e.Query), "ms", e.Millis())
	case gqlcache.DeleteMutation, gqlcache.UpsertMutation:
		s.l.Info("gqlcache."+e.Kind.String(), "mutation", s.redact(e.Query), "ms", e.Millis())
	case gqlcache.QueryIssued, gqlcache.MutationIssued:
		if s.opts.SkipIssued {
			return
		}
		s.l.Debug("gqlcache."+e.Kind.String(), "query", s.redact(e.Query))
	}
}

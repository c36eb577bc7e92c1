package slogsink

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/gqlcache"
)

func newBufLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestEmitRedactsQuery(t *testing.T) {
	l, buf := newBufLogger()
	s := New(l, Options{})
	s.Emit(gqlcache.Event{Kind: gqlcache.CacheMiss, Duration: 12 * time.Millisecond, Query: "{secret{id}}"})

	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Fatalf("query leaked into log: %s", out)
	}
	if !strings.Contains(out, "gqlcache.cache_miss") || !strings.Contains(out, "ms=12") {
		t.Fatalf("unexpected log line: %s", out)
	}
}

func TestSampling(t *testing.T) {
	l, buf := newBufLogger()
	s := New(l, Options{HitEvery: 5, Redact: func(string) string { return "q" }})
	for i := 0; i < 20; i++ {
		s.Emit(gqlcache.Event{Kind: gqlcache.CacheHit})
	}
	if n := strings.Count(buf.String(), "gqlcache.cache_hit"); n != 4 {
		t.Fatalf("logged %d hits, want 4", n)
	}
}

func TestSkipIssued(t *testing.T) {
	l, buf := newBufLogger()
	s := New(l, Options{SkipIssued: true})
	s.Emit(gqlcache.Event{Kind: gqlcache.QueryIssued})
	s.Emit(gqlcache.Event{Kind: gqlcache.MutationIssued})
	if buf.Len() != 0 {
		t.Fatalf("issued events logged: %s", buf.String())
	}

	New(nil, Options{}).Emit(gqlcache.Event{Kind: gqlcache.CacheHit}) // nil logger is a no-op
}

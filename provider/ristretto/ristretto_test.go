package ristretto

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64, Metrics: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for zero config")
	}
}

func TestReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	if ok, err := p.Set(ctx, "k", []byte("v"), 1, time.Minute); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	// no sleep: Set waits for the buffer to flush
	if b, ok, _ := p.Get(ctx, "k"); !ok || string(b) != "v" {
		t.Fatalf("Get right after Set: b=%q ok=%v", b, ok)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("hit after Del")
	}
}

func TestResetAndMetrics(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	_, _ = p.Set(ctx, "a", []byte("1"), 1, 0)
	_, _, _ = p.Get(ctx, "a")
	if err := p.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "a"); ok {
		t.Fatalf("hit after Reset")
	}
	if p.Metrics() == nil {
		t.Fatalf("metrics disabled")
	}
}

package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func newServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	r := chi.NewRouter()
	r.Post("/graphql", func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"user":{"__typename":"User","id":"1"}}}`)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func parse(t *testing.T, args ...string) Config {
	t.Helper()
	cfg, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	return cfg
}

func lines(t *testing.T, b []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad output line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("GQLCACHE_PROVIDER", "ristretto")
	t.Setenv("GQLCACHE_TTL", "1m")

	cfg := parse(t, "-codec", "cbor", "-repeat", "0", "{a}")
	if cfg.Provider != "ristretto" || cfg.TTL != time.Minute {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Codec != "cbor" || cfg.Document != "{a}" || cfg.Repeat != 1 {
		t.Fatalf("flags not applied: %+v", cfg)
	}

	cfg = parse(t, "-provider", "bigcache", "{a}")
	if cfg.Provider != "bigcache" {
		t.Fatalf("flag should override env, got %q", cfg.Provider)
	}

	if _, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError), nil); err == nil {
		t.Fatalf("expected error without a document")
	}
}

func TestRunQueryMissThenHit(t *testing.T) {
	srv, calls := newServer(t)

	for _, tc := range []struct{ provider, codec string }{
		{"lru", "json"},
		{"ristretto", "cbor"},
		{"bigcache", "msgpack"},
		{"lru", "struct"},
	} {
		t.Run(tc.provider+"_"+tc.codec, func(t *testing.T) {
			calls.Store(0)
			cfg := parse(t,
				"-url", srv.URL,
				"-provider", tc.provider,
				"-codec", tc.codec,
				"-repeat", "2",
				"-log-level", "error",
				"{user{id}}",
			)
			var out bytes.Buffer
			if err := Run(context.Background(), cfg, nil, &out); err != nil {
				t.Fatalf("Run: %v", err)
			}
			got := lines(t, out.Bytes())
			if len(got) != 2 || got[0]["source"] != "network" || got[1]["source"] != "cache" {
				t.Fatalf("output = %v", got)
			}
			if n := calls.Load(); n != 1 {
				t.Fatalf("server calls = %d, want 1", n)
			}
		})
	}
}

func TestRunStdoutMetricsStayOffStdout(t *testing.T) {
	srv, _ := newServer(t)
	cfg := parse(t, "-url", srv.URL, "-metrics", "stdout", "-repeat", "2", "-log-level", "error", "{user{id}}")

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	stray := make(chan []byte, 1)
	go func() {
		b, _ := io.ReadAll(r)
		stray <- b
	}()
	orig := os.Stdout
	os.Stdout = w
	var out bytes.Buffer
	runErr := Run(context.Background(), cfg, nil, &out)
	os.Stdout = orig
	_ = w.Close()

	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if b := <-stray; len(b) != 0 {
		t.Fatalf("metrics exporter wrote to stdout: %q", b)
	}
	if got := lines(t, out.Bytes()); len(got) != 2 {
		t.Fatalf("output = %v", got)
	}
}

func TestRunMutationWithMirror(t *testing.T) {
	srv, calls := newServer(t)
	cfg := parse(t,
		"-url", srv.URL,
		"-mutation",
		"-mirror", filepath.Join(t.TempDir(), "mirror.db"),
		"-log-level", "error",
		"-",
	)
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, strings.NewReader("mutation { addUser { id } }\n"), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := lines(t, out.Bytes())
	if len(got) != 1 || got[0]["source"] != "network" {
		t.Fatalf("output = %v", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("server calls = %d", calls.Load())
	}
}

func TestRunPoll(t *testing.T) {
	srv, calls := newServer(t)
	cfg := parse(t, "-url", srv.URL, "-poll", "20ms", "-poll-for", "150ms", "-log-level", "error", "{user{id}}")
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, nil, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := lines(t, out.Bytes())
	if len(got) != 1 || got[0]["state"] != "cancelled" {
		t.Fatalf("output = %v", got)
	}
	if calls.Load() < 3 {
		t.Fatalf("server calls = %d, want >= 3", calls.Load())
	}
}

func TestRunRejectsUnknownSettings(t *testing.T) {
	for _, args := range [][]string{
		{"-provider", "memcached", "{a}"},
		{"-codec", "xml", "{a}"},
		{"-metrics", "carrier-pigeon", "{a}"},
		{"-log-level", "loud", "{a}"},
	} {
		cfg := parse(t, args...)
		if err := Run(context.Background(), cfg, nil, io.Discard); err == nil {
			t.Fatalf("args %v: expected error", args)
		}
	}
}

func TestReadDocumentStdin(t *testing.T) {
	if _, err := readDocument("-", strings.NewReader("  \n")); err == nil {
		t.Fatalf("expected error for blank stdin")
	}
	doc, err := readDocument("-", strings.NewReader(" {a}\n"))
	if err != nil || doc != "{a}" {
		t.Fatalf("doc=%q err=%v", doc, err)
	}
}

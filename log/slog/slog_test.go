package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/gqlcache"
)

func TestAttrsSortedAndGrouped(t *testing.T) {
	var buf bytes.Buffer
	base := stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug}))
	l := New(base, "gqlcache")

	l.Info("cache miss", gqlcache.Fields{"query": "q", "endpoint": "/graphql"})
	out := buf.String()
	if !strings.Contains(out, "gqlcache.endpoint=/graphql gqlcache.query=q") {
		t.Fatalf("unexpected line: %s", out)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(stdslog.New(stdslog.NewTextHandler(&buf, nil)), "")
	l.Debug("hidden", gqlcache.Fields{"x": 1})
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %s", buf.String())
	}
}

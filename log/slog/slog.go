//go:build go1.21

// Package slog adapts a *slog.Logger to gqlcache.Logger.
package slog

import (
	"context"
	stdslog "log/slog"
	"sort"

	"github.com/unkn0wn-root/gqlcache"
)

var _ gqlcache.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New groups every field under "gqlcache" when group is set.
func New(l *stdslog.Logger, group string) Logger {
	if l == nil {
		l = stdslog.Default()
	}
	if group != "" {
		l = l.WithGroup(group)
	}
	return Logger{L: l}
}

func (s Logger) Debug(msg string, f gqlcache.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f gqlcache.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f gqlcache.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f gqlcache.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f gqlcache.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, level) {
		return
	}
	s.L.LogAttrs(ctx, level, msg, attrs(f)...)
}

func attrs(f gqlcache.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range keys {
		out = append(out, stdslog.Any(k, f[k]))
	}
	return out
}

// Package zap adapts a *zap.Logger to gqlcache.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/gqlcache"
)

var _ gqlcache.Logger = Logger{}

// Logger writes fields in key order; an error under "err" becomes zap.Error.
type Logger struct{ L *zap.Logger }

func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.WithOptions(zap.AddCallerSkip(1))}
}

func (z Logger) Debug(msg string, f gqlcache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f gqlcache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f gqlcache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f gqlcache.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f gqlcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok && k == "err" {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}

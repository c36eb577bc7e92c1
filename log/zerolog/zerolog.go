// Package zerolog adapts a zerolog.Logger to gqlcache.Logger.
package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/gqlcache"
)

var _ gqlcache.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

func (z Logger) Debug(msg string, f gqlcache.Fields) { z.emit(z.L.Debug(), msg, f) }
func (z Logger) Info(msg string, f gqlcache.Fields)  { z.emit(z.L.Info(), msg, f) }
func (z Logger) Warn(msg string, f gqlcache.Fields)  { z.emit(z.L.Warn(), msg, f) }
func (z Logger) Error(msg string, f gqlcache.Fields) { z.emit(z.L.Error(), msg, f) }

func (z Logger) emit(e *zerolog.Event, msg string, f gqlcache.Fields) {
	if e == nil { // level disabled
		return
	}
	if err, ok := f["err"].(error); ok {
		e = e.Err(err)
		for k, v := range f {
			if k != "err" {
				e = e.Interface(k, v)
			}
		}
	} else {
		e = e.Fields(map[string]any(f))
	}
	e.Msg(msg)
}

package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/gqlcache"
)

func TestFieldsAndError(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Warn("mirror update failed", gqlcache.Fields{"op": "put", "err": errors.New("disk full")})

	e := hook.LastEntry()
	if e == nil || e.Level != logrus.WarnLevel {
		t.Fatalf("entry = %+v", e)
	}
	if e.Data["component"] != "gqlcache" || e.Data["op"] != "put" {
		t.Fatalf("data = %v", e.Data)
	}
	if err, _ := e.Data[logrus.ErrorKey].(error); err == nil || err.Error() != "disk full" {
		t.Fatalf("error field = %v", e.Data[logrus.ErrorKey])
	}
}

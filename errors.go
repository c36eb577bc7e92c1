package gqlcache

import (
	"errors"
	"fmt"
)

// Kind classifies failures of Query and Mutate.
type Kind uint8

const (
	KindTransport Kind = iota + 1 // network failure, non-2xx or non-JSON body
	KindCache                     // store operation failed
	KindCallback                  // an Update callback returned an error or panicked
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindCache:
		return "cache"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

var (
	// Match an *Error by kind: errors.Is(err, gqlcache.ErrTransport).
	ErrTransport = errors.New("gqlcache: transport error")
	ErrCache     = errors.New("gqlcache: cache error")
	ErrCallback  = errors.New("gqlcache: update callback error")

	ErrClosed              = errors.New("gqlcache: client closed")
	ErrNoTransport         = errors.New("gqlcache: store has no transport for write-through")
	ErrHandleReleased      = errors.New("gqlcache: cache handle used after update callback returned")
	ErrInvalidPollInterval = errors.New("gqlcache: poll interval must be positive")
	ErrNestedUpdate        = errors.New("gqlcache: Mutate with Update called from inside an Update callback")
)

// Error is returned by Query and Mutate. Op names the step that failed
// ("hunt", "mutate", "writeThrough", "update"), Key is the query or mutation
// text as supplied by the caller.
type Error struct {
	Op   string
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gqlcache: %s %q: %s: %v", e.Op, short(e.Key), e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrCache:
		return e.Kind == KindCache
	case ErrCallback:
		return e.Kind == KindCallback
	}
	return false
}

// asError wraps err as an *Error of the given kind unless it already is one.
func asError(op string, kind Kind, key string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Op: op, Kind: kind, Key: key, Err: err}
}

// InvalidateError reports a delete where both the generation bump and the
// provider delete failed, so a stale entry may still be served.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}

// Package wire frames cached responses before they reach the provider.
//
// Frame: magic(4) | ver(1) | kind(1) | gen(u64 be) | vlen(u32 be) | payload(vlen)
//
// kind tells a normalized-query entry from a whole-query entry so a reader
// never decodes one as the other, even if a provider mixes keyspaces up.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

type Kind byte

const (
	KindQuery Kind = 1 // read/write
	KindWhole Kind = 2 // readWholeQuery/writeWholeQuery
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("gqlcache: corrupt entry")
	ErrKind    = errors.New("gqlcache: unexpected entry kind")
	magic4     = [...]byte{'G', 'Q', 'L', 'C'}
)

func (k Kind) valid() bool { return k == KindQuery || k == KindWhole }

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindWhole:
		return "whole"
	default:
		return "unknown"
	}
}

func Encode(kind Kind, gen uint64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(byte(kind))

	var u8 [8]byte
	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode validates the frame and returns its generation and payload. The
// payload aliases b. Trailing bytes are rejected.
func Decode(want Kind, b []byte) (gen uint64, payload []byte, err error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	kind := Kind(b[5])
	if !kind.valid() {
		return 0, nil, ErrCorrupt
	}
	if kind != want {
		return 0, nil, ErrKind
	}

	gen = binary.BigEndian.Uint64(b[6:14])
	vlen := binary.BigEndian.Uint32(b[14:18])
	if uint64(vlen) != uint64(len(b)-hdrLen) {
		return 0, nil, ErrCorrupt
	}
	return gen, b[hdrLen:], nil
}

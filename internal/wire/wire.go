// Package wire frames blobs for key/value backends that have no native
// modification time (redis, bigcache). The frame carries the publish time
// next to the payload so a single GET (or GETRANGE of the header) answers
// both Stat and Open.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version  byte = 1
	kindBlob byte = 1

	// HeaderLen is the fixed size of the frame header.
	HeaderLen = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("blobcache: corrupt blob frame")
	magic4     = [...]byte{'B', 'L', 'B', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Blob: magic(4) | ver(1) | kind(1=blob) | modTime(i64 be, unix nanos) | plen(u32 be) | payload(plen)
func Encode(modTime time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindBlob)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(modTime.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeHeader reads only the header. b may be truncated to HeaderLen.
func DecodeHeader(b []byte) (modTime time.Time, size int64, err error) {
	if len(b) < HeaderLen || !hasMagic(b) || b[4] != version || b[5] != kindBlob {
		return time.Time{}, 0, ErrCorrupt
	}
	nanos := int64(binary.BigEndian.Uint64(b[6:14]))
	plen := int64(binary.BigEndian.Uint32(b[14:18]))
	return time.Unix(0, nanos), plen, nil
}

// Decode validates the whole frame and returns a payload slice aliasing b.
func Decode(b []byte) (modTime time.Time, payload []byte, err error) {
	modTime, plen, err := DecodeHeader(b)
	if err != nil {
		return time.Time{}, nil, err
	}
	if plen != int64(len(b)-HeaderLen) { // trailing or missing bytes
		return time.Time{}, nil, ErrCorrupt
	}
	return modTime, b[HeaderLen:], nil
}

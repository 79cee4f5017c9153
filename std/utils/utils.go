package utils

import (
	"encoding/binary"
	"time"
	"unsafe"

	"github.com/gonfd/gonfd/std/types/optional"
)

// NDNdVersion is the version string reported by CLI entrypoints in this module.
const NDNdVersion = "0.0.0-dev"

// IdPtr returns a pointer to a copy of v.
func IdPtr[T any](v T) *T {
	return &v
}

// MakeTimestamp converts a time to milliseconds since the Unix epoch.
func MakeTimestamp(t time.Time) uint64 {
	return uint64(t.UnixMilli())
}

// ConvertNonce decodes a 4-byte big-endian nonce into an optional uint32.
// Returns None if the input is not exactly 4 bytes.
func ConvertNonce(nonce []byte) optional.Optional[uint32] {
	if len(nonce) != 4 {
		return optional.None[uint32]()
	}
	return optional.Some(binary.BigEndian.Uint32(nonce))
}

// HeaderEqual reports whether two slices share the same underlying array,
// offset, length, and capacity - i.e. they are the same slice header.
func HeaderEqual[T any](a, b []T) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return unsafe.Pointer(&a[:1][0]) == unsafe.Pointer(&b[:1][0])
}

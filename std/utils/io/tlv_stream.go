package io

import (
	"encoding/binary"
	"io"
)

const tlvStreamChunk = 8800

// ReadTlvStream reads consecutive top-level TLV elements off r (a raw
// stream or packet socket), invoking onPacket once per complete element
// with its raw type+length+value bytes. onPacket returning false stops the
// loop cleanly. A Read error is handed to onError; a true return treats it
// as transient and the loop continues (e.g. a UDP "connection refused" ICMP
// on an otherwise-live socket), a false return makes ReadTlvStream return
// the error.
//
// This does not reuse encoding.ParseTLNum, which panics on a short buffer -
// here the buffer is frequently short, since reads arrive as arbitrary byte
// chunks that may split a TLV header or value across two reads.
func ReadTlvStream(r io.Reader, onPacket func([]byte) bool, onError func(error) bool) error {
	buf := make([]byte, 0, tlvStreamChunk)
	chunk := make([]byte, tlvStreamChunk)

	for {
		for {
			pkt, n, ok := extractTlv(buf)
			if !ok {
				break
			}
			rest := buf[n:]
			buf = append(buf[:0], rest...)
			if !onPacket(pkt) {
				return nil
			}
		}

		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if onError != nil && onError(err) {
				continue
			}
			return err
		}
	}
}

// extractTlv reports whether buf begins with one complete TLV element
// (type, length, and value all present), returning a copy of it and its
// byte length.
func extractTlv(buf []byte) (pkt []byte, n int, ok bool) {
	_, typeLen := parseVarNum(buf)
	if typeLen == 0 {
		return nil, 0, false
	}
	valLen, lenLen := parseVarNum(buf[typeLen:])
	if lenLen == 0 {
		return nil, 0, false
	}
	header := typeLen + lenLen
	total := header + int(valLen)
	if len(buf) < total {
		return nil, 0, false
	}
	pkt = make([]byte, total)
	copy(pkt, buf[:total])
	return pkt, total, true
}

// parseVarNum parses one NDN variable-length number (TLV type or length)
// from the front of buf, returning its value and encoded length, or
// (0, 0) if buf does not yet hold enough bytes to tell.
func parseVarNum(buf []byte) (uint64, int) {
	if len(buf) == 0 {
		return 0, 0
	}
	switch {
	case buf[0] <= 0xfc:
		return uint64(buf[0]), 1
	case buf[0] == 0xfd:
		if len(buf) < 3 {
			return 0, 0
		}
		return uint64(binary.BigEndian.Uint16(buf[1:3])), 3
	case buf[0] == 0xfe:
		if len(buf) < 5 {
			return 0, 0
		}
		return uint64(binary.BigEndian.Uint32(buf[1:5])), 5
	default:
		if len(buf) < 9 {
			return 0, 0
		}
		return binary.BigEndian.Uint64(buf[1:9]), 9
	}
}

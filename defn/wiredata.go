package defn

import (
	"fmt"
	"time"

	enc "github.com/gonfd/gonfd/std/encoding"
)

// Minimal NDN Data-packet TLV type numbers. This forwarder does not
// implement the full Interest/Data/Signature TLV schema (that parser is an
// external collaborator per spec.md §1); the Content Store only needs
// enough of the Data TLV to recover a packet's Name and FreshnessPeriod
// from its stored wire bytes, so that is all this file parses.
const (
	tlvData             enc.TLNum = 6
	tlvName             enc.TLNum = 7
	tlvMetaInfo         enc.TLNum = 20
	tlvContentType      enc.TLNum = 24
	tlvFreshnessPeriod  enc.TLNum = 25
	tlvContent          enc.TLNum = 21
)

func appendTLV(dst []byte, typ enc.TLNum, val []byte) []byte {
	head := make([]byte, typ.EncodingLength()+enc.TLNum(len(val)).EncodingLength())
	n := typ.EncodeInto(head)
	enc.TLNum(len(val)).EncodeInto(head[n:])
	dst = append(dst, head...)
	dst = append(dst, val...)
	return dst
}

// EncodeDataWire builds a minimal Data packet (Name, optional
// FreshnessPeriod, Content) with no signature. It exists to let the
// Content Store and its tests hold and round-trip real TLV bytes without
// depending on the out-of-scope full packet codec.
func EncodeDataWire(name enc.Name, freshness time.Duration, content []byte) enc.Wire {
	var meta []byte
	if freshness > 0 {
		meta = appendTLV(meta, tlvFreshnessPeriod, enc.Nat(freshness.Milliseconds()).Bytes())
	}

	var val []byte
	val = appendTLV(val, tlvName, name.Bytes())
	if len(meta) > 0 {
		val = appendTLV(val, tlvMetaInfo, meta)
	}
	val = appendTLV(val, tlvContent, content)

	return enc.Wire{appendTLV(nil, tlvData, val)}
}

// DecodeDataWire parses just enough of a Data packet's wire encoding to
// recover its Name and FreshnessPeriod.
func DecodeDataWire(wire enc.Wire) (*FwData, error) {
	buf := enc.Buffer(wire.Join())

	typ, n := enc.ParseTLNum(buf)
	if typ != tlvData {
		return nil, fmt.Errorf("defn: not a Data TLV (type=%d)", typ)
	}
	buf = buf[n:]

	length, n := enc.ParseTLNum(buf)
	buf = buf[n:]
	if uint64(length) > uint64(len(buf)) {
		return nil, fmt.Errorf("defn: truncated Data TLV")
	}
	buf = buf[:length]

	fd := &FwData{}
	for len(buf) > 0 {
		ft, fn := enc.ParseTLNum(buf)
		buf = buf[fn:]
		fl, fn2 := enc.ParseTLNum(buf)
		buf = buf[fn2:]
		if uint64(fl) > uint64(len(buf)) {
			return nil, fmt.Errorf("defn: truncated field type=%d", ft)
		}
		val := buf[:fl]
		buf = buf[fl:]

		switch ft {
		case tlvName:
			name, err := enc.NameFromBytes(val)
			if err != nil {
				return nil, fmt.Errorf("defn: bad Name TLV: %w", err)
			}
			fd.NameV = name
		case tlvMetaInfo:
			if err := parseMetaInfo(val, fd); err != nil {
				return nil, err
			}
		}
	}

	if fd.NameV == nil {
		return nil, fmt.Errorf("defn: Data TLV missing Name")
	}
	return fd, nil
}

func parseMetaInfo(buf []byte, fd *FwData) error {
	for len(buf) > 0 {
		ft, fn := enc.ParseTLNum(buf)
		buf = buf[fn:]
		fl, fn2 := enc.ParseTLNum(buf)
		buf = buf[fn2:]
		if uint64(fl) > uint64(len(buf)) {
			return fmt.Errorf("defn: truncated MetaInfo field type=%d", ft)
		}
		val := buf[:fl]
		buf = buf[fl:]

		if ft == tlvFreshnessPeriod {
			v, _, err := enc.ParseNat(val)
			if err != nil {
				return fmt.Errorf("defn: bad FreshnessPeriod: %w", err)
			}
			fd.FreshnessPeriodV.Set(time.Duration(v) * time.Millisecond)
		}
	}
	return nil
}

package defn

import (
	"fmt"
	"time"

	enc "github.com/gonfd/gonfd/std/encoding"
)

// Minimal Interest-packet TLV type numbers, kept alongside wiredata.go's
// Data codec for the same reason: this forwarder's core never parses a
// full NDN packet (spec.md §1), it only needs enough of an Interest's wire
// encoding to recover the fields FwInterest already models. KeyId and
// ContentObjectHash restrictions are not part of the NDN Interest TLV
// schema proper (they originate from this forwarder's CCNx-lineage
// matching-rule precedence, spec.md §4.5); they are carried here in the
// application-specific TLV range (group 0xF0-0xFF) as forwarder-private
// fields, read back only by this module's own decoder.
const (
	tlvInterest        enc.TLNum = 5
	tlvCanBePrefix     enc.TLNum = 33
	tlvMustBeFresh     enc.TLNum = 18
	tlvNonce           enc.TLNum = 10
	tlvInterestLifetime enc.TLNum = 12
	tlvHopLimit        enc.TLNum = 34
	tlvKeyIdRestr      enc.TLNum = 0xF0
	tlvContentObjHash  enc.TLNum = 0xF1
)

// EncodeInterestWire builds a minimal Interest packet carrying just the
// fields FwInterest models. It exists so tests (and any code that needs to
// round-trip a synthetic Interest) can hold real TLV bytes without
// depending on the out-of-scope full packet codec.
func EncodeInterestWire(i *FwInterest) enc.Wire {
	var val []byte
	val = appendTLV(val, tlvName, i.NameV.Bytes())
	if i.CanBePrefixV {
		val = appendTLV(val, tlvCanBePrefix, nil)
	}
	if i.MustBeFreshV {
		val = appendTLV(val, tlvMustBeFresh, nil)
	}
	if nonce, ok := i.NonceV.Get(); ok {
		b := make([]byte, 4)
		for k := 0; k < 4; k++ {
			b[k] = byte(nonce >> (8 * (3 - k)))
		}
		val = appendTLV(val, tlvNonce, b)
	}
	if lifetime, ok := i.LifetimeV.Get(); ok {
		val = appendTLV(val, tlvInterestLifetime, enc.Nat(lifetime.Milliseconds()).Bytes())
	}
	if hopLimit, ok := i.HopLimitV.Get(); ok {
		val = appendTLV(val, tlvHopLimit, []byte{hopLimit})
	}
	if keyId, ok := i.KeyIdV.Get(); ok {
		val = appendTLV(val, tlvKeyIdRestr, keyId)
	}
	if hash, ok := i.ContentObjectHashV.Get(); ok {
		val = appendTLV(val, tlvContentObjHash, hash)
	}

	return enc.Wire{appendTLV(nil, tlvInterest, val)}
}

// DecodeInterestWire parses an Interest packet encoded by EncodeInterestWire.
func DecodeInterestWire(wire enc.Wire) (*FwInterest, error) {
	buf := enc.Buffer(wire.Join())

	typ, n := enc.ParseTLNum(buf)
	if typ != tlvInterest {
		return nil, fmt.Errorf("defn: not an Interest TLV (type=%d)", typ)
	}
	buf = buf[n:]

	length, n := enc.ParseTLNum(buf)
	buf = buf[n:]
	if uint64(length) > uint64(len(buf)) {
		return nil, fmt.Errorf("defn: truncated Interest TLV")
	}
	buf = buf[:length]

	fi := &FwInterest{}
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
			fi.NameV = name
		case tlvCanBePrefix:
			fi.CanBePrefixV = true
		case tlvMustBeFresh:
			fi.MustBeFreshV = true
		case tlvNonce:
			if len(val) == 4 {
				var nonce uint32
				for _, b := range val {
					nonce = (nonce << 8) | uint32(b)
				}
				fi.NonceV.Set(nonce)
			}
		case tlvInterestLifetime:
			v, _, err := enc.ParseNat(val)
			if err != nil {
				return nil, fmt.Errorf("defn: bad InterestLifetime: %w", err)
			}
			fi.LifetimeV.Set(time.Duration(v) * time.Millisecond)
		case tlvHopLimit:
			if len(val) == 1 {
				fi.HopLimitV.Set(val[0])
			}
		case tlvKeyIdRestr:
			fi.KeyIdV.Set(append([]byte(nil), val...))
		case tlvContentObjHash:
			fi.ContentObjectHashV.Set(append([]byte(nil), val...))
		}
	}

	if fi.NameV == nil {
		return nil, fmt.Errorf("defn: Interest TLV missing Name")
	}
	return fi, nil
}

// PacketKindOf inspects the outermost TLV type of a wire-encoded packet
// without fully decoding it, so a link service can dispatch to the right
// decoder (spec.md §6 "packet kinds observed at the wire").
func PacketKindOf(wire enc.Wire) PacketKind {
	buf := enc.Buffer(wire.Join())
	typ, _ := enc.ParseTLNum(buf)
	switch typ {
	case tlvInterest:
		return KindInterest
	case tlvData:
		return KindData
	default:
		return KindInvalid
	}
}

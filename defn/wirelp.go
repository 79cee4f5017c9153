package defn

import (
	"fmt"

	enc "github.com/gonfd/gonfd/std/encoding"
)

// LpPacket is NDNLP2's own outer-frame TLV type (100): every Interest/Data
// this forwarder sends over the wire is wrapped in one, carrying the
// per-hop PathLabel (spec.md §3/§8) alongside the unmodified inner packet
// (NDNLP's "Fragment" field, type 80). A HopByHopFragmenter cell carries
// one LpPacket's bytes, possibly split across several cells - the label
// travels with the packet even when fragmentation splits it.
const (
	tlvLpPacket    enc.TLNum = 100
	tlvLpPayload   enc.TLNum = 80
	tlvLpPathLabel enc.TLNum = 0xF3
)

// EncodeLpFrame wraps wire (an already-encoded Interest or Data) in an
// LpPacket TLV carrying label, so the next hop can recover both without
// this forwarder's wire codec reaching back into Interest/Data fields to
// smuggle it through (spec.md §8's "label travels with the Message, not
// inside it").
func EncodeLpFrame(label PathLabel, wire []byte) []byte {
	var val []byte
	val = appendTLV(val, tlvLpPathLabel, []byte{byte(label)})
	val = appendTLV(val, tlvLpPayload, wire)
	return appendTLV(nil, tlvLpPacket, val)
}

// DecodeLpFrame unwraps a frame built by EncodeLpFrame, returning the
// carried PathLabel and the inner Interest/Data wire bytes unchanged.
func DecodeLpFrame(frame []byte) (label PathLabel, payload []byte, err error) {
	buf := frame

	typ, n := enc.ParseTLNum(buf)
	if typ != tlvLpPacket {
		return 0, nil, fmt.Errorf("defn: not an LpPacket TLV (type=%d)", typ)
	}
	buf = buf[n:]

	length, n := enc.ParseTLNum(buf)
	buf = buf[n:]
	if uint64(length) > uint64(len(buf)) {
		return 0, nil, fmt.Errorf("defn: truncated LpPacket TLV")
	}
	buf = buf[:length]

	for len(buf) > 0 {
		ft, fn := enc.ParseTLNum(buf)
		buf = buf[fn:]
		fl, fn2 := enc.ParseTLNum(buf)
		buf = buf[fn2:]
		if uint64(fl) > uint64(len(buf)) {
			return 0, nil, fmt.Errorf("defn: truncated LpPacket field type=%d", ft)
		}
		val := buf[:fl]
		buf = buf[fl:]

		switch ft {
		case tlvLpPathLabel:
			if len(val) == 1 {
				label = PathLabel(val[0])
			}
		case tlvLpPayload:
			payload = append([]byte(nil), val...)
		}
	}

	if payload == nil {
		return 0, nil, fmt.Errorf("defn: LpPacket missing Fragment payload")
	}
	return label, payload, nil
}

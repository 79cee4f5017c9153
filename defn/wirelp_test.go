package defn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// EncodeLpFrame/DecodeLpFrame must round-trip both the PathLabel and the
// inner wire bytes unchanged (spec.md §8's "path-label stability under
// retransmission": the label a forwarder stamped travels with the Message,
// not inside it, so a later hop must recover exactly what was stamped).
func TestLpFrame_RoundTrip(t *testing.T) {
	inner := []byte{0x07, 0x03, 'a', 'b', 'c'} // a tiny synthetic TLV, opaque to this codec
	var label PathLabel
	label.Stamp(42)

	frame := EncodeLpFrame(label, inner)

	gotLabel, gotPayload, err := DecodeLpFrame(frame)
	assert.NoError(t, err)
	assert.Equal(t, label, gotLabel)
	assert.Equal(t, inner, gotPayload)
}

// A zero PathLabel (the first hop, before any Stamp call) still round-trips
// rather than being mistaken for "field absent".
func TestLpFrame_ZeroLabelRoundTrip(t *testing.T) {
	inner := []byte{0x06, 0x01, 'x'}
	frame := EncodeLpFrame(0, inner)

	gotLabel, gotPayload, err := DecodeLpFrame(frame)
	assert.NoError(t, err)
	assert.Equal(t, PathLabel(0), gotLabel)
	assert.Equal(t, inner, gotPayload)
}

// Retransmitting the exact same encoded frame (as a HopByHopFragmenter does
// on an unacked cell) must decode to the same label every time - the label
// is stamped once, at send time, not re-derived per retransmission.
func TestLpFrame_StableAcrossRetransmission(t *testing.T) {
	inner := []byte{0x07, 0x02, 'h', 'i'}
	var label PathLabel
	label.Stamp(7)
	frame := EncodeLpFrame(label, inner)

	for i := 0; i < 3; i++ {
		gotLabel, gotPayload, err := DecodeLpFrame(frame)
		assert.NoError(t, err)
		assert.Equal(t, label, gotLabel, "retransmission %d changed the label", i)
		assert.Equal(t, inner, gotPayload)
	}
}

func TestLpFrame_DecodeRejectsWrongOuterType(t *testing.T) {
	_, _, err := DecodeLpFrame([]byte{0x06, 0x00})
	assert.Error(t, err)
}

func TestLpFrame_DecodeRejectsMissingPayload(t *testing.T) {
	var val []byte
	val = appendTLV(val, tlvLpPathLabel, []byte{5})
	frame := appendTLV(nil, tlvLpPacket, val)

	_, _, err := DecodeLpFrame(frame)
	assert.Error(t, err)
}

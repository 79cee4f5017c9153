package face

import (
	"testing"
	"time"

	"github.com/gonfd/gonfd/defn"
	"github.com/stretchr/testify/assert"
)

func collectFrames(out *[][]byte) func([]byte) {
	return func(f []byte) {
		cp := make([]byte, len(f))
		copy(cp, f)
		*out = append(*out, cp)
	}
}

// A message smaller than one cell's payload is sent as a single Begin+End
// cell, and Receive reassembles it back to the original bytes immediately.
func TestFragmenter_SingleCellRoundTrip(t *testing.T) {
	var senderFrames [][]byte
	sender := NewFragmenter(64, 16, 8, 200*time.Millisecond, collectFrames(&senderFrames), nil)

	msg := []byte("hello world")
	sender.Send(msg)
	assert.Len(t, senderFrames, 1)

	var receiverFrames [][]byte
	receiver := NewFragmenter(64, 16, 8, 200*time.Millisecond, collectFrames(&receiverFrames), nil)

	out, done := receiver.Receive(senderFrames[0])
	assert.True(t, done)
	assert.Equal(t, msg, out)
	assert.Len(t, receiverFrames, 1, "receiver must emit exactly one ack cell")
}

// A message larger than a single cell's payload splits across multiple
// cells with Begin set on the first and End on the last (spec.md §8 edge
// case 6's three-fragment example).
func TestFragmenter_MultiCellSplit(t *testing.T) {
	var frames [][]byte
	mtu := 20 // fragHeaderLen(4) + 16 bytes payload per cell
	sender := NewFragmenter(mtu, 16, 8, 200*time.Millisecond, collectFrames(&frames), nil)

	msg := make([]byte, 40) // splits into 3 cells: 16 + 16 + 8
	for i := range msg {
		msg[i] = byte(i)
	}
	sender.Send(msg)
	assert.Len(t, frames, 3)

	first := decodeFragHeader(frames[0][:fragHeaderLen])
	mid := decodeFragHeader(frames[1][:fragHeaderLen])
	last := decodeFragHeader(frames[2][:fragHeaderLen])

	assert.True(t, first.Begin())
	assert.False(t, first.End())
	assert.False(t, mid.Begin())
	assert.False(t, mid.End())
	assert.True(t, last.End())
	assert.Equal(t, first.Seq+1, mid.Seq)
	assert.Equal(t, mid.Seq+1, last.Seq)

	var receiverFrames [][]byte
	receiver := NewFragmenter(mtu, 16, 8, 200*time.Millisecond, collectFrames(&receiverFrames), nil)

	_, done := receiver.Receive(frames[0])
	assert.False(t, done)
	_, done = receiver.Receive(frames[1])
	assert.False(t, done)
	out, done := receiver.Receive(frames[2])
	assert.True(t, done)
	assert.Equal(t, msg, out)
}

// A cell that never gets acked must be retransmitted on Tick, and dropped
// (invoking onDrop) once maxRetransmission tries are exhausted.
func TestFragmenter_RetransmitThenDrop(t *testing.T) {
	var frames [][]byte
	dropped := 0
	sender := NewFragmenter(64, 16, 2, 10*time.Millisecond, collectFrames(&frames), func() { dropped++ })

	start := time.Now()
	sender.Send([]byte("x"))
	assert.Len(t, frames, 1)

	// Send stamps each cell's retransmission deadline off time.Now(), not an
	// injectable clock, so Tick must be driven forward in real-clock terms.
	sender.Tick(start.Add(20 * time.Millisecond))
	assert.Len(t, frames, 2, "first retransmission")

	sender.Tick(start.Add(40 * time.Millisecond))
	assert.Len(t, frames, 3, "second retransmission")

	sender.Tick(start.Add(60 * time.Millisecond))
	assert.Equal(t, 1, dropped, "abandoned after exceeding max retransmissions")
	assert.Len(t, frames, 3, "no further sends once dropped")
}

// Receiving an Ack cell for an outstanding sequence number cancels its
// retransmission; Tick after that must not resend it.
func TestFragmenter_AckCancelsRetransmission(t *testing.T) {
	var frames [][]byte
	sender := NewFragmenter(64, 16, 8, 10*time.Millisecond, collectFrames(&frames), nil)

	start := time.Now()
	sender.Send([]byte("y"))
	assert.Len(t, frames, 1)

	sent := decodeFragHeader(frames[0][:fragHeaderLen])
	ackFrame := encodeFragHeader(defn.FragHeader{Seq: sent.Seq, Flags: defn.FragAck})
	_, done := sender.Receive(ackFrame)
	assert.False(t, done)

	sender.Tick(start.Add(time.Second))
	assert.Len(t, frames, 1, "acked cell must not be retransmitted")
}

// WindowFull reports true once outstanding cells reach the configured
// window size, and false again once they are acked.
func TestFragmenter_WindowFull(t *testing.T) {
	var frames [][]byte
	sender := NewFragmenter(20, 2, 8, time.Second, collectFrames(&frames), nil)

	sender.Send(make([]byte, 32)) // 2 cells, exactly fills a window of 2
	assert.True(t, sender.WindowFull())

	first := decodeFragHeader(frames[0][:fragHeaderLen])
	sender.ack(first.Seq)
	assert.False(t, sender.WindowFull())
}

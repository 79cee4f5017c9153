package io

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// TimedWriter buffers writes and flushes once either the queue fills or a
// deadline since the last flush elapses, so a bursty stream Connection
// (unix-stream-transport.go) coalesces many small frames into fewer
// syscalls without stalling a lone frame past the deadline.
type TimedWriter struct {
	*bufio.Writer
	mutex    sync.Mutex
	deadline time.Duration
	maxQueue int

	queueSize int
	timer     *time.Timer
	prevErr   error
}

// NewTimedWriter wraps w in a bufsize-sized buffer with a 1ms flush
// deadline and an 8-write max queue, both overridable via SetDeadline/
// SetMaxQueue.
func NewTimedWriter(w io.Writer, bufsize int) *TimedWriter {
	return &TimedWriter{
		Writer:   bufio.NewWriterSize(w, bufsize),
		deadline: 1 * time.Millisecond,
		maxQueue: 8,
	}
}

// SetDeadline changes how long a write may sit unflushed.
func (w *TimedWriter) SetDeadline(d time.Duration) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.deadline = d
}

// SetMaxQueue changes how many writes accumulate before a forced flush.
func (w *TimedWriter) SetMaxQueue(s int) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.maxQueue = s
}

// Flush forces the buffer out now, cancelling any pending deadline timer.
func (w *TimedWriter) Flush() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.flush_()
}

// Write buffers p, flushing immediately once the queue hits maxQueue and
// otherwise arming a one-shot timer to flush after deadline if nothing
// forces an earlier flush. A write that arrives after a previous flush
// failed surfaces that failure once, then resumes normally.
func (w *TimedWriter) Write(p []byte) (n int, err error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.prevErr; err != nil {
		w.prevErr = nil
		return 0, err
	}

	n, err = w.Writer.Write(p)
	if err != nil {
		return n, err
	}

	w.queueSize++
	if w.deadline == 0 || w.queueSize >= w.maxQueue {
		return n, w.flush_()
	}

	if w.timer == nil {
		w.timer = time.AfterFunc(w.deadline, func() { w.Flush() })
	}

	return
}

func (w *TimedWriter) flush_() error {
	err := w.Writer.Flush()
	if err != nil {
		w.prevErr = err
	}

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.queueSize = 0

	return err
}

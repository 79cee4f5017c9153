//go:build !wasm

package impl

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// SyscallReuseAddr sets SO_REUSEADDR on the socket underlying a raw
// connection, so a listener can rebind a port still in TIME_WAIT (used as
// the Control hook on net.Dialer/net.ListenConfig by the UDP and TCP
// transports/listeners).
func SyscallReuseAddr(network string, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// SyscallGetSocketSendQueueSize returns the number of bytes currently queued
// for send on the socket underlying a raw connection, used by the UDP/Unix
// transports to report send-queue backpressure.
func SyscallGetSocketSendQueueSize(c syscall.RawConn) uint64 {
	var size int
	if err := c.Control(func(fd uintptr) {
		n, err := unix.IoctlGetInt(int(fd), unix.TIOCOUTQ)
		if err == nil {
			size = n
		}
	}); err != nil {
		return 0
	}
	if size < 0 {
		return 0
	}
	return uint64(size)
}

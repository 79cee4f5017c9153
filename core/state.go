package core

import "time"

// StartTimestamp is set once, at process start, for uptime reporting.
var StartTimestamp = time.Now()

// ShouldQuit is polled by TCPListener's accept loop; cmd/gonfd flips it on
// SIGINT/SIGTERM.
var ShouldQuit = false

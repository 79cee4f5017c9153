package utils

import (
	"fmt"
	"os"
	"runtime"
)

// PrintStackTrace dumps every goroutine's stack to stderr, wired to
// cmd/gonfd's SIGQUIT handler for diagnosing a forwarder that looks stuck.
func PrintStackTrace() {
	buf := make([]byte, 1<<20)
	stacklen := runtime.Stack(buf, true)
	fmt.Fprintf(os.Stderr, "*** goroutine dump...\n%s\n*** end\n", buf[:stacklen])
}

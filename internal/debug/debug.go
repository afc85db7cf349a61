// Package debug is a minimal level-gated logger: callers write
// debug.Log(level, format, args...) and output only appears when the
// package-level level is at or above the call's level.
package debug

import (
	"fmt"
	"os"
	"sync/atomic"
)

var level int32

// SetLevel sets the highest call level that will be printed. 0, the
// default, suppresses every call made at level 1 or above.
func SetLevel(l int) {
	atomic.StoreInt32(&level, int32(l))
}

func Log(l int, format string, args ...interface{}) {
	if atomic.LoadInt32(&level) < int32(l) {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

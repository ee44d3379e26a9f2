package otel

import (
	"os"
	"sync/atomic"
)

// trace gates per-message tracing in the UI. Read from HNFEED_TRACE once at
// startup; tests flip it while other goroutines may be reading.
var trace atomic.Bool

func init() {
	trace.Store(os.Getenv("HNFEED_TRACE") != "")
}

// TraceEnabled reports whether every Bubble Tea message should be logged.
func TraceEnabled() bool {
	return trace.Load()
}

func setTraceEnabled(v bool) {
	trace.Store(v)
}

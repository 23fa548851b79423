package compstore

import (
	"fmt"
	"runtime"
)

// currentGoroutineID returns the id of the calling goroutine by parsing the
// first line of its stack trace. This is the universal method that works on
// every Go version and architecture; it costs on the order of a microsecond,
// which is acceptable because it only runs when a write lock is taken or when
// a lock is observed contended.
func currentGoroutineID() int64 {
	// Only the header line is needed: "goroutine 123 [running]:".
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts the numeric goroutine id from stack trace bytes.
// Returns 0 if the header has an unexpected shape.
func parseGID(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var gid int64
	for i := len(prefix); i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}

// callerSite reports the file:line of the caller skip frames above the
// caller of callerSite. Used to record where a write lock was acquired so a
// later deadlock panic can name the original acquisition site.
func callerSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

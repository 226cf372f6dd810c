// Package logger prints pipeline diagnostics to stderr. Nothing is emitted
// unless verbose mode is on, so normal server and CLI output stays clean;
// with --verbose every parse, retrieval rung and ranking decision becomes
// traceable.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	sink    io.Writer = os.Stderr
)

// SetVerbose switches diagnostic output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether diagnostics are being emitted.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects diagnostics away from stderr. Tests use this to
// capture what was written.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	sink = w
}

// emit writes one tagged line while holding the read lock.
func emit(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(sink, tag+" "+format+"\n", args...)
	}
}

// Debug traces fine-grained steps: parsed conditions, seed pages, scores.
func Debug(format string, args ...any) {
	emit("[DEBUG]", format, args...)
}

// Info reports pipeline milestones, typically one line per retrieval rung.
func Info(format string, args ...any) {
	emit("[INFO]", format, args...)
}

// Warn flags degraded behaviour, such as an LLM call that failed and was
// skipped over.
func Warn(format string, args ...any) {
	emit("[WARN]", format, args...)
}

// Section prints a banner separating the phases of one request.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(sink, "\n=== %s ===\n", name)
	}
}

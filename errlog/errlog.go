// Package errlog provides the diagnostic-logging convention used across
// this repository: construction-time and tick-time failures are logged
// with their call site (file, line, function) rather than propagated as
// panics, matching the degrade-don't-abort policy the filter and its
// collaborators follow.
package errlog

import (
	"log"
	"runtime"
	"strconv"
)

// Log writes a single diagnostic line naming the caller's file, line, and
// function, followed by the given message. It never terminates the process.
func Log(message string) {
	log.Println(formatCaller(2) + message)
}

// Logf is Log with fmt-style formatting.
func Logf(format string, args ...interface{}) {
	log.Printf(formatCaller(2)+format, args...)
}

// Fatal logs like Log but then terminates the process. Only cmd/pf calls
// it, for startup failures it cannot continue past: a map-load failure, a
// missing --map-data, a config load error, a rejected --make-feed, and a
// failed server setup.
func Fatal(message string) {
	log.Fatal(formatCaller(2) + message)
}

// formatCaller returns a "file:line (function): " prefix for the caller
// `skip` frames up the stack from formatCaller itself.
func formatCaller(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown: "
	}
	fn := runtime.FuncForPC(pc)
	name := "unknown"
	if fn != nil {
		name = fn.Name()
	}
	return file + ":" + strconv.Itoa(line) + " (" + name + "): "
}

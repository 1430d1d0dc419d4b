package fault

import (
	"runtime"
	"strings"
)

// installed is the process-wide fault handler.
var installed *Handler

// Install registers h as the process-wide fault handler.
func Install(h *Handler) {
	installed = h
}

// Installed returns the process-wide fault handler, or nil.
func Installed() *Handler {
	return installed
}

// Recover converts a Go panic into a fault. It must be deferred directly:
//
//	defer fault.Recover()
//
// Without an installed handler the panic continues unwinding.
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	h := installed
	if h == nil {
		panic(r)
	}

	rec := Record{Cause: causeOf(r)}
	rec.Location = panicSite()
	h.Fault(&rec)
}

// causeOf renders a recovered panic value.
func causeOf(r any) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case interface{ String() string }:
		return v.String()
	default:
		return "unknown cause"
	}
}

// panicSite returns the first caller frame outside the Go runtime and this
// file's helpers.
func panicSite() Location {
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") && f.File != "" {
			return Location{File: f.File, Line: f.Line}
		}
		if !more {
			return Location{}
		}
	}
}

// Package pkg provides shared utilities for panicusb.
//
// This package contains common functionality used by the fault path, the
// transport drivers and the simulator, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for transport and hardware failures
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentTransport, "line coding set", "baud", 115200)
//
// Only bring-up code and tools log. Code reachable from a fault handler must
// not, since the allocator may be in an inconsistent state by then.
//
// # Errors
//
// Failures are sentinel values:
//
//	if errors.Is(err, pkg.ErrBusy) {
//	    // transmission already in flight
//	}
package pkg

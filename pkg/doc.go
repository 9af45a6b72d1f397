// Package pkg provides shared utilities for the w25q flash driver.
//
// This package contains common functionality used across the driver core
// and its transport adapters, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for driver and device errors
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentFlash, "sector erased", "addr", addr)
//
// A colorized terminal handler backed by [github.com/charmbracelet/log] is
// available through [NewPrettyLogger] and [SetLogFormat] for interactive
// board bring-up sessions.
//
// # Errors
//
// Driver errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrTimeout) {
//	    // Device stayed busy past the operation deadline
//	}
package pkg

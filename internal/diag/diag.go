// Package diag wraps log/slog the way core/emu.go logs compiler and
// simulator events — a short topic string followed by alternating
// key/value pairs, rather than a single freeform message.
package diag

import "log/slog"

// Trace logs an informational event under topic, mirroring core/emu.go's
// slog.Info("Flow", "PCInBlock", pc, "X", x, "Y", y) call shape.
func Trace(topic string, kv ...any) {
	slog.Info(topic, kv...)
}

// Warn logs a recoverable anomaly under topic (in simrt, a Log whose format
// string cannot be lowered) rather than propagating it as an error —
// mirroring core/emu.go's slog.Warn("Memory", ...) calls.
func Warn(topic string, kv ...any) {
	slog.Warn(topic, kv...)
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Diagnostic levels accepted by NewDiagnostics.
const (
	DiagDebug = "DEBUG"
	DiagInfo  = "INFO"
	DiagWarn  = "WARN"
	DiagError = "ERROR"
)

// Diagnostics is the sink's own reporting channel: initialization failures,
// delete warnings, write failures and corrupt files go here, never to the
// caller that submitted a record. It is safe for concurrent use.
type Diagnostics struct {
	logger *slog.Logger
	attrs  []slog.Attr
}

// NewDiagnostics creates a Diagnostics that writes text-formatted entries to w.
// If w is nil, entries go to stderr.
//
// The level parameter controls which messages are emitted:
//   - DEBUG: All messages, including stack traces of swallowed errors
//   - INFO: Info, Warn, and Error messages
//   - WARN: Warn and Error messages
//   - ERROR: Only Error messages
func NewDiagnostics(w io.Writer, level string) *Diagnostics {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return &Diagnostics{logger: slog.New(handler)}
}

// NopDiagnostics returns a Diagnostics that discards all output.
// Useful for testing or when diagnostics are not wanted.
func NopDiagnostics() *Diagnostics {
	return &Diagnostics{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// parseLevel converts a string level to slog.Level.
// Defaults to WARN if the level string is not recognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case DiagDebug:
		return slog.LevelDebug
	case DiagInfo:
		return slog.LevelInfo
	case DiagWarn:
		return slog.LevelWarn
	case DiagError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// With returns a Diagnostics that adds the given key-value pairs to every entry.
func (d *Diagnostics) With(args ...any) *Diagnostics {
	if d == nil || len(args) == 0 {
		return d
	}

	attrs := make([]slog.Attr, 0, len(d.attrs)+len(args)/2)
	attrs = append(attrs, d.attrs...)
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}

	return &Diagnostics{logger: d.logger, attrs: attrs}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (d *Diagnostics) Debug(msg string, args ...any) {
	d.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (d *Diagnostics) Info(msg string, args ...any) {
	d.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (d *Diagnostics) Warn(msg string, args ...any) {
	d.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (d *Diagnostics) Error(msg string, args ...any) {
	d.log(slog.LevelError, msg, args...)
}

// DebugEnabled reports whether debug entries are emitted.
func (d *Diagnostics) DebugEnabled() bool {
	return d != nil && d.logger.Enabled(context.Background(), slog.LevelDebug)
}

func (d *Diagnostics) log(level slog.Level, msg string, args ...any) {
	if d == nil {
		return
	}
	allArgs := make([]any, 0, len(d.attrs)*2+len(args))
	for _, attr := range d.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	d.logger.Log(context.Background(), level, msg, allArgs...)
}

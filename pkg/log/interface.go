// Package log provides a structured logging interface for liverscope analysis steps.
//
// The interface is slog-shaped (alternating key/value fields) so packages can
// log without knowing the backend. The default implementation is backed by
// zerolog; SetupLogger configures log/slog for callers that prefer the
// standard handler chain.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "PCA",
//	    log.RunIDKey, runID,
//	)
//	logger.Info("Fitting principal components",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 64,
//	    log.FeaturesKey, 3116,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. An odd trailing key is dropped.
// Values implementing error are rendered with their message; the zerolog
// implementation also attaches a cockroachdb stack trace when one exists.
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-table parse
	// statistics or per-class iteration counts.
	Debug(msg string, fields ...any)

	// Info logs the start and end of analysis steps.
	Info(msg string, fields ...any)

	// Warn logs recoverable conditions: convergence warnings, coerced
	// cells, classes missing from an evaluation split.
	Warn(msg string, fields ...any)

	// Error logs failures. Pass the error as a field value:
	//
	//	logger.Error("Loading dataset failed", "error", err, log.PathKey, dir)
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every subsequent record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted, so that
	// expensive field values can be skipped:
	//
	//	if logger.Enabled(ctx, log.LevelDebug) {
	//	    logger.Debug("Loadings", "top", pca.TopLoadings(0, 10))
	//	}
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// LoggerProvider creates loggers, allowing tests to inject capturing
// implementations.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers created by this provider.
	SetLevel(level Level)
}

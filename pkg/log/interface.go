// Package log provides structured logging for bikedemand.
//
// Components fetch a named Logger and attach their identity once:
//
//	logger := log.GetLoggerWithName("trainer").With(
//	    log.ComponentKey, "trainer",
//	)
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 731,
//	)
//
// The default backend is zerolog. GetLogger exposes the underlying
// *zerolog.Logger for callers that want the event builder API.
package log

import (
	"context"
)

// Logger is a key/value structured logger with an slog-compatible shape.
type Logger interface {
	// Debug logs diagnostic detail.
	Debug(msg string, fields ...any)

	// Info logs normal operational events.
	Info(msg string, fields ...any)

	// Warn logs recoverable problems.
	Warn(msg string, fields ...any)

	// Error logs failures. If the first field is an error it is attached as
	// the error value together with its stack trace.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level with slog-compatible values.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

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

// LoggerProvider creates loggers sharing one configuration.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}

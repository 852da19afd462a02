package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
)

var (
	globalMu       sync.RWMutex
	globalProvider LoggerProvider
	globalLogger   = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		return fmt.Sprintf("%+v", err)
	}
	zerolog.ErrorStackFieldName = StacktraceKey
}

// ParseLevel converts a textual level into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, scigoErrors.NewValidationError("log.level", "must be one of debug, info, warn, error", level)
	}
}

// ToLogLevel is ParseLevel with a fallback to LevelInfo.
func ToLogLevel(level string) Level {
	l, _ := ParseLevel(level)
	return l
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ZerologProvider is the default LoggerProvider.
type ZerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to stderr.
func NewZerologProvider(level Level) *ZerologProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter creates a provider writing to w.
func NewZerologProviderWithWriter(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{
		base: zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger(),
	}
}

func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.base}
}

func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.base.With().Str("logger", name).Logger()}
}

func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(toZerologLevel(level))
}

// Zerolog returns the underlying zerolog logger.
func (p *ZerologProvider) Zerolog() *zerolog.Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	l := p.base
	return &l
}

type zerologLogger struct {
	logger zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	emit(l.logger.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	emit(l.logger.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	emit(l.logger.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	e := l.logger.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = withError(e, err)
			fields = fields[1:]
		}
	}
	emit(e, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{logger: l.logger.With().Fields(pairs(fields)).Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	zl := toZerologLevel(level)
	return zl >= l.logger.GetLevel() && zl >= zerolog.GlobalLevel()
}

func emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	e.Fields(pairs(fields)).Msg(msg)
}

// pairs drops a dangling key so zerolog never sees an odd-length list.
func pairs(fields []any) []interface{} {
	if len(fields)%2 == 1 {
		fields = append(fields[:len(fields):len(fields)], "!MISSING")
	}
	return fields
}

func withError(e *zerolog.Event, err error) *zerolog.Event {
	e = e.Stack().Err(err)
	var obj zerolog.LogObjectMarshaler
	if scigoErrors.As(err, &obj) {
		e = e.Object("error.detail", obj)
	}
	return e
}

// SetupLogger configures the process-wide logger at the given level.
func SetupLogger(level string) {
	lvl := ToLogLevel(level)
	setup(os.Stderr, lvl)
}

// SetOutput redirects every logger to w, keeping the current level.
func SetOutput(w io.Writer) {
	globalMu.RLock()
	lvl := globalLogger.GetLevel()
	globalMu.RUnlock()
	setup(w, fromZerologLevel(lvl))
}

func setup(w io.Writer, lvl Level) {
	provider := NewZerologProviderWithWriter(w, lvl)

	globalMu.Lock()
	globalProvider = provider
	globalLogger = *provider.Zerolog()
	globalMu.Unlock()

	scigoErrors.SetZerologWarnFunc(func(warning error) {
		l := GetLogger()
		e := l.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			e = e.Object("warning", obj)
		}
		e.Msg(warning.Error())
	})
}

func fromZerologLevel(l zerolog.Level) Level {
	switch l {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return LevelDebug
	case zerolog.WarnLevel:
		return LevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return LevelError
	default:
		return LevelInfo
	}
}

// SetProvider replaces the provider behind GetLoggerWithName. Tests use it
// with a TestLoggerProvider.
func SetProvider(p LoggerProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = p
}

func provider() LoggerProvider {
	globalMu.RLock()
	p := globalProvider
	globalMu.RUnlock()
	if p != nil {
		return p
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalProvider == nil {
		globalProvider = NewZerologProvider(LevelInfo)
	}
	return globalProvider
}

// GetLogger returns the process-wide zerolog logger.
func GetLogger() *zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	l := globalLogger
	return &l
}

// GetLoggerWithName returns a component logger from the current provider.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// LogError logs err with its stack trace and structured fields.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	l := GetLogger()
	withError(l.Error(), err).Msg(msg)
}

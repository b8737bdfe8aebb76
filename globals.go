package lumber

import (
	"context"
	"sync/atomic"
)

// globalContext holds process-wide attributes applied to every entry from
// every logger, below all other layers.
var globalContext = NewContext(nil)

// TagGlobally merges attrs into the process-wide context shared by all
// loggers. Call-site fields, ctx-scoped, and per-logger attributes all
// override it.
func TagGlobally(attrs map[string]any) {
	globalContext.Tag(attrs)
}

// UntagGlobally removes keys (and their dot-descendants) from the
// process-wide context.
func UntagGlobally(keys ...string) {
	globalContext.Delete(keys...)
}

// GlobalAttributes returns a snapshot of the process-wide context.
func GlobalAttributes() map[string]any {
	return globalContext.ToMap()
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(Must(New(DefaultConfig())))
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the package-level logger. The previous logger is not
// closed; callers owning it should close it themselves.
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(l)
}

// Package-level logging through the default logger.

func Debug(args ...any) { Default().Debug(args...) }
func Info(args ...any)  { Default().Info(args...) }
func Warn(args ...any)  { Default().Warn(args...) }
func Error(args ...any) { Default().Error(args...) }
func Fatal(args ...any) { Default().Fatal(args...) }

func Debugf(format string, args ...any) { Default().Debugf(format, args...) }
func Infof(format string, args ...any)  { Default().Infof(format, args...) }
func Warnf(format string, args ...any)  { Default().Warnf(format, args...) }
func Errorf(format string, args ...any) { Default().Errorf(format, args...) }
func Fatalf(format string, args ...any) { Default().Fatalf(format, args...) }

func DebugWith(msg string, fields ...Field) { Default().DebugWith(msg, fields...) }
func InfoWith(msg string, fields ...Field)  { Default().InfoWith(msg, fields...) }
func WarnWith(msg string, fields ...Field)  { Default().WarnWith(msg, fields...) }
func ErrorWith(msg string, fields ...Field) { Default().ErrorWith(msg, fields...) }
func FatalWith(msg string, fields ...Field) { Default().FatalWith(msg, fields...) }

func DebugCtx(ctx context.Context, args ...any) { Default().DebugCtx(ctx, args...) }
func InfoCtx(ctx context.Context, args ...any)  { Default().InfoCtx(ctx, args...) }
func WarnCtx(ctx context.Context, args ...any)  { Default().WarnCtx(ctx, args...) }
func ErrorCtx(ctx context.Context, args ...any) { Default().ErrorCtx(ctx, args...) }
func FatalCtx(ctx context.Context, args ...any) { Default().FatalCtx(ctx, args...) }

// Flush flushes the default logger's device.
func Flush() error { return Default().Flush() }

// Close closes the default logger.
func Close() error { return Default().Close() }

// SetSeverity sets the default logger's severity threshold.
func SetSeverity(severity Severity) error { return Default().SetSeverity(severity) }

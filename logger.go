package lumber

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// FatalHandler runs after a fatal entry has been written. The default
// handler closes the logger and exits the process.
type FatalHandler func()

// Logger turns call-site logging invocations into formatted entries written
// to a Device. All methods are safe for concurrent use.
//
// Effective attributes for an entry merge, in increasing precedence: the
// process-wide global context, the ambient context active for the call's
// execution unit, the logger's own persistent context, the context chain
// carried in ctx, and finally the call-site fields.
type Logger struct {
	severity atomic.Int32
	closed   atomic.Bool

	progname     string
	context      *Context
	registry     *ContextRegistry
	formatter    *EntryFormatter
	device       Device
	fatalHandler FatalHandler
}

// New creates a Logger from the given configuration. Invalid configuration
// fails eagerly here; log calls on the returned logger never fail.
func New(configs ...*Config) (*Logger, error) {
	var config *Config
	if len(configs) == 0 || configs[0] == nil {
		config = DefaultConfig()
	} else {
		config = configs[0]
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}
	// Work on a copy so defaulting never mutates the caller's config.
	config = config.Clone()
	config.ApplyDefaults()

	device, err := config.buildDevice()
	if err != nil {
		return nil, err
	}

	l := &Logger{
		progname:     config.ProgName,
		context:      NewContext(nil),
		registry:     DefaultContextRegistry(),
		formatter:    NewEntryFormatter(config.Formatters),
		device:       device,
		fatalHandler: config.FatalHandler,
	}
	l.severity.Store(int32(config.Severity))
	l.context.Tag(config.Attributes)
	return l, nil
}

// Must returns the logger or panics on configuration error. Intended for
// package-level initialization.
func Must(l *Logger, err error) *Logger {
	if err != nil {
		panic(err)
	}
	return l
}

// GetSeverity returns the current severity threshold (thread-safe).
func (l *Logger) GetSeverity() Severity {
	return Severity(l.severity.Load())
}

// SetSeverity atomically sets the severity threshold (thread-safe).
func (l *Logger) SetSeverity(severity Severity) error {
	if !severity.Valid() {
		return NewConfigError(ErrCodeInvalidSeverity, fmt.Sprintf("severity %d", severity))
	}
	l.severity.Store(int32(severity))
	return nil
}

// IsSeverityEnabled reports whether entries at severity would be written.
func (l *Logger) IsSeverityEnabled(severity Severity) bool {
	return l.shouldLog(severity)
}

// ProgName returns the program name stamped on entries.
func (l *Logger) ProgName() string {
	return l.progname
}

// Formatter returns the logger's entry formatter, for handler registration.
func (l *Logger) Formatter() *EntryFormatter {
	return l.formatter
}

// Device returns the logger's output device.
func (l *Logger) Device() Device {
	return l.device
}

// Tag flattens and merges attrs into the logger's persistent context.
// They apply to every subsequent entry from this logger and its clones.
func (l *Logger) Tag(attrs map[string]any) {
	l.context.Tag(attrs)
}

// Untag removes keys (and their dot-descendants) from the logger's
// persistent context.
func (l *Logger) Untag(keys ...string) {
	l.context.Delete(keys...)
}

// WithFields returns a logger sharing this logger's device and formatter,
// with the fields merged into a child context. The receiver is unchanged.
//
// Example:
//
//	reqLog := logger.WithFields(lumber.String("request.id", id))
//	reqLog.Info("accepted")
func (l *Logger) WithFields(fields ...Field) *Logger {
	return l.WithAttrs(fieldsToMap(fields))
}

// WithAttrs is WithFields with a plain attribute map.
func (l *Logger) WithAttrs(attrs map[string]any) *Logger {
	child := NewContext(l.context)
	child.Tag(attrs)

	clone := &Logger{
		progname:     l.progname,
		context:      child,
		registry:     l.registry,
		formatter:    l.formatter,
		device:       l.device,
		fatalHandler: l.fatalHandler,
	}
	clone.severity.Store(l.severity.Load())
	clone.closed.Store(l.closed.Load())
	return clone
}

// shouldLog checks severity threshold and logger state.
func (l *Logger) shouldLog(severity Severity) bool {
	if severity < Severity(l.severity.Load()) || severity > SeverityFatal {
		return false
	}
	return !l.closed.Load()
}

// resolveAttributes merges every attribute layer for one entry.
func (l *Logger) resolveAttributes(ctx context.Context, fields []Field) map[string]any {
	merged := globalContext.ToMap()

	if ctx != nil {
		if unit := UnitFromContext(ctx); unit != nil {
			merged = mergeOver(merged, l.registry.ToMap(unit))
		}
	}
	merged = mergeOver(merged, l.context.ToMap())
	if ctx != nil {
		if chain := ContextFromContext(ctx); chain != nil {
			merged = mergeOver(merged, chain.ToMap())
		}
	}
	merged = mergeOver(merged, fieldsToMap(fields))
	return merged
}

// mergeOver merges src over dst, reusing dst's map when possible.
func mergeOver(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// log builds, formats, and writes one entry. Formatting and device
// failures never propagate to the caller.
func (l *Logger) log(ctx context.Context, severity Severity, message any, fields []Field) {
	if !l.shouldLog(severity) {
		return
	}

	entry := &Entry{
		Time:       time.Now(),
		Severity:   severity,
		Message:    message,
		ProgName:   l.progname,
		Attributes: l.resolveAttributes(ctx, fields),
	}
	if ctx != nil {
		entry.UnitOfWorkID = UnitOfWorkID(ctx)
	}

	_ = l.device.Write(l.formatter.FormatEntry(entry))

	if severity == SeverityFatal {
		l.handleFatal()
	}
}

// LogEntry writes a prebuilt entry, honoring the severity threshold. Used
// by LoggerDevice to relay entries between loggers without re-formatting.
func (l *Logger) LogEntry(entry *Entry) {
	if entry == nil || !l.shouldLog(entry.Severity) {
		return
	}
	_ = l.device.Write(entry)
}

func (l *Logger) handleFatal() {
	_ = l.Close()
	if l.fatalHandler != nil {
		l.fatalHandler()
		return
	}
	os.Exit(1)
}

// messageFromArgs keeps a single argument raw so formatter dispatch sees
// the original value; multiple arguments join with spaces.
func messageFromArgs(args []any) any {
	switch len(args) {
	case 0:
		return ""
	case 1:
		return args[0]
	default:
		return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
	}
}

// Log logs a message at the given severity.
func (l *Logger) Log(severity Severity, args ...any) {
	l.log(nil, severity, messageFromArgs(args), nil)
}

// Logf logs a formatted message at the given severity.
func (l *Logger) Logf(severity Severity, format string, args ...any) {
	if !l.shouldLog(severity) {
		return
	}
	l.log(nil, severity, fmt.Sprintf(format, args...), nil)
}

// LogWith logs a structured message with call-site fields.
func (l *Logger) LogWith(severity Severity, msg string, fields ...Field) {
	l.log(nil, severity, msg, fields)
}

// LogCtx logs a message with scoped attributes resolved from ctx.
func (l *Logger) LogCtx(ctx context.Context, severity Severity, args ...any) {
	l.log(ctx, severity, messageFromArgs(args), nil)
}

// LogfCtx logs a formatted message with scoped attributes from ctx.
func (l *Logger) LogfCtx(ctx context.Context, severity Severity, format string, args ...any) {
	if !l.shouldLog(severity) {
		return
	}
	l.log(ctx, severity, fmt.Sprintf(format, args...), nil)
}

// LogWithCtx logs a structured message with scoped attributes from ctx
// plus call-site fields.
func (l *Logger) LogWithCtx(ctx context.Context, severity Severity, msg string, fields ...Field) {
	l.log(ctx, severity, msg, fields)
}

// Convenience logging methods

func (l *Logger) Debug(args ...any) { l.Log(SeverityDebug, args...) }
func (l *Logger) Info(args ...any)  { l.Log(SeverityInfo, args...) }
func (l *Logger) Warn(args ...any)  { l.Log(SeverityWarn, args...) }
func (l *Logger) Error(args ...any) { l.Log(SeverityError, args...) }
func (l *Logger) Fatal(args ...any) { l.Log(SeverityFatal, args...) }

func (l *Logger) Debugf(format string, args ...any) { l.Logf(SeverityDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.Logf(SeverityInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.Logf(SeverityWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.Logf(SeverityError, format, args...) }
func (l *Logger) Fatalf(format string, args ...any) { l.Logf(SeverityFatal, format, args...) }

func (l *Logger) DebugWith(msg string, fields ...Field) { l.LogWith(SeverityDebug, msg, fields...) }
func (l *Logger) InfoWith(msg string, fields ...Field)  { l.LogWith(SeverityInfo, msg, fields...) }
func (l *Logger) WarnWith(msg string, fields ...Field)  { l.LogWith(SeverityWarn, msg, fields...) }
func (l *Logger) ErrorWith(msg string, fields ...Field) { l.LogWith(SeverityError, msg, fields...) }
func (l *Logger) FatalWith(msg string, fields ...Field) { l.LogWith(SeverityFatal, msg, fields...) }

func (l *Logger) DebugCtx(ctx context.Context, args ...any) { l.LogCtx(ctx, SeverityDebug, args...) }
func (l *Logger) InfoCtx(ctx context.Context, args ...any)  { l.LogCtx(ctx, SeverityInfo, args...) }
func (l *Logger) WarnCtx(ctx context.Context, args ...any)  { l.LogCtx(ctx, SeverityWarn, args...) }
func (l *Logger) ErrorCtx(ctx context.Context, args ...any) { l.LogCtx(ctx, SeverityError, args...) }
func (l *Logger) FatalCtx(ctx context.Context, args ...any) { l.LogCtx(ctx, SeverityFatal, args...) }

func (l *Logger) DebugWithCtx(ctx context.Context, msg string, fields ...Field) {
	l.LogWithCtx(ctx, SeverityDebug, msg, fields...)
}
func (l *Logger) InfoWithCtx(ctx context.Context, msg string, fields ...Field) {
	l.LogWithCtx(ctx, SeverityInfo, msg, fields...)
}
func (l *Logger) WarnWithCtx(ctx context.Context, msg string, fields ...Field) {
	l.LogWithCtx(ctx, SeverityWarn, msg, fields...)
}
func (l *Logger) ErrorWithCtx(ctx context.Context, msg string, fields ...Field) {
	l.LogWithCtx(ctx, SeverityError, msg, fields...)
}
func (l *Logger) FatalWithCtx(ctx context.Context, msg string, fields ...Field) {
	l.LogWithCtx(ctx, SeverityFatal, msg, fields...)
}

// Flush forces the device to drain buffered entries to its sink.
func (l *Logger) Flush() error {
	if l.closed.Load() {
		return nil
	}
	return l.device.Flush()
}

// Close flushes and closes the device. Subsequent log calls are silent
// no-ops; closing twice is harmless.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.device.Close()
}

// Reopen re-acquires the device's underlying resource (e.g. after external
// log rotation) and re-enables the logger.
func (l *Logger) Reopen(target any) error {
	if err := l.device.Reopen(target); err != nil {
		return err
	}
	l.closed.Store(false)
	return nil
}

// IsClosed returns true if the logger has been closed.
func (l *Logger) IsClosed() bool {
	return l.closed.Load()
}

// Package lumber provides a structured, thread-safe logging core for Go.
//
// lumber turns log calls into structured entries, resolves entry attributes
// from nested scopes, formats message and attribute values through a
// type-based formatter registry, and writes the result to pluggable output
// devices with optional background buffering and file rotation.
//
// # Features
//
//   - Thread-safe: All operations are safe for concurrent use
//   - Severity filtering: Debug, Info, Warn, Error, Fatal with atomic threshold
//   - Scoped attributes: Global, per-unit, per-logger, and context.Context layers
//   - Structured logging: Key-value field support with type-safe helpers
//   - Formatter dispatch: Per-type and per-attribute value formatting with
//     remapping, cycle detection, and panic isolation
//   - Flexible output: Console, rotating file, another logger, or fan-out
//   - Buffered device: Threshold and interval driven background flushing
//   - Lifecycle hooks: Flush, rotate, close, and error events
//
// # Quick Start
//
//	package main
//
//	import "github.com/cybergodev/lumber"
//
//	func main() {
//	    logger := lumber.Must(lumber.New())
//	    defer logger.Close()
//
//	    logger.Info("application started")
//	    logger.InfoWith("request processed",
//	        lumber.String("method", "GET"),
//	        lumber.Int("status", 200),
//	    )
//	}
//
// # Scoped Attributes
//
// Attributes attach at several scopes and merge per entry, innermost
// winning:
//
//	lumber.TagGlobally(map[string]any{"service": "billing"})
//
//	logger.Tag(map[string]any{"component": "worker"})
//
//	ctx := lumber.WithAttrs(context.Background(), map[string]any{
//	    "request": map[string]any{"id": id},
//	})
//	logger.InfoCtx(ctx, "charge submitted")
//
// Nested maps flatten to dot-joined keys, so the entry above carries
// "request.id" alongside "service" and "component".
//
// # Formatter Dispatch
//
// Register handlers to control how values render:
//
//	logger.Formatter().Registry().Register(time.Duration(0),
//	    func(v any) (lumber.FormatResult, error) {
//	        return lumber.Scalar(v.(time.Duration).String()), nil
//	    })
//
// Handlers can also remap values to different attribute paths or split a
// message object into a message plus extra attributes.
//
// # Output Devices
//
// Devices implement the Device interface. Built in: WriterDevice for any
// io.Writer, FileDevice with size-based rotation and gzip backups,
// LoggerDevice to relay into another logger, MultiDevice for fan-out, and
// BufferedDevice to decouple producers from sink latency:
//
//	cfg := lumber.DefaultConfig()
//	cfg.File = &lumber.FileConfig{Path: "app.log", MaxSizeMB: 100, MaxBackups: 10}
//	cfg.BufferSize = 256
//	logger := lumber.Must(lumber.New(cfg))
package lumber

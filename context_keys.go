package lumber

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a private type for values this package stores in a
// context.Context. Using a custom type prevents key collisions with other
// packages.
type contextKey int

const (
	contextKeyChain contextKey = iota
	contextKeyUnit
	contextKeyUnitOfWork
)

// WithAttrs returns a context carrying a new Context node that inherits any
// chain already present in ctx. This is the primary scoped-attribute
// mechanism: context.Context is Go's task-identity carrier, so attributes
// attached here follow the logical task across goroutine and suspension
// boundaries without any registry bookkeeping.
//
// Example:
//
//	ctx = lumber.WithAttrs(ctx, map[string]any{"request.path": r.URL.Path})
//	logger.InfoCtx(ctx, "handling request") // includes request.path
func WithAttrs(ctx context.Context, attrs map[string]any) context.Context {
	parent := ContextFromContext(ctx)
	node := NewContext(parent)
	node.Tag(attrs)
	return context.WithValue(ctx, contextKeyChain, node)
}

// WithFields is WithAttrs with call-site field constructors.
func WithFields(ctx context.Context, fields ...Field) context.Context {
	return WithAttrs(ctx, fieldsToMap(fields))
}

// ContextFromContext returns the innermost Context node carried by ctx,
// or nil if none has been attached.
func ContextFromContext(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}
	if c, ok := ctx.Value(contextKeyChain).(*Context); ok {
		return c
	}
	return nil
}

// WithUnit stamps an execution-unit key into ctx so loggers can resolve the
// unit's active Context from the default registry.
func WithUnit(ctx context.Context, key UnitKey) context.Context {
	return context.WithValue(ctx, contextKeyUnit, key)
}

// UnitFromContext returns the execution-unit key carried by ctx, or nil.
func UnitFromContext(ctx context.Context) UnitKey {
	if ctx == nil {
		return nil
	}
	return ctx.Value(contextKeyUnit)
}

// WithUnitOfWork attaches a unit-of-work id to ctx. An empty id generates a
// fresh one. Entries logged with this ctx carry the id for correlation.
func WithUnitOfWork(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, contextKeyUnitOfWork, id)
}

// UnitOfWorkID returns the unit-of-work id carried by ctx, or "".
func UnitOfWorkID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKeyUnitOfWork).(string); ok {
		return id
	}
	return ""
}

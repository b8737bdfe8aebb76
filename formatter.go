package lumber

import (
	"fmt"
	"reflect"
	"sync"
)

// FormatResultKind discriminates the FormatResult tagged union.
type FormatResultKind int

const (
	// ResultScalar uses the value as-is.
	ResultScalar FormatResultKind = iota

	// ResultRemap merges a value into the attribute map at a different path,
	// replacing the field that produced it.
	ResultRemap

	// ResultSplit produces both a new message and attributes to merge into
	// the entry. Only message-position handlers may return Split; in
	// attribute position a Split collapses to a Scalar of its message.
	ResultSplit
)

// FormatResult is the tagged result of a formatter handler.
type FormatResult struct {
	Kind       FormatResultKind
	Value      any            // Scalar value, or Remap value
	Path       string         // Remap target path (dot notation)
	Message    any            // Split message
	Attributes map[string]any // Split attributes
}

// Scalar returns a FormatResult that uses value as-is.
func Scalar(value any) FormatResult {
	return FormatResult{Kind: ResultScalar, Value: value}
}

// Remap returns a FormatResult that moves the value to a different
// attribute path.
func Remap(path string, value any) FormatResult {
	return FormatResult{Kind: ResultRemap, Path: path, Value: value}
}

// Split returns a FormatResult carrying a replacement message plus
// attributes to merge into the entry.
func Split(message any, attributes map[string]any) FormatResult {
	return FormatResult{Kind: ResultSplit, Message: message, Attributes: attributes}
}

// Handler maps a runtime value to a FormatResult. A handler may return an
// error or panic; both are isolated per value and rendered as an inline
// diagnostic, leaving sibling values untouched.
type Handler func(value any) (FormatResult, error)

// Matcher is a type predicate used for capability-based handler
// registration ("is enumerable", "implements Stringer", ...).
type Matcher func(value any) bool

type matcherEntry struct {
	match   Matcher
	handler Handler
}

// FormatterRegistry is an ordered type-to-handler table with
// most-specific-match-first resolution. Precedence, highest first:
//
//  1. attribute-name handlers (RegisterName), message position excluded
//  2. exact dynamic type handlers (Register)
//  3. capability handlers (RegisterInterface, RegisterKind, RegisterMatch),
//     scanned most-recently-registered first
//  4. the default handler (passthrough unless replaced)
//
// All methods are safe for concurrent use; registration is expected at
// setup time, resolution on every log call.
type FormatterRegistry struct {
	mu             sync.RWMutex
	names          map[string]Handler
	exact          map[reflect.Type]Handler
	matchers       []matcherEntry
	defaultHandler Handler
}

// NewFormatterRegistry creates an empty registry with passthrough default.
func NewFormatterRegistry() *FormatterRegistry {
	return &FormatterRegistry{
		names: make(map[string]Handler),
		exact: make(map[reflect.Type]Handler),
	}
}

// NewDefaultFormatterRegistry creates a registry preloaded with the
// built-in handlers: errors render as "type: message" and Stringer values
// render via String().
func NewDefaultFormatterRegistry() *FormatterRegistry {
	r := NewFormatterRegistry()
	// Registration order matters: Stringer first so a value that is both an
	// error and a Stringer resolves to the more recently registered error
	// handler.
	_ = r.RegisterInterface((*fmt.Stringer)(nil), func(value any) (FormatResult, error) {
		return Scalar(value.(fmt.Stringer).String()), nil
	})
	_ = r.RegisterInterface((*error)(nil), func(value any) (FormatResult, error) {
		err := value.(error)
		return Scalar(fmt.Sprintf("%T: %s", err, err.Error())), nil
	})
	return r
}

// Register binds a handler to the exact dynamic type of prototype.
// Registering again for the same type replaces the previous handler.
func (r *FormatterRegistry) Register(prototype any, handler Handler) error {
	if handler == nil {
		return NewConfigError(ErrCodeNilHandler, "formatter handler cannot be nil")
	}
	t := reflect.TypeOf(prototype)
	if t == nil {
		return NewConfigError(ErrCodeConfigValidation, "cannot register a handler for untyped nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[t] = handler
	return nil
}

// RegisterInterface binds a handler to every value whose type satisfies the
// interface. The argument is a nil pointer to the interface type:
//
//	registry.RegisterInterface((*fmt.Stringer)(nil), handler)
func (r *FormatterRegistry) RegisterInterface(ifacePtr any, handler Handler) error {
	if handler == nil {
		return NewConfigError(ErrCodeNilHandler, "formatter handler cannot be nil")
	}
	t := reflect.TypeOf(ifacePtr)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Interface {
		return NewConfigError(ErrCodeConfigValidation, "RegisterInterface requires a nil pointer to an interface type")
	}
	iface := t.Elem()
	return r.RegisterMatch(func(value any) bool {
		vt := reflect.TypeOf(value)
		return vt != nil && vt.Implements(iface)
	}, handler)
}

// RegisterKind binds a handler to every value of reflect kind k, e.g. all
// maps or all slices.
func (r *FormatterRegistry) RegisterKind(k reflect.Kind, handler Handler) error {
	if handler == nil {
		return NewConfigError(ErrCodeNilHandler, "formatter handler cannot be nil")
	}
	return r.RegisterMatch(func(value any) bool {
		vt := reflect.TypeOf(value)
		return vt != nil && vt.Kind() == k
	}, handler)
}

// RegisterMatch binds a handler to an arbitrary type predicate.
func (r *FormatterRegistry) RegisterMatch(match Matcher, handler Handler) error {
	if handler == nil {
		return NewConfigError(ErrCodeNilHandler, "formatter handler cannot be nil")
	}
	if match == nil {
		return NewConfigError(ErrCodeConfigValidation, "matcher cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchers = append(r.matchers, matcherEntry{match: match, handler: handler})
	return nil
}

// RegisterName binds a handler to an attribute name (dot notation).
// Name handlers take precedence over all type-based handlers.
func (r *FormatterRegistry) RegisterName(name string, handler Handler) error {
	if handler == nil {
		return NewConfigError(ErrCodeNilHandler, "formatter handler cannot be nil")
	}
	if name == "" {
		return NewConfigError(ErrCodeConfigValidation, "attribute name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[name] = handler
	return nil
}

// SetDefault replaces the fallback handler applied when nothing matches.
// A nil handler restores passthrough.
func (r *FormatterRegistry) SetDefault(handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = handler
}

// ResolveName returns the handler registered for an attribute name, or nil.
func (r *FormatterRegistry) ResolveName(name string) Handler {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[name]
}

// Resolve walks the value's type ancestry and returns the registered
// handler for the first match: exact type, then capability matchers in
// reverse registration order, then the default. Returns nil only when no
// handler matches and no default is set (passthrough).
func (r *FormatterRegistry) Resolve(value any) Handler {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t := reflect.TypeOf(value); t != nil {
		if h, ok := r.exact[t]; ok {
			return h
		}
	}
	// Equally specific capability matchers tie-break by most recent
	// registration.
	for i := len(r.matchers) - 1; i >= 0; i-- {
		if r.matchers[i].match(value) {
			return r.matchers[i].handler
		}
	}
	return r.defaultHandler
}

// Clone creates a copy of the registry. Handlers themselves are shared.
func (r *FormatterRegistry) Clone() *FormatterRegistry {
	if r == nil {
		return NewFormatterRegistry()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	clone := &FormatterRegistry{
		names:          make(map[string]Handler, len(r.names)),
		exact:          make(map[reflect.Type]Handler, len(r.exact)),
		matchers:       append([]matcherEntry(nil), r.matchers...),
		defaultHandler: r.defaultHandler,
	}
	for k, v := range r.names {
		clone.names[k] = v
	}
	for k, v := range r.exact {
		clone.exact[k] = v
	}
	return clone
}

// invokeHandler calls a handler with panic isolation. A recovered panic is
// reported as an error so one misbehaving handler cannot abort the entry.
func invokeHandler(h Handler, value any) (result FormatResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(value)
}

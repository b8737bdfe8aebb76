package lumber

import (
	"fmt"
	"reflect"
)

// EntryFormatter applies a FormatterRegistry to a raw message and attribute
// map. It recurses into nested containers with cycle protection and isolates
// every handler invocation, so one failing handler degrades a single value to
// a diagnostic string instead of aborting the entry.
type EntryFormatter struct {
	registry *FormatterRegistry
}

// NewEntryFormatter creates an entry formatter. A nil registry gets the
// default registry with built-in error and Stringer handlers.
func NewEntryFormatter(registry *FormatterRegistry) *EntryFormatter {
	if registry == nil {
		registry = NewDefaultFormatterRegistry()
	}
	return &EntryFormatter{registry: registry}
}

// Registry returns the underlying formatter registry.
func (f *EntryFormatter) Registry() *FormatterRegistry {
	return f.registry
}

// FormatEntry returns a copy of the entry with its message and attributes
// rendered through the registry. The input entry is not modified.
func (f *EntryFormatter) FormatEntry(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	message, extra := f.FormatMessage(e.Message)
	attributes := f.FormatAttributes(e.Attributes)
	if len(extra) > 0 {
		if attributes == nil {
			attributes = make(map[string]any, len(extra))
		}
		mergeFlattened(attributes, "", extra)
	}
	return &Entry{
		Time:         e.Time,
		Severity:     e.Severity,
		Message:      message,
		ProgName:     e.ProgName,
		Attributes:   attributes,
		UnitOfWorkID: e.UnitOfWorkID,
	}
}

// FormatMessage renders a message value. A message-position handler may
// return Split, in which case the extra attributes to merge into the entry
// are returned alongside the new message.
func (f *EntryFormatter) FormatMessage(message any) (any, map[string]any) {
	if message == nil {
		return nil, nil
	}
	if h := f.registry.Resolve(message); h != nil {
		result, err := invokeHandler(h, message)
		if err != nil {
			return formatDiagnostic(message, err), nil
		}
		switch result.Kind {
		case ResultSplit:
			return result.Message, flattenAttributes(result.Attributes)
		case ResultRemap:
			// Remap makes no sense for a message; treat the value as the
			// message and cross-file the remap as an attribute.
			return result.Value, flattenAttributes(map[string]any{result.Path: result.Value})
		default:
			return result.Value, nil
		}
	}
	st := newFormatState()
	return f.walk(message, st), nil
}

// FormatAttributes renders every attribute value through the registry.
// Name-specific handlers take precedence over type-based ones. Remap results
// move their value to the target path; Split results collapse to a scalar of
// their message. Returns a fresh map; the input is not modified.
func (f *EntryFormatter) FormatAttributes(attributes map[string]any) map[string]any {
	if len(attributes) == 0 {
		return nil
	}
	formatted := make(map[string]any, len(attributes))
	st := newFormatState()
	for name, value := range attributes {
		h := f.registry.ResolveName(name)
		if h == nil {
			h = f.registry.Resolve(value)
		}
		if h == nil {
			formatted[name] = f.walk(value, st)
			continue
		}
		result, err := invokeHandler(h, value)
		if err != nil {
			formatted[name] = formatDiagnostic(value, err)
			continue
		}
		switch result.Kind {
		case ResultRemap:
			if result.Path == "" {
				formatted[name] = result.Value
				continue
			}
			setFlattened(formatted, result.Path, result.Value)
		case ResultSplit:
			// Attribute-position handlers may not split; use the message.
			formatted[name] = result.Message
		default:
			formatted[name] = result.Value
		}
	}
	if len(formatted) == 0 {
		return nil
	}
	return formatted
}

// formatState tracks the identities of containers on the current recursion
// path, so self-referential structures terminate with RecursionMarker.
type formatState struct {
	onPath map[pathKey]struct{}
	depth  int
}

// pathKey identifies a container on the recursion path. Slices carry their
// length as well as their base pointer, so a sub-slice sharing its ancestor's
// backing array is not mistaken for a cycle.
type pathKey struct {
	ptr    uintptr
	length int
}

func newFormatState() *formatState {
	return &formatState{onPath: make(map[pathKey]struct{})}
}

// walk renders a value with no applicable handler. Containers recurse
// element-wise; handler results obtained inside the recursion are final and
// are not re-dispatched.
func (f *EntryFormatter) walk(value any, st *formatState) any {
	if value == nil {
		return nil
	}
	if st.depth >= MaxFormatDepth {
		return RecursionMarker
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		id := pathKey{ptr: rv.Pointer(), length: -1}
		if rv.Kind() == reflect.Slice {
			id.length = rv.Len()
		}
		if _, seen := st.onPath[id]; seen {
			return RecursionMarker
		}
		st.onPath[id] = struct{}{}
		defer delete(st.onPath, id)
	}

	st.depth++
	defer func() { st.depth-- }()

	switch rv.Kind() {
	case reflect.Map:
		return f.walkMap(rv, st)
	case reflect.Slice, reflect.Array:
		return f.walkSlice(rv, st)
	case reflect.Ptr:
		return f.dispatch(rv.Elem().Interface(), st)
	default:
		return value
	}
}

// dispatch resolves and applies a handler for a nested value, falling back
// to the recursive walk.
func (f *EntryFormatter) dispatch(value any, st *formatState) any {
	if value == nil {
		return nil
	}
	h := f.registry.Resolve(value)
	if h == nil {
		return f.walk(value, st)
	}
	result, err := invokeHandler(h, value)
	if err != nil {
		return formatDiagnostic(value, err)
	}
	switch result.Kind {
	case ResultSplit:
		return result.Message
	default:
		return result.Value
	}
}

func (f *EntryFormatter) walkMap(rv reflect.Value, st *formatState) any {
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := fmt.Sprintf("%v", iter.Key().Interface())
		out[key] = f.dispatch(valueInterface(iter.Value()), st)
	}
	return out
}

func (f *EntryFormatter) walkSlice(rv reflect.Value, st *formatState) any {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = f.dispatch(valueInterface(rv.Index(i)), st)
	}
	return out
}

// valueInterface unwraps a reflect.Value, tolerating invalid (nil interface)
// elements inside containers.
func valueInterface(rv reflect.Value) any {
	if !rv.IsValid() || !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}

// formatDiagnostic renders a failed handler invocation as an inline string
// preserving the original value's type and the failure.
func formatDiagnostic(value any, err error) string {
	return fmt.Sprintf("<format error on %T: %v>", value, err)
}

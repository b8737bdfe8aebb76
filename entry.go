package lumber

import (
	"sort"
	"strings"
	"time"
)

// Entry is the immutable record of one log call prior to rendering.
// Attributes are flattened to dot-joined string keys; nil and empty leaf
// values are compacted out at construction.
type Entry struct {
	Time         time.Time
	Severity     Severity
	Message      any
	ProgName     string
	Attributes   map[string]any
	UnitOfWorkID string
}

// NewEntry builds an Entry with flattened, compacted attributes.
// The input map is not retained; nested maps are dot-flattened recursively.
func NewEntry(t time.Time, severity Severity, message any, progname string, attributes map[string]any) *Entry {
	return &Entry{
		Time:       t,
		Severity:   severity,
		Message:    message,
		ProgName:   progname,
		Attributes: flattenAttributes(attributes),
	}
}

// AttributeKeys returns the entry's attribute keys in sorted order.
func (e *Entry) AttributeKeys() []string {
	if len(e.Attributes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// flattenAttributes flattens a (possibly nested) attribute map into dot-joined
// keys and drops empty leaves. Returns nil for empty input.
func flattenAttributes(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	flat := make(map[string]any, len(attrs))
	mergeFlattened(flat, "", attrs)
	if len(flat) == 0 {
		return nil
	}
	return flat
}

// mergeFlattened merges src under prefix into dst, flattening nested maps.
// Keys are visited in sorted order so collisions between a dot-notation key
// and a structured sub-map resolve deterministically within one map literal.
func mergeFlattened(dst map[string]any, prefix string, src map[string]any) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		setFlattened(dst, joinKey(prefix, k), src[k])
	}
}

// setFlattened assigns one flattened key. Map values recurse; assigning a
// scalar to a key that is currently a prefix replaces all its descendants,
// so the last assignment wins per leaf.
func setFlattened(dst map[string]any, key string, value any) {
	if key == "" {
		return
	}
	switch v := value.(type) {
	case map[string]any:
		deleteKey(dst, key)
		mergeFlattened(dst, key, v)
	default:
		if isEmptyValue(value) {
			return
		}
		deleteKey(dst, key)
		dst[key] = value
	}
}

// deleteKey removes key and, treating key as a prefix, all descendant keys.
func deleteKey(dst map[string]any, key string) {
	delete(dst, key)
	prefix := key + "."
	for k := range dst {
		if strings.HasPrefix(k, prefix) {
			delete(dst, k)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isEmptyValue reports whether a leaf value should be compacted out.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

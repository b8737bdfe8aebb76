package lumber

import (
	"sync"

	"github.com/google/uuid"
)

// UnitKey identifies an execution unit in a ContextRegistry. Go does not
// expose a goroutine handle, so the unit identity is supplied explicitly by
// whoever owns the unit boundary (a request, a worker slot, a task). Keys
// must be comparable; NewUnitKey mints collision-free ones.
type UnitKey any

// NewUnitKey returns a fresh, process-unique execution-unit key.
func NewUnitKey() UnitKey {
	return uuid.New()
}

// ContextRegistry holds the currently active Context per execution unit,
// with push/restore semantics. Exactly one Context is active per key at a
// time; a push for a key replaces it and the returned restore function puts
// the previous one back (or removes the key entirely).
//
// The registry is mutated only for the instant of a push or restore. The
// body of a scoped block runs with no registry lock held.
type ContextRegistry struct {
	mu     sync.RWMutex
	active map[UnitKey]*Context
}

// NewContextRegistry creates an empty registry.
func NewContextRegistry() *ContextRegistry {
	return &ContextRegistry{
		active: make(map[UnitKey]*Context),
	}
}

// Active returns the currently active Context for the unit, or nil.
func (r *ContextRegistry) Active(key UnitKey) *Context {
	if r == nil || key == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[key]
}

// Push activates a new Context for the unit, inheriting from whatever was
// active, and returns a restore function. The restore function reinstates
// the previous Context, or deletes the unit's slot if this was the first
// push for the key. Callers must invoke restore exactly once, normally via
// defer so restoration happens even when the scoped body panics.
func (r *ContextRegistry) Push(key UnitKey, attrs map[string]any) (*Context, func()) {
	if key == nil {
		c := NewContext(nil)
		c.Tag(attrs)
		return c, func() {}
	}

	r.mu.Lock()
	prev, hadPrev := r.active[key]
	next := NewContext(prev)
	next.Tag(attrs)
	r.active[key] = next
	r.mu.Unlock()

	var once sync.Once
	restore := func() {
		once.Do(func() {
			r.mu.Lock()
			if hadPrev {
				r.active[key] = prev
			} else {
				delete(r.active, key)
			}
			r.mu.Unlock()
		})
	}
	return next, restore
}

// Scoped runs fn with a nested Context active for the unit, restoring the
// prior Context unconditionally on exit, including on panic. The pushed
// Context is passed to fn for further tagging within the scope.
func (r *ContextRegistry) Scoped(key UnitKey, attrs map[string]any, fn func(c *Context)) {
	c, restore := r.Push(key, attrs)
	defer restore()
	fn(c)
}

// ToMap resolves the effective attributes for the unit, or nil if no
// Context is active.
func (r *ContextRegistry) ToMap(key UnitKey) map[string]any {
	if c := r.Active(key); c != nil {
		return c.ToMap()
	}
	return nil
}

// Size returns the number of units with an active Context.
func (r *ContextRegistry) Size() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// defaultContextRegistry is the process-wide registry consulted by every
// logger as the lowest-precedence attribute layer.
var defaultContextRegistry = NewContextRegistry()

// DefaultContextRegistry returns the process-wide registry.
func DefaultContextRegistry() *ContextRegistry {
	return defaultContextRegistry
}

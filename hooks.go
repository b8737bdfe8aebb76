package lumber

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// HookEvent represents a device lifecycle event that triggers hooks.
type HookEvent int

const (
	// HookBeforeFlush fires before a flush batch is written to the sink.
	HookBeforeFlush HookEvent = iota

	// HookAfterFlush fires after a flush batch completes (success or
	// partial failure).
	HookAfterFlush

	// HookOnRotate fires when a file device rotates its log file.
	HookOnRotate

	// HookOnClose fires when a device finishes closing.
	HookOnClose

	// HookOnError fires when a sink write fails.
	HookOnError
)

// String returns the string representation of the hook event.
func (e HookEvent) String() string {
	switch e {
	case HookBeforeFlush:
		return "BeforeFlush"
	case HookAfterFlush:
		return "AfterFlush"
	case HookOnRotate:
		return "OnRotate"
	case HookOnClose:
		return "OnClose"
	case HookOnError:
		return "OnError"
	default:
		return "Unknown"
	}
}

// HookContext provides contextual information for hook execution.
type HookContext struct {
	Event     HookEvent
	Timestamp time.Time
	Entry     *Entry // the entry involved, for OnError events
	Path      string // the file involved, for OnRotate events
	Err       error  // the failure, for OnError events
}

// Hook is called on device lifecycle events. A hook error never aborts the
// device operation; it is passed to the registry's error handler.
type Hook func(hookCtx *HookContext) error

// HookErrorHandler handles errors returned (or panics raised) by hooks.
type HookErrorHandler func(event HookEvent, err error)

// DefaultHookErrorHandler logs hook errors to stderr.
func DefaultHookErrorHandler(event HookEvent, err error) {
	fmt.Fprintf(os.Stderr, "lumber: hook error for event %s: %v\n", event, err)
}

// HookRegistry manages hooks organized by event type. It is thread-safe and
// supports dynamic registration. Hooks run in registration order; a failing
// hook does not stop the others.
type HookRegistry struct {
	mu           sync.RWMutex
	hooks        map[HookEvent][]Hook
	errorHandler HookErrorHandler
}

// NewHookRegistry creates a new empty hook registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{
		hooks:        make(map[HookEvent][]Hook),
		errorHandler: DefaultHookErrorHandler,
	}
}

// SetErrorHandler replaces the error handler. Nil restores the default.
func (r *HookRegistry) SetErrorHandler(handler HookErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handler == nil {
		handler = DefaultHookErrorHandler
	}
	r.errorHandler = handler
}

// Add registers a hook for an event. Nil hooks are ignored.
func (r *HookRegistry) Add(event HookEvent, hook Hook) {
	if hook == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[event] = append(r.hooks[event], hook)
}

// Remove removes all hooks for an event.
func (r *HookRegistry) Remove(event HookEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hooks, event)
}

// Count returns the total number of registered hooks.
func (r *HookRegistry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, hooks := range r.hooks {
		count += len(hooks)
	}
	return count
}

// CountFor returns the number of hooks registered for an event.
func (r *HookRegistry) CountFor(event HookEvent) int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[event])
}

// Trigger executes all hooks for the event. Errors and panics are isolated
// per hook and routed to the error handler; every hook always runs. A nil
// registry is a no-op, so devices can trigger unconditionally.
func (r *HookRegistry) Trigger(event HookEvent, hookCtx *HookContext) {
	if r == nil {
		return
	}
	r.mu.RLock()
	hooks := r.hooks[event]
	handler := r.errorHandler
	r.mu.RUnlock()

	if len(hooks) == 0 {
		return
	}
	if hookCtx == nil {
		hookCtx = &HookContext{Timestamp: time.Now()}
	}
	hookCtx.Event = event

	for _, hook := range hooks {
		if err := runHook(hook, hookCtx); err != nil {
			handler(event, err)
		}
	}
}

func runHook(hook Hook, hookCtx *HookContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hook panic: %v", rec)
		}
	}()
	return hook(hookCtx)
}

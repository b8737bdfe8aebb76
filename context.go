package lumber

import "sync"

// Context is a node in the attribute-inheritance chain. A Context merges its
// own attributes over its parent's; descendants win on key conflict.
//
// A Context's own attributes are mutable only while it is the active context
// for its execution unit. Once restored (popped), it should be discarded.
type Context struct {
	parent *Context

	mu         sync.RWMutex
	attributes map[string]any
}

// NewContext creates a Context inheriting the parent's resolved attributes.
// A nil parent creates a root context.
func NewContext(parent *Context) *Context {
	return &Context{parent: parent}
}

// Parent returns the parent context, or nil for a root context.
func (c *Context) Parent() *Context {
	return c.parent
}

// Tag flattens and merges attrs into the context's own attributes.
// Nested maps dot-flatten recursively; the last assignment wins per leaf.
func (c *Context) Tag(attrs map[string]any) {
	if len(attrs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attributes == nil {
		c.attributes = make(map[string]any, len(attrs))
	}
	mergeFlattened(c.attributes, "", attrs)
}

// Set assigns a single attribute. Equivalent to Tag with a one-key map.
func (c *Context) Set(key string, value any) {
	c.Tag(map[string]any{key: value})
}

// Get returns the effective value for key, searching the inheritance chain.
func (c *Context) Get(key string) any {
	for node := c; node != nil; node = node.parent {
		node.mu.RLock()
		v, ok := node.attributes[key]
		node.mu.RUnlock()
		if ok {
			return v
		}
	}
	return nil
}

// Delete removes keys from the context's own attributes. A key that is
// itself a prefix removes all its dot-descendants as well. Inherited
// attributes are unaffected.
func (c *Context) Delete(keys ...string) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		deleteKey(c.attributes, key)
	}
}

// ToMap returns the effective attributes: the parent's resolved map with the
// context's own attributes merged over it. The result is a fresh map.
func (c *Context) ToMap() map[string]any {
	var resolved map[string]any
	if c.parent != nil {
		resolved = c.parent.ToMap()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.attributes) == 0 {
		return resolved
	}
	if resolved == nil {
		resolved = make(map[string]any, len(c.attributes))
	}
	for k, v := range c.attributes {
		resolved[k] = v
	}
	return resolved
}

// Size returns the number of own attributes (excluding inherited ones).
func (c *Context) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.attributes)
}

package lumber

import (
	"errors"
	"sync"
)

// memoryDevice records entries in memory for assertions. Safe for
// concurrent use.
type memoryDevice struct {
	mu      sync.Mutex
	entries []*Entry
	flushes int
	closed  bool
	reopens int
	failing bool
}

func newMemoryDevice() *memoryDevice {
	return &memoryDevice{}
}

func (d *memoryDevice) Write(entry *Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return errors.New("injected write failure")
	}
	d.entries = append(d.entries, entry)
	return nil
}

func (d *memoryDevice) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushes++
	return nil
}

func (d *memoryDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *memoryDevice) Reopen(target any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reopens++
	d.closed = false
	return nil
}

func (d *memoryDevice) Dev() any { return d }

func (d *memoryDevice) setFailing(failing bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing = failing
}

func (d *memoryDevice) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *memoryDevice) snapshot() []*Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d *memoryDevice) last() *Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.entries) == 0 {
		return nil
	}
	return d.entries[len(d.entries)-1]
}

func (d *memoryDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *memoryDevice) flushCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

// newMemoryLogger builds a synchronous logger over a fresh memoryDevice.
func newMemoryLogger(severity Severity) (*Logger, *memoryDevice) {
	device := newMemoryDevice()
	logger := Must(New(&Config{
		Severity: severity,
		Device:   device,
	}))
	return logger, device
}

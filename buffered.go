package lumber

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Device lifecycle states.
const (
	stateOpen int32 = iota
	stateClosing
	stateClosed
)

// WriteErrorHandler receives per-entry sink failures during a flush.
type WriteErrorHandler func(entry *Entry, err error)

// BufferedDeviceConfig configures a BufferedDevice.
type BufferedDeviceConfig struct {
	// BufferSize is the number of entries that triggers an automatic flush.
	// 0 or 1 means synchronous pass-through with no buffering.
	BufferSize int

	// FlushInterval is how often the background flusher checks for stale
	// entries. Zero uses DefaultFlushInterval.
	FlushInterval time.Duration

	// PreFlushHook, when set, is invoked under the buffer lock immediately
	// before the buffer is swapped out.
	PreFlushHook func()

	// WriteErrorHandler receives per-entry sink failures. When nil,
	// failures are reported to DiagnosticWriter.
	WriteErrorHandler WriteErrorHandler

	// DiagnosticWriter is the fallback stream for I/O failures.
	// Defaults to os.Stderr.
	DiagnosticWriter io.Writer

	// Hooks, when set, receives BeforeFlush/AfterFlush/OnClose/OnError
	// lifecycle events.
	Hooks *HookRegistry
}

// BufferedDevice queues entries in memory in front of a sink and batches
// writes. Flushing swaps the buffer out atomically under a short-held lock
// and performs all sink I/O outside the lock, so producers are never blocked
// on sink latency. Entries flush at most once and in enqueue order.
//
// A background task flushes entries that have been buffered longer than the
// flush interval. Close drains the buffer synchronously; writes after Close
// are silent no-ops.
type BufferedDevice struct {
	sink          Device
	bufferSize    int
	flushInterval time.Duration
	preFlushHook  func()
	errorHandler  WriteErrorHandler
	diag          io.Writer
	hooks         *HookRegistry

	state     atomic.Int32
	lastFlush atomic.Int64 // unix nanos of the last completed flush

	mu     sync.Mutex
	buffer []*Entry

	drainMu sync.Mutex // serializes flushes so batches reach the sink in swap order

	lifecycle sync.Mutex // serializes Close and Reopen
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewBufferedDevice creates a buffered device in front of sink.
// Configuration errors surface here, never at write time.
func NewBufferedDevice(sink Device, config BufferedDeviceConfig) (*BufferedDevice, error) {
	if sink == nil {
		return nil, NewConfigError(ErrCodeNilDevice, "sink cannot be nil")
	}
	if config.BufferSize < 0 {
		return nil, NewConfigError(ErrCodeInvalidBuffer,
			fmt.Sprintf("buffer size %d", config.BufferSize))
	}
	if config.BufferSize > MaxBufferSize {
		return nil, NewConfigError(ErrCodeMaxSizeExceeded,
			fmt.Sprintf("buffer size %d exceeds maximum %d", config.BufferSize, MaxBufferSize))
	}
	if config.FlushInterval < 0 {
		return nil, NewConfigError(ErrCodeInvalidInterval,
			fmt.Sprintf("flush interval %s", config.FlushInterval))
	}
	if config.FlushInterval == 0 {
		config.FlushInterval = DefaultFlushInterval
	}
	if config.DiagnosticWriter == nil {
		config.DiagnosticWriter = os.Stderr
	}

	d := &BufferedDevice{
		sink:          sink,
		bufferSize:    config.BufferSize,
		flushInterval: config.FlushInterval,
		preFlushHook:  config.PreFlushHook,
		errorHandler:  config.WriteErrorHandler,
		diag:          config.DiagnosticWriter,
		hooks:         config.Hooks,
	}
	d.lastFlush.Store(time.Now().UnixNano())
	d.startFlusher()
	return d, nil
}

// buffered reports whether this device queues entries at all.
func (d *BufferedDevice) buffered() bool {
	return d.bufferSize > 1
}

func (d *BufferedDevice) startFlusher() {
	if !d.buffered() {
		return
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.wg.Add(1)
	go d.flushLoop(d.ctx)
}

// Write enqueues one entry. Writes on a non-open device are silently
// dropped, so producer code never needs error handling around logging.
func (d *BufferedDevice) Write(entry *Entry) error {
	if entry == nil || d.state.Load() != stateOpen {
		return nil
	}

	if !d.buffered() {
		d.writeOne(entry)
		d.lastFlush.Store(time.Now().UnixNano())
		return nil
	}

	d.mu.Lock()
	// Recheck under the lock: Close may have started since the load above,
	// and an entry appended after its final flush would be stranded.
	if d.state.Load() != stateOpen {
		d.mu.Unlock()
		return nil
	}
	d.buffer = append(d.buffer, entry)
	full := len(d.buffer) >= d.bufferSize
	d.mu.Unlock()

	if full {
		d.flushNow()
	}
	return nil
}

// Flush drains the current buffer to the sink. An empty buffer performs no
// sink I/O; the flush timestamp still advances.
func (d *BufferedDevice) Flush() error {
	d.flushNow()
	return nil
}

// flushNow swaps the buffer out and drains it to the sink. drainMu is taken
// before the swap, so overlapping flushes deliver their batches in swap order
// and entries keep their enqueue order at the sink. d.mu is never held while
// waiting on drainMu or during sink I/O, so producers keep appending freely
// while a slow drain is in flight.
func (d *BufferedDevice) flushNow() {
	d.drainMu.Lock()
	defer d.drainMu.Unlock()

	d.mu.Lock()
	batch := d.swapLocked()
	d.mu.Unlock()

	d.drain(batch)
}

// swapLocked runs the pre-flush hook and swaps the buffer for an empty one.
// Caller must hold d.mu.
func (d *BufferedDevice) swapLocked() []*Entry {
	if d.preFlushHook != nil {
		d.preFlushHook()
	}
	batch := d.buffer
	d.buffer = nil
	return batch
}

// drain writes a swapped-out batch to the sink. Each entry writes
// individually; a failure is reported and the remaining entries still write.
// Runs under drainMu only, never d.mu.
func (d *BufferedDevice) drain(batch []*Entry) {
	d.hooks.Trigger(HookBeforeFlush, &HookContext{Timestamp: time.Now()})
	for _, entry := range batch {
		d.writeOne(entry)
	}
	d.lastFlush.Store(time.Now().UnixNano())
	d.hooks.Trigger(HookAfterFlush, &HookContext{Timestamp: time.Now()})
}

func (d *BufferedDevice) writeOne(entry *Entry) {
	err := d.sink.Write(entry)
	if err == nil {
		return
	}
	d.hooks.Trigger(HookOnError, &HookContext{Timestamp: time.Now(), Entry: entry, Err: err})
	if d.errorHandler != nil {
		d.errorHandler(entry, err)
		return
	}
	fmt.Fprintf(d.diag, "lumber: device write error: %v\n", err)
}

// flushLoop is the background periodic flusher. It flushes only when the
// elapsed time since the last flush reaches the interval, so an explicit
// flush resets the clock, and it stops as soon as the device leaves OPEN.
func (d *BufferedDevice) flushLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.state.Load() != stateOpen {
				return
			}
			elapsed := time.Since(time.Unix(0, d.lastFlush.Load()))
			if elapsed < d.flushInterval {
				continue
			}
			d.mu.Lock()
			pending := len(d.buffer) > 0
			d.mu.Unlock()
			if pending {
				_ = d.Flush()
			}
		}
	}
}

// Close flushes remaining entries synchronously, stops the background
// flusher, and closes the sink. Subsequent writes are silent no-ops;
// closing twice is harmless.
func (d *BufferedDevice) Close() error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if !d.state.CompareAndSwap(stateOpen, stateClosing) {
		return nil
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()

	_ = d.Flush()
	err := d.sink.Close()
	d.state.Store(stateClosed)
	d.hooks.Trigger(HookOnClose, &HookContext{Timestamp: time.Now()})
	return err
}

// Reopen flushes, re-validates or replaces the sink, and returns the device
// to OPEN, restarting the background flusher if needed. Used after external
// log rotation replaced the underlying file.
func (d *BufferedDevice) Reopen(target any) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	_ = d.Flush()
	if err := d.sink.Reopen(target); err != nil {
		return err
	}
	if d.state.Load() != stateOpen {
		d.state.Store(stateOpen)
		d.startFlusher()
	}
	return nil
}

// Dev returns the sink's underlying raw resource.
func (d *BufferedDevice) Dev() any {
	return d.sink.Dev()
}

// Buffered returns the number of entries currently queued.
func (d *BufferedDevice) Buffered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffer)
}

// LastFlush returns the time the last flush completed.
func (d *BufferedDevice) LastFlush() time.Time {
	return time.Unix(0, d.lastFlush.Load())
}

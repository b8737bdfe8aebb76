package lumber

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogFormat selects how a WriterDevice renders entries.
type LogFormat int

const (
	FormatText LogFormat = iota
	FormatJSON
)

// Device is the boundary a logger writes formatted entries to: a stream, a
// file, another logger, or a fan-out of several of these.
//
// Write never blocks producers on anything but the device's own short
// internal locking; durable-sink latency is the caller's concern (see
// BufferedDevice for the decoupled variant).
type Device interface {
	// Write records one formatted entry.
	Write(entry *Entry) error

	// Flush forces any buffered output down to the durable sink.
	Flush() error

	// Close flushes and releases the device. Writes after Close are
	// silently dropped.
	Close() error

	// Reopen re-validates or replaces the underlying resource, e.g. after
	// external log rotation moved the file. A nil target re-acquires the
	// current resource where that is meaningful.
	Reopen(target any) error

	// Dev returns the underlying raw resource for introspection.
	Dev() any
}

// WriterDevice renders entries to an io.Writer, one line per entry, using
// either a text template or JSON.
type WriterDevice struct {
	mu       sync.Mutex
	writer   io.Writer
	format   LogFormat
	template *Template
	closed   bool
}

// NewWriterDevice creates a device over w. A nil template uses
// DefaultTemplate for text format; JSON format ignores the template.
func NewWriterDevice(w io.Writer, format LogFormat, template *Template) (*WriterDevice, error) {
	if w == nil {
		return nil, NewConfigError(ErrCodeNilDevice, "writer cannot be nil")
	}
	if format != FormatText && format != FormatJSON {
		return nil, NewConfigError(ErrCodeInvalidFormat, fmt.Sprintf("unknown format %d", format))
	}
	if template == nil {
		var err error
		template, err = NewTemplate(DefaultTemplate, DefaultTimeFormat)
		if err != nil {
			return nil, err
		}
	}
	return &WriterDevice{writer: w, format: format, template: template}, nil
}

func (d *WriterDevice) Write(entry *Entry) error {
	if entry == nil {
		return nil
	}
	line, err := d.render(entry)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	_, err = d.writer.Write(append(line, '\n'))
	return err
}

func (d *WriterDevice) render(entry *Entry) ([]byte, error) {
	if d.format == FormatJSON {
		return marshalEntryJSON(entry, d.template.timeFormat)
	}
	return []byte(d.template.Render(entry)), nil
}

func (d *WriterDevice) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if flusher, ok := d.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	if syncer, ok := d.writer.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}

func (d *WriterDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	if closer, ok := d.writer.(io.Closer); ok {
		if d.writer != os.Stdout && d.writer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}

// Reopen replaces the underlying writer. The target must be an io.Writer;
// nil is a no-op since a generic stream has nothing to re-acquire.
func (d *WriterDevice) Reopen(target any) error {
	if target == nil {
		d.mu.Lock()
		d.closed = false
		d.mu.Unlock()
		return nil
	}
	w, ok := target.(io.Writer)
	if !ok {
		return NewConfigError(ErrCodeReopenTarget, fmt.Sprintf("cannot reopen onto %T", target))
	}
	d.mu.Lock()
	d.writer = w
	d.closed = false
	d.mu.Unlock()
	return nil
}

func (d *WriterDevice) Dev() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writer
}

// marshalEntryJSON renders an entry as a single JSON object. Attributes are
// emitted as a nested object under "attributes" with their flattened keys.
func marshalEntryJSON(entry *Entry, timeFormat string) ([]byte, error) {
	obj := make(map[string]any, 6)
	obj["time"] = entry.Time.Format(timeFormat)
	obj["severity"] = entry.Severity.String()
	obj["message"] = renderMessage(entry.Message)
	if entry.ProgName != "" {
		obj["progname"] = entry.ProgName
	}
	if entry.UnitOfWorkID != "" {
		obj["unit_of_work_id"] = entry.UnitOfWorkID
	}
	if len(entry.Attributes) > 0 {
		obj["attributes"] = entry.Attributes
	}
	return json.Marshal(obj)
}

// renderMessage reduces an arbitrary formatted message to a JSON-friendly
// value: strings and JSON-marshalable values pass through, everything else
// stringifies.
func renderMessage(message any) any {
	switch m := message.(type) {
	case nil:
		return ""
	case string:
		return m
	case error:
		return m.Error()
	case fmt.Stringer:
		return m.String()
	default:
		return m
	}
}

// LoggerDevice forwards entries to another Logger, preserving severity and
// attributes. The wrapped logger is owned by its creator: Close flushes the
// forwarder but does not close the target.
type LoggerDevice struct {
	target *Logger
}

// NewLoggerDevice creates a device that relays entries into target.
func NewLoggerDevice(target *Logger) (*LoggerDevice, error) {
	if target == nil {
		return nil, NewConfigError(ErrCodeNilDevice, "target logger cannot be nil")
	}
	return &LoggerDevice{target: target}, nil
}

func (d *LoggerDevice) Write(entry *Entry) error {
	d.target.LogEntry(entry)
	return nil
}

func (d *LoggerDevice) Flush() error {
	return d.target.Flush()
}

func (d *LoggerDevice) Close() error {
	return d.target.Flush()
}

func (d *LoggerDevice) Reopen(target any) error {
	if target == nil {
		return nil
	}
	l, ok := target.(*Logger)
	if !ok {
		return NewConfigError(ErrCodeReopenTarget, fmt.Sprintf("cannot reopen onto %T", target))
	}
	d.target = l
	return nil
}

func (d *LoggerDevice) Dev() any {
	return d.target
}

// MultiDevice fans an entry out to several devices. A failing device does
// not stop delivery to the others; failures are collected into a
// MultiDeviceError.
type MultiDevice struct {
	mu      sync.RWMutex
	devices []Device
}

// NewMultiDevice creates a fan-out over the given devices; nils are dropped.
func NewMultiDevice(devices ...Device) *MultiDevice {
	valid := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d != nil {
			valid = append(valid, d)
		}
	}
	return &MultiDevice{devices: valid}
}

func (m *MultiDevice) Write(entry *Entry) error {
	m.mu.RLock()
	devices := m.devices
	m.mu.RUnlock()

	var errs MultiDeviceError
	for _, d := range devices {
		if err := d.Write(entry); err != nil {
			errs.AddError(d, entry, err)
		}
	}
	if errs.HasErrors() {
		return &errs
	}
	return nil
}

func (m *MultiDevice) Flush() error {
	m.mu.RLock()
	devices := m.devices
	m.mu.RUnlock()

	var errs []error
	for _, d := range devices {
		if err := d.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiDevice) Close() error {
	m.mu.RLock()
	devices := m.devices
	m.mu.RUnlock()

	var errs []error
	for _, d := range devices {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reopen fans out to every device with a nil target; per-device targets are
// not supported through the fan-out.
func (m *MultiDevice) Reopen(target any) error {
	if target != nil {
		return NewConfigError(ErrCodeReopenTarget, "MultiDevice reopen only supports a nil target")
	}
	m.mu.RLock()
	devices := m.devices
	m.mu.RUnlock()

	var errs []error
	for _, d := range devices {
		if err := d.Reopen(nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiDevice) Dev() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Device(nil), m.devices...)
}

// AddDevice appends a device to the fan-out.
func (m *MultiDevice) AddDevice(d Device) error {
	if d == nil {
		return NewConfigError(ErrCodeNilDevice, "device cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = append(m.devices, d)
	return nil
}

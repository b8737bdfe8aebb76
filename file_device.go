package lumber

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cybergodev/lumber/internal"
)

// FileConfig configures a FileDevice.
type FileConfig struct {
	// Path of the log file. Parent directories are created as needed.
	Path string `yaml:"path"`

	// MaxSizeMB rotates the file once it would exceed this size.
	// 0 disables rotation.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups caps the number of rotated backups kept on disk.
	// 0 keeps all backups.
	MaxBackups int `yaml:"max_backups"`

	// Compress gzips rotated backups in the background.
	Compress bool `yaml:"compress"`

	// Format selects text or JSON rendering.
	Format LogFormat `yaml:"format"`

	// Template is the text pattern; empty uses DefaultTemplate.
	Template string `yaml:"template"`

	// TimeFormat is the timestamp layout; empty uses DefaultTimeFormat.
	TimeFormat string `yaml:"time_format"`

	// Hooks receives OnRotate events.
	Hooks *HookRegistry `yaml:"-"`
}

// FileDevice renders entries to a log file with optional size-based
// rotation. Rotated backups are named path.1, path.2, ... (highest index
// newest) and optionally gzipped. Reopen re-acquires the path after an
// external tool has moved the file away.
type FileDevice struct {
	path       string
	maxSize    int64
	maxBackups int
	compress   bool
	format     LogFormat
	template   *Template
	hooks      *HookRegistry

	mu     sync.Mutex
	file   *os.File
	size   int64
	closed bool

	wg sync.WaitGroup
}

// NewFileDevice opens (creating as needed) the configured log file.
// Configuration errors surface here, never at write time.
func NewFileDevice(config FileConfig) (*FileDevice, error) {
	if config.Path == "" {
		return nil, NewConfigError(ErrCodeEmptyFilePath, "file path cannot be empty")
	}
	if config.MaxSizeMB < 0 {
		return nil, NewConfigError(ErrCodeInvalidPath,
			fmt.Sprintf("max size %dMB cannot be negative", config.MaxSizeMB))
	}
	if config.MaxSizeMB > MaxFileSizeMB {
		return nil, NewConfigError(ErrCodeMaxSizeExceeded,
			fmt.Sprintf("max size %dMB exceeds limit %dMB", config.MaxSizeMB, MaxFileSizeMB))
	}
	if config.Format != FormatText && config.Format != FormatJSON {
		return nil, NewConfigError(ErrCodeInvalidFormat, fmt.Sprintf("unknown format %d", config.Format))
	}

	pattern := config.Template
	if pattern == "" {
		pattern = DefaultTemplate
	}
	template, err := NewTemplate(pattern, config.TimeFormat)
	if err != nil {
		return nil, err
	}

	path := filepath.Clean(config.Path)
	if err := os.MkdirAll(filepath.Dir(path), DirPermissions); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, size, err := internal.OpenAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	return &FileDevice{
		path:       path,
		maxSize:    int64(config.MaxSizeMB) * 1024 * 1024,
		maxBackups: config.MaxBackups,
		compress:   config.Compress,
		format:     config.Format,
		template:   template,
		hooks:      config.Hooks,
		file:       file,
		size:       size,
	}, nil
}

// Path returns the device's log file path.
func (d *FileDevice) Path() string {
	return d.path
}

func (d *FileDevice) Write(entry *Entry) error {
	if entry == nil {
		return nil
	}
	var line []byte
	if d.format == FormatJSON {
		var err error
		line, err = marshalEntryJSON(entry, d.template.timeFormat)
		if err != nil {
			return err
		}
	} else {
		line = []byte(d.template.Render(entry))
	}
	line = append(line, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.file == nil {
		return nil
	}

	if internal.NeedsRotation(d.size, int64(len(line)), d.maxSize) {
		if err := d.rotateLocked(); err != nil {
			return fmt.Errorf("rotation failed: %w", err)
		}
	}

	n, err := d.file.Write(line)
	d.size += int64(n)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// rotateLocked moves the current file aside as the next backup and opens a
// fresh file at the base path. Caller must hold d.mu.
func (d *FileDevice) rotateLocked() error {
	if err := d.file.Close(); err != nil {
		return fmt.Errorf("close during rotation: %w", err)
	}
	d.file = nil

	index := internal.NextBackupIndex(d.path)
	backupPath := internal.BackupPath(d.path, index, false)
	if err := os.Rename(d.path, backupPath); err != nil {
		// Reopen the original so logging can continue even though the
		// rotation itself failed.
		file, size, reopenErr := internal.OpenAppend(d.path)
		if reopenErr != nil {
			return fmt.Errorf("rename failed and file cannot be reopened: rename=%w reopen=%w", err, reopenErr)
		}
		d.file = file
		d.size = size
		return fmt.Errorf("rename to backup: %w", err)
	}

	internal.PruneBackups(d.path, d.maxBackups)
	if d.compress {
		d.wg.Add(1)
		go d.compressBackup(backupPath)
	}

	file, size, err := internal.OpenAppend(d.path)
	if err != nil {
		return fmt.Errorf("open new file: %w", err)
	}
	d.file = file
	d.size = size

	d.hooks.Trigger(HookOnRotate, &HookContext{Timestamp: time.Now(), Path: backupPath})
	return nil
}

func (d *FileDevice) compressBackup(path string) {
	defer d.wg.Done()
	if err := internal.CompressFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "lumber: compress backup %s: %v\n", path, err)
	}
}

func (d *FileDevice) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *FileDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	file := d.file
	d.file = nil
	d.mu.Unlock()

	d.wg.Wait()
	if file != nil {
		return file.Close()
	}
	return nil
}

// Reopen re-acquires the log file. A nil target reopens the current path,
// picking up a replacement file after external rotation; a string target
// switches the device to a new path.
func (d *FileDevice) Reopen(target any) error {
	path := d.path
	switch t := target.(type) {
	case nil:
	case string:
		if t == "" {
			return NewConfigError(ErrCodeEmptyFilePath, "file path cannot be empty")
		}
		path = filepath.Clean(t)
	default:
		return NewConfigError(ErrCodeReopenTarget, fmt.Sprintf("cannot reopen onto %T", target))
	}

	file, size, err := internal.OpenAppend(path)
	if err != nil {
		return fmt.Errorf("reopen log file %s: %w", path, err)
	}

	d.mu.Lock()
	old := d.file
	d.path = path
	d.file = file
	d.size = size
	d.closed = false
	d.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// Dev returns the underlying *os.File.
func (d *FileDevice) Dev() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file
}

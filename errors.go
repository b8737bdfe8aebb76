package lumber

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
// These codes enable programmatic error matching using errors.Is() and errors.As().
const (
	ErrCodeNilConfig        = "NIL_CONFIG"
	ErrCodeNilDevice        = "NIL_DEVICE"
	ErrCodeNilHandler       = "NIL_HANDLER"
	ErrCodeNilHook          = "NIL_HOOK"
	ErrCodeInvalidSeverity  = "INVALID_SEVERITY"
	ErrCodeInvalidFormat    = "INVALID_FORMAT"
	ErrCodeInvalidTemplate  = "INVALID_TEMPLATE"
	ErrCodeInvalidBuffer    = "INVALID_BUFFER_SIZE"
	ErrCodeInvalidInterval  = "INVALID_FLUSH_INTERVAL"
	ErrCodeEmptyFilePath    = "EMPTY_FILE_PATH"
	ErrCodeInvalidPath      = "INVALID_PATH"
	ErrCodeMaxSizeExceeded  = "MAX_SIZE_EXCEEDED"
	ErrCodeDeviceClosed     = "DEVICE_CLOSED"
	ErrCodeReopenTarget     = "INVALID_REOPEN_TARGET"
	ErrCodeConfigValidation = "CONFIG_VALIDATION"
)

// Sentinel errors. These can be used with errors.Is() for simple matching.
// All of them surface eagerly at construction/configuration time; log-call-time
// paths never return them.
var (
	ErrNilConfig           = errors.New("config cannot be nil")
	ErrNilDevice           = errors.New("device cannot be nil")
	ErrNilHandler          = errors.New("formatter handler cannot be nil")
	ErrNilHook             = errors.New("hook cannot be nil")
	ErrInvalidSeverity     = errors.New("invalid severity")
	ErrInvalidFormat       = errors.New("invalid output format")
	ErrInvalidTemplate     = errors.New("invalid entry template")
	ErrInvalidBufferSize   = errors.New("buffer size cannot be negative")
	ErrInvalidInterval     = errors.New("flush interval cannot be negative")
	ErrEmptyFilePath       = errors.New("file path cannot be empty")
	ErrInvalidPath         = errors.New("invalid file path")
	ErrMaxSizeExceeded     = errors.New("maximum size exceeded")
	ErrDeviceClosed        = errors.New("device is closed")
	ErrInvalidReopenTarget = errors.New("unsupported reopen target")
)

// errorCodeToSentinel maps error codes to their corresponding sentinel errors.
var errorCodeToSentinel = map[string]error{
	ErrCodeNilConfig:       ErrNilConfig,
	ErrCodeNilDevice:       ErrNilDevice,
	ErrCodeNilHandler:      ErrNilHandler,
	ErrCodeNilHook:         ErrNilHook,
	ErrCodeInvalidSeverity: ErrInvalidSeverity,
	ErrCodeInvalidFormat:   ErrInvalidFormat,
	ErrCodeInvalidTemplate: ErrInvalidTemplate,
	ErrCodeInvalidBuffer:   ErrInvalidBufferSize,
	ErrCodeInvalidInterval: ErrInvalidInterval,
	ErrCodeEmptyFilePath:   ErrEmptyFilePath,
	ErrCodeInvalidPath:     ErrInvalidPath,
	ErrCodeMaxSizeExceeded: ErrMaxSizeExceeded,
	ErrCodeDeviceClosed:    ErrDeviceClosed,
	ErrCodeReopenTarget:    ErrInvalidReopenTarget,
}

// ConfigError represents a structured configuration error with additional context.
// It implements error, Unwrap(), and Is() for fine-grained error matching.
//
// Example usage:
//
//	logger, err := lumber.New(cfg)
//	if err != nil {
//	    var cfgErr *lumber.ConfigError
//	    if errors.As(err, &cfgErr) {
//	        fmt.Printf("Error code: %s\n", cfgErr.Code)
//	    }
//	    if errors.Is(err, lumber.ErrInvalidSeverity) {
//	        // Handle invalid severity specifically
//	    }
//	}
type ConfigError struct {
	Code    string         // Machine-readable error code (e.g., "INVALID_SEVERITY")
	Message string         // Human-readable message
	Cause   error          // Underlying error (for wrapping)
	Context map[string]any // Additional context for debugging
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for use with errors.Is() and errors.As().
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is enables matching against sentinel errors using errors.Is().
func (e *ConfigError) Is(target error) bool {
	if sentinel, ok := errorCodeToSentinel[e.Code]; ok {
		return target == sentinel
	}
	return false
}

// WithContext returns a copy of the error with the context key added.
func (e *ConfigError) WithContext(key string, value any) *ConfigError {
	if e == nil {
		return nil
	}
	newContext := make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		newContext[k] = v
	}
	newContext[key] = value
	return &ConfigError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Context: newContext,
	}
}

// NewConfigError creates a new ConfigError with the given code and message.
func NewConfigError(code, message string) *ConfigError {
	return &ConfigError{Code: code, Message: message}
}

// WrapConfigError wraps an existing error with a code and message.
// If the error is nil, returns nil.
func WrapConfigError(code, message string, cause error) *ConfigError {
	if cause == nil {
		return nil
	}
	return &ConfigError{Code: code, Message: message, Cause: cause}
}

// DeviceError reports the failure of a single entry write during a flush.
// Device errors are never returned to producers; they are delivered to the
// device's error handler and the remaining entries in the batch still write.
type DeviceError struct {
	Device Device // The device whose sink failed
	Entry  *Entry // The entry that could not be written (may be nil)
	Err    error  // The underlying I/O error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Entry != nil {
		return fmt.Sprintf("device write failed (severity=%s): %v", e.Entry.Severity, e.Err)
	}
	return fmt.Sprintf("device write failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DeviceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MultiDeviceError collects errors from multiple devices in a MultiDevice.
type MultiDeviceError struct {
	Errors []DeviceError
}

// Error implements the error interface.
func (e *MultiDeviceError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return ""
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("multiple device errors: %v", msgs)
}

// Unwrap returns all underlying errors for use with errors.Is() and errors.As().
func (e *MultiDeviceError) Unwrap() []error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(e.Errors))
	for i := range e.Errors {
		errs[i] = e.Errors[i].Err
	}
	return errs
}

// HasErrors returns true if any errors were collected.
func (e *MultiDeviceError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

// AddError appends a device error to the collection.
func (e *MultiDeviceError) AddError(device Device, entry *Entry, err error) {
	e.Errors = append(e.Errors, DeviceError{Device: device, Entry: entry, Err: err})
}

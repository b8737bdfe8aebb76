package lumber

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls logger construction. The yaml-tagged fields can be loaded
// from a file with LoadConfig; the rest are wired programmatically.
type Config struct {
	// Severity is the minimum severity written.
	Severity Severity `yaml:"severity"`

	// ProgName is stamped on every entry.
	ProgName string `yaml:"progname"`

	// Format selects text or JSON rendering for stream output.
	Format LogFormat `yaml:"format"`

	// Template is the text line pattern; empty uses DefaultTemplate.
	Template string `yaml:"template"`

	// TimeFormat renders entry timestamps; empty uses DefaultTimeFormat.
	TimeFormat string `yaml:"time_format"`

	// BufferSize above 1 wraps the output in a BufferedDevice flushing at
	// that many entries. 0 or 1 writes synchronously.
	BufferSize int `yaml:"buffer_size"`

	// FlushInterval bounds how long a buffered entry may wait before the
	// background flusher drains it. Zero uses DefaultFlushInterval.
	FlushInterval time.Duration `yaml:"flush_interval"`

	// Output names a standard stream, "stdout" or "stderr". Ignored when
	// File, Writer, or Device is set.
	Output string `yaml:"output"`

	// File, when set, logs to a rotating file instead of a stream.
	File *FileConfig `yaml:"file"`

	// Attributes seed the logger's persistent context.
	Attributes map[string]any `yaml:"attributes"`

	// Writer, when set, overrides Output as the stream destination.
	Writer io.Writer `yaml:"-"`

	// Device, when set, is used as-is and overrides File, Writer, and
	// Output. Buffering still applies when BufferSize asks for it.
	Device Device `yaml:"-"`

	// Formatters, when set, replaces the default formatter registry.
	Formatters *FormatterRegistry `yaml:"-"`

	// Hooks receive device lifecycle events.
	Hooks *HookRegistry `yaml:"-"`

	// PreFlushHook runs under the buffer lock before each buffer swap.
	PreFlushHook func() `yaml:"-"`

	// WriteErrorHandler receives entries the sink rejected.
	WriteErrorHandler WriteErrorHandler `yaml:"-"`

	// FatalHandler runs after a fatal entry; nil exits the process.
	FatalHandler FatalHandler `yaml:"-"`
}

// DefaultConfig returns a production configuration: INFO and above, text
// format, synchronous writes to stdout.
func DefaultConfig() *Config {
	return &Config{
		Severity:   SeverityInfo,
		Format:     FormatText,
		Template:   DefaultTemplate,
		TimeFormat: DefaultTimeFormat,
		BufferSize: DefaultBufferSize,
		Output:     "stdout",
	}
}

// DevelopmentConfig returns a configuration for local work: DEBUG and
// above with short timestamps on stdout.
func DevelopmentConfig() *Config {
	return &Config{
		Severity:   SeverityDebug,
		Format:     FormatText,
		Template:   DefaultTemplate,
		TimeFormat: DevTimeFormat,
		Output:     "stdout",
	}
}

// JSONConfig returns a configuration emitting one JSON object per entry.
func JSONConfig() *Config {
	return &Config{
		Severity:   SeverityInfo,
		Format:     FormatJSON,
		TimeFormat: time.RFC3339Nano,
		Output:     "stdout",
	}
}

// Validate checks the configuration and returns a ConfigError describing
// the first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return NewConfigError(ErrCodeNilConfig, "configuration cannot be nil")
	}
	if !c.Severity.Valid() {
		return NewConfigError(ErrCodeInvalidSeverity,
			fmt.Sprintf("severity %d", c.Severity))
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return NewConfigError(ErrCodeInvalidFormat,
			fmt.Sprintf("unknown format %d", c.Format))
	}
	if c.BufferSize < 0 {
		return NewConfigError(ErrCodeInvalidBuffer,
			fmt.Sprintf("buffer size %d", c.BufferSize))
	}
	if c.BufferSize > MaxBufferSize {
		return NewConfigError(ErrCodeMaxSizeExceeded,
			fmt.Sprintf("buffer size %d exceeds maximum %d", c.BufferSize, MaxBufferSize))
	}
	if c.FlushInterval < 0 {
		return NewConfigError(ErrCodeInvalidInterval,
			fmt.Sprintf("flush interval %v", c.FlushInterval))
	}
	switch c.Output {
	case "", "stdout", "stderr":
	default:
		return NewConfigError(ErrCodeConfigValidation,
			fmt.Sprintf("unknown output %q", c.Output))
	}
	if c.Template != "" {
		if _, err := NewTemplate(c.Template, c.TimeFormat); err != nil {
			return err
		}
	}
	if c.File != nil {
		if c.File.Path == "" {
			return NewConfigError(ErrCodeEmptyFilePath, "file path cannot be empty")
		}
		if c.File.MaxSizeMB < 0 || c.File.MaxSizeMB > MaxFileSizeMB {
			return NewConfigError(ErrCodeMaxSizeExceeded,
				fmt.Sprintf("max file size %d MB", c.File.MaxSizeMB))
		}
	}
	return nil
}

// ApplyDefaults fills zero-valued fields in place.
func (c *Config) ApplyDefaults() {
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	if c.TimeFormat == "" {
		c.TimeFormat = DefaultTimeFormat
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.Output == "" && c.Writer == nil && c.Device == nil && c.File == nil {
		c.Output = "stdout"
	}
	if c.File != nil {
		if c.File.Format == 0 {
			c.File.Format = c.Format
		}
		if c.File.Template == "" {
			c.File.Template = c.Template
		}
		if c.File.TimeFormat == "" {
			c.File.TimeFormat = c.TimeFormat
		}
		if c.File.Hooks == nil {
			c.File.Hooks = c.Hooks
		}
	}
}

// Clone creates a copy of the configuration. Writer, Device, registries,
// and handlers are shared; File and Attributes are copied.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	clone := *c
	if c.File != nil {
		fileCopy := *c.File
		clone.File = &fileCopy
	}
	if c.Attributes != nil {
		clone.Attributes = make(map[string]any, len(c.Attributes))
		for k, v := range c.Attributes {
			clone.Attributes[k] = v
		}
	}
	return &clone
}

// buildDevice assembles the device chain the logger writes to. Assumes
// Validate and ApplyDefaults have run.
func (c *Config) buildDevice() (Device, error) {
	base := c.Device
	if base == nil {
		var err error
		base, err = c.buildSink()
		if err != nil {
			return nil, err
		}
	}

	if c.BufferSize <= 1 {
		return base, nil
	}
	return NewBufferedDevice(base, BufferedDeviceConfig{
		BufferSize:        c.BufferSize,
		FlushInterval:     c.FlushInterval,
		PreFlushHook:      c.PreFlushHook,
		WriteErrorHandler: c.WriteErrorHandler,
		Hooks:             c.Hooks,
	})
}

func (c *Config) buildSink() (Device, error) {
	if c.File != nil {
		return NewFileDevice(*c.File)
	}

	w := c.Writer
	if w == nil {
		switch c.Output {
		case "stderr":
			w = os.Stderr
		default:
			w = os.Stdout
		}
	}
	template, err := NewTemplate(c.Template, c.TimeFormat)
	if err != nil {
		return nil, err
	}
	return NewWriterDevice(w, c.Format, template)
}

// LoadConfig reads a yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapConfigError(ErrCodeInvalidPath,
			fmt.Sprintf("cannot read configuration file %s", path), err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, WrapConfigError(ErrCodeConfigValidation,
			fmt.Sprintf("cannot parse configuration file %s", path), err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// UnmarshalYAML decodes the configuration, accepting Go duration strings
// like "500ms" for flush_interval.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var aux struct {
		FlushInterval string `yaml:"flush_interval"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	var interval time.Duration
	if aux.FlushInterval != "" {
		d, err := time.ParseDuration(aux.FlushInterval)
		if err != nil {
			return WrapConfigError(ErrCodeInvalidInterval,
				fmt.Sprintf("flush interval %q", aux.FlushInterval), err)
		}
		interval = d
	}
	type plain Config
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	if aux.FlushInterval != "" {
		c.FlushInterval = interval
	}
	return nil
}

// MarshalYAML renders the severity as its lowercase label.
func (s Severity) MarshalYAML() (any, error) {
	return strings.ToLower(s.String()), nil
}

// UnmarshalYAML parses severity labels such as "debug" or "WARN".
func (s *Severity) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseSeverity(node.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML renders the format as "text" or "json".
func (f LogFormat) MarshalYAML() (any, error) {
	if f == FormatJSON {
		return "json", nil
	}
	return "text", nil
}

// UnmarshalYAML parses "text" or "json".
func (f *LogFormat) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "", "text":
		*f = FormatText
	case "json":
		*f = FormatJSON
	default:
		return NewConfigError(ErrCodeInvalidFormat,
			fmt.Sprintf("unknown format %q", node.Value))
	}
	return nil
}

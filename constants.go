package lumber

import "time"

const (
	// DefaultBufferSize is the number of buffered entries that triggers an
	// automatic flush. Values of 0 or 1 make writes synchronous pass-through.
	DefaultBufferSize = 0

	// DefaultFlushInterval is how often the background flusher wakes up.
	// The flusher only performs I/O when entries have been buffered for at
	// least this long since the previous flush.
	DefaultFlushInterval = time.Second

	// MaxBufferSize caps the configurable entry buffer. Beyond this, a
	// misconfigured producer could hold an unbounded number of entries in
	// memory before the first flush.
	MaxBufferSize = 1 << 16
)

const (
	// DefaultTimeFormat is the timestamp layout used by the text template.
	DefaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

	// DevTimeFormat is a compact layout for development output.
	DevTimeFormat = "15:04:05.000"
)

const (
	// DefaultTemplate renders the classic single-line text form of an entry.
	DefaultTemplate = "{time} {severity} {progname} {message} {attributes}"

	// RecursionMarker replaces a value that is already being formatted higher
	// up the current path, so self-referential structures terminate.
	RecursionMarker = "<recursive>"
)

const (
	// MaxFormatDepth bounds recursive attribute formatting independently of
	// cycle detection. Acyclic but pathologically deep structures stop here.
	MaxFormatDepth = 64

	// MaxFileSizeMB caps the configurable rotation threshold.
	MaxFileSizeMB = 10240
)

const (
	// DirPermissions is the permission mode for creating log directories.
	DirPermissions = 0o700
)

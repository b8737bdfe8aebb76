package lumber

import (
	"fmt"
	"strings"
)

// Severity is the ordered level of a log entry.
// Levels compare numerically: SeverityDebug < SeverityInfo < ... < SeverityFatal.
type Severity int32

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
)

// severityLabels maps each severity to its canonical label.
var severityLabels = [...]string{
	SeverityDebug: "DEBUG",
	SeverityInfo:  "INFO",
	SeverityWarn:  "WARN",
	SeverityError: "ERROR",
	SeverityFatal: "FATAL",
}

// String returns the canonical label for the severity ("DEBUG", "INFO", ...).
// Out-of-range values render as "UNKNOWN".
func (s Severity) String() string {
	if s < SeverityDebug || s > SeverityFatal {
		return "UNKNOWN"
	}
	return severityLabels[s]
}

// Valid reports whether the severity is within the defined range.
func (s Severity) Valid() bool {
	return s >= SeverityDebug && s <= SeverityFatal
}

// ParseSeverity converts a label to a Severity. Matching is case-insensitive
// and accepts common aliases ("warning" for WARN).
func ParseSeverity(label string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "DEBUG":
		return SeverityDebug, nil
	case "INFO":
		return SeverityInfo, nil
	case "WARN", "WARNING":
		return SeverityWarn, nil
	case "ERROR":
		return SeverityError, nil
	case "FATAL":
		return SeverityFatal, nil
	default:
		return SeverityInfo, fmt.Errorf("%w: %q", ErrInvalidSeverity, label)
	}
}

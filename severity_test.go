package lumber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "DEBUG"},
		{SeverityInfo, "INFO"},
		{SeverityWarn, "WARN"},
		{SeverityError, "ERROR"},
		{SeverityFatal, "FATAL"},
		{Severity(-1), "UNKNOWN"},
		{Severity(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.severity.String())
	}
}

func TestSeverity_Valid(t *testing.T) {
	assert.True(t, SeverityDebug.Valid())
	assert.True(t, SeverityFatal.Valid())
	assert.False(t, Severity(-1).Valid())
	assert.False(t, Severity(5).Valid())
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		label string
		want  Severity
	}{
		{"debug", SeverityDebug},
		{"DEBUG", SeverityDebug},
		{"Info", SeverityInfo},
		{"warn", SeverityWarn},
		{"warning", SeverityWarn},
		{"error", SeverityError},
		{"fatal", SeverityFatal},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.label)
		require.NoError(t, err, "label %q", tt.label)
		assert.Equal(t, tt.want, got, "label %q", tt.label)
	}
}

func TestParseSeverity_Invalid(t *testing.T) {
	for _, label := range []string{"", "trace", "critical", "123"} {
		_, err := ParseSeverity(label)
		require.Error(t, err, "label %q", label)
		assert.True(t, errors.Is(err, ErrInvalidSeverity))
	}
}

func TestSeverity_YAML(t *testing.T) {
	data, err := yaml.Marshal(SeverityWarn)
	require.NoError(t, err)
	assert.Equal(t, "warn\n", string(data))

	var s Severity
	require.NoError(t, yaml.Unmarshal([]byte("error"), &s))
	assert.Equal(t, SeverityError, s)

	assert.Error(t, yaml.Unmarshal([]byte("verbose"), &s))
}

package lumber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry() *Entry {
	return &Entry{
		Time:     time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
		Severity: SeverityInfo,
		Message:  "service started",
		ProgName: "billing",
		Attributes: map[string]any{
			"env":     "prod",
			"attempt": 2,
		},
		UnitOfWorkID: "u-42",
	}
}

func TestTemplate_RenderDefault(t *testing.T) {
	tpl, err := NewTemplate(DefaultTemplate, "2006-01-02 15:04:05")
	require.NoError(t, err)

	line := tpl.Render(testEntry())
	assert.Equal(t, "2026-05-04 10:30:00 INFO billing service started attempt=2 env=prod", line)
}

func TestTemplate_RenderUnitOfWork(t *testing.T) {
	tpl, err := NewTemplate("{severity} [{unit_of_work_id}] {message}", "")
	require.NoError(t, err)

	assert.Equal(t, "INFO [u-42] service started", tpl.Render(testEntry()))

	entry := testEntry()
	entry.UnitOfWorkID = ""
	assert.Equal(t, "INFO [-] service started", tpl.Render(entry))
}

func TestTemplate_RenderNamedAttribute(t *testing.T) {
	tpl, err := NewTemplate("{message} env={attr:env} missing={attr:nope}", "")
	require.NoError(t, err)

	assert.Equal(t, "service started env=prod missing=", tpl.Render(testEntry()))
}

func TestTemplate_EmptyProgNameDash(t *testing.T) {
	tpl, err := NewTemplate("{progname} {message}", "")
	require.NoError(t, err)

	entry := testEntry()
	entry.ProgName = ""
	assert.Equal(t, "- service started", tpl.Render(entry))
}

func TestTemplate_AttributeQuoting(t *testing.T) {
	tpl, err := NewTemplate("{attributes}", "")
	require.NoError(t, err)

	entry := testEntry()
	entry.Attributes = map[string]any{
		"plain":  "bare",
		"spaced": "two words",
		"eq":     "a=b",
		"empty":  "",
		"flag":   true,
		"ratio":  1.5,
	}

	line := tpl.Render(entry)
	assert.Equal(t, `empty="" eq="a=b" flag=true plain=bare ratio=1.5 spaced="two words"`, line)
}

func TestTemplate_NonStringMessage(t *testing.T) {
	tpl, err := NewTemplate("{message}", "")
	require.NoError(t, err)

	entry := testEntry()
	entry.Message = 404
	assert.Equal(t, "404", tpl.Render(entry))
}

func TestNewTemplate_Errors(t *testing.T) {
	_, err := NewTemplate("", "")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = NewTemplate("{bogus}", "")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = NewTemplate("{message", "")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = NewTemplate("{attr:}", "")
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestTemplate_Pattern(t *testing.T) {
	tpl, err := NewTemplate("{message}", "")
	require.NoError(t, err)
	assert.Equal(t, "{message}", tpl.Pattern())
}

func TestTemplate_ConcurrentRender(t *testing.T) {
	tpl, err := NewTemplate(DefaultTemplate, "")
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = tpl.Render(testEntry())
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

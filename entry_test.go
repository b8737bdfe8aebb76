package lumber

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry_FlattensAttributes(t *testing.T) {
	entry := NewEntry(time.Now(), SeverityInfo, "hello", "app", map[string]any{
		"user": map[string]any{
			"id":   42,
			"name": "alice",
		},
		"simple": true,
	})

	assert.Equal(t, map[string]any{
		"user.id":   42,
		"user.name": "alice",
		"simple":    true,
	}, entry.Attributes)
}

func TestNewEntry_CompactsEmptyLeaves(t *testing.T) {
	entry := NewEntry(time.Now(), SeverityInfo, "m", "", map[string]any{
		"nil":      nil,
		"blank":    "",
		"emptyMap": map[string]any{},
		"emptyArr": []any{},
		"nested": map[string]any{
			"gone": nil,
		},
		"kept": 0,
	})

	assert.Equal(t, map[string]any{"kept": 0}, entry.Attributes)
}

func TestNewEntry_EmptyAttributes(t *testing.T) {
	entry := NewEntry(time.Now(), SeverityInfo, "m", "", nil)
	assert.Nil(t, entry.Attributes)
	assert.Nil(t, entry.AttributeKeys())

	entry = NewEntry(time.Now(), SeverityInfo, "m", "", map[string]any{"a": nil})
	assert.Nil(t, entry.Attributes)
}

func TestEntry_AttributeKeysSorted(t *testing.T) {
	entry := NewEntry(time.Now(), SeverityInfo, "m", "", map[string]any{
		"zebra": 1,
		"apple": 2,
		"mango": 3,
	})
	assert.Equal(t, []string{"apple", "mango", "zebra"}, entry.AttributeKeys())
}

func TestSetFlattened_ScalarReplacesDescendants(t *testing.T) {
	dst := map[string]any{
		"http.method": "GET",
		"http.path":   "/x",
		"other":       1,
	}
	setFlattened(dst, "http", "collapsed")

	assert.Equal(t, map[string]any{
		"http":  "collapsed",
		"other": 1,
	}, dst)
}

func TestSetFlattened_MapReplacesScalar(t *testing.T) {
	dst := map[string]any{"http": "old"}
	setFlattened(dst, "http", map[string]any{"method": "POST"})

	assert.Equal(t, map[string]any{"http.method": "POST"}, dst)
}

func TestFields(t *testing.T) {
	attrs := fieldsToMap([]Field{
		String("name", "alice"),
		Int("count", 3),
		Int64("big", int64(1) << 40),
		Float64("ratio", 0.5),
		Bool("ok", true),
		Map("req", map[string]any{"id": "abc"}),
		Any("raw", struct{}{}),
	})

	require.Equal(t, "alice", attrs["name"])
	require.Equal(t, 3, attrs["count"])
	require.Equal(t, int64(1)<<40, attrs["big"])
	require.Equal(t, 0.5, attrs["ratio"])
	require.Equal(t, true, attrs["ok"])
	require.Equal(t, "abc", attrs["req.id"])
	require.Contains(t, attrs, "raw")
}

func TestField_Err(t *testing.T) {
	cause := errors.New("boom")
	attrs := fieldsToMap([]Field{Err(cause)})
	assert.Equal(t, cause, attrs["error"])

	attrs = fieldsToMap([]Field{Err(nil)})
	assert.NotContains(t, attrs, "error")
}

func TestFieldsToMap_LastWins(t *testing.T) {
	attrs := fieldsToMap([]Field{
		String("k", "first"),
		String("k", "second"),
	})
	assert.Equal(t, map[string]any{"k": "second"}, attrs)
}

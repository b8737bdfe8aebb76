package lumber

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentDeclined struct{ code string }

func (e *paymentDeclined) Error() string { return "payment declined: " + e.code }

func TestEntryFormatter_DefaultPassthrough(t *testing.T) {
	f := NewEntryFormatter(NewFormatterRegistry())

	message, extra := f.FormatMessage("plain")
	assert.Equal(t, "plain", message)
	assert.Nil(t, extra)

	attrs := f.FormatAttributes(map[string]any{"n": 42, "s": "x"})
	assert.Equal(t, map[string]any{"n": 42, "s": "x"}, attrs)
}

func TestEntryFormatter_TypeSpecificityOverInterface(t *testing.T) {
	registry := NewDefaultFormatterRegistry()
	require.NoError(t, registry.Register(&paymentDeclined{},
		func(v any) (FormatResult, error) {
			return Scalar("declined/" + v.(*paymentDeclined).code), nil
		}))
	f := NewEntryFormatter(registry)

	// The exact type handler wins over the error interface handler.
	message, _ := f.FormatMessage(&paymentDeclined{code: "51"})
	assert.Equal(t, "declined/51", message)

	// Other errors still hit the interface handler.
	message, _ = f.FormatMessage(errors.New("io failure"))
	assert.Equal(t, "*errors.errorString: io failure", message)
}

func TestEntryFormatter_SplitMessage(t *testing.T) {
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register(&paymentDeclined{},
		func(v any) (FormatResult, error) {
			e := v.(*paymentDeclined)
			return Split(e.Error(), map[string]any{
				"decline": map[string]any{"code": e.code},
			}), nil
		}))
	f := NewEntryFormatter(registry)

	entry := f.FormatEntry(NewEntry(time.Now(), SeverityError,
		&paymentDeclined{code: "51"}, "app", map[string]any{"order": "o-1"}))

	assert.Equal(t, "payment declined: 51", entry.Message)
	assert.Equal(t, map[string]any{
		"order":        "o-1",
		"decline.code": "51",
	}, entry.Attributes)
}

func TestEntryFormatter_SplitCollapsesInAttributePosition(t *testing.T) {
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register(&paymentDeclined{},
		func(v any) (FormatResult, error) {
			return Split(v.(*paymentDeclined).Error(), map[string]any{"never": "merged"}), nil
		}))
	f := NewEntryFormatter(registry)

	attrs := f.FormatAttributes(map[string]any{
		"cause": &paymentDeclined{code: "05"},
	})

	assert.Equal(t, map[string]any{"cause": "payment declined: 05"}, attrs)
}

func TestEntryFormatter_RemapAttribute(t *testing.T) {
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register(time.Time{},
		func(v any) (FormatResult, error) {
			return Remap("timing.at", v.(time.Time).Format(time.RFC3339)), nil
		}))
	f := NewEntryFormatter(registry)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attrs := f.FormatAttributes(map[string]any{"when": at})

	assert.Equal(t, map[string]any{"timing.at": "2026-03-01T12:00:00Z"}, attrs)
}

func TestEntryFormatter_RemapMessageCrossFiles(t *testing.T) {
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register("",
		func(v any) (FormatResult, error) {
			return Remap("message.copy", v), nil
		}))
	f := NewEntryFormatter(registry)

	message, extra := f.FormatMessage("hello")
	assert.Equal(t, "hello", message)
	assert.Equal(t, map[string]any{"message.copy": "hello"}, extra)
}

func TestEntryFormatter_NameHandlerBeatsTypeHandler(t *testing.T) {
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register("",
		func(v any) (FormatResult, error) { return Scalar("by-type"), nil }))
	require.NoError(t, registry.RegisterName("password",
		func(v any) (FormatResult, error) { return Scalar("[redacted]"), nil }))
	f := NewEntryFormatter(registry)

	attrs := f.FormatAttributes(map[string]any{
		"password": "hunter2",
		"user":     "alice",
	})

	assert.Equal(t, map[string]any{
		"password": "[redacted]",
		"user":     "by-type",
	}, attrs)
}

func TestEntryFormatter_HandlerErrorDegradesValue(t *testing.T) {
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register(0,
		func(v any) (FormatResult, error) {
			return FormatResult{}, errors.New("bad value")
		}))
	f := NewEntryFormatter(registry)

	attrs := f.FormatAttributes(map[string]any{"n": 42, "s": "fine"})

	assert.Equal(t, "<format error on int: bad value>", attrs["n"])
	assert.Equal(t, "fine", attrs["s"])
}

func TestEntryFormatter_HandlerPanicDegradesValue(t *testing.T) {
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register(0,
		func(v any) (FormatResult, error) { panic("boom") }))
	f := NewEntryFormatter(registry)

	attrs := f.FormatAttributes(map[string]any{"n": 1})
	require.IsType(t, "", attrs["n"])
	assert.Contains(t, attrs["n"].(string), "format error on int")
	assert.Contains(t, attrs["n"].(string), "boom")
}

func TestEntryFormatter_CyclicMapTerminates(t *testing.T) {
	cyclic := map[string]any{"name": "node"}
	cyclic["self"] = cyclic
	f := NewEntryFormatter(nil)

	attrs := f.FormatAttributes(map[string]any{"data": cyclic})

	require.IsType(t, map[string]any{}, attrs["data"])
	data := attrs["data"].(map[string]any)
	assert.Equal(t, "node", data["name"])
	assert.Equal(t, RecursionMarker, data["self"])
}

func TestEntryFormatter_CyclicSliceTerminates(t *testing.T) {
	inner := map[string]any{}
	list := []any{inner}
	inner["list"] = list
	f := NewEntryFormatter(nil)

	attrs := f.FormatAttributes(map[string]any{"data": list})

	require.IsType(t, []any{}, attrs["data"])
	out := attrs["data"].([]any)
	require.Len(t, out, 1)
	assert.Equal(t, map[string]any{"list": RecursionMarker}, out[0])
}

func TestEntryFormatter_SharedSubtreeFormatsTwice(t *testing.T) {
	shared := map[string]any{"v": 1}
	f := NewEntryFormatter(nil)

	attrs := f.FormatAttributes(map[string]any{
		"data": map[string]any{"a": shared, "b": shared},
	})

	data := attrs["data"].(map[string]any)
	assert.Equal(t, map[string]any{"v": 1}, data["a"])
	assert.Equal(t, map[string]any{"v": 1}, data["b"])
}

func TestEntryFormatter_DepthLimit(t *testing.T) {
	// Build nesting deeper than the limit out of distinct maps so identity
	// tracking alone cannot stop the recursion.
	leaf := map[string]any{"leaf": true}
	root := leaf
	for i := 0; i < MaxFormatDepth+8; i++ {
		root = map[string]any{"next": root}
	}
	f := NewEntryFormatter(nil)

	attrs := f.FormatAttributes(map[string]any{"deep": root})
	require.NotNil(t, attrs)

	found := false
	node := attrs["deep"]
	for i := 0; i < MaxFormatDepth+16; i++ {
		m, ok := node.(map[string]any)
		if !ok {
			found = node == RecursionMarker
			break
		}
		node = m["next"]
	}
	assert.True(t, found, "expected depth limit marker")
}

func TestEntryFormatter_NestedValuesDispatched(t *testing.T) {
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register(time.Duration(0),
		func(v any) (FormatResult, error) {
			return Scalar(v.(time.Duration).String()), nil
		}))
	f := NewEntryFormatter(registry)

	attrs := f.FormatAttributes(map[string]any{
		"timings": map[string]any{
			"db":    150 * time.Millisecond,
			"total": 2 * time.Second,
		},
		"samples": []any{time.Second, "raw"},
	})

	assert.Equal(t, map[string]any{
		"timings": map[string]any{"db": "150ms", "total": "2s"},
		"samples": []any{"1s", "raw"},
	}, attrs)
}

func TestEntryFormatter_HandlerResultNotRedispatched(t *testing.T) {
	calls := 0
	registry := NewFormatterRegistry()
	require.NoError(t, registry.Register("",
		func(v any) (FormatResult, error) {
			calls++
			return Scalar(v.(string) + "!"), nil
		}))
	f := NewEntryFormatter(registry)

	attrs := f.FormatAttributes(map[string]any{
		"list": []any{"a"},
	})

	assert.Equal(t, []any{"a!"}, attrs["list"])
	assert.Equal(t, 1, calls)
}

func TestEntryFormatter_FormatEntryPreservesMetadata(t *testing.T) {
	f := NewEntryFormatter(nil)
	now := time.Now()
	in := &Entry{
		Time:         now,
		Severity:     SeverityWarn,
		Message:      "m",
		ProgName:     "svc",
		Attributes:   map[string]any{"k": "v"},
		UnitOfWorkID: "u-1",
	}

	out := f.FormatEntry(in)
	require.NotSame(t, in, out)
	assert.Equal(t, now, out.Time)
	assert.Equal(t, SeverityWarn, out.Severity)
	assert.Equal(t, "svc", out.ProgName)
	assert.Equal(t, "u-1", out.UnitOfWorkID)
	assert.Equal(t, map[string]any{"k": "v"}, out.Attributes)

	// Pointer values unwrap to their element before dispatch.
	n := 5
	message, _ := f.FormatMessage(&n)
	_ = fmt.Sprint(message)
}

func TestEntryFormatter_SharedBackingArrayNotACycle(t *testing.T) {
	f := NewEntryFormatter(NewFormatterRegistry())
	s := []any{1, 2}
	s[1] = s[:1]

	out := f.FormatAttributes(map[string]any{"list": s})

	// s[:1] shares s's backing array but holds no reference back to s,
	// so it renders fully instead of degrading to the recursion marker.
	assert.Equal(t, map[string]any{"list": []any{1, []any{1}}}, out)
}

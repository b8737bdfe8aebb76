package lumber

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Template compiles an entry pattern into a renderer. Patterns use brace
// placeholders:
//
//	{time}            entry timestamp, formatted with the template's layout
//	{severity}        severity label
//	{progname}        program name (empty renders as "-")
//	{message}         formatted message
//	{attributes}      all attributes as key=value pairs, sorted by key
//	{unit_of_work_id} correlation id, "-" when absent
//	{attr:name}       a single attribute by flattened name
//
// Unknown placeholders fail compilation eagerly with a ConfigError.
type Template struct {
	pattern    string
	timeFormat string
	segments   []templateSegment
}

type templateSegment struct {
	literal string
	kind    segmentKind
	attr    string
}

type segmentKind int

const (
	segLiteral segmentKind = iota
	segTime
	segSeverity
	segProgName
	segMessage
	segAttributes
	segUnitOfWork
	segAttr
)

// NewTemplate compiles a pattern. An empty timeFormat uses DefaultTimeFormat.
func NewTemplate(pattern, timeFormat string) (*Template, error) {
	if pattern == "" {
		return nil, NewConfigError(ErrCodeInvalidTemplate, "template pattern cannot be empty")
	}
	if timeFormat == "" {
		timeFormat = DefaultTimeFormat
	}

	t := &Template{pattern: pattern, timeFormat: timeFormat}
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return nil, NewConfigError(ErrCodeInvalidTemplate,
				fmt.Sprintf("unterminated placeholder in %q", pattern))
		}
		if open > 0 {
			t.segments = append(t.segments, templateSegment{literal: rest[:open]})
		}
		name := rest[open+1 : open+closing]
		seg, err := compileSegment(name)
		if err != nil {
			return nil, err
		}
		t.segments = append(t.segments, seg)
		rest = rest[open+closing+1:]
	}
	if rest != "" {
		t.segments = append(t.segments, templateSegment{literal: rest})
	}
	return t, nil
}

func compileSegment(name string) (templateSegment, error) {
	switch name {
	case "time":
		return templateSegment{kind: segTime}, nil
	case "severity":
		return templateSegment{kind: segSeverity}, nil
	case "progname":
		return templateSegment{kind: segProgName}, nil
	case "message":
		return templateSegment{kind: segMessage}, nil
	case "attributes":
		return templateSegment{kind: segAttributes}, nil
	case "unit_of_work_id":
		return templateSegment{kind: segUnitOfWork}, nil
	}
	if attr, ok := strings.CutPrefix(name, "attr:"); ok && attr != "" {
		return templateSegment{kind: segAttr, attr: attr}, nil
	}
	return templateSegment{}, NewConfigError(ErrCodeInvalidTemplate,
		fmt.Sprintf("unknown placeholder {%s}", name))
}

// Pattern returns the source pattern the template was compiled from.
func (t *Template) Pattern() string {
	return t.pattern
}

var templateBuilderPool = sync.Pool{
	New: func() any {
		sb := &strings.Builder{}
		sb.Grow(256)
		return sb
	},
}

// Render produces the single-line text form of an entry.
func (t *Template) Render(entry *Entry) string {
	sb := templateBuilderPool.Get().(*strings.Builder)
	sb.Reset()
	defer templateBuilderPool.Put(sb)

	for _, seg := range t.segments {
		switch seg.kind {
		case segLiteral:
			sb.WriteString(seg.literal)
		case segTime:
			sb.WriteString(entry.Time.Format(t.timeFormat))
		case segSeverity:
			sb.WriteString(entry.Severity.String())
		case segProgName:
			writeOrDash(sb, entry.ProgName)
		case segMessage:
			sb.WriteString(stringifyValue(renderMessage(entry.Message)))
		case segAttributes:
			writeAttributes(sb, entry)
		case segUnitOfWork:
			writeOrDash(sb, entry.UnitOfWorkID)
		case segAttr:
			if v, ok := entry.Attributes[seg.attr]; ok {
				writeValue(sb, v)
			}
		}
	}
	return sb.String()
}

func writeOrDash(sb *strings.Builder, s string) {
	if s == "" {
		sb.WriteByte('-')
		return
	}
	sb.WriteString(s)
}

// writeAttributes renders the attribute map as space-joined key=value pairs
// in sorted key order, so output is deterministic across runs.
func writeAttributes(sb *strings.Builder, entry *Entry) {
	keys := entry.AttributeKeys()
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		writeValue(sb, entry.Attributes[k])
	}
}

func writeValue(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case string:
		if needsQuoting(val) {
			sb.WriteString(strconv.Quote(val))
		} else {
			sb.WriteString(val)
		}
	case int:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case nil:
		sb.WriteString("<nil>")
	default:
		s := stringifyValue(val)
		if needsQuoting(s) {
			sb.WriteString(strconv.Quote(s))
		} else {
			sb.WriteString(s)
		}
	}
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func needsQuoting(s string) bool {
	if len(s) == 0 {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c == '"' || c == '\\' || c == '=' {
			return true
		}
	}
	return false
}

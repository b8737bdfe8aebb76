package lumber

// Field is a single call-site attribute. Fields are flattened into the
// entry's attribute map, so a Map field contributes dot-joined keys.
type Field struct {
	Key   string
	Value any
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Map nests a structured sub-map under key; its contents flatten to
// key.child entries.
func Map(key string, value map[string]any) Field {
	return Field{Key: key, Value: value}
}

// Err creates an "error" field. A nil error produces an empty field that is
// compacted out of the entry.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err}
}

// fieldsToMap converts call-site fields into a flattened attribute map.
// Fields apply in order, so a later field wins on key conflict.
func fieldsToMap(fields []Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	flat := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		setFlattened(flat, f.Key, f.Value)
	}
	if len(flat) == 0 {
		return nil
	}
	return flat
}

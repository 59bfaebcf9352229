package domain

import "encoding/json"

// Well-known metadata keys used by the ingestion pipeline.
const (
	MetaDocumentID = "documentId"
	MetaPosition   = "position"
	MetaTitle      = "title"
	MetaSourceType = "sourceType"
	MetaSourcePath = "sourcePath"
)

// Kind enumerates the closed set of metadata value types.
type Kind int

// Metadata value kinds.
const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindMap
)

// Value is a tagged metadata value. Metadata crosses the outermost API
// boundary as an open map; internally it is restricted to this closed set
// so stores and tests can rely on exact round-trips.
type Value struct {
	kind Kind
	s    string
	b    bool
	i    int64
	f    float64
	m    Metadata
}

// String wraps a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Map wraps a nested metadata map.
func Map(m Metadata) Value { return Value{kind: KindMap, m: m} }

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string value and whether the kind matched.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBool returns the boolean value and whether the kind matched.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer value and whether the kind matched.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float value and whether the kind matched.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsMap returns the nested map and whether the kind matched.
func (v Value) AsMap() (Metadata, bool) { return v.m, v.kind == KindMap }

// Any returns the open-form representation of the value.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindMap:
		return v.m.ToMap()
	default:
		return v.s
	}
}

// MarshalJSON encodes the underlying value directly.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes any JSON scalar or object into a tagged value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = fromAny(raw)
	return nil
}

// Metadata is an open key/value bag restricted to the closed Value set.
type Metadata map[string]Value

// FromMap converts an open map (bridge/JSON boundary form) into typed
// metadata. Unsupported value types are stringified via JSON.
func FromMap(m map[string]any) Metadata {
	if m == nil {
		return nil
	}
	md := make(Metadata, len(m))
	for k, raw := range m {
		md[k] = fromAny(raw)
	}
	return md
}

func fromAny(raw any) Value {
	switch val := raw.(type) {
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int64:
		return Int(val)
	case float64:
		// JSON numbers arrive as float64; keep whole numbers integral.
		if val == float64(int64(val)) {
			return Int(int64(val))
		}
		return Float(val)
	case map[string]any:
		return Map(FromMap(val))
	case Metadata:
		return Map(val)
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return String("")
		}
		return String(string(data))
	}
}

// ToMap converts typed metadata back to the open boundary form.
func (m Metadata) ToMap() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Any()
	}
	return out
}

// UnmarshalJSON decodes a JSON object into typed metadata.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = FromMap(raw)
	return nil
}

// Clone returns a shallow copy with nested maps copied recursively.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		if nested, ok := v.AsMap(); ok {
			out[k] = Map(nested.Clone())
			continue
		}
		out[k] = v
	}
	return out
}

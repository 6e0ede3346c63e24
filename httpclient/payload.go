package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Payload is a request body. It is either a Raw mapping, sent as given, or a typed
// value wrapped with Struct. The set is closed: only this package implements it.
type Payload interface {
	normalize() (map[string]any, error)
}

// Raw is an already-normalized request body. Keys are sent exactly as given, including
// keys whose value is nil.
type Raw map[string]any

func (r Raw) normalize() (map[string]any, error) {
	if r == nil {
		return map[string]any{}, nil
	}
	return r, nil
}

// Mapper lets a typed payload control its own wire representation.
type Mapper interface {
	ToPayload() (map[string]any, error)
}

type structPayload struct {
	value any
}

// Struct wraps a typed request. The value is converted with its Mapper implementation
// when present, otherwise through its json tags (which carry the API's PascalCase names).
// Keys whose value ends up null are dropped at every level, so unset pointer fields are
// omitted instead of being sent as null.
func Struct(v any) Payload {
	return structPayload{value: v}
}

var errNilStruct = errors.New("struct payload is nil")

func (s structPayload) normalize() (map[string]any, error) {
	if s.value == nil {
		return nil, errNilStruct
	}

	if m, ok := s.value.(Mapper); ok {
		fields, err := m.ToPayload()
		if err != nil {
			return nil, fmt.Errorf("convert payload: %w", err)
		}
		if fields == nil {
			return map[string]any{}, nil
		}
		return pruneNulls(fields), nil
	}

	raw, err := json.Marshal(s.value)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("payload of type %T must encode to a JSON object: %w", s.value, err)
	}
	if fields == nil {
		return nil, errNilStruct
	}
	return pruneNulls(fields), nil
}

// Normalize resolves p to the mapping that will be sent. A nil payload is an empty object.
func Normalize(p Payload) (map[string]any, error) {
	if p == nil {
		return map[string]any{}, nil
	}
	return p.normalize()
}

// pruneNulls removes nil-valued keys from m and from every object nested in it.
// Null array elements are kept; only object keys are considered unset.
func pruneNulls(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = pruneValue(v)
	}
	return out
}

func pruneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return pruneNulls(t)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = pruneValue(elem)
		}
		return out
	default:
		return v
	}
}

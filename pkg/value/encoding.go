package value

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// wireEnvelope mirrors the wrapped wire encoding: {"type": <variant>,
// "value": <payload>}. It is the lossless, self-describing encoding used
// by default for workflow declarations and persisted events.
type wireEnvelope struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON implements the wrapped encoding.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case KindNull:
		payload = nil
	case KindBool:
		payload = v.boolVal
	case KindNumber:
		payload = v.numberVal
	case KindString:
		payload = v.stringVal
	case KindBytes:
		payload = base64.StdEncoding.EncodeToString(v.bytesVal)
	case KindJSON:
		payload = v.jsonVal
	case KindArray:
		payload = v.arrayVal
	case KindObject:
		payload = v.objectVal
	default:
		return nil, fmt.Errorf("value: unknown kind %q", v.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEnvelope{Type: v.Kind, Value: raw})
}

// UnmarshalJSON implements the wrapped encoding.
func (v *Value) UnmarshalJSON(data []byte) error {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Type {
	case KindNull, "":
		*v = Null
		return nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return err
		}
		*v = NewBool(b)
		return nil
	case KindNumber:
		var n float64
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return err
		}
		*v = NewNumber(n)
		return nil
	case KindString:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return err
		}
		*v = NewString(s)
		return nil
	case KindBytes:
		var encoded string
		if err := json.Unmarshal(env.Value, &encoded); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("value: invalid base64 for Bytes: %w", err)
		}
		*v = NewBytes(decoded)
		return nil
	case KindJSON:
		var j any
		if err := json.Unmarshal(env.Value, &j); err != nil {
			return err
		}
		*v = NewJSON(j)
		return nil
	case KindArray:
		var items []Value
		if err := json.Unmarshal(env.Value, &items); err != nil {
			return err
		}
		*v = NewArray(items)
		return nil
	case KindObject:
		var fields map[string]Value
		if err := json.Unmarshal(env.Value, &fields); err != nil {
			return err
		}
		*v = NewObject(fields)
		return nil
	default:
		return fmt.Errorf("value: unknown wire kind %q", env.Type)
	}
}

// Flatten implements the flat wire encoding: payloads only, no tag. Bytes
// becomes null, since the flat mode has no way to distinguish it from a
// string once serialized. This mode is lossy and is only for boundary
// crossings (e.g. a container's stdin) where the other side has no
// concept of the Value tag.
func (v Value) Flatten() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.boolVal
	case KindNumber:
		return v.numberVal
	case KindString:
		return v.stringVal
	case KindBytes:
		return nil
	case KindJSON:
		return v.jsonVal
	case KindArray:
		out := make([]any, len(v.arrayVal))
		for i, e := range v.arrayVal {
			out[i] = e.Flatten()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.objectVal))
		for k, e := range v.objectVal {
			out[k] = e.Flatten()
		}
		return out
	default:
		return nil
	}
}

// FromFlat is the inverse of Flatten: it reconstructs a Value from a plain
// native Go tree (as produced by encoding/json's default decoding), using
// FromAny's type-driven inference. Since the flat encoding has already
// discarded the Bytes/Json distinction, round-tripping through FromFlat
// can only ever reconstruct Null/Bool/Number/String/Array/Object.
func FromFlat(v any) Value {
	return FromAny(v)
}

package canonical

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Value is a JSON-compatible value with a single canonical byte form.
//
// The set of implementations is closed: Null, Bool, Int, Float, String,
// Array and Object.
type Value interface {
	isValue()
}

type (
	Null   struct{}
	Bool   bool
	Int    int64
	Float  float64
	String string
	Array  []Value
	Object map[string]Value
)

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Int) isValue()    {}
func (Float) isValue()  {}
func (String) isValue() {}
func (Array) isValue()  {}
func (Object) isValue() {}

// Keys returns the object keys in canonical (byte-wise ascending) order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of o.
func (o Object) Clone() Object {
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// FromAny converts encoding/json-shaped data (nil, bool, numbers, string,
// []any, map[string]any) into a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float32:
		return numberFromFloat(float64(t)), nil
	case float64:
		return numberFromFloat(t), nil
	case json.Number:
		return numberFromLiteral(t)
	case string:
		return String(t), nil
	case []string:
		out := make(Array, len(t))
		for i, s := range t {
			out[i] = String(s)
		}
		return out, nil
	case []any:
		out := make(Array, len(t))
		for i, e := range t {
			cv, err := FromAny(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = cv
		}
		return out, nil
	case map[string]any:
		out := make(Object, len(t))
		for k, e := range t {
			cv, err := FromAny(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = cv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

// ToAny converts v into encoding/json-shaped data. Numbers become json.Number
// so integers survive without float rounding.
func ToAny(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case Int:
		return json.Number(formatInt(t))
	case Float:
		s, err := formatFloat(t)
		if err != nil {
			return float64(t)
		}
		return json.Number(s)
	case String:
		return string(t)
	case Array:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToAny(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = ToAny(e)
		}
		return out
	default:
		return nil
	}
}

// numberFromFloat keeps integral values that fit int64 as Int so that 1.0
// and 1 share a canonical form.
func numberFromFloat(f float64) Value {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !math.IsInf(f, 0) {
		return Int(int64(f))
	}
	return Float(f)
}

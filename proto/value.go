package proto

import "slices"

// ValueKind tags the active case of a Value.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
	KindBool
	KindString
	KindEnum
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Value is an explicit tagged union over the types a parameter can
// carry. The zero value is an int 0.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	b    bool
	s    string
	e    Enum
}

func IntValue(v int64) Value     { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }
func BoolValue(v bool) Value     { return Value{kind: KindBool, b: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func EnumValue(e Enum) Value     { return Value{kind: KindEnum, e: e} }

func (v Value) Kind() ValueKind { return v.kind }

// IsNumeric reports whether the active case is int or float.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Str reports the string content. Named to keep the Stringer method
// set clean; the two-value form follows the other accessors.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) Enum() (Enum, bool) {
	return v.e, v.kind == KindEnum
}

// Num returns the numeric content widened to float64. Only meaningful
// for numeric kinds.
func (v Value) Num() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Equal compares two values structurally, including the active case.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindEnum:
		return v.e.Value == o.e.Value && slices.Equal(v.e.Values, o.e.Values)
	default:
		return false
	}
}

// jsonValue returns the plain Go value to hand to encoding/json. Enum
// values encode as their current string; the allowed set is emitted
// separately by the owning parameter.
func (v Value) jsonValue() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindEnum:
		return v.e.Value
	default:
		return nil
	}
}

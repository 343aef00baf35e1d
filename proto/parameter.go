package proto

import (
	"fmt"
	"math"
)

// DataType is the wire-level type discriminant of a parameter.
type DataType string

const (
	TypeNumber DataType = "number"
	TypeBool   DataType = "bool"
	TypeString DataType = "string"
	TypeEnum   DataType = "enum"
)

func knownDataType(t DataType) bool {
	switch t {
	case TypeNumber, TypeBool, TypeString, TypeEnum:
		return true
	}
	return false
}

// Parameter is a named, typed, constrained control or status value
// exposed by a channel. Unit and the numeric bounds apply to number
// parameters only; Min, Max and Precision are all mandatory whenever a
// number parameter is writable.
type Parameter struct {
	Name      string
	DataType  DataType
	Value     Value
	Unit      string // optional, number parameters only
	Min       *Value // numeric kind matching Value
	Max       *Value
	Precision *Value
	ReadOnly  bool
}

// NewStringParameter builds a string parameter.
func NewStringParameter(name, value string, readOnly bool) (Parameter, error) {
	if name == "" {
		return Parameter{}, newError(ConstraintViolation, "name", "parameter name cannot be empty")
	}
	return Parameter{Name: name, DataType: TypeString, Value: StringValue(value), ReadOnly: readOnly}, nil
}

// NewBoolParameter builds a bool parameter.
func NewBoolParameter(name string, value bool, readOnly bool) (Parameter, error) {
	if name == "" {
		return Parameter{}, newError(ConstraintViolation, "name", "parameter name cannot be empty")
	}
	return Parameter{Name: name, DataType: TypeBool, Value: BoolValue(value), ReadOnly: readOnly}, nil
}

// NewEnumParameter builds an enum parameter. The enum must pass its
// own validity predicate.
func NewEnumParameter(name string, value Enum, readOnly bool) (Parameter, error) {
	if name == "" {
		return Parameter{}, newError(ConstraintViolation, "name", "parameter name cannot be empty")
	}
	if !value.IsValid() {
		return Parameter{}, newError(InvalidEnumValue, name, "enum value %q is not in the allowed set", value.Value)
	}
	return Parameter{Name: name, DataType: TypeEnum, Value: EnumValue(value), ReadOnly: readOnly}, nil
}

// NewIntParameter builds an integral number parameter. Writable number
// parameters must carry min, max and precision, and the value must lie
// on the precision grid inside [min, max].
func NewIntParameter(name string, value int64, unit string, readOnly bool, min, max, precision *int64) (Parameter, error) {
	p := Parameter{Name: name, DataType: TypeNumber, Value: IntValue(value), Unit: unit, ReadOnly: readOnly}
	if min != nil {
		v := IntValue(*min)
		p.Min = &v
	}
	if max != nil {
		v := IntValue(*max)
		p.Max = &v
	}
	if precision != nil {
		v := IntValue(*precision)
		p.Precision = &v
	}
	if err := p.checkConstruction(); err != nil {
		return Parameter{}, err
	}
	return p, nil
}

// NewFloatParameter builds a fractional number parameter with the same
// constraint rules as NewIntParameter.
func NewFloatParameter(name string, value float64, unit string, readOnly bool, min, max, precision *float64) (Parameter, error) {
	p := Parameter{Name: name, DataType: TypeNumber, Value: FloatValue(value), Unit: unit, ReadOnly: readOnly}
	if min != nil {
		v := FloatValue(*min)
		p.Min = &v
	}
	if max != nil {
		v := FloatValue(*max)
		p.Max = &v
	}
	if precision != nil {
		v := FloatValue(*precision)
		p.Precision = &v
	}
	if err := p.checkConstruction(); err != nil {
		return Parameter{}, err
	}
	return p, nil
}

// checkConstruction enforces the numeric-constraint invariants at
// construction time. Decoded parameters skip this: the wire is decoded
// leniently and re-checked through Violations.
func (p Parameter) checkConstruction() error {
	if p.Name == "" {
		return newError(ConstraintViolation, "name", "parameter name cannot be empty")
	}
	if p.Min != nil && p.Max != nil && p.Min.Num() > p.Max.Num() {
		return newError(ConstraintViolation, p.Name, "minValue %v exceeds maxValue %v", p.Min.Num(), p.Max.Num())
	}
	if p.Precision != nil && p.Precision.Num() <= 0 {
		return newError(ConstraintViolation, p.Name, "precision must be greater than 0, got %v", p.Precision.Num())
	}
	if !p.ReadOnly {
		if p.Min == nil || p.Max == nil || p.Precision == nil {
			return newError(ConstraintViolation, p.Name, "writable number parameters require minValue, maxValue and precision")
		}
		if !onGrid(p.Value, *p.Min, *p.Precision) {
			return newError(ConstraintViolation, p.Name, "value %v is not a multiple of precision %v from minValue %v", p.Value.Num(), p.Precision.Num(), p.Min.Num())
		}
		if p.Value.Num() < p.Min.Num() || p.Value.Num() > p.Max.Num() {
			return newError(ConstraintViolation, p.Name, "value %v is outside [%v, %v]", p.Value.Num(), p.Min.Num(), p.Max.Num())
		}
	}
	return nil
}

// onGrid reports whether value sits an exact number of precision steps
// above min. Integer parameters get exact arithmetic; fractional ones
// a small tolerance.
func onGrid(value, min, precision Value) bool {
	if value.Kind() == KindInt && min.Kind() == KindInt && precision.Kind() == KindInt {
		vi, _ := value.Int()
		mi, _ := min.Int()
		pi, _ := precision.Int()
		if pi == 0 {
			return false
		}
		return (vi-mi)%pi == 0
	}
	step := precision.Num()
	if step == 0 {
		return false
	}
	rem := math.Abs(math.Mod(value.Num()-min.Num(), step))
	const eps = 1e-9
	return rem < eps || step-rem < eps
}

// Violations re-derives every Parameter invariant from the current
// field values and lists the ones that do not hold. An empty list
// means the parameter is valid. This runs independently of whatever
// the constructors enforced, so it also covers values decoded
// leniently from the wire or mutated after construction.
func (p Parameter) Violations() []string {
	var out []string
	if p.Name == "" {
		out = append(out, "name is empty")
	}
	if !knownDataType(p.DataType) {
		out = append(out, fmt.Sprintf("unknown dataType %q", p.DataType))
		return out
	}
	switch p.DataType {
	case TypeNumber:
		if !p.Value.IsNumeric() {
			out = append(out, fmt.Sprintf("number parameter holds a %s value", p.Value.Kind()))
			return out
		}
		out = append(out, p.numericViolations()...)
	case TypeBool:
		if p.Value.Kind() != KindBool {
			out = append(out, fmt.Sprintf("bool parameter holds a %s value", p.Value.Kind()))
		}
		out = append(out, p.nonNumericViolations()...)
	case TypeString:
		if p.Value.Kind() != KindString {
			out = append(out, fmt.Sprintf("string parameter holds a %s value", p.Value.Kind()))
		}
		out = append(out, p.nonNumericViolations()...)
	case TypeEnum:
		e, ok := p.Value.Enum()
		if !ok {
			out = append(out, fmt.Sprintf("enum parameter holds a %s value", p.Value.Kind()))
		} else if !e.IsValid() {
			out = append(out, fmt.Sprintf("enum value %q is not in the allowed set", e.Value))
		}
		out = append(out, p.nonNumericViolations()...)
	}
	return out
}

func (p Parameter) numericViolations() []string {
	var out []string
	for field, v := range map[string]*Value{"minValue": p.Min, "maxValue": p.Max, "precision": p.Precision} {
		if v != nil && v.Kind() != p.Value.Kind() {
			out = append(out, fmt.Sprintf("%s is %s but value is %s", field, v.Kind(), p.Value.Kind()))
		}
	}
	if len(out) > 0 {
		return out
	}
	if !p.ReadOnly {
		if p.Min == nil || p.Max == nil || p.Precision == nil {
			out = append(out, "writable number parameter is missing minValue, maxValue or precision")
			return out
		}
	}
	if p.Min != nil && p.Max != nil && p.Min.Num() > p.Max.Num() {
		out = append(out, fmt.Sprintf("minValue %v exceeds maxValue %v", p.Min.Num(), p.Max.Num()))
	}
	if p.Precision != nil && p.Precision.Num() <= 0 {
		out = append(out, fmt.Sprintf("precision %v is not positive", p.Precision.Num()))
	}
	if !p.ReadOnly && p.Min != nil && p.Max != nil && p.Precision != nil && p.Precision.Num() > 0 {
		if p.Value.Num() < p.Min.Num() || p.Value.Num() > p.Max.Num() {
			out = append(out, fmt.Sprintf("value %v is outside [%v, %v]", p.Value.Num(), p.Min.Num(), p.Max.Num()))
		}
		if !onGrid(p.Value, *p.Min, *p.Precision) {
			out = append(out, fmt.Sprintf("value %v is not on the precision grid", p.Value.Num()))
		}
	}
	return out
}

// nonNumericViolations flags numeric-only fields on non-number
// parameters.
func (p Parameter) nonNumericViolations() []string {
	var out []string
	if p.Unit != "" {
		out = append(out, "unit is only valid on number parameters")
	}
	if p.Min != nil || p.Max != nil || p.Precision != nil {
		out = append(out, "minValue/maxValue/precision are only valid on number parameters")
	}
	return out
}

// IsValid reports whether the parameter currently satisfies all of its
// invariants.
func (p Parameter) IsValid() bool {
	return len(p.Violations()) == 0
}

// Validate returns nil for a valid parameter or an InvalidState error
// listing every violated invariant.
func (p Parameter) Validate() error {
	violations := p.Violations()
	if len(violations) == 0 {
		return nil
	}
	detail := violations[0]
	for _, v := range violations[1:] {
		detail += "; " + v
	}
	return newError(InvalidState, p.Name, "%s", detail)
}

// DecodeParameter reads one parameter entry from its wire object. The
// parameter name is the key the entry was stored under in the parent
// object. Decoding checks shape (required fields, matching types and
// numeric subtypes) but not the numeric-bound invariants; those remain
// observable through Violations on the decoded value.
func DecodeParameter(name string, obj map[string]any) (Parameter, error) {
	if name == "" {
		return Parameter{}, newError(ConstraintViolation, "name", "parameter name cannot be empty")
	}
	rawType, ok := obj["dataType"]
	if !ok {
		return Parameter{}, newError(MissingField, "dataType", "parameter %q has no dataType", name)
	}
	typeStr, ok := asString(rawType)
	if !ok {
		return Parameter{}, newError(TypeMismatch, "dataType", "parameter %q dataType must be a string", name)
	}
	dataType := DataType(typeStr)
	if !knownDataType(dataType) {
		return Parameter{}, newError(TypeMismatch, "dataType", "parameter %q has unknown dataType %q", name, typeStr)
	}
	rawReadOnly, ok := obj["readOnly"]
	if !ok {
		return Parameter{}, newError(MissingField, "readOnly", "parameter %q has no readOnly flag", name)
	}
	readOnly, ok := asBool(rawReadOnly)
	if !ok {
		return Parameter{}, newError(TypeMismatch, "readOnly", "parameter %q readOnly must be a boolean", name)
	}

	p := Parameter{Name: name, DataType: dataType, ReadOnly: readOnly}
	switch dataType {
	case TypeNumber:
		if err := decodeNumberParameter(&p, name, obj); err != nil {
			return Parameter{}, err
		}
	case TypeEnum:
		if err := decodeEnumParameter(&p, name, obj); err != nil {
			return Parameter{}, err
		}
	case TypeBool:
		raw, ok := obj["value"]
		if !ok {
			return Parameter{}, newError(MissingField, "value", "parameter %q has no value", name)
		}
		b, ok := asBool(raw)
		if !ok {
			return Parameter{}, newError(TypeMismatch, "value", "parameter %q value must be a boolean", name)
		}
		p.Value = BoolValue(b)
	case TypeString:
		raw, ok := obj["value"]
		if !ok {
			return Parameter{}, newError(MissingField, "value", "parameter %q has no value", name)
		}
		s, ok := asString(raw)
		if !ok {
			return Parameter{}, newError(TypeMismatch, "value", "parameter %q value must be a string", name)
		}
		p.Value = StringValue(s)
	}
	return p, nil
}

func decodeNumberParameter(p *Parameter, name string, obj map[string]any) error {
	rawUnit, ok := obj["unit"]
	if !ok {
		return newError(MissingField, "unit", "number parameter %q has no unit", name)
	}
	unit, ok := asString(rawUnit)
	if !ok {
		return newError(TypeMismatch, "unit", "parameter %q unit must be a string", name)
	}
	p.Unit = unit

	raw, ok := obj["value"]
	if !ok {
		return newError(MissingField, "value", "parameter %q has no value", name)
	}
	value, ok := asNumber(raw)
	if !ok {
		return newError(TypeMismatch, "value", "parameter %q value must be a number", name)
	}
	p.Value = value

	for field, dst := range map[string]**Value{"minValue": &p.Min, "maxValue": &p.Max, "precision": &p.Precision} {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		bound, ok := asNumber(raw)
		if !ok {
			return newError(TypeMismatch, field, "parameter %q %s must be a number", name, field)
		}
		if bound.Kind() != value.Kind() {
			return newError(TypeMismatch, field, "parameter %q %s must match the value's numeric subtype (%s)", name, field, value.Kind())
		}
		*dst = &bound
	}
	return nil
}

func decodeEnumParameter(p *Parameter, name string, obj map[string]any) error {
	raw, ok := obj["value"]
	if !ok {
		return newError(MissingField, "value", "parameter %q has no value", name)
	}
	current, ok := asString(raw)
	if !ok {
		return newError(TypeMismatch, "value", "enum parameter %q value must be a string", name)
	}
	rawValues, ok := obj["enumValues"]
	if !ok {
		return newError(MissingField, "enumValues", "enum parameter %q has no enumValues", name)
	}
	list, ok := rawValues.([]any)
	if !ok {
		return newError(TypeMismatch, "enumValues", "enum parameter %q enumValues must be an array", name)
	}
	values := make([]string, 0, len(list))
	for _, entry := range list {
		s, ok := asString(entry)
		if !ok {
			return newError(TypeMismatch, "enumValues", "enum parameter %q enumValues must contain only strings", name)
		}
		values = append(values, s)
	}
	p.Value = EnumValue(Enum{Value: current, Values: values})
	return nil
}

// Encode produces the wire object for this parameter, without its
// name; the name is the key in the parent object (see AppendTo).
// Optional fields are emitted only when present.
func (p Parameter) Encode() (map[string]any, error) {
	if p.Name == "" {
		return nil, newError(InvalidState, "name", "parameter name cannot be empty")
	}
	obj := map[string]any{
		"dataType": string(p.DataType),
		"value":    p.Value.jsonValue(),
		"readOnly": p.ReadOnly,
	}
	if e, ok := p.Value.Enum(); ok {
		obj["enumValues"] = e.Values
	}
	if p.Unit != "" {
		obj["unit"] = p.Unit
	}
	if p.Min != nil {
		obj["minValue"] = p.Min.jsonValue()
	}
	if p.Max != nil {
		obj["maxValue"] = p.Max.jsonValue()
	}
	if p.Precision != nil {
		obj["precision"] = p.Precision.jsonValue()
	}
	return obj, nil
}

// AppendTo encodes the parameter into parent under its name.
func (p Parameter) AppendTo(parent map[string]any) error {
	obj, err := p.Encode()
	if err != nil {
		return err
	}
	parent[p.Name] = obj
	return nil
}

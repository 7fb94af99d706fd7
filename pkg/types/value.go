package types

import (
	"math"
	"strconv"
	"strings"
)

// Precision is the number of decimal places kept when formatting numbers.
const Precision = 6

// Value is an immutable typed literal.
type Value struct {
	typ  Type
	nums []float64
	text string
}

// FloatValue returns a float value.
func FloatValue(f float64) Value { return Value{typ: Float, nums: []float64{f}} }

// IntValue returns an integer value.
func IntValue(i int) Value { return Value{typ: Integer, nums: []float64{float64(i)}} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value {
	if b {
		return Value{typ: Boolean, nums: []float64{1}}
	}
	return Value{typ: Boolean, nums: []float64{0}}
}

// StringValue returns a string value.
func StringValue(s string) Value { return Value{typ: String, text: s} }

// FilenameValue returns a filename value.
func FilenameValue(s string) Value { return Value{typ: Filename, text: s} }

// Vec returns a numeric value of type t from components.
// Missing components are zero and extra components are dropped.
func Vec(t Type, comps ...float64) Value {
	n := t.Arity()
	nums := make([]float64, n)
	copy(nums, comps)
	if t == Integer {
		nums[0] = math.Trunc(nums[0])
	}
	if t == Boolean && nums[0] != 0 {
		nums[0] = 1
	}
	return Value{typ: t, nums: nums}
}

// Type returns the value's type.
func (v Value) Type() Type { return v.typ }

// IsZero reports whether v is the zero Value (no type).
func (v Value) IsZero() bool { return v.typ == "" }

// Components returns a copy of the numeric components.
func (v Value) Components() []float64 {
	out := make([]float64, len(v.nums))
	copy(out, v.nums)
	return out
}

// Component returns component i, or 0 when out of range.
func (v Value) Component(i int) float64 {
	if i < 0 || i >= len(v.nums) {
		return 0
	}
	return v.nums[i]
}

// Scalar returns the first numeric component.
func (v Value) Scalar() float64 { return v.Component(0) }

// Bool returns the boolean interpretation of a scalar value.
func (v Value) Bool() bool { return v.Scalar() != 0 }

// Text returns the text of a string or filename value.
func (v Value) Text() string { return v.text }

// Equal reports whether two values have the same type and textual form.
func (v Value) Equal(o Value) bool {
	return v.typ == o.typ && v.String() == o.String()
}

// String renders the value in the fixed-precision textual form written into
// target documents.
func (v Value) String() string {
	switch {
	case v.typ.IsText():
		return v.text
	case v.typ == Boolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case v.typ == Integer:
		return strconv.FormatInt(int64(v.Scalar()), 10)
	case v.typ.IsNumeric():
		parts := make([]string, len(v.nums))
		for i, f := range v.nums {
			parts[i] = FormatFloat(f)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// FormatFloat formats f with [Precision] decimal places, trimming trailing
// zeros. Negative zero is written as "0".
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	s := strconv.FormatFloat(f, 'f', Precision, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// Default returns the fallback value for t used when a literal is malformed.
// Colors default to black with opaque alpha.
func Default(t Type) Value {
	switch {
	case t == Color4:
		return Vec(Color4, 0, 0, 0, 1)
	case t.IsNumeric():
		return Vec(t)
	case t.IsText():
		return Value{typ: t}
	}
	return Value{}
}

// ParseValue parses the textual form of a value of type t, as produced by
// [Value.String] or found in external documents.
func ParseValue(s string, t Type) (Value, error) {
	switch {
	case t.IsText():
		return Value{typ: t, text: s}, nil
	case t == Boolean:
		switch strings.TrimSpace(strings.ToLower(s)) {
		case "true", "1":
			return BoolValue(true), nil
		case "false", "0":
			return BoolValue(false), nil
		}
		return Default(t), &CoercionError{From: String, To: t, Reason: "not a boolean: " + strconv.Quote(s)}
	case t.IsNumeric():
		fields := strings.Split(s, ",")
		nums := make([]float64, 0, len(fields))
		for _, f := range fields {
			n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return Default(t), &CoercionError{From: String, To: t, Reason: "not a number: " + strconv.Quote(f)}
			}
			nums = append(nums, n)
		}
		from := WithArity(len(nums), t.IsColor())
		if from == "" {
			return Default(t), &CoercionError{From: String, To: t, Reason: "too many components"}
		}
		return Coerce(Value{typ: from, nums: nums}, t)
	}
	return Value{}, &CoercionError{From: String, To: t, Reason: "type has no literal form"}
}

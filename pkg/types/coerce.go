package types

import (
	"fmt"
	"math"
	"strconv"
)

// CoercionError reports a literal that could not be converted and was
// replaced by the target type's default.
type CoercionError struct {
	From   Type
	To     Type
	Reason string
}

func (e *CoercionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("cannot coerce to %s: %s", e.To, e.Reason)
	}
	return fmt.Sprintf("cannot coerce %s to %s: %s", e.From, e.To, e.Reason)
}

// Coerce converts v to type to.
//
// The returned value is always usable. A non-nil error means the conversion
// was not defined for the input, and the result is [Default] of the target
// type. The rules are:
//   - a scalar broadcasts to every component of a vector or color
//   - narrowing keeps the leading components
//   - widening pads with 0, except the 4th channel of a color which gets 1
//   - boolean converts to and from scalars via 0 and 1
//   - numbers become string or filename text in the fixed-precision format
//   - string and filename convert to each other unchanged
func Coerce(v Value, to Type) (Value, error) {
	from := v.typ
	switch {
	case v.IsZero():
		return Default(to), &CoercionError{To: to, Reason: "missing value"}
	case from.IsNumeric() && !v.finite():
		return Default(to), &CoercionError{From: from, To: to, Reason: "not a finite number"}
	case to == Integer && from.IsNumeric() && !fitsInt64(v.Scalar()):
		return Default(to), &CoercionError{From: from, To: to, Reason: "out of integer range: " + FormatFloat(v.Scalar())}
	case from == to:
		return v, nil
	case from.IsShader() || to.IsShader():
		return Default(to), &CoercionError{From: from, To: to, Reason: "shader types do not convert"}
	case to.IsText():
		if from.IsText() {
			return Value{typ: to, text: v.text}, nil
		}
		return Value{typ: to, text: v.String()}, nil
	case from.IsText():
		return Default(to), &CoercionError{From: from, To: to, Reason: "text does not convert to numbers"}
	case !to.IsNumeric() || !from.IsNumeric():
		return Default(to), &CoercionError{From: from, To: to, Reason: "unknown type"}
	}

	n := to.Arity()
	out := make([]float64, n)
	switch {
	case from.IsScalar():
		for i := range out {
			out[i] = v.Scalar()
		}
	default:
		for i := range out {
			switch {
			case i < len(v.nums):
				out[i] = v.nums[i]
			case to.IsColor() && i == 3:
				out[i] = 1
			}
		}
	}
	return Vec(to, out...), nil
}

func (v Value) finite() bool {
	for _, f := range v.nums {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// fitsInt64 reports whether f truncates to a representable int64.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

// MustCoerce is like [Coerce] but discards the degradation error.
func MustCoerce(v Value, to Type) Value {
	out, _ := Coerce(v, to)
	return out
}

// AreCompatible reports whether a value of type a can be converted to type b
// by [Coerce]. It never panics, including for unknown types.
func AreCompatible(a, b Type) bool {
	switch {
	case a == b:
		return a != ""
	case a.IsShader() || b.IsShader():
		return false
	case a.IsNumeric() && b.IsNumeric():
		return true
	case a.IsNumeric() && b.IsText():
		return true
	case a.IsText() && b.IsText():
		return true
	}
	return false
}

// FromRaw normalizes a decoded literal (from JSON, TOML or YAML) into a
// value of the declared type. Numbers, booleans, numeric strings and arrays
// of numbers are accepted. Malformed input degrades to [Default] with an
// error describing what was wrong.
func FromRaw(raw any, declared Type) (Value, error) {
	if !declared.Valid() {
		return Value{}, &CoercionError{To: declared, Reason: "unknown type"}
	}
	switch x := raw.(type) {
	case nil:
		return Default(declared), &CoercionError{To: declared, Reason: "missing value"}
	case Value:
		return Coerce(x, declared)
	case bool:
		return Coerce(BoolValue(x), declared)
	case float64:
		return Coerce(FloatValue(x), declared)
	case float32:
		return Coerce(FloatValue(float64(x)), declared)
	case int:
		return Coerce(IntValue(x), declared)
	case int64:
		return Coerce(FloatValue(float64(x)), declared)
	case string:
		if declared.IsText() {
			return Value{typ: declared, text: x}, nil
		}
		return ParseValue(x, declared)
	case []float64:
		return fromComponents(x, declared)
	case []any:
		nums := make([]float64, 0, len(x))
		for i, e := range x {
			f, ok := toFloat(e)
			if !ok {
				return Default(declared), &CoercionError{To: declared, Reason: "component " + strconv.Itoa(i) + " is not a number"}
			}
			nums = append(nums, f)
		}
		return fromComponents(nums, declared)
	}
	return Default(declared), &CoercionError{To: declared, Reason: fmt.Sprintf("unsupported literal %T", raw)}
}

func fromComponents(nums []float64, declared Type) (Value, error) {
	if len(nums) == 0 {
		return Default(declared), &CoercionError{To: declared, Reason: "empty component list"}
	}
	from := WithArity(len(nums), declared.IsColor())
	if from == "" {
		return Default(declared), &CoercionError{To: declared, Reason: "too many components"}
	}
	return Coerce(Value{typ: from, nums: nums}, declared)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		return float64(x), !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

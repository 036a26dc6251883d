// Package dbtype defines the scalar value and attribute-type vocabulary
// shared by the storage, codec and query layers.
package dbtype

import (
	"fmt"
	"strconv"
)

// Kind tags a Value's runtime representation and doubles as the
// single-character type tag used by the on-disk codec.
type Kind byte

const (
	KindNone     Kind = 'N'
	KindBool     Kind = 'B'
	KindInt      Kind = 'I'
	KindFloat    Kind = 'F'
	KindText     Kind = 'V'
	KindDatetime Kind = 'D'
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "varchar"
	case KindDatetime:
		return "datetime"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether two values of this kind compare by magnitude
// rather than by text. Bool, Int, Float and Datetime are all numeric;
// Datetime values are carried in the same int64 slot as Int.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindBool, KindInt, KindFloat, KindDatetime:
		return true
	default:
		return false
	}
}

// Value is the tagged union of scalar values a row field can hold.
// Datetime values reuse the I field, tagged KindDatetime so the codec can
// round-trip the attribute's declared type.
type Value struct {
	Kind Kind
	B    bool
	I    int64
	F    float64
	S    string
}

func None() Value { return Value{Kind: KindNone} }

func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }

func Int(i int64) Value { return Value{Kind: KindInt, I: i} }

func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }

func Text(s string) Value { return Value{Kind: KindText, S: s} }

func Datetime(epoch int64) Value { return Value{Kind: KindDatetime, I: epoch} }

// IsNone reports whether this value represents SQL NULL.
func (v Value) IsNone() bool { return v.Kind == KindNone }

// AsFloat64 returns the value's magnitude as a float64, for numeric
// comparisons. Only meaningful when v.Kind.IsNumeric().
func (v Value) AsFloat64() float64 {
	switch v.Kind {
	case KindBool:
		if v.B {
			return 1
		}
		return 0
	case KindInt, KindDatetime:
		return float64(v.I)
	case KindFloat:
		return v.F
	default:
		return 0
	}
}

// String renders the value's content without its type tag, matching the
// original engine's Helpers::valToString payload (the tag is appended
// separately by the codec).
func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return ""
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindInt, KindDatetime:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindText:
		return v.S
	default:
		return ""
	}
}

// ParseValue reconstructs a Value from its textual payload and kind tag,
// the inverse of String combined with Kind.
func ParseValue(payload string, kind Kind) (Value, error) {
	switch kind {
	case KindNone:
		return None(), nil
	case KindBool:
		return Bool(payload == "true"), nil
	case KindInt:
		i, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("dbtype: parse int %q: %w", payload, err)
		}
		return Int(i), nil
	case KindDatetime:
		i, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("dbtype: parse datetime %q: %w", payload, err)
		}
		return Datetime(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return Value{}, fmt.Errorf("dbtype: parse float %q: %w", payload, err)
		}
		return Float(f), nil
	case KindText:
		return Text(payload), nil
	default:
		return Value{}, fmt.Errorf("dbtype: unknown kind tag %q", byte(kind))
	}
}

// Compare orders two values following the cross-type comparison rule: if
// either operand is text, both sides stringify and compare lexicographically;
// otherwise the comparison is numeric. Returns <0, 0, >0 like strings.Compare.
func Compare(a, b Value) int {
	if a.Kind == KindText || b.Kind == KindText {
		as, bs := a.String(), b.String()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	af, bf := a.AsFloat64(), b.AsFloat64()
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

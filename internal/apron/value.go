package apron

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// valueKind discriminates the Value union. The zero kind is "no value" so
// that Value's zero value is NoValue().
type valueKind uint8

const (
	kindNoValue valueKind = iota
	kindBool
	kindString
	kindUInt8
	kindUInt16
	kindUInt32
	kindUInt64
)

// Value is an immutable, typed attribute value: one of NoValue, Bool,
// String, or an unsigned integer of a specific width. Width matters for
// equality and for re-encoding, so Uint8Value(3) != Uint16Value(3).
//
// Value is comparable; use == in tests and lookups.
type Value struct {
	kind valueKind
	b    bool
	u    uint64
	s    string
}

// NoValue returns the absent value. Write-only attributes report it in
// both table columns, and it is the zero Value.
func NoValue() Value { return Value{} }

// BoolValue returns a BOOL Value.
func BoolValue(v bool) Value { return Value{kind: kindBool, b: v} }

// StringValue returns a STRING Value.
func StringValue(v string) Value { return Value{kind: kindString, s: v} }

// Uint8Value returns a UINT8 Value.
func Uint8Value(v uint8) Value { return Value{kind: kindUInt8, u: uint64(v)} }

// Uint16Value returns a UINT16 Value.
func Uint16Value(v uint16) Value { return Value{kind: kindUInt16, u: uint64(v)} }

// Uint32Value returns a UINT32 Value.
func Uint32Value(v uint32) Value { return Value{kind: kindUInt32, u: uint64(v)} }

// Uint64Value returns a UINT64 Value.
func Uint64Value(v uint64) Value { return Value{kind: kindUInt64, u: v} }

// uintValue builds the Value matching a numeric Type. The caller has
// already range-checked v against the type's width.
func uintValue(t Type, v uint64) Value {
	switch t {
	case TypeUInt8:
		return Uint8Value(uint8(v))
	case TypeUInt16:
		return Uint16Value(uint16(v))
	case TypeUInt32:
		return Uint32Value(uint32(v))
	default:
		return Uint64Value(v)
	}
}

// IsNoValue reports whether v is the absent value.
func (v Value) IsNoValue() bool { return v.kind == kindNoValue }

// Type returns the attribute type this value inhabits. The second return
// is false for NoValue, which belongs to every type.
func (v Value) Type() (Type, bool) {
	switch v.kind {
	case kindBool:
		return TypeBool, true
	case kindString:
		return TypeString, true
	case kindUInt8:
		return TypeUInt8, true
	case kindUInt16:
		return TypeUInt16, true
	case kindUInt32:
		return TypeUInt32, true
	case kindUInt64:
		return TypeUInt64, true
	default:
		return "", false
	}
}

// Or returns v unless it is NoValue, in which case it returns other.
// Status payloads use it to prefer a pending setting over the confirmed
// value.
func (v Value) Or(other Value) Value {
	if v.kind == kindNoValue {
		return other
	}
	return v
}

// Text returns the display form: "" for NoValue, TRUE/FALSE for booleans,
// decimal for integers, and the raw string otherwise. Total; pairs with
// ParseText for every concrete value.
func (v Value) Text() string {
	switch v.kind {
	case kindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case kindString:
		return v.s
	case kindUInt8, kindUInt16, kindUInt32, kindUInt64:
		return strconv.FormatUint(v.u, 10)
	default:
		return ""
	}
}

// String implements fmt.Stringer as the display form.
func (v Value) String() string { return v.Text() }

// CommandArg returns the encoding passed to aprontest -v. It is Text()
// except that NoValue errors: nothing may be sent to the hub without a
// concrete value.
func (v Value) CommandArg() (string, error) {
	if v.kind == kindNoValue {
		return "", ErrNoValue
	}
	return v.Text(), nil
}

// Float64 returns a numeric rendering for telemetry: integers as-is,
// booleans as 0/1. The second return is false for strings and NoValue.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case kindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case kindUInt8, kindUInt16, kindUInt32, kindUInt64:
		return float64(v.u), true
	default:
		return 0, false
	}
}

// MarshalJSON renders NoValue as null, booleans as JSON booleans, integers
// as JSON numbers, and strings as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindBool:
		return strconv.AppendBool(nil, v.b), nil
	case kindString:
		return json.Marshal(v.s)
	case kindUInt8, kindUInt16, kindUInt32, kindUInt64:
		return strconv.AppendUint(nil, v.u, 10), nil
	default:
		return []byte("null"), nil
	}
}

// JSONText returns the JSON rendering as a string ("null" for NoValue).
func (v Value) JSONText() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "null"
	}
	return string(b)
}

// ─── Decoding ───────────────────────────────────────────────────────────────

// ParseText decodes command payload text against a declared type. The
// decode is deliberately lenient: input is trimmed, and booleans accept
// the usual switch vocabulary (true/1/yes/on, false/0/no/off) in any case.
func ParseText(t Type, s string) (Value, error) {
	trimmed := strings.TrimSpace(s)

	switch t {
	case TypeString:
		return StringValue(trimmed), nil

	case TypeBool:
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes", "on":
			return BoolValue(true), nil
		case "false", "0", "no", "off":
			return BoolValue(false), nil
		default:
			return NoValue(), fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, s)
		}

	case TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64:
		n, err := strconv.ParseUint(trimmed, 10, t.bits())
		if err != nil {
			return NoValue(), fmt.Errorf("%w: %q as %s", ErrInvalidValue, s, t)
		}
		return uintValue(t, n), nil

	default:
		return NoValue(), fmt.Errorf("%w: unhandled type %q", ErrInvalidValue, t)
	}
}

// ParseJSON decodes one JSON value against a declared type.
//
// A STRING attribute accepts any JSON: a JSON string decodes to its
// contents, anything else becomes its compact JSON text. Numeric
// attributes accept only JSON integers that fit the declared width, and
// BOOL accepts only JSON booleans.
func ParseJSON(t Type, raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)

	switch t {
	case TypeString:
		if len(trimmed) > 0 && trimmed[0] == '"' {
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return NoValue(), fmt.Errorf("%w: %s as %s", ErrInvalidValue, raw, t)
			}
			return StringValue(s), nil
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return NoValue(), fmt.Errorf("%w: %s as %s", ErrInvalidValue, raw, t)
		}
		return StringValue(buf.String()), nil

	case TypeBool:
		switch string(trimmed) {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		default:
			return NoValue(), fmt.Errorf("%w: %s as %s", ErrInvalidValue, raw, t)
		}

	case TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64:
		n, err := strconv.ParseUint(string(trimmed), 10, t.bits())
		if err != nil {
			return NoValue(), fmt.Errorf("%w: %s as %s", ErrInvalidValue, raw, t)
		}
		return uintValue(t, n), nil

	default:
		return NoValue(), fmt.Errorf("%w: unhandled type %q", ErrInvalidValue, t)
	}
}

// ParseTableValue decodes a GET or SET column field against a declared
// type. Unlike ParseText this decode is strict: the hub's own output
// formats booleans as exactly TRUE or FALSE. An empty field means the
// column has no value.
func ParseTableValue(t Type, field string) (Value, error) {
	if field == "" {
		return NoValue(), nil
	}

	switch t {
	case TypeString:
		return StringValue(field), nil

	case TypeBool:
		switch field {
		case "TRUE":
			return BoolValue(true), nil
		case "FALSE":
			return BoolValue(false), nil
		default:
			return NoValue(), fmt.Errorf("%w: %q as %s", ErrInvalidValue, field, t)
		}

	case TypeUInt8, TypeUInt16, TypeUInt32, TypeUInt64:
		n, err := strconv.ParseUint(field, 10, t.bits())
		if err != nil {
			return NoValue(), fmt.Errorf("%w: %q as %s", ErrInvalidValue, field, t)
		}
		return uintValue(t, n), nil

	default:
		return NoValue(), fmt.Errorf("%w: unhandled type %q", ErrInvalidValue, t)
	}
}

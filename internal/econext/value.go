package econext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindNone valueKind = iota
	kindNumber
	kindText
)

// maxExactInt is the largest float64 magnitude rendered as a plain integer.
const maxExactInt = 1 << 53

// Value is a parameter value as reported by the controller: a number, a
// string, or nothing. The zero Value is "no value".
type Value struct {
	kind valueKind
	num  float64
	str  string
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: kindNumber, num: f}
}

// Text returns a string Value.
func Text(s string) Value {
	return Value{kind: kindText, str: s}
}

// Present reports whether v holds a number or a string.
func (v Value) Present() bool {
	return v.kind != kindNone
}

// IsNumber reports whether v was reported as a JSON number or boolean.
func (v Value) IsNumber() bool {
	return v.kind == kindNumber
}

// Float returns the numeric view of v. Strings that parse as a number are
// accepted; anything else reports false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, true
	case kindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns v as an integer when its numeric view is integral.
func (v Value) Int() (int64, bool) {
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, false
	}
	return int64(f), true
}

// String returns the wire form: integral numbers without a fractional part
// ("25"), other numbers in shortest form ("0.3"), strings verbatim and ""
// for no value.
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return formatNumber(v.num)
	case kindText:
		return v.str
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same value. Numbers compare
// numerically; a number never equals a string.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindNumber:
		return v.num == o.num
	case kindText:
		return v.str == o.str
	default:
		return true
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < maxExactInt {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// UnmarshalJSON accepts numbers, strings, booleans (as 1/0) and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Value{}
	case bytes.Equal(data, []byte("true")):
		*v = Number(1)
	case bytes.Equal(data, []byte("false")):
		*v = Number(0)
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("econext: unsupported value %s", data)
		}
		*v = Number(f)
	}
	return nil
}

// MarshalJSON renders numbers as JSON numbers, strings as strings and no
// value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(formatNumber(v.num)), nil
	case kindText:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// ParseValue converts user input (MQTT payload, CLI argument, API body) to a
// Value: numeric text becomes a number, anything else stays text.
func ParseValue(s string) Value {
	trimmed := strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	return Text(s)
}

package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags the content of a cell.
type Kind int

const (
	// Absent is an empty cell. It is never confused with a numeric zero.
	Absent Kind = iota
	Number
	Text
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the content of a single cell.
type Value struct {
	kind Kind
	num  decimal.Decimal
	text string
}

// Empty returns an absent cell value.
func Empty() Value {
	return Value{kind: Absent}
}

// NumberValue returns a numeric cell value.
func NumberValue(d decimal.Decimal) Value {
	return Value{kind: Number, num: d, text: d.String()}
}

// TextValue returns a text cell value. Blank text is absent.
func TextValue(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Empty()
	}
	return Value{kind: Text, text: s}
}

// Parse interprets a raw cell string the way the workbook stores it: blank is
// absent, anything decimal-shaped is a number, the rest is text.
func Parse(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty()
	}
	if d, err := decimal.NewFromString(trimmed); err == nil {
		return Value{kind: Number, num: d, text: raw}
	}
	return Value{kind: Text, text: raw}
}

// Of converts a Go value into a cell value. It accepts nil, strings,
// decimals, and the integer and float kinds.
func Of(v any) Value {
	switch val := v.(type) {
	case nil:
		return Empty()
	case Value:
		return val
	case string:
		return TextValue(val)
	case decimal.Decimal:
		return NumberValue(val)
	case int:
		return NumberValue(decimal.NewFromInt(int64(val)))
	case int64:
		return NumberValue(decimal.NewFromInt(val))
	case float64:
		return NumberValue(decimal.NewFromFloat(val))
	default:
		return TextValue(fmt.Sprint(val))
	}
}

func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the cell is empty.
func (v Value) IsAbsent() bool { return v.kind == Absent }

// IsZero reports whether the cell holds the number zero. Absent cells are not zero.
func (v Value) IsZero() bool { return v.kind == Number && v.num.IsZero() }

// Decimal returns the numeric content; ok is false for absent and text cells.
func (v Value) Decimal() (decimal.Decimal, bool) {
	if v.kind != Number {
		return decimal.Zero, false
	}
	return v.num, true
}

// String returns the cell as displayed text; absent cells are "".
func (v Value) String() string {
	switch v.kind {
	case Number:
		return v.num.String()
	case Text:
		return v.text
	default:
		return ""
	}
}

// Int returns the cell as an integer code. Numeric text such as "1080" is
// accepted because hand-maintained headers mix both.
func (v Value) Int() (int, error) {
	switch v.kind {
	case Number:
		if !v.num.Equal(v.num.Truncate(0)) {
			return 0, fmt.Errorf("value %s is not an integer", v.num)
		}
		return int(v.num.IntPart()), nil
	case Text:
		n, err := strconv.Atoi(strings.TrimSpace(v.text))
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", v.text)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cell is empty")
	}
}

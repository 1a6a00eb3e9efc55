package flowgraph

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Record is anything whose fields a naming context can read by name.
type Record interface {
	FieldValue(name string) (any, bool)
}

type nameKind int

const (
	nameUnset nameKind = iota
	nameField
	nameDerive
	nameLiteral
)

// Name says how a node name is computed from a record: read a field, derive
// it with a function, or use a fixed literal.
type Name[R Record] struct {
	kind    nameKind
	field   string
	derive  func(R) string
	literal string
}

// Field names a node after a record field.
func Field[R Record](name string) Name[R] {
	return Name[R]{kind: nameField, field: name}
}

// Derive names a node with fn applied to the whole record.
func Derive[R Record](fn func(R) string) Name[R] {
	return Name[R]{kind: nameDerive, derive: fn}
}

// Literal names every node the same.
func Literal[R Record](s string) Name[R] {
	return Name[R]{kind: nameLiteral, literal: s}
}

func (n Name[R]) resolve(r R) (string, error) {
	switch n.kind {
	case nameField:
		v, ok := r.FieldValue(n.field)
		if !ok {
			return "", fmt.Errorf("unknown field %q", n.field)
		}
		return toString(v), nil
	case nameDerive:
		if n.derive == nil {
			return "", errors.New("nil naming function")
		}
		return n.derive(r), nil
	case nameLiteral:
		return n.literal, nil
	default:
		return "", errors.New("naming is not configured")
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Amount says how the value of a link is computed from a record.
type Amount[R Record] struct {
	field string
	fn    func(R) decimal.Decimal
}

// AmountField reads the link value from a numeric record field.
func AmountField[R Record](name string) Amount[R] {
	return Amount[R]{field: name}
}

// AmountFunc computes the link value with fn.
func AmountFunc[R Record](fn func(R) decimal.Decimal) Amount[R] {
	return Amount[R]{fn: fn}
}

func (a Amount[R]) resolve(r R) (decimal.Decimal, error) {
	if a.fn != nil {
		return a.fn(r), nil
	}
	if a.field == "" {
		return decimal.Zero, errors.New("value is not configured")
	}

	v, ok := r.FieldValue(a.field)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown field %q", a.field)
	}
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case float64:
		return decimal.NewFromFloat(val), nil
	default:
		return decimal.Zero, fmt.Errorf("field %q is not numeric (%T)", a.field, v)
	}
}

// Route is an alternate source and target pair.
type Route[R Record] struct {
	Source Name[R]
	Target Name[R]
}

// Context configures how one record collection becomes links. Negative values
// are sent to Carryover when it is set.
type Context[R Record] struct {
	Source    Name[R]
	Target    Name[R]
	Value     Amount[R]
	Carryover *Route[R]
}

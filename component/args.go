package component

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args holds the guest-supplied arguments of a method call.
//
// Values are nil, bool, float64 or string; anything else is an opaque
// guest value that methods may only pass along.
type Args []any

// ArgError reports a bad method argument. It matches ErrInvalidArgument.
type ArgError struct {
	N   int // 1-based
	Msg string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("bad argument #%d (%s)", e.N, e.Msg)
}

func (e *ArgError) Is(target error) bool { return target == ErrInvalidArgument }

// TypeName returns the guest type name of v.
func TypeName(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	case interface{ TypeName() string }:
		return v.TypeName()
	default:
		return "userdata"
	}
}

func typeError(i int, want string, v any) error {
	return &ArgError{N: i + 1, Msg: fmt.Sprintf("%s expected, got %s", want, TypeName(v))}
}

// Get returns argument i, or nil if there is none.
func (a Args) Get(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

func toNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// CheckNumber returns argument i as a number.
func (a Args) CheckNumber(i int) (float64, error) {
	v := a.Get(i)
	f, ok := toNumber(v)
	if !ok {
		return 0, typeError(i, "number", v)
	}
	return f, nil
}

// CheckInt returns argument i as an integer. Numbers with a fractional part
// are rejected.
func (a Args) CheckInt(i int) (int, error) {
	f, err := a.CheckNumber(i)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, &ArgError{N: i + 1, Msg: "number has no integer representation"}
	}
	return int(f), nil
}

// OptInt returns argument i as an integer, or def if it is absent.
func (a Args) OptInt(i int, def int) (int, error) {
	if a.Get(i) == nil {
		return def, nil
	}
	return a.CheckInt(i)
}

// CheckString returns argument i as a string. Numbers are converted.
func (a Args) CheckString(i int) (string, error) {
	switch v := a.Get(i).(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'g', 14, 64), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", typeError(i, "string", v)
	}
}

// OptString returns argument i if it is a string, and def otherwise.
func (a Args) OptString(i int, def string) string {
	if s, ok := a.Get(i).(string); ok {
		return s
	}
	return def
}

// OptBool returns argument i if it is a boolean, and def otherwise.
func (a Args) OptBool(i int, def bool) bool {
	if b, ok := a.Get(i).(bool); ok {
		return b
	}
	return def
}

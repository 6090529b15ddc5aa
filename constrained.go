package typesafe

import (
	"fmt"
	"math"
	"strconv"
)

// PrimitiveClass is a constrained primitive class: a named integer, float or
// string type carrying a constraint descriptor.
type PrimitiveClass interface {
	Named
	// NewValue runs the class pipeline over v and returns the constrained value.
	NewValue(v any) (any, error)
	// Zero returns the value produced by the no-argument constructor.
	Zero() any
	// BaseKind is KindInt, KindFloat or KindStr.
	BaseKind() Kind
	// Parent returns the class this one was derived from, or nil for a base.
	Parent() PrimitiveClass
}

// Constrained is implemented by IntValue, FloatValue and StrValue.
type Constrained interface {
	Primitive() any
	PrimitiveClass() PrimitiveClass
}

// Ptr returns a pointer to v; handy for optional Min/Max bounds.
func Ptr[T any](v T) *T { return &v }

// derivesFrom reports whether sub is sup or was derived from it.
func derivesFrom(sub, sup PrimitiveClass) bool {
	for c := sub; c != nil; c = c.Parent() {
		if c == sup {
			return true
		}
	}
	return false
}

func constraintError(code, class, format string, args ...any) *Error {
	return &Error{Code: code, Class: class, Message: fmt.Sprintf(format, args...)}
}

// formatFloat renders floats the way interchange readers expect: integral
// values keep a trailing ".0".
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.Abs(f) >= 1e16 || (f != 0 && math.Abs(f) < 1e-4) {
		s = strconv.FormatFloat(f, 'g', -1, 64)
	}
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			return s
		}
	}
	return s + ".0"
}

package typesafe

import (
	"math"
	"strconv"
	"strings"
)

// IntConstraint configures a bounded integer class.
type IntConstraint struct {
	Min, Max    *int64
	AllowNone   bool // nil constructs Default
	AllowBool   bool
	AllowString bool // decimal strings are parsed
	StrictType  bool // only integer inputs, no strings or booleans
	Clamp       bool // saturate out-of-range values instead of failing
	Default     int64
}

// IntClass is a bounded integer class. Values are IntValue.
type IntClass struct {
	module, name string
	parent       *IntClass
	c            IntConstraint
}

// SafeInt is the unbounded base integer class.
var SafeInt = &IntClass{module: "typesafe", name: "SafeInt", c: IntConstraint{AllowNone: true, AllowString: true}}

// NewIntClass declares a bounded integer class derived from SafeInt.
func NewIntClass(module, name string, c IntConstraint) *IntClass {
	return &IntClass{module: module, name: name, parent: SafeInt, c: c}
}

// Derive declares a subclass starting from c's constraint; fn may adjust it.
func (c *IntClass) Derive(module, name string, fn func(*IntConstraint)) *IntClass {
	cons := c.c
	if fn != nil {
		fn(&cons)
	}
	return &IntClass{module: module, name: name, parent: c, c: cons}
}

func (c *IntClass) Kind() Kind                { return KindSafeInt }
func (c *IntClass) String() string            { return c.name }
func (c *IntClass) Module() string            { return c.module }
func (c *IntClass) Name() string              { return c.name }
func (c *IntClass) QualName() string          { return qualName(c.module, c.name) }
func (c *IntClass) BaseKind() Kind            { return KindInt }
func (c *IntClass) Constraint() IntConstraint { return c.c }
func (c *IntClass) Zero() any                 { return c.zero() }

func (c *IntClass) NewValue(v any) (any, error) { return c.New(v) }

func (c *IntClass) Parent() PrimitiveClass {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

func (c *IntClass) zero() IntValue {
	v, err := c.New(c.c.Default)
	if err != nil {
		return IntValue{cls: c, v: c.c.Default}
	}
	return v
}

// New runs the construction pipeline: source-type checks, string parsing,
// then the range check (or clamping).
func (c *IntClass) New(v any) (IntValue, error) {
	n, err := c.coerce(v)
	if err != nil {
		return IntValue{}, err
	}
	return c.finish(n)
}

// MustNew is like New but panics on error.
func (c *IntClass) MustNew(v any) IntValue {
	out, err := c.New(v)
	if err != nil {
		panic(err)
	}
	return out
}

func (c *IntClass) coerce(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		if !c.c.AllowNone {
			return 0, constraintError(CodeTypeConstraint, c.name, "%s does not allow None values", c.name)
		}
		return c.c.Default, nil
	case bool:
		if !c.c.AllowBool || c.c.StrictType {
			return 0, constraintError(CodeTypeConstraint, c.name, "%s does not allow boolean values", c.name)
		}
		if t {
			return 1, nil
		}
		return 0, nil
	case IntValue:
		return t.v, nil
	case string:
		if c.c.StrictType || !c.c.AllowString {
			return 0, constraintError(CodeTypeConstraint, c.name, "%s requires int type, got string", c.name)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			e := constraintError(CodeValueConstraint, c.name, "Cannot convert '%s' to integer", t)
			e.Cause = err
			return 0, e
		}
		return n, nil
	case StrValue:
		return c.coerce(t.v)
	}
	if n, ok := toInt64(v); ok {
		return n, nil
	}
	return 0, constraintError(CodeTypeConstraint, c.name, "%s requires an integer value, got %s", c.name, valueTypeName(v))
}

func (c *IntClass) finish(n int64) (IntValue, error) {
	if c.c.Min != nil && n < *c.c.Min {
		if !c.c.Clamp {
			e := constraintError(CodeValueConstraint, c.name, "%s must be >= %d, got %d", c.name, *c.c.Min, n)
			e.Params = map[string]any{"min": *c.c.Min, "got": n}
			return IntValue{}, e
		}
		n = *c.c.Min
	}
	if c.c.Max != nil && n > *c.c.Max {
		if !c.c.Clamp {
			e := constraintError(CodeValueConstraint, c.name, "%s must be <= %d, got %d", c.name, *c.c.Max, n)
			e.Params = map[string]any{"max": *c.c.Max, "got": n}
			return IntValue{}, e
		}
		n = *c.c.Max
	}
	return IntValue{cls: c, v: n}, nil
}

// IntValue is an immutable bounded integer. Equality (==) covers both the
// class and the value.
type IntValue struct {
	cls *IntClass
	v   int64
}

func (x IntValue) class() *IntClass {
	if x.cls == nil {
		return SafeInt
	}
	return x.cls
}

func (x IntValue) Class() *IntClass               { return x.class() }
func (x IntValue) Int64() int64                   { return x.v }
func (x IntValue) Primitive() any                 { return x.v }
func (x IntValue) PrimitiveClass() PrimitiveClass { return x.class() }
func (x IntValue) String() string                 { return strconv.FormatInt(x.v, 10) }

// Equal compares against another IntValue of the same class or a raw integer.
func (x IntValue) Equal(o any) bool {
	if ov, ok := o.(IntValue); ok {
		return ov.class() == x.class() && ov.v == x.v
	}
	if _, isBool := o.(bool); isBool {
		return false
	}
	n, ok := toInt64(o)
	return ok && n == x.v
}

func (x IntValue) operand(op string, o any) (int64, error) {
	switch t := o.(type) {
	case IntValue:
		return t.v, nil
	case bool:
		return 0, constraintError(CodeTypeConstraint, x.class().name, "unsupported operand for %s.%s: bool", x.class().name, op)
	}
	if n, ok := toInt64(o); ok {
		return n, nil
	}
	return 0, constraintError(CodeTypeConstraint, x.class().name, "unsupported operand for %s.%s: %s", x.class().name, op, valueTypeName(o))
}

func (x IntValue) overflow(op string, b int64) error {
	e := constraintError(CodeValueConstraint, x.class().name, "%s overflow in %d %s %d", x.class().name, x.v, op, b)
	e.Op = op
	return e
}

// Add returns x+o as the same class when the result satisfies its constraint.
func (x IntValue) Add(o any) (IntValue, error) {
	b, err := x.operand("add", o)
	if err != nil {
		return IntValue{}, err
	}
	r := x.v + b
	if (b > 0 && r < x.v) || (b < 0 && r > x.v) {
		return IntValue{}, x.overflow("+", b)
	}
	return x.class().finish(r)
}

// Sub returns x-o as the same class when the result satisfies its constraint.
func (x IntValue) Sub(o any) (IntValue, error) {
	b, err := x.operand("sub", o)
	if err != nil {
		return IntValue{}, err
	}
	r := x.v - b
	if (b > 0 && r > x.v) || (b < 0 && r < x.v) {
		return IntValue{}, x.overflow("-", b)
	}
	return x.class().finish(r)
}

// Mul returns x*o as the same class when the result satisfies its constraint.
func (x IntValue) Mul(o any) (IntValue, error) {
	b, err := x.operand("mul", o)
	if err != nil {
		return IntValue{}, err
	}
	if x.v != 0 && b != 0 {
		r := x.v * b
		if r/b != x.v || (x.v == -1 && b == math.MinInt64) || (b == -1 && x.v == math.MinInt64) {
			return IntValue{}, x.overflow("*", b)
		}
		return x.class().finish(r)
	}
	return x.class().finish(0)
}

// FloorDiv returns floor(x/o) as the same class.
func (x IntValue) FloorDiv(o any) (IntValue, error) {
	b, err := x.operand("floordiv", o)
	if err != nil {
		return IntValue{}, err
	}
	if b == 0 {
		return IntValue{}, constraintError(CodeValueConstraint, x.class().name, "integer division by zero")
	}
	if x.v == math.MinInt64 && b == -1 {
		return IntValue{}, x.overflow("//", b)
	}
	q := x.v / b
	if x.v%b != 0 && (x.v < 0) != (b < 0) {
		q--
	}
	return x.class().finish(q)
}

// Mod returns x mod o with the sign of o, as the same class.
func (x IntValue) Mod(o any) (IntValue, error) {
	b, err := x.operand("mod", o)
	if err != nil {
		return IntValue{}, err
	}
	if b == 0 {
		return IntValue{}, constraintError(CodeValueConstraint, x.class().name, "integer modulo by zero")
	}
	if b == -1 {
		return x.class().finish(0)
	}
	r := x.v % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return x.class().finish(r)
}

// Div is true division; the result is a SafeFloat.
func (x IntValue) Div(o any) (FloatValue, error) {
	b, err := x.operand("div", o)
	if err != nil {
		return FloatValue{}, err
	}
	if b == 0 {
		return FloatValue{}, constraintError(CodeValueConstraint, x.class().name, "division by zero")
	}
	return SafeFloat.New(float64(x.v) / float64(b))
}

// Neg returns -x as the same class.
func (x IntValue) Neg() (IntValue, error) {
	if x.v == math.MinInt64 {
		return IntValue{}, x.overflow("neg", 0)
	}
	return x.class().finish(-x.v)
}

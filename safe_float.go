package typesafe

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FloatConstraint configures a bounded float class.
type FloatConstraint struct {
	Min, Max *float64
	// DecimalPlaces > 0 rounds inputs (half away from zero) and bounds
	// exact-decimal division.
	DecimalPlaces int
	// RoundOutput also rounds arithmetic results to DecimalPlaces.
	RoundOutput bool
	// UseDecimal computes arithmetic in exact decimal before rounding.
	UseDecimal  bool
	Epsilon     float64 // tolerance used by Equal; |a-b| <= Epsilon is equal
	Clamp       bool
	AllowInt    bool
	AllowBool   bool
	AllowInf    bool
	AllowNaN    bool
	AllowString bool
	AllowNone   bool
	StrictType  bool // forbids booleans and non-numeric input
	Default     float64
}

// FloatClass is a bounded float class. Values are FloatValue.
type FloatClass struct {
	module, name string
	parent       *FloatClass
	c            FloatConstraint
}

// SafeFloat is the base float class.
var SafeFloat = &FloatClass{module: "typesafe", name: "SafeFloat", c: FloatConstraint{
	Epsilon:     1e-9,
	AllowInt:    true,
	AllowString: true,
	AllowNone:   true,
}}

// NewFloatClass declares a bounded float class derived from SafeFloat.
func NewFloatClass(module, name string, c FloatConstraint) *FloatClass {
	return &FloatClass{module: module, name: name, parent: SafeFloat, c: c}
}

// Derive declares a subclass starting from c's constraint; fn may adjust it.
func (c *FloatClass) Derive(module, name string, fn func(*FloatConstraint)) *FloatClass {
	cons := c.c
	if fn != nil {
		fn(&cons)
	}
	return &FloatClass{module: module, name: name, parent: c, c: cons}
}

func (c *FloatClass) Kind() Kind                  { return KindSafeFloat }
func (c *FloatClass) String() string              { return c.name }
func (c *FloatClass) Module() string              { return c.module }
func (c *FloatClass) Name() string                { return c.name }
func (c *FloatClass) QualName() string            { return qualName(c.module, c.name) }
func (c *FloatClass) BaseKind() Kind              { return KindFloat }
func (c *FloatClass) Constraint() FloatConstraint { return c.c }
func (c *FloatClass) Zero() any                   { return c.zero() }

func (c *FloatClass) NewValue(v any) (any, error) { return c.New(v) }

func (c *FloatClass) Parent() PrimitiveClass {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

func (c *FloatClass) zero() FloatValue {
	v, err := c.New(c.c.Default)
	if err != nil {
		return FloatValue{cls: c, v: c.c.Default}
	}
	return v
}

// New coerces v, rounds it to DecimalPlaces and enforces the range.
func (c *FloatClass) New(v any) (FloatValue, error) {
	f, err := c.coerce(v)
	if err != nil {
		return FloatValue{}, err
	}
	return c.finish(f, true)
}

// MustNew is like New but panics on error.
func (c *FloatClass) MustNew(v any) FloatValue {
	out, err := c.New(v)
	if err != nil {
		panic(err)
	}
	return out
}

func (c *FloatClass) coerce(v any) (float64, error) {
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
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case FloatValue:
		return t.v, nil
	case IntValue:
		return c.coerce(t.v)
	case decimal.Decimal:
		return t.InexactFloat64(), nil
	case string:
		if c.c.StrictType || !c.c.AllowString {
			return 0, constraintError(CodeTypeConstraint, c.name, "%s requires a float value, got string", c.name)
		}
		return c.parse(t)
	case StrValue:
		return c.coerce(t.v)
	}
	if n, ok := toInt64(v); ok {
		if !c.c.AllowInt {
			return 0, constraintError(CodeTypeConstraint, c.name, "%s requires a float value, got int", c.name)
		}
		return float64(n), nil
	}
	return 0, constraintError(CodeTypeConstraint, c.name, "%s requires a float value, got %s", c.name, valueTypeName(v))
}

func (c *FloatClass) parse(s string) (float64, error) {
	raw := strings.TrimSpace(s)
	if c.c.UseDecimal {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d.InexactFloat64(), nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e := constraintError(CodeValueConstraint, c.name, "Cannot convert '%s' to float", s)
		e.Cause = err
		return 0, e
	}
	return f, nil
}

// finish rounds f when round is set, then range-checks or clamps it.
func (c *FloatClass) finish(f float64, round bool) (FloatValue, error) {
	if math.IsNaN(f) {
		if !c.c.AllowNaN {
			return FloatValue{}, constraintError(CodeValueConstraint, c.name, "%s does not allow NaN values", c.name)
		}
		return FloatValue{cls: c, v: f}, nil
	}
	if math.IsInf(f, 0) {
		if !c.c.AllowInf {
			return FloatValue{}, constraintError(CodeValueConstraint, c.name, "%s does not allow infinite values", c.name)
		}
		return FloatValue{cls: c, v: f}, nil
	}
	if round {
		f = c.round(f)
	}
	if c.c.Min != nil && f < *c.c.Min {
		if !c.c.Clamp {
			e := constraintError(CodeValueConstraint, c.name, "%s must be >= %s, got %s", c.name, formatFloat(*c.c.Min), formatFloat(f))
			e.Params = map[string]any{"min": *c.c.Min, "got": f}
			return FloatValue{}, e
		}
		f = *c.c.Min
	}
	if c.c.Max != nil && f > *c.c.Max {
		if !c.c.Clamp {
			e := constraintError(CodeValueConstraint, c.name, "%s must be <= %s, got %s", c.name, formatFloat(*c.c.Max), formatFloat(f))
			e.Params = map[string]any{"max": *c.c.Max, "got": f}
			return FloatValue{}, e
		}
		f = *c.c.Max
	}
	return FloatValue{cls: c, v: f}, nil
}

func (c *FloatClass) round(f float64) float64 {
	if c.c.DecimalPlaces <= 0 {
		return f
	}
	return decimal.NewFromFloat(f).Round(int32(c.c.DecimalPlaces)).InexactFloat64()
}

// FloatValue is an immutable bounded float. Use Equal for epsilon
// comparison; == compares class and exact bits.
type FloatValue struct {
	cls *FloatClass
	v   float64
}

func (x FloatValue) class() *FloatClass {
	if x.cls == nil {
		return SafeFloat
	}
	return x.cls
}

func (x FloatValue) Class() *FloatClass             { return x.class() }
func (x FloatValue) Float64() float64               { return x.v }
func (x FloatValue) Primitive() any                 { return x.v }
func (x FloatValue) PrimitiveClass() PrimitiveClass { return x.class() }
func (x FloatValue) String() string                 { return formatFloat(x.v) }

// Decimal returns the value as an exact decimal.
func (x FloatValue) Decimal() decimal.Decimal { return decimal.NewFromFloat(x.v) }

// Equal reports |x-o| <= epsilon. A FloatValue of another class is never equal.
func (x FloatValue) Equal(o any) bool {
	var f float64
	switch t := o.(type) {
	case FloatValue:
		if t.class() != x.class() {
			return false
		}
		f = t.v
	case IntValue:
		f = float64(t.v)
	case bool:
		return false
	case float64:
		f = t
	case float32:
		f = float64(t)
	default:
		n, ok := toInt64(o)
		if !ok {
			return false
		}
		f = float64(n)
	}
	if math.IsNaN(x.v) || math.IsNaN(f) {
		return false
	}
	if x.v == f {
		return true
	}
	return math.Abs(x.v-f) <= x.class().c.Epsilon
}

func (x FloatValue) operand(op string, o any) (float64, error) {
	switch t := o.(type) {
	case FloatValue:
		return t.v, nil
	case IntValue:
		return float64(t.v), nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case decimal.Decimal:
		return t.InexactFloat64(), nil
	case bool:
		return 0, constraintError(CodeTypeConstraint, x.class().name, "unsupported operand for %s.%s: bool", x.class().name, op)
	}
	if n, ok := toInt64(o); ok {
		return float64(n), nil
	}
	return 0, constraintError(CodeTypeConstraint, x.class().name, "unsupported operand for %s.%s: %s", x.class().name, op, valueTypeName(o))
}

type floatOp int

const (
	opAdd floatOp = iota
	opSub
	opMul
	opDiv
)

var floatOpNames = [...]string{"add", "sub", "mul", "div"}

func (x FloatValue) arith(op floatOp, o any) (FloatValue, error) {
	cls := x.class()
	b, err := x.operand(floatOpNames[op], o)
	if err != nil {
		return FloatValue{}, err
	}
	if op == opDiv && b == 0 {
		e := constraintError(CodeValueConstraint, cls.name, "%s division by zero", cls.name)
		e.Op = "div"
		return FloatValue{}, e
	}
	finite := !math.IsNaN(x.v) && !math.IsInf(x.v, 0) && !math.IsNaN(b) && !math.IsInf(b, 0)
	var r float64
	if cls.c.UseDecimal && finite {
		da, db := decimal.NewFromFloat(x.v), decimal.NewFromFloat(b)
		var d decimal.Decimal
		switch op {
		case opAdd:
			d = da.Add(db)
		case opSub:
			d = da.Sub(db)
		case opMul:
			d = da.Mul(db)
		case opDiv:
			if cls.c.DecimalPlaces > 0 {
				d = da.DivRound(db, int32(cls.c.DecimalPlaces))
			} else {
				d = da.Div(db)
			}
		}
		r = d.InexactFloat64()
	} else {
		switch op {
		case opAdd:
			r = x.v + b
		case opSub:
			r = x.v - b
		case opMul:
			r = x.v * b
		case opDiv:
			r = x.v / b
		}
	}
	out, err := cls.finish(r, cls.c.RoundOutput)
	if err != nil {
		if e, ok := AsError(err); ok {
			e.Op = floatOpNames[op]
		}
		return FloatValue{}, err
	}
	return out, nil
}

// Add returns x+o as the same class, rounded then range-checked or clamped.
func (x FloatValue) Add(o any) (FloatValue, error) { return x.arith(opAdd, o) }

// Sub returns x-o as the same class. A result outside the range fails even
// though the caller may still hold the old value.
func (x FloatValue) Sub(o any) (FloatValue, error) { return x.arith(opSub, o) }

// Mul returns x*o as the same class.
func (x FloatValue) Mul(o any) (FloatValue, error) { return x.arith(opMul, o) }

// Div returns x/o as the same class; division by zero fails.
func (x FloatValue) Div(o any) (FloatValue, error) { return x.arith(opDiv, o) }

// Neg returns -x as the same class.
func (x FloatValue) Neg() (FloatValue, error) { return x.class().finish(-x.v, false) }

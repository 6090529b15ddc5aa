package typesafe

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Validator is attached to Annotated types and runs after the inner type matched.
type Validator interface {
	Validate(value any, field string, target Type) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(value any, field string, target Type) error

func (f ValidatorFunc) Validate(value any, field string, target Type) error {
	return f(value, field, target)
}

type namedValidator interface{ String() string }

func validatorName(v Validator) string {
	if n, ok := v.(namedValidator); ok {
		return n.String()
	}
	return fmt.Sprintf("%T", v)
}

func validatorError(field, format string, args ...any) error {
	return &Error{Code: CodeValueConstraint, Field: field, Message: fmt.Sprintf(format, args...)}
}

// MinLength requires len(value) >= n for strings and collections.
type MinLength int

func (m MinLength) Validate(value any, field string, _ Type) error {
	n, ok := lengthOf(value)
	if !ok {
		return validatorError(field, "%s: value of type %s has no length", field, valueTypeName(value))
	}
	if n < int(m) {
		return validatorError(field, "%s: length must be >= %d, got %d", field, int(m), n)
	}
	return nil
}

func (m MinLength) String() string { return fmt.Sprintf("MinLength(%d)", int(m)) }

// MaxLength requires len(value) <= n for strings and collections.
type MaxLength int

func (m MaxLength) Validate(value any, field string, _ Type) error {
	n, ok := lengthOf(value)
	if !ok {
		return validatorError(field, "%s: value of type %s has no length", field, valueTypeName(value))
	}
	if n > int(m) {
		return validatorError(field, "%s: length must be <= %d, got %d", field, int(m), n)
	}
	return nil
}

func (m MaxLength) String() string { return fmt.Sprintf("MaxLength(%d)", int(m)) }

// Between requires a numeric value within [Min, Max].
type Between struct{ Min, Max float64 }

func (b Between) Validate(value any, field string, _ Type) error {
	f, ok := numberOf(value)
	if !ok {
		return validatorError(field, "%s: value of type %s is not numeric", field, valueTypeName(value))
	}
	if f < b.Min || f > b.Max {
		return validatorError(field, "%s: value must be between %v and %v, got %v", field, b.Min, b.Max, f)
	}
	return nil
}

func (b Between) String() string { return fmt.Sprintf("Between(%v, %v)", b.Min, b.Max) }

// Pattern requires a string value to match the expression.
type Pattern struct{ Re *regexp.Regexp }

func (p Pattern) Validate(value any, field string, _ Type) error {
	s, ok := stringOf(value)
	if !ok {
		return validatorError(field, "%s: value of type %s is not a string", field, valueTypeName(value))
	}
	if !p.Re.MatchString(s) {
		return validatorError(field, "%s: value %q does not match %s", field, s, p.Re.String())
	}
	return nil
}

func (p Pattern) String() string { return "Pattern(" + p.Re.String() + ")" }

// ExprValidator evaluates a boolean expr-lang expression with `value`,
// `field` and `type` in scope, e.g. `value > 0 && value % 2 == 0`.
type ExprValidator struct {
	Source  string
	program *vm.Program
}

// NewExprValidator compiles the expression once.
func NewExprValidator(src string) (*ExprValidator, error) {
	prog, err := expr.Compile(src, expr.AsBool())
	if err != nil {
		return nil, &Error{Code: CodeValueConstraint, Message: fmt.Sprintf("invalid validator expression %q: %v", src, err), Cause: err}
	}
	return &ExprValidator{Source: src, program: prog}, nil
}

// MustExprValidator is like NewExprValidator but panics on error.
func MustExprValidator(src string) *ExprValidator {
	v, err := NewExprValidator(src)
	if err != nil {
		panic(err)
	}
	return v
}

func (e *ExprValidator) Validate(value any, field string, target Type) error {
	env := map[string]any{
		"value": exprValue(value),
		"field": field,
		"type":  typeName(target),
	}
	out, err := expr.Run(e.program, env)
	if err != nil {
		return &Error{Code: CodeValueConstraint, Field: field, Message: fmt.Sprintf("%s: evaluating %q: %v", field, e.Source, err), Cause: err}
	}
	if ok, _ := out.(bool); !ok {
		return validatorError(field, "%s: value %v does not satisfy %q", field, exprValue(value), e.Source)
	}
	return nil
}

func (e *ExprValidator) String() string { return "Expr(" + e.Source + ")" }

// exprValue exposes constrained primitives and collections as plain Go values.
func exprValue(v any) any {
	switch t := v.(type) {
	case Constrained:
		return t.Primitive()
	case EnumMember:
		return t.Name()
	case *List:
		return t.Items()
	case *Set:
		return t.Items()
	case Tuple:
		return t.Items()
	case *Dict:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			out[fmt.Sprint(exprValue(k))] = exprValue(t.MustGet(k))
		}
		return out
	}
	return v
}

func lengthOf(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t), true
	case StrValue:
		return t.Len(), true
	case []byte:
		return len(t), true
	case *List:
		return t.Len(), true
	case *Set:
		return t.Len(), true
	case *Dict:
		return t.Len(), true
	case Tuple:
		return t.Len(), true
	}
	return 0, false
}

func stringOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case StrValue:
		return t.String(), true
	}
	return "", false
}

func numberOf(v any) (float64, bool) {
	switch t := v.(type) {
	case IntValue:
		return float64(t.Int64()), true
	case FloatValue:
		return t.Float64(), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	if f, ok := toFloat64(v); ok {
		return f, true
	}
	return 0, false
}

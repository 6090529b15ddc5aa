package typesafe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/typesafe/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeFieldType        = "FieldTypeError"
	CodeValueConstraint  = "ValueConstraintError"
	CodeTypeConstraint   = "TypeConstraintError"
	CodeElementType      = "ElementTypeError"
	CodeUnknownField     = "UnknownFieldError"
	CodeClassReference   = "ClassReferenceError"
	CodeCycle            = "CycleError"
	CodeImmutableDefault = "ImmutableDefaultError"
	// Interchange decoding (tree input)
	CodeParseError   = "ParseError"
	CodeDuplicateKey = "DuplicateKeyError"
	CodeLimit        = "LimitError"
)

// Error is the single error type surfaced by the framework.
type Error struct {
	Code     string // One of the codes listed above.
	Path     string // JSON Pointer within an interchange tree (for example: /items/2/price); empty when not applicable.
	Class    string // Owning class or collection name.
	Field    string // Field name, when the error concerns a record field.
	Op       string // Operation name for collections and arithmetic (append, set, add, ...).
	Expected string // Declared/expected type.
	Actual   string // Offending value's type.
	Message  string
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
	Cause  error
}

// Error renders "<kind title>: <message>" followed by the path when known.
func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(i18n.T(e.Code, nil))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Path != "" && e.Path != "/" {
		fmt.Fprintf(b, " (at %s)", e.Path)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code so errors.Is(err, &Error{Code: CodeCycle}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return t.Code == e.Code
}

// AsError extracts *Error from an error using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// withField fills class/field context on a framework error that does not have it yet.
// Non-framework errors are wrapped as FieldTypeError.
func withField(err error, class, field string) error {
	if err == nil {
		return nil
	}
	e, ok := AsError(err)
	if !ok {
		return &Error{Code: CodeFieldType, Class: class, Field: field, Message: err.Error(), Cause: err}
	}
	cp := *e
	if cp.Class == "" {
		cp.Class = class
	}
	if cp.Field == "" {
		cp.Field = field
	}
	return &cp
}

// withPath stamps the JSON Pointer on an error that has none yet. Paths
// recorded deeper in the tree are already absolute and are kept.
func withPath(err error, p PathRef) error {
	e, ok := AsError(err)
	if !ok {
		return err
	}
	if e.Path != "" && e.Path != "/" {
		return err
	}
	cp := *e
	cp.Path = p.Pointer()
	return &cp
}

func fieldTypeError(class, field string, expected Type, v any) *Error {
	return &Error{
		Code:     CodeFieldType,
		Class:    class,
		Field:    field,
		Expected: typeName(expected),
		Actual:   valueTypeName(v),
		Message: fmt.Sprintf("invalid type for attribute '%s' on %s: expected '%s' but got '%s'",
			field, class, typeName(expected), valueTypeName(v)),
	}
}

func elementTypeError(collection, op string, expected Type, v any, detail string) *Error {
	msg := fmt.Sprintf("in %s.%s: expected '%s' but got '%s'", collection, op, typeName(expected), valueTypeName(v))
	if detail != "" {
		msg += ": " + detail
	}
	return &Error{
		Code:     CodeElementType,
		Class:    collection,
		Op:       op,
		Expected: typeName(expected),
		Actual:   valueTypeName(v),
		Message:  msg,
	}
}

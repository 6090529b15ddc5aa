package typesafe

import (
	"fmt"
	"strings"
)

// Tuple is an immutable fixed-arity sequence with one declared type per
// position. Replace a tuple by assigning a new one to the enclosing field.
type Tuple struct {
	types []Type
	items []any
}

// NewTuple builds a tuple for t (a TupleOf type). Construction fails on the
// wrong arity or on the first position whose value does not match.
func NewTuple(t Type, items ...any) (Tuple, error) {
	tt, ok := deref(t).(*TupleType)
	if !ok {
		return Tuple{}, &Error{Code: CodeElementType, Expected: "Tuple", Actual: typeName(t),
			Message: fmt.Sprintf("NewTuple requires a Tuple type, got '%s'", typeName(t))}
	}
	name := tt.String()
	if len(items) != len(tt.Elems) {
		e := elementTypeError(name, "init", tt, items, fmt.Sprintf("expected %d elements, got %d", len(tt.Elems), len(items)))
		e.Actual = fmt.Sprintf("tuple of %d", len(items))
		return Tuple{}, e
	}
	out := Tuple{types: tt.Elems, items: make([]any, len(items))}
	for i, it := range items {
		cv, err := checkElement(name, fmt.Sprintf("init[%d]", i), tt.Elems[i], it)
		if err != nil {
			return Tuple{}, err
		}
		out.items[i] = cv
	}
	return out, nil
}

// MustTuple is like NewTuple but panics on error.
func MustTuple(t Type, items ...any) Tuple {
	out, err := NewTuple(t, items...)
	if err != nil {
		panic(err)
	}
	return out
}

func (t Tuple) Len() int { return len(t.items) }

// Get returns the element at position i.
func (t Tuple) Get(i int) any { return t.items[i] }

// Items returns a copy of the elements.
func (t Tuple) Items() []any { return append([]any(nil), t.items...) }

// Types returns the declared position types.
func (t Tuple) Types() []Type { return append([]Type(nil), t.types...) }

func (t Tuple) typeString() string { return "Tuple[" + joinTypes(t.types) + "]" }

func (t Tuple) String() string {
	parts := make([]string, len(t.items))
	for i, it := range t.items {
		parts[i] = fmt.Sprint(it)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Equal compares position-wise against another Tuple or a raw slice.
func (t Tuple) Equal(o any) bool {
	var items []any
	switch x := o.(type) {
	case Tuple:
		items = x.items
	default:
		raw, ok := rawSlice(o)
		if !ok {
			return false
		}
		items = raw
	}
	if len(items) != len(t.items) {
		return false
	}
	for i := range items {
		if !valuesEqual(t.items[i], items[i]) {
			return false
		}
	}
	return true
}

func (t Tuple) deepCopy() Tuple {
	out := Tuple{types: t.types, items: make([]any, len(t.items))}
	for i, it := range t.items {
		out.items[i] = copyValue(it)
	}
	return out
}

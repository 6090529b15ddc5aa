package typesafe

import (
	"fmt"
)

// List is a list whose elements are checked against one declared type on
// every mutation.
type List struct {
	elem  Type
	items []any
}

// NewList builds a typed list, validating every initial element.
func NewList(elem Type, items ...any) (*List, error) {
	l := &List{elem: elem, items: make([]any, 0, len(items))}
	for _, it := range items {
		cv, err := checkElement(l.typeString(), "init", elem, it)
		if err != nil {
			return nil, err
		}
		l.items = append(l.items, cv)
	}
	return l, nil
}

// MustList is like NewList but panics on error.
func MustList(elem Type, items ...any) *List {
	l, err := NewList(elem, items...)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *List) ElemType() Type     { return l.elem }
func (l *List) Len() int           { return len(l.items) }
func (l *List) typeString() string { return "List[" + typeName(l.elem) + "]" }

// String reports the element type and count, e.g. "list[int] with 3 elements".
func (l *List) String() string {
	return fmt.Sprintf("list[%s] with %d elements", typeName(l.elem), len(l.items))
}

// Items returns a copy of the element slice.
func (l *List) Items() []any { return append([]any(nil), l.items...) }

// Get returns the element at i; negative indexes count from the end.
// It panics when i is out of range, like slice indexing.
func (l *List) Get(i int) any { return l.items[l.norm(i)] }

func (l *List) norm(i int) int {
	if i < 0 {
		i += len(l.items)
	}
	return i
}

// Append validates and appends each value; nothing is appended on error.
func (l *List) Append(vs ...any) error {
	checked := make([]any, 0, len(vs))
	for _, v := range vs {
		cv, err := checkElement(l.typeString(), "append", l.elem, v)
		if err != nil {
			return err
		}
		checked = append(checked, cv)
	}
	l.items = append(l.items, checked...)
	return nil
}

// Insert places v before index i (clamped to the list bounds).
func (l *List) Insert(i int, v any) error {
	cv, err := checkElement(l.typeString(), "insert", l.elem, v)
	if err != nil {
		return err
	}
	i = l.norm(i)
	if i < 0 {
		i = 0
	}
	if i > len(l.items) {
		i = len(l.items)
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = cv
	return nil
}

// Extend appends the elements of another List or a raw slice.
func (l *List) Extend(src any) error {
	var items []any
	switch s := src.(type) {
	case *List:
		items = s.items
	case *Set:
		items = s.Items()
	default:
		raw, ok := rawSlice(src)
		if !ok {
			return elementTypeError(l.typeString(), "extend", ListOf(l.elem), src, "expected a sequence")
		}
		items = raw
	}
	checked := make([]any, 0, len(items))
	for _, v := range items {
		cv, err := checkElement(l.typeString(), "extend", l.elem, v)
		if err != nil {
			return err
		}
		checked = append(checked, cv)
	}
	l.items = append(l.items, checked...)
	return nil
}

// SetAt replaces the element at i; negative indexes count from the end.
func (l *List) SetAt(i int, v any) error {
	j := l.norm(i)
	if j < 0 || j >= len(l.items) {
		return &Error{Code: CodeValueConstraint, Class: l.typeString(), Op: "set",
			Message: fmt.Sprintf("in %s.set: index %d out of range for length %d", l.typeString(), i, len(l.items)),
			Params:  map[string]any{"index": i, "len": len(l.items)}}
	}
	cv, err := checkElement(l.typeString(), "set", l.elem, v)
	if err != nil {
		return err
	}
	l.items[j] = cv
	return nil
}

// Index returns the position of the first element equal to v, or -1.
func (l *List) Index(v any) int {
	if cv, err := convert(l.elem, v); err == nil {
		v = cv
	}
	for i, it := range l.items {
		if valuesEqual(it, v) {
			return i
		}
	}
	return -1
}

// Contains reports whether an element equals v (after conversion).
func (l *List) Contains(v any) bool { return l.Index(v) >= 0 }

// Remove deletes the first element equal to v.
func (l *List) Remove(v any) error {
	i := l.Index(v)
	if i < 0 {
		return &Error{Code: CodeValueConstraint, Class: l.typeString(), Op: "remove",
			Message: fmt.Sprintf("in %s.remove: %v not in list", l.typeString(), v)}
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Pop removes and returns the last element.
func (l *List) Pop() (any, bool) {
	if len(l.items) == 0 {
		return nil, false
	}
	last := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	return last, true
}

// Clear removes every element.
func (l *List) Clear() { l.items = l.items[:0] }

// Copy returns a shallow copy with the same element type.
func (l *List) Copy() *List { return &List{elem: l.elem, items: l.Items()} }

func (l *List) deepCopy() *List {
	out := &List{elem: l.elem, items: make([]any, len(l.items))}
	for i, it := range l.items {
		out.items[i] = copyValue(it)
	}
	return out
}

// Concat returns a new list holding l followed by other; other is checked
// against l's element type.
func (l *List) Concat(other any) (*List, error) {
	out := l.Copy()
	if err := out.Extend(other); err != nil {
		return nil, err
	}
	return out, nil
}

// Repeat returns a new list with l's elements repeated n times.
func (l *List) Repeat(n int) *List {
	out := &List{elem: l.elem}
	for i := 0; i < n; i++ {
		out.items = append(out.items, l.items...)
	}
	return out
}

// Equal compares element-wise against another List or a raw slice.
func (l *List) Equal(o any) bool {
	var items []any
	switch t := o.(type) {
	case *List:
		if t == nil {
			return false
		}
		items = t.items
	default:
		raw, ok := rawSlice(o)
		if !ok {
			return false
		}
		items = raw
	}
	if len(items) != len(l.items) {
		return false
	}
	for i := range items {
		if !valuesEqual(l.items[i], items[i]) {
			return false
		}
	}
	return true
}

// JSON serialises the list into interchange primitives.
func (l *List) JSON() ([]any, error) {
	v, err := serializeValue(l, newWalk(false))
	if err != nil {
		return nil, err
	}
	out, _ := v.([]any)
	return out, nil
}

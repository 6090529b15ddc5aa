package typesafe

import (
	"fmt"
)

// Set is an insertion-ordered set whose elements are checked against one
// declared type on every mutation.
type Set struct {
	elem  Type
	items []any
	index map[any]int
}

// NewSet builds a typed set, validating every initial element. Duplicates
// collapse onto the first occurrence.
func NewSet(elem Type, items ...any) (*Set, error) {
	s := newSet(elem)
	for _, it := range items {
		if err := s.add("init", it); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSet is like NewSet but panics on error.
func MustSet(elem Type, items ...any) *Set {
	s, err := NewSet(elem, items...)
	if err != nil {
		panic(err)
	}
	return s
}

func newSet(elem Type) *Set { return &Set{elem: elem, index: map[any]int{}} }

func (s *Set) ElemType() Type     { return s.elem }
func (s *Set) Len() int           { return len(s.items) }
func (s *Set) typeString() string { return "Set[" + typeName(s.elem) + "]" }

func (s *Set) String() string {
	return fmt.Sprintf("set[%s] with %d elements", typeName(s.elem), len(s.items))
}

// Items returns the elements in insertion order.
func (s *Set) Items() []any { return append([]any(nil), s.items...) }

func (s *Set) add(op string, v any) error {
	cv, err := checkElement(s.typeString(), op, s.elem, v)
	if err != nil {
		return err
	}
	k := setKey(cv)
	if _, ok := s.index[k]; ok {
		return nil
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, cv)
	return nil
}

// Add validates and inserts v.
func (s *Set) Add(v any) error { return s.add("add", v) }

// Update inserts every element of another Set, a List or a raw slice.
func (s *Set) Update(src any) error {
	items, ok := sequenceItems(src)
	if !ok {
		return elementTypeError(s.typeString(), "update", SetOf(s.elem), src, "expected a collection")
	}
	for _, it := range items {
		if _, err := checkElement(s.typeString(), "update", s.elem, it); err != nil {
			return err
		}
	}
	for _, it := range items {
		if err := s.add("update", it); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set) lookupKey(v any) any {
	if cv, err := convert(s.elem, v); err == nil {
		v = cv
	}
	return setKey(v)
}

// Contains reports membership after converting v to the element type.
func (s *Set) Contains(v any) bool {
	_, ok := s.index[s.lookupKey(v)]
	return ok
}

// Discard removes v if present.
func (s *Set) Discard(v any) {
	k := s.lookupKey(v)
	i, ok := s.index[k]
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
}

// Remove removes v or fails when it is absent.
func (s *Set) Remove(v any) error {
	if !s.Contains(v) {
		return &Error{Code: CodeValueConstraint, Class: s.typeString(), Op: "remove",
			Message: fmt.Sprintf("in %s.remove: %v not in set", s.typeString(), v)}
	}
	s.Discard(v)
	return nil
}

func (s *Set) reindex() {
	s.index = make(map[any]int, len(s.items))
	for i, it := range s.items {
		s.index[setKey(it)] = i
	}
}

// Clear removes every element.
func (s *Set) Clear() {
	s.items = nil
	s.index = map[any]int{}
}

// Copy returns a shallow copy.
func (s *Set) Copy() *Set {
	out := newSet(s.elem)
	for _, it := range s.items {
		out.index[setKey(it)] = len(out.items)
		out.items = append(out.items, it)
	}
	return out
}

func (s *Set) deepCopy() *Set {
	out := newSet(s.elem)
	for _, it := range s.items {
		cp := copyValue(it)
		out.index[setKey(cp)] = len(out.items)
		out.items = append(out.items, cp)
	}
	return out
}

// Union returns s ∪ other, typed like s.
func (s *Set) Union(other any) (*Set, error) {
	out := s.Copy()
	if err := out.Update(other); err != nil {
		return nil, err
	}
	return out, nil
}

// Intersect returns the elements of s also in other.
func (s *Set) Intersect(other any) (*Set, error) {
	o, err := s.coerce("intersect", other)
	if err != nil {
		return nil, err
	}
	out := newSet(s.elem)
	for _, it := range s.items {
		if o.Contains(it) {
			_ = out.add("intersect", it)
		}
	}
	return out, nil
}

// Difference returns the elements of s not in other.
func (s *Set) Difference(other any) (*Set, error) {
	o, err := s.coerce("difference", other)
	if err != nil {
		return nil, err
	}
	out := newSet(s.elem)
	for _, it := range s.items {
		if !o.Contains(it) {
			_ = out.add("difference", it)
		}
	}
	return out, nil
}

// SymmetricDifference returns the elements in exactly one of s and other.
func (s *Set) SymmetricDifference(other any) (*Set, error) {
	o, err := s.coerce("symmetric_difference", other)
	if err != nil {
		return nil, err
	}
	out := newSet(s.elem)
	for _, it := range s.items {
		if !o.Contains(it) {
			_ = out.add("symmetric_difference", it)
		}
	}
	for _, it := range o.items {
		if !s.Contains(it) {
			_ = out.add("symmetric_difference", it)
		}
	}
	return out, nil
}

func (s *Set) coerce(op string, other any) (*Set, error) {
	if o, ok := other.(*Set); ok {
		return o, nil
	}
	items, ok := sequenceItems(other)
	if !ok {
		return nil, elementTypeError(s.typeString(), op, SetOf(s.elem), other, "expected a collection")
	}
	o := newSet(s.elem)
	for _, it := range items {
		if err := o.add(op, it); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Equal reports same membership with another Set or a raw slice.
func (s *Set) Equal(o any) bool {
	other, ok := o.(*Set)
	if !ok {
		items, isSeq := sequenceItems(o)
		if !isSeq {
			return false
		}
		other = newSet(s.elem)
		for _, it := range items {
			if err := other.add("equal", it); err != nil {
				return false
			}
		}
	}
	if other == nil || other.Len() != s.Len() {
		return false
	}
	for _, it := range s.items {
		if !other.Contains(it) {
			return false
		}
	}
	return true
}

// JSON serialises the set as a sequence in insertion order.
func (s *Set) JSON() ([]any, error) {
	v, err := serializeValue(s, newWalk(false))
	if err != nil {
		return nil, err
	}
	out, _ := v.([]any)
	return out, nil
}

func sequenceItems(src any) ([]any, bool) {
	switch t := src.(type) {
	case *Set:
		return t.items, true
	case *List:
		return t.items, true
	case Tuple:
		return t.items, true
	}
	return rawSlice(src)
}

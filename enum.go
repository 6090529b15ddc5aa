package typesafe

import (
	"fmt"
	"strings"
)

// EnumEntry is a member declaration: the name used on the wire and an
// optional associated value.
type EnumEntry struct {
	Name  string
	Value any
}

// Enum is a closed set of named members.
type Enum struct {
	module, name string
	entries      []EnumEntry
	index        map[string]int
}

// NewEnum declares an enum whose member values equal their names.
func NewEnum(module, name string, names ...string) *Enum {
	entries := make([]EnumEntry, len(names))
	for i, n := range names {
		entries[i] = EnumEntry{Name: n, Value: n}
	}
	return NewEnumOf(module, name, entries...)
}

// NewEnumOf declares an enum with explicit member values. Duplicate names panic.
func NewEnumOf(module, name string, entries ...EnumEntry) *Enum {
	e := &Enum{module: module, name: name, entries: append([]EnumEntry(nil), entries...), index: make(map[string]int, len(entries))}
	for i, en := range e.entries {
		if _, dup := e.index[en.Name]; dup {
			panic(fmt.Sprintf("typesafe: enum %s declares member %q twice", name, en.Name))
		}
		e.index[en.Name] = i
	}
	return e
}

func (e *Enum) Kind() Kind       { return KindEnum }
func (e *Enum) String() string   { return e.name }
func (e *Enum) Module() string   { return e.module }
func (e *Enum) Name() string     { return e.name }
func (e *Enum) QualName() string { return qualName(e.module, e.name) }
func (e *Enum) Len() int         { return len(e.entries) }

// Members lists members in declaration order.
func (e *Enum) Members() []EnumMember {
	out := make([]EnumMember, len(e.entries))
	for i := range e.entries {
		out[i] = EnumMember{enum: e, index: i}
	}
	return out
}

// Names lists member names in declaration order.
func (e *Enum) Names() []string {
	out := make([]string, len(e.entries))
	for i, en := range e.entries {
		out[i] = en.Name
	}
	return out
}

// Member looks a member up by name.
func (e *Enum) Member(name string) (EnumMember, error) {
	if i, ok := e.index[name]; ok {
		return EnumMember{enum: e, index: i}, nil
	}
	return EnumMember{}, &Error{
		Code:    CodeValueConstraint,
		Class:   e.name,
		Message: fmt.Sprintf("'%s' is not a valid %s (expected one of: %s)", name, e.name, strings.Join(e.Names(), ", ")),
		Params:  map[string]any{"value": name},
	}
}

// MustMember is like Member but panics on error.
func (e *Enum) MustMember(name string) EnumMember {
	m, err := e.Member(name)
	if err != nil {
		panic(err)
	}
	return m
}

// ByValue looks a member up by its associated value.
func (e *Enum) ByValue(v any) (EnumMember, bool) {
	for i, en := range e.entries {
		if en.Value == v {
			return EnumMember{enum: e, index: i}, true
		}
	}
	return EnumMember{}, false
}

// Lookup resolves a name first, then a value.
func (e *Enum) Lookup(v any) (EnumMember, error) {
	switch t := v.(type) {
	case EnumMember:
		if t.enum == e {
			return t, nil
		}
	case string:
		if m, err := e.Member(t); err == nil {
			return m, nil
		}
	}
	if isComparable(v) {
		if m, ok := e.ByValue(v); ok {
			return m, nil
		}
	}
	return EnumMember{}, &Error{
		Code:    CodeValueConstraint,
		Class:   e.name,
		Message: fmt.Sprintf("%v is not a valid %s (expected one of: %s)", v, e.name, strings.Join(e.Names(), ", ")),
		Params:  map[string]any{"value": v},
	}
}

// EnumMember is a comparable handle to one member of an Enum.
type EnumMember struct {
	enum  *Enum
	index int
}

// Enum returns the owning enum; nil for the zero member.
func (m EnumMember) Enum() *Enum  { return m.enum }
func (m EnumMember) IsZero() bool { return m.enum == nil }

func (m EnumMember) Name() string {
	if m.enum == nil {
		return ""
	}
	return m.enum.entries[m.index].Name
}

func (m EnumMember) Value() any {
	if m.enum == nil {
		return nil
	}
	return m.enum.entries[m.index].Value
}

func (m EnumMember) String() string {
	if m.enum == nil {
		return "<nil enum>"
	}
	return m.enum.name + "." + m.Name()
}

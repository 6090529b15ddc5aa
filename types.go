package typesafe

import (
	"strings"
	"sync/atomic"
)

// Kind tags a declared Type. All oracle logic switches over it.
type Kind int

const (
	KindAny Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindBytes
	KindSafeInt
	KindSafeFloat
	KindSafeStr
	KindEnum
	KindRecord
	KindClassRef
	KindList
	KindSet
	KindDict
	KindTuple
	KindUnion
	KindOptional
	KindAnnotated
	KindForward
	KindSelf
)

// Type is a declared field type.
type Type interface {
	Kind() Kind
	String() string
}

// Named is a Type that can be registered and referenced as "<module>.<name>".
type Named interface {
	Type
	Module() string
	Name() string
	QualName() string
}

type primitiveType struct {
	kind Kind
	name string
}

func (p *primitiveType) Kind() Kind     { return p.kind }
func (p *primitiveType) String() string { return p.name }

// Primitive kinds.
var (
	Any   Type = &primitiveType{kind: KindAny, name: "any"}
	Bool  Type = &primitiveType{kind: KindBool, name: "bool"}
	Int   Type = &primitiveType{kind: KindInt, name: "int"}
	Float Type = &primitiveType{kind: KindFloat, name: "float"}
	Str   Type = &primitiveType{kind: KindStr, name: "str"}
	Bytes Type = &primitiveType{kind: KindBytes, name: "bytes"}
)

// Self stands for the class being declared; it is replaced at Build.
var Self Type = &primitiveType{kind: KindSelf, name: "Self"}

// ListType is List[Elem].
type ListType struct{ Elem Type }

func (t *ListType) Kind() Kind     { return KindList }
func (t *ListType) String() string { return "List[" + typeName(t.Elem) + "]" }

// ListOf declares List[elem].
func ListOf(elem Type) Type { return &ListType{Elem: elem} }

// SetType is Set[Elem].
type SetType struct{ Elem Type }

func (t *SetType) Kind() Kind     { return KindSet }
func (t *SetType) String() string { return "Set[" + typeName(t.Elem) + "]" }

// SetOf declares Set[elem].
func SetOf(elem Type) Type { return &SetType{Elem: elem} }

// DictType is Dict[Key, Value].
type DictType struct{ Key, Value Type }

func (t *DictType) Kind() Kind { return KindDict }
func (t *DictType) String() string {
	return "Dict[" + typeName(t.Key) + ", " + typeName(t.Value) + "]"
}

// DictOf declares Dict[key, value].
func DictOf(key, value Type) Type { return &DictType{Key: key, Value: value} }

// TupleType is Tuple[T1, ..., Tn] with fixed arity.
type TupleType struct{ Elems []Type }

func (t *TupleType) Kind() Kind     { return KindTuple }
func (t *TupleType) String() string { return "Tuple[" + joinTypes(t.Elems) + "]" }

// TupleOf declares Tuple[elems...].
func TupleOf(elems ...Type) Type { return &TupleType{Elems: elems} }

// UnionType is Union[T1, ..., Tn].
type UnionType struct{ Arms []Type }

func (t *UnionType) Kind() Kind     { return KindUnion }
func (t *UnionType) String() string { return "Union[" + joinTypes(t.Arms) + "]" }

// Union declares Union[arms...].
func Union(arms ...Type) Type { return &UnionType{Arms: arms} }

// OptionalType is Optional[Inner] (Inner or none).
type OptionalType struct{ Inner Type }

func (t *OptionalType) Kind() Kind     { return KindOptional }
func (t *OptionalType) String() string { return "Optional[" + typeName(t.Inner) + "]" }

// Optional declares Optional[inner].
func Optional(inner Type) Type { return &OptionalType{Inner: inner} }

// AnnotatedType is Annotated[Inner, validators...].
type AnnotatedType struct {
	Inner      Type
	Validators []Validator
}

func (t *AnnotatedType) Kind() Kind { return KindAnnotated }
func (t *AnnotatedType) String() string {
	names := make([]string, 0, len(t.Validators)+1)
	names = append(names, typeName(t.Inner))
	for _, v := range t.Validators {
		names = append(names, validatorName(v))
	}
	return "Annotated[" + strings.Join(names, ", ") + "]"
}

// Annotated declares Annotated[inner, validators...].
func Annotated(inner Type, validators ...Validator) Type {
	return &AnnotatedType{Inner: inner, Validators: validators}
}

// ClassRefType is ClassRef[Base]: values are classes that derive from Base.
type ClassRefType struct {
	Base Type // *Class, *ForwardRef or Self
	// selfBound is set when Base was declared as Self; the default then
	// follows the concrete class being instantiated.
	selfBound bool
}

func (t *ClassRefType) Kind() Kind     { return KindClassRef }
func (t *ClassRefType) String() string { return "ClassRef[" + typeName(t.Base) + "]" }

// ClassRef declares ClassRef[base].
func ClassRef(base Type) Type { return &ClassRefType{Base: base} }

// ForwardRef names a registered type by "<module>.<name>"; it is resolved
// lazily on first use and the result is cached.
type ForwardRef struct {
	Target   string
	registry *Registry
	resolved atomic.Pointer[resolvedRef]
}

type resolvedRef struct{ t Named }

func (f *ForwardRef) Kind() Kind     { return KindForward }
func (f *ForwardRef) String() string { return f.Target }

// Resolve looks the target up in its registry. Failures are not cached so a
// later registration still resolves.
func (f *ForwardRef) Resolve() (Named, bool) {
	if r := f.resolved.Load(); r != nil {
		return r.t, true
	}
	reg := f.registry
	if reg == nil {
		reg = DefaultRegistry
	}
	t, ok := reg.Lookup(f.Target)
	if !ok {
		return nil, false
	}
	f.resolved.CompareAndSwap(nil, &resolvedRef{t: t})
	return t, true
}

// Ref declares a forward reference resolved through DefaultRegistry.
func Ref(qualName string) *ForwardRef { return &ForwardRef{Target: qualName} }

// deref resolves forward references; unresolved references are returned as is.
func deref(t Type) Type {
	if f, ok := t.(*ForwardRef); ok {
		if r, ok := f.Resolve(); ok {
			return r
		}
	}
	return t
}

func typeName(t Type) string {
	if t == nil {
		return "<nil>"
	}
	if n, ok := t.(Named); ok {
		return n.Name()
	}
	return t.String()
}

func joinTypes(ts []Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = typeName(t)
	}
	return strings.Join(names, ", ")
}

// admitsNone reports whether a declared type accepts none.
func admitsNone(t Type) bool {
	switch tt := deref(t).(type) {
	case *OptionalType:
		return true
	case *UnionType:
		for _, a := range tt.Arms {
			if admitsNone(a) {
				return true
			}
		}
	case *AnnotatedType:
		return admitsNone(tt.Inner)
	case *primitiveType:
		return tt.kind == KindAny
	}
	return false
}

// resolveSelf returns t with every Self replaced by c.
func resolveSelf(t Type, c *Class) Type {
	switch tt := t.(type) {
	case *primitiveType:
		if tt.kind == KindSelf {
			return c
		}
	case *ListType:
		return &ListType{Elem: resolveSelf(tt.Elem, c)}
	case *SetType:
		return &SetType{Elem: resolveSelf(tt.Elem, c)}
	case *DictType:
		return &DictType{Key: resolveSelf(tt.Key, c), Value: resolveSelf(tt.Value, c)}
	case *TupleType:
		elems := make([]Type, len(tt.Elems))
		for i, e := range tt.Elems {
			elems[i] = resolveSelf(e, c)
		}
		return &TupleType{Elems: elems}
	case *UnionType:
		arms := make([]Type, len(tt.Arms))
		for i, a := range tt.Arms {
			arms[i] = resolveSelf(a, c)
		}
		return &UnionType{Arms: arms}
	case *OptionalType:
		return &OptionalType{Inner: resolveSelf(tt.Inner, c)}
	case *AnnotatedType:
		return &AnnotatedType{Inner: resolveSelf(tt.Inner, c), Validators: tt.Validators}
	case *ClassRefType:
		if p, ok := tt.Base.(*primitiveType); ok && p.kind == KindSelf {
			return &ClassRefType{Base: c, selfBound: true}
		}
		return &ClassRefType{Base: resolveSelf(tt.Base, c), selfBound: tt.selfBound}
	}
	return t
}

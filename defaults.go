package typesafe

import "fmt"

// defaultFor materialises a fresh value for field f of an instance of owner.
// Explicit defaults are copied; everything else comes from zeroFor. stack
// holds the record classes currently being constructed so that a class
// nesting itself defaults to nil instead of recursing forever.
func defaultFor(owner *Class, f *FieldDescriptor, stack []*Class) (any, error) {
	if f.HasDefault {
		return copyValue(f.Default), nil
	}
	return zeroFor(f.Type, owner, stack)
}

func zeroFor(t Type, owner *Class, stack []*Class) (any, error) {
	switch tt := deref(t).(type) {
	case *primitiveType:
		switch tt.kind {
		case KindBool:
			return false, nil
		case KindInt:
			return int64(0), nil
		case KindFloat:
			return float64(0), nil
		case KindStr:
			return "", nil
		case KindBytes:
			return []byte{}, nil
		}
		return nil, nil
	case PrimitiveClass:
		return tt.Zero(), nil
	case *Enum:
		if tt.Len() == 0 {
			return nil, nil
		}
		return EnumMember{enum: tt, index: 0}, nil
	case *Class:
		for _, c := range stack {
			if c == tt {
				return nil, nil
			}
		}
		return newRecord(tt, append(stack[:len(stack):len(stack)], tt))
	case *ClassRefType:
		if tt.selfBound && owner != nil {
			return owner, nil
		}
		if c, ok := deref(tt.Base).(*Class); ok {
			return c, nil
		}
		return nil, nil
	case *OptionalType:
		return nil, nil
	case *UnionType:
		if admitsNone(tt) || len(tt.Arms) == 0 {
			return nil, nil
		}
		return zeroFor(tt.Arms[0], owner, stack)
	case *AnnotatedType:
		v, err := zeroFor(tt.Inner, owner, stack)
		if err != nil {
			return nil, err
		}
		if verdict, err := match(tt, v, ""); verdict == Mismatch {
			return nil, &Error{Code: CodeValueConstraint, Expected: typeName(tt), Actual: valueTypeName(v), Cause: err,
				Message: fmt.Sprintf("the default %s does not satisfy '%s'", formatPrimitive(v), typeName(tt))}
		}
		return v, nil
	case *ListType:
		return &List{elem: tt.Elem, items: []any{}}, nil
	case *SetType:
		return newSet(tt.Elem), nil
	case *DictType:
		return newDict(tt.Key, tt.Value), nil
	case *TupleType:
		items := make([]any, len(tt.Elems))
		for i, e := range tt.Elems {
			v, err := zeroFor(e, owner, stack)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return Tuple{types: tt.Elems, items: items}, nil
	}
	return nil, nil
}

// DefaultValue returns a fresh default for a declared type, the way a field
// of that type is initialised. An annotated type whose default fails its
// validators has no default and yields an error.
func DefaultValue(t Type) (any, error) { return zeroFor(t, nil, nil) }

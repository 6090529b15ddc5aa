package typesafe

import (
	"reflect"
)

// Verdict is the answer of the type match oracle.
type Verdict int

const (
	Mismatch Verdict = iota
	Match
	// Undecidable is returned when a forward reference cannot be resolved yet.
	Undecidable
)

func (v Verdict) String() string {
	switch v {
	case Match:
		return "match"
	case Undecidable:
		return "undecidable"
	}
	return "mismatch"
}

// Matches decides whether v satisfies the declared type t. It never converts
// v: a map is not a record and a raw int is not a bounded int.
func Matches(t Type, v any) Verdict {
	verdict, _ := match(t, v, "")
	return verdict
}

// match is Matches that also reports the first failing Annotated validator.
func match(t Type, v any, field string) (Verdict, error) {
	t = deref(t)
	if v == nil {
		if admitsNone(t) {
			return Match, nil
		}
		return Mismatch, nil
	}
	switch tt := t.(type) {
	case *ForwardRef:
		return Undecidable, nil
	case *primitiveType:
		return verdictOf(matchPrimitive(tt.kind, v)), nil
	case *IntClass:
		x, ok := v.(IntValue)
		return verdictOf(ok && derivesFrom(x.class(), tt)), nil
	case *FloatClass:
		switch x := v.(type) {
		case FloatValue:
			return verdictOf(derivesFrom(x.class(), tt)), nil
		case IntValue:
			_, err := tt.New(x.v)
			return verdictOf(err == nil), nil
		}
		if isRawInt(v) {
			_, err := tt.New(v)
			return verdictOf(err == nil), nil
		}
		return Mismatch, nil
	case *StrClass:
		x, ok := v.(StrValue)
		return verdictOf(ok && derivesFrom(x.class(), tt)), nil
	case *Enum:
		m, ok := v.(EnumMember)
		return verdictOf(ok && m.enum == tt), nil
	case *Class:
		r, ok := v.(*Record)
		return verdictOf(ok && r != nil && r.class.DerivesFrom(tt)), nil
	case *ClassRefType:
		return matchClassRef(tt, v), nil
	case *OptionalType:
		return match(tt.Inner, v, field)
	case *UnionType:
		undecided := false
		for _, arm := range tt.Arms {
			verdict, err := match(arm, v, field)
			if verdict == Match && err == nil {
				return Match, nil
			}
			if verdict == Undecidable {
				undecided = true
			}
		}
		if undecided {
			return Undecidable, nil
		}
		return Mismatch, nil
	case *AnnotatedType:
		verdict, err := match(tt.Inner, v, field)
		if verdict != Match || err != nil {
			return verdict, err
		}
		for _, val := range tt.Validators {
			if err := val.Validate(v, field, tt.Inner); err != nil {
				return Mismatch, err
			}
		}
		return Match, nil
	case *ListType:
		return matchSequence(tt.Elem, v, field, func(l *List) (Type, bool) { return l.elem, true }), nil
	case *SetType:
		if s, ok := v.(*Set); ok {
			return verdictOf(IsSubtype(s.elem, tt.Elem)), nil
		}
		return matchSequence(tt.Elem, v, field, nil), nil
	case *DictType:
		return matchDict(tt, v, field), nil
	case *TupleType:
		return matchTuple(tt, v, field), nil
	}
	return Mismatch, nil
}

func verdictOf(ok bool) Verdict {
	if ok {
		return Match
	}
	return Mismatch
}

func matchPrimitive(k Kind, v any) bool {
	switch k {
	case KindAny:
		return true
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindInt:
		if _, ok := v.(IntValue); ok {
			return true
		}
		return isRawInt(v)
	case KindFloat:
		switch v.(type) {
		case float64, float32, FloatValue, IntValue:
			return true
		}
		return isRawInt(v)
	case KindStr:
		switch v.(type) {
		case string, StrValue:
			return true
		}
	case KindBytes:
		_, ok := v.([]byte)
		return ok
	}
	return false
}

func matchClassRef(t *ClassRefType, v any) Verdict {
	c, ok := v.(*Class)
	if !ok || c == nil {
		return Mismatch
	}
	switch base := deref(t.Base).(type) {
	case *Class:
		return verdictOf(c.DerivesFrom(base))
	case *ForwardRef:
		return Undecidable
	case *primitiveType:
		if base.kind == KindAny {
			return Match
		}
		if base.kind == KindSelf {
			return Undecidable
		}
	}
	return Mismatch
}

// matchSequence checks a typed list (through its descriptor) or a raw slice
// (element by element).
func matchSequence(elem Type, v any, field string, typed func(*List) (Type, bool)) Verdict {
	if l, ok := v.(*List); ok {
		if typed == nil {
			return Mismatch
		}
		have, _ := typed(l)
		return verdictOf(IsSubtype(have, elem))
	}
	if _, ok := v.([]byte); ok {
		return Mismatch
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return Mismatch
	}
	for i := 0; i < rv.Len(); i++ {
		verdict, err := match(elem, normalizeScalar(rv.Index(i).Interface()), field)
		if verdict != Match || err != nil {
			return verdict
		}
	}
	return Match
}

func matchDict(t *DictType, v any, field string) Verdict {
	if d, ok := v.(*Dict); ok {
		return verdictOf(IsSubtype(d.key, t.Key) && IsSubtype(d.value, t.Value))
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return Mismatch
	}
	iter := rv.MapRange()
	for iter.Next() {
		if verdict, err := match(t.Key, normalizeScalar(iter.Key().Interface()), field); verdict != Match || err != nil {
			return verdict
		}
		if verdict, err := match(t.Value, normalizeScalar(iter.Value().Interface()), field); verdict != Match || err != nil {
			return verdict
		}
	}
	return Match
}

func matchTuple(t *TupleType, v any, field string) Verdict {
	var items []any
	switch tv := v.(type) {
	case Tuple:
		if len(tv.types) == len(t.Elems) {
			refines := true
			for i := range t.Elems {
				if !IsSubtype(tv.types[i], t.Elems[i]) {
					refines = false
					break
				}
			}
			if refines {
				return Match
			}
		}
		items = tv.items
	default:
		if _, ok := v.([]byte); ok {
			return Mismatch
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return Mismatch
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = normalizeScalar(rv.Index(i).Interface())
		}
	}
	if len(items) != len(t.Elems) {
		return Mismatch
	}
	for i, it := range items {
		if verdict, err := match(t.Elems[i], it, field); verdict != Match || err != nil {
			return verdict
		}
	}
	return Match
}

// IsSubtype reports whether every value of sub is also a value of sup.
// Typed collections are treated covariantly.
func IsSubtype(sub, sup Type) bool {
	sub, sup = deref(sub), deref(sup)
	if sub == nil || sup == nil {
		return sub == sup
	}
	if sub == sup {
		return true
	}
	if p, ok := sup.(*primitiveType); ok && p.kind == KindAny {
		return true
	}
	if sf, ok := sub.(*ForwardRef); ok {
		if pf, ok := sup.(*ForwardRef); ok {
			return sf.Target == pf.Target
		}
		return false
	}
	if sa, ok := sub.(*AnnotatedType); ok {
		if pa, ok := sup.(*AnnotatedType); ok {
			return sameValidators(sa.Validators, pa.Validators) && IsSubtype(sa.Inner, pa.Inner)
		}
		return IsSubtype(sa.Inner, sup)
	}
	switch p := sup.(type) {
	case *OptionalType:
		if so, ok := sub.(*OptionalType); ok {
			return IsSubtype(so.Inner, p.Inner)
		}
		return IsSubtype(sub, p.Inner)
	case *UnionType:
		if su, ok := sub.(*UnionType); ok {
			for _, a := range su.Arms {
				if !IsSubtype(a, sup) {
					return false
				}
			}
			return true
		}
		if so, ok := sub.(*OptionalType); ok {
			return admitsNone(sup) && IsSubtype(so.Inner, sup)
		}
		for _, a := range p.Arms {
			if IsSubtype(sub, a) {
				return true
			}
		}
		return false
	case *AnnotatedType:
		return false
	}
	if su, ok := sub.(*UnionType); ok {
		for _, a := range su.Arms {
			if !IsSubtype(a, sup) {
				return false
			}
		}
		return true
	}
	switch p := sup.(type) {
	case *primitiveType:
		switch s := sub.(type) {
		case *primitiveType:
			return s.kind == p.kind || (s.kind == KindInt && p.kind == KindFloat)
		case PrimitiveClass:
			base := s.BaseKind()
			return base == p.kind || (base == KindInt && p.kind == KindFloat)
		}
	case *IntClass:
		if s, ok := sub.(*IntClass); ok {
			return derivesFrom(s, p)
		}
	case *FloatClass:
		if s, ok := sub.(*FloatClass); ok {
			return derivesFrom(s, p)
		}
	case *StrClass:
		if s, ok := sub.(*StrClass); ok {
			return derivesFrom(s, p)
		}
	case *Class:
		if s, ok := sub.(*Class); ok {
			return s.DerivesFrom(p)
		}
	case *ClassRefType:
		if s, ok := sub.(*ClassRefType); ok {
			return IsSubtype(s.Base, p.Base)
		}
	case *ListType:
		if s, ok := sub.(*ListType); ok {
			return IsSubtype(s.Elem, p.Elem)
		}
	case *SetType:
		if s, ok := sub.(*SetType); ok {
			return IsSubtype(s.Elem, p.Elem)
		}
	case *DictType:
		if s, ok := sub.(*DictType); ok {
			return IsSubtype(s.Key, p.Key) && IsSubtype(s.Value, p.Value)
		}
	case *TupleType:
		if s, ok := sub.(*TupleType); ok && len(s.Elems) == len(p.Elems) {
			for i := range s.Elems {
				if !IsSubtype(s.Elems[i], p.Elems[i]) {
					return false
				}
			}
			return true
		}
	}
	return false
}

func sameValidators(a, b []Validator) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if validatorName(a[i]) != validatorName(b[i]) {
			return false
		}
	}
	return true
}

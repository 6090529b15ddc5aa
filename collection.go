package typesafe

import (
	"bytes"
	"fmt"
	"strings"
)

// checkElement converts v for t and asks the oracle. Every typed collection
// mutation goes through here.
func checkElement(collection, op string, t Type, v any) (any, error) {
	cv, err := convert(t, v)
	if err != nil {
		return nil, wrapElementError(collection, op, t, v, err)
	}
	verdict, err := match(t, cv, "")
	if err != nil {
		return nil, wrapElementError(collection, op, t, v, err)
	}
	switch verdict {
	case Mismatch:
		return nil, elementTypeError(collection, op, t, v, "")
	case Undecidable:
		return nil, &Error{Code: CodeClassReference, Class: collection, Op: op, Expected: typeName(t),
			Message: fmt.Sprintf("in %s.%s: cannot resolve '%s'", collection, op, typeName(t))}
	}
	return cv, nil
}

func wrapElementError(collection, op string, t Type, v any, cause error) error {
	detail := cause.Error()
	if e, ok := AsError(cause); ok {
		detail = e.Message
	}
	e := elementTypeError(collection, op, t, v, detail)
	e.Cause = cause
	return e
}

// valuesEqual is the equality used by Contains, Remove and Equal: epsilon
// for bounded floats, structural for records and collections.
func valuesEqual(a, b any) bool {
	a, b = normalizeScalar(a), normalizeScalar(b)
	switch x := a.(type) {
	case nil:
		return b == nil
	case FloatValue:
		return x.Equal(b)
	case IntValue:
		return x.Equal(b)
	case StrValue:
		return x.Equal(b)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	case *List:
		return x.Equal(b)
	case *Set:
		return x.Equal(b)
	case *Dict:
		return x.Equal(b)
	case Tuple:
		return x.Equal(b)
	case int64:
		switch y := b.(type) {
		case IntValue:
			return y.Equal(x)
		case FloatValue:
			return y.Equal(x)
		case float64:
			return float64(x) == y
		}
	case float64:
		switch y := b.(type) {
		case FloatValue:
			return y.Equal(x)
		case int64:
			return x == float64(y)
		}
	case string:
		if y, ok := b.(StrValue); ok {
			return y.Equal(x)
		}
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

type bytesKey string

type tupleKey string

// setKey maps an element to a comparable identity used by sets and dicts.
func setKey(v any) any {
	v = normalizeScalar(v)
	switch t := v.(type) {
	case []byte:
		return bytesKey(t)
	case Tuple:
		parts := make([]string, len(t.items))
		for i, it := range t.items {
			parts[i] = fmt.Sprintf("%T:%v", setKey(it), setKey(it))
		}
		return tupleKey(strings.Join(parts, "\x00"))
	}
	if isComparable(v) {
		return v
	}
	return fmt.Sprintf("%p", v)
}

// copyValue returns a deep copy of mutable values (collections, records and
// byte slices); immutable values are returned as is.
func copyValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return append([]byte(nil), t...)
	case *List:
		return t.deepCopy()
	case *Set:
		return t.deepCopy()
	case *Dict:
		return t.deepCopy()
	case Tuple:
		return t.deepCopy()
	case *Record:
		return t.Clone()
	}
	return v
}

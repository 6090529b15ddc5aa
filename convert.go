package typesafe

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// convert applies the implicit conversions accepted on assignment and on
// collection insert: Go integer kinds become int64, raw primitives become the
// declared constrained class, strings become enum members and raw slices or
// maps become typed collections. Anything else is returned unchanged for the
// oracle to judge. Maps are never upgraded to records here.
func convert(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	v = normalizeScalar(v)
	switch tt := deref(t).(type) {
	case PrimitiveClass:
		if c, ok := v.(Constrained); ok && derivesFrom(c.PrimitiveClass(), tt) {
			return v, nil
		}
		if isPrimitiveValue(v) {
			return tt.NewValue(v)
		}
	case *Enum:
		if m, ok := v.(EnumMember); ok {
			return m, nil
		}
		if c, ok := v.(Constrained); ok {
			v = c.Primitive()
		}
		if isPrimitiveValue(v) {
			return tt.Lookup(v)
		}
	case *OptionalType:
		return convert(tt.Inner, v)
	case *AnnotatedType:
		return convert(tt.Inner, v)
	case *UnionType:
		for _, arm := range tt.Arms {
			if Matches(arm, v) == Match {
				return v, nil
			}
		}
		for _, arm := range tt.Arms {
			cv, err := convert(arm, v)
			if err == nil && Matches(arm, cv) == Match {
				return cv, nil
			}
		}
	case *ListType:
		if items, ok := rawSlice(v); ok {
			return NewList(tt.Elem, items...)
		}
	case *SetType:
		if items, ok := rawSlice(v); ok {
			return NewSet(tt.Elem, items...)
		}
	case *DictType:
		if keys, vals, ok := rawMap(v); ok {
			d := newDict(tt.Key, tt.Value)
			for i := range keys {
				if err := d.put("set", keys[i], vals[i]); err != nil {
					return nil, err
				}
			}
			return d, nil
		}
	case *TupleType:
		if items, ok := rawSlice(v); ok {
			return NewTuple(tt, items...)
		}
	}
	return v, nil
}

func isPrimitiveValue(v any) bool {
	switch v.(type) {
	case bool, int64, float64, string, IntValue, FloatValue, StrValue:
		return true
	}
	return false
}

// normalizeScalar widens every Go integer kind to int64 and float32 to float64.
func normalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		if uint64(t) <= math.MaxInt64 {
			return int64(t)
		}
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t)
		}
	case float32:
		return float64(t)
	}
	return v
}

func isRawInt(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func toInt64(v any) (int64, bool) {
	if !isRawInt(v) {
		return 0, false
	}
	n, ok := normalizeScalar(v).(int64)
	return n, ok
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	}
	return 0, false
}

func isRawContainer(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return true
	}
	return false
}

func rawSlice(v any) ([]any, bool) {
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// rawMap flattens a Go map into parallel key/value slices ordered by the
// printed key, so conversions are deterministic.
func rawMap(v any) ([]any, []any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, nil, false
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	ks := make([]any, len(keys))
	vs := make([]any, len(keys))
	for i, k := range keys {
		ks[i] = k.Interface()
		vs[i] = rv.MapIndex(k).Interface()
	}
	return ks, vs, true
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable() && !isRawContainer(v)
}

func formatPrimitive(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return t
	}
	return fmt.Sprint(v)
}

// valueTypeName names the runtime type of v in the vocabulary used by
// declared types.
func valueTypeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case string:
		return "str"
	case []byte:
		return "bytes"
	case IntValue:
		return t.class().name
	case FloatValue:
		return t.class().name
	case StrValue:
		return t.class().name
	case EnumMember:
		if t.enum == nil {
			return "enum"
		}
		return t.enum.name
	case *Record:
		if t == nil {
			return "NoneType"
		}
		return t.class.name
	case *Class:
		return "type[" + t.name + "]"
	case *List:
		return t.typeString()
	case *Set:
		return t.typeString()
	case *Dict:
		return t.typeString()
	case Tuple:
		return t.typeString()
	case map[string]any:
		return "dict"
	case []any:
		return "list"
	}
	return fmt.Sprintf("%T", v)
}

package typesafe

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/reoring/typesafe/internal/tree"
)

// walk carries the records on the current serialisation path.
type walk struct {
	ordered bool
	path    []*Record
}

func newWalk(ordered bool) *walk { return &walk{ordered: ordered} }

// Serialize converts any supported value into interchange primitives:
// constrained values collapse to their primitive, enum members to their
// name, class references to "<module>.<name>", bytes to base64 and typed
// collections to arrays or objects. Unserialisable leaves become nil.
// Only a cycle of records is an error.
func Serialize(v any) (any, error) { return serializeValue(v, newWalk(false)) }

func serializeValue(v any, w *walk) (any, error) {
	v = normalizeScalar(v)
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool, int64, string:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			logger().Debug("typesafe: non-finite float serialised as null", "value", formatFloat(t))
			return nil, nil
		}
		return t, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(t), nil
	case Constrained:
		return serializeValue(t.Primitive(), w)
	case EnumMember:
		if t.IsZero() {
			return nil, nil
		}
		return t.Name(), nil
	case *Class:
		if t == nil {
			return nil, nil
		}
		return t.QualName(), nil
	case *Record:
		if t == nil {
			return nil, nil
		}
		return serializeRecord(t, w)
	case *List:
		return serializeSeq(t.items, w)
	case *Set:
		return serializeSeq(t.items, w)
	case Tuple:
		return serializeSeq(t.items, w)
	case *Dict:
		obj := make(tree.Object, 0, len(t.entries))
		for _, e := range t.entries {
			k, err := serializeKey(e.key, w)
			if err != nil {
				return nil, err
			}
			val, err := serializeValue(e.value, w)
			if err != nil {
				return nil, err
			}
			obj.Set(k, val)
		}
		return w.object(obj), nil
	case Namespace:
		return serializeValue(map[string]any(t), w)
	case tree.Object:
		obj := make(tree.Object, 0, len(t))
		for _, m := range t {
			val, err := serializeValue(m.Value, w)
			if err != nil {
				return nil, err
			}
			obj = append(obj, tree.Member{Key: m.Key, Value: val})
		}
		return w.object(obj), nil
	}
	return serializeReflect(v, w)
}

func serializeRecord(r *Record, w *walk) (any, error) {
	for _, seen := range w.path {
		if seen == r {
			return nil, &Error{Code: CodeCycle, Class: r.class.name,
				Message: fmt.Sprintf("cycle detected: %s is reachable from itself", r.class.name)}
		}
	}
	w.path = append(w.path, r)
	defer func() { w.path = w.path[:len(w.path)-1] }()

	obj := make(tree.Object, 0, len(r.class.fields))
	for _, f := range r.class.fields {
		val, err := serializeValue(r.values[f.Name], w)
		if err != nil {
			if e, ok := AsError(err); ok && e.Field == "" {
				cp := *e
				cp.Field = f.Name
				return nil, &cp
			}
			return nil, err
		}
		obj = append(obj, tree.Member{Key: f.Name, Value: val})
	}
	return w.object(obj), nil
}

func serializeSeq(items []any, w *walk) (any, error) {
	out := make([]any, len(items))
	for i, it := range items {
		v, err := serializeValue(it, w)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// serializeKey renders a dict key as an object member name.
func serializeKey(k any, w *walk) (string, error) {
	v, err := serializeValue(k, w)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return formatFloat(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "null", nil
	}
	return fmt.Sprint(v), nil
}

// serializeReflect handles raw Go slices and maps held by Any fields.
func serializeReflect(v any, w *walk) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return serializeSeq(items, w)
	case reflect.Map:
		keys, vals, _ := rawMap(v)
		obj := make(tree.Object, 0, len(keys))
		for i := range keys {
			k, err := serializeKey(keys[i], w)
			if err != nil {
				return nil, err
			}
			val, err := serializeValue(vals[i], w)
			if err != nil {
				return nil, err
			}
			obj.Set(k, val)
		}
		return w.object(obj), nil
	}
	logger().Debug("typesafe: unserialisable value replaced by null", "type", fmt.Sprintf("%T", v))
	return nil, nil
}

func (w *walk) object(o tree.Object) any {
	if w.ordered {
		return o
	}
	out := make(map[string]any, len(o))
	for _, m := range o {
		out[m.Key] = m.Value
	}
	return out
}

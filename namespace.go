package typesafe

import (
	"reflect"
	"strings"

	"github.com/reoring/typesafe/internal/tree"
)

// Namespace is the attribute view of a serialised record: nested objects are
// Namespaces, arrays are []any. It is meant for equality-style assertions.
type Namespace map[string]any

// Obj returns the record's Namespace view.
func (r *Record) Obj() (Namespace, error) {
	v, err := serializeRecord(r, newWalk(true))
	if err != nil {
		return nil, err
	}
	return toNamespace(v).(Namespace), nil
}

func toNamespace(v any) any {
	switch t := v.(type) {
	case tree.Object:
		ns := make(Namespace, len(t))
		for _, m := range t {
			ns[m.Key] = toNamespace(m.Value)
		}
		return ns
	case map[string]any:
		ns := make(Namespace, len(t))
		for k, x := range t {
			ns[k] = toNamespace(x)
		}
		return ns
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = toNamespace(x)
		}
		return out
	}
	return v
}

// Equal reports deep equality with another Namespace.
func (n Namespace) Equal(o Namespace) bool { return reflect.DeepEqual(n, o) }

// Path follows dotted attribute names, e.g. "a.an_int".
func (n Namespace) Path(dotted string) (any, bool) {
	var cur any = n
	for _, part := range strings.Split(dotted, ".") {
		ns, ok := cur.(Namespace)
		if !ok {
			return nil, false
		}
		if cur, ok = ns[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

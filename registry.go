package typesafe

import (
	"sort"
	"strings"
	"sync"
)

// Registry maps "<module>.<name>" to named types (record classes, enums,
// constrained primitive classes). Class-reference strings and forward
// references are resolved through it.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Named
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{types: map[string]Named{}} }

// DefaultRegistry receives every class built without an explicit registry.
var DefaultRegistry = NewRegistry()

// Register adds t under its qualified name, replacing any previous entry.
func (r *Registry) Register(t Named) {
	q := t.QualName()
	r.mu.Lock()
	prev, existed := r.types[q]
	r.types[q] = t
	r.mu.Unlock()
	if existed && prev != t {
		logger().Debug("typesafe: registry entry replaced", "name", q)
		return
	}
	logger().Debug("typesafe: registered", "name", q, "kind", kindName(t.Kind()))
}

// Lookup returns the named type registered under qualName.
func (r *Registry) Lookup(qualName string) (Named, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[qualName]
	return t, ok
}

// Class resolves a class-reference string to a record class.
func (r *Registry) Class(qualName string) (*Class, error) {
	t, ok := r.Lookup(qualName)
	if !ok {
		return nil, &Error{Code: CodeClassReference, Message: "cannot resolve class reference '" + qualName + "'", Params: map[string]any{"ref": qualName}}
	}
	c, ok := t.(*Class)
	if !ok {
		return nil, &Error{Code: CodeClassReference, Message: "'" + qualName + "' is a " + kindName(t.Kind()) + ", not a record class", Params: map[string]any{"ref": qualName}}
	}
	return c, nil
}

// Ref declares a forward reference resolved through this registry.
func (r *Registry) Ref(qualName string) *ForwardRef {
	return &ForwardRef{Target: qualName, registry: r}
}

// Names lists registered qualified names, optionally filtered by module prefix.
func (r *Registry) Names(module string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for q := range r.types {
		if module == "" || strings.HasPrefix(q, module+".") {
			out = append(out, q)
		}
	}
	sort.Strings(out)
	return out
}

func qualName(module, name string) string {
	if module == "" {
		return name
	}
	return module + "." + name
}

func kindName(k Kind) string {
	switch k {
	case KindAny:
		return "any"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindSafeInt:
		return "bounded int"
	case KindSafeFloat:
		return "bounded float"
	case KindSafeStr:
		return "sanitised string"
	case KindEnum:
		return "enum"
	case KindRecord:
		return "record class"
	case KindClassRef:
		return "class reference"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindDict:
		return "dict"
	case KindTuple:
		return "tuple"
	case KindUnion:
		return "union"
	case KindOptional:
		return "optional"
	case KindAnnotated:
		return "annotated"
	case KindForward:
		return "forward reference"
	}
	return "self"
}

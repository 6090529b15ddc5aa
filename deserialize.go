package typesafe

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/reoring/typesafe/internal/tree"
)

// DupPolicy controls duplicate object keys in interchange input.
type DupPolicy = tree.DupPolicy

const (
	DupError  = tree.DupError  // reject the document
	DupWarn   = tree.DupWarn   // log and keep the last value
	DupIgnore = tree.DupIgnore // keep the last value
)

// decodeConfig collects FromJSON options.
type decodeConfig struct {
	raise    bool
	registry *Registry
	tree     tree.Options
}

// FromJSONOption configures deserialization.
type FromJSONOption func(*decodeConfig)

// RaiseOnNotFound makes undeclared keys fail with UnknownFieldError instead
// of being skipped.
func RaiseOnNotFound() FromJSONOption { return func(c *decodeConfig) { c.raise = true } }

// WithRegistry resolves class-reference strings through r instead of the
// registry of the target class.
func WithRegistry(r *Registry) FromJSONOption { return func(c *decodeConfig) { c.registry = r } }

// MaxDepth bounds nesting of objects and arrays (0 = unlimited).
func MaxDepth(n int) FromJSONOption { return func(c *decodeConfig) { c.tree.MaxDepth = n } }

// MaxBytes bounds the size of encoded input (0 = unlimited).
func MaxBytes(n int64) FromJSONOption { return func(c *decodeConfig) { c.tree.MaxBytes = n } }

// OnDuplicateKey sets the duplicate-key policy for encoded input.
func OnDuplicateKey(p DupPolicy) FromJSONOption {
	return func(c *decodeConfig) { c.tree.OnDuplicate = p }
}

func newDecodeConfig(c *Class, opts []FromJSONOption) *decodeConfig {
	cfg := &decodeConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.registry == nil && c != nil {
		cfg.registry = c.Registry()
	}
	if cfg.registry == nil {
		cfg.registry = DefaultRegistry
	}
	cfg.tree.Warn = func(path, msg string) {
		logger().Warn("typesafe: "+msg, "path", path)
	}
	return cfg
}

// FromJSON rebuilds an instance of c from an interchange tree. data may be
// a decoded tree (map[string]any, Namespace) or encoded JSON ([]byte,
// string). Every assignment goes through the type match oracle.
func FromJSON(c *Class, data any, opts ...FromJSONOption) (*Record, error) {
	cfg := newDecodeConfig(c, opts)
	raw, err := cfg.decodeInput(data)
	if err != nil {
		return nil, err
	}
	return cfg.record(c, raw, RootPath(), 0)
}

// FromJSON is a shorthand for FromJSON(c, data, opts...).
func (c *Class) FromJSON(data any, opts ...FromJSONOption) (*Record, error) {
	return FromJSON(c, data, opts...)
}

// Deserialize revives a tree value as the declared type t.
func Deserialize(t Type, raw any, opts ...FromJSONOption) (any, error) {
	var owner *Class
	if c, ok := deref(t).(*Class); ok {
		owner = c
	}
	cfg := newDecodeConfig(owner, opts)
	return cfg.revive(t, raw, RootPath(), 0)
}

func (cfg *decodeConfig) decodeInput(data any) (any, error) {
	switch t := data.(type) {
	case []byte:
		v, err := tree.DecodeJSON(t, cfg.tree)
		return v, treeError(err)
	case string:
		v, err := tree.DecodeJSON([]byte(t), cfg.tree)
		return v, treeError(err)
	case Namespace:
		return map[string]any(t), nil
	}
	return data, nil
}

func (cfg *decodeConfig) enter(p PathRef, depth int) error {
	if cfg.tree.MaxDepth > 0 && depth > cfg.tree.MaxDepth {
		return p.Error(CodeLimit, fmt.Sprintf("nesting deeper than %d", cfg.tree.MaxDepth), "max", cfg.tree.MaxDepth)
	}
	return nil
}

// record instantiates c with defaults and assigns every key of raw.
func (cfg *decodeConfig) record(c *Class, raw any, p PathRef, depth int) (*Record, error) {
	if err := cfg.enter(p, depth+1); err != nil {
		return nil, err
	}
	if ns, ok := raw.(Namespace); ok {
		raw = map[string]any(ns)
	}
	members, ok := tree.Members(raw)
	if !ok {
		e := fieldTypeError(c.name, "", c, raw)
		e.Message = fmt.Sprintf("cannot build %s from %s", c.name, valueTypeName(raw))
		e.Path = p.Pointer()
		return nil, e
	}
	r, err := New(c)
	if err != nil {
		return nil, withPath(err, p)
	}
	for _, m := range members {
		fp := p.Field(m.Key)
		i, declared := c.index[m.Key]
		if !declared {
			if cfg.raise {
				return nil, withPath(r.unknownField("from_json", []string{m.Key}), fp)
			}
			logger().Debug("typesafe: skipping undeclared key", "class", c.name, "key", m.Key, "path", fp.Pointer())
			continue
		}
		f := c.fields[i]
		if m.Value == nil && !admitsNone(f.Type) {
			logger().Debug("typesafe: null ignored for non-optional field", "class", c.name, "field", f.Name, "path", fp.Pointer())
			continue
		}
		v, err := cfg.revive(f.Type, m.Value, fp, depth+1)
		if err != nil {
			return nil, withPath(withField(err, c.name, f.Name), fp)
		}
		if err := r.Set(f.Name, v); err != nil {
			return nil, withPath(err, fp)
		}
	}
	return r, nil
}

// revive turns a tree value into a value of the declared type. The result
// is still judged by the oracle when it is assigned.
func (cfg *decodeConfig) revive(t Type, raw any, p PathRef, depth int) (any, error) {
	if raw == nil {
		return nil, nil
	}
	raw = normalizeScalar(raw)
	switch tt := deref(t).(type) {
	case *primitiveType:
		switch tt.kind {
		case KindBytes:
			if s, ok := raw.(string); ok {
				b, err := base64.StdEncoding.DecodeString(s)
				if err != nil {
					return nil, p.Error(CodeFieldType, "invalid base64 for bytes: "+err.Error())
				}
				return b, nil
			}
		case KindAny:
			return tree.Plain(raw), nil
		}
		return widenFloat(tt.kind, raw), nil
	case PrimitiveClass:
		v, err := tt.NewValue(widenFloat(tt.BaseKind(), raw))
		if err != nil {
			return nil, withPath(err, p)
		}
		return v, nil
	case *Enum:
		m, err := tt.Lookup(raw)
		if err != nil {
			return nil, withPath(err, p)
		}
		return m, nil
	case *Class:
		return cfg.record(tt, raw, p, depth)
	case *ClassRefType:
		s, ok := raw.(string)
		if !ok {
			return raw, nil
		}
		c, err := cfg.registry.Class(s)
		if err != nil {
			return nil, withPath(err, p)
		}
		return c, nil
	case *OptionalType:
		return cfg.revive(tt.Inner, raw, p, depth)
	case *AnnotatedType:
		return cfg.revive(tt.Inner, raw, p, depth)
	case *UnionType:
		return cfg.reviveUnion(tt, raw, p, depth)
	case *ListType:
		items, err := cfg.reviveItems(tt.Elem, raw, p, depth)
		if err != nil || items == nil {
			return raw, err
		}
		l, err := NewList(tt.Elem, items...)
		return l, withPath(err, p)
	case *SetType:
		items, err := cfg.reviveItems(tt.Elem, raw, p, depth)
		if err != nil || items == nil {
			return raw, err
		}
		s, err := NewSet(tt.Elem, items...)
		return s, withPath(err, p)
	case *TupleType:
		arr, ok := raw.([]any)
		if !ok {
			return raw, nil
		}
		if err := cfg.enter(p, depth+1); err != nil {
			return nil, err
		}
		if len(arr) != len(tt.Elems) {
			return nil, p.Error(CodeElementType, fmt.Sprintf("expected %d tuple items, got %d", len(tt.Elems), len(arr)))
		}
		items := make([]any, len(arr))
		for i, x := range arr {
			v, err := cfg.revive(tt.Elems[i], x, p.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		tup, err := NewTuple(tt, items...)
		if err != nil {
			return nil, withPath(err, p)
		}
		return tup, nil
	case *DictType:
		return cfg.reviveDict(tt, raw, p, depth)
	}
	return raw, nil
}

func (cfg *decodeConfig) reviveItems(elem Type, raw any, p PathRef, depth int) ([]any, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	if err := cfg.enter(p, depth+1); err != nil {
		return nil, err
	}
	items := make([]any, len(arr))
	for i, x := range arr {
		v, err := cfg.revive(elem, x, p.Index(i), depth+1)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func (cfg *decodeConfig) reviveDict(t *DictType, raw any, p PathRef, depth int) (any, error) {
	if ns, ok := raw.(Namespace); ok {
		raw = map[string]any(ns)
	}
	members, ok := tree.Members(raw)
	if !ok {
		return raw, nil
	}
	if err := cfg.enter(p, depth+1); err != nil {
		return nil, err
	}
	d := newDict(t.Key, t.Value)
	for _, m := range members {
		mp := p.Field(m.Key)
		k, err := reviveKey(t.Key, m.Key)
		if err != nil {
			return nil, withPath(err, mp)
		}
		v, err := cfg.revive(t.Value, m.Value, mp, depth+1)
		if err != nil {
			return nil, err
		}
		if err := d.put("set", k, v); err != nil {
			return nil, withPath(err, mp)
		}
	}
	return d, nil
}

// reviveUnion picks the first arm whose revived value the oracle accepts.
// Record arms are tried strictly first, so an object carrying keys another
// arm declares never collapses into a default record of an earlier arm.
// When no arm fits strictly, the record arm declaring most of the keys wins.
func (cfg *decodeConfig) reviveUnion(t *UnionType, raw any, p PathRef, depth int) (any, error) {
	strict := *cfg
	strict.raise = true
	var firstErr error
	var records []*Class
	for _, arm := range t.Arms {
		c, isRecord := deref(arm).(*Class)
		var v any
		var err error
		if isRecord {
			records = append(records, c)
			v, err = strict.record(c, raw, p, depth)
		} else {
			v, err = cfg.revive(arm, raw, p, depth)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if Matches(arm, v) == Match {
			return v, nil
		}
	}
	if c := bestCover(records, raw); c != nil {
		v, err := cfg.record(c, raw, p, depth)
		if err == nil {
			return v, nil
		}
		firstErr = err
	}
	for _, arm := range t.Arms {
		if Matches(arm, raw) == Match {
			return raw, nil
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return raw, nil
}

// bestCover returns the class declaring the most keys of the object raw;
// ties go to the earlier class.
func bestCover(classes []*Class, raw any) *Class {
	if ns, ok := raw.(Namespace); ok {
		raw = map[string]any(ns)
	}
	members, ok := tree.Members(raw)
	if !ok || len(classes) == 0 {
		return nil
	}
	var best *Class
	bestN := -1
	for _, c := range classes {
		n := 0
		for _, m := range members {
			if _, declared := c.index[m.Key]; declared {
				n++
			}
		}
		if n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

// reviveKey parses an object member name into a dict key of type t.
func reviveKey(t Type, key string) (any, error) {
	switch tt := deref(t).(type) {
	case *OptionalType:
		return reviveKey(tt.Inner, key)
	case *AnnotatedType:
		return reviveKey(tt.Inner, key)
	case *Enum:
		return tt.Lookup(key)
	case PrimitiveClass:
		raw, err := parseKey(tt.BaseKind(), key)
		if err != nil {
			return nil, err
		}
		return tt.NewValue(raw)
	case *primitiveType:
		return parseKey(tt.kind, key)
	case *UnionType:
		for _, arm := range tt.Arms {
			if k, err := reviveKey(arm, key); err == nil && Matches(arm, k) == Match {
				return k, nil
			}
		}
	}
	return key, nil
}

func parseKey(k Kind, key string) (any, error) {
	switch k {
	case KindInt:
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, newError(CodeFieldType, "dict key '%s' is not an integer", key)
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return nil, newError(CodeFieldType, "dict key '%s' is not a number", key)
		}
		return f, nil
	case KindBool:
		b, err := strconv.ParseBool(key)
		if err != nil {
			return nil, newError(CodeFieldType, "dict key '%s' is not a boolean", key)
		}
		return b, nil
	}
	return key, nil
}

// widenFloat turns an integral number read for a float type back into a
// float64; encoders write 2.0 as 2.
func widenFloat(k Kind, v any) any {
	if n, ok := v.(int64); ok && k == KindFloat {
		return float64(n)
	}
	return v
}

// Package tree holds the interchange tree used by the serializer: ordered
// objects, arrays and JSON primitives, plus JSON and YAML codecs for it.
package tree

import (
	"bytes"
	"sort"

	j "github.com/goccy/go-json"
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that keeps member order.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Set replaces key in place or appends it.
func (o *Object) Set(key string, v any) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = v
			return
		}
	}
	*o = append(*o, Member{Key: key, Value: v})
}

// Keys lists member keys in order.
func (o Object) Keys() []string {
	out := make([]string, len(o))
	for i, m := range o {
		out[i] = m.Key
	}
	return out
}

// MarshalJSON writes members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := j.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := j.Marshal(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Plain converts Objects (recursively) into map[string]any so the tree can
// be compared or handed to code that does not know about Object.
func Plain(v any) any {
	switch t := v.(type) {
	case Object:
		out := make(map[string]any, len(t))
		for _, m := range t {
			out[m.Key] = Plain(m.Value)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Plain(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Plain(x)
		}
		return out
	}
	return v
}

// Members iterates an object-shaped value (Object or map[string]any). Maps
// are visited in sorted key order.
func Members(v any) ([]Member, bool) {
	switch t := v.(type) {
	case Object:
		return t, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Member, len(keys))
		for i, k := range keys {
			out[i] = Member{Key: k, Value: t[k]}
		}
		return out, true
	}
	return nil, false
}

package typesafe

import (
	"fmt"
)

type dictEntry struct {
	key, value any
}

// Dict is an insertion-ordered mapping whose keys and values are checked
// against declared types on every mutation.
type Dict struct {
	key, value Type
	entries    []dictEntry
	index      map[any]int
}

// NewDict builds a typed dict from a raw Go map (entries are added in
// printed-key order) or from another Dict.
func NewDict(key, value Type, src any) (*Dict, error) {
	d := newDict(key, value)
	if src == nil {
		return d, nil
	}
	if err := d.update("init", src); err != nil {
		return nil, err
	}
	return d, nil
}

// MustDict is like NewDict but panics on error.
func MustDict(key, value Type, src any) *Dict {
	d, err := NewDict(key, value, src)
	if err != nil {
		panic(err)
	}
	return d
}

func newDict(key, value Type) *Dict {
	return &Dict{key: key, value: value, index: map[any]int{}}
}

func (d *Dict) KeyType() Type      { return d.key }
func (d *Dict) ValueType() Type    { return d.value }
func (d *Dict) Len() int           { return len(d.entries) }
func (d *Dict) typeString() string { return "Dict[" + typeName(d.key) + ", " + typeName(d.value) + "]" }

func (d *Dict) String() string {
	return fmt.Sprintf("dict[%s, %s] with %d entries", typeName(d.key), typeName(d.value), len(d.entries))
}

func (d *Dict) put(op string, k, v any) error {
	ck, err := checkElement(d.typeString(), op+" key", d.key, k)
	if err != nil {
		return err
	}
	cv, err := checkElement(d.typeString(), op+" value", d.value, v)
	if err != nil {
		return err
	}
	hk := setKey(ck)
	if i, ok := d.index[hk]; ok {
		d.entries[i].value = cv
		return nil
	}
	d.index[hk] = len(d.entries)
	d.entries = append(d.entries, dictEntry{key: ck, value: cv})
	return nil
}

// Set validates and stores k -> v.
func (d *Dict) Set(k, v any) error { return d.put("set", k, v) }

func (d *Dict) lookupKey(k any) any {
	if ck, err := convert(d.key, k); err == nil {
		k = ck
	}
	return setKey(k)
}

// Get returns the value stored under k (converted to the key type first).
func (d *Dict) Get(k any) (any, bool) {
	i, ok := d.index[d.lookupKey(k)]
	if !ok {
		return nil, false
	}
	return d.entries[i].value, true
}

// MustGet is like Get but panics when k is absent.
func (d *Dict) MustGet(k any) any {
	v, ok := d.Get(k)
	if !ok {
		panic(fmt.Sprintf("typesafe: key %v not in %s", k, d.typeString()))
	}
	return v
}

// Has reports whether k is present.
func (d *Dict) Has(k any) bool {
	_, ok := d.index[d.lookupKey(k)]
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []any {
	out := make([]any, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.key
	}
	return out
}

// Values returns the values in key insertion order.
func (d *Dict) Values() []any {
	out := make([]any, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.value
	}
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (d *Dict) Range(fn func(k, v any) bool) {
	for _, e := range d.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (d *Dict) update(op string, src any) error {
	var keys, vals []any
	switch s := src.(type) {
	case *Dict:
		for _, e := range s.entries {
			keys = append(keys, e.key)
			vals = append(vals, e.value)
		}
	default:
		var ok bool
		keys, vals, ok = rawMap(src)
		if !ok {
			return elementTypeError(d.typeString(), op, DictOf(d.key, d.value), src, "expected a mapping")
		}
	}
	for i := range keys {
		if _, err := checkElement(d.typeString(), op+" key", d.key, keys[i]); err != nil {
			return err
		}
		if _, err := checkElement(d.typeString(), op+" value", d.value, vals[i]); err != nil {
			return err
		}
	}
	for i := range keys {
		if err := d.put(op, keys[i], vals[i]); err != nil {
			return err
		}
	}
	return nil
}

// Update stores every entry of another Dict or raw map; nothing is stored
// when any entry fails.
func (d *Dict) Update(src any) error { return d.update("update", src) }

// Merge returns a new dict with d's entries overridden by src's.
func (d *Dict) Merge(src any) (*Dict, error) {
	out := d.Copy()
	if err := out.update("merge", src); err != nil {
		return nil, err
	}
	return out, nil
}

// PopDefault removes k and returns its value, or returns def (which must
// satisfy the value type) when k is absent.
func (d *Dict) PopDefault(k, def any) (any, error) {
	hk := d.lookupKey(k)
	if i, ok := d.index[hk]; ok {
		v := d.entries[i].value
		d.removeAt(i)
		return v, nil
	}
	if def == nil {
		return nil, nil
	}
	return checkElement(d.typeString(), "pop default", d.value, def)
}

// Delete removes k; it reports whether k was present.
func (d *Dict) Delete(k any) bool {
	i, ok := d.index[d.lookupKey(k)]
	if ok {
		d.removeAt(i)
	}
	return ok
}

func (d *Dict) removeAt(i int) {
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	d.index = make(map[any]int, len(d.entries))
	for j, e := range d.entries {
		d.index[setKey(e.key)] = j
	}
}

// Clear removes every entry.
func (d *Dict) Clear() {
	d.entries = nil
	d.index = map[any]int{}
}

// Copy returns a shallow copy.
func (d *Dict) Copy() *Dict {
	out := newDict(d.key, d.value)
	out.entries = append([]dictEntry(nil), d.entries...)
	for i, e := range out.entries {
		out.index[setKey(e.key)] = i
	}
	return out
}

func (d *Dict) deepCopy() *Dict {
	out := newDict(d.key, d.value)
	for _, e := range d.entries {
		k := copyValue(e.key)
		out.index[setKey(k)] = len(out.entries)
		out.entries = append(out.entries, dictEntry{key: k, value: copyValue(e.value)})
	}
	return out
}

// Equal compares entries against another Dict or a raw map, ignoring order.
func (d *Dict) Equal(o any) bool {
	other, ok := o.(*Dict)
	if !ok {
		if _, _, isMap := rawMap(o); !isMap {
			return false
		}
		var err error
		if other, err = NewDict(d.key, d.value, o); err != nil {
			return false
		}
	}
	if other == nil || other.Len() != d.Len() {
		return false
	}
	for _, e := range d.entries {
		v, ok := other.Get(e.key)
		if !ok || !valuesEqual(e.value, v) {
			return false
		}
	}
	return true
}

// JSON serialises the dict; keys collapse to their primitive and are
// rendered as strings.
func (d *Dict) JSON() (map[string]any, error) {
	v, err := serializeValue(d, newWalk(false))
	if err != nil {
		return nil, err
	}
	out, _ := v.(map[string]any)
	return out, nil
}

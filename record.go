package typesafe

import (
	"fmt"
	"sort"
	"strings"
)

// Record is an instance of a record class. Every assignment goes through
// the type match oracle. Records are not safe for concurrent mutation.
type Record struct {
	class  *Class
	values map[string]any
}

// New constructs an instance of c: defaults first, then the given kwargs in
// declaration order. nil values in kwargs are skipped; unknown names fail
// with UnknownFieldError.
func New(c *Class, kwargs ...Kwargs) (*Record, error) {
	r, err := newRecord(c, []*Class{c})
	if err != nil {
		return nil, err
	}
	for _, kw := range kwargs {
		if err := r.apply("construct", kw); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(c *Class, kwargs ...Kwargs) *Record {
	r, err := New(c, kwargs...)
	if err != nil {
		panic(err)
	}
	return r
}

// New is a shorthand for New(c, kwargs...).
func (c *Class) New(kwargs ...Kwargs) (*Record, error) { return New(c, kwargs...) }

func newRecord(c *Class, stack []*Class) (*Record, error) {
	r := &Record{class: c, values: make(map[string]any, len(c.fields))}
	for _, f := range c.fields {
		v, err := defaultFor(c, f, stack)
		if err != nil {
			return nil, withField(err, c.name, f.Name)
		}
		r.values[f.Name] = v
	}
	return r, nil
}

// apply validates every non-nil entry of kw before assigning any of them.
func (r *Record) apply(op string, kw Kwargs) error {
	var unknown []string
	for name := range kw {
		if _, ok := r.class.index[name]; ok {
			continue
		}
		if _, ok := r.class.props[name]; ok {
			continue
		}
		unknown = append(unknown, name)
	}
	if len(unknown) > 0 {
		return r.unknownField(op, unknown)
	}
	staged := make(map[string]any, len(kw))
	for _, f := range r.class.fields {
		v, ok := kw[f.Name]
		if !ok || v == nil {
			continue
		}
		cv, err := r.prepare(f, v)
		if err != nil {
			return err
		}
		staged[f.Name] = cv
	}
	for _, f := range r.class.fields {
		if v, ok := staged[f.Name]; ok {
			r.values[f.Name] = v
		}
	}
	for _, name := range sortedKeys(kw) {
		if p, ok := r.class.props[name]; ok && kw[name] != nil {
			if err := r.setProperty(name, p, kw[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Record) unknownField(op string, names []string) error {
	sort.Strings(names)
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return &Error{
		Code:    CodeUnknownField,
		Class:   r.class.name,
		Field:   names[0],
		Op:      op,
		Message: fmt.Sprintf("%s has no attribute %s", r.class.name, strings.Join(quoted, ", ")),
		Params:  map[string]any{"fields": names},
	}
}

// prepare converts v for field f and runs the oracle.
func (r *Record) prepare(f *FieldDescriptor, v any) (any, error) {
	cv, err := convert(f.Type, v)
	if err != nil {
		return nil, withField(err, r.class.name, f.Name)
	}
	verdict, err := match(f.Type, cv, f.Name)
	if err != nil {
		return nil, withField(err, r.class.name, f.Name)
	}
	switch verdict {
	case Mismatch:
		return nil, fieldTypeError(r.class.name, f.Name, f.Type, v)
	case Undecidable:
		return nil, &Error{Code: CodeClassReference, Class: r.class.name, Field: f.Name, Expected: typeName(f.Type),
			Message: fmt.Sprintf("cannot resolve '%s' while setting '%s' on %s", typeName(f.Type), f.Name, r.class.name)}
	}
	return cv, nil
}

func (r *Record) setProperty(name string, p *Property, v any) error {
	if p.Set == nil {
		return &Error{Code: CodeFieldType, Class: r.class.name, Field: name,
			Message: fmt.Sprintf("property '%s' of %s has no setter", name, r.class.name)}
	}
	return p.Set(r, v)
}

// Set assigns a field (or calls a property setter). On failure the field
// keeps its previous value.
func (r *Record) Set(name string, v any) error {
	if p, ok := r.class.props[name]; ok {
		return r.setProperty(name, p, v)
	}
	i, ok := r.class.index[name]
	if !ok {
		return r.unknownField("set", []string{name})
	}
	f := r.class.fields[i]
	if v == nil {
		if !admitsNone(f.Type) && r.values[name] != nil {
			e := fieldTypeError(r.class.name, name, f.Type, nil)
			e.Message = fmt.Sprintf("can't set None to a variable that is already set. %s", e.Message)
			return e
		}
		r.values[name] = nil
		return nil
	}
	cv, err := r.prepare(f, v)
	if err != nil {
		return err
	}
	r.values[name] = cv
	return nil
}

// MustSet is like Set but panics on error.
func (r *Record) MustSet(name string, v any) {
	if err := r.Set(name, v); err != nil {
		panic(err)
	}
}

// Get returns a field, property or class attribute value; nil when unknown.
func (r *Record) Get(name string) any {
	v, _ := r.Lookup(name)
	return v
}

// Lookup is Get that also reports whether name is known.
func (r *Record) Lookup(name string) (any, bool) {
	if p, ok := r.class.props[name]; ok {
		if p.Get == nil {
			return nil, true
		}
		return p.Get(r), true
	}
	if _, ok := r.class.index[name]; ok {
		return r.values[name], true
	}
	return r.class.Attr(name)
}

// Class returns the record's class.
func (r *Record) Class() *Class { return r.class }

// Kwargs returns the current field values.
func (r *Record) Kwargs() Kwargs {
	out := make(Kwargs, len(r.class.fields))
	for _, f := range r.class.fields {
		out[f.Name] = r.values[f.Name]
	}
	return out
}

// DefaultKwargs returns class attributes plus freshly materialised field
// defaults; nothing is shared with the instance or the class.
func (r *Record) DefaultKwargs() (Kwargs, error) {
	out := Kwargs{}
	for _, a := range r.class.attrs {
		out[a.name] = a.value
	}
	for _, f := range r.class.fields {
		v, err := defaultFor(r.class, f, []*Class{r.class})
		if err != nil {
			return nil, withField(err, r.class.name, f.Name)
		}
		out[f.Name] = v
	}
	return out, nil
}

// Locals returns class attributes and current field values.
func (r *Record) Locals() Kwargs {
	out := r.Kwargs()
	for _, a := range r.class.attrs {
		out[a.name] = a.value
	}
	return out
}

// AttrNames lists class attributes then fields, in declaration order.
func (r *Record) AttrNames() []string {
	out := make([]string, 0, len(r.class.attrs)+len(r.class.fields))
	for _, a := range r.class.attrs {
		out = append(out, a.name)
	}
	return append(out, r.class.FieldNames()...)
}

// FieldNames lists the declared fields in order.
func (r *Record) FieldNames() []string { return r.class.FieldNames() }

// JSON returns the interchange tree of the record.
func (r *Record) JSON() (map[string]any, error) {
	v, err := serializeRecord(r, newWalk(false))
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// Update assigns every non-nil entry of kw; nothing changes when any entry fails.
func (r *Record) Update(kw Kwargs) error { return r.apply("update", kw) }

// Reset restores every field to a fresh default.
func (r *Record) Reset() error {
	fresh, err := newRecord(r.class, []*Class{r.class})
	if err != nil {
		return err
	}
	r.values = fresh.values
	return nil
}

// Clone returns a deep copy; nested records and collections are copied.
func (r *Record) Clone() *Record {
	out := &Record{class: r.class, values: make(map[string]any, len(r.values))}
	for k, v := range r.values {
		out.values[k] = copyValue(v)
	}
	return out
}

// Equal reports same class and equal field values.
func (r *Record) Equal(o *Record) bool {
	if r == o {
		return true
	}
	if r == nil || o == nil || r.class != o.class {
		return false
	}
	for _, f := range r.class.fields {
		if !valuesEqual(r.values[f.Name], o.values[f.Name]) {
			return false
		}
	}
	return true
}

// String renders Class(field=value, ...).
func (r *Record) String() string {
	parts := make([]string, len(r.class.fields))
	for i, f := range r.class.fields {
		v := r.values[f.Name]
		switch t := v.(type) {
		case string:
			parts[i] = fmt.Sprintf("%s=%q", f.Name, t)
		case *Record:
			parts[i] = f.Name + "=" + t.class.name + "(...)"
		case nil:
			parts[i] = f.Name + "=None"
		default:
			parts[i] = fmt.Sprintf("%s=%v", f.Name, v)
		}
	}
	return r.class.name + "(" + strings.Join(parts, ", ") + ")"
}

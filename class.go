package typesafe

import (
	"fmt"
	"sort"
	"sync"
)

// Kwargs maps field names to values for construction and updates.
type Kwargs map[string]any

// FieldDescriptor is one resolved field of a record class.
type FieldDescriptor struct {
	Name string
	Type Type
	// Default is the explicit default; meaningful only when HasDefault is set.
	Default    any
	HasDefault bool
	// Owner is the class that declared (or last redeclared) the field.
	Owner *Class
}

// Property is a computed attribute. Names bound to a property are never
// fields and never appear in ClsKwargs.
type Property struct {
	Get func(r *Record) any
	Set func(r *Record, v any) error
}

type classAttr struct {
	name  string
	value any
}

// Class is a record class: an ordered set of typed fields (base-class fields
// first), class attributes and properties.
type Class struct {
	module, name string
	parent       *Class
	fields       []*FieldDescriptor
	index        map[string]int
	props        map[string]*Property
	attrs        []classAttr
	registry     *Registry

	clsKwargsOnce sync.Once
	clsKwargs     []classAttr
}

func (c *Class) Kind() Kind          { return KindRecord }
func (c *Class) String() string      { return c.name }
func (c *Class) Module() string      { return c.module }
func (c *Class) Name() string        { return c.name }
func (c *Class) QualName() string    { return qualName(c.module, c.name) }
func (c *Class) Parent() *Class      { return c.parent }
func (c *Class) Registry() *Registry { return c.registry }

// DerivesFrom reports whether c is base or a subclass of it.
func (c *Class) DerivesFrom(base *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == base {
			return true
		}
	}
	return false
}

// Fields returns the resolved fields in declaration order, base fields first.
func (c *Class) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(c.fields))
	for i, f := range c.fields {
		out[i] = *f
	}
	return out
}

// Field returns the resolved field called name.
func (c *Class) Field(name string) (FieldDescriptor, bool) {
	i, ok := c.index[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return *c.fields[i], true
}

// FieldNames lists field names in declaration order.
func (c *Class) FieldNames() []string {
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.Name
	}
	return out
}

// Annotations maps each field to its resolved declared type.
func (c *Class) Annotations() map[string]Type {
	out := make(map[string]Type, len(c.fields))
	for _, f := range c.fields {
		out[f.Name] = f.Type
	}
	return out
}

// HasProperty reports whether name is bound to a property on c or a base.
func (c *Class) HasProperty(name string) bool {
	_, ok := c.props[name]
	return ok
}

// Attr returns a class attribute.
func (c *Class) Attr(name string) (any, bool) {
	for _, a := range c.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return nil, false
}

// ClsKwargs returns the class-level bindings: class attributes followed by
// explicit field defaults. The template is computed once per class.
func (c *Class) ClsKwargs() Kwargs {
	c.clsKwargsOnce.Do(func() {
		out := append([]classAttr(nil), c.attrs...)
		for _, f := range c.fields {
			if f.HasDefault {
				out = append(out, classAttr{name: f.Name, value: f.Default})
			}
		}
		c.clsKwargs = out
	})
	kw := make(Kwargs, len(c.clsKwargs))
	for _, a := range c.clsKwargs {
		kw[a.name] = a.value
	}
	return kw
}

type fieldDecl struct {
	name       string
	t          Type
	def        any
	hasDefault bool
}

// ClassBuilder declares a record class. Errors are collected and reported by Build.
type ClassBuilder struct {
	module, name string
	parent       *Class
	decls        []fieldDecl
	props        map[string]*Property
	attrs        []classAttr
	reg          *Registry
	errs         []error
}

// NewClass starts declaring module.name.
func NewClass(module, name string) *ClassBuilder {
	return &ClassBuilder{module: module, name: name, props: map[string]*Property{}}
}

// Extends sets the base class.
func (b *ClassBuilder) Extends(parent *Class) *ClassBuilder {
	b.parent = parent
	return b
}

// Field declares a typed field with an optional default.
func (b *ClassBuilder) Field(name string, t Type, def ...any) *ClassBuilder {
	d := fieldDecl{name: name, t: t}
	if len(def) > 0 {
		d.def, d.hasDefault = def[0], true
	}
	b.decls = append(b.decls, d)
	return b
}

// Default sets (or replaces) the default of a field declared on this builder.
func (b *ClassBuilder) Default(name string, def any) *ClassBuilder {
	for i := range b.decls {
		if b.decls[i].name == name {
			b.decls[i].def, b.decls[i].hasDefault = def, true
			return b
		}
	}
	b.errs = append(b.errs, &Error{Code: CodeUnknownField, Class: b.name, Field: name,
		Message: fmt.Sprintf("default for undeclared field '%s' on %s", name, b.name)})
	return b
}

// Property binds a computed attribute; set is optional.
func (b *ClassBuilder) Property(name string, get func(*Record) any, set ...func(*Record, any) error) *ClassBuilder {
	p := &Property{Get: get}
	if len(set) > 0 {
		p.Set = set[0]
	}
	b.props[name] = p
	return b
}

// Attr declares an untyped, immutable class attribute.
func (b *ClassBuilder) Attr(name string, v any) *ClassBuilder {
	b.attrs = append(b.attrs, classAttr{name: name, value: v})
	return b
}

// Registry selects where the class is registered (DefaultRegistry otherwise).
func (b *ClassBuilder) Registry(r *Registry) *ClassBuilder {
	b.reg = r
	return b
}

// MustBuild is like Build but panics on error.
func (b *ClassBuilder) MustBuild() *Class {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// Build resolves the declaration set and registers the class. It rejects
// mutable default literals and defaults that do not satisfy their declared
// type, including nil for a type that does not admit None and the implicit
// default of an annotated field. Redeclarations must be subtypes of the
// base declaration.
func (b *ClassBuilder) Build() (*Class, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	reg := b.reg
	if reg == nil {
		reg = DefaultRegistry
		if b.parent != nil && b.parent.registry != nil {
			reg = b.parent.registry
		}
	}
	c := &Class{
		module:   b.module,
		name:     b.name,
		parent:   b.parent,
		index:    map[string]int{},
		props:    map[string]*Property{},
		registry: reg,
	}
	if p := b.parent; p != nil {
		for _, f := range p.fields {
			cp := *f
			c.index[f.Name] = len(c.fields)
			c.fields = append(c.fields, &cp)
		}
		for n, pr := range p.props {
			c.props[n] = pr
		}
		c.attrs = append(c.attrs, p.attrs...)
	}
	for n, pr := range b.props {
		c.props[n] = pr
	}

	for _, d := range b.decls {
		if _, isProp := c.props[d.name]; isProp {
			logger().Debug("typesafe: field shadowed by property", "class", c.QualName(), "field", d.name)
			continue
		}
		if d.t == nil {
			return nil, &Error{Code: CodeFieldType, Class: c.name, Field: d.name,
				Message: fmt.Sprintf("field '%s' on %s has no declared type", d.name, c.name)}
		}
		t := resolveSelf(d.t, c)
		fd := &FieldDescriptor{Name: d.name, Type: t, Owner: c}
		if d.hasDefault {
			def, err := checkDefault(c, d.name, t, d.def)
			if err != nil {
				return nil, err
			}
			fd.Default, fd.HasDefault = def, true
		}
		if i, exists := c.index[d.name]; exists {
			base := c.fields[i]
			if !IsSubtype(t, base.Type) {
				return nil, &Error{Code: CodeFieldType, Class: c.name, Field: d.name,
					Expected: typeName(base.Type), Actual: typeName(t),
					Message: fmt.Sprintf("field '%s' on %s redeclares %s.%s as '%s', which is not a subtype of '%s'",
						d.name, c.name, base.Owner.name, d.name, typeName(t), typeName(base.Type))}
			}
			if !fd.HasDefault && base.HasDefault {
				if ok, _ := match(t, base.Default, d.name); ok == Match {
					fd.Default, fd.HasDefault = base.Default, true
				}
			}
			if err := checkImplicitDefault(c, fd); err != nil {
				return nil, err
			}
			c.fields[i] = fd
			continue
		}
		if err := checkImplicitDefault(c, fd); err != nil {
			return nil, err
		}
		c.index[d.name] = len(c.fields)
		c.fields = append(c.fields, fd)
	}

	for _, a := range b.attrs {
		if _, isField := c.index[a.name]; isField {
			return nil, &Error{Code: CodeFieldType, Class: c.name, Field: a.name,
				Message: fmt.Sprintf("class attribute '%s' on %s conflicts with a declared field", a.name, c.name)}
		}
		if isMutableLiteral(a.value) {
			return nil, &Error{Code: CodeImmutableDefault, Class: c.name, Field: a.name, Actual: valueTypeName(a.value),
				Message: fmt.Sprintf("class attribute '%s' on %s must be immutable, got '%s'", a.name, c.name, valueTypeName(a.value))}
		}
		replaced := false
		for i := range c.attrs {
			if c.attrs[i].name == a.name {
				c.attrs[i].value, replaced = a.value, true
			}
		}
		if !replaced {
			c.attrs = append(c.attrs, a)
		}
	}

	reg.Register(c)
	return c, nil
}

// checkDefault enforces the declaration-layer rules for explicit defaults.
func checkDefault(c *Class, field string, t Type, def any) (any, error) {
	if def == nil {
		if !admitsNone(t) {
			return nil, fieldTypeError(c.name, field, t, nil)
		}
		return nil, nil
	}
	if isMutableLiteral(def) {
		return nil, &Error{Code: CodeImmutableDefault, Class: c.name, Field: field, Expected: typeName(t), Actual: valueTypeName(def),
			Message: fmt.Sprintf("variable '%s' is defined as type '%s' which is not supported by %s, with only the following immutable types being supported: %s",
				field, valueTypeName(def), c.name, immutableKinds)}
	}
	v, err := convert(t, def)
	if err != nil {
		return nil, withField(err, c.name, field)
	}
	verdict, err := match(t, v, field)
	switch {
	case err != nil:
		return nil, withField(err, c.name, field)
	case verdict == Mismatch:
		return nil, fieldTypeError(c.name, field, t, def)
	}
	return v, nil
}

// checkImplicitDefault rejects an annotated field without an explicit
// default whose materialised default fails its own validators.
func checkImplicitDefault(c *Class, fd *FieldDescriptor) error {
	if _, ok := deref(fd.Type).(*AnnotatedType); fd.HasDefault || !ok {
		return nil
	}
	_, err := zeroFor(fd.Type, c, []*Class{c})
	if e, ok := AsError(err); ok {
		e.Class, e.Field = c.name, fd.Name
		e.Message = fmt.Sprintf("field '%s' on %s needs an explicit default: %s", fd.Name, c.name, e.Message)
		return e
	}
	return err
}

const immutableKinds = "bool, int, float, str, bytes, constrained primitives, enum members, class references, tuples"

// isMutableLiteral reports raw Go containers and typed collections or records,
// none of which may be shared as a class-level default.
func isMutableLiteral(v any) bool {
	switch v.(type) {
	case *List, *Set, *Dict, *Record:
		return true
	}
	return isRawContainer(v)
}

// sortedKeys returns the names of kw in lexical order.
func sortedKeys(kw Kwargs) []string {
	out := make([]string, 0, len(kw))
	for k := range kw {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

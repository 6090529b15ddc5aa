package schemafile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	ts "github.com/reoring/typesafe"
	"github.com/reoring/typesafe/domains"
)

// Declarations is the result of building a Document.
type Declarations struct {
	Module     string
	Registry   *ts.Registry
	Enums      map[string]*ts.Enum
	Primitives map[string]ts.PrimitiveClass
	Classes    map[string]*ts.Class

	classOrder []string
	imports    map[string]bool
	pending    map[string]bool
}

// Load parses and builds data into reg (a fresh registry when nil).
func Load(data []byte, reg *ts.Registry) (*Declarations, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Build(reg)
}

// LoadFile is Load for a file path.
func LoadFile(path string, reg *ts.Registry) (*Declarations, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return doc.Build(reg)
}

// Build declares every enum, primitive and class of the document, in that
// order, registering each in reg. Classes may refer to classes declared
// later in the document; those references resolve lazily.
func (doc *Document) Build(reg *ts.Registry) (*Declarations, error) {
	if reg == nil {
		reg = ts.NewRegistry()
	}
	d := &Declarations{
		Module:     doc.Module,
		Registry:   reg,
		Enums:      map[string]*ts.Enum{},
		Primitives: map[string]ts.PrimitiveClass{},
		Classes:    map[string]*ts.Class{},
		imports:    map[string]bool{},
		pending:    map[string]bool{},
	}
	for _, imp := range doc.Imports {
		switch imp {
		case domains.Module:
			domains.Register(reg)
		default:
			return nil, fmt.Errorf("schemafile: unknown import %q", imp)
		}
		d.imports[imp] = true
	}
	for _, e := range doc.Enums {
		if err := d.declareEnum(e); err != nil {
			return nil, err
		}
	}
	for _, p := range doc.Primitives {
		if err := d.declarePrimitive(p); err != nil {
			return nil, err
		}
	}
	for _, c := range doc.Classes {
		d.pending[c.Name] = true
	}
	for _, c := range doc.Classes {
		if err := d.declareClass(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Class returns a declared class by short or qualified name.
func (d *Declarations) Class(name string) (*ts.Class, error) {
	if c, ok := d.Classes[name]; ok {
		return c, nil
	}
	return d.Registry.Class(name)
}

// ClassNames lists declared classes in document order.
func (d *Declarations) ClassNames() []string { return append([]string(nil), d.classOrder...) }

func (d *Declarations) taken(name string) bool {
	_, e := d.Enums[name]
	_, p := d.Primitives[name]
	_, c := d.Classes[name]
	return e || p || c
}

func (d *Declarations) declareEnum(e EnumDecl) error {
	if e.Name == "" || len(e.Members) == 0 {
		return fmt.Errorf("schemafile: enum %q needs a name and members", e.Name)
	}
	if d.taken(e.Name) {
		return fmt.Errorf("schemafile: %q declared twice", e.Name)
	}
	entries := make([]ts.EnumEntry, len(e.Members))
	seen := map[string]bool{}
	for i, m := range e.Members {
		if seen[m.Name] {
			return fmt.Errorf("schemafile: enum %s: duplicate member %q", e.Name, m.Name)
		}
		seen[m.Name] = true
		v := m.Value
		if v == nil {
			v = m.Name
		}
		entries[i] = ts.EnumEntry{Name: m.Name, Value: v}
	}
	en := ts.NewEnumOf(d.Module, e.Name, entries...)
	d.Enums[e.Name] = en
	d.Registry.Register(en)
	return nil
}

func (d *Declarations) declarePrimitive(p PrimitiveDecl) error {
	if p.Name == "" {
		return fmt.Errorf("schemafile: primitive without name")
	}
	if d.taken(p.Name) {
		return fmt.Errorf("schemafile: %q declared twice", p.Name)
	}
	var base ts.PrimitiveClass
	switch p.Base {
	case "int":
		base = ts.SafeInt
	case "float":
		base = ts.SafeFloat
	case "str":
		base = ts.SafeStr
	default:
		t, err := d.lookupName(p.Base)
		if err != nil {
			return fmt.Errorf("schemafile: primitive %s: %w", p.Name, err)
		}
		pc, ok := t.(ts.PrimitiveClass)
		if !ok {
			return fmt.Errorf("schemafile: primitive %s: base %q is not a primitive", p.Name, p.Base)
		}
		base = pc
	}
	var (
		cls ts.PrimitiveClass
		err error
	)
	switch b := base.(type) {
	case *ts.IntClass:
		cls, err = intClass(d.Module, p, b)
	case *ts.FloatClass:
		cls, err = floatClass(d.Module, p, b)
	case *ts.StrClass:
		cls, err = strClass(d.Module, p, b)
	default:
		err = fmt.Errorf("unsupported base %q", p.Base)
	}
	if err != nil {
		return fmt.Errorf("schemafile: primitive %s: %w", p.Name, err)
	}
	d.Primitives[p.Name] = cls
	d.Registry.Register(cls)
	return nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func intClass(module string, p PrimitiveDecl, base *ts.IntClass) (*ts.IntClass, error) {
	var bad error
	cls := base.Derive(module, p.Name, func(c *ts.IntConstraint) {
		if p.Min != nil {
			c.Min = ts.Ptr(int64(*p.Min))
		}
		if p.Max != nil {
			c.Max = ts.Ptr(int64(*p.Max))
		}
		setBool(&c.Clamp, p.Clamp)
		setBool(&c.AllowNone, p.AllowNone)
		setBool(&c.StrictType, p.Strict)
		if p.Default != nil {
			n, ok := p.Default.(int)
			if !ok {
				bad = fmt.Errorf("default %v is not an integer", p.Default)
				return
			}
			c.Default = int64(n)
		}
	})
	return cls, bad
}

func floatClass(module string, p PrimitiveDecl, base *ts.FloatClass) (*ts.FloatClass, error) {
	var bad error
	cls := base.Derive(module, p.Name, func(c *ts.FloatConstraint) {
		if p.Min != nil {
			c.Min = ts.Ptr(*p.Min)
		}
		if p.Max != nil {
			c.Max = ts.Ptr(*p.Max)
		}
		setBool(&c.Clamp, p.Clamp)
		setBool(&c.AllowNone, p.AllowNone)
		setBool(&c.StrictType, p.Strict)
		setBool(&c.UseDecimal, p.UseDecimal)
		setBool(&c.AllowInf, p.AllowInf)
		setBool(&c.AllowNaN, p.AllowNaN)
		if p.DecimalPlaces != nil {
			c.DecimalPlaces = *p.DecimalPlaces
			c.RoundOutput = *p.DecimalPlaces > 0
		}
		setBool(&c.RoundOutput, p.RoundOutput)
		if p.Epsilon != nil {
			c.Epsilon = *p.Epsilon
		}
		switch v := p.Default.(type) {
		case nil:
		case int:
			c.Default = float64(v)
		case float64:
			c.Default = v
		default:
			bad = fmt.Errorf("default %v is not a number", p.Default)
		}
	})
	return cls, bad
}

func strClass(module string, p PrimitiveDecl, base *ts.StrClass) (*ts.StrClass, error) {
	var bad error
	cls := base.Derive(module, p.Name, func(c *ts.StrConstraint) {
		if p.MaxLength != nil {
			c.MaxLength = *p.MaxLength
		}
		setBool(&c.ExactLength, p.ExactLength)
		setBool(&c.AllowEmpty, p.AllowEmpty)
		setBool(&c.TrimWhitespace, p.Trim)
		setBool(&c.ToLowerCase, p.Lower)
		if p.Regex != nil {
			if *p.Regex == "" {
				c.Regex = nil
			} else if re, err := regexp.Compile(*p.Regex); err != nil {
				bad = fmt.Errorf("regex: %w", err)
				return
			} else {
				c.Regex = re
			}
		}
		switch strings.ToLower(p.Mode) {
		case "":
		case "replace":
			c.Mode = ts.RegexReplace
		case "strict":
			c.Mode = ts.RegexStrict
		case "match":
			c.Mode = ts.RegexMatch
		default:
			bad = fmt.Errorf("unknown regex mode %q", p.Mode)
			return
		}
		if p.Replacement != nil {
			c.ReplacementChar = *p.Replacement
		}
		if p.Default != nil {
			c.Default = fmt.Sprint(p.Default)
		}
	})
	if bad != nil {
		return nil, bad
	}
	return cls, nil
}

func (d *Declarations) declareClass(cd ClassDecl) error {
	if cd.Name == "" {
		return fmt.Errorf("schemafile: class without name")
	}
	if d.taken(cd.Name) {
		return fmt.Errorf("schemafile: %q declared twice", cd.Name)
	}
	b := ts.NewClass(d.Module, cd.Name).Registry(d.Registry)
	if cd.Extends != "" {
		parent, err := d.parentClass(cd.Extends)
		if err != nil {
			return fmt.Errorf("schemafile: class %s: %w", cd.Name, err)
		}
		b.Extends(parent)
	}
	for _, f := range cd.Fields {
		t, err := d.fieldType(f)
		if err != nil {
			return fmt.Errorf("schemafile: %s.%s: %w", cd.Name, f.Name, err)
		}
		if f.Default == nil {
			b.Field(f.Name, t)
			continue
		}
		var raw any
		if err := f.Default.Decode(&raw); err != nil {
			return fmt.Errorf("schemafile: %s.%s: default: %w", cd.Name, f.Name, err)
		}
		if raw == nil {
			b.Field(f.Name, t)
			continue
		}
		def, err := ts.Deserialize(t, raw, ts.WithRegistry(d.Registry))
		if err != nil {
			return fmt.Errorf("schemafile: %s.%s: default: %w", cd.Name, f.Name, err)
		}
		b.Field(f.Name, t, def)
	}
	keys := make([]string, 0, len(cd.Attrs))
	for k := range cd.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Attr(k, cd.Attrs[k])
	}
	c, err := b.Build()
	if err != nil {
		return fmt.Errorf("schemafile: class %s: %w", cd.Name, err)
	}
	d.Classes[cd.Name] = c
	d.classOrder = append(d.classOrder, cd.Name)
	delete(d.pending, cd.Name)
	return nil
}

func (d *Declarations) parentClass(name string) (*ts.Class, error) {
	if c, ok := d.Classes[name]; ok {
		return c, nil
	}
	if d.pending[name] {
		return nil, fmt.Errorf("base %q must be declared before its subclasses", name)
	}
	return d.Registry.Class(name)
}

func (d *Declarations) fieldType(f FieldDecl) (ts.Type, error) {
	if f.Name == "" || f.Type == "" {
		return nil, fmt.Errorf("field needs a name and a type")
	}
	e, err := ParseExpr(f.Type)
	if err != nil {
		return nil, err
	}
	t, err := d.resolve(e)
	if err != nil {
		return nil, err
	}
	if len(f.Validate) == 0 {
		return t, nil
	}
	vs := make([]ts.Validator, len(f.Validate))
	for i, src := range f.Validate {
		v, err := ts.NewExprValidator(src)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return ts.Annotated(t, vs...), nil
}

var builtins = map[string]ts.Type{
	"int":   ts.Int,
	"float": ts.Float,
	"str":   ts.Str,
	"bool":  ts.Bool,
	"bytes": ts.Bytes,
	"any":   ts.Any,
	"Self":  ts.Self,
}

// resolve maps a parsed expression to a declared type.
func (d *Declarations) resolve(e *Expr) (ts.Type, error) {
	args := make([]ts.Type, len(e.Args))
	for i, a := range e.Args {
		t, err := d.resolve(a)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d type argument(s), got %d", e.Name, n, len(args))
		}
		return nil
	}
	switch e.Name {
	case "List":
		if err := arity(1); err != nil {
			return nil, err
		}
		return ts.ListOf(args[0]), nil
	case "Set":
		if err := arity(1); err != nil {
			return nil, err
		}
		return ts.SetOf(args[0]), nil
	case "Dict":
		if err := arity(2); err != nil {
			return nil, err
		}
		return ts.DictOf(args[0], args[1]), nil
	case "Tuple":
		if len(args) == 0 {
			return nil, fmt.Errorf("Tuple needs at least one type argument")
		}
		return ts.TupleOf(args...), nil
	case "Optional":
		if err := arity(1); err != nil {
			return nil, err
		}
		return ts.Optional(args[0]), nil
	case "Union":
		if len(args) < 2 {
			return nil, fmt.Errorf("Union needs at least two type arguments")
		}
		return ts.Union(args...), nil
	case "ClassRef":
		if err := arity(1); err != nil {
			return nil, err
		}
		return ts.ClassRef(args[0]), nil
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("%s does not take type arguments", e.Name)
	}
	if t, ok := builtins[e.Name]; ok {
		return t, nil
	}
	return d.lookupName(e.Name)
}

// lookupName finds a declared, imported or registered named type. Classes
// declared later in the document become forward references.
func (d *Declarations) lookupName(name string) (ts.Type, error) {
	if t, ok := d.Enums[name]; ok {
		return t, nil
	}
	if t, ok := d.Primitives[name]; ok {
		return t, nil
	}
	if t, ok := d.Classes[name]; ok {
		return t, nil
	}
	if d.pending[name] {
		return d.Registry.Ref(d.Module + "." + name), nil
	}
	if d.imports[domains.Module] {
		if c, ok := domains.ByName(name); ok {
			return c, nil
		}
	}
	if strings.Contains(name, ".") {
		if t, ok := d.Registry.Lookup(name); ok {
			return t, nil
		}
		return d.Registry.Ref(name), nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

package typesafe

import (
	js "github.com/reoring/typesafe/jsonschema"
)

// JSONSchema projects the class into a draft 2020-12 document describing
// the trees produced by JSON(). Nested record classes live under $defs;
// references back to the root use "#". Every field is optional because
// missing keys keep their defaults on FromJSON.
func (c *Class) JSONSchema() *js.Schema {
	p := &projector{root: c, defs: map[string]*js.Schema{}}
	s := p.object(c)
	s.SchemaURI = js.Draft
	s.Title = c.QualName()
	if len(p.defs) > 0 {
		s.Defs = p.defs
	}
	return s
}

type projector struct {
	root *Class
	defs map[string]*js.Schema
}

func (p *projector) object(c *Class) *js.Schema {
	s := &js.Schema{
		Type:                 "object",
		Properties:           make(map[string]*js.Schema, len(c.fields)),
		AdditionalProperties: false,
	}
	for _, f := range c.fields {
		fs := p.project(f.Type)
		if f.HasDefault {
			if d, err := Serialize(f.Default); err == nil && d != nil {
				fs.Default = d
			}
		}
		s.Properties[f.Name] = fs
	}
	return s
}

// ref returns a $ref to c, registering its definition on first use.
func (p *projector) ref(c *Class) *js.Schema {
	if c == p.root {
		return &js.Schema{Ref: "#"}
	}
	key := c.QualName()
	if _, ok := p.defs[key]; !ok {
		p.defs[key] = &js.Schema{}
		*p.defs[key] = *p.object(c)
	}
	return &js.Schema{Ref: "#/$defs/" + key}
}

func (p *projector) project(t Type) *js.Schema {
	switch tt := deref(t).(type) {
	case *primitiveType:
		switch tt.kind {
		case KindBool:
			return &js.Schema{Type: "boolean"}
		case KindInt:
			return &js.Schema{Type: "integer"}
		case KindFloat:
			return &js.Schema{Type: "number"}
		case KindStr:
			return &js.Schema{Type: "string"}
		case KindBytes:
			return &js.Schema{Type: "string", ContentEncoding: "base64"}
		}
		return &js.Schema{}
	case *IntClass:
		return intSchema(tt)
	case *FloatClass:
		return floatSchema(tt)
	case *StrClass:
		return strSchema(tt)
	case *Enum:
		names := tt.Names()
		vals := make([]any, len(names))
		for i, n := range names {
			vals[i] = n
		}
		return &js.Schema{Type: "string", Enum: vals}
	case *Class:
		return js.Nullable(p.ref(tt))
	case *ClassRefType:
		return &js.Schema{Type: []string{"string", "null"}, Description: "class reference " + typeName(tt.Base)}
	case *OptionalType:
		return js.Nullable(p.project(tt.Inner))
	case *AnnotatedType:
		s := p.project(tt.Inner)
		if s.Description == "" && len(tt.Validators) > 0 {
			s.Description = tt.String()
		}
		return s
	case *UnionType:
		arms := make([]*js.Schema, len(tt.Arms))
		for i, a := range tt.Arms {
			arms[i] = p.project(a)
		}
		return &js.Schema{AnyOf: arms}
	case *ListType:
		return &js.Schema{Type: "array", Items: p.project(tt.Elem)}
	case *SetType:
		return &js.Schema{Type: "array", Items: p.project(tt.Elem), UniqueItems: true}
	case *DictType:
		s := &js.Schema{Type: "object", AdditionalProperties: p.project(tt.Value)}
		if k := keySchema(tt.Key); k != nil {
			s.PropertyNames = k
		}
		return s
	case *TupleType:
		n := len(tt.Elems)
		items := make([]*js.Schema, n)
		for i, e := range tt.Elems {
			items[i] = p.project(e)
		}
		return &js.Schema{Type: "array", PrefixItems: items, Items: false, MinItems: &n, MaxItems: &n}
	}
	return &js.Schema{}
}

func intSchema(c *IntClass) *js.Schema {
	k := c.Constraint()
	s := &js.Schema{Type: "integer", Title: c.Name()}
	if k.AllowNone {
		s.Type = []string{"integer", "null"}
	}
	if k.Min != nil && !k.Clamp {
		s.Minimum = Ptr(float64(*k.Min))
	}
	if k.Max != nil && !k.Clamp {
		s.Maximum = Ptr(float64(*k.Max))
	}
	return s
}

func floatSchema(c *FloatClass) *js.Schema {
	k := c.Constraint()
	s := &js.Schema{Type: "number", Title: c.Name()}
	if k.AllowNone || k.AllowNaN || k.AllowInf {
		s.Type = []string{"number", "null"}
	}
	if k.Min != nil && !k.Clamp {
		s.Minimum = Ptr(*k.Min)
	}
	if k.Max != nil && !k.Clamp {
		s.Maximum = Ptr(*k.Max)
	}
	return s
}

// strSchema projects the checks a stored value is guaranteed to satisfy.
// The sanitising regex is only a pattern in match mode.
func strSchema(c *StrClass) *js.Schema {
	k := c.Constraint()
	s := &js.Schema{Type: "string", Title: c.Name()}
	if k.MaxLength > 0 {
		s.MaxLength = Ptr(k.MaxLength)
		if k.ExactLength {
			s.MinLength = Ptr(k.MaxLength)
		}
	}
	if !k.AllowEmpty && !k.ExactLength {
		s.MinLength = Ptr(1)
	}
	if c.matchMode() {
		s.Pattern = c.full.String()
	}
	return s
}

func keySchema(t Type) *js.Schema {
	switch tt := deref(t).(type) {
	case *StrClass:
		return strSchema(tt)
	case *Enum:
		names := tt.Names()
		vals := make([]any, len(names))
		for i, n := range names {
			vals[i] = n
		}
		return &js.Schema{Enum: vals}
	}
	return nil
}

package typesafe

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// RegexMode selects how StrConstraint.Regex is applied.
type RegexMode int

const (
	// RegexReplace substitutes every match with the replacement character.
	RegexReplace RegexMode = iota
	// RegexStrict rejects values containing any match.
	RegexStrict
	// RegexMatch requires the whole value to match the pattern.
	RegexMatch
)

func (m RegexMode) String() string {
	switch m {
	case RegexStrict:
		return "strict"
	case RegexMatch:
		return "match"
	}
	return "replace"
}

// DefaultStrRegex is the character blacklist of SafeStr.
var DefaultStrRegex = regexp.MustCompile(`[^a-zA-Z0-9]`)

// StrConstraint configures a sanitised string class.
type StrConstraint struct {
	MaxLength      int  // 0 disables the length check
	ExactLength    bool // value must be exactly MaxLength long
	AllowEmpty     bool
	TrimWhitespace bool
	ToLowerCase    bool
	Regex          *regexp.Regexp
	Mode           RegexMode
	// StrictValidation treats Regex as a pattern the whole value must match,
	// the same as RegexMatch.
	StrictValidation        bool
	ReplacementChar         string
	AllowAllReplacementChar bool
	// Check runs last on the sanitised value.
	Check       func(string) error
	Default     string
	DefaultFunc func() string
}

// StrClass is a sanitised string class. Values are StrValue.
type StrClass struct {
	module, name string
	parent       *StrClass
	c            StrConstraint
	full         *regexp.Regexp
}

// SafeStr is the base sanitised string: alphanumerics only, at most 512
// characters, other characters replaced with '_'.
var SafeStr = newStrClass("typesafe", "SafeStr", nil, StrConstraint{
	MaxLength:               512,
	AllowEmpty:              true,
	Regex:                   DefaultStrRegex,
	ReplacementChar:         "_",
	AllowAllReplacementChar: true,
})

// NewStrClass declares a sanitised string class derived from SafeStr.
// A nil Regex keeps no character filter; an empty ReplacementChar becomes "_".
func NewStrClass(module, name string, c StrConstraint) *StrClass {
	return newStrClass(module, name, SafeStr, c)
}

func newStrClass(module, name string, parent *StrClass, c StrConstraint) *StrClass {
	if c.ReplacementChar == "" {
		c.ReplacementChar = "_"
	}
	cls := &StrClass{module: module, name: name, parent: parent, c: c}
	if c.Regex != nil && (c.Mode == RegexMatch || c.StrictValidation) {
		cls.full = regexp.MustCompile(`^(?:` + c.Regex.String() + `)$`)
	}
	return cls
}

// Derive declares a subclass starting from c's constraint; fn may adjust it.
func (c *StrClass) Derive(module, name string, fn func(*StrConstraint)) *StrClass {
	cons := c.c
	if fn != nil {
		fn(&cons)
	}
	return newStrClass(module, name, c, cons)
}

func (c *StrClass) Kind() Kind                { return KindSafeStr }
func (c *StrClass) String() string            { return c.name }
func (c *StrClass) Module() string            { return c.module }
func (c *StrClass) Name() string              { return c.name }
func (c *StrClass) QualName() string          { return qualName(c.module, c.name) }
func (c *StrClass) BaseKind() Kind            { return KindStr }
func (c *StrClass) Constraint() StrConstraint { return c.c }
func (c *StrClass) Zero() any                 { return c.zero() }

func (c *StrClass) NewValue(v any) (any, error) { return c.New(v) }

func (c *StrClass) Parent() PrimitiveClass {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

func (c *StrClass) matchMode() bool { return c.full != nil }

func (c *StrClass) zero() StrValue {
	def := c.c.Default
	if c.c.DefaultFunc != nil {
		def = c.c.DefaultFunc()
	}
	if v, err := c.New(def); err == nil {
		return v
	}
	return StrValue{cls: c, v: def}
}

// New runs the sanitising pipeline: empty handling, trim, lower-case, regex,
// length, all-replacement check and finally the Check hook.
func (c *StrClass) New(v any) (StrValue, error) {
	var s string
	switch t := v.(type) {
	case nil:
		if !c.c.AllowEmpty {
			return StrValue{}, constraintError(CodeValueConstraint, c.name, "Value cannot be None when allow_empty is False")
		}
		return StrValue{cls: c}, nil
	case string:
		s = t
	case StrValue:
		s = t.v
	case []byte:
		s = string(t)
	case bool:
		return StrValue{}, constraintError(CodeTypeConstraint, c.name, "%s requires a string value, got bool", c.name)
	case Constrained:
		if t.PrimitiveClass().BaseKind() == KindStr {
			s, _ = t.Primitive().(string)
			break
		}
		s = formatPrimitive(t.Primitive())
	default:
		if n, ok := toInt64(v); ok {
			s = formatPrimitive(n)
			break
		}
		if f, ok := toFloat64(v); ok {
			s = formatPrimitive(f)
			break
		}
		return StrValue{}, constraintError(CodeTypeConstraint, c.name, "%s requires a string value, got %s", c.name, valueTypeName(v))
	}
	return c.sanitise(s)
}

// MustNew is like New but panics on error.
func (c *StrClass) MustNew(v any) StrValue {
	out, err := c.New(v)
	if err != nil {
		panic(err)
	}
	return out
}

func (c *StrClass) sanitise(s string) (StrValue, error) {
	if s == "" {
		if !c.c.AllowEmpty {
			return StrValue{}, constraintError(CodeValueConstraint, c.name, "Value cannot be empty when allow_empty is False")
		}
		return StrValue{cls: c}, nil
	}
	if c.c.TrimWhitespace {
		s = strings.TrimSpace(s)
		if s == "" {
			if !c.c.AllowEmpty {
				return StrValue{}, constraintError(CodeValueConstraint, c.name, "Value cannot be empty when allow_empty is False")
			}
			return StrValue{cls: c}, nil
		}
	}
	if c.c.ToLowerCase {
		s = strings.ToLower(s)
	}
	replaced := false
	if c.c.Regex != nil {
		switch {
		case c.matchMode():
			if !c.full.MatchString(s) {
				e := constraintError(CodeValueConstraint, c.name, "in %s, value does not match required pattern: %s", c.name, c.c.Regex.String())
				e.Params = map[string]any{"pattern": c.c.Regex.String()}
				return StrValue{}, e
			}
		case c.c.Mode == RegexStrict:
			if c.c.Regex.MatchString(s) {
				e := constraintError(CodeValueConstraint, c.name, "Value contains invalid characters (must not match pattern: %s)", c.c.Regex.String())
				e.Params = map[string]any{"pattern": c.c.Regex.String()}
				return StrValue{}, e
			}
		default:
			s = c.c.Regex.ReplaceAllLiteralString(s, c.c.ReplacementChar)
			replaced = true
		}
	}
	if n := utf8.RuneCountInString(s); c.c.MaxLength > 0 {
		if c.c.ExactLength && n != c.c.MaxLength {
			e := constraintError(CodeValueConstraint, c.name, "Value must be exactly %d characters long (was %d)", c.c.MaxLength, n)
			e.Params = map[string]any{"length": c.c.MaxLength, "got": n}
			return StrValue{}, e
		}
		if n > c.c.MaxLength {
			e := constraintError(CodeValueConstraint, c.name, "Value exceeds maximum length of %d characters (was %d)", c.c.MaxLength, n)
			e.Params = map[string]any{"max": c.c.MaxLength, "got": n}
			return StrValue{}, e
		}
	}
	if replaced && !c.c.AllowAllReplacementChar && strings.Trim(s, c.c.ReplacementChar) == "" {
		return StrValue{}, constraintError(CodeValueConstraint, c.name, "Sanitized value consists entirely of '%s' characters", c.c.ReplacementChar)
	}
	if c.c.Check != nil {
		if err := c.c.Check(s); err != nil {
			if _, ok := AsError(err); ok {
				return StrValue{}, err
			}
			e := constraintError(CodeValueConstraint, c.name, "in %s, %v", c.name, err)
			e.Cause = err
			return StrValue{}, e
		}
	}
	return StrValue{cls: c, v: s}, nil
}

// StrValue is an immutable sanitised string. Equality (==) covers both the
// class and the value.
type StrValue struct {
	cls *StrClass
	v   string
}

func (x StrValue) class() *StrClass {
	if x.cls == nil {
		return SafeStr
	}
	return x.cls
}

func (x StrValue) Class() *StrClass               { return x.class() }
func (x StrValue) String() string                 { return x.v }
func (x StrValue) Primitive() any                 { return x.v }
func (x StrValue) PrimitiveClass() PrimitiveClass { return x.class() }
func (x StrValue) Len() int                       { return utf8.RuneCountInString(x.v) }

// Equal compares against another StrValue of the same class or a raw string.
func (x StrValue) Equal(o any) bool {
	switch t := o.(type) {
	case StrValue:
		return t.class() == x.class() && t.v == x.v
	case string:
		return t == x.v
	}
	return false
}

// Concat appends o and re-runs the class pipeline over the result.
func (x StrValue) Concat(o any) (StrValue, error) {
	var s string
	switch t := o.(type) {
	case string:
		s = t
	case StrValue:
		s = t.v
	default:
		e := constraintError(CodeTypeConstraint, x.class().name, "unsupported operand for %s.concat: %s", x.class().name, valueTypeName(o))
		e.Op = "concat"
		return StrValue{}, e
	}
	return x.class().sanitise(x.v + s)
}

// Upper returns the upper-cased plain string.
func (x StrValue) Upper() string { return strings.ToUpper(x.v) }

// Lower returns the lower-cased plain string.
func (x StrValue) Lower() string { return strings.ToLower(x.v) }

// Replace returns a plain string with every old replaced by repl.
func (x StrValue) Replace(old, repl string) string { return strings.ReplaceAll(x.v, old, repl) }

// HasPrefix and Contains mirror the strings package on the sanitised value.
func (x StrValue) HasPrefix(p string) bool { return strings.HasPrefix(x.v, p) }
func (x StrValue) Contains(s string) bool  { return strings.Contains(x.v, s) }

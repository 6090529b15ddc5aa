package schemafile

import (
	"fmt"
	"strings"
	"unicode"
)

// Expr is a parsed type expression: a name with optional arguments, as in
// "Dict[Id, List[int]]".
type Expr struct {
	Name string
	Args []*Expr
}

func (e *Expr) String() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Name + "[" + strings.Join(parts, ", ") + "]"
}

// ParseExpr parses the grammar
//
//	expr := name | name "[" expr { "," expr } "]"
//	name := letter { letter | digit | "_" | "." }
func ParseExpr(src string) (*Expr, error) {
	p := &exprParser{src: src}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.space()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return e, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q: at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *exprParser) space() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) expr() (*Expr, error) {
	p.space()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if unicode.IsLetter(r) || r == '_' || (p.pos > start && (unicode.IsDigit(r) || r == '.')) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		if p.pos == len(p.src) {
			return nil, p.errorf("missing type name")
		}
		return nil, p.errorf("unexpected %q", string(p.src[p.pos]))
	}
	e := &Expr{Name: p.src[start:p.pos]}
	p.space()
	if p.pos >= len(p.src) || p.src[p.pos] != '[' {
		return e, nil
	}
	p.pos++
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, arg)
		p.space()
		if p.pos >= len(p.src) {
			return nil, p.errorf("missing ']'")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return e, nil
		default:
			return nil, p.errorf("expected ',' or ']', got %q", string(p.src[p.pos]))
		}
	}
}

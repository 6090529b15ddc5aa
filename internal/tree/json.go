package tree

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// DupPolicy controls duplicate object keys.
type DupPolicy int

const (
	DupError DupPolicy = iota // first duplicate aborts decoding
	DupWarn                   // report through Options.Warn, last value wins
	DupIgnore                 // last value wins silently
)

// Options bounds decoding.
type Options struct {
	OnDuplicate DupPolicy
	MaxDepth    int   // 0 = unlimited
	MaxBytes    int64 // 0 = unlimited
	// Warn receives duplicate-key notices under DupWarn.
	Warn func(path, msg string)
}

// Error codes reported by Error.Code.
const (
	CodeParse     = "parse_error"
	CodeDuplicate = "duplicate_key"
	CodeDepth     = "max_depth"
	CodeBytes     = "max_bytes"
)

// Error describes a decoding failure at a JSON Pointer path.
type Error struct {
	Code    string
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path == "" || e.Path == "/" {
		return e.Message
	}
	return e.Message + " at " + e.Path
}

func (e *Error) Unwrap() error { return e.Cause }

type decoder struct {
	dec   *j.Decoder
	opt   Options
	depth int
}

// DecodeJSON parses data into a tree: Object for objects, []any for arrays,
// int64 for integral numbers that fit, float64 for other numbers, string,
// bool and nil. Exactly one top-level value is accepted.
func DecodeJSON(data []byte, opt Options) (any, error) {
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, &Error{Code: CodeBytes, Path: "/", Message: "input of " + strconv.Itoa(len(data)) + " bytes exceeds limit of " + strconv.FormatInt(opt.MaxBytes, 10)}
	}
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	d := &decoder{dec: dec, opt: opt}
	tok, err := d.next("")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Code: CodeParse, Path: "/", Message: "empty input", Cause: err}
		}
		return nil, err
	}
	v, err := d.value(tok, "")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &Error{Code: CodeParse, Path: "/", Message: "unexpected data after top-level value", Cause: err}
	}
	return v, nil
}

func (d *decoder) next(path string) (j.Token, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, &Error{Code: CodeParse, Path: pointer(path), Message: err.Error(), Cause: err}
	}
	return tok, nil
}

func (d *decoder) value(tok j.Token, path string) (any, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return d.object(path)
		case '[':
			return d.array(path)
		}
		return nil, &Error{Code: CodeParse, Path: pointer(path), Message: "unexpected delimiter " + v.String()}
	case j.Number:
		return Number(string(v)), nil
	case string, bool, nil:
		return v, nil
	case float64:
		return v, nil
	}
	return nil, &Error{Code: CodeParse, Path: pointer(path), Message: "unexpected token"}
}

func (d *decoder) enter(path string) error {
	d.depth++
	if d.opt.MaxDepth > 0 && d.depth > d.opt.MaxDepth {
		return &Error{Code: CodeDepth, Path: pointer(path), Message: "max depth " + strconv.Itoa(d.opt.MaxDepth) + " exceeded"}
	}
	return nil
}

func (d *decoder) object(path string) (any, error) {
	if err := d.enter(path); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()
	out := Object{}
	seen := map[string]struct{}{}
	for {
		tok, err := d.next(path)
		if err != nil {
			return nil, eofAsParse(err, path)
		}
		if delim, ok := tok.(j.Delim); ok && delim == '}' {
			return out, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, &Error{Code: CodeParse, Path: pointer(path), Message: "expected object key"}
		}
		kpath := Join(path, key)
		if _, dup := seen[key]; dup {
			msg := "key '" + key + "' duplicated"
			switch d.opt.OnDuplicate {
			case DupError:
				return nil, &Error{Code: CodeDuplicate, Path: pointer(kpath), Message: msg}
			case DupWarn:
				if d.opt.Warn != nil {
					d.opt.Warn(pointer(kpath), msg)
				}
			}
		}
		seen[key] = struct{}{}
		vt, err := d.next(kpath)
		if err != nil {
			return nil, eofAsParse(err, kpath)
		}
		v, err := d.value(vt, kpath)
		if err != nil {
			return nil, err
		}
		out.Set(key, v)
	}
}

func (d *decoder) array(path string) (any, error) {
	if err := d.enter(path); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()
	out := []any{}
	for i := 0; ; i++ {
		ipath := Join(path, strconv.Itoa(i))
		tok, err := d.next(ipath)
		if err != nil {
			return nil, eofAsParse(err, path)
		}
		if delim, ok := tok.(j.Delim); ok && delim == ']' {
			return out, nil
		}
		v, err := d.value(tok, ipath)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func eofAsParse(err error, path string) error {
	if errors.Is(err, io.EOF) {
		return &Error{Code: CodeParse, Path: pointer(path), Message: "unexpected end of input", Cause: err}
	}
	return err
}

// Number converts a JSON number literal: integral literals that fit become
// int64, everything else float64.
func Number(s string) any {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !math.IsInf(f, 0) {
		return s
	}
	return f
}

// EncodeJSON renders a tree; Objects keep their member order. Indented
// output uses two spaces.
func EncodeJSON(v any, indent bool) ([]byte, error) {
	out, err := j.Marshal(v)
	if err != nil || !indent {
		return out, err
	}
	var buf bytes.Buffer
	if err := j.Indent(&buf, out, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Join appends one reference token to a JSON Pointer.
func Join(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

package typesafe

import (
	"fmt"
	"strconv"

	"github.com/reoring/typesafe/internal/tree"
)

// PathRef locates a value inside an interchange tree and stamps errors
// raised there.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Error(code, msg string, kv ...any) *Error
}

// RootPath returns the path of the document itself ("/").
func RootPath() PathRef { return pointerPath("") }

// pointerPath is an RFC 6901 pointer; the empty string is the root.
type pointerPath string

func (p pointerPath) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return pointerPath(tree.Join(string(p), name))
}

func (p pointerPath) Index(i int) PathRef {
	return pointerPath(tree.Join(string(p), strconv.Itoa(i)))
}

func (p pointerPath) Pointer() string {
	if p == "" {
		return "/"
	}
	return string(p)
}

// Error builds an Error at p; kv alternates parameter names and values.
func (p pointerPath) Error(code, msg string, kv ...any) *Error {
	var params map[string]any
	if len(kv) > 1 {
		params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			params[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return &Error{Path: p.Pointer(), Code: code, Message: msg, Params: params}
}

package typesafe

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/reoring/typesafe/internal/tree"
)

// Bytes encodes the record as compact JSON with fields in declaration order.
func (r *Record) Bytes() ([]byte, error) {
	v, err := serializeRecord(r, newWalk(true))
	if err != nil {
		return nil, err
	}
	return tree.EncodeJSON(v, false)
}

// BytesGz is Bytes compressed with gzip.
func (r *Record) BytesGz() ([]byte, error) {
	raw, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// YAML encodes the record as a YAML mapping in declaration order.
func (r *Record) YAML() ([]byte, error) {
	v, err := serializeRecord(r, newWalk(true))
	if err != nil {
		return nil, err
	}
	return tree.EncodeYAML(v)
}

// Print writes indented JSON followed by a newline.
func (r *Record) Print(w io.Writer) error {
	v, err := serializeRecord(r, newWalk(true))
	if err != nil {
		return err
	}
	out, err := tree.EncodeJSON(v, true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

// FromBytes decodes JSON produced by Bytes (or any compatible document).
func FromBytes(c *Class, data []byte, opts ...FromJSONOption) (*Record, error) {
	return FromJSON(c, data, opts...)
}

// FromBytesGz decompresses gzip input and decodes it with FromBytes.
func FromBytesGz(c *Class, data []byte, opts ...FromJSONOption) (*Record, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Code: CodeParseError, Path: "/", Message: "invalid gzip stream: " + err.Error(), Cause: err}
	}
	defer zr.Close()
	cfg := newDecodeConfig(c, opts)
	var src io.Reader = zr
	if cfg.tree.MaxBytes > 0 {
		src = io.LimitReader(zr, cfg.tree.MaxBytes+1)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, &Error{Code: CodeParseError, Path: "/", Message: "invalid gzip stream: " + err.Error(), Cause: err}
	}
	return FromBytes(c, raw, opts...)
}

// FromYAML decodes a YAML document into an instance of c.
func FromYAML(c *Class, data []byte, opts ...FromJSONOption) (*Record, error) {
	cfg := newDecodeConfig(c, opts)
	raw, err := tree.DecodeYAML(data, cfg.tree)
	if err != nil {
		return nil, treeError(err)
	}
	return cfg.record(c, raw, RootPath(), 0)
}

// treeError maps decoder failures onto framework codes.
func treeError(err error) error {
	if err == nil {
		return nil
	}
	var te *tree.Error
	if !errors.As(err, &te) {
		return &Error{Code: CodeParseError, Path: "/", Message: err.Error(), Cause: err}
	}
	code := CodeParseError
	switch te.Code {
	case tree.CodeDuplicate:
		code = CodeDuplicateKey
	case tree.CodeDepth, tree.CodeBytes:
		code = CodeLimit
	}
	return &Error{Code: code, Path: te.Path, Message: te.Message, Cause: err}
}

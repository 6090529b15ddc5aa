package tree

import (
	"bytes"
	"encoding/base64"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a single YAML document into the same tree shape as
// DecodeJSON. Anchors and aliases are expanded; !!binary scalars stay as
// their base64 text.
func DecodeYAML(data []byte, opt Options) (any, error) {
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, &Error{Code: CodeBytes, Path: "/", Message: "input of " + strconv.Itoa(len(data)) + " bytes exceeds limit of " + strconv.FormatInt(opt.MaxBytes, 10)}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Code: CodeParse, Path: "/", Message: err.Error(), Cause: err}
	}
	if doc.Kind == 0 {
		return nil, &Error{Code: CodeParse, Path: "/", Message: "empty input"}
	}
	return fromNode(&doc, "", 0, opt)
}

func fromNode(n *yaml.Node, path string, depth int, opt Options) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0], path, depth, opt)
	case yaml.AliasNode:
		return fromNode(n.Alias, path, depth, opt)
	case yaml.MappingNode:
		if opt.MaxDepth > 0 && depth+1 > opt.MaxDepth {
			return nil, &Error{Code: CodeDepth, Path: pointer(path), Message: "max depth " + strconv.Itoa(opt.MaxDepth) + " exceeded"}
		}
		out := Object{}
		seen := map[string]struct{}{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			key := k.Value
			kpath := Join(path, key)
			if _, dup := seen[key]; dup {
				msg := "key '" + key + "' duplicated"
				switch opt.OnDuplicate {
				case DupError:
					return nil, &Error{Code: CodeDuplicate, Path: pointer(kpath), Message: msg}
				case DupWarn:
					if opt.Warn != nil {
						opt.Warn(pointer(kpath), msg)
					}
				}
			}
			seen[key] = struct{}{}
			val, err := fromNode(v, kpath, depth+1, opt)
			if err != nil {
				return nil, err
			}
			out.Set(key, val)
		}
		return out, nil
	case yaml.SequenceNode:
		if opt.MaxDepth > 0 && depth+1 > opt.MaxDepth {
			return nil, &Error{Code: CodeDepth, Path: pointer(path), Message: "max depth " + strconv.Itoa(opt.MaxDepth) + " exceeded"}
		}
		out := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := fromNode(c, Join(path, strconv.Itoa(i)), depth+1, opt)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		return scalar(n, path)
	}
	return nil, &Error{Code: CodeParse, Path: pointer(path), Message: "unsupported YAML node"}
}

func scalar(n *yaml.Node, path string) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, &Error{Code: CodeParse, Path: pointer(path), Message: err.Error(), Cause: err}
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			var f float64
			if ferr := n.Decode(&f); ferr == nil {
				return f, nil
			}
			return nil, &Error{Code: CodeParse, Path: pointer(path), Message: err.Error(), Cause: err}
		}
		return i, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, &Error{Code: CodeParse, Path: pointer(path), Message: err.Error(), Cause: err}
		}
		return f, nil
	case "!!binary":
		return strings.Join(strings.Fields(n.Value), ""), nil
	}
	return n.Value, nil
}

// EncodeYAML renders a tree as a YAML document keeping Object member order.
func EncodeYAML(v any) ([]byte, error) {
	node, err := toNode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range t {
			val, err := toNode(m.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key}, val)
		}
		return n, nil
	case map[string]any:
		members, _ := Members(t)
		return toNode(Object(members))
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, x := range t {
			c, err := toNode(x)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(t)}, nil
	case []byte:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(t)}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

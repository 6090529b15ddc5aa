// Package typesafe provides:
//
// - Declarative record classes whose fields are typed and checked on construction and on every assignment
// - Constrained primitives (bounded ints, bounded floats with exact-decimal arithmetic, sanitised strings)
// - Typed collections (List, Set, Dict, Tuple) that check every mutation
// - Lossless interchange between a record graph and a JSON-compatible tree (JSON, YAML, gzip bytes)
// - A stable error model via *Error (kind code, path, class, field, expected/actual types)
//
// Design policy:
// - Keep the public API in the root package; put interchange plumbing under internal/.
// - Place YAML declarations under schemafile/, ready-made classes under domains/, and the CLI under cmd/typesafe.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	var Point = typesafe.NewClass("geo", "Point").
//		Field("x", typesafe.Int).
//		Field("y", typesafe.Int, int64(1)).
//		MustBuild()
//
//	p, err := typesafe.New(Point, typesafe.Kwargs{"x": 10})
//	err = p.Set("y", "oops")                  // FieldTypeError
//	tree, err := p.JSON()                      // {"x": 10, "y": 1}
//	q, err := typesafe.FromJSON(Point, tree)   // round-trip
package typesafe

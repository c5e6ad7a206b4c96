// Package refcodec serializes arbitrary Go value graphs, including shared
// and cyclic references, into a self-describing tree and rebuilds graphs
// that are isomorphic to the original.
//
// Encoding happens in two steps. Encode walks a value graph and produces a
// Document: a tree of tagged Nodes in which every composite (pointer, map,
// slice, struct, Record, Set, Map, time, regexp, buffer) carries a
// reference id. The first time a composite is reached in pre-order it is
// emitted in full; every later encounter, including a cycle back to an
// enclosing value, becomes a ref node naming that id. Decode reverses the
// process, registering each composite before visiting its children so that
// refs resolve to the very same instance.
//
// Both walks use an explicit work stack rather than recursion, bounded by
// DefaultMaxDepth (configurable with WithMaxDepth); deeper graphs fail with
// ErrRecursionLimit instead of exhausting the goroutine stack.
//
// A Transport renders a Document as bytes. JSONTransport, CBORTransport and
// YAMLTransport are provided; Marshal and Unmarshal combine both steps:
//
//	shared := refcodec.NewRecord()
//	root := []any{shared, shared}
//	data, _ := refcodec.Marshal(root)
//	v, _ := refcodec.Unmarshal(data)
//	out := v.([]any)
//	// out[0] == out[1], the same *Record
//
// Decoded values use a fixed set of Go types (see Decoder). Ordered maps
// with arbitrary keys are represented by Map, insertion-ordered sets by Set
// and string-keyed records by Record.
package refcodec

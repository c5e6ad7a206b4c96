package refcodec

import "strconv"

// Node is one tagged value of a Document. Only the payload fields that
// belong to Kind are meaningful:
//
//	Bool    boolean, boolean-boxed
//	Number  number, number-boxed
//	Text    string, bigint, symbol, string-boxed, date, pattern, ref (target id)
//	Items   sequence, collection
//	Fields  record
//	Pairs   association
//	Element, Values  buffer
//
// ID is set on composite kinds only.
type Node struct {
	Kind    Kind
	ID      string
	Bool    bool
	Number  float64
	Text    string
	Element ElementKind
	Items   []*Node
	Fields  []Field
	Pairs   []Pair
	Values  []float64
}

// Field is one entry of a record node.
type Field struct {
	Key   string
	Value *Node
}

// Pair is one entry of an association node.
type Pair struct {
	Key   *Node
	Value *Node
}

// Document is the intermediate form produced by Encode and consumed by Decode.
type Document struct {
	Root *Node
}

// ============================================================
// Constructors
// ============================================================

func NullNode() *Node            { return &Node{Kind: KindNull} }
func UndefinedNode() *Node       { return &Node{Kind: KindUndefined} }
func BoolNode(v bool) *Node      { return &Node{Kind: KindBool, Bool: v} }
func NumberNode(v float64) *Node { return &Node{Kind: KindNumber, Number: v} }
func StringNode(v string) *Node  { return &Node{Kind: KindString, Text: v} }

// BigIntNode creates a big integer node from its decimal text.
func BigIntNode(decimal string) *Node {
	return &Node{Kind: KindBigInt, Text: decimal}
}

func SymbolNode(description string) *Node {
	return &Node{Kind: KindSymbol, Text: description}
}

// RefNode creates a placeholder that resolves to the composite registered under id.
func RefNode(id string) *Node { return &Node{Kind: KindRef, Text: id} }

func BoxedBoolNode(id string, v bool) *Node {
	return &Node{Kind: KindBoxedBool, ID: id, Bool: v}
}

func BoxedNumberNode(id string, v float64) *Node {
	return &Node{Kind: KindBoxedNumber, ID: id, Number: v}
}

func BoxedStringNode(id string, v string) *Node {
	return &Node{Kind: KindBoxedString, ID: id, Text: v}
}

// DateNode creates a date node from RFC 3339 text.
func DateNode(id, text string) *Node {
	return &Node{Kind: KindDate, ID: id, Text: text}
}

// PatternNode creates a pattern node from regexp source.
func PatternNode(id, source string) *Node {
	return &Node{Kind: KindPattern, ID: id, Text: source}
}

func SequenceNode(id string, items ...*Node) *Node {
	return &Node{Kind: KindSequence, ID: id, Items: items}
}

func RecordNode(id string, fields ...Field) *Node {
	return &Node{Kind: KindRecord, ID: id, Fields: fields}
}

func CollectionNode(id string, items ...*Node) *Node {
	return &Node{Kind: KindCollection, ID: id, Items: items}
}

func AssociationNode(id string, pairs ...Pair) *Node {
	return &Node{Kind: KindAssociation, ID: id, Pairs: pairs}
}

func BufferNode(id string, elem ElementKind, values ...float64) *Node {
	return &Node{Kind: KindBuffer, ID: id, Element: elem, Values: values}
}

// ============================================================
// Children
// ============================================================

// childCount returns the number of child nodes. Association pairs count twice,
// key then value.
func (n *Node) childCount() int {
	switch n.Kind {
	case KindSequence, KindCollection:
		return len(n.Items)
	case KindRecord:
		return len(n.Fields)
	case KindAssociation:
		return 2 * len(n.Pairs)
	}
	return 0
}

func (n *Node) child(i int) *Node {
	switch n.Kind {
	case KindSequence, KindCollection:
		return n.Items[i]
	case KindRecord:
		return n.Fields[i].Value
	case KindAssociation:
		if i%2 == 0 {
			return n.Pairs[i/2].Key
		}
		return n.Pairs[i/2].Value
	}
	return nil
}

func (n *Node) setChild(i int, c *Node) {
	switch n.Kind {
	case KindSequence, KindCollection:
		n.Items[i] = c
	case KindRecord:
		n.Fields[i].Value = c
	case KindAssociation:
		if i%2 == 0 {
			n.Pairs[i/2].Key = c
		} else {
			n.Pairs[i/2].Value = c
		}
	}
}

// childLabel renders the path segment of child i, used in error messages.
func (n *Node) childLabel(i int) string {
	switch n.Kind {
	case KindRecord:
		return "." + n.Fields[i].Key
	case KindAssociation:
		if i%2 == 0 {
			return "<key " + strconv.Itoa(i/2) + ">"
		}
		return "<value " + strconv.Itoa(i/2) + ">"
	case KindCollection:
		return "#" + strconv.Itoa(i)
	}
	return "[" + strconv.Itoa(i) + "]"
}

// ============================================================
// Stats
// ============================================================

// Stats summarizes the shape of a Document.
type Stats struct {
	Nodes      int
	Composites int
	Refs       int
	MaxDepth   int
	ByKind     map[string]int
}

// Stats walks the document without recursion and counts its nodes.
// Buffers are counted under their element discriminant.
func (d *Document) Stats() Stats {
	st := Stats{ByKind: make(map[string]int)}
	if d == nil || d.Root == nil {
		return st
	}

	type item struct {
		node  *Node
		depth int
	}
	stack := []item{{d.Root, 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := it.node
		if n == nil {
			continue
		}

		st.Nodes++
		st.MaxDepth = max(st.MaxDepth, it.depth)
		if n.Kind == KindBuffer {
			st.ByKind[n.Element.String()]++
		} else {
			st.ByKind[n.Kind.String()]++
		}
		if n.Kind.IsComposite() {
			st.Composites++
		}
		if n.Kind == KindRef {
			st.Refs++
		}
		for i := n.childCount() - 1; i >= 0; i-- {
			stack = append(stack, item{n.child(i), it.depth + 1})
		}
	}
	return st
}

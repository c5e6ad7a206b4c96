package refcodec

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultMaxDepth bounds how deeply Encode and Decode nest composites.
const DefaultMaxDepth = 10000

// Encoder converts Go value graphs into Documents.
//
// An Encoder holds configuration only; each Encode call owns its reference
// table, so a configured Encoder may be shared between goroutines.
type Encoder struct {
	maxDepth int
	ids      IDScheme
	logger   *log.Logger
}

// NewEncoder creates an Encoder with DefaultMaxDepth and counter ids.
func NewEncoder() *Encoder {
	return &Encoder{maxDepth: DefaultMaxDepth, ids: IDCounter}
}

// WithMaxDepth sets the maximum nesting depth of composites and returns
// the Encoder for chaining. n <= 0 removes the bound.
func (e *Encoder) WithMaxDepth(n int) *Encoder {
	e.maxDepth = n
	return e
}

// WithIDScheme selects how reference ids are minted.
func (e *Encoder) WithIDScheme(s IDScheme) *Encoder {
	e.ids = s
	return e
}

// WithLogger enables debug logging of each Encode call. A nil logger disables it.
func (e *Encoder) WithLogger(l *log.Logger) *Encoder {
	e.logger = l
	return e
}

// Encode converts v into a Document with default settings.
func Encode(v any) (*Document, error) {
	return NewEncoder().Encode(v)
}

// Encode walks the graph reachable from v and returns its Document. Every
// composite is emitted in full the first time it is reached in pre-order and
// as a ref node on every later encounter, so shared and cyclic structure is
// preserved and the walk terminates.
func (e *Encoder) Encode(v any) (*Document, error) {
	s := &encodeState{
		maxDepth: depthLimit(e.maxDepth),
		table:    newEncodeTable(e.ids),
	}
	root, err := s.run(reflect.ValueOf(v))
	if err != nil {
		if e.logger != nil {
			e.logger.Debug("encode failed", "err", err)
		}
		return nil, err
	}
	if e.logger != nil {
		e.logger.Debug("encoded document", "composites", s.table.Len(), "refs", s.refs, "depth", s.deepest)
	}
	return &Document{Root: root}, nil
}

// encodeFrame is a container node whose children are still being visited.
type encodeFrame struct {
	node     *Node
	children []reflect.Value
	next     int
	members  mapset.Set[any] // collections and associations
}

// admit rejects a collection member or association key that decodes equal
// to an earlier one, such as int 1 and float64 1 keys of a map[any]V.
func (f *encodeFrame) admit(i int, n *Node) error {
	switch {
	case f.node.Kind == KindCollection:
	case f.node.Kind == KindAssociation && i%2 == 0:
	default:
		return nil
	}
	key, ok := memberOfNode(n)
	if !ok {
		return nil
	}
	if f.members == nil {
		f.members = mapset.NewThreadUnsafeSet[any]()
	}
	if !f.members.Add(key) {
		return fmt.Errorf("%w: %s member equals an earlier member", ErrUnsupportedValueKind, n.Kind)
	}
	return nil
}

type refKey string

// memberOfNode is the Set/Map equality key of the value n decodes to.
// Symbols and bigints always decode to fresh instances and have none.
func memberOfNode(n *Node) (any, bool) {
	switch n.Kind {
	case KindNull:
		return nil, true
	case KindUndefined:
		return Undefined, true
	case KindBool:
		return n.Bool, true
	case KindNumber:
		if math.IsNaN(n.Number) {
			return nanKey{}, true
		}
		return n.Number, true
	case KindString:
		return n.Text, true
	case KindRef:
		return refKey(n.Text), true
	}
	if n.Kind.IsComposite() {
		return refKey(n.ID), true
	}
	return nil, false
}

type encodeState struct {
	maxDepth int
	table    *encodeTable
	stack    []*encodeFrame
	refs     int
	deepest  int
}

func (s *encodeState) run(root reflect.Value) (*Node, error) {
	node, frame, err := s.visit(root)
	if err != nil {
		return nil, s.locate(err)
	}
	if err := s.push(frame); err != nil {
		return nil, err
	}

	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		if top.next == len(top.children) {
			s.stack = s.stack[:len(s.stack)-1]
			continue
		}
		i := top.next
		top.next++

		child, frame, err := s.visit(top.children[i])
		if err != nil {
			return nil, s.locate(err)
		}
		if err := top.admit(i, child); err != nil {
			return nil, s.locate(err)
		}
		top.node.setChild(i, child)
		if err := s.push(frame); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (s *encodeState) push(f *encodeFrame) error {
	if f == nil {
		return nil
	}
	if len(s.stack) >= s.maxDepth {
		return s.locate(fmt.Errorf("%w: more than %d nested composites", ErrRecursionLimit, s.maxDepth))
	}
	s.stack = append(s.stack, f)
	s.deepest = max(s.deepest, len(s.stack))
	return nil
}

// locate appends the path of the child being visited to err.
func (s *encodeState) locate(err error) error {
	var b strings.Builder
	b.WriteString("$")
	for _, f := range s.stack {
		b.WriteString(f.node.childLabel(f.next - 1))
	}
	return fmt.Errorf("%w (at %s)", err, b.String())
}

// visit builds the node for v. Containers are returned with empty child
// slots and a frame listing the values that fill them.
func (s *encodeState) visit(v reflect.Value) (*Node, *encodeFrame, error) {
	c, v := classify(v)
	switch c.kind {
	case KindNull:
		return NullNode(), nil, nil
	case KindUndefined:
		return UndefinedNode(), nil, nil
	case KindBool:
		return BoolNode(v.Bool()), nil, nil
	case KindNumber:
		f, ok := numberOf(v)
		if !ok {
			return BigIntNode(integerOf(v).String()), nil, nil
		}
		return NumberNode(f), nil, nil
	case KindString:
		return StringNode(v.String()), nil, nil
	case KindBigInt:
		return BigIntNode(bigIntOf(v).String()), nil, nil
	case KindSymbol:
		return SymbolNode(v.Interface().(*Symbol).description), nil, nil
	case KindUnsupported:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedValueKind, c.reason)
	case KindBoxedNumber:
		if _, ok := numberOf(v.Elem()); !ok {
			return nil, nil, fmt.Errorf("%w: boxed %s %d is not exact as a number", ErrUnsupportedValueKind, v.Elem().Type(), integerOf(v.Elem()))
		}
	}

	h, tracked := identityOf(v)
	if tracked {
		if id, ok := s.table.lookup(h); ok {
			s.refs++
			return RefNode(id), nil, nil
		}
	}
	id := s.table.mint()
	if tracked {
		s.table.insert(h, id)
	}
	node, children := composite(c, v, id)
	if len(children) == 0 {
		return node, nil, nil
	}
	return node, &encodeFrame{node: node, children: children}, nil
}

// composite builds a composite node and lists the values of its children.
func composite(c *class, v reflect.Value, id string) (*Node, []reflect.Value) {
	switch c.kind {
	case KindBoxedBool:
		return BoxedBoolNode(id, v.Elem().Bool()), nil
	case KindBoxedNumber:
		f, _ := numberOf(v.Elem())
		return BoxedNumberNode(id, f), nil
	case KindBoxedString:
		return BoxedStringNode(id, v.Elem().String()), nil
	case KindDate:
		return DateNode(id, timeOf(v).Format(time.RFC3339Nano)), nil
	case KindPattern:
		return PatternNode(id, v.Interface().(*regexp.Regexp).String()), nil
	case KindBuffer:
		return BufferNode(id, c.elem, bufferValues(v, c.elem)...), nil
	case KindSequence:
		children := make([]reflect.Value, v.Len())
		for i := range children {
			children[i] = v.Index(i)
		}
		return &Node{Kind: KindSequence, ID: id, Items: make([]*Node, len(children))}, children
	case KindCollection:
		items := v.Interface().(*Set).items
		children := make([]reflect.Value, len(items))
		for i, item := range items {
			children[i] = reflect.ValueOf(item)
		}
		return &Node{Kind: KindCollection, ID: id, Items: make([]*Node, len(children))}, children
	case KindRecord:
		return recordOf(c, v, id)
	case KindAssociation:
		return associationOf(v, id)
	}
	panic("refcodec: unreachable kind " + c.kind.String())
}

func recordOf(c *class, v reflect.Value, id string) (*Node, []reflect.Value) {
	node := &Node{Kind: KindRecord, ID: id}
	var children []reflect.Value
	switch {
	case v.Type() == typeRecord:
		r := v.Interface().(*Record)
		for _, k := range r.keys {
			node.Fields = append(node.Fields, Field{Key: k})
			children = append(children, reflect.ValueOf(r.values[k]))
		}
	case v.Kind() == reflect.Map:
		// Go maps have no order; sorting keys keeps output deterministic.
		keys := v.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) })
		for _, k := range keys {
			node.Fields = append(node.Fields, Field{Key: k.String()})
			children = append(children, v.MapIndex(k))
		}
	default:
		if v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		for _, f := range c.fields {
			node.Fields = append(node.Fields, Field{Key: f.name})
			children = append(children, v.Field(f.index))
		}
	}
	return node, children
}

func associationOf(v reflect.Value, id string) (*Node, []reflect.Value) {
	node := &Node{Kind: KindAssociation, ID: id}
	var children []reflect.Value
	if v.Type() == typeMap {
		m := v.Interface().(*Map)
		for i, k := range m.keys {
			node.Pairs = append(node.Pairs, Pair{})
			children = append(children, reflect.ValueOf(k), reflect.ValueOf(m.values[i]))
		}
		return node, children
	}

	type entry struct {
		text string
		k, v reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	for it := v.MapRange(); it.Next(); {
		entries = append(entries, entry{fmt.Sprint(it.Key().Interface()), it.Key(), it.Value()})
	}
	slices.SortStableFunc(entries, func(a, b entry) int { return cmp.Compare(a.text, b.text) })
	for _, e := range entries {
		node.Pairs = append(node.Pairs, Pair{})
		children = append(children, e.k, e.v)
	}
	return node, children
}

func bigIntOf(v reflect.Value) *big.Int {
	if v.Kind() == reflect.Pointer {
		return v.Interface().(*big.Int)
	}
	b := v.Interface().(big.Int)
	return &b
}

func timeOf(v reflect.Value) time.Time {
	if v.Kind() == reflect.Pointer {
		return *v.Interface().(*time.Time)
	}
	return v.Interface().(time.Time)
}

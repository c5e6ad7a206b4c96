package refcodec

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Decoder rebuilds Go value graphs from Documents.
//
// Decoded values use these types:
//
//	null               nil
//	undefined          Undefined
//	boolean            bool
//	number             float64
//	string             string
//	bigint             *big.Int
//	symbol             *Symbol (always a fresh one)
//	boolean-boxed      *bool
//	number-boxed       *float64
//	string-boxed       *string
//	date               *time.Time
//	pattern            *regexp.Regexp
//	sequence           []any
//	record             *Record
//	collection         *Set
//	association        *Map
//	buffers            see newBuffer
//
// A ref resolves to the very instance decoded for its target id.
type Decoder struct {
	maxDepth int
	logger   *log.Logger
}

// NewDecoder creates a Decoder with DefaultMaxDepth.
func NewDecoder() *Decoder {
	return &Decoder{maxDepth: DefaultMaxDepth}
}

// WithMaxDepth sets the maximum nesting depth of containers and returns
// the Decoder for chaining. n <= 0 removes the bound.
func (d *Decoder) WithMaxDepth(n int) *Decoder {
	d.maxDepth = n
	return d
}

// WithLogger enables debug logging of each Decode call. A nil logger disables it.
func (d *Decoder) WithLogger(l *log.Logger) *Decoder {
	d.logger = l
	return d
}

// Decode rebuilds the value graph of doc with default settings.
func Decode(doc *Document) (any, error) {
	return NewDecoder().Decode(doc)
}

// Decode rebuilds the value graph of doc. Each composite is allocated and
// registered under its id before its children are decoded, so refs to an
// enclosing container (cycles) resolve to the container itself.
func (d *Decoder) Decode(doc *Document) (any, error) {
	if doc == nil || doc.Root == nil {
		return nil, ErrNilDocument
	}
	s := &decodeState{
		maxDepth: depthLimit(d.maxDepth),
		table:    newDecodeTable(),
	}
	v, err := s.run(doc.Root)
	if err != nil {
		if d.logger != nil {
			d.logger.Debug("decode failed", "err", err)
		}
		return nil, err
	}
	if d.logger != nil {
		d.logger.Debug("decoded document", "instances", s.table.Len(), "refs", s.refs, "depth", s.deepest)
	}
	return v, nil
}

// decodeFrame is a container instance whose children are still being decoded.
type decodeFrame struct {
	node *Node
	next int
	fill func(i int, v any) error
}

type decodeState struct {
	maxDepth int
	table    *decodeTable
	stack    []*decodeFrame
	refs     int
	deepest  int
}

func (s *decodeState) run(root *Node) (any, error) {
	v, frame, err := s.materialize(root)
	if err != nil {
		return nil, s.locate(err)
	}
	if err := s.push(frame); err != nil {
		return nil, err
	}

	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		if top.next == top.node.childCount() {
			s.stack = s.stack[:len(s.stack)-1]
			continue
		}
		i := top.next
		top.next++

		child, frame, err := s.materialize(top.node.child(i))
		if err != nil {
			return nil, s.locate(err)
		}
		if err := top.fill(i, child); err != nil {
			return nil, s.locate(err)
		}
		if err := s.push(frame); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (s *decodeState) push(f *decodeFrame) error {
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

func (s *decodeState) locate(err error) error {
	var b strings.Builder
	b.WriteString("$")
	for _, f := range s.stack {
		b.WriteString(f.node.childLabel(f.next - 1))
	}
	return fmt.Errorf("%w (at %s)", err, b.String())
}

// materialize produces the value of n. Containers are returned empty,
// already registered, with a frame that fills them child by child.
func (s *decodeState) materialize(n *Node) (any, *decodeFrame, error) {
	if n == nil {
		return nil, nil, fmt.Errorf("%w: missing node", ErrMalformedNode)
	}

	switch n.Kind {
	case KindNull:
		return nil, nil, nil
	case KindUndefined:
		return Undefined, nil, nil
	case KindBool:
		return n.Bool, nil, nil
	case KindNumber:
		return n.Number, nil, nil
	case KindString:
		return n.Text, nil, nil
	case KindBigInt:
		b, ok := new(big.Int).SetString(n.Text, 10)
		if !ok {
			return nil, nil, fmt.Errorf("%w: invalid bigint %q", ErrMalformedNode, n.Text)
		}
		return b, nil, nil
	case KindSymbol:
		return NewSymbol(n.Text), nil, nil
	case KindRef:
		v, err := s.table.resolve(n.Text)
		if err != nil {
			return nil, nil, err
		}
		s.refs++
		return v, nil, nil
	}

	if !n.Kind.IsComposite() {
		return nil, nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedNode, n.Kind)
	}
	v, frame, err := allocate(n)
	if err != nil {
		return nil, nil, err
	}
	if err := s.table.register(n.ID, v); err != nil {
		return nil, nil, err
	}
	if frame != nil && n.childCount() == 0 {
		frame = nil
	}
	return v, frame, nil
}

// allocate creates the instance for a composite node. Leaf composites are
// complete on return; containers come back empty with their fill frame.
func allocate(n *Node) (any, *decodeFrame, error) {
	switch n.Kind {
	case KindBoxedBool:
		return Ptr(n.Bool), nil, nil
	case KindBoxedNumber:
		return Ptr(n.Number), nil, nil
	case KindBoxedString:
		return Ptr(n.Text), nil, nil
	case KindDate:
		t, err := time.Parse(time.RFC3339Nano, n.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid date %q", ErrMalformedNode, n.Text)
		}
		return &t, nil, nil
	case KindPattern:
		re, err := regexp.Compile(n.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid pattern %q: %v", ErrMalformedNode, n.Text, err)
		}
		return re, nil, nil
	case KindBuffer:
		b, err := newBuffer(n.Element, n.Values)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	case KindSequence:
		// The slice is allocated at full length so refs share its backing array.
		seq := make([]any, len(n.Items))
		return seq, &decodeFrame{node: n, fill: func(i int, v any) error {
			seq[i] = v
			return nil
		}}, nil
	case KindRecord:
		r := NewRecord()
		return r, &decodeFrame{node: n, fill: func(i int, v any) error {
			key := n.Fields[i].Key
			if _, dup := r.Get(key); dup {
				return fmt.Errorf("%w: duplicate record key %q", ErrMalformedNode, key)
			}
			r.Set(key, v)
			return nil
		}}, nil
	case KindCollection:
		set := NewSet()
		return set, &decodeFrame{node: n, fill: func(_ int, v any) error {
			if !set.Add(v) {
				return fmt.Errorf("%w: duplicate collection member %s", ErrMalformedNode, describe(v))
			}
			return nil
		}}, nil
	case KindAssociation:
		m := NewMap()
		var key any
		return m, &decodeFrame{node: n, fill: func(i int, v any) error {
			if i%2 == 0 {
				if m.Has(v) {
					return fmt.Errorf("%w: duplicate association key %s", ErrMalformedNode, describe(v))
				}
				key = v
				return nil
			}
			m.Set(key, v)
			return nil
		}}, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedNode, n.Kind)
}

// describe names v for an error message without walking composites, which
// may be cyclic.
func describe(v any) string {
	switch v.(type) {
	case nil, bool, float64, string, UndefinedType:
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%T", v)
}

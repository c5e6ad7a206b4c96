package refcodec

import (
	"fmt"
	"math"
)

// The wire tree is the transport-neutral rendering of a Document. It uses
// only nil, bool, float64, string, []any and *wireObject, which every
// transport can write and read back without loss:
//
//	null, boolean, number, string   the bare scalar
//	non-finite numbers              {"type": "nan" | "infinity" | "-infinity"}
//	undefined                       {"type": "undefined"}
//	bigint, symbol                  {"type": k, "value": text}
//	ref                             {"type": "ref", "value": id}
//	boxed, date, pattern            {"type": k, "id": id, "value": payload}
//	sequence, collection            {"type": k, "id": id, "value": [children]}
//	record                          {"type": "record", "id": id, "value": {key: child}}
//	association                     {"type": "association", "id": id, "value": [[key, value]]}
//	buffer                          {"type": element, "id": id, "value": [numbers]}
const (
	wireType  = "type"
	wireID    = "id"
	wireValue = "value"

	wireNaN    = "nan"
	wireInf    = "infinity"
	wireNegInf = "-infinity"
)

// transportDepth resolves a transport's MaxDepth setting to a node depth:
// zero means DefaultMaxDepth and a negative value removes the bound.
func transportDepth(n int) int {
	switch {
	case n == 0:
		return DefaultMaxDepth
	case n < 0:
		return math.MaxInt
	}
	return n
}

// wireDepth converts a node depth into a bound on raw container nesting.
// One node level spans at most three containers: the tagged object, its
// value array and an association entry.
func wireDepth(nodeDepth int) int {
	if nodeDepth > (math.MaxInt-3)/3 {
		return math.MaxInt
	}
	return 3*nodeDepth + 3
}

// wireObject is a JSON-style object that keeps key order.
type wireObject struct {
	keys   []string
	values []any
}

func (o *wireObject) add(key string, v any) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, v)
}

// get returns the last value stored under key.
func (o *wireObject) get(key string) (any, bool) {
	for i := len(o.keys) - 1; i >= 0; i-- {
		if o.keys[i] == key {
			return o.values[i], true
		}
	}
	return nil, false
}

func (o *wireObject) Len() int { return len(o.keys) }

func tagged(kind string) *wireObject {
	o := &wireObject{}
	o.add(wireType, kind)
	return o
}

func numberToWire(f float64) any {
	switch {
	case math.IsNaN(f):
		return tagged(wireNaN)
	case math.IsInf(f, 1):
		return tagged(wireInf)
	case math.IsInf(f, -1):
		return tagged(wireNegInf)
	}
	return f
}

// toWire renders n. Recursion depth is bounded by maxDepth.
func toWire(n *Node, depth, maxDepth int) (any, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: missing node", ErrMalformedNode)
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: more than %d nested nodes", ErrRecursionLimit, maxDepth)
	}

	switch n.Kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return n.Bool, nil
	case KindNumber:
		return numberToWire(n.Number), nil
	case KindString:
		return n.Text, nil
	case KindUndefined:
		return tagged(n.Kind.String()), nil
	case KindBigInt, KindSymbol, KindRef:
		o := tagged(n.Kind.String())
		o.add(wireValue, n.Text)
		return o, nil
	}
	if !n.Kind.IsComposite() {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedNode, n.Kind)
	}

	name := n.Kind.String()
	if n.Kind == KindBuffer {
		name = n.Element.String()
	}
	o := tagged(name)
	o.add(wireID, n.ID)

	switch n.Kind {
	case KindBoxedBool:
		o.add(wireValue, n.Bool)
	case KindBoxedNumber:
		o.add(wireValue, numberToWire(n.Number))
	case KindBoxedString, KindDate, KindPattern:
		o.add(wireValue, n.Text)
	case KindBuffer:
		values := make([]any, len(n.Values))
		for i, f := range n.Values {
			values[i] = numberToWire(f)
		}
		o.add(wireValue, values)
	case KindSequence, KindCollection:
		items := make([]any, len(n.Items))
		for i, c := range n.Items {
			w, err := toWire(c, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			items[i] = w
		}
		o.add(wireValue, items)
	case KindRecord:
		fields := &wireObject{}
		for _, f := range n.Fields {
			w, err := toWire(f.Value, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			fields.add(f.Key, w)
		}
		o.add(wireValue, fields)
	case KindAssociation:
		pairs := make([]any, len(n.Pairs))
		for i, p := range n.Pairs {
			k, err := toWire(p.Key, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			v, err := toWire(p.Value, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			pairs[i] = []any{k, v}
		}
		o.add(wireValue, pairs)
	}
	return o, nil
}

// fromWire parses a wire tree back into nodes.
func fromWire(w any, depth, maxDepth int) (*Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: more than %d nested nodes", ErrRecursionLimit, maxDepth)
	}

	switch x := w.(type) {
	case nil:
		return NullNode(), nil
	case bool:
		return BoolNode(x), nil
	case float64:
		return NumberNode(x), nil
	case string:
		return StringNode(x), nil
	case *wireObject:
		return objectFromWire(x, depth, maxDepth)
	case []any:
		return nil, fmt.Errorf("%w: untagged array", ErrMalformedNode)
	}
	return nil, fmt.Errorf("%w: unexpected %T", ErrMalformedNode, w)
}

func objectFromWire(o *wireObject, depth, maxDepth int) (*Node, error) {
	typ, err := wireString(o, wireType)
	if err != nil {
		return nil, err
	}
	switch typ {
	case wireNaN:
		return NumberNode(math.NaN()), nil
	case wireInf:
		return NumberNode(math.Inf(1)), nil
	case wireNegInf:
		return NumberNode(math.Inf(-1)), nil
	}

	kind, elem, ok := kindByName(typ)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedNode, typ)
	}
	switch kind {
	case KindNull:
		return NullNode(), nil
	case KindUndefined:
		return UndefinedNode(), nil
	case KindBool:
		b, err := wireBool(o)
		return BoolNode(b), err
	case KindNumber:
		f, err := wireNumber(o)
		return NumberNode(f), err
	case KindString, KindBigInt, KindSymbol, KindRef:
		text, err := wireString(o, wireValue)
		return &Node{Kind: kind, Text: text}, err
	}

	id, err := wireString(o, wireID)
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: kind, ID: id, Element: elem}
	switch kind {
	case KindBoxedBool:
		n.Bool, err = wireBool(o)
	case KindBoxedNumber:
		n.Number, err = wireNumber(o)
	case KindBoxedString, KindDate, KindPattern:
		n.Text, err = wireString(o, wireValue)
	case KindBuffer:
		var items []any
		if items, err = wireArray(o); err == nil {
			n.Values = make([]float64, len(items))
			for i, item := range items {
				if n.Values[i], err = numberFromWire(item); err != nil {
					break
				}
			}
		}
	case KindSequence, KindCollection:
		var items []any
		if items, err = wireArray(o); err == nil {
			n.Items = make([]*Node, len(items))
			for i, item := range items {
				if n.Items[i], err = fromWire(item, depth+1, maxDepth); err != nil {
					break
				}
			}
		}
	case KindRecord:
		v, _ := o.get(wireValue)
		fields, ok := v.(*wireObject)
		if !ok {
			return nil, fmt.Errorf("%w: record value is %T, want object", ErrMalformedNode, v)
		}
		n.Fields = make([]Field, len(fields.keys))
		for i, key := range fields.keys {
			n.Fields[i].Key = key
			if n.Fields[i].Value, err = fromWire(fields.values[i], depth+1, maxDepth); err != nil {
				break
			}
		}
	case KindAssociation:
		var items []any
		if items, err = wireArray(o); err == nil {
			n.Pairs = make([]Pair, len(items))
			for i, item := range items {
				if n.Pairs[i], err = pairFromWire(item, depth+1, maxDepth); err != nil {
					break
				}
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func pairFromWire(w any, depth, maxDepth int) (Pair, error) {
	kv, ok := w.([]any)
	if !ok || len(kv) != 2 {
		return Pair{}, fmt.Errorf("%w: association entry must be a [key, value] array", ErrMalformedNode)
	}
	k, err := fromWire(kv[0], depth, maxDepth)
	if err != nil {
		return Pair{}, err
	}
	v, err := fromWire(kv[1], depth, maxDepth)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Key: k, Value: v}, nil
}

func wireString(o *wireObject, key string) (string, error) {
	v, _ := o.get(key)
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is %T, want string", ErrMalformedNode, key, v)
	}
	return s, nil
}

func wireBool(o *wireObject) (bool, error) {
	v, _ := o.get(wireValue)
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q is %T, want boolean", ErrMalformedNode, wireValue, v)
	}
	return b, nil
}

func wireNumber(o *wireObject) (float64, error) {
	v, _ := o.get(wireValue)
	return numberFromWire(v)
}

func wireArray(o *wireObject) ([]any, error) {
	v, _ := o.get(wireValue)
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, want array", ErrMalformedNode, wireValue, v)
	}
	return items, nil
}

// numberFromWire accepts a number or a non-finite number tag.
func numberFromWire(w any) (float64, error) {
	switch x := w.(type) {
	case float64:
		return x, nil
	case *wireObject:
		if typ, err := wireString(x, wireType); err == nil {
			switch typ {
			case wireNaN:
				return math.NaN(), nil
			case wireInf:
				return math.Inf(1), nil
			case wireNegInf:
				return math.Inf(-1), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrMalformedNode, w)
}

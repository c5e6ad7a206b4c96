package refcodec

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLTransport writes documents as YAML and reads them back. Scalars
// carry explicit tags where plain style would be ambiguous, so strings such
// as "true" or "1" stay strings. Anchors and aliases are rejected on input;
// sharing is expressed with ref nodes instead.
type YAMLTransport struct {
	// Indent is the number of spaces per level. Zero means 2.
	Indent int
	// MaxDepth bounds the nesting of nodes. Zero means DefaultMaxDepth.
	MaxDepth int
}

var _ Transport = YAMLTransport{}

// WriteDocument writes doc to w as a single YAML document.
func (t YAMLTransport) WriteDocument(w io.Writer, doc *Document) error {
	if doc == nil || doc.Root == nil {
		return ErrNilDocument
	}
	tree, err := toWire(doc.Root, 0, transportDepth(t.MaxDepth))
	if err != nil {
		return err
	}
	indent := t.Indent
	if indent <= 0 {
		indent = 2
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(indent)
	if err := enc.Encode(yamlNode(tree)); err != nil {
		return err
	}
	return enc.Close()
}

// ReadDocument parses a single YAML document from data.
func (t YAMLTransport) ReadDocument(data []byte) (*Document, error) {
	maxDepth := transportDepth(t.MaxDepth)
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var top yaml.Node
	if err := dec.Decode(&top); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty YAML input", ErrTruncatedData)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("%w: more than one YAML document", ErrTrailingData)
	}

	tree, err := fromYAML(&top, 0, wireDepth(maxDepth))
	if err != nil {
		return nil, err
	}
	root, err := fromWire(tree, 0, maxDepth)
	if err != nil {
		return nil, err
	}
	return &Document{Root: root}, nil
}

func yamlScalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlNode(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return yamlScalar("!!null", "null")
	case bool:
		return yamlScalar("!!bool", strconv.FormatBool(x))
	case float64:
		text := formatNumber(x)
		if strings.ContainsAny(text, ".eE") || math.Abs(x) >= 1e18 {
			return yamlScalar("!!float", text)
		}
		if x == 0 && math.Signbit(x) {
			// Plain "-0" resolves to the integer 0 and would lose its sign.
			return yamlScalar("!!float", "-0.0")
		}
		return yamlScalar("!!int", text)
	case string:
		return yamlScalar("!!str", x)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range x {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	case *wireObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, key := range x.keys {
			n.Content = append(n.Content, yamlScalar("!!str", key), yamlNode(x.values[i]))
		}
		return n
	}
	return yamlScalar("!!str", fmt.Sprint(v))
}

func fromYAML(n *yaml.Node, depth, maxDepth int) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return nil, fmt.Errorf("%w: empty YAML document", ErrMalformedNode)
		}
		return fromYAML(n.Content[0], depth, maxDepth)
	case yaml.AliasNode:
		return nil, fmt.Errorf("%w: YAML alias at line %d, use ref nodes for sharing", ErrMalformedNode, n.Line)
	case yaml.ScalarNode:
		return yamlScalarValue(n)
	}

	if depth >= maxDepth {
		return nil, fmt.Errorf("%w: more than %d nested YAML collections", ErrRecursionLimit, maxDepth)
	}
	switch n.Kind {
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := fromYAML(c, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case yaml.MappingNode:
		obj := &wireObject{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: YAML key at line %d is not a scalar", ErrMalformedNode, k.Line)
			}
			v, err := fromYAML(n.Content[i+1], depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			obj.add(k.Value, v)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("%w: unexpected YAML node kind %d", ErrMalformedNode, n.Kind)
}

func yamlScalarValue(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
		}
		return b, nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
		}
		return f, nil
	case "!!str":
		return n.Value, nil
	}
	return nil, fmt.Errorf("%w: unsupported YAML tag %s at line %d", ErrMalformedNode, n.ShortTag(), n.Line)
}

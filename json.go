package refcodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tidwall/jsonc"
)

// JSONTransport writes documents as JSON text and reads them back.
// Input may carry JSONC comments and trailing commas; they are stripped
// before parsing.
type JSONTransport struct {
	// Indent is repeated once per nesting level. Empty means compact output.
	Indent string
	// MaxDepth bounds the nesting of nodes. Zero means DefaultMaxDepth.
	MaxDepth int
}

var _ Transport = JSONTransport{}

// WriteDocument writes doc to w. Object keys keep document order.
func (t JSONTransport) WriteDocument(w io.Writer, doc *Document) error {
	if doc == nil || doc.Root == nil {
		return ErrNilDocument
	}
	tree, err := toWire(doc.Root, 0, transportDepth(t.MaxDepth))
	if err != nil {
		return err
	}
	jw, err := NewWriter(w)
	if err != nil {
		return err
	}
	writeJSON(jw, tree, t.Indent, 0)
	_, err = jw.Result()
	return err
}

// ReadDocument parses one JSON document from data.
func (t JSONTransport) ReadDocument(data []byte) (*Document, error) {
	maxDepth := transportDepth(t.MaxDepth)
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()

	tree, err := readJSON(dec, 0, wireDepth(maxDepth))
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: at offset %d", ErrTrailingData, dec.InputOffset())
	}
	root, err := fromWire(tree, 0, maxDepth)
	if err != nil {
		return nil, err
	}
	return &Document{Root: root}, nil
}

func writeJSON(w *Writer, v any, indent string, level int) {
	switch x := v.(type) {
	case nil:
		w.WriteString("null")
	case bool:
		w.WriteString(strconv.FormatBool(x))
	case float64:
		w.WriteString(formatNumber(x))
	case string:
		writeJSONString(w, x)
	case []any:
		if len(x) == 0 {
			w.WriteString("[]")
			return
		}
		w.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				w.WriteByte(',')
			}
			jsonNewline(w, indent, level+1)
			writeJSON(w, item, indent, level+1)
		}
		jsonNewline(w, indent, level)
		w.WriteByte(']')
	case *wireObject:
		if x.Len() == 0 {
			w.WriteString("{}")
			return
		}
		w.WriteByte('{')
		for i, key := range x.keys {
			if i > 0 {
				w.WriteByte(',')
			}
			jsonNewline(w, indent, level+1)
			writeJSONString(w, key)
			w.WriteByte(':')
			if indent != "" {
				w.WriteByte(' ')
			}
			writeJSON(w, x.values[i], indent, level+1)
		}
		jsonNewline(w, indent, level)
		w.WriteByte('}')
	default:
		w.setError(fmt.Errorf("%w: cannot write %T as JSON", ErrMalformedNode, v))
	}
}

func writeJSONString(w *Writer, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		w.setError(err)
		return
	}
	w.WriteBytes(b)
}

func jsonNewline(w *Writer, indent string, level int) {
	if indent == "" {
		return
	}
	w.WriteByte('\n')
	w.WriteRepeat(indent, level)
}

// readJSON reads one value from the token stream into the wire tree.
func readJSON(dec *json.Decoder, depth, maxDepth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, jsonError(err)
	}

	switch x := tok.(type) {
	case json.Delim:
		if depth >= maxDepth {
			return nil, fmt.Errorf("%w: more than %d nested JSON values", ErrRecursionLimit, maxDepth)
		}
		if x == '[' {
			items := []any{}
			for dec.More() {
				item, err := readJSON(dec, depth+1, maxDepth)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			return items, closeJSON(dec)
		}
		obj := &wireObject{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, jsonError(err)
			}
			key, _ := kt.(string)
			v, err := readJSON(dec, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			obj.add(key, v)
		}
		return obj, closeJSON(dec)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %s: %v", ErrMalformedNode, x, err)
		}
		return f, nil
	}
	// string, bool or nil
	return tok, nil
}

func closeJSON(dec *json.Decoder) error {
	if _, err := dec.Token(); err != nil {
		return jsonError(err)
	}
	return nil
}

func jsonError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: unexpected end of JSON input", ErrTruncatedData)
	}
	return fmt.Errorf("%w: %v", ErrMalformedNode, err)
}

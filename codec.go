package refcodec

import (
	"bytes"
	"io"
)

// Transport renders Documents to a byte format and parses them back.
// Implementations are stateless values and safe for concurrent use.
type Transport interface {
	// WriteDocument writes doc to w.
	WriteDocument(w io.Writer, doc *Document) error
	// ReadDocument parses exactly one document from data.
	ReadDocument(data []byte) (*Document, error)
}

// Marshal encodes v and renders it as compact JSON.
func Marshal(v any) ([]byte, error) {
	return MarshalWith(NewEncoder(), JSONTransport{}, v)
}

// MarshalIndent is like Marshal but indents nested values with indent.
func MarshalIndent(v any, indent string) ([]byte, error) {
	return MarshalWith(NewEncoder(), JSONTransport{Indent: indent}, v)
}

// MarshalFormat encodes v and renders it with the default transport of f.
func MarshalFormat(v any, f Format) ([]byte, error) {
	t, err := f.Transport()
	if err != nil {
		return nil, err
	}
	return MarshalWith(NewEncoder(), t, v)
}

// MarshalWith encodes v with enc and renders it with t.
func MarshalWith(enc *Encoder, t Transport, v any) ([]byte, error) {
	doc, err := enc.Encode(v)
	if err != nil {
		return nil, err
	}
	return Render(t, doc)
}

// Render writes doc with t into a new byte slice.
func Render(t Transport, doc *Document) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)
	if err := t.WriteDocument(buf, doc); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Unmarshal parses data in any supported format and decodes the value graph.
func Unmarshal(data []byte) (any, error) {
	return UnmarshalWith(NewDecoder(), FormatAuto, data)
}

// UnmarshalWith parses data as format f (FormatAuto detects it) and decodes
// it with dec.
func UnmarshalWith(dec *Decoder, f Format, data []byte) (any, error) {
	doc, _, err := ParseDocument(data, f)
	if err != nil {
		return nil, err
	}
	return dec.Decode(doc)
}

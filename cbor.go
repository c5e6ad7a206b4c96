package refcodec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// CBOR major types used for containers; scalars are left to the cbor library.
const (
	cborMajorArray = 4
	cborMajorMap   = 5
	cborMajorTag   = 6

	// cborSelfDescribe is the RFC 8949 §3.4.6 tag that marks a byte stream
	// as CBOR. It is written first so DetectFormat can recognize the output.
	cborSelfDescribe = 55799
)

// cborMagic is the encoding of the self-describe tag head.
var cborMagic = []byte{0xd9, 0xd9, 0xf7}

// cborEnc writes scalars with Core Deterministic Encoding (RFC 8949 §4.2):
// smallest integer and float encodings that preserve the value.
var cborEnc cbor.EncMode

// cborDec reads scalars. Strings that are not valid UTF-8 are kept as they
// are so that every Go string survives a round trip.
var cborDec cbor.DecMode

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("refcodec: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{UTF8: cbor.UTF8DecodeInvalid}.DecMode()
	if err != nil {
		panic("refcodec: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORTransport writes documents as CBOR and reads them back. Containers
// are written with definite lengths and object keys keep document order.
type CBORTransport struct {
	// MaxDepth bounds the nesting of nodes. Zero means DefaultMaxDepth.
	MaxDepth int
}

var _ Transport = CBORTransport{}

// WriteDocument writes doc to w, prefixed with the self-describe tag.
func (t CBORTransport) WriteDocument(w io.Writer, doc *Document) error {
	if doc == nil || doc.Root == nil {
		return ErrNilDocument
	}
	tree, err := toWire(doc.Root, 0, transportDepth(t.MaxDepth))
	if err != nil {
		return err
	}
	cw, err := NewWriter(w)
	if err != nil {
		return err
	}
	writeCBORHead(cw, cborMajorTag, cborSelfDescribe)
	writeCBOR(cw, tree)
	_, err = cw.Result()
	return err
}

// ReadDocument parses one CBOR data item from data. The self-describe tag
// is optional.
func (t CBORTransport) ReadDocument(data []byte) (*Document, error) {
	maxDepth := transportDepth(t.MaxDepth)
	r := NewReader(data)
	tree, err := readCBOR(r, 0, wireDepth(maxDepth))
	if err != nil {
		return nil, err
	}
	if n := r.Available(); n > 0 {
		return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrTrailingData, n, r.Count())
	}
	root, err := fromWire(tree, 0, maxDepth)
	if err != nil {
		return nil, err
	}
	return &Document{Root: root}, nil
}

// Diagnose renders CBOR data in diagnostic notation (RFC 8949 §8), one
// line per top-level data item.
func Diagnose(data []byte) (string, error) {
	var b strings.Builder
	for remaining := data; len(remaining) > 0; {
		notation, rest, err := cbor.DiagnoseFirst(remaining)
		if err != nil {
			return "", fmt.Errorf("diagnose CBOR at byte %d: %w", len(data)-len(remaining), err)
		}
		b.WriteString(notation)
		b.WriteByte('\n')
		remaining = rest
	}
	return b.String(), nil
}

// writeCBORHead writes an initial byte and its argument in the shortest form.
func writeCBORHead(w *Writer, major byte, n uint64) {
	head := major << 5
	switch {
	case n < 24:
		w.WriteUint8(head | byte(n))
	case n <= 0xff:
		w.WriteUint8(head | 24)
		w.WriteUint8(uint8(n))
	case n <= 0xffff:
		w.WriteUint8(head | 25)
		w.WriteUint16(uint16(n))
	case n <= 0xffffffff:
		w.WriteUint8(head | 26)
		w.WriteUint32(uint32(n))
	default:
		w.WriteUint8(head | 27)
		w.WriteUint64(n)
	}
}

func writeCBOR(w *Writer, v any) {
	switch x := v.(type) {
	case []any:
		writeCBORHead(w, cborMajorArray, uint64(len(x)))
		for _, item := range x {
			writeCBOR(w, item)
		}
	case *wireObject:
		writeCBORHead(w, cborMajorMap, uint64(x.Len()))
		for i, key := range x.keys {
			writeCBORScalar(w, key)
			writeCBOR(w, x.values[i])
		}
	default:
		writeCBORScalar(w, v)
	}
}

func writeCBORScalar(w *Writer, v any) {
	if w.Err() != nil {
		return
	}
	b, err := cborEnc.Marshal(v)
	if err != nil {
		w.setError(err)
		return
	}
	w.WriteBytes(b)
}

// readCBORHead reads an initial byte and its argument. Indefinite lengths
// and reserved values are rejected.
func readCBORHead(r *Reader) (major byte, n uint64, err error) {
	var b uint8
	r.ReadUint8(&b)
	if r.Err() != nil {
		return 0, 0, cborError(r.Err())
	}
	major, info := b>>5, b&0x1f
	switch {
	case info < 24:
		n = uint64(info)
	case info == 24:
		var v uint8
		r.ReadUint8(&v)
		n = uint64(v)
	case info == 25:
		var v uint16
		r.ReadUint16(&v)
		n = uint64(v)
	case info == 26:
		var v uint32
		r.ReadUint32(&v)
		n = uint64(v)
	case info == 27:
		r.ReadUint64(&n)
	default:
		return 0, 0, fmt.Errorf("%w: unsupported CBOR additional info %d", ErrMalformedNode, info)
	}
	if r.Err() != nil {
		return 0, 0, cborError(r.Err())
	}
	return major, n, nil
}

func readCBOR(r *Reader, depth, maxDepth int) (any, error) {
	b, err := r.Peek()
	if err != nil {
		return nil, cborError(err)
	}

	switch b >> 5 {
	case cborMajorTag:
		_, tag, err := readCBORHead(r)
		if err != nil {
			return nil, err
		}
		if tag != cborSelfDescribe || depth > 0 {
			return nil, fmt.Errorf("%w: unexpected CBOR tag %d", ErrMalformedNode, tag)
		}
		return readCBOR(r, depth+1, maxDepth)
	case cborMajorArray, cborMajorMap:
		major, n, err := readCBORHead(r)
		if err != nil {
			return nil, err
		}
		if depth >= maxDepth {
			return nil, fmt.Errorf("%w: more than %d nested CBOR items", ErrRecursionLimit, maxDepth)
		}
		// Every item takes at least one byte; this bounds allocation on hostile lengths.
		if n > uint64(r.Available()) {
			return nil, fmt.Errorf("%w: CBOR container claims %d items", ErrTruncatedData, n)
		}
		if major == cborMajorArray {
			items := make([]any, n)
			for i := range items {
				if items[i], err = readCBOR(r, depth+1, maxDepth); err != nil {
					return nil, err
				}
			}
			return items, nil
		}
		obj := &wireObject{}
		for range n {
			k, err := readCBOR(r, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: CBOR map key is %T, want text", ErrMalformedNode, k)
			}
			v, err := readCBOR(r, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			obj.add(key, v)
		}
		return obj, nil
	}

	var v any
	rest, err := cborDec.UnmarshalFirst(r.Remaining(), &v)
	if err != nil {
		return nil, cborError(err)
	}
	r.Skip(r.Available() - len(rest))

	switch x := v.(type) {
	case nil, bool, float64, string:
		return x, nil
	case uint64:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return nil, fmt.Errorf("%w: unsupported CBOR item %T", ErrMalformedNode, v)
}

func cborError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: unexpected end of CBOR input", ErrTruncatedData)
	}
	return fmt.Errorf("%w: %v", ErrMalformedNode, err)
}

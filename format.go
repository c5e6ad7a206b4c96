package refcodec

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
)

// Format names a transport.
type Format uint8

const (
	FormatAuto Format = iota
	FormatJSON
	FormatCBOR
	FormatYAML
)

var formatNames = [...]string{
	FormatAuto: "auto",
	FormatJSON: "json",
	FormatCBOR: "cbor",
	FormatYAML: "yaml",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// ParseFormat resolves a format name, case-insensitively. "yml" is accepted
// for YAML.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return FormatAuto, nil
	case "json", "jsonc":
		return FormatJSON, nil
	case "cbor":
		return FormatCBOR, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Transport returns the transport of f with default settings.
func (f Format) Transport() (Transport, error) {
	switch f {
	case FormatJSON:
		return JSONTransport{}, nil
	case FormatCBOR:
		return CBORTransport{}, nil
	case FormatYAML:
		return YAMLTransport{}, nil
	}
	return nil, fmt.Errorf("%w: no transport for %s", ErrUnknownFormat, f)
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// sniffSize is how much input DetectFormat needs to see.
const sniffSize = 512

// DetectFormat guesses the format of data from its first bytes:
//
//   - the CBOR self-describe tag, a control byte, or a prefix that is not
//     UTF-8 text: CBOR
//   - '{', '[', comments followed by JSON, or a string literal that is valid JSON and not a
//     YAML mapping key, after optional whitespace: JSON
//   - anything else: YAML
//
// Empty or blank input yields FormatAuto.
func DetectFormat(data []byte) Format {
	if len(data) > sniffSize {
		data = data[:sniffSize]
	}
	if bytes.HasPrefix(data, cborMagic) {
		return FormatCBOR
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	if len(trimmed) == 0 {
		return FormatAuto
	}
	switch c := trimmed[0]; {
	case c == '{' || c == '[':
		return FormatJSON
	case c == '/':
		// A comment counts only when JSON follows it; "// x" is also a YAML scalar.
		rest := bytes.TrimLeft(jsonc.ToJSON(trimmed), " \t\r\n")
		if len(rest) > 0 && (rest[0] == '{' || rest[0] == '[' || rest[0] == '"') {
			return FormatJSON
		}
		return FormatYAML
	case c == '"':
		if jsonStringLeads(trimmed) {
			return FormatJSON
		}
		return FormatYAML
	case c < 0x20 || !isText(trimmed):
		return FormatCBOR
	}
	return FormatYAML
}

// isText reports whether p is UTF-8, allowing p to end inside a rune
// since it may be a truncated sniff.
func isText(p []byte) bool {
	for len(p) > 0 {
		r, size := utf8.DecodeRune(p)
		if r == utf8.RuneError && size <= 1 {
			return !utf8.FullRune(p)
		}
		p = p[size:]
	}
	return true
}

// jsonStringLeads reports whether p, which starts with '"', opens with a
// JSON string literal that is not the key of a YAML mapping. YAML
// double-quoted scalars use escapes (\x, \e, line folding) that JSON lacks.
func jsonStringLeads(p []byte) bool {
	for i := 1; i < len(p); i++ {
		switch c := p[i]; {
		case c == '"':
			rest := bytes.TrimLeft(p[i+1:], " \t")
			return len(rest) == 0 || rest[0] != ':'
		case c < 0x20:
			return false
		case c == '\\':
			i++
			if i == len(p) {
				return true
			}
			switch p[i] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			case 'u':
				if i+4 < len(p) && !isHex(p[i+1:i+5]) {
					return false
				}
			default:
				return false
			}
		}
	}
	// Unterminated within the sniffed prefix; nothing so far rules JSON out.
	return true
}

func isHex(p []byte) bool {
	for _, c := range p {
		if !strings.ContainsRune("0123456789abcdefABCDEF", rune(c)) {
			return false
		}
	}
	return true
}

// ParseDocument parses data as format f, detecting the format when f is
// FormatAuto, and reports the format used.
func ParseDocument(data []byte, f Format) (*Document, Format, error) {
	if f == FormatAuto {
		if f = DetectFormat(data); f == FormatAuto {
			return nil, f, fmt.Errorf("%w: empty input", ErrUnknownFormat)
		}
	}
	t, err := f.Transport()
	if err != nil {
		return nil, f, err
	}
	doc, err := t.ReadDocument(data)
	return doc, f, err
}

// ReadDocument reads all of r and parses it as format f. With FormatAuto
// the format is detected from the first bytes before the rest is read.
func ReadDocument(r io.Reader, f Format) (*Document, Format, error) {
	if r == nil {
		return nil, f, ErrNilIO
	}
	pr := PeekReader(r)
	if f == FormatAuto {
		// A short peek only means the input is short; the read below reports real errors.
		head, _ := pr.Peek(sniffSize)
		if f = DetectFormat(head); f == FormatAuto {
			return nil, f, fmt.Errorf("%w: empty input", ErrUnknownFormat)
		}
	}
	data, err := io.ReadAll(pr)
	if err != nil {
		return nil, f, err
	}
	return ParseDocument(data, f)
}

// WriteDocument writes doc to w with the default transport of f.
func WriteDocument(w io.Writer, doc *Document, f Format) error {
	if w == nil {
		return ErrNilIO
	}
	t, err := f.Transport()
	if err != nil {
		return err
	}
	return t.WriteDocument(w, doc)
}

package refcodec

import "errors"

var (
	// ErrUnsupportedValueKind indicates that Encode met a Go value with no
	// representable variant, such as a func, a channel or an opaque struct.
	ErrUnsupportedValueKind = errors.New("refcodec: unsupported value kind")

	// ErrBrokenReference indicates that Decode met a ref node whose id was
	// never registered by an earlier composite node.
	ErrBrokenReference = errors.New("refcodec: broken reference")

	// ErrMalformedNode indicates a node with an unknown discriminant or a
	// payload that does not fit its discriminant.
	ErrMalformedNode = errors.New("refcodec: malformed node")

	// ErrRecursionLimit indicates that the value graph or document nests
	// deeper than the configured maximum depth.
	ErrRecursionLimit = errors.New("refcodec: recursion limit exceeded")

	// ErrNilDocument indicates that Decode or a transport was handed a nil *Document.
	ErrNilDocument = errors.New("refcodec: nil document")

	// ErrNilIO indicates that a reader or writer constructor was called with a nil interface.
	ErrNilIO = errors.New("refcodec: nil io.Reader/io.Writer")

	// ErrAlreadyBuffered indicates that NewWriterSize was handed a
	// *bufio.Writer smaller than requested; wrapping it would double-buffer.
	ErrAlreadyBuffered = errors.New("refcodec: writer is already buffered with a smaller size")

	// ErrUnknownFormat indicates a transport format name or input that could not be recognized.
	ErrUnknownFormat = errors.New("refcodec: unknown format")

	// ErrInputTooLarge indicates that input exceeded the limit set with LimitReader.
	ErrInputTooLarge = errors.New("refcodec: input too large")

	// ErrTruncatedData indicates that binary input ended before a complete item was read.
	ErrTruncatedData = errors.New("refcodec: truncated data")

	// ErrTrailingData indicates that input continues after the root node.
	ErrTrailingData = errors.New("refcodec: trailing data after document")
)

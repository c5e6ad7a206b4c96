package refcodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
)

// WriterPro is the buffered sink behind a Writer: a *bufio.Writer, or an
// in-memory buffer that needs no flushing.
type WriterPro interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
	Flush() error
}

// Writer is a buffered writer used by the text and binary transports.
// It tracks the first error that occurs; after an error all subsequent
// writes become no-ops, so callers check Result once at the end.
// Multi-byte integers are written big-endian, as CBOR heads require.
type Writer struct {
	w     WriterPro
	count int64 // total bytes written
	err   error // first error encountered. Subsequent writes become no-ops.
	depth int
}

var _ WriterPro = (*Writer)(nil)

// NewWriterSize creates a new Writer with a specified buffer size.
// It returns an error to prevent double-buffering, a common source of bugs.
func NewWriterSize(w io.Writer, size int) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}

	switch bw := w.(type) {
	// Share the underlying buffer; only the outermost Writer flushes.
	case *Writer:
		return &Writer{w: bw.w, depth: bw.depth + 1}, nil

	// prevent unpredictable double-buffering.
	case *bufio.Writer:
		if bw.Size() >= size {
			return &Writer{w: bw, depth: 1}, nil
		}
		return nil, ErrAlreadyBuffered

	// underlying is a buf so we don't need buffering
	case *bytes.Buffer:
		return &Writer{w: &bytesBufferWriterAdapter{bw}}, nil
	}

	// default use bufio
	return &Writer{w: bufio.NewWriterSize(w, size)}, nil
}

// NewWriter creates a new Writer with a default buffer size.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterSize(w, 0)
}

// Write implements the io.Writer interface.
func (w *Writer) Write(buf []byte) (int, error) {
	if buf == nil || w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(buf)
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

// WriteString implements the io.StringWriter interface.
func (w *Writer) WriteString(str string) (int, error) {
	if str == "" || w.err != nil {
		return 0, w.err
	}
	n, err := w.w.WriteString(str)
	w.count += int64(n)
	w.setError(err)
	return n, w.err
}

func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error   { return w.err }

// setError records the first non-nil error.
// This preserves the root cause of a failure chain instead of a later,
// less relevant error.
func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Result flushes the buffer and returns the final count and error state.
func (w *Writer) Result() (int64, error) {
	w.Flush()
	return w.count, w.err
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	// Nested writers must not flush the shared buffer prematurely.
	if w.depth > 0 || w.err != nil {
		return w.err
	}
	err := w.w.Flush()
	w.setError(err)
	return err
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(buf []byte) {
	if buf == nil || w.err != nil {
		return
	}
	_, _ = w.Write(buf)
}

// WriteRepeat writes s n times, used for indentation.
func (w *Writer) WriteRepeat(s string, n int) {
	for ; n > 0 && w.err == nil; n-- {
		_, _ = w.WriteString(s)
	}
}

// --- Primitive Write Operations ---

func (w *Writer) WriteByte(v byte) error {
	if w.err != nil {
		return w.err
	}
	err := w.w.WriteByte(v)
	if err == nil {
		w.count++
	} else {
		w.err = err
	}
	return err
}

func (w *Writer) WriteUint8(v uint8) {
	_ = w.WriteByte(v)
}

func (w *Writer) WriteUint16(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint64(v uint64) {
	if w.err != nil {
		return
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}

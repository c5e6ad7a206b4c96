package refcodec

import (
	"encoding/binary"
	"io"
)

// Reader reads big-endian binary data from memory and tracks the first
// error. Subsequent reads become no-ops, so callers check Err once after a
// group of reads.
type Reader struct {
	r     *BytesReader
	count int64 // total bytes read
	err   error // first error encountered.
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{r: NewBytesReader(data)}
}

func (r *Reader) Count() int64   { return r.count }
func (r *Reader) Err() error     { return r.err }
func (r *Reader) Available() int { return r.r.Available() }

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.r.Available() == 0 {
		return 0, io.EOF
	}
	return r.r.B[r.r.N], nil
}

// Remaining returns the unread input without consuming it.
func (r *Reader) Remaining() []byte {
	if r.err != nil {
		return nil
	}
	return r.r.Remaining()
}

// Skip consumes n bytes, typically after a third-party decoder has parsed
// them out of Remaining.
func (r *Reader) Skip(n int) {
	r.readFull(n)
}

// readFull is an internal helper to read an exact number of bytes.
// The returned slice aliases the input.
func (r *Reader) readFull(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf, err := r.r.Next(n)
	if err != nil {
		// A partial read is different from a clean end-of-stream.
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	r.count += int64(n)
	return buf
}

// --- Primitive Read Operations ---

func (r *Reader) ReadUint8(dest *uint8) {
	buf := r.readFull(1)
	if r.err == nil {
		*dest = buf[0]
	}
}

func (r *Reader) ReadUint16(dest *uint16) {
	buf := r.readFull(2)
	if r.err == nil {
		*dest = binary.BigEndian.Uint16(buf)
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	buf := r.readFull(4)
	if r.err == nil {
		*dest = binary.BigEndian.Uint32(buf)
	}
}

func (r *Reader) ReadUint64(dest *uint64) {
	buf := r.readFull(8)
	if r.err == nil {
		*dest = binary.BigEndian.Uint64(buf)
	}
}

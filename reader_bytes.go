package refcodec

import "io"

// BytesReader hands out slices of an in-memory buffer without copying.
type BytesReader struct {
	B []byte // source slice
	N int    // current read position
}

// NewBytesReader creates a new BytesReader.
func NewBytesReader(b []byte) *BytesReader {
	return &BytesReader{B: b}
}

// Next returns the next n bytes without copying and advances past them.
// It returns io.ErrUnexpectedEOF if fewer than n bytes remain.
func (r *BytesReader) Next(n int) ([]byte, error) {
	if n < 0 || n > r.Available() {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.B[r.N : r.N+n]
	r.N += n
	return b, nil
}

// Remaining returns the unread bytes without advancing.
func (r *BytesReader) Remaining() []byte {
	if r.N >= len(r.B) {
		return nil
	}
	return r.B[r.N:]
}

// Available returns the number of bytes available for reading.
func (r *BytesReader) Available() int {
	length := len(r.B) - r.N
	if length <= 0 {
		return 0
	}
	return length
}

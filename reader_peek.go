package refcodec

import (
	"io"
)

// PeekableReader is a reader that allows peeking ahead at the underlying
// data stream. ReadDocument uses it to sniff the transport format.
type PeekableReader struct {
	R io.Reader // The underlying reader.
	B []byte    // The buffer for peeked data.
}

// PeekReader returns a PeekableReader. If the given reader is already a
// PeekableReader, it is returned directly.
func PeekReader(r io.Reader) *PeekableReader {
	if pr, ok := r.(*PeekableReader); ok {
		return pr
	}
	return &PeekableReader{R: r}
}

// Peek returns up to the next n bytes without advancing the reader.
// Fewer bytes are returned together with the read error, usually io.EOF.
func (r *PeekableReader) Peek(n int) ([]byte, error) {
	// If the buffer already contains enough bytes, return them.
	if len(r.B) >= n {
		return r.B[:n], nil
	}

	// Read more data from the underlying reader to satisfy the peek request.
	i := len(r.B)
	r.B = append(r.B, make([]byte, n-i)...)

	var err error
	for i < n {
		read, er := r.R.Read(r.B[i:])
		i += read
		if er != nil {
			err = er
			break
		}
	}
	// Trim the buffer to the actual number of bytes read.
	if i != n {
		r.B = r.B[:i]
	}
	return r.B, err
}

// Read reads data into p. It first reads from the peeked buffer and then
// from the underlying reader if necessary.
func (r *PeekableReader) Read(p []byte) (n int, err error) {
	// Copy data from the peek buffer first.
	n = copy(p, r.B)
	if len(p) <= len(r.B) {
		r.B = r.B[n:]
		return n, nil
	}
	// If p is larger, the entire buffer is consumed.
	r.B = nil
	read, err := r.R.Read(p[n:])
	n += read
	return n, err
}

package refcodec

import (
	"fmt"
	"io"
)

// LimitedReader reads at most N bytes from R and fails with
// ErrInputTooLarge, instead of a silent io.EOF, when R holds more.
type LimitedReader struct {
	R io.Reader
	N int64 // remaining budget
}

// LimitReader caps how much of r ReadDocument will buffer. n <= 0 disables the cap.
func LimitReader(r io.Reader, n int64) io.Reader {
	if n <= 0 {
		return r
	}
	return &LimitedReader{R: r, N: n}
}

// Read implements the io.Reader interface.
func (r *LimitedReader) Read(p []byte) (int, error) {
	if r.N <= 0 {
		// One more byte tells a stream that ends exactly at the limit apart
		// from one that exceeds it.
		var probe [1]byte
		n, err := r.R.Read(probe[:])
		if n > 0 {
			return 0, fmt.Errorf("%w: more than the allowed bytes", ErrInputTooLarge)
		}
		if err == nil {
			return 0, nil
		}
		return 0, err
	}
	if int64(len(p)) > r.N {
		p = p[:r.N]
	}
	n, err := r.R.Read(p)
	r.N -= int64(n)
	return n, err
}

package refcodec

import (
	"bytes"
	"sync"
)

// bytesBufPool reuses the buffers that Marshal renders documents into.
// This reduces GC pressure for callers that marshal many small graphs.
var bytesBufPool = sync.Pool{
	New: func() any {
		// A 4KB default avoids re-allocations for common document sizes.
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// maxPooledBuffer keeps a single huge document from pinning memory in the pool.
const maxPooledBuffer = 1 << 20

func getBuffer() *bytes.Buffer {
	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= maxPooledBuffer {
		bytesBufPool.Put(buf)
	}
}

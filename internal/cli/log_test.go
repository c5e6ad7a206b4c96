package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, LogDebug))
	p.done("converted json to cbor", "bytes", 42)

	out := buf.String()
	assert.Contains(t, out, "converted json to cbor")
	assert.Contains(t, out, "bytes=42")
	assert.Contains(t, out, "elapsed=")
}

func TestProgressQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, LogInfo))
	p.done("converted json to cbor")
	assert.Empty(t, buf.String())
}

func TestDebugLogger(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	assert.Nil(t, c.debugLogger())

	c.SetLogLevel(LogDebug)
	assert.Same(t, c.Logger, c.debugLogger())
}

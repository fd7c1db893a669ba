package output

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the progress goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressDisabledPassesThrough(t *testing.T) {
	var out syncBuffer
	p := NewProgress(&out, 10, false)
	p.Start()
	p.Increment()
	p.IncrementErrors()
	_, err := p.Write([]byte("warn line\n"))
	require.NoError(t, err)
	p.Stop()

	assert.Equal(t, "warn line\n", out.String())
	assert.Equal(t, int64(1), p.completed.Load())
	assert.Equal(t, int64(1), p.errors.Load())
}

func TestProgressEnabledDraws(t *testing.T) {
	var out syncBuffer
	p := NewProgress(&out, 4, true)
	p.Start()
	p.SetPath("/admin")
	p.Increment()
	p.Increment()
	_, err := p.Write([]byte("diag\n"))
	require.NoError(t, err)
	p.Stop()

	got := out.String()
	assert.Contains(t, got, "diag\n")
	assert.Contains(t, got, "2/4")
	assert.Contains(t, got, "Path: /admin")
	assert.Regexp(t, `\n$`, got, "Stop should end the progress line")
}

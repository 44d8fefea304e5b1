package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedWriter_Chunks(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	w := NewRateLimitedWriter(ctx, &buf, c)

	// Larger than the burst, so it must be split.
	payload := bytes.Repeat([]byte("x"), c.IOBurst()+10)
	n, err := w.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf.Bytes())
}

func TestRateLimitedWriter_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	w := NewRateLimitedWriter(ctx, &buf, c)
	_, err := w.Write(bytes.Repeat([]byte("x"), 100))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitedWriter_Unlimited(t *testing.T) {
	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, NewController(Config{}))

	n, err := w.Write(bytes.Repeat([]byte("y"), 1<<16))
	require.NoError(t, err)
	assert.Equal(t, 1<<16, n)
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 4})

	r := NewRateLimitedReader(context.Background(), strings.NewReader("abcdefgh"), c)
	p := make([]byte, 64)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcd", string(p[:n]))

	rest, err := io.ReadAll(NewRateLimitedReader(context.Background(), strings.NewReader("xy"), nil))
	require.NoError(t, err)
	assert.Equal(t, "xy", string(rest))
}

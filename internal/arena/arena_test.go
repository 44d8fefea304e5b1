package arena

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handle uint32

type item struct {
	a, b int64
	tag  string
}

func newPool(t *testing.T, opts ...Option) *Pool[item, handle] {
	t.Helper()
	p, err := New[item, handle](opts...)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestPool_New(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := newPool(t)

		s := p.Stats()
		assert.Equal(t, 1, s.Blocks)
		assert.Equal(t, 0, s.Live)
		assert.Equal(t, 0, p.Len())
		assert.Zero(t, s.Stride%DefaultAlignment)
	})

	t.Run("stride covers item and header", func(t *testing.T) {
		p := newPool(t, WithAlignment(8, 8))

		// 16 bytes payload + string header (16) + 4 byte link + 1 byte tag, rounded to 8
		assert.GreaterOrEqual(t, p.Stats().Stride, 37)
		assert.Zero(t, p.Stats().Stride%8)
	})

	t.Run("block cap refuses first block", func(t *testing.T) {
		acq := &fakeAcquirer{limit: 1}
		_, err := New[item, handle](WithMemoryAcquirer(acq))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAllocationFailed)
	})
}

func TestPool_AllocFree(t *testing.T) {
	p := newPool(t, WithItemsPerBlock(4))

	var handles []handle
	for i := range 10 {
		h, it, err := p.Alloc()
		require.NoError(t, err)
		require.NotZero(t, h)
		it.a = int64(i)
		handles = append(handles, h)
	}

	assert.Equal(t, 10, p.Len())
	assert.Equal(t, 3, p.Stats().Blocks)

	for _, h := range handles[:3] {
		require.NoError(t, p.Free(h))
	}
	assert.Equal(t, 7, p.Len())

	t.Run("double free", func(t *testing.T) {
		err := p.Free(handles[0])
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("nil and unknown handles", func(t *testing.T) {
		assert.ErrorIs(t, p.Free(0), ErrInvalidHandle)
		assert.ErrorIs(t, p.Free(1000), ErrInvalidHandle)
		assert.Nil(t, p.Get(0))
		assert.Nil(t, p.Get(1000))
		assert.Nil(t, p.Get(handles[1]))
		assert.False(t, p.Live(handles[1]))
	})
}

func TestPool_LIFOReuse(t *testing.T) {
	p := newPool(t)

	h1, it1, err := p.Alloc()
	require.NoError(t, err)
	it1.tag = "first"
	_, _, err = p.Alloc()
	require.NoError(t, err)

	require.NoError(t, p.Free(h1))

	h3, it3, err := p.Alloc()
	require.NoError(t, err)
	assert.Equal(t, h1, h3)
	assert.Same(t, it1, it3)
	// Reused slots are not zeroed.
	assert.Equal(t, "first", it3.tag)
}

func TestPool_At(t *testing.T) {
	p := newPool(t, WithItemsPerBlock(2))

	var handles []handle
	for i := range 6 {
		h, it, err := p.Alloc()
		require.NoError(t, err)
		it.a = int64(i)
		handles = append(handles, h)
	}

	require.NoError(t, p.Free(handles[1]))
	require.NoError(t, p.Free(handles[4]))

	want := []int64{0, 2, 3, 5}
	require.Equal(t, len(want), p.Len())
	for i, v := range want {
		assert.Equal(t, v, p.Item(i).a)
		assert.True(t, p.Live(p.At(i)))
	}

	t.Run("index follows mutation", func(t *testing.T) {
		h, it, err := p.Alloc()
		require.NoError(t, err)
		it.a = 40
		// LIFO: the last freed slot comes back first and sits at traversal position 3.
		assert.Equal(t, handles[4], h)
		assert.Equal(t, int64(40), p.Item(3).a)
		assert.Equal(t, 3, p.IndexOf(h))
	})

	t.Run("IndexOf dead handle", func(t *testing.T) {
		assert.Equal(t, -1, p.IndexOf(handles[1]))
	})

	t.Run("out of range panics", func(t *testing.T) {
		assert.Panics(t, func() { p.At(p.Len()) })
		assert.Panics(t, func() { p.At(-1) })
	})
}

func TestPool_All(t *testing.T) {
	p := newPool(t, WithItemsPerBlock(3))

	for i := range 7 {
		_, it, err := p.Alloc()
		require.NoError(t, err)
		it.b = int64(i * i)
	}
	require.NoError(t, p.Free(3))

	var got []int64
	for h, it := range p.All() {
		require.True(t, p.Live(h))
		got = append(got, it.b)
	}
	assert.Equal(t, []int64{0, 1, 9, 16, 25, 36}, got)

	count := 0
	for range p.All() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestPool_Restart(t *testing.T) {
	p := newPool(t, WithItemsPerBlock(2))

	for range 5 {
		_, _, err := p.Alloc()
		require.NoError(t, err)
	}
	require.NoError(t, p.Free(2))
	blocks := p.Stats().Blocks

	p.Restart()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, blocks, p.Stats().Blocks)
	assert.Nil(t, p.Get(1))

	h, _, err := p.Alloc()
	require.NoError(t, err)
	assert.Equal(t, handle(1), h)
	assert.Equal(t, blocks, p.Stats().Blocks)
}

func TestPool_MaxBlocks(t *testing.T) {
	p := newPool(t, WithItemsPerBlock(2), WithMaxBlocks(2))

	for range 4 {
		_, _, err := p.Alloc()
		require.NoError(t, err)
	}

	_, _, err := p.Alloc()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocationFailed)

	// A freed slot is still available under the cap.
	require.NoError(t, p.Free(4))
	_, _, err = p.Alloc()
	assert.NoError(t, err)
}

type fakeAcquirer struct {
	limit    int
	acquired int64
	released int64
	calls    int
}

func (f *fakeAcquirer) AcquireMemory(_ context.Context, amount int64) error {
	f.calls++
	if f.limit > 0 && f.calls >= f.limit {
		return errors.New("memory limit exceeded")
	}
	f.acquired += amount
	return nil
}

func (f *fakeAcquirer) ReleaseMemory(amount int64) {
	f.released += amount
}

func TestPool_MemoryAcquirer(t *testing.T) {
	acq := &fakeAcquirer{limit: 3}
	p, err := New[item, handle](WithItemsPerBlock(1), WithMemoryAcquirer(acq))
	require.NoError(t, err)

	_, _, err = p.Alloc()
	require.NoError(t, err)
	_, _, err = p.Alloc()
	require.NoError(t, err)

	_, _, err = p.Alloc()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocationFailed)

	reserved := p.Stats().ReservedBytes
	assert.Equal(t, reserved, acq.acquired)

	p.Close()
	assert.Equal(t, acq.acquired, acq.released)
}

// gatedAcquirer grants one block per token and otherwise waits for ctx.
type gatedAcquirer struct {
	tokens chan struct{}
}

func (g *gatedAcquirer) AcquireMemory(ctx context.Context, _ int64) error {
	select {
	case <-g.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedAcquirer) ReleaseMemory(int64) {}

func newGated(t *testing.T, opts ...Option) (*Pool[item, handle], *gatedAcquirer) {
	t.Helper()
	acq := &gatedAcquirer{tokens: make(chan struct{}, 2)}
	acq.tokens <- struct{}{}
	opts = append([]Option{WithItemsPerBlock(1), WithMemoryAcquirer(acq)}, opts...)
	p, err := New[item, handle](opts...)
	require.NoError(t, err)
	_, _, err = p.Alloc()
	require.NoError(t, err)
	return p, acq
}

func TestPool_AcquireWait(t *testing.T) {
	t.Run("default timeout", func(t *testing.T) {
		p, _ := newGated(t)
		_, _, err := p.Alloc()
		require.ErrorIs(t, err, ErrAllocationFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("waits for capacity", func(t *testing.T) {
		p, acq := newGated(t, WithContext(context.Background()), WithAcquireTimeout(0))

		done := make(chan error, 1)
		go func() {
			_, _, err := p.Alloc()
			done <- err
		}()

		time.Sleep(2 * DefaultAcquireTimeout)
		acq.tokens <- struct{}{}
		require.NoError(t, <-done)
		assert.Equal(t, 2, p.Len())
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p, _ := newGated(t, WithContext(ctx), WithAcquireTimeout(0))
		cancel()

		_, _, err := p.Alloc()
		require.ErrorIs(t, err, ErrAllocationFailed)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPool_String(t *testing.T) {
	p := newPool(t)
	_, _, err := p.Alloc()
	require.NoError(t, err)

	assert.Contains(t, p.String(), "live: 1")
}

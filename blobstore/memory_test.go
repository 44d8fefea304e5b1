package blobstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payload := []byte("abcdef")
	require.NoError(t, store.Put(ctx, "a/1", payload))
	payload[0] = 'X'

	data, err := ReadAll(ctx, store, "a/1")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(data))

	w, err := store.Create(ctx, "a/2")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, store.Put(ctx, "b", nil))

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2"}, names)
	assert.Equal(t, 3, store.Len())

	blob, err := store.Open(ctx, "a/2")
	require.NoError(t, err)
	r, err := blob.ReadRange(ctx, 3, 100)
	require.NoError(t, err)
	rest, _ := io.ReadAll(r)
	assert.Equal(t, "eamed", string(rest))

	require.NoError(t, store.Delete(ctx, "a/1"))
	_, err = store.Open(ctx, "a/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_StreamAbort(t *testing.T) {
	store := NewMemoryStore()

	err := Stream(context.Background(), store, "x", func(w io.Writer) error {
		_, _ = w.Write([]byte("half"))
		return errors.New("stop")
	})
	require.Error(t, err)
	assert.Zero(t, store.Len())

	require.NoError(t, Stream(context.Background(), store, "y", func(w io.Writer) error {
		_, err := w.Write([]byte("full"))
		return err
	}))
	data, err := ReadAll(context.Background(), store, "y")
	require.NoError(t, err)
	assert.Equal(t, "full", string(data))
}

func TestMemoryStore_PutIfAbsent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var _ ConditionalPutter = store

	require.NoError(t, store.PutIfAbsent(ctx, "lock", []byte("first")))
	assert.ErrorIs(t, store.PutIfAbsent(ctx, "lock", []byte("second")), ErrConflict)

	data, err := ReadAll(ctx, store, "lock")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

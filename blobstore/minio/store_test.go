package minio

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tetgeo/blobstore"
)

// newTestStore connects to the server named by TETGEO_MINIO_ENDPOINT and skips
// the test when none is configured or reachable.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	endpoint := os.Getenv("TETGEO_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TETGEO_MINIO_ENDPOINT not set")
	}

	store, err := New(Config{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "tetgeo-test",
		Prefix:    t.Name() + "/",
	})
	require.NoError(t, err)

	ctx := context.Background()
	if err := store.EnsureBucket(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	t.Cleanup(func() {
		names, _ := store.List(ctx, "")
		for _, name := range names {
			_ = store.Delete(ctx, name)
		}
	})
	return store
}

func TestStore_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data := []byte("$MeshFormat\n2.2 0 8\n$EndMeshFormat\n")
	require.NoError(t, store.Put(ctx, "domain.msh", data))

	got, err := blobstore.ReadAll(ctx, store, "domain.msh")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	b, err := store.Open(ctx, "domain.msh")
	require.NoError(t, err)
	rc, err := b.ReadRange(ctx, 1, 10)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "MeshFormat", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, b.Close())

	err = blobstore.Stream(ctx, store, "groups/0.msh", func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	require.NoError(t, err)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"domain.msh", "groups/0.msh"}, names)

	require.NoError(t, store.Delete(ctx, "domain.msh"))
	require.NoError(t, store.Delete(ctx, "domain.msh"))
	_, err = store.Open(ctx, "domain.msh")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_StreamAbort(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("encode failed")
	err := blobstore.Stream(ctx, store, "partial.msh", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Open(ctx, "partial.msh")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

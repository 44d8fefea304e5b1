package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist. It is os.ErrNotExist so
// that local and remote stores match under errors.Is.
var ErrNotFound = os.ErrNotExist

// ErrConflict is returned by PutIfAbsent when the blob already exists.
var ErrConflict = errors.New("blobstore: blob already exists")

// BlobStore stores immutable blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts a streaming write. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a whole blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names that start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ConditionalPutter is implemented by stores that can create a blob only if
// it does not exist yet.
type ConditionalPutter interface {
	PutIfAbsent(ctx context.Context, name string, data []byte) error
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	io.Closer
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off, clipped to the blob size.
	// It returns io.EOF when off is past the end.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	Size() int64
}

// WritableBlob is a blob under construction.
type WritableBlob interface {
	io.WriteCloser
	Sync() error
}

// Mappable is implemented by blobs whose content is already in memory.
type Mappable interface {
	// Bytes returns the content. The slice is valid until the blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll returns the whole content of the named blob.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}

	size := b.Size()
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == size) {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(n) != size {
		return nil, fmt.Errorf("read %s: short read %d of %d bytes", name, n, size)
	}
	return buf, nil
}

// Aborter is implemented by writable blobs that can drop a partial write.
type Aborter interface {
	Abort(ctx context.Context) error
}

// Stream writes a new blob through Create, letting fn write the content. When
// fn fails the partial blob is aborted where the store supports it.
func Stream(ctx context.Context, store BlobStore, name string, fn func(io.Writer) error) error {
	blob, err := store.Create(ctx, name)
	if err != nil {
		return err
	}

	err = fn(blob)
	if err == nil {
		err = blob.Sync()
	}
	if err != nil {
		if a, ok := blob.(Aborter); ok {
			_ = a.Abort(ctx)
		} else {
			_ = blob.Close()
		}
		return err
	}
	return blob.Close()
}

// rangeBounds clips [off, off+length) to size.
func rangeBounds(off, length, size int64) (int64, int64, error) {
	if off < 0 || length < 0 {
		return 0, 0, fmt.Errorf("blobstore: invalid range %d+%d", off, length)
	}
	if off >= size {
		return 0, 0, io.EOF
	}
	end := off + length
	if end > size {
		end = size
	}
	return off, end, nil
}

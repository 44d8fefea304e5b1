// Package blobstore abstracts where mesh containers are read from and where
// exported artifacts are written to.
//
// A BlobStore addresses blobs by slash-separated names relative to its root.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system, read through mmap
//   - MemoryStore: an in-process map, used by tests and dry runs
//   - s3.Store: Amazon S3 (package blobstore/s3)
//   - minio.Store: MinIO and other S3-compatible servers (package blobstore/minio)
package blobstore

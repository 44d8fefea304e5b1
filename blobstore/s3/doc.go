// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "meshes", "runs/",
//	    config.WithRegion("eu-central-1"),
//	)
//
// Store works against any Client, so tests and S3-compatible endpoints can
// supply their own.
//
// # Features
//
//   - Range reads through GetObject
//   - Streaming multipart uploads through the transfer manager, aborted when the
//     writer is aborted
//   - CRC32C checksums on whole-object puts
//   - Conditional creates with If-None-Match
//   - Automatic pagination for listing
package s3

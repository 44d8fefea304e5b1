// Package minio provides a blobstore.BlobStore on the MinIO client.
//
// It works against MinIO and other S3-compatible services such as Ceph or
// Garage, without the AWS SDK.
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "meshes",
//	    Prefix:    "runs/",
//	})
//
// Uploads stream through PutObject with unknown size, so large skins are sent
// as multipart uploads by the client.
package minio

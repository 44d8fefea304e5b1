// Package hash provides the CRC32-Castagnoli checksums used for blob
// integrity.
//
// Sums are rendered in two forms: the base64 big-endian form S3 expects in
// the x-amz-checksum-crc32c header, and a fixed-width hex form used in run
// manifests.
//
//	sum := hash.CRC32C(data)
//	header := hash.Base64(sum)
package hash

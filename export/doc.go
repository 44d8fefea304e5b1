// Package export writes the artifacts of a processed mesh to a blob store.
//
// One run writes, below a common prefix:
//
//	domain.tgm          all tetrahedra, with MaterialIDs when requested
//	groups/<d>.tgm      one file per physical group, d = 0..5
//	skin.tgm            the whole boundary skin, when requested
//	manifest.json       run id, artifact sizes and CRC32C checksums
//
// Artifacts are encoded with meshio and streamed through blobstore.Stream, so
// a failed encode never leaves a partial object behind. The manifest is
// written last; its presence marks a complete run.
package export

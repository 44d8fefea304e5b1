// Package tetgeo reconstructs the topology of tetrahedral meshes and splits
// their boundary into six physical groups.
//
// A Pipeline runs one input through every stage:
//
//	decode → build → partition → export → ledger
//
// Volume inputs (four-node cells) are reconstructed with mesh.Build; surface
// inputs (three-node cells) are welded with mesh.BuildSurface. The boundary
// skin is then partitioned by partition.Extract, and the selected artifacts
// are written to a blob store by the export package.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./out")
//	p := tetgeo.New(store,
//	    tetgeo.WithPartitionConfig(partition.Config{Roll: -50}),
//	    tetgeo.WithLogger(tetgeo.NewTextLogger(slog.LevelInfo)),
//	)
//	res, err := p.ProcessBlob(ctx, inputs, "part.tgm")
//
// # Skipping Unchanged Inputs
//
// With WithLedger, ProcessBlob records every finished input together with the
// CRC32C of its bytes. An input whose entry matches is skipped unless
// WithForce is set. Concurrent runs claim inputs in the ledger first, so an
// input is processed by one run at a time.
//
// # Errors
//
// Failures of the core stages are re-exported here (ErrTopologyInconsistency,
// ErrDegenerateGeometry, ErrSeedNotFound, ...) and wrapped in a StageError
// that names the stage and the input.
//
// # Resource Limits
//
// A resource.Controller passed with WithController bounds the arena memory of
// every build, the number of parallel artifact writes and the write
// bandwidth.
package tetgeo

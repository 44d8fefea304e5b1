package tetgeo

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/tetgeo/blobstore"
	"github.com/hupe1980/tetgeo/export"
	"github.com/hupe1980/tetgeo/internal/hash"
	"github.com/hupe1980/tetgeo/ledger"
	"github.com/hupe1980/tetgeo/mesh"
	"github.com/hupe1980/tetgeo/meshio"
	"github.com/hupe1980/tetgeo/partition"
)

// Pipeline processes mesh inputs and writes their artifacts to a store.
//
// A Pipeline is safe for concurrent use; every input gets its own mesh.
type Pipeline struct {
	opts     options
	exporter *export.Exporter
}

// New returns a pipeline writing to store.
func New(store blobstore.BlobStore, opts ...Option) *Pipeline {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		partition:        partition.DefaultConfig,
		export:           export.DefaultOptions,
		parallelism:      1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parallelism < 1 {
		o.parallelism = 1
	}

	return &Pipeline{
		opts: o,
		exporter: export.New(store,
			export.WithOptions(o.export),
			export.WithController(o.controller),
			export.WithLogger(o.logger.Logger),
		),
	}
}

// Result is the outcome of one input.
type Result struct {
	Input string
	RunID string
	// Digest is the CRC32C of the input bytes, set by ProcessBlob.
	Digest string
	// Skipped is set when the ledger marked the input as current.
	Skipped bool
	// Surface is set for triangle inputs.
	Surface   bool
	Stats     mesh.Stats
	Partition *partition.Result
	Manifest  *export.Manifest
}

// Process builds, partitions and exports fd. input names the run and its
// output directory.
func (p *Pipeline) Process(ctx context.Context, input string, fd *meshio.FileData) (*Result, error) {
	res := &Result{Input: input, RunID: uuid.NewString()}
	if err := p.process(ctx, res, fd); err != nil {
		return nil, err
	}
	return res, nil
}

// ProcessBlob reads name from src and processes it. With a ledger it skips
// current inputs and records the result.
func (p *Pipeline) ProcessBlob(ctx context.Context, src blobstore.BlobStore, name string) (*Result, error) {
	res := &Result{Input: name, RunID: uuid.NewString()}
	log := p.opts.logger.WithInput(name).WithRunID(res.RunID)

	data, err := blobstore.ReadAll(ctx, src, name)
	if err != nil {
		return nil, stageError(StageRead, name, err)
	}
	res.Digest = hash.Hex(hash.CRC32C(data))
	size := int64(len(data))

	if l := p.opts.ledger; l != nil {
		if !p.opts.force {
			entry, err := l.Get(ctx, name)
			switch {
			case err == nil && entry.Current(res.Digest, size):
				res.Skipped = true
				p.opts.metricsCollector.RecordSkip()
				log.LogSkip(ctx, "unchanged since run "+entry.RunID)
				return res, nil
			case err != nil && !errors.Is(err, ledger.ErrNotFound):
				return nil, stageError(StageLedger, name, err)
			}
		}

		if err := l.Claim(ctx, name, res.RunID); err != nil {
			return nil, stageError(StageLedger, name, err)
		}
		defer func() {
			if err := l.Release(context.WithoutCancel(ctx), name); err != nil {
				log.WarnContext(ctx, "release claim failed", "error", err)
			}
		}()
	}

	fd, err := meshio.Unmarshal(data)
	if err != nil {
		return nil, stageError(StageDecode, name, err)
	}

	if err := p.process(ctx, res, fd); err != nil {
		return nil, err
	}

	if l := p.opts.ledger; l != nil {
		if err := l.Record(ctx, entryFor(res, size)); err != nil {
			return nil, stageError(StageLedger, name, err)
		}
	}
	return res, nil
}

// ProcessAll runs ProcessBlob for every name, WithParallelism inputs at a
// time. A failing input does not stop the others; the returned slice holds nil
// for it and the joined error lists every failure.
func (p *Pipeline) ProcessAll(ctx context.Context, src blobstore.BlobStore, names []string) ([]*Result, error) {
	results := make([]*Result, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(p.opts.parallelism)
	for i, name := range names {
		g.Go(func() error {
			results[i], errs[i] = p.ProcessBlob(ctx, src, name)
			if errs[i] != nil {
				p.opts.logger.WithInput(name).ErrorContext(ctx, "input failed", "error", errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

func (p *Pipeline) process(ctx context.Context, res *Result, fd *meshio.FileData) error {
	log := p.opts.logger.WithInput(res.Input).WithRunID(res.RunID)
	metrics := p.opts.metricsCollector

	triangles, tetrahedra := fd.CellKinds()
	if triangles == tetrahedra {
		return stageError(StageBuild, res.Input, ErrUnsupportedCells)
	}
	res.Surface = triangles

	meshOpts := []mesh.Option{mesh.WithLogger(log.Logger)}
	if p.opts.controller != nil {
		meshOpts = append(meshOpts, mesh.WithMemoryAcquirer(p.opts.controller), mesh.WithContext(ctx))
		if d := p.opts.allocTimeout; d != 0 {
			meshOpts = append(meshOpts, mesh.WithAcquireTimeout(d))
		}
	}

	start := time.Now()
	var (
		m   *mesh.Mesh
		err error
	)
	if res.Surface {
		m, err = mesh.BuildSurface(mesh.InputFromFileData(fd, p.opts.attributeSlot, false), meshOpts...)
	} else {
		m, err = mesh.Build(mesh.InputFromFileData(fd, p.opts.attributeSlot, true), meshOpts...)
	}
	if err == nil {
		res.Stats = m.Stats()
	}
	metrics.RecordBuild(res.Stats, time.Since(start), err)
	log.LogBuild(ctx, res.Stats, res.Surface, err)
	if err != nil {
		return stageError(StageBuild, res.Input, err)
	}
	defer m.Close()

	cfg := p.opts.partition
	if cfg.Logger == nil {
		cfg.Logger = log.Logger
	}
	start = time.Now()
	pr, err := partition.Extract(m, cfg)
	if err != nil {
		metrics.RecordPartition(0, 0, 0, time.Since(start), err)
	} else {
		metrics.RecordPartition(pr.Rounds, pr.Assigned(), int(pr.Unassigned.GetCardinality()), time.Since(start), nil)
	}
	log.LogPartition(ctx, pr, err)
	if err != nil {
		return stageError(StagePartition, res.Input, err)
	}
	res.Partition = pr

	if err := ctx.Err(); err != nil {
		return err
	}

	start = time.Now()
	manifest, err := p.exporter.Export(ctx, export.Run{
		ID:     res.RunID,
		Input:  res.Input,
		Prefix: p.runPrefix(res.Input),
	}, m, pr)
	if err != nil {
		metrics.RecordExport(0, 0, time.Since(start), err)
	} else {
		metrics.RecordExport(len(manifest.Artifacts), manifest.TotalBytes(), time.Since(start), nil)
	}
	log.LogExport(ctx, manifest, err)
	if err != nil {
		return stageError(StageExport, res.Input, err)
	}
	res.Manifest = manifest
	return nil
}

// runPrefix is the output directory of input: its base name without
// extension, below the configured output prefix.
func (p *Pipeline) runPrefix(input string) string {
	base := path.Base(input)
	return path.Join(p.opts.outputPrefix, strings.TrimSuffix(base, path.Ext(base)))
}

func entryFor(res *Result, size int64) *ledger.Entry {
	e := &ledger.Entry{
		Input:         res.Input,
		Digest:        res.Digest,
		Size:          size,
		RunID:         res.RunID,
		Vertices:      res.Stats.Vertices,
		Tets:          res.Stats.Tets,
		BoundaryFaces: res.Stats.BoundaryFaces,
	}
	if res.Manifest != nil {
		e.Outputs = append(res.Manifest.Names(), path.Join(res.Manifest.Prefix, export.ManifestName))
	}
	if res.Partition != nil {
		for d, g := range res.Partition.Groups {
			e.Groups[d] = g.Len()
		}
		e.Unassigned = int(res.Partition.Unassigned.GetCardinality())
	}
	return e
}

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/tetgeo/blobstore"
	"github.com/hupe1980/tetgeo/internal/hash"
	"github.com/hupe1980/tetgeo/mesh"
	"github.com/hupe1980/tetgeo/meshio"
	"github.com/hupe1980/tetgeo/partition"
	"github.com/hupe1980/tetgeo/resource"
)

// Options selects what is written and how.
type Options struct {
	Compression meshio.Compression
	// Materials adds MaterialIDs to the domain artifact.
	Materials bool
	// Groups writes one artifact per physical group.
	Groups bool
	// Skin writes the boundary skin as one artifact.
	Skin bool
	// Domain writes the volume mesh. It is ignored for surface meshes.
	Domain bool
}

// DefaultOptions writes the domain and the six groups with LZ4 compression.
var DefaultOptions = Options{
	Compression: meshio.CompressionLZ4,
	Domain:      true,
	Groups:      true,
}

// Exporter writes runs to a store.
type Exporter struct {
	store      blobstore.BlobStore
	opts       Options
	controller *resource.Controller
	logger     *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithOptions replaces DefaultOptions.
func WithOptions(o Options) Option {
	return func(e *Exporter) { e.opts = o }
}

// WithController limits parallel writes and bandwidth.
func WithController(rc *resource.Controller) Option {
	return func(e *Exporter) { e.controller = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// New returns an exporter writing to store.
func New(store blobstore.BlobStore, opts ...Option) *Exporter {
	e := &Exporter{
		store:  store,
		opts:   DefaultOptions,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run identifies one export.
type Run struct {
	// ID defaults to a new UUID.
	ID string
	// Input is recorded in the manifest.
	Input string
	// Prefix is the directory the artifacts are written below.
	Prefix string
}

// Export writes the selected artifacts of m and res, then the manifest. res
// may be nil when no groups are requested.
func (e *Exporter) Export(ctx context.Context, run Run, m *mesh.Mesh, res *partition.Result) (*Manifest, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if e.opts.Groups && res == nil {
		return nil, fmt.Errorf("export: groups requested without a partition result")
	}

	start := time.Now()

	// Views are built one by one: the mesh is not safe for concurrent reads.
	jobs := e.plan(run.Prefix, m, res)

	manifest := &Manifest{
		RunID:       run.ID,
		Input:       run.Input,
		Prefix:      run.Prefix,
		Compression: e.opts.Compression.String(),
		CreatedAt:   start.UTC(),
		Artifacts:   make([]Artifact, len(jobs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.controller.MaxWorkers())
	for i, j := range jobs {
		g.Go(func() error {
			if err := e.controller.AcquireWorker(gctx); err != nil {
				return err
			}
			defer e.controller.ReleaseWorker()

			a, err := e.write(gctx, j)
			if err != nil {
				return fmt.Errorf("export: %s: %w", j.artifact.Name, err)
			}
			manifest.Artifacts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelDebug, "export failed",
			slog.String("run_id", run.ID), slog.String("error", err.Error()))
		return nil, err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := e.store.Put(ctx, path.Join(run.Prefix, ManifestName), data); err != nil {
		return nil, fmt.Errorf("export: manifest: %w", err)
	}

	e.logger.LogAttrs(ctx, slog.LevelDebug, "export completed",
		slog.String("run_id", run.ID),
		slog.String("prefix", run.Prefix),
		slog.Int("artifacts", len(jobs)),
		slog.Int64("bytes", manifest.TotalBytes()),
		slog.Duration("duration", time.Since(start)),
	)
	return manifest, nil
}

func (e *Exporter) plan(prefix string, m *mesh.Mesh, res *partition.Result) []job {
	var jobs []job
	add := func(name string, kind Kind, group int, fd *meshio.FileData) {
		jobs = append(jobs, job{
			artifact: Artifact{
				Name:   path.Join(prefix, name),
				Kind:   kind,
				Group:  group,
				Points: fd.NumPoints(),
				Cells:  fd.NumCells(),
			},
			data: fd,
		})
	}

	if e.opts.Domain && m.NumTets() > 0 {
		add("domain"+meshio.Extension, KindDomain, 0, m.DomainData(e.opts.Materials))
	}
	if e.opts.Groups {
		for _, grp := range res.Groups {
			add(path.Join("groups", strconv.Itoa(int(grp.Direction))+meshio.Extension), KindGroup, int(grp.Direction), grp.FileData(m))
		}
	}
	if e.opts.Skin {
		add("skin"+meshio.Extension, KindSkin, 0, m.SkinData())
	}
	return jobs
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

func (e *Exporter) write(ctx context.Context, j job) (Artifact, error) {
	a := j.artifact
	sum := hash.NewCRC32C()
	count := &countingWriter{}

	err := blobstore.Stream(ctx, e.store, a.Name, func(w io.Writer) error {
		limited := resource.NewRateLimitedWriter(ctx, w, e.controller)
		return meshio.Encode(io.MultiWriter(limited, sum, count), j.data, e.opts.Compression)
	})
	if err != nil {
		return Artifact{}, err
	}

	a.Bytes = count.n
	a.CRC32C = hash.Hex(sum.Sum32())
	return a, nil
}

// ReadManifest loads the manifest of the run below prefix.
func ReadManifest(ctx context.Context, store blobstore.BlobStore, prefix string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, store, path.Join(prefix, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("export: decode manifest: %w", err)
	}
	return &m, nil
}

// Verify re-reads every artifact of m and checks its size and checksum.
func Verify(ctx context.Context, store blobstore.BlobStore, m *Manifest) error {
	for _, a := range m.Artifacts {
		data, err := blobstore.ReadAll(ctx, store, a.Name)
		if err != nil {
			return fmt.Errorf("export: verify %s: %w", a.Name, err)
		}
		if int64(len(data)) != a.Bytes {
			return fmt.Errorf("export: verify %s: size %d, want %d", a.Name, len(data), a.Bytes)
		}
		if got := hash.Hex(hash.CRC32C(data)); got != a.CRC32C {
			return fmt.Errorf("export: verify %s: crc32c %s, want %s", a.Name, got, a.CRC32C)
		}
	}
	return nil
}

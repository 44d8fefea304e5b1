package integration_test

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tetgeo"
	"github.com/hupe1980/tetgeo/blobstore"
	"github.com/hupe1980/tetgeo/export"
	"github.com/hupe1980/tetgeo/ledger"
	"github.com/hupe1980/tetgeo/mesh"
	"github.com/hupe1980/tetgeo/meshio"
	"github.com/hupe1980/tetgeo/partition"
	"github.com/hupe1980/tetgeo/resource"
	"github.com/hupe1980/tetgeo/testutil"
)

// sideOf returns the axis and box bound a group of the axis-aligned frame lies on.
func sideOf(d partition.Direction, lo, hi [3]float64) (axis int, bound float64) {
	axis = int(d) / 2
	if int(d)%2 == 0 {
		return axis, hi[axis]
	}
	return axis, lo[axis]
}

func TestEndToEnd_Boxes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := blobstore.NewLocalStore(filepath.Join(dir, "in"))
	out := blobstore.NewLocalStore(filepath.Join(dir, "out"))

	led, err := ledger.OpenSQLiteLedger(ctx, filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	defer led.Close()

	rng := testutil.NewRNG(4711)
	sizes := []int{2, 3, 4}
	names := make([]string, len(sizes))
	bounds := make(map[string][2][3]float64)
	for i, n := range sizes {
		fd := testutil.GradedBox(n)
		rng.JitterInterior(fd, 0.02)
		rng.Shuffle(fd)

		names[i] = fmt.Sprintf("box%d%s", n, meshio.Extension)
		lo, hi := testutil.Bounds(fd)
		bounds[names[i]] = [2][3]float64{lo, hi}

		data, err := meshio.Marshal(fd, meshio.CompressionLZ4)
		require.NoError(t, err)
		require.NoError(t, src.Put(ctx, names[i], data))
	}

	metrics := &tetgeo.BasicMetricsCollector{}
	p := tetgeo.New(out,
		tetgeo.WithLedger(led),
		tetgeo.WithMetricsCollector(metrics),
		tetgeo.WithParallelism(2),
		tetgeo.WithController(resource.NewController(resource.Config{
			MemoryLimitBytes: 64 << 20,
			MaxWorkers:       3,
		})),
	)

	results, err := p.ProcessAll(ctx, src, names)
	require.NoError(t, err)

	for i, n := range sizes {
		res := results[i]
		require.NotNil(t, res)
		assert.Equal(t, 6*n*n*n, res.Stats.Tets)
		assert.Equal(t, 12*n*n, res.Stats.BoundaryFaces)
		assert.Zero(t, res.Partition.Unassigned.GetCardinality())

		lo, hi := bounds[names[i]][0], bounds[names[i]][1]
		for _, g := range res.Partition.Groups {
			require.Equal(t, 2*n*n, g.Len(), "%s group %s", names[i], g.Direction)

			fd := decodeArtifact(t, out, path.Join(res.Manifest.Prefix, "groups", fmt.Sprintf("%d%s", g.Direction, meshio.Extension)))
			axis, bound := sideOf(g.Direction, lo, hi)
			for j := 0; j < fd.NumPoints(); j++ {
				assert.Equal(t, bound, fd.Points[3*j+axis], "%s group %s point %d", names[i], g.Direction, j)
			}

			elems, ok := fd.CellArray(mesh.BulkElementIDs)
			require.True(t, ok)
			for _, v := range elems.Values {
				assert.GreaterOrEqual(t, v, int64(0))
			}
		}

		require.NoError(t, export.Verify(ctx, out, res.Manifest))
	}

	entries, err := led.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(sizes))
	for _, e := range entries {
		assert.NotEmpty(t, e.Outputs)
	}

	// A second pass finds everything current.
	results, err = p.ProcessAll(ctx, src, names)
	require.NoError(t, err)
	for _, res := range results {
		assert.True(t, res.Skipped)
	}
	assert.Equal(t, int64(len(sizes)), metrics.GetStats().SkipCount)
}

func TestEndToEnd_SurfaceRoundTrip(t *testing.T) {
	ctx := context.Background()
	out := blobstore.NewMemoryStore()

	opts := export.DefaultOptions
	opts.Skin = true
	p := tetgeo.New(out, tetgeo.WithExportOptions(opts))

	vol, err := p.Process(ctx, "vol.tgm", testutil.GradedBox(3))
	require.NoError(t, err)

	// The exported skin partitions like the volume it came from.
	skin := decodeArtifact(t, out, "vol/skin.tgm")
	surf, err := p.Process(ctx, "surf.tgm", skin)
	require.NoError(t, err)
	assert.True(t, surf.Surface)

	for d := range partition.NumGroups {
		assert.Equal(t, vol.Partition.Groups[d].Len(), surf.Partition.Groups[d].Len())
	}
}

func TestEndToEnd_Rotated(t *testing.T) {
	ctx := context.Background()

	// Rotation moves the rays only; reference normals come from the seeds.
	cfg := partition.DefaultConfig
	cfg.Yaw = 30

	res, err := tetgeo.New(blobstore.NewMemoryStore(), tetgeo.WithPartitionConfig(cfg)).
		Process(ctx, "cube.tgm", testutil.ConedCube(0.3, 0.45, 0.6))
	require.NoError(t, err)
	assert.Equal(t, 12, res.Partition.Assigned())
}

func decodeArtifact(t *testing.T, store blobstore.BlobStore, name string) *meshio.FileData {
	t.Helper()
	data, err := blobstore.ReadAll(context.Background(), store, name)
	require.NoError(t, err)
	fd, err := meshio.Unmarshal(data)
	require.NoError(t, err)
	return fd
}

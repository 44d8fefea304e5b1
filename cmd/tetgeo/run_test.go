package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tetgeo"
	"github.com/hupe1980/tetgeo/blobstore"
	"github.com/hupe1980/tetgeo/export"
	"github.com/hupe1980/tetgeo/internal/config"
	"github.com/hupe1980/tetgeo/meshio"
	"github.com/hupe1980/tetgeo/testutil"
)

func writeMesh(t *testing.T, path string, fd *meshio.FileData) {
	t.Helper()
	data, err := meshio.Marshal(fd, meshio.CompressionLZ4)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func testConfig(t *testing.T, inputs ...string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Input: config.InputConfig{Files: inputs},
		Output: config.OutputConfig{
			Path:        filepath.Join(dir, "out"),
			Materials:   true,
			SixSurface:  true,
			Domain:      true,
			Compression: "zstd",
		},
		Partition: config.PartitionConfig{MaxDeviation: 45, RayLength: 5000},
		Ledger:    config.LedgerConfig{URI: "file://" + filepath.Join(dir, "ledger")},
		Resources: config.ResourceConfig{MaxWorkers: 2, Parallelism: 2},
		Log:       config.LogConfig{Level: "error"},
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	in := t.TempDir()
	cube := filepath.Join(in, "cube.tgm")
	box := filepath.Join(in, "box.tgm")
	writeMesh(t, cube, testutil.ConedCube(0.3, 0.45, 0.6))
	writeMesh(t, box, testutil.GradedBox(2))

	cfg := testConfig(t, cube, box)

	var stdout bytes.Buffer
	require.NoError(t, run(ctx, cfg, false, &stdout))
	assert.Contains(t, stdout.String(), "2/2/2/2/2/2")
	assert.NotContains(t, stdout.String(), "skipped")

	out := blobstore.NewLocalStore(cfg.Output.Path)
	for _, prefix := range []string{"cube", "box"} {
		m, err := export.ReadManifest(ctx, out, prefix)
		require.NoError(t, err)
		assert.Equal(t, "zstd", m.Compression)
		assert.Len(t, m.Artifacts, 7)
		require.NoError(t, export.Verify(ctx, out, m))
	}

	stdout.Reset()
	require.NoError(t, run(ctx, cfg, false, &stdout))
	assert.Contains(t, stdout.String(), "skipped")

	stdout.Reset()
	require.NoError(t, run(ctx, cfg, true, &stdout))
	assert.NotContains(t, stdout.String(), "skipped")
}

func TestRun_SQLiteLedger(t *testing.T) {
	in := t.TempDir()
	cube := filepath.Join(in, "cube.tgm")
	writeMesh(t, cube, testutil.ConedCube(0.3, 0.45, 0.6))

	cfg := testConfig(t, cube)
	cfg.Ledger.URI = "sqlite://" + filepath.Join(t.TempDir(), "db", "ledger.db")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, false, &stdout))
	stdout.Reset()
	require.NoError(t, run(context.Background(), cfg, false, &stdout))
	assert.Contains(t, stdout.String(), "skipped")
}

func TestRun_PartialFailure(t *testing.T) {
	in := t.TempDir()
	good := filepath.Join(in, "good.tgm")
	bad := filepath.Join(in, "bad.tgm")
	writeMesh(t, good, testutil.GradedBox(2))
	writeMesh(t, bad, testutil.FiveTetCube())

	cfg := testConfig(t, good, bad)
	cfg.Ledger.URI = ""

	var stdout bytes.Buffer
	err := run(context.Background(), cfg, false, &stdout)
	require.ErrorIs(t, err, tetgeo.ErrSeedNotFound)
	assert.Contains(t, stdout.String(), "failed")
	assert.Contains(t, stdout.String(), "ok")
}

func TestOpenOutput(t *testing.T) {
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "a", "b")
	store, err := openOutput(ctx, config.OutputConfig{Path: dir})
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)
	assert.DirExists(t, dir)

	_, err = openOutput(ctx, config.OutputConfig{Path: "ftp://host/x"})
	assert.Error(t, err)
}

func TestOpenLedger(t *testing.T) {
	ctx := context.Background()

	l, err := openLedger(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, l)

	_, err = openLedger(ctx, "redis://localhost")
	assert.Error(t, err)
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		in, scheme, rest string
	}{
		{"s3://bucket/runs/a", "s3", "bucket/runs/a"},
		{"MINIO://bucket", "minio", "bucket"},
		{"/data/out", "", "/data/out"},
		{"relative/out", "", "relative/out"},
	}
	for _, tc := range tests {
		scheme, rest := splitURI(tc.in)
		assert.Equal(t, tc.scheme, scheme, tc.in)
		assert.Equal(t, tc.rest, rest, tc.in)
	}

	bucket, prefix := bucketPrefix("bucket/runs/a/")
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "runs/a", prefix)

	bucket, prefix = bucketPrefix("bucket")
	assert.Equal(t, "bucket", bucket)
	assert.Empty(t, prefix)
}

func TestRealMain(t *testing.T) {
	assert.Equal(t, 2, realMain(nil))

	path := filepath.Join(t.TempDir(), "cfg", "config.json")
	assert.Equal(t, 0, realMain([]string{"-f", path}))
	assert.FileExists(t, path)

	// The default config has no inputs.
	assert.Equal(t, 1, realMain([]string{"--file", path}))
}

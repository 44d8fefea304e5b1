package benchmark_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/tetgeo"
	"github.com/hupe1980/tetgeo/blobstore"
	"github.com/hupe1980/tetgeo/export"
	"github.com/hupe1980/tetgeo/mesh"
	"github.com/hupe1980/tetgeo/meshio"
	"github.com/hupe1980/tetgeo/partition"
	"github.com/hupe1980/tetgeo/testutil"
)

var gridSizes = []int{4, 8, 16}

func BenchmarkBuild(b *testing.B) {
	for _, n := range gridSizes {
		fd := testutil.GradedBox(n)
		testutil.NewRNG(42).Shuffle(fd)
		in := mesh.InputFromFileData(fd, 0, true)

		b.Run(fmt.Sprintf("tets=%d", 6*n*n*n), func(b *testing.B) {
			m, err := mesh.New()
			if err != nil {
				b.Fatal(err)
			}
			defer m.Close()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := m.Load(in); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportMetric(float64(6*n*n*n)*float64(b.N)/b.Elapsed().Seconds(), "tets/s")
		})
	}
}

func BenchmarkBuildSurface(b *testing.B) {
	for _, n := range gridSizes {
		skin := skinOf(b, testutil.GradedBox(n))

		b.Run(fmt.Sprintf("faces=%d", 12*n*n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				m, err := mesh.BuildSurface(mesh.InputFromFileData(skin, 0, false))
				if err != nil {
					b.Fatal(err)
				}
				m.Close()
			}
		})
	}
}

func BenchmarkExtract(b *testing.B) {
	for _, n := range gridSizes {
		m, err := mesh.Build(mesh.InputFromFileData(testutil.GradedBox(n), 0, true))
		if err != nil {
			b.Fatal(err)
		}

		b.Run(fmt.Sprintf("boundary=%d", 12*n*n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := partition.Extract(m, partition.DefaultConfig); err != nil {
					b.Fatal(err)
				}
			}
		})
		m.Close()
	}
}

func BenchmarkExport(b *testing.B) {
	ctx := context.Background()
	m, err := mesh.Build(mesh.InputFromFileData(testutil.GradedBox(8), 0, true))
	if err != nil {
		b.Fatal(err)
	}
	defer m.Close()
	res, err := partition.Extract(m, partition.DefaultConfig)
	if err != nil {
		b.Fatal(err)
	}

	for _, c := range []meshio.Compression{meshio.CompressionNone, meshio.CompressionLZ4, meshio.CompressionZSTD} {
		b.Run(c.String(), func(b *testing.B) {
			opts := export.DefaultOptions
			opts.Compression = c
			opts.Skin = true
			ex := export.New(blobstore.NewMemoryStore(), export.WithOptions(opts))

			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := ex.Export(ctx, export.Run{Prefix: "bench"}, m, res); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkPipeline(b *testing.B) {
	ctx := context.Background()
	src := blobstore.NewMemoryStore()
	for _, n := range gridSizes {
		data, err := meshio.Marshal(testutil.GradedBox(n), meshio.CompressionLZ4)
		if err != nil {
			b.Fatal(err)
		}
		if err := src.Put(ctx, fmt.Sprintf("box%d%s", n, meshio.Extension), data); err != nil {
			b.Fatal(err)
		}
	}

	for _, n := range gridSizes {
		name := fmt.Sprintf("box%d%s", n, meshio.Extension)
		b.Run(name, func(b *testing.B) {
			p := tetgeo.New(blobstore.NewMemoryStore())

			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := p.ProcessBlob(ctx, src, name); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func skinOf(b *testing.B, fd *meshio.FileData) *meshio.FileData {
	b.Helper()
	m, err := mesh.Build(mesh.InputFromFileData(fd, 0, false))
	if err != nil {
		b.Fatal(err)
	}
	defer m.Close()
	return m.SkinData()
}

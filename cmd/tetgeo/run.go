package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/tetgeo"
	"github.com/hupe1980/tetgeo/blobstore"
	miniostore "github.com/hupe1980/tetgeo/blobstore/minio"
	s3store "github.com/hupe1980/tetgeo/blobstore/s3"
	"github.com/hupe1980/tetgeo/export"
	"github.com/hupe1980/tetgeo/internal/config"
	"github.com/hupe1980/tetgeo/ledger"
	"github.com/hupe1980/tetgeo/meshio"
	"github.com/hupe1980/tetgeo/resource"
)

func run(ctx context.Context, cfg config.Config, force bool, stdout io.Writer) error {
	logger := newLogger(cfg.Log)

	out, err := openOutput(ctx, cfg.Output)
	if err != nil {
		return err
	}

	led, err := openLedger(ctx, cfg.Ledger.URI)
	if err != nil {
		return err
	}
	if led != nil {
		defer func() { _ = led.Close() }()
	}

	compression, err := meshio.ParseCompression(cfg.Output.Compression)
	if err != nil {
		return err
	}

	opts := []tetgeo.Option{
		tetgeo.WithLogger(logger),
		tetgeo.WithForce(force),
		tetgeo.WithPartitionConfig(cfg.PartitionSettings()),
		tetgeo.WithAttributeSlot(cfg.Output.AttributeSlot),
		tetgeo.WithParallelism(cfg.Resources.Parallelism),
		tetgeo.WithAllocationTimeout(cfg.Resources.AllocationTimeout),
		tetgeo.WithController(resource.NewController(resource.Config{
			MemoryLimitBytes:   cfg.Resources.MemoryLimitBytes,
			MaxWorkers:         cfg.Resources.MaxWorkers,
			IOLimitBytesPerSec: cfg.Resources.IOLimitBytesPerSec,
		})),
		tetgeo.WithExportOptions(export.Options{
			Compression: compression,
			Materials:   cfg.Output.Materials,
			Groups:      cfg.Output.SixSurface,
			Skin:        cfg.Output.FaceRelated,
			Domain:      cfg.Output.Domain,
		}),
	}
	if led != nil {
		opts = append(opts, tetgeo.WithLedger(led))
	}

	names := make([]string, 0, len(cfg.Input.Files))
	for _, f := range cfg.Input.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(abs))
	}

	// Inputs are absolute paths below the file system root.
	results, err := tetgeo.New(out, opts...).ProcessAll(ctx, blobstore.NewLocalStore(""), names)
	report(stdout, names, results)
	return err
}

func report(w io.Writer, names []string, results []*tetgeo.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tSTATUS\tTETS\tGROUPS\tOUTPUT")
	for i, name := range names {
		res := results[i]
		switch {
		case res == nil:
			fmt.Fprintf(tw, "%s\tfailed\t-\t-\t-\n", name)
		case res.Skipped:
			fmt.Fprintf(tw, "%s\tskipped\t-\t-\t-\n", name)
		default:
			sizes := make([]string, 0, len(res.Partition.Groups))
			for _, g := range res.Partition.Groups {
				sizes = append(sizes, fmt.Sprint(g.Len()))
			}
			fmt.Fprintf(tw, "%s\tok\t%d\t%s\t%s\n", name, res.Stats.Tets, strings.Join(sizes, "/"), res.Manifest.Prefix)
		}
	}
	_ = tw.Flush()
}

func newLogger(cfg config.LogConfig) *tetgeo.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if strings.EqualFold(cfg.Format, "json") {
		return tetgeo.NewJSONLogger(level)
	}
	return tetgeo.NewTextLogger(level)
}

// splitURI splits scheme://rest. A string without a scheme returns "".
func splitURI(uri string) (scheme, rest string) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return "", uri
	}
	return strings.ToLower(scheme), rest
}

// bucketPrefix splits bucket/prefix.
func bucketPrefix(rest string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(prefix, "/")
}

func openOutput(ctx context.Context, cfg config.OutputConfig) (blobstore.BlobStore, error) {
	scheme, rest := splitURI(cfg.Path)
	switch scheme {
	case "s3":
		bucket, prefix := bucketPrefix(rest)
		return s3store.New(ctx, bucket, prefix)
	case "minio":
		bucket, prefix := bucketPrefix(rest)
		store, err := miniostore.New(miniostore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Region:    cfg.Minio.Region,
			Secure:    cfg.Minio.Secure,
			Bucket:    bucket,
			Prefix:    prefix,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "", "file":
		if err := os.MkdirAll(rest, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		return blobstore.NewLocalStore(rest), nil
	default:
		return nil, fmt.Errorf("unsupported output scheme %q", scheme)
	}
}

func openLedger(ctx context.Context, uri string) (ledger.Ledger, error) {
	if uri == "" {
		return nil, nil
	}
	scheme, rest := splitURI(uri)
	switch scheme {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(rest), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
		return ledger.OpenSQLiteLedger(ctx, rest)
	case "dynamodb":
		return ledger.OpenDynamoLedger(ctx, rest)
	case "file":
		if err := os.MkdirAll(rest, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
		return ledger.NewBlobLedger(blobstore.NewLocalStore(rest)), nil
	default:
		return nil, fmt.Errorf("unsupported ledger uri %q", uri)
	}
}

package tetgeo

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/tetgeo/export"
	"github.com/hupe1980/tetgeo/mesh"
	"github.com/hupe1980/tetgeo/partition"
)

// Logger wraps slog.Logger with tetgeo-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithInput adds the input name to the logger.
func (l *Logger) WithInput(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("input", name),
	}
}

// WithRunID adds the run id to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// LogBuild logs a topology reconstruction.
func (l *Logger) LogBuild(ctx context.Context, stats mesh.Stats, surface bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"surface", surface,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "build completed",
		"surface", surface,
		"vertices", stats.Vertices,
		"edges", stats.Edges,
		"faces", stats.Faces,
		"tets", stats.Tets,
		"boundary_faces", stats.BoundaryFaces,
	)
}

// LogPartition logs a surface partition.
func (l *Logger) LogPartition(ctx context.Context, res *partition.Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partition failed",
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "partition completed",
		"rounds", res.Rounds,
		"assigned", res.Assigned(),
		"unassigned", res.Unassigned.GetCardinality(),
	)
	if n := res.Unassigned.GetCardinality(); n > 0 {
		l.WarnContext(ctx, "boundary faces left unassigned",
			"count", n,
		)
	}
}

// LogExport logs a finished export.
func (l *Logger) LogExport(ctx context.Context, m *export.Manifest, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "export completed",
		"prefix", m.Prefix,
		"artifacts", len(m.Artifacts),
		"bytes", m.TotalBytes(),
	)
}

// LogSkip logs an input that was not processed.
func (l *Logger) LogSkip(ctx context.Context, reason string) {
	l.InfoContext(ctx, "input skipped",
		"reason", reason,
	)
}

package tetgeo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/tetgeo/mesh"
)

// MetricsCollector defines an interface for collecting pipeline metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordBuild is called after each topology reconstruction.
	RecordBuild(stats mesh.Stats, duration time.Duration, err error)

	// RecordPartition is called after each surface partition. assigned and
	// unassigned count boundary faces.
	RecordPartition(rounds, assigned, unassigned int, duration time.Duration, err error)

	// RecordExport is called after each export with the number of artifacts
	// and bytes written.
	RecordExport(artifacts int, bytes int64, duration time.Duration, err error)

	// RecordSkip is called when an input is skipped as unchanged.
	RecordSkip()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(mesh.Stats, time.Duration, error)        {}
func (NoopMetricsCollector) RecordPartition(int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordExport(int, int64, time.Duration, error)       {}
func (NoopMetricsCollector) RecordSkip()                                         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
	BuildTotalNanos  atomic.Int64
	TetsBuilt        atomic.Int64
	PartitionCount   atomic.Int64
	PartitionErrors  atomic.Int64
	FacesAssigned    atomic.Int64
	FacesUnassigned  atomic.Int64
	ExportCount      atomic.Int64
	ExportErrors     atomic.Int64
	ArtifactsWritten atomic.Int64
	BytesWritten     atomic.Int64
	SkipCount        atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(stats mesh.Stats, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.TetsBuilt.Add(int64(stats.Tets))
}

// RecordPartition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartition(_, assigned, unassigned int, _ time.Duration, err error) {
	b.PartitionCount.Add(1)
	if err != nil {
		b.PartitionErrors.Add(1)
		return
	}
	b.FacesAssigned.Add(int64(assigned))
	b.FacesUnassigned.Add(int64(unassigned))
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(artifacts int, bytes int64, _ time.Duration, err error) {
	b.ExportCount.Add(1)
	if err != nil {
		b.ExportErrors.Add(1)
		return
	}
	b.ArtifactsWritten.Add(int64(artifacts))
	b.BytesWritten.Add(bytes)
}

// RecordSkip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSkip() {
	b.SkipCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:       b.BuildCount.Load(),
		BuildErrors:      b.BuildErrors.Load(),
		BuildAvgNanos:    b.getAvgBuildNanos(),
		TetsBuilt:        b.TetsBuilt.Load(),
		PartitionCount:   b.PartitionCount.Load(),
		PartitionErrors:  b.PartitionErrors.Load(),
		FacesAssigned:    b.FacesAssigned.Load(),
		FacesUnassigned:  b.FacesUnassigned.Load(),
		ExportCount:      b.ExportCount.Load(),
		ExportErrors:     b.ExportErrors.Load(),
		ArtifactsWritten: b.ArtifactsWritten.Load(),
		BytesWritten:     b.BytesWritten.Load(),
		SkipCount:        b.SkipCount.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount       int64
	BuildErrors      int64
	BuildAvgNanos    int64
	TetsBuilt        int64
	PartitionCount   int64
	PartitionErrors  int64
	FacesAssigned    int64
	FacesUnassigned  int64
	ExportCount      int64
	ExportErrors     int64
	ArtifactsWritten int64
	BytesWritten     int64
	SkipCount        int64
}

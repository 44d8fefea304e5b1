package tetgeo

import (
	"time"

	"github.com/hupe1980/tetgeo/export"
	"github.com/hupe1980/tetgeo/ledger"
	"github.com/hupe1980/tetgeo/partition"
	"github.com/hupe1980/tetgeo/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	controller       *resource.Controller
	ledger           ledger.Ledger
	force            bool
	partition        partition.Config
	export           export.Options
	attributeSlot    int
	outputPrefix     string
	parallelism      int
	allocTimeout     time.Duration
}

// Option configures a Pipeline.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithController bounds memory, export workers and write bandwidth.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithLedger enables skipping of unchanged inputs and claims for concurrent
// runs.
func WithLedger(l ledger.Ledger) Option {
	return func(o *options) {
		o.ledger = l
	}
}

// WithForce processes inputs even when the ledger marks them as current.
func WithForce(force bool) Option {
	return func(o *options) {
		o.force = force
	}
}

// WithPartitionConfig sets the axis frame and planarity threshold.
func WithPartitionConfig(cfg partition.Config) Option {
	return func(o *options) {
		o.partition = cfg
	}
}

// WithExportOptions selects the artifacts to write.
func WithExportOptions(eo export.Options) Option {
	return func(o *options) {
		o.export = eo
	}
}

// WithAttributeSlot selects the cell array used as material id. Out-of-range
// slots fall back to the first array.
func WithAttributeSlot(slot int) Option {
	return func(o *options) {
		o.attributeSlot = slot
	}
}

// WithOutputPrefix sets the directory every run is written below.
func WithOutputPrefix(prefix string) Option {
	return func(o *options) {
		o.outputPrefix = prefix
	}
}

// WithAllocationTimeout bounds how long a build waits for the controller to
// grant memory. Zero keeps the arena default; a negative d waits until the
// context passed to Process ends.
func WithAllocationTimeout(d time.Duration) Option {
	return func(o *options) {
		o.allocTimeout = d
	}
}

// WithParallelism sets how many inputs ProcessAll handles at once.
// Default: 1.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

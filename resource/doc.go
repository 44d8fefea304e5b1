// Package resource limits the memory, workers and write bandwidth of a
// processing run.
//
// A single Controller is shared by every mesh built in a run and by the
// exporter:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   512 << 20,
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	m, err := mesh.Build(in, mesh.WithMemoryAcquirer(rc))
//
// # Memory
//
// Arena pools reserve every block through AcquireMemory and hand it back on
// Close. With a limit set, AcquireMemory waits for capacity until its context
// ends. A request larger than the whole limit fails at once with
// ErrMemoryLimitExceeded.
//
// # Workers
//
// AcquireWorker bounds the number of concurrent export jobs.
//
// # IO
//
// RateLimitedWriter and RateLimitedReader draw from a token bucket. Large
// buffers are split into burst-sized chunks, so a single Write never waits for
// more tokens than the bucket can hold.
package resource

// Package arena provides a typed slot pool used as the single owner of mesh entities.
//
// # Memory Model
//
// A Pool hands out fixed-size slots carved from blocks of ItemsPerBlock items.
// Blocks are never moved or shrunk, so a pointer returned by Get stays valid
// until Close. Freed slots are pushed onto a LIFO free list and handed out
// again by the next Alloc, without compaction.
//
// # Handles
//
// Every slot is addressed by a handle H (any ~uint32 type). The zero handle is
// reserved as nil, so the first carved slot has handle 1. Handles are stable
// for the lifetime of the slot.
//
// # Positional Access
//
// Len/At expose the live items in traversal order (block order, then slot
// order, skipping dead slots). The dense index behind At is rebuilt lazily on
// the first read after a mutation.
//
// # Concurrency Model
//
// Pool is NOT safe for concurrent use. A build owns its pools exclusively;
// even At mutates the lazily rebuilt index.
package arena

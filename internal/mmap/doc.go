// Package mmap maps mesh container files read-only into memory.
//
// The local blob store opens input files through Open, so decoding a large
// mesh reads straight from the page cache instead of an intermediate buffer.
//
//	m, err := mmap.Open("part.tgm")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix systems use mmap(2) and madvise(2). Windows uses MapViewOfFile and
// ignores access hints.
//
// A Mapping may be read concurrently. Close is idempotent, but no goroutine may
// touch a slice returned by Bytes once Close has returned.
package mmap

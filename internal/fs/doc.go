// Package fs is the file system seam of the local blob store.
//
// LocalFS forwards to package os. FaultyFS wraps another FileSystem and fails
// writes, syncs, closes or renames for names matching a rule, so tests can
// check that an interrupted export never leaves a half-written artifact behind.
package fs

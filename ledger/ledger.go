package ledger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Get when the input has no entry.
	ErrNotFound = errors.New("ledger: entry not found")
	// ErrClaimed is returned by Claim when another run holds the input.
	ErrClaimed = errors.New("ledger: input already claimed")
)

// Entry describes one processed input.
type Entry struct {
	Input string `json:"input"`
	// Digest is the CRC32C of the input bytes in hex.
	Digest  string   `json:"digest"`
	Size    int64    `json:"size"`
	RunID   string   `json:"run_id"`
	Outputs []string `json:"outputs"`

	Vertices      int    `json:"vertices"`
	Tets          int    `json:"tets"`
	BoundaryFaces int    `json:"boundary_faces"`
	Groups        [6]int `json:"groups"`
	Unassigned    int    `json:"unassigned"`

	CreatedAt time.Time `json:"created_at"`
}

// Current reports whether e was produced from an input with digest and size.
func (e *Entry) Current(digest string, size int64) bool {
	return e != nil && e.Digest == digest && e.Size == size
}

// Ledger stores entries and claims keyed by input name.
type Ledger interface {
	// Get returns the entry for input or ErrNotFound.
	Get(ctx context.Context, input string) (*Entry, error)
	// Record stores e, replacing any previous entry for the same input.
	Record(ctx context.Context, e *Entry) error
	// List returns all entries sorted by input.
	List(ctx context.Context) ([]*Entry, error)
	// Claim reserves input for runID.
	Claim(ctx context.Context, input, runID string) error
	// Release drops the claim on input. Releasing an unclaimed input is not an
	// error.
	Release(ctx context.Context, input string) error
	Close() error
}

func stamp(e *Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
}

func sortEntries(entries []*Entry) {
	slices.SortFunc(entries, func(a, b *Entry) int {
		return strings.Compare(a.Input, b.Input)
	})
}

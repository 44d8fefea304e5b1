package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hupe1980/tetgeo/blobstore"
)

// BlobLedger keeps one JSON object per input under entries/ and claims under
// claims/. Claims are atomic only when the store implements
// blobstore.ConditionalPutter.
type BlobLedger struct {
	store blobstore.BlobStore
}

// NewBlobLedger returns a ledger on store.
func NewBlobLedger(store blobstore.BlobStore) *BlobLedger {
	return &BlobLedger{store: store}
}

const (
	entriesDir = "entries"
	claimsDir  = "claims"
)

func blobName(dir, input string) string {
	return path.Join(dir, url.PathEscape(input)+".json")
}

// Get reads the entry of input, or returns ErrNotFound.
func (l *BlobLedger) Get(ctx context.Context, input string) (*Entry, error) {
	data, err := blobstore.ReadAll(ctx, l.store, blobName(entriesDir, input))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("ledger: decode entry %s: %w", input, err)
	}
	return &e, nil
}

// Record stores e under its input, replacing an older entry.
func (l *BlobLedger) Record(ctx context.Context, e *Entry) error {
	stamp(e)
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return l.store.Put(ctx, blobName(entriesDir, e.Input), data)
}

// List returns all entries sorted by input.
func (l *BlobLedger) List(ctx context.Context) ([]*Entry, error) {
	names, err := l.store.List(ctx, entriesDir+"/")
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(names))
	for _, name := range names {
		input, err := url.PathUnescape(strings.TrimSuffix(path.Base(name), ".json"))
		if err != nil {
			continue
		}
		e, err := l.Get(ctx, input)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

type claim struct {
	RunID     string    `json:"run_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// Claim creates the claim blob of input. Stores without PutIfAbsent fall
// back to a check then put, which is not atomic.
func (l *BlobLedger) Claim(ctx context.Context, input, runID string) error {
	name := blobName(claimsDir, input)
	data, err := json.Marshal(claim{RunID: runID, ClaimedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	if cp, ok := l.store.(blobstore.ConditionalPutter); ok {
		if err := cp.PutIfAbsent(ctx, name, data); err != nil {
			if errors.Is(err, blobstore.ErrConflict) {
				return fmt.Errorf("%w: %s", ErrClaimed, input)
			}
			return err
		}
		return nil
	}

	b, err := l.store.Open(ctx, name)
	switch {
	case err == nil:
		_ = b.Close()
		return fmt.Errorf("%w: %s", ErrClaimed, input)
	case !errors.Is(err, blobstore.ErrNotFound):
		return err
	}
	return l.store.Put(ctx, name, data)
}

// Release deletes the claim blob of input.
func (l *BlobLedger) Release(ctx context.Context, input string) error {
	return l.store.Delete(ctx, blobName(claimsDir, input))
}

// Close is a no-op; the store is owned by the caller.
func (l *BlobLedger) Close() error { return nil }

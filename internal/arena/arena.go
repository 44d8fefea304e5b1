package arena

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"time"
	"unsafe"
)

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

var (
	// ErrAllocationFailed is returned when a block cannot be reserved.
	ErrAllocationFailed = errors.New("arena: allocation failed")
	// ErrInvalidHandle is returned when freeing a nil, unknown or dead handle.
	ErrInvalidHandle = errors.New("arena: invalid handle")
)

const (
	// DefaultItemsPerBlock is the number of slots carved per block.
	DefaultItemsPerBlock = 1024
	// DefaultWordSize is the primary word size used for stride rounding.
	DefaultWordSize = 8
	// DefaultAlignment is the default slot alignment in bytes.
	DefaultAlignment = 32
	// DefaultMaxBlocks caps the number of blocks a pool may reserve.
	DefaultMaxBlocks = 1 << 20

	// DefaultAcquireTimeout bounds how long a block reservation may wait on
	// the acquirer.
	DefaultAcquireTimeout = 100 * time.Millisecond
)

// Stats describes pool occupancy.
type Stats struct {
	Blocks        int // blocks currently reserved
	Stride        int // padded bytes per slot, header included
	Live          int // live items
	Carved        int // slots carved since the last Restart
	Free          int // dead slots waiting on the free list
	ReservedBytes int64
}

type slot[T any, H ~uint32] struct {
	next H // free-list link, meaningful only while the slot is dead
	live bool
	item T
}

// Pool is a growable, block-based slot allocator for items of type T.
type Pool[T any, H ~uint32] struct {
	itemsPerBlock  int
	wordSize       int
	alignment      int
	maxBlocks      int
	stride         int
	acquirer       MemoryAcquirer
	ctx            context.Context //nolint:containedctx // Alloc takes no context
	acquireTimeout time.Duration

	blocks [][]slot[T, H]
	carved int // slots carved since Restart, in handle order
	dead   H   // free-list head
	free   int
	items  int

	index []H
	dirty bool
}

// Option is a configuration option for Pool.
type Option func(*config)

type config struct {
	itemsPerBlock int
	wordSize      int
	alignment     int
	maxBlocks     int
	acquirer      MemoryAcquirer
	ctx           context.Context
	timeout       time.Duration
}

// WithItemsPerBlock sets the number of items carved per block.
func WithItemsPerBlock(n int) Option {
	return func(c *config) {
		c.itemsPerBlock = n
	}
}

// WithAlignment sets the word size and the slot alignment used to compute the stride.
func WithAlignment(wordSize, alignment int) Option {
	return func(c *config) {
		c.wordSize = wordSize
		c.alignment = alignment
	}
}

// WithMaxBlocks caps the number of blocks. Allocations past the cap fail with ErrAllocationFailed.
func WithMaxBlocks(n int) Option {
	return func(c *config) {
		c.maxBlocks = n
	}
}

// WithMemoryAcquirer sets the memory acquirer consulted before every block reservation.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(c *config) {
		c.acquirer = acquirer
	}
}

// WithContext sets the context block reservations wait under. Canceling it
// fails pending and later reservations.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithAcquireTimeout bounds every block reservation by d. A d <= 0 waits until
// the context given to WithContext ends.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New creates a pool and reserves its first block.
func New[T any, H ~uint32](opts ...Option) (*Pool[T, H], error) {
	cfg := config{
		itemsPerBlock: DefaultItemsPerBlock,
		wordSize:      DefaultWordSize,
		alignment:     DefaultAlignment,
		maxBlocks:     DefaultMaxBlocks,
		ctx:           context.Background(),
		timeout:       DefaultAcquireTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.itemsPerBlock <= 0 {
		cfg.itemsPerBlock = DefaultItemsPerBlock
	}
	if cfg.wordSize <= 0 {
		cfg.wordSize = DefaultWordSize
	}
	if cfg.maxBlocks <= 0 {
		cfg.maxBlocks = DefaultMaxBlocks
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}

	p := &Pool[T, H]{
		itemsPerBlock: cfg.itemsPerBlock,
		wordSize:      cfg.wordSize,
		alignment:     cfg.alignment,
		maxBlocks:     cfg.maxBlocks,
		acquirer:      cfg.acquirer,

		ctx:            cfg.ctx,
		acquireTimeout: cfg.timeout,
	}
	p.stride = p.computeStride()

	if err := p.grow(); err != nil {
		return nil, err
	}
	return p, nil
}

// computeStride pads the item plus its hidden link and liveness tag to the
// largest of the requested alignment, the word size and the pointer size.
func (p *Pool[T, H]) computeStride() int {
	var zero slot[T, H]
	header := int(unsafe.Sizeof(zero.next)) + int(unsafe.Sizeof(zero.live))
	size := int(unsafe.Sizeof(zero.item)) + header

	align := max(p.alignment, p.wordSize, int(unsafe.Sizeof(uintptr(0))))
	words := (size + align - 1) / align * align / p.wordSize
	return words * p.wordSize
}

func (p *Pool[T, H]) blockBytes() int64 {
	return int64(p.itemsPerBlock) * int64(p.stride)
}

func (p *Pool[T, H]) grow() error {
	if len(p.blocks) >= p.maxBlocks {
		return fmt.Errorf("%w: block limit %d reached", ErrAllocationFailed, p.maxBlocks)
	}

	if p.acquirer != nil {
		ctx := p.ctx
		if p.acquireTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
			defer cancel()
		}
		if err := p.acquirer.AcquireMemory(ctx, p.blockBytes()); err != nil {
			return fmt.Errorf("%w: %w", ErrAllocationFailed, err)
		}
	}

	p.blocks = append(p.blocks, make([]slot[T, H], p.itemsPerBlock))
	return nil
}

func (p *Pool[T, H]) slotAt(pos int) *slot[T, H] {
	return &p.blocks[pos/p.itemsPerBlock][pos%p.itemsPerBlock]
}

// Alloc returns a live slot. Reused slots keep whatever the previous owner
// left in them; callers must initialise every field.
func (p *Pool[T, H]) Alloc() (H, *T, error) {
	var h H

	if p.dead != 0 {
		h = p.dead
		s := p.slotAt(int(h) - 1)
		p.dead = s.next
		p.free--
		s.live = true
		s.next = 0
		p.items++
		p.dirty = true
		return h, &s.item, nil
	}

	if p.carved >= math.MaxUint32-1 {
		return 0, nil, fmt.Errorf("%w: handle space exhausted", ErrAllocationFailed)
	}

	if p.carved/p.itemsPerBlock >= len(p.blocks) {
		if err := p.grow(); err != nil {
			return 0, nil, err
		}
	}

	pos := p.carved
	p.carved++
	s := p.slotAt(pos)
	s.live = true
	s.next = 0
	p.items++
	p.dirty = true

	return H(pos + 1), &s.item, nil //nolint:gosec // pos < MaxUint32 checked above
}

// Free marks the slot dead and pushes it onto the free list.
func (p *Pool[T, H]) Free(h H) error {
	s := p.lookup(h)
	if s == nil {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}

	s.live = false
	s.next = p.dead
	p.dead = h
	p.free++
	p.items--
	p.dirty = true
	return nil
}

func (p *Pool[T, H]) lookup(h H) *slot[T, H] {
	if h == 0 || int(h) > p.carved {
		return nil
	}
	s := p.slotAt(int(h) - 1)
	if !s.live {
		return nil
	}
	return s
}

// Get returns the item behind h, or nil if h is nil, unknown or dead.
func (p *Pool[T, H]) Get(h H) *T {
	s := p.lookup(h)
	if s == nil {
		return nil
	}
	return &s.item
}

// Live reports whether h addresses a live slot.
func (p *Pool[T, H]) Live(h H) bool {
	return p.lookup(h) != nil
}

// Len returns the number of live items.
func (p *Pool[T, H]) Len() int {
	return p.items
}

// At returns the handle of the i-th live item in traversal order.
// It panics if i is out of range, like a slice index.
func (p *Pool[T, H]) At(i int) H {
	if i < 0 || i >= p.items {
		panic(fmt.Sprintf("arena: index %d out of range [0:%d]", i, p.items))
	}
	if p.dirty || len(p.index) != p.items {
		p.rebuildIndex()
	}
	return p.index[i]
}

// Item returns the i-th live item in traversal order.
func (p *Pool[T, H]) Item(i int) *T {
	return &p.slotAt(int(p.At(i)) - 1).item
}

func (p *Pool[T, H]) rebuildIndex() {
	p.index = p.index[:0]
	for h := range p.All() {
		p.index = append(p.index, h)
	}
	p.dirty = false
}

// All iterates live items in traversal order.
// The pool must not be mutated during iteration.
func (p *Pool[T, H]) All() iter.Seq2[H, *T] {
	return func(yield func(H, *T) bool) {
		for pos := 0; pos < p.carved; pos++ {
			s := p.slotAt(pos)
			if !s.live {
				continue
			}
			if !yield(H(pos+1), &s.item) { //nolint:gosec // pos < carved <= MaxUint32
				return
			}
		}
	}
}

// IndexOf returns the traversal position of h, or -1 if h is not live.
// It scans the pool linearly.
func (p *Pool[T, H]) IndexOf(h H) int {
	i := 0
	for cur := range p.All() {
		if cur == h {
			return i
		}
		i++
	}
	return -1
}

// Restart empties the pool. Reserved blocks are kept and reused.
func (p *Pool[T, H]) Restart() {
	p.carved = 0
	p.dead = 0
	p.free = 0
	p.items = 0
	p.index = p.index[:0]
	p.dirty = true
}

// Close releases all blocks and returns their memory to the acquirer.
// The pool cannot be used afterwards.
func (p *Pool[T, H]) Close() {
	if p.acquirer != nil && len(p.blocks) > 0 {
		p.acquirer.ReleaseMemory(int64(len(p.blocks)) * p.blockBytes())
	}
	p.blocks = nil
	p.index = nil
	p.Restart()
}

// Stats returns the current pool statistics.
func (p *Pool[T, H]) Stats() Stats {
	return Stats{
		Blocks:        len(p.blocks),
		Stride:        p.stride,
		Live:          p.items,
		Carved:        p.carved,
		Free:          p.free,
		ReservedBytes: int64(len(p.blocks)) * p.blockBytes(),
	}
}

func (p *Pool[T, H]) String() string {
	s := p.Stats()
	return fmt.Sprintf(
		"Pool{blocks: %d, stride: %d B, live: %d, carved: %d, free: %d, reserved: %.2f KB}",
		s.Blocks, s.Stride, s.Live, s.Carved, s.Free, float64(s.ReservedBytes)/1024,
	)
}

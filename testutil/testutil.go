package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/tetgeo/meshio"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic fixtures
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// JitterInterior moves every point that is not on the bounding box of fd by
// up to amplitude along each axis. Box faces stay planar.
func (r *RNG) JitterInterior(fd *meshio.FileData, amplitude float64) {
	lo, hi := Bounds(fd)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < fd.NumPoints(); i++ {
		p := fd.Points[3*i : 3*i+3]
		if onBox(p, lo, hi) {
			continue
		}
		for k := range p {
			p[k] += (r.rand.Float64()*2 - 1) * amplitude
		}
	}
}

// Shuffle permutes the cell order of fd, keeping cell arrays aligned.
func (r *RNG) Shuffle(fd *meshio.FileData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rand.Shuffle(len(fd.Cells), func(i, j int) {
		fd.Cells[i], fd.Cells[j] = fd.Cells[j], fd.Cells[i]
		for _, a := range fd.CellData {
			a.Values[i], a.Values[j] = a.Values[j], a.Values[i]
		}
	})
}

// Bounds returns the axis-aligned bounding box of the points of fd.
func Bounds(fd *meshio.FileData) (lo, hi [3]float64) {
	for i := 0; i < fd.NumPoints(); i++ {
		for k := range 3 {
			v := fd.Points[3*i+k]
			if i == 0 || v < lo[k] {
				lo[k] = v
			}
			if i == 0 || v > hi[k] {
				hi[k] = v
			}
		}
	}
	return lo, hi
}

func onBox(p []float64, lo, hi [3]float64) bool {
	for k := range 3 {
		if p[k] == lo[k] || p[k] == hi[k] {
			return true
		}
	}
	return false
}

package partition

import (
	"context"
	"log/slog"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/tetgeo/internal/geom"
	"github.com/hupe1980/tetgeo/mesh"
	"github.com/hupe1980/tetgeo/meshio"
)

const (
	// DefaultRayLength is the length of the seeding rays.
	DefaultRayLength = 5000
	// DefaultMaxDeviation is the largest accepted angle, in degrees, between a
	// group's reference normal and a candidate face normal.
	DefaultMaxDeviation = 45
)

// Direction is one of the six signed axes of the partition frame.
type Direction int

const (
	PosX Direction = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

// NumGroups is the number of physical groups produced by Extract.
const NumGroups = 6

var directionNames = [NumGroups]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (d Direction) String() string {
	if d < 0 || int(d) >= NumGroups {
		return "unknown"
	}
	return directionNames[d]
}

// Config controls the axis frame and the planarity threshold.
type Config struct {
	// Yaw, Pitch and Roll rotate the canonical frame. They are divided by 180
	// and used as radians.
	Yaw, Pitch, Roll float64
	// RayLength is the length of the seeding rays. Zero means DefaultRayLength.
	RayLength float64
	// MaxDeviation is in degrees. Zero means DefaultMaxDeviation.
	MaxDeviation float64
	Logger       *slog.Logger
}

// DefaultConfig is the axis-aligned configuration.
var DefaultConfig = Config{
	RayLength:    DefaultRayLength,
	MaxDeviation: DefaultMaxDeviation,
}

func (c Config) withDefaults() Config {
	if c.RayLength <= 0 {
		c.RayLength = DefaultRayLength
	}
	if c.MaxDeviation <= 0 {
		c.MaxDeviation = DefaultMaxDeviation
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Group is one physical group of boundary faces.
type Group struct {
	Direction Direction
	Seed      mesh.FaceID
	// Faces lists the group in acceptance order, seed first.
	Faces []mesh.FaceID
	// Members holds the same faces as a bitmap.
	Members *roaring.Bitmap

	reference r3.Vec
	frontier  []mesh.FaceID
}

// Len returns the number of faces in g.
func (g *Group) Len() int { return len(g.Faces) }

// Contains reports whether f belongs to g.
func (g *Group) Contains(f mesh.FaceID) bool { return g.Members.Contains(uint32(f)) }

// Vertices returns the union of the corners of g's faces in first-seen order.
func (g *Group) Vertices(m *mesh.Mesh) []mesh.VertexID {
	seen := roaring.New()
	var out []mesh.VertexID
	for _, fid := range g.Faces {
		for _, v := range m.Face(fid).Vertices() {
			if seen.CheckedAdd(uint32(v)) {
				out = append(out, v)
			}
		}
	}
	return out
}

// FileData exports g with bulk_node_ids and bulk_element_ids, see mesh.Mesh.FacesData.
func (g *Group) FileData(m *mesh.Mesh) *meshio.FileData {
	return m.FacesData(g.Faces)
}

// Result is the outcome of Extract.
type Result struct {
	Groups   [NumGroups]*Group
	Centroid r3.Vec
	// Axes holds the rotated X, Y and Z axes.
	Axes [3]r3.Vec
	// Rounds is the number of growth rounds run, including the final one that
	// added nothing.
	Rounds int
	// Unassigned holds the boundary faces that ended in no group.
	Unassigned *roaring.Bitmap
}

// Assigned returns the number of faces over all groups.
func (r *Result) Assigned() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Len()
	}
	return n
}

// Frame returns the rotated axis frame for cfg. Z is the normalised cross
// product of the rotated X and Y axes.
func Frame(cfg Config) [3]r3.Vec {
	x := geom.Rotate(r3.Vec{X: 1}, cfg.Yaw, cfg.Pitch, cfg.Roll)
	y := geom.Rotate(r3.Vec{Y: 1}, cfg.Yaw, cfg.Pitch, cfg.Roll)
	return [3]r3.Vec{x, y, r3.Unit(r3.Cross(x, y))}
}

// Extract partitions the boundary skin of m into six groups.
//
// It resets the Mark and Visited flags of every face and leaves the group
// members marked. Extract fails with ErrSeedNotFound when a direction has no
// seed, and with mesh.ErrTopologyInconsistency when the skin is not a closed
// 2-manifold along a grown edge.
func Extract(m *mesh.Mesh, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	m.ClearMarks()

	res := &Result{
		Centroid: m.Centroid(),
		Axes:     Frame(cfg),
	}

	if err := res.seed(m, cfg.RayLength); err != nil {
		cfg.Logger.LogAttrs(context.Background(), slog.LevelDebug, "partition seeding failed", slog.String("error", err.Error()))
		return nil, err
	}

	limit := math.Cos(cfg.MaxDeviation * math.Pi / 180)
	for {
		res.Rounds++
		grown := false
		for _, g := range res.Groups {
			added, err := g.grow(m, limit)
			if err != nil {
				return nil, err
			}
			grown = grown || added
		}
		if !grown {
			break
		}
	}

	res.Unassigned = roaring.New()
	for id, f := range m.BoundaryFaces() {
		if !f.Mark {
			res.Unassigned.Add(uint32(id))
		}
	}

	attrs := []slog.Attr{
		slog.Int("rounds", res.Rounds),
		slog.Int("assigned", res.Assigned()),
		slog.Uint64("unassigned", res.Unassigned.GetCardinality()),
	}
	for _, g := range res.Groups {
		attrs = append(attrs, slog.Int(g.Direction.String(), g.Len()))
	}
	cfg.Logger.LogAttrs(context.Background(), slog.LevelDebug, "partition done", attrs...)

	return res, nil
}

// seed picks one seed face per direction: the first boundary face, in
// traversal order, hit strictly inside by the direction's ray.
func (r *Result) seed(m *mesh.Mesh, length float64) error {
	var rays [NumGroups]geom.Segment
	for d := range NumGroups {
		axis := r.Axes[d/2]
		if d%2 == 1 {
			axis = r3.Scale(-1, axis)
		}
		rays[d] = geom.Segment{From: r.Centroid, To: r3.Add(r.Centroid, r3.Scale(length, axis))}
	}

	var seeds [NumGroups]mesh.FaceID
	for id := range m.BoundaryFaces() {
		c := m.FaceCorners(id)
		tri := geom.Triangle{A: c[0], B: c[1], C: c[2]}
		for d := range NumGroups {
			if seeds[d] != 0 {
				continue
			}
			if _, ok := geom.IntersectSegment(tri, rays[d], false); ok {
				seeds[d] = id
			}
		}
	}

	for d, id := range seeds {
		if id == 0 {
			return &SeedError{Direction: Direction(d), Reason: "no boundary face hit strictly inside"}
		}
		f := m.Face(id)
		if f.Mark {
			return &SeedError{Direction: Direction(d), Face: id, Reason: "seed shared with another direction"}
		}
		f.Mark = true

		g := &Group{
			Direction: Direction(d),
			Seed:      id,
			Members:   roaring.New(),
			reference: m.FaceNormal(id),
			frontier:  []mesh.FaceID{id},
		}
		g.Members.Add(uint32(id))
		r.Groups[d] = g
	}
	return nil
}

// grow expands the frontier of g by one round. It returns whether any face was
// accepted.
func (g *Group) grow(m *mesh.Mesh, limit float64) (bool, error) {
	var next []mesh.FaceID
	for _, fid := range g.frontier {
		f := m.Face(fid)
		f.Visited = true

		for _, eid := range f.Edges() {
			others := m.OtherBoundaryFaces(eid, fid)
			if len(others) != 1 {
				return false, &mesh.TopologyError{
					Phase:  mesh.PhaseSkin,
					Face:   fid,
					Reason: "boundary edge is not shared by exactly two boundary faces",
				}
			}

			nid := others[0]
			nf := m.Face(nid)
			// Zero-area faces have a NaN normal and never pass.
			if nf.Mark || !(math.Abs(r3.Dot(g.reference, m.FaceNormal(nid))) > limit) {
				continue
			}
			nf.Mark = true
			next = append(next, nid)
		}
	}

	g.Faces = append(g.Faces, g.frontier...)
	for _, fid := range next {
		g.Members.Add(uint32(fid))
	}
	g.frontier = next
	return len(next) > 0, nil
}

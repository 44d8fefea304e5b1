package mesh

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/tetgeo/internal/geom"
)

const (
	// WeldDistanceSqr is the squared distance below which two surface points are merged.
	WeldDistanceSqr = 1e-8
	// weldCell is the grid spacing used to find weld candidates; it equals the weld radius.
	weldCell = 1e-4
)

// BuildSurface builds a triangle-soup mesh from triangle cells.
//
// Points closer than the weld distance collapse into one vertex, triangles on
// the same three vertices collapse into one face, and edges are created from
// the faces. Surfaces have no tetrahedra, so every face is a boundary face.
func BuildSurface(in Input, opts ...Option) (*Mesh, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := m.LoadSurface(in); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// LoadSurface replaces the contents of m with the triangle soup described by in.
// Attributes are ignored.
func (m *Mesh) LoadSurface(in Input) error {
	m.Reset()

	if err := in.validate(3); err != nil {
		return err
	}

	if err := m.loadSurface(in); err != nil {
		m.Reset()
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "surface build failed", slog.String("error", err.Error()))
		return err
	}

	m.logger.LogAttrs(context.Background(), slog.LevelDebug, "surface built",
		slog.Int("points", len(in.Points)/3),
		slog.Int("vertices", m.NumVertices()),
		slog.Int("faces", m.NumFaces()),
		slog.Int("edges", m.NumEdges()),
	)
	return nil
}

func (m *Mesh) loadSurface(in Input) error {
	remap, err := m.weldPoints(in)
	if err != nil {
		return err
	}

	seen := make(map[[3]VertexID]FaceID, len(in.Cells))
	for i, c := range in.Cells {
		a, b, d := remap[c[0]], remap[c[1]], remap[c[2]]

		key := [3]VertexID{a, b, d}
		slices.Sort(key[:])
		if _, ok := seen[key]; ok {
			continue
		}

		if a == b || a == d || b == d {
			return &DegenerateError{Cell: i, Reason: "corners welded together"}
		}
		if geom.Colinear(m.Position(a), m.Position(b), m.Position(d)) {
			return &DegenerateError{Cell: i, Reason: "colinear corners"}
		}

		id, err := m.newFace(a, b, d)
		if err != nil {
			return err
		}
		seen[key] = id
	}

	for id := range m.faces.All() {
		if err := m.connectFaceEdges(id); err != nil {
			return err
		}
	}
	return nil
}

type cellKey [3]int64

func weldKey(p r3.Vec) cellKey {
	return cellKey{
		int64(math.Floor(p.X / weldCell)),
		int64(math.Floor(p.Y / weldCell)),
		int64(math.Floor(p.Z / weldCell)),
	}
}

// weldPoints creates one vertex per distinct point and returns the input-index
// to vertex mapping. A point within the weld distance of several earlier
// vertices joins the earliest one.
func (m *Mesh) weldPoints(in Input) ([]VertexID, error) {
	n := len(in.Points) / 3
	remap := make([]VertexID, n)
	grid := make(map[cellKey][]VertexID, n)

	for i := range n {
		p := in.point(i)
		k := weldKey(p)

		var match VertexID
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, id := range grid[cellKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
						if r3.Norm2(r3.Sub(p, m.Position(id))) < WeldDistanceSqr && (match == 0 || id < match) {
							match = id
						}
					}
				}
			}
		}

		if match != 0 {
			remap[i] = match
			continue
		}

		id, err := m.newVertex(p)
		if err != nil {
			return nil, err
		}
		grid[k] = append(grid[k], id)
		remap[i] = id
	}
	return remap, nil
}

// WindingNumber returns the generalized winding number of p with respect to
// the boundary faces: about ±1 inside a closed skin and about 0 outside.
//
// Skin faces of a tetrahedral mesh are oriented by their single owner so that
// all of them face the same way. Surface faces keep their input winding, so
// the sign of the result follows it.
func (m *Mesh) WindingNumber(p r3.Vec) float64 {
	var sum float64
	for id, f := range m.BoundaryFaces() {
		c := m.FaceCorners(id)
		w := geom.SolidAngle(p, c[0], c[1], c[2])
		if f.owners[CW] != 0 {
			w = -w
		}
		sum += w
	}
	return sum / (4 * math.Pi)
}

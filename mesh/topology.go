package mesh

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/tetgeo/internal/geom"
	"github.com/hupe1980/tetgeo/meshio"
)

// Input is the flat point/cell description consumed by Build.
type Input struct {
	// Points holds xyz triples.
	Points []float64
	// Cells holds four point indices per tetrahedron.
	Cells [][]int
	// Attributes optionally holds one material id per cell.
	Attributes []int64
}

// InputFromFileData converts loader output into Build input. When useAttribute
// is set, the per-cell array in the given slot becomes the material id
// (out-of-range slots fall back to the first array).
func InputFromFileData(fd *meshio.FileData, slot int, useAttribute bool) Input {
	in := Input{Points: fd.Points, Cells: fd.Cells}
	if useAttribute {
		if a, ok := fd.CellArrayAt(slot); ok {
			in.Attributes = a.Values
		}
	}
	return in
}

func (in Input) validate(arity int) error {
	if len(in.Points)%3 != 0 {
		return fmt.Errorf("%w: point buffer length %d is not a multiple of 3", ErrInvalidInput, len(in.Points))
	}
	if len(in.Attributes) != 0 && len(in.Attributes) != len(in.Cells) {
		return fmt.Errorf("%w: %d attributes for %d cells", ErrInvalidInput, len(in.Attributes), len(in.Cells))
	}

	n := len(in.Points) / 3
	for i, c := range in.Cells {
		if len(c) != arity {
			return fmt.Errorf("%w: cell %d has %d points, want %d", ErrInvalidInput, i, len(c), arity)
		}
		for _, idx := range c {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: cell %d references point %d of %d", ErrInvalidInput, i, idx, n)
			}
		}
		for a := range c {
			for b := a + 1; b < len(c); b++ {
				if c[a] == c[b] {
					return &DegenerateError{Cell: i, Reason: "repeated point"}
				}
			}
		}
	}
	return nil
}

func (in Input) point(i int) r3.Vec {
	return r3.Vec{X: in.Points[3*i], Y: in.Points[3*i+1], Z: in.Points[3*i+2]}
}

// Build reconstructs a fully linked tetrahedral mesh from in.
func Build(in Input, opts ...Option) (*Mesh, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := m.Load(in); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// Load replaces the contents of m with the mesh described by in.
//
// The four phases run in order: entity creation, neighbour discovery, face and
// edge creation, boundary marking. On any failure the mesh is reset and the
// error returned; a partially built graph is never left behind.
func (m *Mesh) Load(in Input) error {
	m.Reset()

	if err := in.validate(4); err != nil {
		return err
	}

	if err := m.load(in); err != nil {
		m.Reset()
		m.logger.LogAttrs(context.Background(), slog.LevelDebug, "mesh build failed", slog.String("error", err.Error()))
		return err
	}

	m.logger.LogAttrs(context.Background(), slog.LevelDebug, "mesh built",
		slog.Int("vertices", m.NumVertices()),
		slog.Int("tets", m.NumTets()),
		slog.Int("faces", m.NumFaces()),
		slog.Int("edges", m.NumEdges()),
	)
	return nil
}

func (m *Mesh) load(in Input) error {
	if err := m.createEntities(in); err != nil {
		return err
	}
	if err := m.UpdateNeighbors(); err != nil {
		return err
	}
	if err := m.createFacesAndEdges(); err != nil {
		return err
	}
	m.markBoundary()
	return nil
}

func (m *Mesh) createEntities(in Input) error {
	n := len(in.Points) / 3
	ids := make([]VertexID, n)
	for i := range n {
		id, err := m.newVertex(in.point(i))
		if err != nil {
			return err
		}
		ids[i] = id
	}

	for i, c := range in.Cells {
		id, err := m.newTet(ids[c[0]], ids[c[1]], ids[c[2]], ids[c[3]])
		if err != nil {
			return err
		}
		if len(in.Attributes) != 0 {
			t := m.tets.Get(id)
			t.TypeID = in.Attributes[i]
			t.HasType = true
		}
	}
	return nil
}

// nonShared returns the slot in t of the single corner that u lacks.
// It assumes t and u share exactly three corners.
func (t *Tet) nonShared(u *Tet) int {
	for k, v := range t.verts {
		if u.slotOf(v) < 0 {
			return k
		}
	}
	return -1
}

// UpdateNeighbors recomputes every neighbour slot from the vertex-tetrahedron
// incidence lists. Two tetrahedra are neighbours iff they share exactly three
// corners. Running it again yields identical slot assignments.
func (m *Mesh) UpdateNeighbors() error {
	for _, t := range m.tets.All() {
		t.neighbors = [4]TetID{}
	}

	for id, t := range m.tets.All() {
		for _, v := range t.verts {
			for _, uid := range m.vertices.Get(v).tets {
				if uid == id {
					continue
				}
				u := m.tets.Get(uid)

				switch t.sharedWith(u) {
				case 4:
					return &TopologyError{Phase: PhaseNeighbors, Tet: id, Other: uid, Reason: "duplicate tetrahedron"}
				case 3:
					if err := linkNeighbor(id, t, t.nonShared(u), uid); err != nil {
						return err
					}
					if err := linkNeighbor(uid, u, u.nonShared(t), id); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func linkNeighbor(id TetID, t *Tet, slot int, other TetID) error {
	if slot < 0 {
		return &TopologyError{Phase: PhaseNeighbors, Tet: id, Other: other, Reason: "no unshared corner"}
	}
	if cur := t.neighbors[slot]; cur != 0 && cur != other {
		return &TopologyError{
			Phase:  PhaseNeighbors,
			Tet:    id,
			Other:  other,
			Reason: fmt.Sprintf("neighbour slot %d already holds tet %d (face shared by more than two tetrahedra)", slot, cur),
		}
	}
	t.neighbors[slot] = other
	return nil
}

func (m *Mesh) createFacesAndEdges() error {
	for id, t := range m.tets.All() {
		for k := range 4 {
			if t.faces[k] != 0 {
				continue
			}

			if nid := t.neighbors[k]; nid != 0 {
				n := m.tets.Get(nid)
				if fid := n.faces[n.nonShared(t)]; fid != 0 {
					if err := m.bind(id, t, fid); err != nil {
						return err
					}
					continue
				}
			}

			c := t.faceCorners(k)
			fid, err := m.newFace(c[0], c[1], c[2])
			if err != nil {
				return err
			}
			if err := m.bind(id, t, fid); err != nil {
				return err
			}
			if err := m.connectFaceEdges(fid); err != nil {
				return err
			}
		}
	}
	return nil
}

// bind records f in the face slot of t opposite the corner not on f, and puts
// t in the owner slot of f given by the side its apex lies on.
func (m *Mesh) bind(tid TetID, t *Tet, fid FaceID) error {
	f := m.faces.Get(fid)

	apex, shared := -1, 0
	for k, v := range t.verts {
		if f.HasVertex(v) {
			shared++
		} else {
			apex = k
		}
	}
	if shared != 3 {
		return &TopologyError{Phase: PhaseFaces, Tet: tid, Face: fid, Reason: fmt.Sprintf("face shares %d corners with tetrahedron", shared)}
	}

	c := m.FaceCorners(fid)
	o := geom.Orient3D(c[0], c[1], c[2], m.Position(t.verts[apex]))

	slot := CW
	if o > geom.OrientEpsilon {
		slot = CCW
	}
	if cur := f.owners[slot]; cur != 0 && cur != tid {
		// An apex within epsilon of the plane has no reliable side; take the free one.
		if math.Abs(o) <= geom.OrientEpsilon && f.owners[1-slot] == 0 {
			slot = 1 - slot
		} else {
			return &TopologyError{Phase: PhaseFaces, Tet: tid, Other: cur, Face: fid, Reason: "both tetrahedra lie on the same side of the face"}
		}
	}

	f.owners[slot] = tid
	t.faces[apex] = fid
	return nil
}

func (m *Mesh) markBoundary() int {
	n := 0
	for _, f := range m.faces.All() {
		f.boundary = f.owners[CCW] == 0 || f.owners[CW] == 0
		if f.boundary {
			n++
		}
	}
	return n
}

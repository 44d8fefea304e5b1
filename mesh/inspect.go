package mesh

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Stats summarises a reconstructed mesh.
type Stats struct {
	Vertices      int
	Edges         int
	Faces         int
	Tets          int
	BoundaryFaces int
	InteriorFaces int
	// SkinVertices and SkinEdges count the vertices and edges touching a boundary face.
	SkinVertices int
	SkinEdges    int
}

// Stats returns entity and skin counts.
func (m *Mesh) Stats() Stats {
	s := Stats{
		Vertices: m.NumVertices(),
		Edges:    m.NumEdges(),
		Faces:    m.NumFaces(),
		Tets:     m.NumTets(),
	}
	verts, edges := m.skin()
	s.SkinVertices = int(verts.GetCardinality())
	s.SkinEdges = int(edges.GetCardinality())
	for _, f := range m.faces.All() {
		if f.boundary {
			s.BoundaryFaces++
		} else {
			s.InteriorFaces++
		}
	}
	return s
}

// skin collects the vertices and edges of all boundary faces.
func (m *Mesh) skin() (verts, edges *roaring.Bitmap) {
	verts, edges = roaring.New(), roaring.New()
	for _, f := range m.BoundaryFaces() {
		for k := range 3 {
			verts.Add(uint32(f.verts[k]))
			edges.Add(uint32(f.edges[k]))
		}
	}
	return verts, edges
}

// IsManifold2 reports whether the skin satisfies the closed genus-0 counts
// 3F == 2E and V - E + F == 2.
func (m *Mesh) IsManifold2() bool {
	s := m.Stats()
	f, e, v := s.BoundaryFaces, s.SkinEdges, s.SkinVertices
	return 3*f == 2*e && v-e+f == 2
}

// IsClosed reports whether every skin edge borders exactly two boundary faces.
func (m *Mesh) IsClosed() bool {
	_, edges := m.skin()
	it := edges.Iterator()
	for it.HasNext() {
		if m.boundaryDegree(EdgeID(it.Next())) != 2 {
			return false
		}
	}
	return true
}

// boundaryDegree counts the boundary faces on e.
func (m *Mesh) boundaryDegree(e EdgeID) int {
	n := 0
	for _, fid := range m.edges.Get(e).faces {
		if m.faces.Get(fid).boundary {
			n++
		}
	}
	return n
}

// OtherBoundaryFaces returns the boundary faces on edge e other than f.
func (m *Mesh) OtherBoundaryFaces(e EdgeID, f FaceID) []FaceID {
	var out []FaceID
	for _, fid := range m.edges.Get(e).faces {
		if fid != f && m.faces.Get(fid).boundary {
			out = append(out, fid)
		}
	}
	return out
}

// Validate checks the structural invariants of a reconstructed mesh: every
// tetrahedron has four faces that it owns, neighbour links are symmetric and
// agree on the shared face, face boundary flags match their owner counts, and
// face/edge cross-references agree.
func (m *Mesh) Validate() error {
	for id, t := range m.tets.All() {
		for k := range 4 {
			if err := m.validateTetSlot(id, t, k); err != nil {
				return err
			}
		}
	}

	for fid, f := range m.faces.All() {
		if f.boundary != (f.OwnerCount() < 2) {
			return &TopologyError{Phase: PhaseValidate, Face: fid, Reason: fmt.Sprintf("boundary flag %t with %d owners", f.boundary, f.OwnerCount())}
		}
		if f.owners[CCW] != 0 && f.owners[CCW] == f.owners[CW] {
			return &TopologyError{Phase: PhaseValidate, Face: fid, Tet: f.owners[CCW], Reason: "same tetrahedron owns both sides"}
		}
		for k, eid := range f.edges {
			e := m.edges.Get(eid)
			if e == nil {
				return &TopologyError{Phase: PhaseValidate, Face: fid, Reason: fmt.Sprintf("edge slot %d empty", k)}
			}
			if !e.Connects(f.verts[(k+1)%3], f.verts[(k+2)%3]) {
				return &TopologyError{Phase: PhaseValidate, Face: fid, Reason: fmt.Sprintf("edge slot %d does not join the opposite corners", k)}
			}
		}
	}

	for eid, e := range m.edges.All() {
		for _, fid := range e.faces {
			f := m.faces.Get(fid)
			if f == nil || (f.edges[0] != eid && f.edges[1] != eid && f.edges[2] != eid) {
				return &TopologyError{Phase: PhaseValidate, Face: fid, Reason: fmt.Sprintf("edge %d lists a face that does not reference it", eid)}
			}
		}
	}

	return nil
}

func (m *Mesh) validateTetSlot(id TetID, t *Tet, k int) error {
	fid := t.faces[k]
	f := m.faces.Get(fid)
	if f == nil {
		return &TopologyError{Phase: PhaseValidate, Tet: id, Reason: fmt.Sprintf("face slot %d empty", k)}
	}
	if f.HasVertex(t.verts[k]) {
		return &TopologyError{Phase: PhaseValidate, Tet: id, Face: fid, Reason: fmt.Sprintf("face slot %d touches corner %d", k, k)}
	}
	if f.owners[CCW] != id && f.owners[CW] != id {
		return &TopologyError{Phase: PhaseValidate, Tet: id, Face: fid, Reason: "face does not list tetrahedron as owner"}
	}

	nid := t.neighbors[k]
	if nid == 0 {
		return nil
	}
	n := m.tets.Get(nid)
	if n == nil || n.sharedWith(t) != 3 {
		return &TopologyError{Phase: PhaseValidate, Tet: id, Other: nid, Reason: fmt.Sprintf("neighbour slot %d does not share a face", k)}
	}
	j := n.nonShared(t)
	if n.neighbors[j] != id {
		return &TopologyError{Phase: PhaseValidate, Tet: id, Other: nid, Reason: "neighbour relation not symmetric"}
	}
	if n.faces[j] != fid {
		return &TopologyError{Phase: PhaseValidate, Tet: id, Other: nid, Face: fid, Reason: "neighbours disagree on the shared face"}
	}
	return nil
}

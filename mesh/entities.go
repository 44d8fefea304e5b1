package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// VertexID is a stable handle to a vertex. The zero value is the nil handle.
type VertexID uint32

// EdgeID is a stable handle to an edge. The zero value is the nil handle.
type EdgeID uint32

// FaceID is a stable handle to a face. The zero value is the nil handle.
type FaceID uint32

// TetID is a stable handle to a tetrahedron. The zero value is the nil handle.
type TetID uint32

// Owner slots of a face.
const (
	// CCW is the owner slot for the tetrahedron whose apex lies left of the face plane.
	CCW = 0
	// CW is the owner slot for the tetrahedron on the other side.
	CW = 1
)

// Vertex is a mesh point with back-references to incident tetrahedra and edges.
type Vertex struct {
	Position r3.Vec
	// Index is the creation order of the vertex and is used by exporters.
	Index int

	tets  []TetID
	edges []EdgeID
}

// Tets returns the incident tetrahedra. The slice must not be modified.
func (v *Vertex) Tets() []TetID { return v.tets }

// Edges returns the incident edges. The slice must not be modified.
func (v *Vertex) Edges() []EdgeID { return v.edges }

// Edge connects two vertices. Endpoint order carries no meaning.
type Edge struct {
	ends  [2]VertexID
	faces []FaceID
}

// Endpoints returns both endpoints.
func (e *Edge) Endpoints() (VertexID, VertexID) { return e.ends[0], e.ends[1] }

// Connects reports whether e joins a and b in either order.
func (e *Edge) Connects(a, b VertexID) bool {
	return (e.ends[0] == a && e.ends[1] == b) || (e.ends[0] == b && e.ends[1] == a)
}

// Other returns the endpoint that is not v, or the nil handle if v is not an endpoint.
func (e *Edge) Other(v VertexID) VertexID {
	switch v {
	case e.ends[0]:
		return e.ends[1]
	case e.ends[1]:
		return e.ends[0]
	default:
		return 0
	}
}

// Faces returns the faces bordering e. The slice must not be modified.
func (e *Edge) Faces() []FaceID { return e.faces }

// Face is a triangle with up to two owning tetrahedra, one per side.
//
// Edge slot k is the edge opposite vertex k.
type Face struct {
	verts    [3]VertexID
	owners   [2]TetID
	edges    [3]EdgeID
	boundary bool

	// Mark is set once the face has been assigned to a surface group.
	Mark bool
	// Visited is scratch state for traversals that must not touch Mark.
	Visited bool
}

// Vertices returns the corners in winding order.
func (f *Face) Vertices() [3]VertexID { return f.verts }

// Owners returns the CCW and CW owning tetrahedra; empty slots hold the nil handle.
func (f *Face) Owners() [2]TetID { return f.owners }

// OwnerCount returns the number of filled owner slots.
func (f *Face) OwnerCount() int {
	n := 0
	for _, t := range f.owners {
		if t != 0 {
			n++
		}
	}
	return n
}

// AnyOwner returns the CCW owner if present, otherwise the CW owner.
func (f *Face) AnyOwner() TetID {
	if f.owners[CCW] != 0 {
		return f.owners[CCW]
	}
	return f.owners[CW]
}

// Edges returns the three edges, slot k opposite vertex k.
func (f *Face) Edges() [3]EdgeID { return f.edges }

// IsBoundary reports whether the face is on the skin of the mesh.
func (f *Face) IsBoundary() bool { return f.boundary }

// HasVertex reports whether v is a corner of f.
func (f *Face) HasVertex(v VertexID) bool {
	return f.verts[0] == v || f.verts[1] == v || f.verts[2] == v
}

// Tet is a tetrahedron. Neighbour and face slot k are opposite vertex k.
type Tet struct {
	verts     [4]VertexID
	neighbors [4]TetID
	faces     [4]FaceID

	// Index is the creation order of the tetrahedron and is used by exporters.
	Index int
	// TypeID is the material id copied from the input attribute, when present.
	TypeID  int64
	HasType bool
	// Mark is reserved for callers; reconstruction never reads it.
	Mark bool
}

// Vertices returns the four corners in input order.
func (t *Tet) Vertices() [4]VertexID { return t.verts }

// Neighbors returns the neighbour slots.
func (t *Tet) Neighbors() [4]TetID { return t.neighbors }

// Faces returns the face slots.
func (t *Tet) Faces() [4]FaceID { return t.faces }

// NeighborCount returns the number of filled neighbour slots.
func (t *Tet) NeighborCount() int {
	n := 0
	for _, u := range t.neighbors {
		if u != 0 {
			n++
		}
	}
	return n
}

// slotOf returns the index of v among the corners of t, or -1.
func (t *Tet) slotOf(v VertexID) int {
	for k, w := range t.verts {
		if w == v {
			return k
		}
	}
	return -1
}

// sharedWith counts the corners t has in common with u.
func (t *Tet) sharedWith(u *Tet) int {
	n := 0
	for _, v := range t.verts {
		if u.slotOf(v) >= 0 {
			n++
		}
	}
	return n
}

// faceCorners returns the vertices of the face opposite corner k in the fixed
// slot order (p2,p3,p4), (p1,p3,p4), (p1,p2,p4), (p1,p2,p3).
func (t *Tet) faceCorners(k int) [3]VertexID {
	var out [3]VertexID
	j := 0
	for i, v := range t.verts {
		if i != k {
			out[j] = v
			j++
		}
	}
	return out
}

package mesh

import (
	"github.com/hupe1980/tetgeo/meshio"
)

// Attribute names written by the exporters.
const (
	MaterialIDs    = "MaterialIDs"
	BulkNodeIDs    = "bulk_node_ids"
	BulkElementIDs = "bulk_element_ids"
)

// DomainData exports the whole mesh: every vertex in index order and every
// tetrahedron (or every face, for a surface mesh). With materials set, the
// tetrahedron type ids are written as the MaterialIDs cell array.
func (m *Mesh) DomainData(materials bool) *meshio.FileData {
	fd := &meshio.FileData{Points: make([]float64, 0, 3*m.NumVertices())}
	for _, v := range m.vertices.All() {
		fd.AddPoint(v.Position.X, v.Position.Y, v.Position.Z)
	}

	if m.NumTets() == 0 {
		fd.Cells = make([][]int, 0, m.NumFaces())
		for _, f := range m.faces.All() {
			fd.Cells = append(fd.Cells, m.indices3(f.verts))
		}
		return fd
	}

	fd.Cells = make([][]int, 0, m.NumTets())
	var ids []int64
	for _, t := range m.tets.All() {
		fd.Cells = append(fd.Cells, []int{
			m.vertices.Get(t.verts[0]).Index,
			m.vertices.Get(t.verts[1]).Index,
			m.vertices.Get(t.verts[2]).Index,
			m.vertices.Get(t.verts[3]).Index,
		})
		if materials {
			ids = append(ids, t.TypeID)
		}
	}
	if materials {
		fd.AddCellData(MaterialIDs, ids)
	}
	return fd
}

func (m *Mesh) indices3(vs [3]VertexID) []int {
	return []int{
		m.vertices.Get(vs[0]).Index,
		m.vertices.Get(vs[1]).Index,
		m.vertices.Get(vs[2]).Index,
	}
}

// SkinData exports all boundary faces as one triangle set, see FacesData.
func (m *Mesh) SkinData() *meshio.FileData {
	var faces []FaceID
	for id := range m.BoundaryFaces() {
		faces = append(faces, id)
	}
	return m.FacesData(faces)
}

// FacesData exports a face subset re-indexed to a compact vertex list in
// first-seen order. Point array bulk_node_ids maps each local vertex to its
// mesh index; cell array bulk_element_ids holds the index of a tetrahedron
// owning each face, or -1 for faces without owner.
func (m *Mesh) FacesData(faces []FaceID) *meshio.FileData {
	fd := &meshio.FileData{Cells: make([][]int, 0, len(faces))}
	local := make(map[VertexID]int)
	var nodeIDs, elementIDs []int64

	for _, fid := range faces {
		f := m.faces.Get(fid)
		cell := make([]int, 3)
		for k, vid := range f.verts {
			idx, ok := local[vid]
			if !ok {
				v := m.vertices.Get(vid)
				idx = fd.AddPoint(v.Position.X, v.Position.Y, v.Position.Z)
				local[vid] = idx
				nodeIDs = append(nodeIDs, int64(v.Index))
			}
			cell[k] = idx
		}
		fd.Cells = append(fd.Cells, cell)

		owner := int64(-1)
		if t := m.tets.Get(f.AnyOwner()); t != nil {
			owner = int64(t.Index)
		}
		elementIDs = append(elementIDs, owner)
	}

	fd.AddPointData(BulkNodeIDs, nodeIDs)
	fd.AddCellData(BulkElementIDs, elementIDs)
	return fd
}

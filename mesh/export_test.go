package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tetgeo/testutil"
)

func TestDomainData(t *testing.T) {
	m := build(t, testutil.SingleTet())

	fd := m.DomainData(true)
	require.NoError(t, fd.Validate())
	assert.Equal(t, 4, fd.NumPoints())
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, fd.Cells)

	ids, ok := fd.CellArray(MaterialIDs)
	require.True(t, ok)
	assert.Equal(t, []int64{7}, ids.Values)

	t.Run("without materials", func(t *testing.T) {
		fd := m.DomainData(false)
		assert.Empty(t, fd.CellData)
	})
}

func TestSkinData(t *testing.T) {
	m := build(t, testutil.TwoTets())

	fd := m.SkinData()
	require.NoError(t, fd.Validate())
	assert.Equal(t, 6, fd.NumCells())
	assert.Equal(t, 5, fd.NumPoints())

	nodes, ok := fd.PointArray(BulkNodeIDs)
	require.True(t, ok)
	assert.ElementsMatch(t, []int64{0, 1, 2, 3, 4}, nodes.Values)

	elems, ok := fd.CellArray(BulkElementIDs)
	require.True(t, ok)
	for _, v := range elems.Values {
		assert.Contains(t, []int64{0, 1}, v)
	}
}

func TestFacesData(t *testing.T) {
	m := build(t, testutil.TwoTets())

	var faces []FaceID
	for id := range m.BoundaryFaces() {
		faces = append(faces, id)
		if len(faces) == 2 {
			break
		}
	}

	fd := m.FacesData(faces)
	require.NoError(t, fd.Validate())
	assert.Equal(t, 2, fd.NumCells())

	nodes, _ := fd.PointArray(BulkNodeIDs)
	require.Len(t, nodes.Values, fd.NumPoints())

	// Local vertex i maps back to the mesh vertex with the same position.
	for i, idx := range nodes.Values {
		x, y, z := fd.Point(i)
		p := m.Position(m.VertexAt(int(idx)))
		assert.Equal(t, [3]float64{p.X, p.Y, p.Z}, [3]float64{x, y, z})
	}

	t.Run("surface faces have no owner", func(t *testing.T) {
		s := buildSurface(t, testutil.TetSkin())
		fd := s.SkinData()
		elems, ok := fd.CellArray(BulkElementIDs)
		require.True(t, ok)
		assert.Equal(t, []int64{-1, -1, -1, -1}, elems.Values)
	})
}

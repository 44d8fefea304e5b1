package testutil

import (
	"github.com/hupe1980/tetgeo/meshio"
)

// SingleTet returns the unit corner tetrahedron with material id 7.
func SingleTet() *meshio.FileData {
	fd := &meshio.FileData{
		Points: []float64{
			0, 0, 0,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		},
		Cells: [][]int{{0, 1, 2, 3}},
	}
	fd.AddCellData("MaterialIDs", []int64{7})
	return fd
}

// TwoTets returns two tetrahedra glued along the face (1,2,3).
func TwoTets() *meshio.FileData {
	fd := &meshio.FileData{
		Points: []float64{
			0, 0, 0,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
			1, 1, 1,
		},
		Cells: [][]int{{0, 1, 2, 3}, {1, 2, 3, 4}},
	}
	fd.AddCellData("MaterialIDs", []int64{1, 2})
	fd.AddCellData("Region", []int64{10, 20})
	return fd
}

// cubeQuads lists the six faces of the unit cube wound counter-clockwise seen
// from outside, corners indexed x + 2y + 4z.
var cubeQuads = [6][4]int{
	{0, 2, 3, 1}, // z = 0
	{4, 5, 7, 6}, // z = 1
	{0, 1, 5, 4}, // y = 0
	{2, 6, 7, 3}, // y = 1
	{0, 4, 6, 2}, // x = 0
	{1, 3, 7, 5}, // x = 1
}

func cubeCorners() []float64 {
	pts := make([]float64, 0, 24)
	for i := range 8 {
		pts = append(pts, float64(i&1), float64(i>>1&1), float64(i>>2&1))
	}
	return pts
}

// cubeTriangles splits each cube quad (a,b,c,d) along a-c.
func cubeTriangles() [][]int {
	tris := make([][]int, 0, 12)
	for _, q := range cubeQuads {
		tris = append(tris, []int{q[0], q[1], q[2]}, []int{q[0], q[2], q[3]})
	}
	return tris
}

// CubeSkin returns the 12-triangle surface of the unit cube.
func CubeSkin() *meshio.FileData {
	return &meshio.FileData{Points: cubeCorners(), Cells: cubeTriangles()}
}

// TetSkin returns the 4-triangle surface of the unit corner tetrahedron.
func TetSkin() *meshio.FileData {
	return &meshio.FileData{
		Points: []float64{
			0, 0, 0,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		},
		Cells: [][]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}},
	}
}

// ConedCube returns the unit cube split into 12 tetrahedra, one per skin
// triangle, all sharing the interior apex (x, y, z). Point 8 is the apex.
// Material ids alternate 0 and 1.
func ConedCube(x, y, z float64) *meshio.FileData {
	fd := &meshio.FileData{Points: append(cubeCorners(), x, y, z)}
	var ids []int64
	for i, tri := range cubeTriangles() {
		fd.Cells = append(fd.Cells, []int{tri[0], tri[1], tri[2], 8})
		ids = append(ids, int64(i%2))
	}
	fd.AddCellData("MaterialIDs", ids)
	return fd
}

// FiveTetCube returns the unit cube split into five tetrahedra around the
// regular tetrahedron (0, 3, 5, 6).
func FiveTetCube() *meshio.FileData {
	return &meshio.FileData{
		Points: cubeCorners(),
		Cells: [][]int{
			{0, 1, 3, 5},
			{0, 2, 3, 6},
			{0, 4, 5, 6},
			{3, 5, 6, 7},
			{0, 3, 5, 6},
		},
	}
}

// BoxGrid returns the Kuhn triangulation of the box grid spanned by the given
// axis coordinates: every grid cell is split into six tetrahedra along its
// main diagonal, which makes neighbouring cells conforming.
func BoxGrid(xs, ys, zs []float64) *meshio.FileData {
	nx, ny, nz := len(xs), len(ys), len(zs)
	idx := func(i, j, k int) int { return i + nx*(j+ny*k) }

	fd := &meshio.FileData{Points: make([]float64, 0, 3*nx*ny*nz)}
	for k := range nz {
		for j := range ny {
			for i := range nx {
				fd.AddPoint(xs[i], ys[j], zs[k])
			}
		}
	}

	perms := [6][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	var ids []int64
	for k := 0; k+1 < nz; k++ {
		for j := 0; j+1 < ny; j++ {
			for i := 0; i+1 < nx; i++ {
				for _, p := range perms {
					c := [3]int{i, j, k}
					tet := []int{idx(c[0], c[1], c[2])}
					for _, axis := range p {
						c[axis]++
						tet = append(tet, idx(c[0], c[1], c[2]))
					}
					fd.Cells = append(fd.Cells, tet)
					ids = append(ids, int64(k))
				}
			}
		}
	}
	fd.AddCellData("MaterialIDs", ids)
	return fd
}

// GradedBox returns BoxGrid with n cells per axis and a different quadratic
// grading per axis, so the vertex centroid lies off every grid line and every
// cell diagonal of the box faces.
func GradedBox(n int) *meshio.FileData {
	axis := func(g float64) []float64 {
		out := make([]float64, n+1)
		for i := range out {
			out[i] = float64(i) + g*float64(i*i)
		}
		return out
	}
	return BoxGrid(axis(0.1), axis(0.05), axis(0.2))
}

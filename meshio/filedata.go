// Package meshio defines FileData, the flat point/cell exchange record shared by
// mesh loaders and exporters, and a compact binary container for it.
//
// FileData is deliberately dumb: points are xyz triples in one slice, cells are
// index lists of arity 3 (triangle) or 4 (tetrahedron), and attributes are
// named int64 arrays kept in insertion order so that slot-based lookups
// (for example "use the second cell array as material id") are stable.
package meshio

import (
	"errors"
	"fmt"
)

// ErrInvalidData is returned when FileData is internally inconsistent.
var ErrInvalidData = errors.New("meshio: invalid data")

// Array is a named attribute with one value per point or per cell.
type Array struct {
	Name   string
	Values []int64
}

// FileData is a flat mesh description.
type FileData struct {
	Points    []float64 // xyz triples
	Cells     [][]int   // 3 or 4 point indices each
	CellData  []Array
	PointData []Array
}

// NumPoints returns the number of points.
func (fd *FileData) NumPoints() int { return len(fd.Points) / 3 }

// NumCells returns the number of cells.
func (fd *FileData) NumCells() int { return len(fd.Cells) }

// Point returns the coordinates of point i.
func (fd *FileData) Point(i int) (x, y, z float64) {
	return fd.Points[3*i], fd.Points[3*i+1], fd.Points[3*i+2]
}

// AddPoint appends a point and returns its index.
func (fd *FileData) AddPoint(x, y, z float64) int {
	fd.Points = append(fd.Points, x, y, z)
	return fd.NumPoints() - 1
}

// AddCellData appends a per-cell array. An existing array with the same name is replaced in place.
func (fd *FileData) AddCellData(name string, values []int64) {
	fd.CellData = putArray(fd.CellData, name, values)
}

// AddPointData appends a per-point array. An existing array with the same name is replaced in place.
func (fd *FileData) AddPointData(name string, values []int64) {
	fd.PointData = putArray(fd.PointData, name, values)
}

func putArray(arrays []Array, name string, values []int64) []Array {
	for i := range arrays {
		if arrays[i].Name == name {
			arrays[i].Values = values
			return arrays
		}
	}
	return append(arrays, Array{Name: name, Values: values})
}

// CellArray returns the per-cell array with the given name.
func (fd *FileData) CellArray(name string) (Array, bool) {
	return findArray(fd.CellData, name)
}

// PointArray returns the per-point array with the given name.
func (fd *FileData) PointArray(name string) (Array, bool) {
	return findArray(fd.PointData, name)
}

func findArray(arrays []Array, name string) (Array, bool) {
	for _, a := range arrays {
		if a.Name == name {
			return a, true
		}
	}
	return Array{}, false
}

// CellArrayAt returns the per-cell array in the given slot. Out-of-range slots
// fall back to the first array; ok is false only when there is no cell data.
func (fd *FileData) CellArrayAt(slot int) (Array, bool) {
	if len(fd.CellData) == 0 {
		return Array{}, false
	}
	if slot < 0 || slot >= len(fd.CellData) {
		return fd.CellData[0], true
	}
	return fd.CellData[slot], true
}

// CellKinds reports whether the data contains triangles and tetrahedra.
func (fd *FileData) CellKinds() (triangles, tetrahedra bool) {
	for _, c := range fd.Cells {
		switch len(c) {
		case 3:
			triangles = true
		case 4:
			tetrahedra = true
		}
	}
	return triangles, tetrahedra
}

// Validate checks point/cell consistency and attribute lengths.
func (fd *FileData) Validate() error {
	if len(fd.Points)%3 != 0 {
		return fmt.Errorf("%w: point buffer length %d is not a multiple of 3", ErrInvalidData, len(fd.Points))
	}

	n := fd.NumPoints()
	for i, c := range fd.Cells {
		if len(c) != 3 && len(c) != 4 {
			return fmt.Errorf("%w: cell %d has %d points, want 3 or 4", ErrInvalidData, i, len(c))
		}
		for _, idx := range c {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: cell %d references point %d of %d", ErrInvalidData, i, idx, n)
			}
		}
	}

	for _, a := range fd.CellData {
		if len(a.Values) != len(fd.Cells) {
			return fmt.Errorf("%w: cell array %q has %d values for %d cells", ErrInvalidData, a.Name, len(a.Values), len(fd.Cells))
		}
	}
	for _, a := range fd.PointData {
		if len(a.Values) != n {
			return fmt.Errorf("%w: point array %q has %d values for %d points", ErrInvalidData, a.Name, len(a.Values), n)
		}
	}

	return nil
}

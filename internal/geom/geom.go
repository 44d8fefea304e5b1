// Package geom holds the geometric predicates and vector helpers used by mesh
// reconstruction and surface partitioning.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// OrientEpsilon is the threshold above which Orient3D counts as strictly positive.
	OrientEpsilon = 1e-8
	// ParallelEpsilon rejects rays that are (nearly) parallel to a triangle plane.
	ParallelEpsilon = 1e-8
	// CoplanarTolerance is the maximal point-plane distance accepted by Coplanar.
	CoplanarTolerance = 1e-4
	// BarycentricEpsilon keeps strict-interior hits away from the triangle border.
	BarycentricEpsilon = 1e-8
	// barycentricSumLimit is the upper bound for alpha+beta on a strict-interior hit.
	barycentricSumLimit = 0.99999999999
	// areaTolerance is the slack used by PointInTriangle when comparing areas.
	areaTolerance = 1e-8
)

// Triangle is a 3D triangle given by its corners in winding order.
type Triangle struct {
	A, B, C r3.Vec
}

// Segment is a bounded ray from From to To. Hits are accepted for t in [0, 1].
type Segment struct {
	From, To r3.Vec
}

// Orient3D returns the signed volume determinant of (a-s, b-s, c-s).
// It is positive when s lies on the side of plane abc that the predicate calls left.
func Orient3D(a, b, c, s r3.Vec) float64 {
	a11, a12, a13 := a.X-s.X, a.Y-s.Y, a.Z-s.Z
	a21, a22, a23 := b.X-s.X, b.Y-s.Y, b.Z-s.Z
	a31, a32, a33 := c.X-s.X, c.Y-s.Y, c.Z-s.Z

	return a11*a22*a33 + a12*a23*a31 + a13*a21*a32 -
		a31*a22*a13 - a32*a23*a11 - a21*a12*a33
}

// ToLeft reports whether s lies strictly left of the oriented plane abc.
func ToLeft(a, b, c, s r3.Vec) bool {
	return Orient3D(a, b, c, s) > OrientEpsilon
}

// Colinear is an exact test: it reports true only if all three components of
// (b-a)×(c-a) are exactly zero.
func Colinear(a, b, c r3.Vec) bool {
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a)) == r3.Vec{}
}

// Coplanar reports whether d lies within CoplanarTolerance of plane abc.
// Three colinear points span no plane, so any d is accepted.
func Coplanar(a, b, c, d r3.Vec) bool {
	if Colinear(a, b, c) {
		return true
	}
	n := r3.Unit(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
	return math.Abs(r3.Dot(n, r3.Sub(d, a))) < CoplanarTolerance
}

// Normal returns the unit normal of triangle abc using the left-hand cross
// (c-a)×(b-a). Degenerate triangles yield NaN components.
func Normal(a, b, c r3.Vec) r3.Vec {
	return r3.Unit(r3.Cross(r3.Sub(c, a), r3.Sub(b, a)))
}

// Normal returns the left-hand unit normal of t.
func (t Triangle) Normal() r3.Vec {
	return Normal(t.A, t.B, t.C)
}

// doubleArea returns twice the area of t.
func (t Triangle) doubleArea() float64 {
	return r3.Norm(r3.Cross(r3.Sub(t.B, t.A), r3.Sub(t.C, t.A)))
}

// Centroid returns the arithmetic mean of pts, or the zero vector for an empty slice.
func Centroid(pts []r3.Vec) r3.Vec {
	if len(pts) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(pts)), sum)
}

// Rotate applies yaw (about z), pitch (about y) and roll (about x) to p, in
// the order yaw·pitch·roll·p. The angles are divided by 180 and then used
// directly as radians.
func Rotate(p r3.Vec, yaw, pitch, roll float64) r3.Vec {
	a, b, r := yaw/180, pitch/180, roll/180

	cosA, sinA := math.Cos(a), math.Sin(a)
	cosB, sinB := math.Cos(b), math.Sin(b)
	cosR, sinR := math.Cos(r), math.Sin(r)

	return r3.Vec{
		X: p.X*(cosA*cosB) + p.Y*(cosA*sinB*sinR-sinA*cosR) + p.Z*(cosA*sinB*cosR+sinA*sinR),
		Y: p.X*(sinA*cosB) + p.Y*(sinA*sinB*sinR+cosA*cosR) + p.Z*(sinA*sinB*cosR-cosA*sinR),
		Z: p.X*(-sinB) + p.Y*(cosB*sinR) + p.Z*(cosB*cosR),
	}
}

// PointInTriangle reports whether p lies inside t or on its border, by comparing
// the triangle area with the sum of the three sub-triangle areas.
func PointInTriangle(t Triangle, p r3.Vec) bool {
	if p == t.A || p == t.B || p == t.C {
		return true
	}

	abc := t.doubleArea()
	abp := Triangle{t.A, t.B, p}.doubleArea()
	acp := Triangle{t.A, t.C, p}.doubleArea()
	bcp := Triangle{t.B, t.C, p}.doubleArea()

	return math.Abs(abc-(abp+acp+bcp)) < areaTolerance
}

// IntersectSegment intersects seg with the plane of t and reports the hit point.
//
// With includeBorder the hit may lie anywhere on the closed triangle. Without
// it, the barycentric coordinates must satisfy alpha > eps, beta > eps and
// alpha+beta < 1-eps, so hits on an edge or a corner are rejected.
func IntersectSegment(t Triangle, seg Segment, includeBorder bool) (r3.Vec, bool) {
	dir := r3.Sub(seg.To, seg.From)

	u := r3.Sub(t.B, t.A)
	v := r3.Sub(t.C, t.A)
	cuv := r3.Cross(u, v)
	n := r3.Unit(cuv)

	denom := r3.Dot(n, dir)
	if math.Abs(denom) < ParallelEpsilon || math.IsNaN(denom) {
		return r3.Vec{}, false
	}

	param := (r3.Dot(n, t.A) - r3.Dot(n, seg.From)) / denom
	if param < 0 || param > 1 {
		return r3.Vec{}, false
	}

	hit := r3.Add(seg.From, r3.Scale(param, dir))

	if includeBorder {
		if PointInTriangle(t, hit) {
			return hit, true
		}
		return r3.Vec{}, false
	}

	w := r3.Scale(1/r3.Dot(cuv, cuv), cuv)
	q := r3.Sub(hit, t.A)
	alpha := r3.Dot(w, r3.Cross(q, v))
	beta := r3.Dot(w, r3.Cross(u, q))

	if alpha > BarycentricEpsilon && beta > BarycentricEpsilon && alpha+beta < barycentricSumLimit {
		return hit, true
	}
	return r3.Vec{}, false
}

// SolidAngle returns the signed solid angle subtended by triangle abc at p
// (Van Oosterom and Strackee).
func SolidAngle(p, a, b, c r3.Vec) float64 {
	a, b, c = r3.Sub(a, p), r3.Sub(b, p), r3.Sub(c, p)
	la, lb, lc := r3.Norm(a), r3.Norm(b), r3.Norm(c)

	det := r3.Dot(a, r3.Cross(b, c))
	denom := la*lb*lc + r3.Dot(a, b)*lc + r3.Dot(b, c)*la + r3.Dot(c, a)*lb

	return 2 * math.Atan2(det, denom)
}

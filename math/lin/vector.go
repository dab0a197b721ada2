// Copyright © 2024 Galvanized Logic Inc.

package lin

// vector.go handles the 3 and 4 element vector math needed by the
// physics solver. Vectors double as points where it makes sense.

import "math"

// V3 is a 3 element vector. This can also be used as a point.
type V3 struct {
	X float64 // increments as X moves to the right.
	Y float64 // increments as Y moves up.
	Z float64 // increments as Z moves out of the screen (right handed).
}

// V4 is a 4 element vector. As a point it would have W:1,
// and as a direction it would have W:0.
type V4 struct {
	X, Y, Z, W float64
}

// Eq (==) returns true if each element in the vector v has the same
// value as the corresponding element in vector a.
func (v *V3) Eq(a *V3) bool { return v.X == a.X && v.Y == a.Y && v.Z == a.Z }

// Aeq (~=) almost-equals returns true if all the elements in vector v
// have essentially the same value as the corresponding elements in a.
func (v *V3) Aeq(a *V3) bool {
	return Aeq(v.X, a.X) && Aeq(v.Y, a.Y) && Aeq(v.Z, a.Z)
}

// AeqZ almost-equals-zero returns true if the square length of the
// vector is close enough to zero that it makes no difference.
func (v *V3) AeqZ() bool { return v.Dot(v) < Epsilon }

// SetS (=) sets the vector elements to the given values.
// The updated vector v is returned.
func (v *V3) SetS(x, y, z float64) *V3 {
	v.X, v.Y, v.Z = x, y, z
	return v
}

// Set (=) sets the elements of vector v to the values of vector a.
// The updated vector v is returned.
func (v *V3) Set(a *V3) *V3 {
	v.X, v.Y, v.Z = a.X, a.Y, a.Z
	return v
}

// Neg (-) sets vector v to the negation of vector a.
// Vector v may be used as the input parameter.
func (v *V3) Neg(a *V3) *V3 {
	v.X, v.Y, v.Z = -a.X, -a.Y, -a.Z
	return v
}

// Add (+) adds vectors a and b storing the result in v.
// Vector v may be used as one or both of the parameters,
// eg. (+=) is v.Add(v, b).
func (v *V3) Add(a, b *V3) *V3 {
	v.X, v.Y, v.Z = a.X+b.X, a.Y+b.Y, a.Z+b.Z
	return v
}

// Sub (-) subtracts vector b from a storing the result in v.
// Vector v may be used as one or both of the parameters.
func (v *V3) Sub(a, b *V3) *V3 {
	v.X, v.Y, v.Z = a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return v
}

// Scale (*=) multiplies the elements of vector a by scalar s,
// storing the result in v.
func (v *V3) Scale(a *V3, s float64) *V3 {
	v.X, v.Y, v.Z = a.X*s, a.Y*s, a.Z*s
	return v
}

// Div (/=) divides each element of v by scalar s.
// Vector v is not changed if s is zero.
func (v *V3) Div(s float64) *V3 {
	if s != 0 {
		inv := 1 / s
		v.X, v.Y, v.Z = v.X*inv, v.Y*inv, v.Z*inv
	}
	return v
}

// Dot returns the dot product of vectors v and a.
// Both vectors are unchanged.
func (v *V3) Dot(a *V3) float64 { return v.X*a.X + v.Y*a.Y + v.Z*a.Z }

// Len returns the length of vector v.
func (v *V3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// LenSqr returns the squared length of vector v.
func (v *V3) LenSqr() float64 { return v.Dot(v) }

// Dist returns the distance between points v and a.
func (v *V3) Dist(a *V3) float64 {
	dx, dy, dz := a.X-v.X, a.Y-v.Y, a.Z-v.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Unit updates vector v such that its length is 1. Vector v is
// unchanged if its length is zero. The updated vector v is returned.
func (v *V3) Unit() *V3 {
	if length := v.Len(); length != 0 {
		return v.Div(length)
	}
	return v
}

// Cross updates v to be the cross product of vectors a and b.
// Vector v may be used as either input parameter.
func (v *V3) Cross(a, b *V3) *V3 {
	x := a.Y*b.Z - a.Z*b.Y
	y := a.Z*b.X - a.X*b.Z
	z := a.X*b.Y - a.Y*b.X
	v.X, v.Y, v.Z = x, y, z
	return v
}

// MultQ updates v to be vector a rotated by unit-quaternion q.
// The input vector a and quaternion q are unchanged. Based on:
//
//	http://molecularmusings.wordpress.com/2013/05/24/a-faster-quaternion-vector-multiplication/
func (v *V3) MultQ(a *V3, q *Q) *V3 {
	// t = 2 * cross(q.xyz, a)
	tx, ty, tz := 2*(q.Y*a.Z-q.Z*a.Y), 2*(q.Z*a.X-q.X*a.Z), 2*(q.X*a.Y-q.Y*a.X)

	// v' = a + q.w*t + cross(q.xyz, t)
	cx, cy, cz := q.Y*tz-q.Z*ty, q.Z*tx-q.X*tz, q.X*ty-q.Y*tx
	v.X, v.Y, v.Z = a.X+q.W*tx+cx, a.Y+q.W*ty+cy, a.Z+q.W*tz+cz
	return v
}

// MultMv updates vector v to be the multiplication of matrix m and
// column vector cv. Vector v may be used as the input vector cv.
//
//	[ Xx Xy Xz ]   [ vx ]   [ vx' ]
//	[ Yx Yy Yz ] x [ vy ] = [ vy' ]
//	[ Zx Zy Zz ]   [ vz ]   [ vz' ]
func (v *V3) MultMv(m *M3, cv *V3) *V3 {
	x := m.Xx*cv.X + m.Xy*cv.Y + m.Xz*cv.Z
	y := m.Yx*cv.X + m.Yy*cv.Y + m.Yz*cv.Z
	z := m.Zx*cv.X + m.Zy*cv.Y + m.Zz*cv.Z
	v.X, v.Y, v.Z = x, y, z
	return v
}

// SetS (=) sets the vector elements to the given values.
func (v *V4) SetS(x, y, z, w float64) *V4 {
	v.X, v.Y, v.Z, v.W = x, y, z, w
	return v
}

// Dot returns the dot product of vectors v and a.
func (v *V4) Dot(a *V4) float64 {
	return v.X*a.X + v.Y*a.Y + v.Z*a.Z + v.W*a.W
}

// MultMv updates vector v to be the multiplication of matrix m and
// column vector cv. Vector v may be used as the input vector cv.
func (v *V4) MultMv(m *M4, cv *V4) *V4 {
	x := m.Xx*cv.X + m.Xy*cv.Y + m.Xz*cv.Z + m.Xw*cv.W
	y := m.Yx*cv.X + m.Yy*cv.Y + m.Yz*cv.Z + m.Yw*cv.W
	z := m.Zx*cv.X + m.Zy*cv.Y + m.Zz*cv.Z + m.Zw*cv.W
	w := m.Wx*cv.X + m.Wy*cv.Y + m.Wz*cv.Z + m.Ww*cv.W
	v.X, v.Y, v.Z, v.W = x, y, z, w
	return v
}

// methods above do not allocate.
// ============================================================================
// convenience functions for allocating vectors. Nothing else allocates.

// NewV3 creates a new, all zero, 3D vector.
func NewV3() *V3 { return &V3{} }

// NewV3S creates a new 3D vector from the given scalars.
func NewV3S(x, y, z float64) *V3 { return &V3{x, y, z} }

// NewV4 creates a new, all zero, 4D vector.
func NewV4() *V4 { return &V4{} }

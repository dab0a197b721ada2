// Copyright © 2024 Galvanized Logic Inc.

package lin

// quaternion.go deals with quaternion math specifically for tracking
// and manipulating 3D rotations. For a nice explanation of quaternions
// see http://3dgep.com/?p=1815

import "math"

// Q is a unit length quaternion representing an angle of rotation
// about a direction. Quaternions behave nicely for mathematical
// operations other than they are not commutative.
type Q struct {
	X float64 // X component of direction vector.
	Y float64 // Y component of direction vector.
	Z float64 // Z component of direction vector.
	W float64 // Angle of rotation.
}

// QI provides a reference identity quaternion that can be used
// in calculations. It should never be changed.
var QI = &Q{0, 0, 0, 1}

// Eq (==) returns true if each element in quaternion q has the same
// value as the corresponding element in quaternion r.
func (q *Q) Eq(r *Q) bool {
	return q.X == r.X && q.Y == r.Y && q.Z == r.Z && q.W == r.W
}

// Aeq (~=) almost-equals returns true if all the elements in q have
// essentially the same value as the corresponding elements in r.
func (q *Q) Aeq(r *Q) bool {
	return Aeq(q.X, r.X) && Aeq(q.Y, r.Y) && Aeq(q.Z, r.Z) && Aeq(q.W, r.W)
}

// SetS (=) explicitly sets each of the quaternion values.
// The updated quaternion q is returned.
func (q *Q) SetS(x, y, z, w float64) *Q {
	q.X, q.Y, q.Z, q.W = x, y, z, w
	return q
}

// Set (=) assigns the element values of quaternion r to quaternion q.
// The updated quaternion q is returned.
func (q *Q) Set(r *Q) *Q {
	q.X, q.Y, q.Z, q.W = r.X, r.Y, r.Z, r.W
	return q
}

// Inv updates q to be the inverse of quaternion r. The inverse of a
// quaternion is the same as the conjugate, as long as the quaternion
// is unit-length. Quaternion q may be used as the input parameter.
func (q *Q) Inv(r *Q) *Q {
	q.X, q.Y, q.Z, q.W = -r.X, -r.Y, -r.Z, r.W
	return q
}

// Scale (*=) quaternion q by scalar s.
func (q *Q) Scale(s float64) *Q {
	q.X, q.Y, q.Z, q.W = q.X*s, q.Y*s, q.Z*s, q.W*s
	return q
}

// Mult (*) multiplies quaternions r and s returning the result in q.
// This applies the rotation of s to r, leaving r and s unchanged.
// It is safe to use the calling quaternion q as one or both of the
// parameters, eg. (*=) is q.Mult(q, s).
func (q *Q) Mult(r, s *Q) *Q {
	x := r.W*s.X + r.X*s.W - r.Y*s.Z + r.Z*s.Y
	y := r.W*s.Y + r.X*s.Z + r.Y*s.W - r.Z*s.X
	z := r.W*s.Z - r.X*s.Y + r.Y*s.X + r.Z*s.W
	w := r.W*s.W - r.X*s.X - r.Y*s.Y - r.Z*s.Z
	q.X, q.Y, q.Z, q.W = x, y, z, w
	return q
}

// Dot returns the dot product of quaternions q and r.
func (q *Q) Dot(r *Q) float64 {
	return q.X*r.X + q.Y*r.Y + q.Z*r.Z + q.W*r.W
}

// Len returns the length of quaternion q.
func (q *Q) Len() float64 { return math.Sqrt(q.Dot(q)) }

// Unit normalizes quaternion q to length 1. Quaternion q is not
// updated if its length is zero. The updated q is returned.
func (q *Q) Unit() *Q {
	if qlen := q.Len(); qlen != 0 {
		q.Scale(1 / qlen)
	}
	return q
}

// Aa gets the rotation of quaternion q as an axis and angle.
// The axis (x, y, z) and the angle in radians are returned.
func (q *Q) Aa() (ax, ay, az, angle float64) {
	sinSqr := 1 - q.W*q.W
	if AeqZ(sinSqr) {
		return 1, 0, 0, 2 * math.Acos(q.W)
	}
	sin := 1 / math.Sqrt(sinSqr)
	return q.X * sin, q.Y * sin, q.Z * sin, 2 * math.Acos(q.W)
}

// SetAa, set axis-angle, updates q to have the rotation of the given
// axis (ax, ay, az) and angle in radians. Quaternion q is set to
// identity if the axis length is 0. The updated q is returned.
func (q *Q) SetAa(ax, ay, az, angle float64) *Q {
	alenSqr := ax*ax + ay*ay + az*az
	if alenSqr == 0 {
		q.X, q.Y, q.Z, q.W = 0, 0, 0, 1
		return q
	}
	s := math.Sin(angle*0.5) / math.Sqrt(alenSqr)
	q.X, q.Y, q.Z, q.W = ax*s, ay*s, az*s, math.Cos(angle*0.5)
	return q
}

// methods above do not allocate.
// ============================================================================
// convenience functions for allocating quaternions. Nothing else allocates.

// NewQ creates a new, all zero, quaternion.
func NewQ() *Q { return &Q{} }

// NewQI creates a new identity quaternion.
func NewQI() *Q { return &Q{W: 1} }

// Copyright © 2024 Galvanized Logic Inc.

package lin

// matrix.go handles the 3x3 and 4x4 matrices used by the solver.
// Matrices are Row-Major with explicitly indexed members:
//
//	     3x3 M3          4x4 M4
//	[Xx, Xy, Xz]  [Xx, Xy, Xz, Xw]  X-Axis
//	[Yx, Yy, Yz]  [Yx, Yy, Yz, Yw]  Y-Axis
//	[Zx, Zy, Zz]  [Zx, Zy, Zz, Zw]  Z-Axis
//	              [Wx, Wy, Wz, Ww]  Translation vector, Ww == 1.
//
// Rotation matrices are not composed directly; rotations are tracked
// with quaternions and converted using SetQ when a matrix is needed.

import "log/slog"

// M3 is a 3x3 matrix where the matrix elements are individually
// addressable.
type M3 struct {
	Xx, Xy, Xz float64 // row 0
	Yx, Yy, Yz float64 // row 1
	Zx, Zy, Zz float64 // row 2
}

// M4 is a 4x4 matrix where the matrix elements are individually
// addressable.
type M4 struct {
	Xx, Xy, Xz, Xw float64 // row 0
	Yx, Yy, Yz, Yw float64 // row 1
	Zx, Zy, Zz, Zw float64 // row 2
	Wx, Wy, Wz, Ww float64 // row 3
}

// M3I provides a reference identity matrix that can be used
// in calculations. It should never be changed.
var M3I = &M3{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1}

// M4I provides a reference identity matrix that can be used
// in calculations. It should never be changed.
var M4I = &M4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1}

// Eq (==) returns true if all the elements in matrix m have the same
// value as the corresponding elements in matrix a.
func (m *M3) Eq(a *M3) bool {
	return m.Xx == a.Xx && m.Xy == a.Xy && m.Xz == a.Xz &&
		m.Yx == a.Yx && m.Yy == a.Yy && m.Yz == a.Yz &&
		m.Zx == a.Zx && m.Zy == a.Zy && m.Zz == a.Zz
}

// Aeq (~=) almost-equals returns true if all the elements of m are
// essentially the same as the corresponding elements of a.
func (m *M3) Aeq(a *M3) bool {
	return Aeq(m.Xx, a.Xx) && Aeq(m.Xy, a.Xy) && Aeq(m.Xz, a.Xz) &&
		Aeq(m.Yx, a.Yx) && Aeq(m.Yy, a.Yy) && Aeq(m.Yz, a.Yz) &&
		Aeq(m.Zx, a.Zx) && Aeq(m.Zy, a.Zy) && Aeq(m.Zz, a.Zz)
}

// Set (=) updates matrix m to have the element values of matrix a.
// The updated matrix m is returned.
func (m *M3) Set(a *M3) *M3 {
	*m = *a
	return m
}

// Set (=) updates matrix m to have the element values of matrix a.
func (m *M4) Set(a *M4) *M4 {
	*m = *a
	return m
}

// Transpose updates matrix m to be the transpose of matrix a.
// Matrix m may be used as the input parameter.
// The updated matrix m is returned.
func (m *M3) Transpose(a *M3) *M3 {
	xy, xz, yz := a.Yx, a.Zx, a.Zy
	yx, zx, zy := a.Xy, a.Xz, a.Yz
	m.Xx, m.Xy, m.Xz = a.Xx, xy, xz
	m.Yx, m.Yy, m.Yz = yx, a.Yy, yz
	m.Zx, m.Zy, m.Zz = zx, zy, a.Zz
	return m
}

// Transpose updates matrix m to be the transpose of matrix a.
// Matrix m may be used as the input parameter.
func (m *M4) Transpose(a *M4) *M4 {
	t := M4{
		a.Xx, a.Yx, a.Zx, a.Wx,
		a.Xy, a.Yy, a.Zy, a.Wy,
		a.Xz, a.Yz, a.Zz, a.Wz,
		a.Xw, a.Yw, a.Zw, a.Ww}
	*m = t
	return m
}

// Mult updates matrix m to be the product of matrices l and r, in that
// order. Matrix m may be used as one or both input parameters.
func (m *M3) Mult(l, r *M3) *M3 {
	xx := l.Xx*r.Xx + l.Xy*r.Yx + l.Xz*r.Zx
	xy := l.Xx*r.Xy + l.Xy*r.Yy + l.Xz*r.Zy
	xz := l.Xx*r.Xz + l.Xy*r.Yz + l.Xz*r.Zz
	yx := l.Yx*r.Xx + l.Yy*r.Yx + l.Yz*r.Zx
	yy := l.Yx*r.Xy + l.Yy*r.Yy + l.Yz*r.Zy
	yz := l.Yx*r.Xz + l.Yy*r.Yz + l.Yz*r.Zz
	zx := l.Zx*r.Xx + l.Zy*r.Yx + l.Zz*r.Zx
	zy := l.Zx*r.Xy + l.Zy*r.Yy + l.Zz*r.Zy
	zz := l.Zx*r.Xz + l.Zy*r.Yz + l.Zz*r.Zz
	m.Xx, m.Xy, m.Xz = xx, xy, xz
	m.Yx, m.Yy, m.Yz = yx, yy, yz
	m.Zx, m.Zy, m.Zz = zx, zy, zz
	return m
}

// Mult updates matrix m to be the product of matrices l and r, in that
// order. Matrix m may be used as one or both input parameters.
func (m *M4) Mult(l, r *M4) *M4 {
	p := M4{
		l.Xx*r.Xx + l.Xy*r.Yx + l.Xz*r.Zx + l.Xw*r.Wx,
		l.Xx*r.Xy + l.Xy*r.Yy + l.Xz*r.Zy + l.Xw*r.Wy,
		l.Xx*r.Xz + l.Xy*r.Yz + l.Xz*r.Zz + l.Xw*r.Wz,
		l.Xx*r.Xw + l.Xy*r.Yw + l.Xz*r.Zw + l.Xw*r.Ww,
		l.Yx*r.Xx + l.Yy*r.Yx + l.Yz*r.Zx + l.Yw*r.Wx,
		l.Yx*r.Xy + l.Yy*r.Yy + l.Yz*r.Zy + l.Yw*r.Wy,
		l.Yx*r.Xz + l.Yy*r.Yz + l.Yz*r.Zz + l.Yw*r.Wz,
		l.Yx*r.Xw + l.Yy*r.Yw + l.Yz*r.Zw + l.Yw*r.Ww,
		l.Zx*r.Xx + l.Zy*r.Yx + l.Zz*r.Zx + l.Zw*r.Wx,
		l.Zx*r.Xy + l.Zy*r.Yy + l.Zz*r.Zy + l.Zw*r.Wy,
		l.Zx*r.Xz + l.Zy*r.Yz + l.Zz*r.Zz + l.Zw*r.Wz,
		l.Zx*r.Xw + l.Zy*r.Yw + l.Zz*r.Zw + l.Zw*r.Ww,
		l.Wx*r.Xx + l.Wy*r.Yx + l.Wz*r.Zx + l.Ww*r.Wx,
		l.Wx*r.Xy + l.Wy*r.Yy + l.Wz*r.Zy + l.Ww*r.Wy,
		l.Wx*r.Xz + l.Wy*r.Yz + l.Wz*r.Zz + l.Ww*r.Wz,
		l.Wx*r.Xw + l.Wy*r.Yw + l.Wz*r.Zw + l.Ww*r.Ww}
	*m = p
	return m
}

// SetQ converts the rotation described by unit-quaternion q to the
// equivalent rotation matrix. The parameter q is unchanged.
// The updated matrix m is returned.
func (m *M3) SetQ(q *Q) *M3 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z
	m.Xx, m.Xy, m.Xz = 1-2*(yy+zz), 2*(xy-wz), 2*(xz+wy)
	m.Yx, m.Yy, m.Yz = 2*(xy+wz), 1-2*(xx+zz), 2*(yz-wx)
	m.Zx, m.Zy, m.Zz = 2*(xz-wy), 2*(yz+wx), 1-2*(xx+yy)
	return m
}

// SetQ converts the rotation described by unit-quaternion q to the
// equivalent rotation matrix with a zero translation row.
// The updated matrix m is returned.
func (m *M4) SetQ(q *Q) *M4 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z
	m.Xx, m.Xy, m.Xz, m.Xw = 1-2*(yy+zz), 2*(xy-wz), 2*(xz+wy), 0
	m.Yx, m.Yy, m.Yz, m.Yw = 2*(xy+wz), 1-2*(xx+zz), 2*(yz-wx), 0
	m.Zx, m.Zy, m.Zz, m.Zw = 2*(xz-wy), 2*(yz+wx), 1-2*(xx+yy), 0
	m.Wx, m.Wy, m.Wz, m.Ww = 0, 0, 0, 1
	return m
}

// Det returns the determinant of matrix m. The transform described by
// the matrix has an inverse exactly when the determinant is nonzero.
func (m *M3) Det() float64 {
	return m.Xx*(m.Yy*m.Zz-m.Yz*m.Zy) +
		m.Xy*(m.Yz*m.Zx-m.Yx*m.Zz) +
		m.Xz*(m.Yx*m.Zy-m.Yy*m.Zx)
}

// Cof returns one of the possible cofactors of a 3x3 matrix given the
// input minor: the row and column removed from the calculation.
func (m *M3) Cof(row, col int) float64 {
	minor := row*10 + col
	switch minor {
	case 00:
		return m.Yy*m.Zz - m.Yz*m.Zy
	case 01:
		return m.Yz*m.Zx - m.Yx*m.Zz // flip to negate.
	case 02:
		return m.Yx*m.Zy - m.Yy*m.Zx
	case 10:
		return m.Xz*m.Zy - m.Xy*m.Zz // flip to negate.
	case 11:
		return m.Xx*m.Zz - m.Xz*m.Zx
	case 12:
		return m.Xy*m.Zx - m.Xx*m.Zy // flip to negate.
	case 20:
		return m.Xy*m.Yz - m.Xz*m.Yy
	case 21:
		return m.Xz*m.Yx - m.Xx*m.Yz // flip to negate.
	case 22:
		return m.Xx*m.Yy - m.Xy*m.Yx
	}
	slog.Error("M3.Cof developer error", "minor", minor)
	return 0
}

// Inv updates m to be the inverse of matrix a, returning false and
// leaving m unchanged when matrix a is singular (zero determinant).
// Matrix m may be used as the input parameter.
func (m *M3) Inv(a *M3) bool {
	det := a.Det()
	if det == 0 {
		return false
	}
	s := 1 / det
	xx, xy, xz := a.Cof(0, 0)*s, a.Cof(1, 0)*s, a.Cof(2, 0)*s
	yx, yy, yz := a.Cof(0, 1)*s, a.Cof(1, 1)*s, a.Cof(2, 1)*s
	zx, zy, zz := a.Cof(0, 2)*s, a.Cof(1, 2)*s, a.Cof(2, 2)*s
	m.Xx, m.Xy, m.Xz = xx, xy, xz
	m.Yx, m.Yy, m.Yz = yx, yy, yz
	m.Zx, m.Zy, m.Zz = zx, zy, zz
	return true
}

// Det returns the determinant of matrix m using cofactor expansion
// along the first row.
func (m *M4) Det() float64 {
	s0 := m.Zz*m.Ww - m.Zw*m.Wz
	s1 := m.Zy*m.Ww - m.Zw*m.Wy
	s2 := m.Zy*m.Wz - m.Zz*m.Wy
	s3 := m.Zx*m.Ww - m.Zw*m.Wx
	s4 := m.Zx*m.Wz - m.Zz*m.Wx
	s5 := m.Zx*m.Wy - m.Zy*m.Wx
	c0 := m.Yy*s0 - m.Yz*s1 + m.Yw*s2
	c1 := m.Yx*s0 - m.Yz*s3 + m.Yw*s4
	c2 := m.Yx*s1 - m.Yy*s3 + m.Yw*s5
	c3 := m.Yx*s2 - m.Yy*s4 + m.Yz*s5
	return m.Xx*c0 - m.Xy*c1 + m.Xz*c2 - m.Xw*c3
}

// Inv updates m to be the inverse of matrix a, returning false and
// leaving m unchanged when matrix a is singular (zero determinant).
// Matrix m may be used as the input parameter.
func (m *M4) Inv(a *M4) bool {
	// 2x2 sub-determinants of the top two and bottom two rows.
	a0 := a.Xx*a.Yy - a.Xy*a.Yx
	a1 := a.Xx*a.Yz - a.Xz*a.Yx
	a2 := a.Xx*a.Yw - a.Xw*a.Yx
	a3 := a.Xy*a.Yz - a.Xz*a.Yy
	a4 := a.Xy*a.Yw - a.Xw*a.Yy
	a5 := a.Xz*a.Yw - a.Xw*a.Yz
	b0 := a.Zx*a.Wy - a.Zy*a.Wx
	b1 := a.Zx*a.Wz - a.Zz*a.Wx
	b2 := a.Zx*a.Ww - a.Zw*a.Wx
	b3 := a.Zy*a.Wz - a.Zz*a.Wy
	b4 := a.Zy*a.Ww - a.Zw*a.Wy
	b5 := a.Zz*a.Ww - a.Zw*a.Wz

	det := a0*b5 - a1*b4 + a2*b3 + a3*b2 - a4*b1 + a5*b0
	if det == 0 {
		return false
	}
	s := 1 / det
	inv := M4{
		(+a.Yy*b5 - a.Yz*b4 + a.Yw*b3) * s,
		(-a.Xy*b5 + a.Xz*b4 - a.Xw*b3) * s,
		(+a.Wy*a5 - a.Wz*a4 + a.Ww*a3) * s,
		(-a.Zy*a5 + a.Zz*a4 - a.Zw*a3) * s,
		(-a.Yx*b5 + a.Yz*b2 - a.Yw*b1) * s,
		(+a.Xx*b5 - a.Xz*b2 + a.Xw*b1) * s,
		(-a.Wx*a5 + a.Wz*a2 - a.Ww*a1) * s,
		(+a.Zx*a5 - a.Zz*a2 + a.Zw*a1) * s,
		(+a.Yx*b4 - a.Yy*b2 + a.Yw*b0) * s,
		(-a.Xx*b4 + a.Xy*b2 - a.Xw*b0) * s,
		(+a.Wx*a4 - a.Wy*a2 + a.Ww*a0) * s,
		(-a.Zx*a4 + a.Zy*a2 - a.Zw*a0) * s,
		(-a.Yx*b3 + a.Yy*b1 - a.Yz*b0) * s,
		(+a.Xx*b3 - a.Xy*b1 + a.Xz*b0) * s,
		(-a.Wx*a3 + a.Wy*a1 - a.Wz*a0) * s,
		(+a.Zx*a3 - a.Zy*a1 + a.Zz*a0) * s}
	*m = inv
	return true
}

// methods above do not allocate.
// ============================================================================
// convenience functions for allocating matrices. Nothing else allocates.

// NewM3 creates a new, all zero, 3x3 matrix.
func NewM3() *M3 { return &M3{} }

// NewM3I creates a new 3x3 identity matrix.
func NewM3I() *M3 { return &M3{Xx: 1, Yy: 1, Zz: 1} }

// NewM4 creates a new, all zero, 4x4 matrix.
func NewM4() *M4 { return &M4{} }

// NewM4I creates a new 4x4 identity matrix.
func NewM4I() *M4 { return &M4{Xx: 1, Yy: 1, Zz: 1, Ww: 1} }

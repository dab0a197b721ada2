// Copyright © 2024 Galvanized Logic Inc.

package lin

import (
	"math"
	"testing"
)

func TestM3Inverse(t *testing.T) {
	m := &M3{
		2, 0, 1,
		0, 3, 0,
		1, 0, 2}
	inv := NewM3()
	if !inv.Inv(m) {
		t.Fatal("Matrix should be invertible")
	}
	identity := NewM3().Mult(m, inv)
	if !identity.Aeq(M3I) {
		t.Errorf("M*M⁻¹ should be identity, got %+v", identity)
	}
}

func TestM3SingularInverse(t *testing.T) {
	m := &M3{
		1, 2, 3,
		2, 4, 6, // row 1 is twice row 0: determinant zero.
		0, 1, 0}
	inv := NewM3I()
	if inv.Inv(m) {
		t.Error("Singular matrix should report no inverse")
	}
	if !inv.Eq(NewM3I()) {
		t.Error("Failed inverse should leave the receiver unchanged")
	}
}

func TestM3RotationOrthonormal(t *testing.T) {
	q := NewQ().SetAa(1, 2, 3, 0.7)
	r := NewM3().SetQ(q)
	rt := NewM3().Transpose(r)
	identity := NewM3().Mult(r, rt)

	// R·Rᵀ should be identity to 1e-12 for a unit quaternion.
	diff := 0.0
	diff = math.Max(diff, math.Abs(identity.Xx-1))
	diff = math.Max(diff, math.Abs(identity.Yy-1))
	diff = math.Max(diff, math.Abs(identity.Zz-1))
	diff = math.Max(diff, math.Abs(identity.Xy))
	diff = math.Max(diff, math.Abs(identity.Xz))
	diff = math.Max(diff, math.Abs(identity.Yx))
	diff = math.Max(diff, math.Abs(identity.Yz))
	diff = math.Max(diff, math.Abs(identity.Zx))
	diff = math.Max(diff, math.Abs(identity.Zy))
	if diff > 1e-12 {
		t.Errorf("R·Rᵀ drift %g exceeds 1e-12", diff)
	}
}

func TestM3Determinant(t *testing.T) {
	m := NewM3().SetQ(NewQ().SetAa(0, 1, 0, 1.2))
	if !Aeq(m.Det(), 1) {
		t.Errorf("Rotation matrix determinant should be 1, got %f", m.Det())
	}
}

func TestM4Inverse(t *testing.T) {
	m := &M4{
		1, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 4, 0,
		3, 5, 7, 1}
	inv := NewM4()
	if !inv.Inv(m) {
		t.Fatal("Matrix should be invertible")
	}
	identity := NewM4().Mult(m, inv)
	expect := NewM4I()
	if math.Abs(identity.Xx-expect.Xx) > Epsilon ||
		math.Abs(identity.Yy-expect.Yy) > Epsilon ||
		math.Abs(identity.Zz-expect.Zz) > Epsilon ||
		math.Abs(identity.Ww-expect.Ww) > Epsilon ||
		math.Abs(identity.Wx) > Epsilon ||
		math.Abs(identity.Wy) > Epsilon ||
		math.Abs(identity.Wz) > Epsilon {
		t.Errorf("M*M⁻¹ should be identity, got %+v", identity)
	}
}

func TestM4SingularInverse(t *testing.T) {
	m := &M4{} // all zero: determinant zero.
	inv := NewM4I()
	if inv.Inv(m) {
		t.Error("Singular matrix should report no inverse")
	}
	if *inv != *NewM4I() {
		t.Error("Failed inverse should leave the receiver unchanged")
	}
}

func TestM4Transpose(t *testing.T) {
	m := &M4{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16}
	tr := NewM4().Transpose(m)
	back := NewM4().Transpose(tr)
	if *back != *m {
		t.Error("Transpose twice should round trip")
	}
	if tr.Xy != 5 || tr.Yx != 2 || tr.Wx != 4 || tr.Xw != 13 {
		t.Errorf("Transpose wrong %+v", tr)
	}
}

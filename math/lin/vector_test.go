// Copyright © 2024 Galvanized Logic Inc.

package lin

import "testing"

func TestV3Basics(t *testing.T) {
	v := NewV3S(1, 2, 3)
	if v.Dot(NewV3S(4, 5, 6)) != 32 {
		t.Errorf("Dot product should be 32, got %f", v.Dot(NewV3S(4, 5, 6)))
	}
	sum := NewV3().Add(NewV3S(1, 1, 1), NewV3S(2, 2, 2))
	if !sum.Eq(NewV3S(3, 3, 3)) {
		t.Errorf("Add wrong %+v", sum)
	}
	diff := NewV3().Sub(NewV3S(3, 3, 3), NewV3S(1, 2, 3))
	if !diff.Eq(NewV3S(2, 1, 0)) {
		t.Errorf("Sub wrong %+v", diff)
	}
}

func TestV3Cross(t *testing.T) {
	c := NewV3().Cross(NewV3S(1, 0, 0), NewV3S(0, 1, 0))
	if !c.Eq(NewV3S(0, 0, 1)) {
		t.Errorf("x cross y should be z, got %+v", c)
	}

	// The cross product is perpendicular to both inputs.
	a, b := NewV3S(1, 2, 3), NewV3S(-2, 1, 4)
	c.Cross(a, b)
	if !AeqZ(c.Dot(a)) || !AeqZ(c.Dot(b)) {
		t.Errorf("Cross product should be perpendicular %f %f", c.Dot(a), c.Dot(b))
	}
}

func TestV3Unit(t *testing.T) {
	v := NewV3S(3, 4, 0).Unit()
	if !Aeq(v.Len(), 1) || !v.Aeq(NewV3S(0.6, 0.8, 0)) {
		t.Errorf("Unit wrong %+v", v)
	}
	z := NewV3()
	if z.Unit(); !z.Eq(NewV3()) {
		t.Errorf("Unit of zero vector should stay zero %+v", z)
	}
}

// Rotating a vector by a quaternion matches rotating by the
// equivalent matrix.
func TestV3MultQMatchesMatrix(t *testing.T) {
	q := NewQ().SetAa(1, -1, 2, 0.9)
	v := NewV3S(0.3, -0.7, 1.2)
	byQuat := NewV3().MultQ(v, q)
	byMatrix := NewV3().MultMv(NewM3().SetQ(q), v)
	if !byQuat.Aeq(byMatrix) {
		t.Errorf("Quaternion and matrix rotation disagree %+v %+v", byQuat, byMatrix)
	}
}

func TestV3MultMv(t *testing.T) {
	m := &M3{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9}
	v := NewV3().MultMv(m, NewV3S(1, 0, 0))
	if !v.Eq(NewV3S(1, 4, 7)) {
		t.Errorf("Matrix column multiply wrong %+v", v)
	}
}

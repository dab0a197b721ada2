// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"
	"testing"

	"github.com/gazed/xpbd/math/lin"
)

// boxAt creates a box hull with the given half-extents and its world
// cache at position p.
func boxAt(hx, hy, hz float64, p lin.V3) *ConvexHull {
	b := NewBox(hx, hy, hz)
	b.update(p, lin.NewQI())
	return b
}

func TestGJKSeparated(t *testing.T) {
	b1 := boxAt(1, 1, 1, lin.V3{})
	b2 := boxAt(1, 1, 1, lin.V3{X: 3})
	if gjkIntersects(b1, b2, nil) {
		t.Error("Boxes 3 apart should not intersect")
	}
	b3 := boxAt(1, 1, 1, lin.V3{X: 1, Y: 3, Z: -2})
	if gjkIntersects(b1, b3, nil) {
		t.Error("Diagonally offset boxes should not intersect")
	}
}

func TestGJKOverlap(t *testing.T) {
	b1 := boxAt(1, 1, 1, lin.V3{})
	b2 := boxAt(1, 1, 1, lin.V3{X: 1.5})
	var s simplex
	if !gjkIntersects(b1, b2, &s) {
		t.Fatal("Boxes overlapping by 0.5 should intersect")
	}
	if s.num != 4 {
		t.Errorf("Intersection should output a tetrahedron, got %d points", s.num)
	}
}

func TestGJKSphereHull(t *testing.T) {
	box := boxAt(1, 1, 1, lin.V3{})
	s := NewSphere(1)
	s.update(lin.V3{Y: 1.5}, lin.NewQI())
	if !gjkIntersects(box, s, nil) {
		t.Error("Sphere dipping into box top should intersect")
	}
	s.update(lin.V3{Y: 2.5}, lin.NewQI())
	if gjkIntersects(box, s, nil) {
		t.Error("Sphere above box should not intersect")
	}
}

func TestGJKDeterministic(t *testing.T) {
	b1 := boxAt(1, 1, 1, lin.V3{})
	b2 := boxAt(1, 1, 1, lin.V3{X: 0.9, Y: 0.7})
	var s1, s2 simplex
	gjkIntersects(b1, b2, &s1)
	gjkIntersects(b1, b2, &s2)
	if s1 != s2 {
		t.Error("Identical inputs should produce identical simplexes")
	}
}

func TestEPADepthAndNormal(t *testing.T) {
	// Unit cubes overlapping by 0.2 along x: the shallowest exit is
	// along ±x with depth 0.2.
	b1 := boxAt(0.5, 0.5, 0.5, lin.V3{})
	b2 := boxAt(0.5, 0.5, 0.5, lin.V3{X: 0.8})
	var s simplex
	if !gjkIntersects(b1, b2, &s) {
		t.Fatal("Boxes should intersect")
	}
	normal, depth, ok := epa(b1, b2, &s, newEpaScratch())
	if !ok {
		t.Fatal("EPA should converge for a simple overlap")
	}
	if math.Abs(depth-0.2) > 1e-3 {
		t.Errorf("Penetration depth should be 0.2, got %f", depth)
	}
	if math.Abs(math.Abs(normal.X)-1) > 1e-3 ||
		math.Abs(normal.Y) > 1e-3 || math.Abs(normal.Z) > 1e-3 {
		t.Errorf("Collision normal should be ±x, got %+v", normal)
	}
}

func TestEPASphereHullDepth(t *testing.T) {
	box := boxAt(1, 1, 1, lin.V3{})
	s := NewSphere(0.5)
	s.update(lin.V3{Y: 1.3}, lin.NewQI())
	var sx simplex
	if !gjkIntersects(box, s, &sx) {
		t.Fatal("Sphere should intersect box top")
	}
	normal, depth, ok := epa(box, s, &sx, newEpaScratch())
	if !ok {
		t.Fatal("EPA should converge")
	}
	if math.Abs(depth-0.2) > 1e-2 {
		t.Errorf("Depth should be about 0.2, got %f", depth)
	}
	if math.Abs(math.Abs(normal.Y)-1) > 1e-2 {
		t.Errorf("Normal should be along ±y, got %+v", normal)
	}
}

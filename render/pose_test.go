// Copyright © 2024 Galvanized Logic Inc.

package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gazed/xpbd/math/lin"
	"github.com/gazed/xpbd/physics"
)

func TestPoseOf(t *testing.T) {
	w := physics.NewWorld()
	id, err := w.AddBody(lin.V3{X: 1, Y: 2, Z: 3},
		*lin.NewQ().SetAa(0, 1, 0, lin.HalfPi), 1.0,
		[]physics.Collider{physics.NewSphere(1)}, physics.Material{})
	if err != nil {
		t.Fatalf("AddBody: %v", err)
	}

	p := PoseOf(w.Get(id))
	if p.Position != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("Position conversion wrong %+v", p.Position)
	}
	if math.Abs(float64(p.Rotation.W)-math.Cos(lin.HalfPi/2)) > 1e-6 {
		t.Errorf("Rotation conversion wrong %+v", p.Rotation)
	}
}

func TestPoseModel(t *testing.T) {
	p := Pose{
		Position: mgl32.Vec3{5, 0, 0},
		Rotation: mgl32.QuatIdent(),
	}
	m := p.Model(mgl32.Vec3{2, 2, 2})

	// A unit x point scales to 2 then translates to 7.
	v := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if math.Abs(float64(v.X())-7) > 1e-5 || math.Abs(float64(v.Y())) > 1e-5 {
		t.Errorf("Model transform wrong %+v", v)
	}
}

func TestPosesGathersAll(t *testing.T) {
	w := physics.NewWorld()
	for i := 0; i < 3; i++ {
		if _, err := w.AddBody(lin.V3{X: float64(i) * 4}, *lin.NewQI(), 1.0,
			[]physics.Collider{physics.NewSphere(1)}, physics.Material{}); err != nil {
			t.Fatalf("AddBody: %v", err)
		}
	}
	poses := Poses(w, nil)
	if len(poses) != 3 {
		t.Fatalf("Expected 3 poses, got %d", len(poses))
	}
	if poses[2].Position.X() != 8 {
		t.Errorf("Pose order should follow world order, got %+v", poses[2].Position)
	}
}

// Copyright © 2024 Galvanized Logic Inc.

// Package render is the float32 boundary between the double precision
// physics simulation and a renderer. The solver runs entirely in
// float64; graphics APIs want float32. This package is the single
// place where that conversion happens.
//
// Package render is provided as part of the xpbd physics engine.
package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gazed/xpbd/physics"
)

// Pose is a render-ready body transform: float32 position and
// rotation in the types a GPU pipeline consumes.
type Pose struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// PoseOf converts the body's simulated pose for rendering.
func PoseOf(b *physics.Body) Pose {
	p := b.Position()
	q := b.Rotation()
	return Pose{
		Position: mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)},
		Rotation: mgl32.Quat{
			W: float32(q.W),
			V: mgl32.Vec3{float32(q.X), float32(q.Y), float32(q.Z)},
		},
	}
}

// Model assembles the model matrix for the pose with the given
// per-axis scale: translate * rotate * scale.
func (p Pose) Model(scale mgl32.Vec3) mgl32.Mat4 {
	translate := mgl32.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z())
	rotate := p.Rotation.Mat4()
	scaled := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return translate.Mul4(rotate).Mul4(scaled)
}

// Poses gathers the render poses of every body in the world, reusing
// dst when it has capacity. Bodies appear in world table order with
// stable identities, so a renderer can associate poses with its own
// per-body data.
func Poses(w *physics.World, dst []Pose) []Pose {
	dst = dst[:0]
	w.Each(func(b *physics.Body) {
		dst = append(dst, PoseOf(b))
	})
	return dst
}

// Copyright © 2024 Galvanized Logic Inc.

package physics

// constraint.go holds the XPBD constraint kit: the public constraint
// specifications, the positional/angular building blocks from §3-§4
// of the XPBD paper, and the collision constraint with its static
// friction and velocity-level passes.

import (
	"log/slog"
	"math"

	"github.com/gazed/xpbd/math/lin"
)

// ConstraintSpec describes a user constraint to be added to a World.
// The variants are Positional, Angular, HingeJoint and SphericalJoint.
type ConstraintSpec interface {
	pair() (BodyID, BodyID)
	build() constraint
}

// Positional keeps the offset between two body positions at Offset,
// eg. a rigid link with zero compliance or a spring with some.
// R1 and R2 are the attachment lever arms in each body's local frame.
type Positional struct {
	Body1, Body2 BodyID
	R1, R2       lin.V3
	Offset       lin.V3  // desired position1 - position2, default zero.
	Compliance   float64 // inverse stiffness: 0 is rigid.
}

func (p Positional) pair() (BodyID, BodyID) { return p.Body1, p.Body2 }
func (p Positional) build() constraint      { return &positionalC{spec: p} }

// Angular drives two bodies toward the same orientation,
// eg. a fixed weld of rotations with zero compliance.
type Angular struct {
	Body1, Body2 BodyID
	Compliance   float64
}

func (a Angular) pair() (BodyID, BodyID) { return a.Body1, a.Body2 }
func (a Angular) build() constraint      { return &angularC{spec: a} }

// constraint is a live user constraint inside the solver. The
// persistent λ accumulators are cleared at the start of each substep.
type constraint interface {
	pair() (BodyID, BodyID)
	resetLambda()
	solve(w *World, h float64)
	setCompliance(c float64)
}

// constraint building blocks
// =============================================================================

// posData is the preprocessed state shared by positional-style
// corrections: world-space lever arms and rotated inverse inertia.
type posData struct {
	b1, b2       *Body
	r1w, r2w     lin.V3
	invI1, invI2 lin.M3
}

// makePosData rotates the local lever arms into world space and
// fetches the dynamic inverse inertia tensors.
func makePosData(b1, b2 *Body, r1, r2 lin.V3) (d posData) {
	d.b1, d.b2 = b1, b2
	d.r1w.MultQ(&r1, &b1.rot)
	d.r2w.MultQ(&r2, &b2.rot)
	d.invI1 = b1.dynamicInvInertia()
	d.invI2 = b2.dynamicInvInertia()
	return d
}

// generalizedMass returns the two inverse masses seen along the
// correction direction n: wᵢ = Mᵢ⁻¹ + (rᵢ x n)ᵀ Iᵢ⁻¹ (rᵢ x n).
func (d *posData) generalizedMass(n *lin.V3) (w1, w2 float64) {
	c1 := lin.NewV3().Cross(&d.r1w, n)
	c2 := lin.NewV3().Cross(&d.r2w, n)
	w1 = d.b1.imass + c1.Dot(lin.NewV3().MultMv(&d.invI1, c1))
	w2 = d.b2.imass + c2.Dot(lin.NewV3().MultMv(&d.invI2, c2))
	return w1, w2
}

// deltaLambda computes the XPBD Lagrange multiplier increment
// Δλ = (-c - α̃λ) / (w1 + w2 + α̃) with α̃ = α/h² for the positional
// correction deltaX. Vanishing corrections return zero.
func (d *posData) deltaLambda(h, compliance, lambda float64, deltaX lin.V3) float64 {
	c := deltaX.Len()
	if c <= slipEpsilon {
		return 0.0
	}
	n := lin.NewV3().Scale(&deltaX, 1/c)
	w1, w2 := d.generalizedMass(n)
	if w1+w2 == 0 {
		slog.Error("positional constraint between two infinite masses")
		return 0.0
	}
	tilCompliance := compliance / (h * h)
	return (-c - tilCompliance*lambda) / (w1 + w2 + tilCompliance)
}

// apply moves and rotates the two bodies by the positional impulse
// Δλ·n, following eq (6)-(9) of the XPBD paper. Fixed bodies are
// left untouched. Rotations use the linearized quaternion update and
// are renormalized.
func (d *posData) apply(deltaLambda float64, deltaX lin.V3) {
	c := deltaX.Len()
	if c <= slipEpsilon {
		return
	}
	n := lin.NewV3().Scale(&deltaX, 1/c)
	impulse := lin.NewV3().Scale(n, deltaLambda)

	b1, b2 := d.b1, d.b2
	if !b1.fixed {
		b1.pos.Add(&b1.pos, lin.NewV3().Scale(impulse, b1.imass))
	}
	if !b2.fixed {
		b2.pos.Add(&b2.pos, lin.NewV3().Scale(impulse, -b2.imass))
	}

	rot1 := lin.NewV3().MultMv(&d.invI1, lin.NewV3().Cross(&d.r1w, impulse))
	rot2 := lin.NewV3().MultMv(&d.invI2, lin.NewV3().Cross(&d.r2w, impulse))
	applyRotation(b1, rot1, 0.5)
	applyRotation(b2, rot2, -0.5)
}

// angData is the preprocessed state shared by angular corrections.
type angData struct {
	b1, b2       *Body
	invI1, invI2 lin.M3
}

func makeAngData(b1, b2 *Body) (d angData) {
	d.b1, d.b2 = b1, b2
	d.invI1 = b1.dynamicInvInertia()
	d.invI2 = b2.dynamicInvInertia()
	return d
}

// deltaLambda computes the XPBD multiplier increment for the angular
// correction deltaQ, with wᵢ = nᵀ Iᵢ⁻¹ n.
func (d *angData) deltaLambda(h, compliance, lambda float64, deltaQ lin.V3) float64 {
	theta := deltaQ.Len()
	if theta <= slipEpsilon {
		return 0.0
	}
	n := lin.NewV3().Scale(&deltaQ, 1/theta)
	w1 := n.Dot(lin.NewV3().MultMv(&d.invI1, n))
	w2 := n.Dot(lin.NewV3().MultMv(&d.invI2, n))
	tilCompliance := compliance / (h * h)
	return (-theta - tilCompliance*lambda) / (w1 + w2 + tilCompliance)
}

// apply rotates the two bodies by the angular impulse.
func (d *angData) apply(deltaLambda float64, deltaQ lin.V3) {
	theta := deltaQ.Len()
	if theta <= slipEpsilon {
		return
	}
	n := lin.NewV3().Scale(&deltaQ, 1/theta)
	impulse := lin.NewV3().Scale(n, -deltaLambda)

	rot1 := lin.NewV3().MultMv(&d.invI1, impulse)
	rot2 := lin.NewV3().MultMv(&d.invI2, impulse)
	applyRotation(d.b1, rot1, 0.5)
	applyRotation(d.b2, rot2, -0.5)
}

// applyRotation nudges a body rotation by the linearized quaternion
// update q += s·(rot ⊗ q) and renormalizes. No-op for fixed bodies.
func applyRotation(b *Body, rot *lin.V3, s float64) {
	if b.fixed {
		return
	}
	aux := lin.NewQ().SetS(rot.X, rot.Y, rot.Z, 0.0)
	q := lin.NewQ().Mult(&b.rot, aux) // rot applied to body rotation.
	b.rot.X += s * q.X
	b.rot.Y += s * q.Y
	b.rot.Z += s * q.Z
	b.rot.W += s * q.W
	b.rot.Unit()
}

// anchorPoints returns the current world positions of the two
// constraint anchors.
func (d *posData) anchorPoints() (p1, p2 lin.V3) {
	p1.Add(&d.b1.pos, &d.r1w)
	p2.Add(&d.b2.pos, &d.r2w)
	return p1, p2
}

// positional constraint
// =============================================================================

type positionalC struct {
	spec   Positional
	lambda float64
}

func (c *positionalC) pair() (BodyID, BodyID) { return c.spec.pair() }
func (c *positionalC) resetLambda()           { c.lambda = 0 }
func (c *positionalC) setCompliance(v float64) { c.spec.Compliance = v }

func (c *positionalC) solve(w *World, h float64) {
	b1, b2 := w.body(c.spec.Body1), w.body(c.spec.Body2)
	if b1 == nil || b2 == nil {
		return
	}
	separation := lin.NewV3().Sub(&b1.pos, &b2.pos)
	deltaX := lin.NewV3().Sub(separation, &c.spec.Offset)

	d := makePosData(b1, b2, c.spec.R1, c.spec.R2)
	deltaLambda := d.deltaLambda(h, c.spec.Compliance, c.lambda, *deltaX)
	d.apply(deltaLambda, *deltaX)
	c.lambda += deltaLambda
}

// angular (mutual orientation) constraint
// =============================================================================

type angularC struct {
	spec   Angular
	lambda float64
}

func (c *angularC) pair() (BodyID, BodyID)  { return c.spec.pair() }
func (c *angularC) resetLambda()            { c.lambda = 0 }
func (c *angularC) setCompliance(v float64) { c.spec.Compliance = v }

func (c *angularC) solve(w *World, h float64) {
	b1, b2 := w.body(c.spec.Body1), w.body(c.spec.Body2)
	if b1 == nil || b2 == nil {
		return
	}
	d := makeAngData(b1, b2)

	// The corrective rotation is twice the vector part of the
	// relative orientation q2⁻¹ applied to q1.
	q2inv := lin.NewQ().Inv(&b2.rot)
	aux := lin.NewQ().Mult(q2inv, &b1.rot)
	deltaQ := lin.NewV3().SetS(2.0*aux.X, 2.0*aux.Y, 2.0*aux.Z)

	deltaLambda := d.deltaLambda(h, c.spec.Compliance, c.lambda, *deltaQ)
	d.apply(deltaLambda, *deltaQ)
	c.lambda += deltaLambda
}

// collision constraint
// =============================================================================

// collisionC is an ephemeral contact constraint regenerated each
// substep from the narrow phase. Lever arms are stored in body-local
// coordinates so the arms follow the bodies as the solver moves them
// within the substep.
type collisionC struct {
	b1, b2           *Body
	r1, r2           lin.V3 // contact lever arms, local frames.
	normal           lin.V3 // from body1 toward body2, world frame.
	lambdaN, lambdaT float64
}

// newCollisionC converts one narrow-phase contact into a constraint.
// World-space arms are rotated into the local frames by the conjugate
// body rotations.
func newCollisionC(b1, b2 *Body, c *contact) collisionC {
	cc := collisionC{b1: b1, b2: b2, normal: c.normal}

	r1w := lin.NewV3().Sub(&c.point1, &b1.pos)
	r2w := lin.NewV3().Sub(&c.point2, &b2.pos)
	q1inv := lin.NewQ().Inv(&b1.rot)
	q2inv := lin.NewQ().Inv(&b2.rot)
	cc.r1.MultQ(r1w, q1inv)
	cc.r2.MultQ(r2w, q2inv)
	return cc
}

// solve applies the non-penetration correction and, when the static
// friction cone allows, a tangential correction that cancels the
// frame-to-frame slip at the contact.
func (c *collisionC) solve(h float64) {
	b1, b2 := c.b1, c.b2
	d := makePosData(b1, b2, c.r1, c.r2)

	// Signed gap along the normal, per sec 3.5 of the XPBD paper.
	p1, p2 := d.anchorPoints()
	gap := lin.NewV3().Sub(&p1, &p2).Dot(&c.normal)
	if gap <= 0.0 {
		return // not penetrating.
	}

	deltaX := lin.NewV3().Scale(&c.normal, gap)
	deltaLambda := d.deltaLambda(h, 0.0, c.lambdaN, *deltaX)
	d.apply(deltaLambda, *deltaX)
	c.lambdaN += deltaLambda

	// Recompute the arms after the normal correction moved the pair.
	d = makePosData(b1, b2, c.r1, c.r2)
	p1, p2 = d.anchorPoints()
	deltaLambda = d.deltaLambda(h, 0.0, c.lambdaT, *deltaX)

	// Static friction holds while λt stays inside the friction cone.
	// Both accumulators are negative, flipping the inequality of
	// sec 3.5.
	staticFriction := (b1.mat.StaticFriction + b2.mat.StaticFriction) / 2.0
	if c.lambdaT+deltaLambda > staticFriction*c.lambdaN {
		// Tangential slip between this substep's start poses and the
		// current poses, projected onto the contact plane.
		p1til := lin.NewV3().Add(&b1.prevPos, lin.NewV3().MultQ(&c.r1, &b1.prevRot))
		p2til := lin.NewV3().Add(&b2.prevPos, lin.NewV3().MultQ(&c.r2, &b2.prevRot))
		deltaP := lin.NewV3().Sub(
			lin.NewV3().Sub(&p1, p1til),
			lin.NewV3().Sub(&p2, p2til))
		slip := lin.NewV3().Sub(deltaP,
			lin.NewV3().Scale(&c.normal, deltaP.Dot(&c.normal)))

		d.apply(deltaLambda, *slip)
		c.lambdaT += deltaLambda
	}
}

// velocitySolve runs the velocity-level pass for this contact:
// Coulomb dynamic friction against the tangential velocity and
// restitution along the normal, applied as one impulse.
func (c *collisionC) velocitySolve(h float64) {
	b1, b2 := c.b1, c.b2
	n := c.normal
	d := makePosData(b1, b2, c.r1, c.r2)

	// Relative velocity at the contact point, split into normal and
	// tangential parts.
	v := relativeVelocity(&b1.linv, &b1.angv, &d.r1w, &b2.linv, &b2.angv, &d.r2w)
	vn := n.Dot(&v)
	vt := lin.NewV3().Sub(&v, lin.NewV3().Scale(&n, vn))

	deltaV := lin.NewV3()

	// Coulomb dynamic friction, capped so friction can stop the
	// tangential motion but never reverse it.
	dynamicFriction := (b1.mat.DynamicFriction + b2.mat.DynamicFriction) / 2.0
	fn := c.lambdaN / h
	fact := math.Min(dynamicFriction*math.Abs(fn), vt.Len())
	deltaV.Add(deltaV, lin.NewV3().Scale(lin.NewV3().Set(vt).Unit(), -fact))

	// Restitution uses the pre-integration velocities at the contact.
	vtil := relativeVelocity(&b1.prevLinv, &b1.prevAngv, &d.r1w, &b2.prevLinv, &b2.prevAngv, &d.r2w)
	vntil := n.Dot(&vtil)
	e := b1.mat.Restitution * b2.mat.Restitution
	fact = -vn + math.Min(-e*vntil, 0.0)
	deltaV.Add(deltaV, lin.NewV3().Scale(&n, fact))

	// Apply deltaV as an impulse with the same generalized masses as
	// the positional solver.
	w1, w2 := d.generalizedMass(&n)
	p := lin.NewV3().Scale(deltaV, 1.0/(w1+w2))

	if !b1.fixed {
		b1.linv.Add(&b1.linv, lin.NewV3().Scale(p, b1.imass))
		b1.angv.Add(&b1.angv,
			lin.NewV3().MultMv(&d.invI1, lin.NewV3().Cross(&d.r1w, p)))
	}
	if !b2.fixed {
		b2.linv.Add(&b2.linv, lin.NewV3().Neg(lin.NewV3().Scale(p, b2.imass)))
		b2.angv.Add(&b2.angv,
			lin.NewV3().MultMv(&d.invI2, lin.NewV3().Neg(lin.NewV3().Cross(&d.r2w, p))))
	}
}

// relativeVelocity returns (v1 + ω1 x r1) - (v2 + ω2 x r2).
func relativeVelocity(v1, w1, r1, v2, w2, r2 *lin.V3) lin.V3 {
	at1 := lin.NewV3().Add(v1, lin.NewV3().Cross(w1, r1))
	at2 := lin.NewV3().Add(v2, lin.NewV3().Cross(w2, r2))
	return *at1.Sub(at1, at2)
}

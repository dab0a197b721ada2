// Copyright © 2024 Galvanized Logic Inc.

package physics

// joint.go builds hinge and spherical joints out of the positional
// and angular constraint blocks: a shared anchor point, axis
// alignment, and optional angular limit windows.

import (
	"log/slog"
	"math"

	"github.com/gazed/xpbd/math/lin"
)

// Axis names one of the six signed local-frame axes used to declare
// joint alignment and limit axes.
type Axis uint8

// The signed body-local axes.
const (
	PositiveX Axis = iota
	NegativeX
	PositiveY
	NegativeY
	PositiveZ
	NegativeZ
)

// axisWorld returns the given body-local axis rotated into world
// space by rotation q.
func axisWorld(q *lin.Q, a Axis) (v lin.V3) {
	switch a {
	case PositiveX:
		v.SetS(1, 0, 0)
	case NegativeX:
		v.SetS(-1, 0, 0)
	case PositiveY:
		v.SetS(0, 1, 0)
	case NegativeY:
		v.SetS(0, -1, 0)
	case PositiveZ:
		v.SetS(0, 0, 1)
	case NegativeZ:
		v.SetS(0, 0, -1)
	default:
		slog.Error("axisWorld: impossible axis", "axis", a)
	}
	v.MultQ(&v, q)
	return v
}

// limitAngle measures the signed angle from n1 to n2 about the
// rotation axis n and, when the angle falls outside [lower,upper],
// returns the corrective rotation vector that drives it back to the
// nearest window edge. ok is false while the angle is inside the
// window. Limits are radians; the measured angle wraps in [-π, π].
func limitAngle(n, n1, n2 lin.V3, lower, upper float64) (deltaQ lin.V3, ok bool) {
	// Signed angle via atan2 of the sine (cross projected on n) and
	// cosine (direct dot) parts.
	sin := n.Dot(lin.NewV3().Cross(&n1, &n2))
	cos := n1.Dot(&n2)
	phi := math.Atan2(sin, cos)

	if phi < lower || phi > upper {
		// Rotate n1 to the nearest window edge; the leftover
		// rotation onto n2 is the violation to correct.
		phi = lin.Clamp(phi, lower, upper)
		rot := lin.NewQ().SetAa(n.X, n.Y, n.Z, phi)
		n1.MultQ(&n1, rot)
		deltaQ.Cross(&n1, &n2)
		return deltaQ, true
	}
	return deltaQ, false
}

// HingeJoint couples two bodies at a shared anchor and keeps one
// local axis of each aligned, leaving a single rotational degree of
// freedom. With Limited true the swing about the hinge is clamped to
// [LowerLimit, UpperLimit] radians, measured between the two limit
// axes.
type HingeJoint struct {
	Body1, Body2 BodyID
	R1, R2       lin.V3 // anchor lever arms, local frames.
	Compliance   float64
	AlignedAxis1 Axis // hinge axis on body 1.
	AlignedAxis2 Axis // hinge axis on body 2.

	Limited                bool
	LimitAxis1, LimitAxis2 Axis
	LowerLimit, UpperLimit float64 // radians.
}

func (j HingeJoint) pair() (BodyID, BodyID) { return j.Body1, j.Body2 }
func (j HingeJoint) build() constraint      { return &hingeC{spec: j} }

type hingeC struct {
	spec          HingeJoint
	lambdaPos     float64
	lambdaAligned float64
	lambdaLimit   float64
}

func (c *hingeC) pair() (BodyID, BodyID)  { return c.spec.pair() }
func (c *hingeC) setCompliance(v float64) { c.spec.Compliance = v }
func (c *hingeC) resetLambda() {
	c.lambdaPos, c.lambdaAligned, c.lambdaLimit = 0, 0, 0
}

func (c *hingeC) solve(w *World, h float64) {
	b1, b2 := w.body(c.spec.Body1), w.body(c.spec.Body2)
	if b1 == nil || b2 == nil {
		return
	}

	// Keep the two hinge axes aligned.
	ad := makeAngData(b1, b2)
	a1 := axisWorld(&b1.rot, c.spec.AlignedAxis1)
	a2 := axisWorld(&b2.rot, c.spec.AlignedAxis2)
	deltaQ := lin.NewV3().Cross(&a1, &a2)
	deltaLambda := ad.deltaLambda(h, c.spec.Compliance, c.lambdaAligned, *deltaQ)
	ad.apply(deltaLambda, *deltaQ)
	c.lambdaAligned += deltaLambda

	// Keep the anchor points coincident.
	pd := makePosData(b1, b2, c.spec.R1, c.spec.R2)
	p1, p2 := pd.anchorPoints()
	deltaX := lin.NewV3().Sub(&p1, &p2)
	deltaLambda = pd.deltaLambda(h, 0.0, c.lambdaPos, *deltaX)
	pd.apply(deltaLambda, *deltaX)
	c.lambdaPos += deltaLambda

	// Drive the swing back inside the limit window when violated.
	if c.spec.Limited {
		n1 := axisWorld(&b1.rot, c.spec.LimitAxis1)
		n2 := axisWorld(&b2.rot, c.spec.LimitAxis2)
		n := axisWorld(&b1.rot, c.spec.AlignedAxis1)
		if deltaQ, violated := limitAngle(n, n1, n2, c.spec.LowerLimit, c.spec.UpperLimit); violated {
			ad := makeAngData(b1, b2)
			deltaLambda := ad.deltaLambda(h, 0.0, c.lambdaLimit, deltaQ)
			ad.apply(deltaLambda, deltaQ)
			c.lambdaLimit += deltaLambda
		}
	}
}

// SphericalJoint couples two bodies at a shared anchor like a ball
// socket, with independent angular limits for the swing between the
// two swing axes and the twist about them.
type SphericalJoint struct {
	Body1, Body2 BodyID
	R1, R2       lin.V3 // anchor lever arms, local frames.

	SwingAxis1, SwingAxis2 Axis
	SwingLower, SwingUpper float64 // radians.

	TwistAxis1, TwistAxis2 Axis
	TwistLower, TwistUpper float64 // radians.
}

func (j SphericalJoint) pair() (BodyID, BodyID) { return j.Body1, j.Body2 }
func (j SphericalJoint) build() constraint      { return &sphericalC{spec: j} }

type sphericalC struct {
	spec        SphericalJoint
	lambdaPos   float64
	lambdaSwing float64
	lambdaTwist float64
}

func (c *sphericalC) pair() (BodyID, BodyID) { return c.spec.pair() }
func (c *sphericalC) setCompliance(float64)  {} // anchor and limits are hard.
func (c *sphericalC) resetLambda() {
	c.lambdaPos, c.lambdaSwing, c.lambdaTwist = 0, 0, 0
}

func (c *sphericalC) solve(w *World, h float64) {
	b1, b2 := w.body(c.spec.Body1), w.body(c.spec.Body2)
	if b1 == nil || b2 == nil {
		return
	}

	// Keep the anchor points coincident.
	pd := makePosData(b1, b2, c.spec.R1, c.spec.R2)
	p1, p2 := pd.anchorPoints()
	deltaX := lin.NewV3().Sub(&p1, &p2)
	deltaLambda := pd.deltaLambda(h, 0.0, c.lambdaPos, *deltaX)
	pd.apply(deltaLambda, *deltaX)
	c.lambdaPos += deltaLambda

	// Swing limit: the angle between the two swing axes about their
	// mutual rotation axis.
	n1 := axisWorld(&b1.rot, c.spec.SwingAxis1)
	n2 := axisWorld(&b2.rot, c.spec.SwingAxis2)
	n := lin.NewV3().Cross(&n1, &n2)
	if nLen := n.Len(); nLen > slipEpsilon {
		n.Scale(n, 1/nLen)
		if deltaQ, violated := limitAngle(*n, n1, n2, c.spec.SwingLower, c.spec.SwingUpper); violated {
			ad := makeAngData(b1, b2)
			deltaLambda := ad.deltaLambda(h, 0.0, c.lambdaSwing, deltaQ)
			ad.apply(deltaLambda, deltaQ)
			c.lambdaSwing += deltaLambda
		}
	}

	// Twist limit: project the twist axes onto the plane normal to
	// the averaged swing axis and limit the angle between them.
	a1 := axisWorld(&b1.rot, c.spec.SwingAxis1)
	z1 := axisWorld(&b1.rot, c.spec.TwistAxis1)
	a2 := axisWorld(&b2.rot, c.spec.SwingAxis2)
	z2 := axisWorld(&b2.rot, c.spec.TwistAxis2)
	n.Add(&a1, &a2)
	if nLen := n.Len(); nLen > slipEpsilon {
		n.Scale(n, 1/nLen)
		n1.Sub(&z1, lin.NewV3().Scale(n, n.Dot(&z1)))
		n2.Sub(&z2, lin.NewV3().Scale(n, n.Dot(&z2)))
		n1Len, n2Len := n1.Len(), n2.Len()
		if n1Len > slipEpsilon && n2Len > slipEpsilon {
			n1.Scale(&n1, 1/n1Len)
			n2.Scale(&n2, 1/n2Len)
			if deltaQ, violated := limitAngle(*n, n1, n2, c.spec.TwistLower, c.spec.TwistUpper); violated {
				ad := makeAngData(b1, b2)
				deltaLambda := ad.deltaLambda(h, 0.0, c.lambdaTwist, deltaQ)
				ad.apply(deltaLambda, deltaQ)
				c.lambdaTwist += deltaLambda
			}
		}
	}
}

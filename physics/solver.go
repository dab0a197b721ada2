// Copyright © 2024 Galvanized Logic Inc.

package physics

// solver.go is the XPBD driver. Each frame splits into substeps and
// each substep runs, in order: integrate, broad phase, simulation
// islands, sleep accounting, collider cache refresh, narrow phase,
// positional constraint iterations, velocity derivation, and the
// velocity post-solve. See "Detailed Rigid Body Simulation with
// Extended Position Based Dynamics" (Müller et al).

import "github.com/gazed/xpbd/math/lin"

// Step advances the world by dt seconds. A dt of zero or less is a
// no-op. Queued forces act for the duration of this step and are
// cleared before returning.
func (w *World) Step(dt float64) {
	if dt <= 0 || len(w.bodies) == 0 {
		return
	}
	h := dt / float64(w.cfg.Substeps)
	for i := 0; i < w.cfg.Substeps; i++ {
		w.substep(h)
	}
	for i := range w.bodies {
		w.bodies[i].clearForces()
	}
}

// substep runs one XPBD sub-integration of length h.
func (w *World) substep(h float64) {
	w.integrate(h)

	// Broad phase on the predicted positions.
	w.pairs = broadPairs(w.bodies, w.pairs[:0])

	// Simulation islands and island-wide sleep accounting.
	if w.cfg.Islands {
		w.collectIslands()
		w.updateSleep(h)
	}

	// Refresh collider world caches and collect the contact
	// constraints for this substep.
	w.collisions = w.collisions[:0]
	w.narrowPhase()

	// The positional solver: user constraints solve before contact
	// constraints in every iteration, each in declaration order.
	for i := range w.cons {
		w.cons[i].c.resetLambda()
	}
	for it := 0; it < w.cfg.Iterations; it++ {
		for i := range w.cons {
			w.cons[i].c.solve(w, h)
		}
		for i := range w.collisions {
			w.collisions[i].solve(h)
		}
	}

	w.deriveVelocities(h)

	// The velocity pass: dynamic friction and restitution for every
	// contact found this substep.
	for i := range w.collisions {
		w.collisions[i].velocitySolve(h)
	}
}

// integrate advances every live body with semi-implicit Euler on the
// predicted state. Every body snapshots its pose first: constraints
// against fixed or sleeping bodies read the previous pose too.
func (w *World) integrate(h float64) {
	for i := range w.bodies {
		b := &w.bodies[i]
		b.prevPos = b.pos
		b.prevRot = b.rot
		if b.fixed || !b.active {
			continue
		}

		// Linear velocity and position from the external forces.
		force := b.externalForce(&w.cfg.Gravity)
		b.linv.Add(&b.linv, force.Scale(&force, h*b.imass))
		b.pos.Add(&b.pos, lin.NewV3().Scale(&b.linv, h))

		// Angular velocity from the external torque with the
		// gyroscopic term: ω += h·I⁻¹(τ - ω x Iω).
		torque := b.externalTorque()
		inertia := b.dynamicInertia()
		invInertia := b.dynamicInvInertia()
		gyro := lin.NewV3().Cross(&b.angv,
			lin.NewV3().MultMv(&inertia, &b.angv))
		delta := lin.NewV3().MultMv(&invInertia, lin.NewV3().Sub(&torque, gyro))
		b.angv.Add(&b.angv, delta.Scale(delta, h))

		// Linearized orientation update q += (h/2)·(ω ⊗ q),
		// renormalized inside applyRotation.
		applyRotation(b, &b.angv, 0.5*h)
	}
}

// collectIslands unions the broad-phase pairs and the user
// constraints into simulation islands, recording per-body island
// membership for sleep accounting and wake propagation.
func (w *World) collectIslands() {
	w.joined = w.joined[:0]
	for i := range w.cons {
		id1, id2 := w.cons[i].c.pair()
		di1, ok1 := w.index[id1]
		di2, ok2 := w.index[id2]
		if ok1 && ok2 {
			w.joined = append(w.joined, [2]uint32{di1, di2})
		}
	}
	if cap(w.islandOf) < len(w.bodies) {
		w.islandOf = make([]int32, len(w.bodies))
	}
	w.islandOf = w.islandOf[:len(w.bodies)]
	w.islandSets = islands(w.bodies, w.pairs, w.joined, &w.uf, w.islandSets[:0], w.islandOf)
}

// updateSleep accumulates quiescent time per body and deactivates an
// island only once every body in it has been quiet for timeToSleep.
// Any motion resets a body's clock and keeps its whole island awake.
// Bodies of an island that falls asleep have their velocities zeroed.
func (w *World) updateSleep(h float64) {
	for _, island := range w.islandSets {
		allQuiet := true
		for _, di := range island {
			b := &w.bodies[di]
			if b.quiescent() {
				b.sleepTime += h
			} else {
				b.sleepTime = 0.0
			}
			if b.sleepTime < timeToSleep {
				allQuiet = false
			}
		}

		// Only a fully quiet island sleeps; a single restless body
		// keeps everyone up.
		for _, di := range island {
			b := &w.bodies[di]
			b.active = !allQuiet
			if allQuiet {
				b.linv = lin.V3{}
				b.angv = lin.V3{}
			}
		}
	}
}

// narrowPhase refreshes the collider caches of every body in a live
// pair and converts their contacts into collision constraints.
func (w *World) narrowPhase() {
	if cap(w.cached) < len(w.bodies) {
		w.cached = make([]bool, len(w.bodies))
	}
	w.cached = w.cached[:len(w.bodies)]
	for i := range w.cached {
		w.cached[i] = false
	}

	for _, pair := range w.pairs {
		b1 := &w.bodies[pair.b1]
		b2 := &w.bodies[pair.b2]

		// A collision against an active body wakes a sleeping one:
		// without this, a moving body would push into a sleeping
		// island without response.
		if !b1.fixed && !b2.fixed && b1.active != b2.active {
			w.wakeIsland(b1.id)
			w.wakeIsland(b2.id)
		}

		// Nothing to resolve when neither side can move.
		if (b1.fixed || !b1.active) && (b2.fixed || !b2.active) {
			continue
		}

		if !w.cached[pair.b1] {
			updateColliders(b1)
			w.cached[pair.b1] = true
		}
		if !w.cached[pair.b2] {
			updateColliders(b2)
			w.cached[pair.b2] = true
		}

		w.contacts = bodyContacts(b1, b2, w.epa, w.contacts[:0])
		for i := range w.contacts {
			w.collisions = append(w.collisions, newCollisionC(b1, b2, &w.contacts[i]))
		}
	}
}

// deriveVelocities recovers the post-solve velocities from the pose
// change over the substep: v = Δx/h and ω = 2·vec(q ⊗ q_prev⁻¹)/h,
// sign-flipped when the relative rotation has negative w.
func (w *World) deriveVelocities(h float64) {
	for i := range w.bodies {
		b := &w.bodies[i]
		if b.fixed || !b.active {
			continue
		}
		b.prevLinv = b.linv
		b.prevAngv = b.angv

		b.linv.Scale(lin.NewV3().Sub(&b.pos, &b.prevPos), 1.0/h)

		prevInv := lin.NewQ().Inv(&b.prevRot)
		deltaQ := lin.NewQ().Mult(prevInv, &b.rot) // q applied to q_prev⁻¹.
		scale := 2.0 / h
		if deltaQ.W < 0.0 {
			scale = -scale
		}
		b.angv.Scale(lin.NewV3().SetS(deltaQ.X, deltaQ.Y, deltaQ.Z), scale)
	}
}

// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazed/xpbd/math/lin"
)

const frame = 1.0 / 60.0

// addGround adds a large fixed slab whose top surface is at the given
// world height.
func addGround(t *testing.T, w *World, top float64, mat Material) BodyID {
	t.Helper()
	id, err := w.AddFixedBody(lin.V3{Y: top - 0.5}, *lin.NewQI(),
		[]Collider{NewBox(25, 0.5, 25)}, mat)
	require.NoError(t, err)
	return id
}

// Scenario: a unit cube dropped onto the ground comes to rest on it.
func TestRestingCube(t *testing.T) {
	w := NewWorld()
	mat := Material{StaticFriction: 0.5, DynamicFriction: 0.5}
	addGround(t, w, -1.5, mat)

	cube, err := w.AddBody(lin.V3{Y: 2}, *lin.NewQI(), 1.0,
		[]Collider{NewBox(0.5, 0.5, 0.5)}, mat)
	require.NoError(t, err)

	for i := 0; i < 120; i++ { // 2 seconds.
		w.Step(frame)
	}

	b := w.Get(cube)
	y := b.Position().Y
	assert.InDelta(t, -1.0, y, 0.1, "cube should rest on the ground top")
	linv := b.Velocity()
	assert.Less(t, linv.Len(), 0.2, "cube should be nearly still")

	rot := b.Rotation()
	assert.Less(t, math.Abs(rot.X), 0.05)
	assert.Less(t, math.Abs(rot.Y), 0.05)
	assert.Less(t, math.Abs(rot.Z), 0.05)
}

// Every body keeps a unit rotation through heavy stepping.
func TestUnitQuaternionInvariant(t *testing.T) {
	w := NewWorld()
	mat := Material{StaticFriction: 0.4, DynamicFriction: 0.3, Restitution: 0.5}
	addGround(t, w, 0, mat)
	for i := 0; i < 5; i++ {
		_, err := w.AddBody(
			lin.V3{X: float64(i) * 0.4, Y: 2 + float64(i)*1.2, Z: float64(i) * 0.2},
			*lin.NewQ().SetAa(1, float64(i), 0.5, 0.3*float64(i)), 1.0,
			[]Collider{NewBox(0.5, 0.5, 0.5)}, mat)
		require.NoError(t, err)
	}

	for i := 0; i < 120; i++ {
		w.Step(frame)
		w.Each(func(b *Body) {
			assert.Less(t, b.unitRotationDrift(), 1e-6,
				"rotation must stay unit length after every step")
		})
	}
}

// Scenario: a bouncy sphere rebounds to the height predicted by its
// combined restitution.
func TestSphereBounce(t *testing.T) {
	w := NewWorld()

	// Combined restitution is the product of the two coefficients,
	// so a perfectly elastic ground leaves the sphere's 0.8.
	addGround(t, w, -1.0, Material{Restitution: 1.0}) // contact at center y=0.

	sphere, err := w.AddBody(lin.V3{Y: 5}, *lin.NewQI(), 1.0,
		[]Collider{NewSphere(1)}, Material{Restitution: 0.8})
	require.NoError(t, err)

	// Drop, then track the peak of the first rebound.
	bounced := false
	peak := -math.MaxFloat64
	for i := 0; i < 300; i++ {
		w.Step(frame)
		b := w.Get(sphere)
		vy := b.Velocity().Y
		y := b.Position().Y
		if !bounced {
			bounced = vy > 0.1
			continue
		}
		if y > peak {
			peak = y
		}
		if vy < -0.5 && y < peak-0.2 {
			break // past the rebound peak.
		}
	}
	require.True(t, bounced, "sphere should rebound")

	// Drop height 5 with combined restitution 0.8 gives an ideal
	// rebound of 5·0.8² = 3.2; the solver loses a little at the
	// contact.
	assert.Greater(t, peak, 2.8)
	assert.Less(t, peak, 3.5)
}

// Scenario: a brick wall stays standing under gravity.
func TestBrickWallStable(t *testing.T) {
	w := NewWorld()
	mat := Material{StaticFriction: 0.5, DynamicFriction: 0.4}
	addGround(t, w, 0, mat)

	const rows, cols = 6, 4
	bricks := []BodyID{}
	initial := []float64{}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			pos := lin.V3{
				X: float64(col)*1.0 - 1.5,
				Y: 0.25 + float64(row)*0.5,
			}
			id, err := w.AddBody(pos, *lin.NewQI(), 1.0,
				[]Collider{NewBox(0.5, 0.25, 0.25)}, mat)
			require.NoError(t, err)
			bricks = append(bricks, id)
			initial = append(initial, pos.Y)
		}
	}

	for i := 0; i < 180; i++ { // 3 seconds.
		w.Step(frame)
	}
	for i, id := range bricks {
		y := w.Get(id).Position().Y
		assert.InDelta(t, initial[i], y, 0.05, "brick %d sagged or toppled", i)
	}
}

// Scenario: a hinged lever swings under gravity and clamps at its
// angular limit without ever passing it.
func TestHingeLeverLimit(t *testing.T) {
	w := NewWorld()
	support, err := w.AddFixedBody(lin.V3{}, *lin.NewQI(),
		[]Collider{NewBox(0.1, 0.1, 0.1)}, Material{})
	require.NoError(t, err)

	// The lever extends along +x from an anchor below the support.
	lever, err := w.AddBody(lin.V3{X: 1.25, Y: -0.35}, *lin.NewQI(), 1.0,
		[]Collider{NewBox(1, 0.1, 0.1)}, Material{})
	require.NoError(t, err)

	limit := 0.9 * lin.PI
	_, err = w.AddConstraint(HingeJoint{
		Body1: support, Body2: lever,
		R1:           lin.V3{Y: -0.35},
		R2:           lin.V3{X: -1.25},
		AlignedAxis1: PositiveZ, AlignedAxis2: PositiveZ,
		Limited:    true,
		LimitAxis1: PositiveY, LimitAxis2: PositiveY,
		LowerLimit: -limit, UpperLimit: limit,
	})
	require.NoError(t, err)

	// Measure the hinge angle the way the limit constraint does.
	angle := func() float64 {
		b := w.Get(lever)
		rot := b.Rotation()
		n := lin.V3{Z: 1}
		n1 := lin.V3{Y: 1}
		n2 := lin.NewV3().MultQ(&lin.V3{Y: 1}, &rot)
		sin := n.Dot(lin.NewV3().Cross(&n1, n2))
		cos := n1.Dot(n2)
		return math.Atan2(sin, cos)
	}

	minPhi, maxPhi := math.MaxFloat64, -math.MaxFloat64
	for i := 0; i < 150; i++ { // 2.5 seconds.
		w.Step(frame)
		phi := angle()
		minPhi = math.Min(minPhi, phi)
		maxPhi = math.Max(maxPhi, phi)
	}

	assert.Less(t, minPhi, -limit+0.05, "lever should reach its lower limit")
	assert.GreaterOrEqual(t, minPhi, -limit-0.02, "lever must never pass the lower limit")
	assert.LessOrEqual(t, maxPhi, limit+0.02, "lever must never pass the upper limit")
}

// Scenario: a soft positional constraint behaves like a spring whose
// oscillation settles near the target offset.
func TestSpringConstraint(t *testing.T) {
	w := NewWorld()
	anchor, err := w.AddFixedBody(lin.V3{}, *lin.NewQI(),
		[]Collider{NewBox(0.25, 0.25, 0.25)}, Material{})
	require.NoError(t, err)

	cube, err := w.AddBody(lin.V3{Y: -3}, *lin.NewQI(), 1.0,
		[]Collider{NewBox(0.5, 0.5, 0.5)}, Material{})
	require.NoError(t, err)

	_, err = w.AddConstraint(Positional{
		Body1: cube, Body2: anchor,
		Offset:     lin.V3{Y: -3},
		Compliance: 0.001,
	})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		w.Step(frame)
		y := w.Get(cube).Position().Y
		assert.Less(t, math.Abs(y+3), 0.5, "spring should never swing far from target")
	}
	y := w.Get(cube).Position().Y
	assert.Less(t, math.Abs(y+3), 0.1, "oscillation should settle near the offset")
}

// Scenario: a quiet stack falls asleep as one island and wakes as
// one island.
func TestSleepAndWake(t *testing.T) {
	w := NewWorld()
	mat := Material{StaticFriction: 0.5, DynamicFriction: 0.5}
	addGround(t, w, 0, mat)

	cubes := []BodyID{}
	for i := 0; i < 3; i++ {
		id, err := w.AddBody(lin.V3{Y: 0.5 + float64(i)}, *lin.NewQI(), 1.0,
			[]Collider{NewBox(0.5, 0.5, 0.5)}, mat)
		require.NoError(t, err)
		cubes = append(cubes, id)
	}

	for i := 0; i < 120; i++ { // 2 seconds.
		w.Step(frame)
	}
	for i, id := range cubes {
		b := w.Get(id)
		assert.False(t, b.Active(), "cube %d should be asleep", i)
		linv := b.Velocity()
		angv := b.AngularVelocity()
		assert.Less(t, linv.Len(), 1e-3, "cube %d linear speed", i)
		assert.Less(t, angv.Len(), 1e-3, "cube %d angular speed", i)
	}

	// Waking the top cube wakes the whole island.
	require.NoError(t, w.Activate(cubes[2]))
	for i, id := range cubes {
		assert.True(t, w.Get(id).Active(), "cube %d should wake with its island", i)
	}
}

// Sleeping bodies do not integrate: a sleeping stack holds its pose.
func TestSleepFreezesPose(t *testing.T) {
	w := NewWorld()
	mat := Material{StaticFriction: 0.5, DynamicFriction: 0.5}
	addGround(t, w, 0, mat)
	cube, err := w.AddBody(lin.V3{Y: 0.5}, *lin.NewQI(), 1.0,
		[]Collider{NewBox(0.5, 0.5, 0.5)}, mat)
	require.NoError(t, err)

	for i := 0; i < 90; i++ {
		w.Step(frame)
	}
	require.False(t, w.Get(cube).Active(), "cube should be asleep after 1.5s")
	frozen := w.Get(cube).Position()

	for i := 0; i < 60; i++ {
		w.Step(frame)
	}
	assert.Equal(t, frozen, w.Get(cube).Position(), "sleeping pose must not drift")
}

// In a closed system with zero forces and zero restitution, kinetic
// energy never increases.
func TestEnergyMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = lin.V3{} // closed system: no external forces.
	w, err := NewWorldWith(cfg)
	require.NoError(t, err)

	s1, err := w.AddBody(lin.V3{X: -2}, *lin.NewQI(), 1.0,
		[]Collider{NewSphere(1)}, Material{})
	require.NoError(t, err)
	s2, err := w.AddBody(lin.V3{X: 2}, *lin.NewQI(), 1.0,
		[]Collider{NewSphere(1)}, Material{})
	require.NoError(t, err)
	require.NoError(t, w.SetVelocity(s1, lin.V3{X: 1}, lin.V3{}))
	require.NoError(t, w.SetVelocity(s2, lin.V3{X: -1}, lin.V3{}))

	kinetic := func() float64 {
		total := 0.0
		w.Each(func(b *Body) {
			v := b.Velocity()
			total += 0.5 * v.Dot(&v) // both spheres have mass 1.
			av := b.AngularVelocity()
			inertia := b.dynamicInertia()
			total += 0.5 * av.Dot(lin.NewV3().MultMv(&inertia, &av))
		})
		return total
	}

	last := kinetic()
	for i := 0; i < 90; i++ {
		w.Step(frame)
		now := kinetic()
		assert.LessOrEqual(t, now, last+1e-9, "energy rose at step %d", i)
		last = now
	}
	assert.Less(t, last, 1.0, "the inelastic collision should shed energy")
}

// Swapping the two bodies of a collision pair resolves to the same
// poses; only the stored normal flips sign.
func TestPairSymmetry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = lin.V3{}

	build := func(first, second lin.V3) (*World, BodyID, BodyID) {
		w, err := NewWorldWith(cfg)
		require.NoError(t, err)
		a, err := w.AddBody(first, *lin.NewQI(), 1.0,
			[]Collider{NewSphere(1)}, Material{})
		require.NoError(t, err)
		b, err := w.AddBody(second, *lin.NewQI(), 1.0,
			[]Collider{NewSphere(1)}, Material{})
		require.NoError(t, err)
		return w, a, b
	}

	left, right := lin.V3{X: -0.8}, lin.V3{X: 0.8}
	w1, l1, r1 := build(left, right)
	w2, r2, l2 := build(right, left) // same scene, reversed order.
	for i := 0; i < 10; i++ {
		w1.Step(frame)
		w2.Step(frame)
	}

	p1l, p1r := w1.Get(l1).Position(), w1.Get(r1).Position()
	p2l, p2r := w2.Get(l2).Position(), w2.Get(r2).Position()
	assert.InDelta(t, p1l.X, p2l.X, 1e-9, "left body should resolve identically")
	assert.InDelta(t, p1r.X, p2r.X, 1e-9, "right body should resolve identically")
	assert.InDelta(t, p1l.X, -p1r.X, 1e-9, "resolution should stay mirror symmetric")
}

// A moving body colliding with a sleeping island wakes it.
func TestCollisionWakesSleepers(t *testing.T) {
	w := NewWorld()
	mat := Material{StaticFriction: 0.3, DynamicFriction: 0.3}
	addGround(t, w, 0, mat)
	resting, err := w.AddBody(lin.V3{Y: 0.5}, *lin.NewQI(), 1.0,
		[]Collider{NewBox(0.5, 0.5, 0.5)}, mat)
	require.NoError(t, err)

	for i := 0; i < 90; i++ {
		w.Step(frame)
	}
	require.False(t, w.Get(resting).Active(), "cube should sleep first")

	// Roll a fast sphere into the sleeping cube.
	ball, err := w.AddBody(lin.V3{X: -6, Y: 0.6}, *lin.NewQI(), 1.0,
		[]Collider{NewSphere(0.5)}, mat)
	require.NoError(t, err)
	require.NoError(t, w.SetVelocity(ball, lin.V3{X: 8}, lin.V3{}))

	woke := false
	for i := 0; i < 90 && !woke; i++ {
		w.Step(frame)
		woke = w.Get(resting).Active()
	}
	assert.True(t, woke, "impact should wake the sleeping cube")
}

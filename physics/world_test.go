// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazed/xpbd/math/lin"
)

func addCube(t *testing.T, w *World, pos lin.V3) BodyID {
	t.Helper()
	id, err := w.AddBody(pos, *lin.NewQI(), 1.0,
		[]Collider{NewBox(0.5, 0.5, 0.5)},
		Material{StaticFriction: 0.5, DynamicFriction: 0.5})
	require.NoError(t, err)
	return id
}

func TestWorldAddGetRemove(t *testing.T) {
	w := NewWorld()
	id := addCube(t, w, lin.V3{Y: 2})

	b := w.Get(id)
	require.NotNil(t, b)
	assert.Equal(t, id, b.ID())
	assert.Equal(t, lin.V3{Y: 2}, b.Position())
	assert.True(t, b.Active())
	assert.False(t, b.Fixed())

	require.NoError(t, w.RemoveBody(id))
	assert.Nil(t, w.Get(id), "removed identity should resolve to nothing")
	assert.ErrorIs(t, w.RemoveBody(id), ErrUnknownBody)
}

func TestWorldStaleIdentity(t *testing.T) {
	w := NewWorld()
	id1 := addCube(t, w, lin.V3{})
	require.NoError(t, w.RemoveBody(id1))

	// New bodies never alias disposed identities.
	id2 := addCube(t, w, lin.V3{X: 5})
	assert.NotEqual(t, id1, id2)
	assert.Nil(t, w.Get(id1))
	assert.NotNil(t, w.Get(id2))
}

func TestWorldIdentityUnique(t *testing.T) {
	w := NewWorld()
	seen := map[BodyID]bool{}
	for i := 0; i < 100; i++ {
		id := addCube(t, w, lin.V3{X: float64(i) * 3})
		assert.False(t, seen[id], "identities must be unique")
		seen[id] = true
	}
}

func TestWorldEachOrder(t *testing.T) {
	w := NewWorld()
	ids := []BodyID{
		addCube(t, w, lin.V3{}),
		addCube(t, w, lin.V3{X: 5}),
		addCube(t, w, lin.V3{X: 10}),
	}
	got := []BodyID{}
	w.Each(func(b *Body) { got = append(got, b.ID()) })
	assert.Equal(t, ids, got)
}

func TestWorldFixedBody(t *testing.T) {
	w := NewWorld()
	id, err := w.AddFixedBody(lin.V3{Y: -2}, *lin.NewQI(),
		[]Collider{NewBox(25, 0.5, 25)}, Material{})
	require.NoError(t, err)

	b := w.Get(id)
	require.NotNil(t, b)
	assert.True(t, b.Fixed())

	// Fixed bodies never move, even with incident forces and steps.
	require.NoError(t, w.ApplyForce(id, lin.V3{}, lin.V3{Y: 1000}, false))
	for i := 0; i < 60; i++ {
		w.Step(1.0 / 60.0)
	}
	assert.Equal(t, lin.V3{Y: -2}, w.Get(id).Position())
	assert.Equal(t, *lin.NewQI(), w.Get(id).Rotation())
}

func TestWorldBadMass(t *testing.T) {
	w := NewWorld()
	_, err := w.AddBody(lin.V3{}, *lin.NewQI(), 0,
		[]Collider{NewSphere(1)}, Material{})
	assert.ErrorIs(t, err, ErrSingularInertia)
}

func TestWorldConstraintLifecycle(t *testing.T) {
	w := NewWorld()
	a := addCube(t, w, lin.V3{})
	b := addCube(t, w, lin.V3{Y: -3})

	cid, err := w.AddConstraint(Positional{
		Body1: b, Body2: a, Offset: lin.V3{Y: -3}, Compliance: 0.001})
	require.NoError(t, err)
	require.NotEmpty(t, cid)

	require.NoError(t, w.SetCompliance(cid, 0.01))
	require.NoError(t, w.RemoveConstraint(cid))
	assert.ErrorIs(t, w.RemoveConstraint(cid), ErrUnknownConstraint)
	assert.ErrorIs(t, w.SetCompliance(cid, 0.1), ErrUnknownConstraint)
}

func TestWorldConstraintUnknownBody(t *testing.T) {
	w := NewWorld()
	a := addCube(t, w, lin.V3{})
	_, err := w.AddConstraint(Positional{Body1: a, Body2: BodyID(999)})
	assert.ErrorIs(t, err, ErrUnknownBody)
}

func TestWorldConstraintDropsWithBody(t *testing.T) {
	w := NewWorld()
	a := addCube(t, w, lin.V3{})
	b := addCube(t, w, lin.V3{X: 5})
	_, err := w.AddConstraint(Positional{Body1: a, Body2: b})
	require.NoError(t, err)

	require.NoError(t, w.RemoveBody(b))
	assert.Empty(t, w.cons, "constraints referencing a removed body disappear")
}

func TestWorldForceUnknownBody(t *testing.T) {
	w := NewWorld()
	assert.ErrorIs(t, w.ApplyForce(BodyID(7), lin.V3{}, lin.V3{X: 1}, false), ErrUnknownBody)
	assert.ErrorIs(t, w.Activate(BodyID(7)), ErrUnknownBody)
	assert.ErrorIs(t, w.SetPose(BodyID(7), lin.V3{}, *lin.NewQI()), ErrUnknownBody)
	assert.ErrorIs(t, w.SetVelocity(BodyID(7), lin.V3{}, lin.V3{}), ErrUnknownBody)
}

func TestWorldStepZeroDt(t *testing.T) {
	w := NewWorld()
	id := addCube(t, w, lin.V3{Y: 5})
	w.Step(0)
	w.Step(-1)
	assert.Equal(t, lin.V3{Y: 5}, w.Get(id).Position(), "dt<=0 must be a no-op")
}

func TestConfigLoad(t *testing.T) {
	cfg, err := LoadConfig([]byte(`
substeps: 20
iterations: 2
gravity: {x: 0.0, y: -9.81, z: 0.0}
`))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Substeps)
	assert.Equal(t, 2, cfg.Iterations)
	assert.True(t, cfg.Islands, "missing keys keep defaults")
	assert.InDelta(t, -9.81, cfg.Gravity.Y, 1e-9)

	_, err = LoadConfig([]byte(`substeps: 0`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig([]byte(`{`))
	assert.Error(t, err)
}

func TestLocalForceConversion(t *testing.T) {
	w := NewWorld()
	id := addCube(t, w, lin.V3{})

	// Rotate the body a quarter turn about y: its local +x is now
	// world -z. A local +x force must arrive as world -z.
	rot := lin.NewQ().SetAa(0, 1, 0, lin.HalfPi)
	require.NoError(t, w.SetPose(id, lin.V3{}, *rot))
	require.NoError(t, w.ApplyForce(id, lin.V3{}, lin.V3{X: 1}, true))

	b := w.Get(id)
	require.Len(t, b.forces, 1)
	assert.InDelta(t, 0.0, b.forces[0].newtons.X, 1e-9)
	assert.InDelta(t, -1.0, b.forces[0].newtons.Z, 1e-9)
}

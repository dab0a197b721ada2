// Copyright © 2024 Galvanized Logic Inc.

package physics

// world.go is the body and constraint registry plus the mutation API
// available to applications between steps.

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gazed/xpbd/math/lin"
)

// ConstraintID is an opaque handle for a user constraint, usable to
// remove the constraint or mutate its attributes later.
type ConstraintID string

// userConstraint pairs a live constraint with its handle. Constraints
// solve in insertion order, before any contact constraints.
type userConstraint struct {
	id ConstraintID
	c  constraint
}

// World owns a population of rigid bodies and the constraints that
// relate them, and advances them one frame at a time through Step.
//
// A World is single-threaded: Step runs to completion before
// returning and must not be called from two goroutines at once, and
// the mutation API must not be interleaved with a step in progress.
type World struct {
	ids    bodyIDs
	index  map[BodyID]uint32 // sparse: identity to dense index.
	bodies []Body            // dense body table.
	cfg    Config
	cons   []userConstraint

	// Scratch reused across substeps so the inner loop does not
	// allocate once capacities settle.
	pairs      []broadPair
	contacts   []contact
	collisions []collisionC
	joined     [][2]uint32
	islandSets [][]uint32
	islandOf   []int32
	uf         unionFind
	cached     []bool
	epa        *epaScratch
}

// NewWorld creates an empty world with the default solver
// configuration.
func NewWorld() *World {
	w, _ := NewWorldWith(DefaultConfig()) // default config always valid.
	return w
}

// NewWorldWith creates an empty world stepping with the given
// configuration.
func NewWorldWith(cfg Config) (*World, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &World{
		index: map[BodyID]uint32{},
		cfg:   cfg,
		epa:   newEpaScratch(),
	}, nil
}

// AddBody creates a simulated rigid body and returns its identity.
// The mass must be positive; the colliders are given in body-local
// coordinates and ownership passes to the body.
func (w *World) AddBody(pos lin.V3, rot lin.Q, mass float64,
	colliders []Collider, mat Material) (BodyID, error) {
	return w.addBody(pos, rot, mass, colliders, mat, false)
}

// AddFixedBody creates a world-pinned body with infinite effective
// mass: it anchors contacts and joints but never moves.
func (w *World) AddFixedBody(pos lin.V3, rot lin.Q,
	colliders []Collider, mat Material) (BodyID, error) {
	return w.addBody(pos, rot, 0, colliders, mat, true)
}

func (w *World) addBody(pos lin.V3, rot lin.Q, mass float64,
	colliders []Collider, mat Material, fixed bool) (BodyID, error) {
	b, err := newBody(pos, rot, mass, colliders, mat, fixed)
	if err != nil {
		return 0, fmt.Errorf("add body: %w", err)
	}
	b.id = w.ids.create()
	w.index[b.id] = uint32(len(w.bodies))
	w.bodies = append(w.bodies, *b)
	w.dropIslands() // dense indices changed.
	return b.id, nil
}

// RemoveBody destroys the identified body. Constraints referencing it
// are removed with it.
func (w *World) RemoveBody(id BodyID) error {
	di, ok := w.index[id]
	if !ok {
		return ErrUnknownBody
	}
	delete(w.index, id)
	w.ids.dispose(id)

	// Swap-delete from the dense table, reindexing the moved body.
	last := uint32(len(w.bodies) - 1)
	if di != last {
		w.bodies[di] = w.bodies[last]
		w.index[w.bodies[di].id] = di
	}
	w.bodies = w.bodies[:last]

	// Drop constraints that referenced the removed body.
	kept := w.cons[:0]
	for _, uc := range w.cons {
		b1, b2 := uc.c.pair()
		if b1 != id && b2 != id {
			kept = append(kept, uc)
		}
	}
	w.cons = kept
	w.dropIslands()
	return nil
}

// Get returns the identified body, or nil for an unknown or disposed
// identity. The pointer is valid until the next AddBody/RemoveBody.
func (w *World) Get(id BodyID) *Body { return w.body(id) }

// Each visits every body in the world. Bodies are visited in table
// order, which is stable between Add/Remove calls.
func (w *World) Each(visit func(b *Body)) {
	for i := range w.bodies {
		visit(&w.bodies[i])
	}
}

// body resolves an identity to its storage, nil when absent.
func (w *World) body(id BodyID) *Body {
	if di, ok := w.index[id]; ok {
		return &w.bodies[di]
	}
	return nil
}

// ApplyForce queues a force for the next step: newtons applied at the
// given point relative to the body center of mass. With local true
// both are interpreted in the body frame. Forces clear at step end.
// Applying a force wakes the body's island.
func (w *World) ApplyForce(id BodyID, point, newtons lin.V3, local bool) error {
	b := w.body(id)
	if b == nil {
		return ErrUnknownBody
	}
	b.addForce(point, newtons, local)
	w.wakeIsland(id)
	return nil
}

// Activate wakes the identified body and the rest of its simulation
// island, restarting their deactivation clocks.
func (w *World) Activate(id BodyID) error {
	if w.body(id) == nil {
		return ErrUnknownBody
	}
	w.wakeIsland(id)
	return nil
}

// SetPose teleports the body to the given world position and
// rotation. The rotation is renormalized. The body's island wakes:
// something just moved in it.
func (w *World) SetPose(id BodyID, pos lin.V3, rot lin.Q) error {
	b := w.body(id)
	if b == nil {
		return ErrUnknownBody
	}
	b.pos = pos
	b.rot = *rot.Unit()
	w.wakeIsland(id)
	return nil
}

// SetVelocity overwrites the body's linear and angular velocities,
// eg. launching a projectile. The body's island wakes.
func (w *World) SetVelocity(id BodyID, linear, angular lin.V3) error {
	b := w.body(id)
	if b == nil {
		return ErrUnknownBody
	}
	b.linv = linear
	b.angv = angular
	w.wakeIsland(id)
	return nil
}

// AddConstraint adds the described constraint and returns a handle
// usable for later removal. Both referenced bodies must exist.
// Attribute mutation (eg. SetCompliance) is allowed while not
// stepping.
func (w *World) AddConstraint(spec ConstraintSpec) (ConstraintID, error) {
	b1, b2 := spec.pair()
	if w.body(b1) == nil || w.body(b2) == nil {
		return "", fmt.Errorf("add constraint: %w", ErrUnknownBody)
	}
	id := ConstraintID(uuid.NewString())
	w.cons = append(w.cons, userConstraint{id: id, c: spec.build()})
	return id, nil
}

// RemoveConstraint removes the identified constraint. The solve order
// of the remaining constraints is unchanged.
func (w *World) RemoveConstraint(id ConstraintID) error {
	for i := range w.cons {
		if w.cons[i].id == id {
			w.cons = append(w.cons[:i], w.cons[i+1:]...)
			return nil
		}
	}
	return ErrUnknownConstraint
}

// SetCompliance changes the compliance of the identified constraint.
// Constraints without a mutable compliance ignore the call.
func (w *World) SetCompliance(id ConstraintID, compliance float64) error {
	for i := range w.cons {
		if w.cons[i].id == id {
			w.cons[i].c.setCompliance(compliance)
			return nil
		}
	}
	return ErrUnknownConstraint
}

// wakeIsland wakes the identified body and, when island bookkeeping
// from the last substep is available, every body recorded in its
// island.
func (w *World) wakeIsland(id BodyID) {
	di, ok := w.index[id]
	if !ok {
		return
	}
	b := &w.bodies[di]
	b.wake()
	if int(di) >= len(w.islandOf) {
		return // no island bookkeeping yet.
	}
	island := w.islandOf[di]
	if island < 0 || int(island) >= len(w.islandSets) {
		return // fixed body or stale bookkeeping.
	}
	for _, member := range w.islandSets[island] {
		w.bodies[member].wake()
	}
}

// dropIslands invalidates the recorded island bookkeeping after the
// dense table is reshuffled.
func (w *World) dropIslands() {
	w.islandSets = w.islandSets[:0]
	w.islandOf = w.islandOf[:0]
}

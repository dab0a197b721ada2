// Copyright © 2024 Galvanized Logic Inc.

package physics

// body.go holds the rigid body data and the generational identifiers
// used to reference bodies without aliasing their storage.

import (
	"log/slog"
	"math"

	"github.com/gazed/xpbd/math/lin"
)

// BodyID is a stable 64-bit body identity. The low bits index the
// body table, the high bits hold an edition that changes when an index
// is disposed and reused, so stale identities never alias new bodies.
// The zero BodyID is never valid.
type BodyID uint64

// Divide the identity bits into a table index and an edition.
const bidIndexBits = 32
const maxBodyIndex = (1 << bidIndexBits) - 1 // index mask

// index is the value to be used for table lookups.
func (id BodyID) index() uint32 { return uint32(id & maxBodyIndex) }

// edition returns the value that tracks whether the id is still valid.
func (id BodyID) edition() uint32 { return uint32(id >> bidIndexBits) }

// bodyIDs handles the creation and deletion of body identifiers.
// Identifiers are dense enough to be used as indices into body data.
// See http://bitsquid.blogspot.ca/2014/08/building-data-oriented-entity-system.html
type bodyIDs struct {
	editions []uint32 // tracks currently used identities, indexed from id 1.
	free     []uint32 // indices ready for reuse.
}

// idReuseThreshold delays recycling until enough ids are free that
// reuse is spread across many editions.
const idReuseThreshold = 1024

// create returns a new body id starting at 1.
func (ids *bodyIDs) create() BodyID {
	var index uint32
	if len(ids.free) > idReuseThreshold {
		index = ids.free[0]
		ids.free = append(ids.free[:0], ids.free[1:]...)
	} else {
		ids.editions = append(ids.editions, 0)
		index = uint32(len(ids.editions))
	}
	return BodyID(uint64(index) | uint64(ids.editions[index-1])<<bidIndexBits)
}

// valid identities are those that have been created and not disposed.
func (ids *bodyIDs) valid(id BodyID) bool {
	index := id.index()
	if index == 0 || index > uint32(len(ids.editions)) {
		return false
	}
	return ids.editions[index-1] == id.edition()
}

// dispose marks an identity as no longer valid and queues its index
// for reuse.
func (ids *bodyIDs) dispose(id BodyID) {
	ids.editions[id.index()-1]++
	ids.free = append(ids.free, id.index())
}

// bodyIDs
// =============================================================================
// Body

// Material bundles the surface and bounce properties of a body.
// Coefficients are expected in [0,1].
type Material struct {
	StaticFriction  float64 // resists the start of sliding.
	DynamicFriction float64 // resists ongoing sliding.
	Restitution     float64 // bounce: 0 inelastic ... 1 elastic.
}

// validate warns about out-of-range material values. Out-of-range
// values are accepted: the solver clamps nothing and the simulation
// will look odd rather than fail.
func (m Material) validate() {
	if m.StaticFriction < 0 || m.StaticFriction > 1 ||
		m.DynamicFriction < 0 || m.DynamicFriction > 1 ||
		m.Restitution < 0 || m.Restitution > 1 {
		slog.Warn("material coefficients expected in [0,1]",
			"static", m.StaticFriction, "dynamic", m.DynamicFriction,
			"restitution", m.Restitution)
	}
	if m.DynamicFriction > m.StaticFriction {
		slog.Warn("dynamic friction greater than static friction",
			"static", m.StaticFriction, "dynamic", m.DynamicFriction)
	}
}

// force is one queued external force: newtons applied at a point
// relative to the center of mass, both in world orientation.
// Local-frame forces are converted to world on enqueue.
type force struct {
	point   lin.V3 // application point relative to the center of mass.
	newtons lin.V3
}

// Body is a single rigid object contained within a physics World.
// Bodies are created through the World and mutated by the solver
// during World.Step; applications read poses back for rendering.
type Body struct {
	id BodyID

	pos  lin.V3 // world position.
	rot  lin.Q  // world rotation: always unit length.
	linv lin.V3 // linear velocity m/s in world space.
	angv lin.V3 // angular velocity rad/s in world space.

	imass      float64 // inverse mass: 0 for fixed bodies.
	inertia    lin.M3  // body-frame inertia tensor: zero for fixed.
	invInertia lin.M3  // its inverse: zero for fixed.
	mat        Material

	fixed     bool    // world-pinned: infinite effective mass.
	active    bool    // false once the body's island is asleep.
	sleepTime float64 // seconds spent below the sleep thresholds.

	colliders []Collider
	radius    float64 // bounding sphere radius around the body origin.
	forces    []force // queued forces, cleared at the end of each step.

	// Solver scratch captured at the start of each substep.
	prevPos  lin.V3
	prevRot  lin.Q
	prevLinv lin.V3
	prevAngv lin.V3
}

// newBody assembles a body from its construction parameters.
// Fixed bodies get zero inverse mass and zero inertia tensors.
func newBody(pos lin.V3, rot lin.Q, mass float64, colliders []Collider,
	mat Material, fixed bool) (*Body, error) {
	mat.validate()
	b := &Body{
		pos: pos, rot: rot, mat: mat,
		fixed: fixed, active: true, colliders: colliders,
		radius: boundingRadius(colliders),
	}
	b.rot.Unit()
	if !fixed {
		if mass <= 0 {
			return nil, ErrSingularInertia
		}
		b.imass = 1.0 / mass
		b.inertia = defaultInertiaTensor(colliders, mass)
		if !b.invInertia.Inv(&b.inertia) {
			return nil, ErrSingularInertia
		}
	}
	return b, nil
}

// ID returns the body's stable identity.
func (b *Body) ID() BodyID { return b.id }

// Position returns the world position of the body's center of mass.
func (b *Body) Position() lin.V3 { return b.pos }

// Rotation returns the body's world orientation as a unit quaternion.
func (b *Body) Rotation() lin.Q { return b.rot }

// Velocity returns the body's linear velocity in m/s.
func (b *Body) Velocity() lin.V3 { return b.linv }

// AngularVelocity returns the body's angular velocity in rad/s,
// expressed in world space.
func (b *Body) AngularVelocity() lin.V3 { return b.angv }

// Fixed is true for world-pinned bodies that never move.
func (b *Body) Fixed() bool { return b.fixed }

// Active is false while the body's simulation island is asleep.
func (b *Body) Active() bool { return b.active }

// Material returns the body's surface and bounce properties.
func (b *Body) Material() Material { return b.mat }

// Colliders returns the body's collider list. The list is owned by
// the body and must not be mutated.
func (b *Body) Colliders() []Collider { return b.colliders }

// addForce queues a force for the next step. Local coordinates are
// rotated into world space on enqueue so the solver only ever sees
// world-space forces.
func (b *Body) addForce(point, newtons lin.V3, local bool) {
	if local {
		newtons.MultQ(&newtons, &b.rot)
		point.MultQ(&point, &b.rot)
	}
	b.forces = append(b.forces, force{point: point, newtons: newtons})
}

// clearForces drops all queued forces. Called at the end of each step.
func (b *Body) clearForces() { b.forces = b.forces[:0] }

// externalForce sums the queued forces with gravity scaled by mass.
func (b *Body) externalForce(gravity *lin.V3) (total lin.V3) {
	if b.imass != 0 {
		total.Scale(gravity, 1.0/b.imass)
	}
	for i := range b.forces {
		total.Add(&total, &b.forces[i].newtons)
	}
	return total
}

// externalTorque sums the torque contributions of the queued forces
// about the center of mass.
func (b *Body) externalTorque() (total lin.V3) {
	arm := lin.NewV3()
	for i := range b.forces {
		arm.Cross(&b.forces[i].point, &b.forces[i].newtons)
		total.Add(&total, arm)
	}
	return total
}

// dynamicInertia returns the inertia tensor transformed by the body's
// current rotation: R(q) I R(q)ᵀ. Only valid while the local to world
// transform is orthogonal.
func (b *Body) dynamicInertia() (m lin.M3) {
	var rot, rotT lin.M3
	rot.SetQ(&b.rot)
	rotT.Transpose(&rot)
	m.Mult(&rot, &b.inertia)
	m.Mult(&m, &rotT)
	return m
}

// dynamicInvInertia returns the inverse inertia tensor transformed by
// the body's current rotation: R(q) I⁻¹ R(q)ᵀ.
func (b *Body) dynamicInvInertia() (m lin.M3) {
	var rot, rotT lin.M3
	rot.SetQ(&b.rot)
	rotT.Transpose(&rot)
	m.Mult(&rot, &b.invInertia)
	m.Mult(&m, &rotT)
	return m
}

// quiescent is true while both velocities are below the sleeping
// thresholds.
func (b *Body) quiescent() bool {
	return b.linv.Len() < linearSleepThreshold &&
		b.angv.Len() < angularSleepThreshold
}

// wake marks the body active and restarts its deactivation clock.
func (b *Body) wake() {
	b.active = true
	b.sleepTime = 0
}

// boundingRadius is the largest distance from the body origin reached
// by any collider.
func boundingRadius(colliders []Collider) float64 {
	max := 0.0
	for _, c := range colliders {
		if r := c.boundingRadius(); r > max {
			max = r
		}
	}
	return max
}

// defaultInertiaTensor distributes mass uniformly across the collider
// vertices and sums the point-mass contributions. A lone sphere gets
// the closed form (2/5)mr². The per-vertex distribution ignores how
// the vertices span the volume, which biases the tensor for very
// anisotropic hulls - acceptable for stacked-box scale scenes.
func defaultInertiaTensor(colliders []Collider, mass float64) lin.M3 {
	if len(colliders) == 1 {
		if s, ok := colliders[0].(*Sphere); ok {
			i := (2.0 / 5.0) * mass * s.Radius * s.Radius
			return lin.M3{Xx: i, Yy: i, Zz: i}
		}
	}

	total := 0
	for _, c := range colliders {
		switch t := c.(type) {
		case *ConvexHull:
			total += len(t.verts)
		case *Sphere:
			total++ // treated as a point mass at its center.
		}
	}
	if total == 0 {
		return lin.M3{}
	}
	vmass := mass / float64(total)

	var m lin.M3
	accumulate := func(v lin.V3) {
		m.Xx += vmass * (v.Y*v.Y + v.Z*v.Z)
		m.Yy += vmass * (v.X*v.X + v.Z*v.Z)
		m.Zz += vmass * (v.X*v.X + v.Y*v.Y)
		m.Xy -= vmass * v.X * v.Y
		m.Yx -= vmass * v.X * v.Y
		m.Xz -= vmass * v.X * v.Z
		m.Zx -= vmass * v.X * v.Z
		m.Yz -= vmass * v.Y * v.Z
		m.Zy -= vmass * v.Y * v.Z
	}
	for _, c := range colliders {
		switch t := c.(type) {
		case *ConvexHull:
			for _, v := range t.verts {
				accumulate(v)
			}
		case *Sphere:
			accumulate(t.Center)
		}
	}
	return m
}

// unitRotationDrift returns how far the body rotation has wandered
// from unit length. Exposed for the solver's debug assertions.
func (b *Body) unitRotationDrift() float64 { return math.Abs(b.rot.Len() - 1) }

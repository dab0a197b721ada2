// Copyright © 2024 Galvanized Logic Inc.

// Package physics is a real-time simulation of real-world physics.
// Physics applies simulated forces to virtual 3D objects known as
// bodies. Physics updates body locations and directions based on
// forces and collisions with other bodies.
//
// The solver is an Extended Position-Based Dynamics (XPBD) pipeline:
// each frame is split into substeps and each substep runs collision
// detection (bounding-sphere broad phase, GJK, EPA, polygon clipping),
// a positional constraint solver, and a velocity-level pass for
// dynamic friction and restitution. Groups of mutually touching
// bodies form simulation islands that are put to sleep together
// once quiescent.
//
// Package physics is provided as part of the xpbd physics engine.
package physics

import "errors"

// Iteration caps for the iterative collision algorithms. Detection is
// abandoned for the substep when these are exceeded.
const (
	gjkMaxIterations = 100
	epaMaxIterations = 100
)

// Numerical tolerances. These are heuristic: they were tuned against
// the scenes in the example repositories and are collected here
// instead of being spread through the code as literals.
const (
	// planarEpsilon merges coplanar triangles into hull faces and
	// accepts points as inside clipping planes.
	planarEpsilon = 1e-6

	// epaTolerance stops polytope expansion once the support point
	// along the best normal no longer improves the face distance.
	epaTolerance = 1e-4

	// edgeTolerance is how much better an edge-edge normal must align
	// with the EPA normal than either face normal before an edge-edge
	// contact is preferred over face clipping.
	edgeTolerance = 1e-4

	// slipEpsilon guards the constraint math against division by a
	// vanishing correction magnitude.
	slipEpsilon = 1e-50

	// broadMargin widens broad-phase bounding spheres to absorb the
	// motion a body can accumulate within one substep.
	broadMargin = 0.1
)

// Sleeping thresholds. A simulation island deactivates once every
// body in it has been below both velocity thresholds for timeToSleep
// seconds of simulated time.
const (
	linearSleepThreshold  = 0.15 // m/s
	angularSleepThreshold = 0.15 // rad/s
	timeToSleep           = 1.0  // seconds
)

// Scratch buffer capacities preallocated so the collision algorithms
// do not reallocate mid-iteration.
const (
	epaFaceCapacity = 128  // polytope faces, normals, distances
	epaEdgeCapacity = 1024 // boundary edges collected while stitching
)

// Errors reported by the physics API. Numerical divergence inside the
// collision algorithms is logged and recovered locally; only
// structural problems surface as errors.
var (
	// ErrUnknownBody marks an operation referencing a body identity
	// that is not (or no longer) in the world.
	ErrUnknownBody = errors.New("physics: unknown body")

	// ErrUnknownConstraint marks an operation referencing a removed
	// or never-added constraint.
	ErrUnknownConstraint = errors.New("physics: unknown constraint")

	// ErrDegenerateGeometry marks collider construction input that
	// cannot form hull faces, eg. all points collinear.
	ErrDegenerateGeometry = errors.New("physics: degenerate collider geometry")

	// ErrSingularInertia marks a body whose inertia tensor could not
	// be inverted. The body cannot be simulated.
	ErrSingularInertia = errors.New("physics: singular inertia tensor")

	// ErrInvalidConfig marks configuration values the solver cannot
	// run with, eg. zero substeps.
	ErrInvalidConfig = errors.New("physics: invalid configuration")
)

// Copyright © 2024 Galvanized Logic Inc.

package physics

// collider.go holds the convex collision shapes attached to bodies:
// construction, topology, and the world-space caches refreshed each
// substep from the owning body's pose.

import (
	"math"

	"github.com/gazed/xpbd/math/lin"
)

// Collider is one convex collision shape attached to a body. Shape
// data is in body-local coordinates; world-space caches are refreshed
// from the owning body's pose before any collision query. Colliders
// do not handle scaling: scaled shapes are created pre-scaled.
//
// The concrete types are Sphere and ConvexHull. Non-convex shapes are
// the caller's responsibility: decompose them into a list of convex
// colliders on one body.
type Collider interface {
	boundingRadius() float64          // max reach from the body origin.
	update(pos lin.V3, rot *lin.Q)    // refresh the world-space cache.
}

// Sphere is a ball shaped collider. Center is in body-local
// coordinates and is commonly the origin.
type Sphere struct {
	Center lin.V3
	Radius float64

	center lin.V3 // world-space center, refreshed each substep.
}

// NewSphere creates a sphere collider of the given radius centered
// on the body origin.
func NewSphere(radius float64) *Sphere { return &Sphere{Radius: radius} }

func (s *Sphere) boundingRadius() float64 { return s.Center.Len() + s.Radius }

func (s *Sphere) update(pos lin.V3, rot *lin.Q) {
	s.center.MultQ(&s.Center, rot)
	s.center.Add(&s.center, &pos)
}

// Sphere
// =============================================================================
// ConvexHull

// hullFace is one planar polygon face of a convex hull. The elements
// index the hull vertices in an order consistent with the outward
// normal.
type hullFace struct {
	elements []uint32
	normal   lin.V3
}

// ConvexHull is a convex polytope collider built from an indexed
// triangle mesh. Construction merges coplanar triangles into polygon
// faces and records the vertex/face adjacency that the contact
// clipping stage walks.
type ConvexHull struct {
	verts []lin.V3   // unique body-local vertices.
	faces []hullFace // merged polygon faces with outward normals.

	// World-space mirrors, refreshed each substep.
	worldVerts   []lin.V3
	worldNormals []lin.V3

	// Topology: all indices into verts/faces.
	vertexToFaces     [][]uint32 // faces incident on each vertex.
	vertexToNeighbors [][]uint32 // vertices sharing an edge.
	faceToNeighbors   [][]uint32 // faces sharing at least one vertex.
}

func (h *ConvexHull) boundingRadius() float64 {
	max := 0.0
	for i := range h.verts {
		if d := h.verts[i].Len(); d > max {
			max = d
		}
	}
	return max
}

// update applies the body pose to every vertex and face normal.
// Normals are renormalized to recover drift.
func (h *ConvexHull) update(pos lin.V3, rot *lin.Q) {
	for i := range h.verts {
		v := &h.worldVerts[i]
		v.MultQ(&h.verts[i], rot)
		v.Add(v, &pos)
	}
	for i := range h.faces {
		n := &h.worldNormals[i]
		n.MultQ(&h.faces[i].normal, rot)
		n.Unit()
	}
}

// triangle and edge index tuples used during hull construction.
type triIndex struct{ a, b, c uint32 }
type edgeIndex struct{ a, b uint32 }

// sharesVertex returns true if the two triangles have a vertex
// in common.
func (t triIndex) sharesVertex(o triIndex) bool {
	return t.a == o.a || t.a == o.b || t.a == o.c ||
		t.b == o.a || t.b == o.b || t.b == o.c ||
		t.c == o.a || t.c == o.b || t.c == o.c
}

// NewConvexHull creates a convex hull collider from an indexed
// triangle mesh given in body-local coordinates. The mesh is expected
// to already be convex with consistent outward winding. Duplicate
// vertices are merged: duplicates are expected to be bit-identical.
// Returns ErrDegenerateGeometry for fewer than 4 positions or 12
// indices, or when a triangle has no valid normal (eg. collinear
// points) or a merged face has no closed border. Whether the mesh
// encloses a volume is not checked otherwise.
func NewConvexHull(positions []lin.V3, indices []uint32) (*ConvexHull, error) {
	if len(positions) < 4 || len(indices) < 12 || len(indices)%3 != 0 {
		return nil, ErrDegenerateGeometry
	}

	// Merge bit-identical vertices so topology maps line up.
	vertIndex := map[lin.V3]uint32{}
	verts := []lin.V3{}
	for _, v := range positions {
		if _, ok := vertIndex[v]; !ok {
			vertIndex[v] = uint32(len(verts))
			verts = append(verts, v)
		}
	}

	// Re-index the triangle list against the unique vertices.
	tris := make([]triIndex, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		tris = append(tris, triIndex{
			a: vertIndex[positions[indices[i]]],
			b: vertIndex[positions[indices[i+1]]],
			c: vertIndex[positions[indices[i+2]]],
		})
	}

	// Triangle to triangle adjacency: sharing at least one vertex.
	triNeighbors := make([][]uint32, len(tris))
	for i := range tris {
		for j := range tris {
			if i != j && tris[i].sharesVertex(tris[j]) {
				triNeighbors[i] = append(triNeighbors[i], uint32(j))
			}
		}
	}

	// Vertex to vertex adjacency from the triangle edges.
	vertexToNeighbors := make([][]uint32, len(verts))
	link := func(a, b uint32) {
		for _, n := range vertexToNeighbors[a] {
			if n == b {
				return
			}
		}
		vertexToNeighbors[a] = append(vertexToNeighbors[a], b)
	}
	for _, t := range tris {
		link(t.a, t.b)
		link(t.a, t.c)
		link(t.b, t.a)
		link(t.b, t.c)
		link(t.c, t.a)
		link(t.c, t.b)
	}

	// Merge coplanar triangles into polygon faces: seed a search from
	// each unprocessed triangle and collect neighbors whose normals
	// match within planarEpsilon.
	normalOf := func(t triIndex) lin.V3 {
		ab := lin.NewV3().Sub(&verts[t.b], &verts[t.a])
		ac := lin.NewV3().Sub(&verts[t.c], &verts[t.a])
		return *lin.NewV3().Cross(ab, ac).Unit()
	}
	faces := []hullFace{}
	vertexToFaces := make([][]uint32, len(verts))
	processed := make([]bool, len(tris))
	for i := range tris {
		if processed[i] {
			continue
		}
		normal := normalOf(tris[i])
		if normal.AeqZ() {
			return nil, ErrDegenerateGeometry
		}

		// Flood out over neighboring coplanar triangles.
		planar := []triIndex{}
		stack := []uint32{uint32(i)}
		processed[i] = true
		for len(stack) > 0 {
			ti := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			planar = append(planar, tris[ti])
			for _, ni := range triNeighbors[ti] {
				if processed[ni] {
					continue
				}
				n := normalOf(tris[ni])
				if math.Abs(n.Dot(&normal)-1.0) < planarEpsilon {
					processed[ni] = true
					stack = append(stack, ni)
				}
			}
		}

		face, err := polygonFace(planar, normal)
		if err != nil {
			return nil, err
		}
		faceIndex := uint32(len(faces))
		faces = append(faces, face)

		// Record face incidence for the merged triangle corners.
		noteFace := func(v uint32) {
			for _, f := range vertexToFaces[v] {
				if f == faceIndex {
					return
				}
			}
			vertexToFaces[v] = append(vertexToFaces[v], faceIndex)
		}
		for _, t := range planar {
			noteFace(t.a)
			noteFace(t.b)
			noteFace(t.c)
		}
	}

	// Face to face adjacency: sharing at least one vertex.
	faceToNeighbors := make([][]uint32, len(faces))
	for i := range faces {
		for j := range faces {
			if i != j && facesShareVertex(faces[i].elements, faces[j].elements) {
				faceToNeighbors[i] = append(faceToNeighbors[i], uint32(j))
			}
		}
	}

	h := &ConvexHull{
		verts:             verts,
		faces:             faces,
		worldVerts:        append([]lin.V3{}, verts...),
		worldNormals:      make([]lin.V3, len(faces)),
		vertexToFaces:     vertexToFaces,
		vertexToNeighbors: vertexToNeighbors,
		faceToNeighbors:   faceToNeighbors,
	}
	for i := range faces {
		h.worldNormals[i] = faces[i].normal
	}
	return h, nil
}

// polygonFace turns a set of coplanar triangles into one polygon face.
// The border is found by edge parity: an edge appearing in exactly one
// triangle of the set is a border edge. Border edges are then chained
// head-to-tail so the polygon indices stay consistent with the
// outward normal.
func polygonFace(tris []triIndex, normal lin.V3) (hullFace, error) {
	// Edge parity: interior edges appear twice and cancel out.
	edges := []edgeIndex{}
	toggle := func(e edgeIndex) {
		for i, c := range edges {
			if (c.a == e.a && c.b == e.b) || (c.a == e.b && c.b == e.a) {
				last := len(edges) - 1
				edges[i] = edges[last]
				edges = edges[:last]
				return
			}
		}
		edges = append(edges, e)
	}
	for _, t := range tris {
		toggle(edgeIndex{t.a, t.b})
		toggle(edgeIndex{t.b, t.c})
		toggle(edgeIndex{t.c, t.a})
	}
	if len(edges) < 3 {
		return hullFace{}, ErrDegenerateGeometry
	}

	// Chain the border edges head-to-tail.
	for i := 0; i < len(edges); i++ {
		current := edges[i]
		for j := i + 1; j < len(edges); j++ {
			candidate := edges[j]
			if current.b != candidate.a && current.b != candidate.b {
				continue
			}
			if current.b == candidate.b {
				candidate.a, candidate.b = candidate.b, candidate.a
			}
			edges[j] = edges[i+1]
			edges[i+1] = candidate
		}
	}

	elements := make([]uint32, 0, len(edges))
	for _, e := range edges {
		elements = append(elements, e.a)
	}
	return hullFace{elements: elements, normal: normal}, nil
}

// facesShareVertex returns true if the two faces have a vertex
// in common.
func facesShareVertex(e1, e2 []uint32) bool {
	for _, i1 := range e1 {
		for _, i2 := range e2 {
			if i1 == i2 {
				return true
			}
		}
	}
	return false
}

// NewBox creates a box shaped convex hull collider centered on the
// body origin. The box size is given by the half-extents so that the
// actual size is w=2*hx, h=2*hy, d=2*hz.
func NewBox(hx, hy, hz float64) *ConvexHull {
	// # Blender 4.0.2 Cube OBJ Y-up Z-forward
	verts := []lin.V3{
		{-hx, +hy, +hz}, // vertex 0
		{-hx, -hy, +hz}, // vertex 1
		{-hx, +hy, -hz}, // vertex 2
		{-hx, -hy, -hz}, // vertex 3
		{+hx, +hy, +hz}, // vertex 4
		{+hx, -hy, +hz}, // vertex 5
		{+hx, +hy, -hz}, // vertex 6
		{+hx, -hy, -hz}, // vertex 7
	}
	indices := []uint32{
		4, 2, 0, // top
		4, 6, 2, // top
		2, 7, 3, // back
		2, 6, 7, // back
		6, 5, 7, // right
		6, 4, 5, // right
		1, 7, 5, // bottom
		1, 3, 7, // bottom
		0, 3, 1, // left
		0, 2, 3, // left
		4, 1, 5, // front
		4, 0, 1, // front
	}
	hull, err := NewConvexHull(verts, indices)
	if err != nil {
		// The box mesh above is well formed: reaching here is a
		// developer error in the hull builder itself.
		panic(err)
	}
	return hull
}

// updateColliders refreshes the world-space caches of every collider
// from the owning body's pose.
func updateColliders(b *Body) {
	for _, c := range b.colliders {
		c.update(b.pos, &b.rot)
	}
}

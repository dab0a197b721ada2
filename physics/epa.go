// Copyright © 2024 Galvanized Logic Inc.

package physics

// epa.go implements the Expanding Polytope Algorithm. Starting from
// the GJK tetrahedron it grows a polytope on the Minkowski difference
// toward the face nearest the origin, yielding the collision normal
// and penetration depth.

import (
	"log/slog"
	"math"

	"github.com/gazed/xpbd/math/lin"
)

// epaScratch reuses the polytope buffers across substeps so polytope
// expansion never reallocates mid-iteration.
type epaScratch struct {
	polytope  []lin.V3
	faces     []triIndex
	normals   []lin.V3
	distances []float64
	edges     []edgeIndex
}

func newEpaScratch() *epaScratch {
	return &epaScratch{
		polytope:  make([]lin.V3, 0, epaFaceCapacity),
		faces:     make([]triIndex, 0, epaFaceCapacity),
		normals:   make([]lin.V3, 0, epaFaceCapacity),
		distances: make([]float64, 0, epaFaceCapacity),
		edges:     make([]edgeIndex, 0, epaEdgeCapacity),
	}
}

// faceNormalAndDistance computes the outward unit normal of a
// polytope face and the distance of its plane from the origin.
// When the plane passes through the origin the orientation is
// resolved by inspecting any other polytope vertex: the shape is
// convex, so all other vertices lie on one side. Returns false for a
// degenerate polytope where no orientation can be deduced.
func faceNormalAndDistance(face triIndex, polytope []lin.V3) (normal lin.V3, distance float64, ok bool) {
	a, b, c := &polytope[face.a], &polytope[face.b], &polytope[face.c]
	ab := lin.NewV3().Sub(b, a)
	ac := lin.NewV3().Sub(c, a)
	n := lin.NewV3().Cross(ab, ac).Unit()
	if n.X == 0.0 && n.Y == 0.0 && n.Z == 0.0 {
		slog.Error("epa: zero face normal")
		return normal, distance, false
	}

	// Distance from the face's infinite plane to the origin.
	distance = n.Dot(a)
	switch {
	case distance < 0:
		// The normal points inward: flip both so face winding
		// never needs to be tracked.
		n.Neg(n)
		distance = -distance
	case distance == 0:
		// The origin lies exactly on the face plane: orient off any
		// vertex not on the plane.
		resolved := false
		for i := range polytope {
			if d := n.Dot(&polytope[i]); d != 0 {
				if d > 0 {
					n.Neg(n)
				}
				resolved = true
				break
			}
		}
		if !resolved {
			// Every point is on the same plane: degenerate polytope.
			return normal, distance, false
		}
	}
	return *n, distance, true
}

// toggleEdge removes the edge if already present (in either direction)
// or appends it. Edges shared by two removed faces cancel, leaving the
// boundary of the removed region. Vertex positions are compared as
// well as indices because support points can repeat under different
// indices.
func toggleEdge(edges []edgeIndex, edge edgeIndex, polytope []lin.V3) []edgeIndex {
	for i := range edges {
		current := edges[i]
		if (current.a == edge.a && current.b == edge.b) ||
			(current.a == edge.b && current.b == edge.a) {
			return append(edges[:i], edges[i+1:]...)
		}
		cv1, cv2 := polytope[current.a], polytope[current.b]
		ev1, ev2 := polytope[edge.a], polytope[edge.b]
		if (cv1.Eq(&ev1) && cv2.Eq(&ev2)) || (cv1.Eq(&ev2) && cv2.Eq(&ev1)) {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, edge)
}

// triangleCentroid returns the centroid of triangle p1 p2 p3.
func triangleCentroid(p1, p2, p3 lin.V3) (centroid lin.V3) {
	centroid.Add(&p1, &p2).Add(&centroid, &p3)
	centroid.Scale(&centroid, 1.0/3.0)
	return centroid
}

// epa expands the GJK result tetrahedron until the support point
// along the current best normal stops improving, returning the
// collision normal and penetration depth. Returns ok=false when the
// polytope degenerates or the iteration cap is reached; the caller
// skips contact generation for the pair this substep.
func epa(c1, c2 Collider, s *simplex, scratch *epaScratch) (normal lin.V3, penetration float64, ok bool) {
	if s.num != 4 {
		slog.Error("epa: expecting a tetrahedron simplex", "num", s.num)
		return normal, penetration, false
	}
	polytope := append(scratch.polytope[:0], s.a, s.b, s.c, s.d)
	faces := append(scratch.faces[:0],
		triIndex{0, 1, 2}, // ABC
		triIndex{0, 2, 3}, // ACD
		triIndex{0, 3, 1}, // ADB
		triIndex{1, 2, 3}, // BCD
	)
	normals := scratch.normals[:0]
	distances := scratch.distances[:0]
	edges := scratch.edges[:0]
	defer func() {
		// Keep any capacity the buffers grew for the next pair.
		scratch.polytope = polytope[:0]
		scratch.faces = faces[:0]
		scratch.normals = normals[:0]
		scratch.distances = distances[:0]
		scratch.edges = edges[:0]
	}()

	minNormal := lin.NewV3()
	minDistance := math.MaxFloat64
	for _, face := range faces {
		n, d, faceOK := faceNormalAndDistance(face, polytope)
		if !faceOK {
			return normal, penetration, false
		}
		normals = append(normals, n)
		distances = append(distances, d)
		if d < minDistance {
			minDistance = d
			*minNormal = n
		}
	}

	for it := 0; it < epaMaxIterations; it++ {
		support := minkowskiSupport(c1, c2, *minNormal)

		// Converged once the support point lies on the current
		// closest face.
		if math.Abs(minNormal.Dot(&support)-minDistance) < epaTolerance {
			return *minNormal, minDistance, true
		}

		supportIdx := uint32(len(polytope))
		polytope = append(polytope, support)

		// Remove every face whose outward normal points toward the
		// new support point, collecting the boundary edges of the
		// removed region.
		for i := 0; i < len(faces); i++ {
			face := faces[i]
			centroid := triangleCentroid(polytope[face.a], polytope[face.b], polytope[face.c])
			toSupport := lin.NewV3().Sub(&support, &centroid)
			if normals[i].Dot(toSupport) > 0.0 {
				edges = toggleEdge(edges, edgeIndex{face.a, face.b}, polytope)
				edges = toggleEdge(edges, edgeIndex{face.b, face.c}, polytope)
				edges = toggleEdge(edges, edgeIndex{face.c, face.a}, polytope)

				// Relative order between the arrays is kept.
				faces = append(faces[:i], faces[i+1:]...)
				normals = append(normals[:i], normals[i+1:]...)
				distances = append(distances[:i], distances[i+1:]...)
				i--
			}
		}

		// Stitch a fan of new faces from the support point to each
		// boundary edge.
		for _, edge := range edges {
			face := triIndex{a: edge.a, b: edge.b, c: supportIdx}
			n, d, faceOK := faceNormalAndDistance(face, polytope)
			if !faceOK {
				return normal, penetration, false
			}
			faces = append(faces, face)
			normals = append(normals, n)
			distances = append(distances, d)
		}
		edges = edges[:0]

		minDistance = math.MaxFloat64
		for i, d := range distances {
			if d < minDistance {
				minDistance = d
				minNormal = &normals[i]
			}
		}
	}
	slog.Warn("epa did not converge")
	return normal, penetration, false
}

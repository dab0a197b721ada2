// Copyright © 2024 Galvanized Logic Inc.

package physics

// clipping.go turns an EPA collision normal into a contact manifold
// of 1-4 point pairs: sphere shortcuts, edge-edge closest points, or
// reference/incident face selection with Sutherland-Hodgman clipping.
// Based on https://research.ncl.ac.uk/game/mastersdegree/gametechnologies/previousinformation/physics5collisionmanifolds/

import (
	"log/slog"
	"math"

	"github.com/gazed/xpbd/math/lin"
)

// contact is one contact point pair in world space. The normal points
// from the first collider toward the second.
type contact struct {
	point1 lin.V3
	point2 lin.V3
	normal lin.V3
}

// clipPlane is a half-space used for polygon clipping: points on the
// normal side of the plane through point are inside.
type clipPlane struct {
	normal lin.V3
	point  lin.V3
}

// inside returns true if the position is on or above the plane.
func (p *clipPlane) inside(position lin.V3) bool {
	distance := -p.normal.Dot(&p.point)
	return position.Dot(&p.normal)+distance >= 0.0
}

// edgeIntersection computes where segment start-end crosses the
// plane, returning false when the segment is parallel to it.
func (p *clipPlane) edgeIntersection(start, end lin.V3, out *lin.V3) bool {
	ab := lin.NewV3().Sub(&end, &start)
	abp := p.normal.Dot(ab)
	if math.Abs(abp) <= planarEpsilon {
		return false
	}

	// Any point on the plane serves as the reference point.
	distance := -p.normal.Dot(&p.point)
	planar := lin.NewV3().Scale(&p.normal, -distance)

	// How far along the edge to travel before meeting the plane,
	// clamped to keep nearly parallel planes from blowing up.
	fac := -p.normal.Dot(lin.NewV3().Sub(&start, planar)) / abp
	fac = lin.Clamp(fac, 0.0, 1.0)

	out.Add(&start, ab.Scale(ab, fac))
	return true
}

// sutherlandHodgman clips the input polygon against each plane in
// turn. With cull true, vertices outside a plane are dropped instead
// of clipped to it - used for the final reference-plane pass where
// only penetrating points matter.
func sutherlandHodgman(polygon []lin.V3, planes []clipPlane, cull bool) []lin.V3 {
	if len(planes) == 0 {
		slog.Error("sutherlandHodgman called with no clip planes")
		return nil
	}

	// Ping-pong between the two lists, one plane at a time.
	input := append([]lin.V3{}, polygon...)
	output := []lin.V3{}
	crossing := lin.NewV3()
	for i := range planes {
		if len(input) == 0 {
			break
		}
		plane := &planes[i]

		start := input[len(input)-1]
		for _, end := range input {
			startIn, endIn := plane.inside(start), plane.inside(end)
			switch {
			case cull:
				if endIn {
					output = append(output, end)
				}
			case startIn && endIn:
				output = append(output, end)
			case startIn && !endIn:
				if plane.edgeIntersection(start, end, crossing) {
					output = append(output, *crossing)
				}
			case !startIn && endIn:
				if plane.edgeIntersection(start, end, crossing) {
					output = append(output, *crossing)
				}
				output = append(output, end)
			}
			// Both outside: the edge is dropped entirely.
			start = end
		}
		input, output = output, input[:0]
	}
	return input
}

// closestPointOnPlane projects position onto the plane.
func closestPointOnPlane(position lin.V3, plane *clipPlane) lin.V3 {
	d := lin.NewV3().Scale(&plane.normal, -1.0).Dot(&plane.point)
	offset := lin.NewV3().Scale(&plane.normal, plane.normal.Dot(&position)+d)
	return *lin.NewV3().Sub(&position, offset)
}

// boundaryPlanes builds the side clipping half-spaces of a reference
// face from its neighbor faces, normals inverted to face inward.
func boundaryPlanes(hull *ConvexHull, faceIndex uint32) []clipPlane {
	neighbors := hull.faceToNeighbors[faceIndex]
	planes := make([]clipPlane, 0, len(neighbors))
	for _, ni := range neighbors {
		p := clipPlane{point: hull.worldVerts[hull.faces[ni].elements[0]]}
		p.normal.Neg(&hull.worldNormals[ni])
		planes = append(planes, p)
	}
	return planes
}

// mostAlignedFace picks, among the faces incident on the support
// vertex, the one whose world normal best aligns with direction.
func mostAlignedFace(supportIdx uint32, hull *ConvexHull, direction lin.V3) uint32 {
	var selected uint32
	max := -math.MaxFloat64
	for _, fi := range hull.vertexToFaces[supportIdx] {
		if proj := hull.worldNormals[fi].Dot(&direction); proj > max {
			max = proj
			selected = fi
		}
	}
	return selected
}

// edgePair identifies one edge on each hull: support vertex plus one
// of its neighbors.
type edgePair struct {
	s1, n1 uint32 // edge on hull 1
	s2, n2 uint32 // edge on hull 2
}

// mostAlignedEdges finds the neighbor edge on each support vertex
// whose cross-product normal best aligns with the collision normal,
// trying both cross-product orientations.
func mostAlignedEdges(support1, support2 uint32, hull1, hull2 *ConvexHull,
	normal lin.V3, edgeNormal *lin.V3) edgePair {
	p1 := &hull1.worldVerts[support1]
	p2 := &hull2.worldVerts[support2]

	max := -math.MaxFloat64
	selected := edgePair{}
	for _, ni := range hull1.vertexToNeighbors[support1] {
		neighbor1 := hull1.worldVerts[ni]
		edge1 := lin.NewV3().Sub(p1, &neighbor1)
		for _, nj := range hull2.vertexToNeighbors[support2] {
			neighbor2 := hull2.worldVerts[nj]
			edge2 := lin.NewV3().Sub(p2, &neighbor2)

			candidate := lin.NewV3().Cross(edge1, edge2).Unit()
			inverted := lin.NewV3().Neg(candidate)
			if dot := candidate.Dot(&normal); dot > max {
				max = dot
				selected = edgePair{s1: support1, n1: ni, s2: support2, n2: nj}
				*edgeNormal = *candidate
			}
			if dot := inverted.Dot(&normal); dot > max {
				max = dot
				selected = edgePair{s1: support1, n1: ni, s2: support2, n2: nj}
				*edgeNormal = *inverted
			}
		}
	}
	return selected
}

// skewLineClosest finds the closest points between two skew lines
// p1+m*d1 and p2+n*d2 by solving the 2x2 normal equations. Returns
// false when the lines are parallel and the system is singular.
func skewLineClosest(p1, d1, p2, d2 lin.V3, l1, l2 *lin.V3) bool {
	n1 := d1.X*d2.X + d1.Y*d2.Y + d1.Z*d2.Z
	n2 := d2.X*d2.X + d2.Y*d2.Y + d2.Z*d2.Z
	m1 := -d1.X*d1.X - d1.Y*d1.Y - d1.Z*d1.Z
	m2 := -d2.X*d1.X - d2.Y*d1.Y - d2.Z*d1.Z
	r1 := -d1.X*p2.X + d1.X*p1.X - d1.Y*p2.Y + d1.Y*p1.Y - d1.Z*p2.Z + d1.Z*p1.Z
	r2 := -d2.X*p2.X + d2.X*p1.X - d2.Y*p2.Y + d2.Y*p1.Y - d2.Z*p2.Z + d2.Z*p1.Z

	det := n1*m2 - n2*m1
	if det == 0 {
		return false
	}
	n := (r1*m2 - r2*m1) / det
	m := (n1*r2 - n2*r1) / det
	l1.Add(&p1, l1.Scale(&d1, m))
	l2.Add(&p2, l2.Scale(&d2, n))
	return true
}

// faceVertices gathers the world-space vertices of a hull face.
func faceVertices(hull *ConvexHull, faceIndex uint32) []lin.V3 {
	elements := hull.faces[faceIndex].elements
	verts := make([]lin.V3, 0, len(elements))
	for _, e := range elements {
		verts = append(verts, hull.worldVerts[e])
	}
	return verts
}

// hullHullManifold generates the contact manifold between two convex
// hulls given the EPA collision normal: either a single edge-edge
// contact or the clipped incident face against the reference face.
func hullHullManifold(hull1, hull2 *ConvexHull, normal lin.V3, contacts []contact) []contact {
	invertedNormal := lin.NewV3().Neg(&normal)

	support1 := supportIndex(hull1, normal)
	support2 := supportIndex(hull2, *invertedNormal)
	face1 := mostAlignedFace(support1, hull1, normal)
	face2 := mostAlignedFace(support2, hull2, *invertedNormal)
	edgeNormal := lin.NewV3()
	edges := mostAlignedEdges(support1, support2, hull1, hull2, normal, edgeNormal)

	face1Dot := hull1.worldNormals[face1].Dot(&normal)
	face2Dot := hull2.worldNormals[face2].Dot(invertedNormal)
	edgeDot := edgeNormal.Dot(&normal)

	if edgeDot > face1Dot+edgeTolerance && edgeDot > face2Dot+edgeTolerance {
		// Edge-edge contact: closest points of the two edge lines.
		l1, l2 := lin.NewV3(), lin.NewV3()
		p1 := hull1.worldVerts[edges.s1]
		d1 := lin.NewV3().Sub(&hull1.worldVerts[edges.n1], &p1)
		p2 := hull2.worldVerts[edges.s2]
		d2 := lin.NewV3().Sub(&hull2.worldVerts[edges.n2], &p2)
		if skewLineClosest(p1, *d1, p2, *d2, l1, l2) {
			contacts = append(contacts, contact{point1: *l1, point2: *l2, normal: normal})
		}
		return contacts
	}

	// Face contact: the better aligned face is the reference, the
	// other the incident.
	face1IsReference := face1Dot > face2Dot
	var referencePoints, incidentPoints []lin.V3
	var sidePlanes []clipPlane
	if face1IsReference {
		referencePoints = faceVertices(hull1, face1)
		incidentPoints = faceVertices(hull2, face2)
		sidePlanes = boundaryPlanes(hull1, face1)
	} else {
		referencePoints = faceVertices(hull2, face2)
		incidentPoints = faceVertices(hull1, face1)
		sidePlanes = boundaryPlanes(hull2, face2)
	}

	clipped := sutherlandHodgman(incidentPoints, sidePlanes, false)

	// Clip-and-cull against the reference face plane itself, keeping
	// only points penetrating it.
	var referencePlane clipPlane
	if face1IsReference {
		referencePlane.normal.Neg(&hull1.worldNormals[face1])
	} else {
		referencePlane.normal.Neg(&hull2.worldNormals[face2])
	}
	referencePlane.point = referencePoints[0]
	final := sutherlandHodgman(clipped, []clipPlane{referencePlane}, true)

	for _, point := range final {
		closest := closestPointOnPlane(point, &referencePlane)
		diff := lin.NewV3().Sub(&point, &closest)

		// The clipped points belong to the incident object; project
		// each onto the reference plane to form the pair.
		var c contact
		var penetration float64
		if face1IsReference {
			penetration = diff.Dot(&normal)
			c.point1.Sub(&point, lin.NewV3().Scale(&normal, penetration))
			c.point2 = point
		} else {
			penetration = -diff.Dot(&normal)
			c.point1 = point
			c.point2.Add(&point, lin.NewV3().Scale(&normal, penetration))
		}
		c.normal = normal
		if penetration < 0.0 {
			contacts = append(contacts, c)
		}
	}
	if len(contacts) == 0 {
		slog.Debug("hullHullManifold: no contact points survived clipping")
	}
	return contacts
}

// contactManifold produces contact point pairs consistent with the
// EPA normal and penetration for any supported collider pairing.
func contactManifold(c1, c2 Collider, normal lin.V3, penetration float64, contacts []contact) []contact {
	switch {
	case isSphere(c1):
		// The sphere's "face" is its single support point.
		s := c1.(*Sphere)
		point := supportPoint(s, normal)
		var c contact
		c.point1 = point
		c.point2.Sub(&point, lin.NewV3().Scale(&normal, penetration))
		c.normal = normal
		contacts = append(contacts, c)
	case isSphere(c2):
		s := c2.(*Sphere)
		point := supportPoint(s, *lin.NewV3().Neg(&normal))
		var c contact
		c.point1.Add(&point, lin.NewV3().Scale(&normal, penetration))
		c.point2 = point
		c.normal = normal
		contacts = append(contacts, c)
	default:
		contacts = hullHullManifold(c1.(*ConvexHull), c2.(*ConvexHull), normal, contacts)
	}
	return contacts
}

func isSphere(c Collider) bool {
	_, ok := c.(*Sphere)
	return ok
}

// colliderContacts runs the narrow phase for one collider pair.
// Sphere-sphere pairs are solved analytically: GJK/EPA is both slow
// and inaccurate for them. Everything else runs GJK, then EPA, then
// manifold clipping.
func colliderContacts(c1, c2 Collider, scratch *epaScratch, contacts []contact) []contact {
	if s1, ok := c1.(*Sphere); ok {
		if s2, ok := c2.(*Sphere); ok {
			distance := lin.NewV3().Sub(&s2.center, &s1.center)
			distanceSqr := distance.Dot(distance)
			minDistance := s1.Radius + s2.Radius
			if distanceSqr < minDistance*minDistance {
				normal := distance.Unit()
				penetration := minDistance - math.Sqrt(distanceSqr)
				contacts = contactManifold(c1, c2, *normal, penetration, contacts)
			}
			return contacts
		}
	}

	var s simplex
	if gjkIntersects(c1, c2, &s) {
		normal, penetration, ok := epa(c1, c2, &s, scratch)
		if !ok {
			return contacts // divergence: skip the pair this substep.
		}
		contacts = contactManifold(c1, c2, normal, penetration, contacts)
	}
	return contacts
}

// bodyContacts runs the narrow phase across the collider lists of
// two bodies.
func bodyContacts(b1, b2 *Body, scratch *epaScratch, contacts []contact) []contact {
	for _, c1 := range b1.colliders {
		for _, c2 := range b2.colliders {
			contacts = colliderContacts(c1, c2, scratch, contacts)
		}
	}
	return contacts
}

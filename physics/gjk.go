// Copyright © 2024 Galvanized Logic Inc.

package physics

// gjk.go implements the Gilbert-Johnson-Keerthi intersection test.
// A simplex of 1-4 points on the Minkowski difference of two convex
// colliders is refined toward the origin; enclosing the origin means
// the colliders intersect. The final tetrahedron seeds EPA.

import (
	"log/slog"

	"github.com/gazed/xpbd/math/lin"
)

// simplex holds 1 to 4 points on the Minkowski difference.
// Point a is always the most recently added.
type simplex struct {
	a, b, c, d lin.V3
	num        uint32
}

// push shifts the existing points down and makes p the new point a.
func (s *simplex) push(p lin.V3) {
	switch s.num {
	case 1:
		s.b = s.a
	case 2:
		s.c = s.b
		s.b = s.a
	case 3:
		s.d = s.c
		s.c = s.b
		s.b = s.a
	default:
		slog.Error("simplex push on full simplex", "num", s.num)
	}
	s.a = p
	s.num++
}

// tripleCross returns (a x b) x c.
func tripleCross(a, b, c lin.V3) (tc lin.V3) {
	tc.Cross(&a, &b)
	tc.Cross(&tc, &c)
	return tc
}

// lineCase reduces a 2-point simplex, pointing direction at the
// origin from the nearest feature of segment ab.
func (s *simplex) lineCase(direction *lin.V3) bool {
	a, b := s.a, s.b
	ao := lin.NewV3().Neg(&a)
	ab := lin.NewV3().Sub(&b, &a)
	if ab.Dot(ao) >= 0.0 {
		s.a, s.b, s.num = a, b, 2
		*direction = tripleCross(*ab, *ao, *ab)
	} else {
		s.a, s.num = a, 1
		*direction = *ao
	}
	return false
}

// triangleCase reduces a 3-point simplex by the Voronoi region of
// triangle abc that contains the origin.
func (s *simplex) triangleCase(direction *lin.V3) bool {
	a, b, c := s.a, s.b, s.c
	ao := lin.NewV3().Neg(&a)
	ab := lin.NewV3().Sub(&b, &a)
	ac := lin.NewV3().Sub(&c, &a)
	abc := lin.NewV3().Cross(ab, ac)

	if lin.NewV3().Cross(abc, ac).Dot(ao) >= 0.0 {
		if ac.Dot(ao) >= 0.0 {
			// AC region
			s.a, s.b, s.num = a, c, 2
			*direction = tripleCross(*ac, *ao, *ac)
		} else if ab.Dot(ao) >= 0.0 {
			// AB region
			s.a, s.b, s.num = a, b, 2
			*direction = tripleCross(*ab, *ao, *ab)
		} else {
			// A region
			s.a, s.num = a, 1
			*direction = *ao
		}
		return false
	}
	if lin.NewV3().Cross(ab, abc).Dot(ao) >= 0.0 {
		if ab.Dot(ao) >= 0.0 {
			// AB region
			s.a, s.b, s.num = a, b, 2
			*direction = tripleCross(*ab, *ao, *ab)
		} else {
			// A region
			s.a, s.num = a, 1
			*direction = *ao
		}
		return false
	}
	if abc.Dot(ao) >= 0.0 {
		// ABC region ("up")
		s.a, s.b, s.c, s.num = a, b, c, 3
		*direction = *abc
	} else {
		// ABC region ("down")
		s.a, s.b, s.c, s.num = a, c, b, 3
		*direction = *abc.Neg(abc)
	}
	return false
}

// tetrahedronCase reduces a 4-point simplex. The three face normals
// containing the newest point a (winding toward the opposite vertex)
// decompose the space; the region is picked by sign bits. All three
// planes behind the origin means the origin is enclosed.
func (s *simplex) tetrahedronCase(direction *lin.V3) bool {
	a, b, c, d := s.a, s.b, s.c, s.d
	ao := lin.NewV3().Neg(&a)
	ab := lin.NewV3().Sub(&b, &a)
	ac := lin.NewV3().Sub(&c, &a)
	ad := lin.NewV3().Sub(&d, &a)
	abc := lin.NewV3().Cross(ab, ac)
	acd := lin.NewV3().Cross(ac, ad)
	adb := lin.NewV3().Cross(ad, ab)

	planes := uint8(0)
	if abc.Dot(ao) >= 0.0 {
		planes |= 0x1
	}
	if acd.Dot(ao) >= 0.0 {
		planes |= 0x2
	}
	if adb.Dot(ao) >= 0.0 {
		planes |= 0x4
	}

	switch planes {
	case 0x0:
		// Origin enclosed: intersection.
		return true
	case 0x1:
		// Triangle ABC
		if lin.NewV3().Cross(abc, ac).Dot(ao) >= 0.0 {
			if ac.Dot(ao) >= 0.0 {
				// AC region
				s.a, s.b, s.num = a, c, 2
				*direction = tripleCross(*ac, *ao, *ac)
			} else if ab.Dot(ao) >= 0.0 {
				// AB region
				s.a, s.b, s.num = a, b, 2
				*direction = tripleCross(*ab, *ao, *ab)
			} else {
				// A region
				s.a, s.num = a, 1
				*direction = *ao
			}
		} else if lin.NewV3().Cross(ab, abc).Dot(ao) >= 0.0 {
			if ab.Dot(ao) >= 0.0 {
				// AB region
				s.a, s.b, s.num = a, b, 2
				*direction = tripleCross(*ab, *ao, *ab)
			} else {
				// A region
				s.a, s.num = a, 1
				*direction = *ao
			}
		} else {
			// ABC region
			s.a, s.b, s.c, s.num = a, b, c, 3
			*direction = *abc
		}
	case 0x2:
		// Triangle ACD
		if lin.NewV3().Cross(acd, ad).Dot(ao) >= 0.0 {
			if ad.Dot(ao) >= 0.0 {
				// AD region
				s.a, s.b, s.num = a, d, 2
				*direction = tripleCross(*ad, *ao, *ad)
			} else if ac.Dot(ao) >= 0.0 {
				// AC region
				s.a, s.b, s.num = a, c, 2
				*direction = tripleCross(*ac, *ao, *ac)
			} else {
				// A region
				s.a, s.num = a, 1
				*direction = *ao
			}
		} else if lin.NewV3().Cross(ac, acd).Dot(ao) >= 0.0 {
			if ac.Dot(ao) >= 0.0 {
				// AC region
				s.a, s.b, s.num = a, c, 2
				*direction = tripleCross(*ac, *ao, *ac)
			} else {
				// A region
				s.a, s.num = a, 1
				*direction = *ao
			}
		} else {
			// ACD region
			s.a, s.b, s.c, s.num = a, c, d, 3
			*direction = *acd
		}
	case 0x3:
		// Line AC
		if ac.Dot(ao) >= 0.0 {
			s.a, s.b, s.num = a, c, 2
			*direction = tripleCross(*ac, *ao, *ac)
		} else {
			s.a, s.num = a, 1
			*direction = *ao
		}
	case 0x4:
		// Triangle ADB
		if lin.NewV3().Cross(adb, ab).Dot(ao) >= 0.0 {
			if ab.Dot(ao) >= 0.0 {
				// AB region
				s.a, s.b, s.num = a, b, 2
				*direction = tripleCross(*ab, *ao, *ab)
			} else if ad.Dot(ao) >= 0.0 {
				// AD region
				s.a, s.b, s.num = a, d, 2
				*direction = tripleCross(*ad, *ao, *ad)
			} else {
				// A region
				s.a, s.num = a, 1
				*direction = *ao
			}
		} else if lin.NewV3().Cross(ad, adb).Dot(ao) >= 0.0 {
			if ad.Dot(ao) >= 0.0 {
				// AD region
				s.a, s.b, s.num = a, d, 2
				*direction = tripleCross(*ad, *ao, *ad)
			} else {
				// A region
				s.a, s.num = a, 1
				*direction = *ao
			}
		} else {
			// ADB region
			s.a, s.b, s.c, s.num = a, d, b, 3
			*direction = *adb
		}
	case 0x5:
		// Line AB
		if ab.Dot(ao) >= 0.0 {
			s.a, s.b, s.num = a, b, 2
			*direction = tripleCross(*ab, *ao, *ab)
		} else {
			s.a, s.num = a, 1
			*direction = *ao
		}
	case 0x6:
		// Line AD
		if ad.Dot(ao) >= 0.0 {
			s.a, s.b, s.num = a, d, 2
			*direction = tripleCross(*ad, *ao, *ad)
		} else {
			s.a, s.num = a, 1
			*direction = *ao
		}
	case 0x7:
		// Point A
		s.a, s.num = a, 1
		*direction = *ao
	}
	return false
}

// reduce dispatches to the simplex case for the current point count,
// returning true once the origin is enclosed.
func (s *simplex) reduce(direction *lin.V3) bool {
	switch s.num {
	case 2:
		return s.lineCase(direction)
	case 3:
		return s.triangleCase(direction)
	case 4:
		return s.tetrahedronCase(direction)
	}
	return false
}

// gjkIntersects returns true when the two colliders intersect.
// On intersection, out (when non-nil) receives the enclosing
// tetrahedron for EPA. Tie-breaking is deterministic so identical
// inputs produce identical simplex sequences.
func gjkIntersects(c1, c2 Collider, out *simplex) bool {
	var s simplex
	s.a = minkowskiSupport(c1, c2, lin.V3{X: 0, Y: 0, Z: 1})
	s.num = 1
	direction := lin.NewV3().Scale(&s.a, -1.0)
	for i := 0; i < gjkMaxIterations; i++ {
		next := minkowskiSupport(c1, c2, *direction)
		if next.Dot(direction) < 0.0 {
			return false // no intersection: origin outside support plane.
		}
		s.push(next)
		if s.reduce(direction) {
			if out != nil {
				*out = s
			}
			return true
		}
	}
	return false
}

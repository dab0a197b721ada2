// Copyright © 2024 Galvanized Logic Inc.

package physics

// support.go maps search directions to extreme points on colliders.
// GJK and EPA run entirely on these mappings.

import (
	"math"

	"github.com/gazed/xpbd/math/lin"
)

// supportIndex returns the index of the hull vertex farthest along
// direction d. Ties break to the lowest index so identical inputs
// always produce identical contact sequences.
func supportIndex(h *ConvexHull, d lin.V3) uint32 {
	selected := uint32(0)
	max := -math.MaxFloat64
	for i := range h.worldVerts {
		if dot := h.worldVerts[i].Dot(&d); dot > max {
			selected = uint32(i)
			max = dot
		}
	}
	return selected
}

// supportPoint returns the point of the collider farthest along
// direction d, in world space.
func supportPoint(c Collider, d lin.V3) lin.V3 {
	switch t := c.(type) {
	case *ConvexHull:
		return t.worldVerts[supportIndex(t, d)]
	case *Sphere:
		offset := lin.NewV3().Set(&d).Unit()
		offset.Scale(offset, t.Radius)
		return *offset.Add(&t.center, offset)
	}
	return lin.V3{}
}

// minkowskiSupport returns the support point of the Minkowski
// difference of the two colliders along direction d:
// support1(d) - support2(-d).
func minkowskiSupport(c1, c2 Collider, d lin.V3) lin.V3 {
	s1 := supportPoint(c1, d)
	s2 := supportPoint(c2, *lin.NewV3().Neg(&d))
	return *lin.NewV3().Sub(&s1, &s2)
}

// Copyright © 2024 Galvanized Logic Inc.

package physics

// broad.go enumerates candidate collision pairs with bounding-sphere
// tests and groups bodies into simulation islands with union-find.
// The pair scan is O(n²): acceptable up to a few hundred bodies, and
// a grid or sort-and-sweep replacement would be a drop-in.

import "github.com/gazed/xpbd/math/lin"

// broadPair is a candidate collision pair of dense body indices.
type broadPair struct {
	b1, b2 uint32
}

// broadPairs appends every unordered body pair whose bounding spheres
// come within broadMargin of touching. The margin absorbs motion
// within the substep. Pairs are emitted in index order so contact
// generation is deterministic.
func broadPairs(bodies []Body, pairs []broadPair) []broadPair {
	distance := lin.NewV3()
	for i := range bodies {
		b1 := &bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b2 := &bodies[j]
			reach := b1.radius + b2.radius + broadMargin
			if distance.Sub(&b1.pos, &b2.pos).Len() <= reach {
				pairs = append(pairs, broadPair{b1: uint32(i), b2: uint32(j)})
			}
		}
	}
	return pairs
}

// unionFind tracks connected components over dense body indices.
type unionFind struct {
	parent []uint32
}

// reset prepares the structure for n singleton sets.
func (u *unionFind) reset(n int) {
	if cap(u.parent) < n {
		u.parent = make([]uint32, n)
	}
	u.parent = u.parent[:n]
	for i := range u.parent {
		u.parent[i] = uint32(i)
	}
}

// find returns the set root of x, halving paths as it walks.
func (u *unionFind) find(x uint32) uint32 {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union merges the sets containing x and y.
func (u *unionFind) union(x, y uint32) {
	u.parent[u.find(y)] = u.find(x)
}

// islands partitions the non-fixed bodies into simulation islands:
// maximal sets mutually reachable through the broad-phase pairs and
// the user constraints. Fixed bodies are background anchors and never
// join an island. The result reuses the given backing storage and
// also fills islandOf with each body's island index (-1 for fixed).
func islands(bodies []Body, pairs []broadPair, joined [][2]uint32,
	uf *unionFind, out [][]uint32, islandOf []int32) [][]uint32 {
	uf.reset(len(bodies))
	for _, p := range pairs {
		if !bodies[p.b1].fixed && !bodies[p.b2].fixed {
			uf.union(p.b1, p.b2)
		}
	}

	// Bodies sharing a constraint must share an island, or one side
	// could sleep while the other keeps pulling on it.
	for _, j := range joined {
		if !bodies[j[0]].fixed && !bodies[j[1]].fixed {
			uf.union(j[0], j[1])
		}
	}

	rootIsland := map[uint32]int32{}
	for i := range bodies {
		if bodies[i].fixed {
			islandOf[i] = -1
			continue
		}
		root := uf.find(uint32(i))
		index, ok := rootIsland[root]
		if !ok {
			index = int32(len(out))
			rootIsland[root] = index
			out = append(out, nil)
		}
		out[index] = append(out[index], uint32(i))
		islandOf[i] = index
	}
	return out
}

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package quadtree

import (
	"fmt"
	"math/bits"

	"github.com/gogama/kdquad/bbox"
)

// MaxDepth is the deepest QuadTree New will build. The deepest level of
// a QuadTree of depth d holds 4^d boxes, so depth 10 is already over a
// million boxes.
const MaxDepth = 10

// A Quadrant names one of the four boxes produced by splitting a box at
// its centroid. The constants are in the order Split returns them.
type Quadrant int

const (
	NW Quadrant = iota
	NE
	SW
	SE
)

var quadrantNames = [...]string{"NW", "NE", "SW", "SE"}

// String returns the compass abbreviation of the Quadrant.
func (q Quadrant) String() string {
	if q < NW || q > SE {
		return fmt.Sprintf("Quadrant(%d)", int(q))
	}
	return quadrantNames[q]
}

// Split divides a box at its centroid into its NW, NE, SW, and SE
// quadrants, in that order. Adjacent quadrants share their common edge.
func Split(b bbox.Box) [4]bbox.Box {
	cx, cy := b.Centroid()
	return [4]bbox.Box{
		NW: bbox.New(b.XMin, cx, cy, b.YMax),
		NE: bbox.New(cx, b.XMax, cy, b.YMax),
		SW: bbox.New(b.XMin, cx, b.YMin, cy),
		SE: bbox.New(cx, b.XMax, b.YMin, cy),
	}
}

// QuadTree is the uniform subdivision of a root box down to a fixed
// depth.
type QuadTree struct {
	// quads holds one list of boxes per level. quads[0] is the root box
	// alone and quads[d] holds the 4^d boxes of level d.
	quads [][]bbox.Box
}

// New builds the QuadTree of a root box down to the given depth, which
// must be in [1, MaxDepth].
//
// The levels are built iteratively. Level d+1 lists the quadrants of
// every box of level d, each parent contributing NW, NE, SW, SE in turn,
// so every level tiles the root box without gaps or overlaps.
func New(root bbox.Box, depth int) (*QuadTree, error) {
	if depth < 1 {
		return nil, fmtErr("depth must be at least 1 (%d)", depth)
	} else if depth > MaxDepth {
		return nil, fmtErr("depth %d exceeds maximum %d", depth, MaxDepth)
	}

	quads := make([][]bbox.Box, depth+1)
	quads[0] = []bbox.Box{root}
	for d := 1; d <= depth; d++ {
		level := make([]bbox.Box, 0, 4*len(quads[d-1]))
		for _, parent := range quads[d-1] {
			children := Split(parent)
			level = append(level, children[:]...)
		}
		quads[d] = level
	}
	return &QuadTree{quads: quads}, nil
}

// Depth returns the depth of the deepest level.
func (qt *QuadTree) Depth() int {
	return len(qt.quads) - 1
}

// Root returns the box at level 0.
func (qt *QuadTree) Root() bbox.Box {
	return qt.quads[0][0]
}

// Quads returns the boxes at level d. The returned slice is shared with
// the QuadTree and must not be modified. Panics if d is outside
// [0, Depth()].
func (qt *QuadTree) Quads(d int) []bbox.Box {
	if d < 0 || d >= len(qt.quads) {
		fmtPanic("level %d out of range [0, %d]", d, qt.Depth())
	}
	return qt.quads[d][:len(qt.quads[d]):len(qt.quads[d])]
}

// Quadrants returns every level of the QuadTree, indexed by depth. The
// returned levels are shared with the QuadTree and must not be
// modified.
func (qt *QuadTree) Quadrants() [][]bbox.Box {
	levels := make([][]bbox.Box, len(qt.quads))
	for d := range qt.quads {
		levels[d] = qt.Quads(d)
	}
	return levels
}

// String returns a summary description of the QuadTree.
func (qt *QuadTree) String() string {
	return fmt.Sprintf("QuadTree{Root:%s,Depth:%d}", qt.Root(), qt.Depth())
}

// Level returns ceil(log4(n)), the number of subdivision levels needed
// for at least n boxes. Panics if n is less than 1.
func Level(n int) int {
	if n < 1 {
		textPanic("level undefined for n < 1")
	}
	return (bits.Len(uint(n-1)) + 1) / 2
}

// AtLeast returns the smallest power of four that is at least n, the
// box count of the shallowest level with n or more boxes. Panics if n
// is less than 1.
func AtLeast(n int) int {
	return 1 << (2 * Level(n))
}

// AtMost returns the largest power of four that is at most n, the box
// count of the deepest level with n or fewer boxes. Panics if n is less
// than 1.
func AtMost(n int) int {
	if n < 1 {
		textPanic("level undefined for n < 1")
	}
	return 1 << (2 * ((bits.Len(uint(n)) - 1) / 2))
}

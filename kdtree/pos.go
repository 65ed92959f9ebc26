// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdtree

import "math/bits"

// Pos is the 1-based breadth-first position of a node in a complete
// binary tree. The root is at position 1 and the children of position
// p are at 2p and 2p+1.
//
// Pos does no bounds checking. Callers must keep positions within the
// storage length of the tree they navigate.
type Pos int

// Root is the position of the root node.
const Root Pos = 1

// Tree returns the 1-based tree position.
func (p Pos) Tree() int {
	return int(p)
}

// Storage returns the 0-based array slot holding the node at p.
func (p Pos) Storage() int {
	return int(p) - 1
}

// Left returns the position of the left child.
func (p Pos) Left() Pos {
	return 2 * p
}

// Right returns the position of the right child.
func (p Pos) Right() Pos {
	return 2*p + 1
}

// Depth returns the level of p, with the root at level 0.
func (p Pos) Depth() int {
	return bits.Len(uint(p)) - 1
}

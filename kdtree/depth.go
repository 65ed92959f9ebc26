// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdtree

import "math/bits"

// MaxTreeDepth is the deepest tree New will allocate. A tree of depth
// d occupies 2^d-1 node slots, so this bounds a tree to about 1 GiB of
// nodes and roughly 16 million points.
const MaxTreeDepth = 24

// TreeDepth returns ceil(log2(n)), the minimum depth at which a
// balanced binary tree has room for n leaves. Panics if n is less than
// 1.
//
// The result is computed with integer arithmetic so that exact powers
// of two never round up.
func TreeDepth(n int) int {
	if n < 1 {
		textPanic("tree depth undefined for n < 1")
	}
	return bits.Len(uint(n - 1))
}

// TreeDepthForMaxLeafSize returns the shallowest depth at which a
// perfectly balanced tree over totalSize points holds no more than
// maxPerLeaf points in any leaf. The result is at least 1. Panics if
// either argument is less than 1.
//
// Starting from 2^TreeDepth(totalSize), an upper bound on the point
// count, the bound is halved once per additional level until it fits.
func TreeDepthForMaxLeafSize(totalSize, maxPerLeaf int) int {
	if maxPerLeaf < 1 {
		textPanic("max leaf size must be at least 1")
	}
	size := 1 << TreeDepth(totalSize)
	depth := 1
	for size > maxPerLeaf {
		size >>= 1
		depth++
	}
	return depth
}

// usefulDepth returns the depth past which a tree over n points holds
// only unused slots. At level TreeDepth(n) every subset has at most one
// point, so no deeper level is ever written.
func usefulDepth(n int) int {
	if n <= 1 {
		return 1
	}
	return TreeDepth(n) + 1
}

// storageLen returns the node slot count of a complete binary tree of
// the given depth.
func storageLen(depth int) int {
	return 1<<depth - 1
}

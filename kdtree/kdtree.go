// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdtree

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/gogama/kdquad/bbox"
)

// Options configures the depth and construction of a KDTree. The zero
// value derives the depth from the point count and builds on the
// calling goroutine.
type Options struct {
	// MaxDepth is the number of tree levels. Zero means
	// TreeDepth(len(points)). A depth beyond TreeDepth(len(points))+1
	// would add only unused levels and is lowered to that value.
	MaxDepth int
	// MaxElementsPerLeaf caps the leaf size of a perfectly balanced
	// tree. When the cap requires a deeper tree than MaxDepth, the
	// deeper depth wins; the cap never makes a tree shallower. Zero
	// means no cap.
	MaxElementsPerLeaf int
	// Parallelism bounds the number of goroutines building sibling
	// subtrees concurrently. Values below 2 build sequentially. The
	// resulting tree does not depend on Parallelism.
	Parallelism int
}

func (o *Options) validate() error {
	if o.MaxDepth < 0 {
		return fmtErr("max depth may not be negative (%d)", o.MaxDepth)
	} else if o.MaxDepth > MaxTreeDepth {
		return fmtErr("max depth %d exceeds maximum %d", o.MaxDepth, MaxTreeDepth)
	} else if o.MaxElementsPerLeaf < 0 {
		return fmtErr("max elements per leaf may not be negative (%d)", o.MaxElementsPerLeaf)
	} else if o.Parallelism < 0 {
		return fmtErr("parallelism may not be negative (%d)", o.Parallelism)
	}
	return nil
}

// depth returns the effective tree depth for n points.
func (o *Options) depth(n int) (int, error) {
	depth := o.MaxDepth
	if depth == 0 {
		depth = TreeDepth(n)
	}
	if o.MaxElementsPerLeaf > 0 {
		if d := TreeDepthForMaxLeafSize(n, o.MaxElementsPerLeaf); d > depth {
			depth = d
		}
	}
	// A single point gives TreeDepth 0, but the root itself needs a
	// slot.
	if depth < 1 {
		depth = 1
	}
	if u := usefulDepth(n); depth > u {
		depth = u
	}
	if depth > MaxTreeDepth {
		return 0, fmtErr("tree depth %d exceeds maximum %d", depth, MaxTreeDepth)
	}
	return depth, nil
}

// KDTree is a balanced two-dimensional KD-tree over a static point set,
// stored as a flat array of 2^MaxDepth-1 nodes.
type KDTree struct {
	// maxDepth is the number of levels in the complete binary tree.
	maxDepth int
	// numPoints is the number of points the tree was built from.
	numPoints int
	// nodes holds one Node per tree position, in breadth-first order.
	nodes []Node
	// bounds is the minimum bounding rectangle of the input points.
	bounds bbox.Box
}

// New builds a KDTree over a non-empty point set. The input slice is
// not modified. Returns ErrEmpty if there are no points, and an error
// if the options are invalid or a coordinate is NaN or infinite.
//
// Building proceeds top-down. At each position the point subset is
// stable-sorted on the depth's axis and split by position, with the
// first ceil(len/2) points going left. The node records the largest
// left coordinate as its Partition. A subset of one point, or any
// subset at the last level, becomes a Leaf.
func New(points []Point, opts Options) (*KDTree, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	depth, err := opts.depth(len(points))
	if err != nil {
		return nil, err
	}

	// Copy the points, since building sorts subsets in place, and pull
	// out the coordinate columns for the bounding box.
	work := make([]Point, len(points))
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i := range points {
		if !finite(points[i].X) || !finite(points[i].Y) {
			return nil, fmtErr("point %d has a non-finite coordinate", points[i].ID)
		}
		work[i] = points[i]
		xs[i] = points[i].X
		ys[i] = points[i].Y
	}

	b := builder{
		maxDepth: depth,
		nodes:    make([]Node, storageLen(depth)),
	}
	if opts.Parallelism > 1 {
		b.sem = make(chan struct{}, opts.Parallelism-1)
	}
	b.build(work, 0, Root)

	return &KDTree{
		maxDepth:  depth,
		numPoints: len(points),
		nodes:     b.nodes,
		bounds:    bbox.FromPoints(xs, ys),
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// A builder carries the shared state of one KDTree construction.
// Sibling subtrees write disjoint node slots and own disjoint subslices
// of the point array, so they need no locking.
type builder struct {
	maxDepth int
	nodes    []Node
	// sem limits extra goroutines. It is nil for sequential builds.
	sem chan struct{}
}

func (b *builder) build(pts []Point, depth int, p Pos) {
	n := &b.nodes[p.Storage()]
	n.Pos = p
	n.Depth = depth
	n.Axis = bbox.AxisAt(depth)

	if len(pts) == 1 || depth+1 == b.maxDepth {
		n.Kind = Leaf
		n.Elements = make([]int64, len(pts))
		for i := range pts {
			n.Elements[i] = pts[i].ID
		}
		return
	}

	axis := n.Axis
	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].Coord(axis) < pts[j].Coord(axis)
	})
	half := (len(pts) + 1) / 2
	n.Kind = Internal
	n.Partition = pts[half-1].Coord(axis)

	left, right := pts[:half], pts[half:]
	b.fork(
		func() { b.build(left, depth+1, p.Left()) },
		func() { b.build(right, depth+1, p.Right()) },
	)
}

// fork runs left and right, concurrently if a goroutine slot is free.
func (b *builder) fork(left, right func()) {
	if b.sem != nil {
		select {
		case b.sem <- struct{}{}:
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer func() {
					<-b.sem
					wg.Done()
				}()
				left()
			}()
			right()
			wg.Wait()
			return
		default:
		}
	}
	left()
	right()
}

// BoundingBox returns the minimum bounding rectangle of the points the
// tree was built from.
func (t *KDTree) BoundingBox() bbox.Box {
	return t.bounds
}

// MaxDepth returns the number of levels of the tree's complete binary
// tree layout.
func (t *KDTree) MaxDepth() int {
	return t.maxDepth
}

// NumPoints returns the number of points the tree was built from.
func (t *KDTree) NumPoints() int {
	return t.numPoints
}

// Len returns the number of node slots, 2^MaxDepth()-1.
func (t *KDTree) Len() int {
	return len(t.nodes)
}

// Node returns a copy of the node at a tree position. Panics if p is
// outside [1, Len()].
func (t *KDTree) Node(p Pos) Node {
	t.checkPos(p)
	n := t.nodes[p.Storage()]
	if n.Elements != nil {
		n.Elements = append([]int64(nil), n.Elements...)
	}
	return n
}

func (t *KDTree) checkPos(p Pos) {
	if p < Root || p.Storage() >= len(t.nodes) {
		fmtPanic("position %d out of range [1, %d]", p, len(t.nodes))
	}
}

// String returns a summary description of the KDTree.
func (t *KDTree) String() string {
	return fmt.Sprintf("KDTree{Bounds:%s,MaxDepth:%d,NumPoints:%d,Len:%d}", t.bounds, t.maxDepth, t.numPoints, len(t.nodes))
}

// Partitions returns the regions of the tree level by level. Element d
// holds the boxes of the nodes at depth d in left-to-right order, the
// first element being the single BoundingBox of the whole tree.
//
// A child's box is its parent's box cut at the parent's Partition: the
// left child keeps the part at or below it and the right child the part
// at or above it. Sibling boxes therefore share the partition line.
// Descent stops at leaves, so a tree whose leaves are all at the last
// level has 2^d boxes at depth d.
func (t *KDTree) Partitions() [][]bbox.Box {
	var levels [][]bbox.Box
	t.partitions(Root, t.bounds, &levels)
	return levels
}

func (t *KDTree) partitions(p Pos, b bbox.Box, levels *[][]bbox.Box) {
	n := &t.nodes[p.Storage()]
	if n.Depth == len(*levels) {
		*levels = append(*levels, nil)
	}
	(*levels)[n.Depth] = append((*levels)[n.Depth], b)
	if n.Kind != Internal {
		return
	}
	t.partitions(p.Left(), b.ReduceMax(n.Axis, n.Partition), levels)
	t.partitions(p.Right(), b.ReduceMin(n.Axis, n.Partition), levels)
}

// RangeQuery returns the ids stored in every leaf whose region may
// intersect the query box. The result is a candidate set: it contains
// every point inside q, possibly alongside points of the same leaves
// that lie outside q. The order of the result is not defined.
//
// At each internal node the query descends left when q reaches down to
// the partition value and right when q reaches up to it. A box touching
// the partition line visits both sides. Each id appears at most once
// because leaves are disjoint.
func (t *KDTree) RangeQuery(q bbox.Box) []int64 {
	return t.rangeQuery(Root, q, make([]int64, 0))
}

func (t *KDTree) rangeQuery(p Pos, q bbox.Box, r []int64) []int64 {
	n := &t.nodes[p.Storage()]
	switch n.Kind {
	case Leaf:
		return append(r, n.Elements...)
	case Internal:
		left, right := q.Partition(n.Partition, n.Axis)
		if left {
			r = t.rangeQuery(p.Left(), q, r)
		}
		if right {
			r = t.rangeQuery(p.Right(), q, r)
		}
	}
	return r
}

// Closest returns the ids of the leaf whose region contains (x, y).
//
// Closest makes a single descent: at each internal node it goes left
// when the point's coordinate is strictly less than the partition value
// and right otherwise, never visiting the sibling subtree. The leaf it
// returns is therefore not guaranteed to contain the point nearest to
// (x, y). Callers rank the returned ids by true distance themselves.
func (t *KDTree) Closest(x, y float64) []int64 {
	c := [bbox.NumAxes]float64{x, y}
	p := Root
	for {
		n := &t.nodes[p.Storage()]
		if n.Kind != Internal {
			return append([]int64(nil), n.Elements...)
		}
		if c[n.Axis] < n.Partition {
			p = p.Left()
		} else {
			p = p.Right()
		}
	}
}

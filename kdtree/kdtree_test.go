// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdtree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/gogama/kdquad/bbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wikiPoints is the classic six point KD-tree example.
var wikiPoints = []Point{
	{ID: 1, X: 2, Y: 3},
	{ID: 2, X: 5, Y: 4},
	{ID: 3, X: 9, Y: 6},
	{ID: 4, X: 4, Y: 7},
	{ID: 5, X: 8, Y: 1},
	{ID: 6, X: 7, Y: 2},
}

func wikiTree(t *testing.T) *KDTree {
	tree, err := New(wikiPoints, Options{MaxDepth: 3})
	require.NoError(t, err)
	return tree
}

func randomPoints(seed int64, n int) []Point {
	r := rand.New(rand.NewSource(seed))
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{ID: int64(i + 1), X: r.Float64() * 100, Y: r.Float64()*50 - 25}
		if i%5 == 0 {
			// Quantize some coordinates to force ties.
			pts[i].X = math.Round(pts[i].X / 10)
		}
	}
	return pts
}

func leafIDs(tree *KDTree) []int64 {
	var ids []int64
	for i := range tree.nodes {
		if tree.nodes[i].Kind == Leaf {
			ids = append(ids, tree.nodes[i].Elements...)
		}
	}
	return ids
}

func sortedIDs(ids []int64) []int64 {
	c := append([]int64(nil), ids...)
	sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	return c
}

func pointIDs(pts []Point) []int64 {
	ids := make([]int64, len(pts))
	for i := range pts {
		ids[i] = pts[i].ID
	}
	return sortedIDs(ids)
}

func TestNew(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		testCases := []struct {
			name     string
			points   []Point
			opts     Options
			expected string
		}{
			{"Nil", nil, Options{}, "kdtree: empty point set"},
			{"Empty", []Point{}, Options{MaxDepth: 3}, "kdtree: empty point set"},
			{"NegativeDepth", wikiPoints, Options{MaxDepth: -1}, "kdtree: max depth may not be negative (-1)"},
			{"NegativeLeafSize", wikiPoints, Options{MaxElementsPerLeaf: -2}, "kdtree: max elements per leaf may not be negative (-2)"},
			{"NegativeParallelism", wikiPoints, Options{Parallelism: -3}, "kdtree: parallelism may not be negative (-3)"},
			{"TooDeep", wikiPoints, Options{MaxDepth: MaxTreeDepth + 1}, "kdtree: max depth 25 exceeds maximum 24"},
			{"NaN", []Point{{ID: 9, X: math.NaN(), Y: 0}}, Options{}, "kdtree: point 9 has a non-finite coordinate"},
			{"PosInf", []Point{{ID: 1, X: 1, Y: 1}, {ID: 2, X: 2, Y: 1}, {ID: 3, X: math.Inf(1), Y: 2}}, Options{}, "kdtree: point 3 has a non-finite coordinate"},
			{"NegInf", []Point{{ID: 4, X: 0, Y: math.Inf(-1)}}, Options{}, "kdtree: point 4 has a non-finite coordinate"},
		}

		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				tree, err := New(testCase.points, testCase.opts)

				assert.Nil(t, tree)
				assert.EqualError(t, err, testCase.expected)
			})
		}

		_, err := New(nil, Options{})
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("Wiki", func(t *testing.T) {
		tree := wikiTree(t)

		expected := []Node{
			{Pos: 1, Depth: 0, Axis: bbox.X, Kind: Internal, Partition: 5},
			{Pos: 2, Depth: 1, Axis: bbox.Y, Kind: Internal, Partition: 4},
			{Pos: 3, Depth: 1, Axis: bbox.Y, Kind: Internal, Partition: 2},
			{Pos: 4, Depth: 2, Axis: bbox.X, Kind: Leaf, Elements: []int64{1, 2}},
			{Pos: 5, Depth: 2, Axis: bbox.X, Kind: Leaf, Elements: []int64{4}},
			{Pos: 6, Depth: 2, Axis: bbox.X, Kind: Leaf, Elements: []int64{5, 6}},
			{Pos: 7, Depth: 2, Axis: bbox.X, Kind: Leaf, Elements: []int64{3}},
		}
		assert.Equal(t, 7, tree.Len())
		assert.Equal(t, 3, tree.MaxDepth())
		assert.Equal(t, 6, tree.NumPoints())
		assert.Equal(t, expected, tree.nodes)
		assert.Equal(t, bbox.New(2, 9, 1, 7), tree.BoundingBox())
		assert.Equal(t, "KDTree{Bounds:[[2,9],[1,7]],MaxDepth:3,NumPoints:6,Len:7}", tree.String())
	})

	t.Run("InputNotModified", func(t *testing.T) {
		pts := append([]Point(nil), wikiPoints...)

		_, err := New(pts, Options{})

		require.NoError(t, err)
		assert.Equal(t, wikiPoints, pts)
	})

	t.Run("SinglePoint", func(t *testing.T) {
		tree, err := New([]Point{{ID: 7, X: 1, Y: 2}}, Options{})

		require.NoError(t, err)
		assert.Equal(t, 1, tree.MaxDepth())
		assert.Equal(t, 1, tree.Len())
		assert.Equal(t, Node{Pos: 1, Kind: Leaf, Elements: []int64{7}}, tree.Node(Root))
		assert.Equal(t, bbox.New(1, 1, 2, 2), tree.BoundingBox())
	})

	t.Run("EarlyLeaf", func(t *testing.T) {
		pts := []Point{{ID: 1, X: 0, Y: 0}, {ID: 2, X: 1, Y: 1}, {ID: 3, X: 2, Y: 2}}

		tree, err := New(pts, Options{MaxDepth: 3})

		require.NoError(t, err)
		assert.Equal(t, 7, tree.Len())
		assert.Equal(t, Node{Pos: 1, Depth: 0, Axis: bbox.X, Kind: Internal, Partition: 1}, tree.Node(1))
		assert.Equal(t, Node{Pos: 2, Depth: 1, Axis: bbox.Y, Kind: Internal, Partition: 0}, tree.Node(2))
		assert.Equal(t, Node{Pos: 3, Depth: 1, Axis: bbox.Y, Kind: Leaf, Elements: []int64{3}}, tree.Node(3))
		assert.Equal(t, []int64{1}, tree.Node(4).Elements)
		assert.Equal(t, []int64{2}, tree.Node(5).Elements)
		for p := Pos(6); p <= 7; p++ {
			assert.Equal(t, Unused, tree.Node(p).Kind, "pos %d", p)
		}
	})

	t.Run("DepthLimitedByPoints", func(t *testing.T) {
		pts := []Point{{ID: 1, X: 0, Y: 0}, {ID: 2, X: 1, Y: 1}}

		tree, err := New(pts, Options{MaxDepth: 22})

		require.NoError(t, err)
		assert.Equal(t, 2, tree.MaxDepth())
		assert.Equal(t, 3, tree.Len())
		assert.Equal(t, []int64{1}, tree.Node(2).Elements)
		assert.Equal(t, []int64{2}, tree.Node(3).Elements)
	})

	t.Run("OddSplitFavorsLeft", func(t *testing.T) {
		pts := []Point{{ID: 1, X: 3}, {ID: 2, X: 1}, {ID: 3, X: 2}, {ID: 4, X: 5}, {ID: 5, X: 4}}

		tree, err := New(pts, Options{MaxDepth: 2})

		require.NoError(t, err)
		assert.Equal(t, 3.0, tree.Node(Root).Partition)
		assert.Equal(t, []int64{2, 3, 1}, tree.Node(2).Elements)
		assert.Equal(t, []int64{5, 4}, tree.Node(3).Elements)
	})

	t.Run("StableTies", func(t *testing.T) {
		pts := []Point{{ID: 1, X: 1, Y: 0}, {ID: 2, X: 1, Y: 5}, {ID: 3, X: 1, Y: 9}, {ID: 4, X: 1, Y: 2}}

		tree, err := New(pts, Options{MaxDepth: 2})

		require.NoError(t, err)
		assert.Equal(t, 1.0, tree.Node(Root).Partition)
		assert.Equal(t, []int64{1, 2}, tree.Node(2).Elements)
		assert.Equal(t, []int64{3, 4}, tree.Node(3).Elements)
	})
}

func TestOptions_Depth(t *testing.T) {
	testCases := []struct {
		name     string
		n        int
		opts     Options
		expected int
	}{
		{"Derived", 6, Options{}, 3},
		{"DerivedSingle", 1, Options{}, 1},
		{"Explicit", 6, Options{MaxDepth: 2}, 2},
		{"ExplicitDeeper", 6, Options{MaxDepth: 4}, 4},
		{"ExplicitPastPoints", 6, Options{MaxDepth: 5}, 4},
		{"MaximumOnePoint", 1, Options{MaxDepth: MaxTreeDepth}, 1},
		{"MaximumTwoPoints", 2, Options{MaxDepth: MaxTreeDepth}, 2},
		{"CapDoesNotLower", 6, Options{MaxDepth: 3, MaxElementsPerLeaf: 1000}, 3},
		{"CapRaisesExplicit", 6, Options{MaxDepth: 2, MaxElementsPerLeaf: 1}, 4},
		{"CapRaisesDerived", 6, Options{MaxElementsPerLeaf: 1}, 4},
		{"CapBelowDerived", 1000, Options{MaxElementsPerLeaf: 500}, 10},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			d, err := testCase.opts.depth(testCase.n)

			assert.NoError(t, err)
			assert.Equal(t, testCase.expected, d)
		})
	}

	t.Run("TooManyPoints", func(t *testing.T) {
		opts := Options{}

		_, err := opts.depth(1<<MaxTreeDepth + 1)

		assert.EqualError(t, err, "kdtree: tree depth 25 exceeds maximum 24")
	})
}

func TestKDTree_Node(t *testing.T) {
	tree := wikiTree(t)

	t.Run("Panic", func(t *testing.T) {
		for _, p := range []Pos{0, -1, 8} {
			assert.PanicsWithValue(t, fmt.Sprintf("kdtree: position %d out of range [1, 7]", p), func() {
				tree.Node(p)
			})
		}
	})

	t.Run("Copy", func(t *testing.T) {
		n := tree.Node(4)
		n.Elements[0] = 99

		assert.Equal(t, []int64{1, 2}, tree.Node(4).Elements)
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "Node{Pos:1,Depth:0,Axis:x,Partition:5}", tree.Node(1).String())
		assert.Equal(t, "Node{Pos:4,Depth:2,Axis:x,Elements:[1 2]}", tree.Node(4).String())
		assert.Equal(t, "Node{Pos:0,Depth:0,Axis:x,unused}", Node{}.String())
	})
}

func TestKDTree_Partitions(t *testing.T) {
	t.Run("Wiki", func(t *testing.T) {
		tree := wikiTree(t)

		expected := [][]bbox.Box{
			{bbox.New(2, 9, 1, 7)},
			{bbox.New(2, 5, 1, 7), bbox.New(5, 9, 1, 7)},
			{bbox.New(2, 5, 1, 4), bbox.New(2, 5, 4, 7), bbox.New(5, 9, 1, 2), bbox.New(5, 9, 2, 7)},
		}
		assert.Equal(t, expected, tree.Partitions())
	})

	t.Run("Idempotent", func(t *testing.T) {
		tree := wikiTree(t)

		assert.Equal(t, tree.Partitions(), tree.Partitions())
		assert.Equal(t, tree.BoundingBox(), tree.BoundingBox())
	})

	t.Run("StopsAtLeaves", func(t *testing.T) {
		pts := []Point{{ID: 1, X: 0, Y: 0}, {ID: 2, X: 1, Y: 1}, {ID: 3, X: 2, Y: 2}}
		tree, err := New(pts, Options{MaxDepth: 4})
		require.NoError(t, err)

		parts := tree.Partitions()

		require.Len(t, parts, 3)
		assert.Len(t, parts[0], 1)
		assert.Len(t, parts[1], 2)
		assert.Len(t, parts[2], 2)
	})

	t.Run("PowersOfTwo", func(t *testing.T) {
		tree, err := New(randomPoints(1, 256), Options{MaxDepth: 6})
		require.NoError(t, err)

		parts := tree.Partitions()

		require.Len(t, parts, 6)
		for d := range parts {
			assert.Len(t, parts[d], 1<<d, "depth %d", d)
		}
	})
}

func TestKDTree_RangeQuery(t *testing.T) {
	tree := wikiTree(t)

	testCases := []struct {
		name     string
		query    bbox.Box
		expected []int64
	}{
		{"LowerLeftCorner", bbox.New(1, 2, 1, 2), []int64{1, 2}},
		{"Everything", tree.BoundingBox(), []int64{1, 2, 4, 5, 6, 3}},
		{"RightOfRoot", bbox.New(6, 10, 0, 1.5), []int64{5, 6}},
		{"TouchingRootPartition", bbox.New(5, 5, 5, 5), []int64{4, 3}},
		{"FarAway", bbox.New(100, 200, 100, 200), []int64{3}},
		{"Inverted", bbox.New(9, 2, 7, 1), []int64{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, tree.RangeQuery(testCase.query))
		})
	}
}

func TestKDTree_Closest(t *testing.T) {
	tree := wikiTree(t)

	testCases := []struct {
		name     string
		x, y     float64
		expected []int64
	}{
		// (7,2) is itself point 6 but equal coordinates descend right, so
		// the single descent lands in the leaf holding only point 3.
		{"SingleDescent", 7, 2, []int64{3}},
		{"LowerLeft", 2, 3, []int64{1, 2}},
		{"UpperLeft", 3, 6, []int64{4}},
		{"LowerRight", 9, 0, []int64{5, 6}},
		{"OutsideBounds", -100, -100, []int64{1, 2}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, tree.Closest(testCase.x, testCase.y))
		})
	}

	t.Run("Copy", func(t *testing.T) {
		ids := tree.Closest(2, 3)
		ids[0] = 42

		assert.Equal(t, []int64{1, 2}, tree.Closest(2, 3))
	})
}

func TestKDTree_Properties(t *testing.T) {
	testCases := []struct {
		n    int
		opts Options
	}{
		{1, Options{}},
		{2, Options{}},
		{7, Options{MaxDepth: 2}},
		{100, Options{}},
		{100, Options{MaxElementsPerLeaf: 3}},
		{333, Options{MaxDepth: 4, MaxElementsPerLeaf: 10}},
		{1000, Options{MaxDepth: 12}},
		{1000, Options{Parallelism: 4}},
	}

	for i, testCase := range testCases {
		t.Run(fmt.Sprintf("n=%d,%+v", testCase.n, testCase.opts), func(t *testing.T) {
			pts := randomPoints(int64(i), testCase.n)
			tree, err := New(pts, testCase.opts)
			require.NoError(t, err)

			// Every id is stored in exactly one leaf.
			assert.Equal(t, pointIDs(pts), sortedIDs(leafIDs(tree)))

			// A query covering the whole tree returns every id once.
			assert.Equal(t, pointIDs(pts), sortedIDs(tree.RangeQuery(tree.BoundingBox())))

			// A degenerate query at a point always finds that point.
			for j := range pts {
				ids := tree.RangeQuery(bbox.New(pts[j].X, pts[j].X, pts[j].Y, pts[j].Y))
				assert.Contains(t, ids, pts[j].ID)
			}

			// Leaves respect the element cap when balanced.
			if testCase.opts.MaxElementsPerLeaf > 0 {
				for _, n := range tree.nodes {
					if n.Kind == Leaf {
						assert.LessOrEqual(t, len(n.Elements), testCase.opts.MaxElementsPerLeaf)
					}
				}
			}
		})
	}
}

func TestNew_Parallel(t *testing.T) {
	pts := randomPoints(99, 5000)

	sequential, err := New(pts, Options{MaxElementsPerLeaf: 8})
	require.NoError(t, err)

	for _, p := range []int{2, 3, 8, 64} {
		t.Run(fmt.Sprintf("Parallelism=%d", p), func(t *testing.T) {
			parallel, err := New(pts, Options{MaxElementsPerLeaf: 8, Parallelism: p})

			require.NoError(t, err)
			assert.Equal(t, sequential.nodes, parallel.nodes)
			assert.Equal(t, sequential.bounds, parallel.bounds)
		})
	}
}

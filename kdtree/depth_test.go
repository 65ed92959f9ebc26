// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdtree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTreeDepth(t *testing.T) {
	t.Run("Panic", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			assert.PanicsWithValue(t, "kdtree: tree depth undefined for n < 1", func() {
				TreeDepth(n)
			})
		}
	})

	t.Run("Values", func(t *testing.T) {
		testCases := []struct {
			n        int
			expected int
		}{
			{1, 0},
			{2, 1},
			{3, 2},
			{4, 2},
			{5, 3},
			{6, 3},
			{8, 3},
			{9, 4},
			{1024, 10},
			{1025, 11},
		}

		for _, testCase := range testCases {
			t.Run(fmt.Sprintf("n=%d", testCase.n), func(t *testing.T) {
				assert.Equal(t, testCase.expected, TreeDepth(testCase.n))
			})
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		for n := 1; n <= 5000; n++ {
			d := TreeDepth(n)
			if d > 0 {
				assert.Less(t, 1<<(d-1), n, "n=%d", n)
			}
			assert.LessOrEqual(t, n, 1<<d, "n=%d", n)
		}
	})
}

func TestTreeDepthForMaxLeafSize(t *testing.T) {
	t.Run("Panic", func(t *testing.T) {
		assert.PanicsWithValue(t, "kdtree: max leaf size must be at least 1", func() {
			TreeDepthForMaxLeafSize(10, 0)
		})
		assert.PanicsWithValue(t, "kdtree: tree depth undefined for n < 1", func() {
			TreeDepthForMaxLeafSize(0, 1)
		})
	})

	t.Run("Values", func(t *testing.T) {
		testCases := []struct {
			total, maxPerLeaf int
			expected          int
		}{
			{1, 1, 1},
			{6, 1000, 1},
			{6, 8, 1},
			{6, 4, 2},
			{6, 2, 3},
			{6, 1, 4},
			{1000, 10, 8},
			{1024, 1, 11},
		}

		for _, testCase := range testCases {
			t.Run(fmt.Sprintf("total=%d,max=%d", testCase.total, testCase.maxPerLeaf), func(t *testing.T) {
				assert.Equal(t, testCase.expected, TreeDepthForMaxLeafSize(testCase.total, testCase.maxPerLeaf))
			})
		}
	})

	t.Run("LeafSizeBound", func(t *testing.T) {
		for total := 1; total <= 600; total += 7 {
			for maxPerLeaf := 1; maxPerLeaf <= 64; maxPerLeaf++ {
				d := TreeDepthForMaxLeafSize(total, maxPerLeaf)
				perLeaf := (1 << TreeDepth(total)) >> (d - 1)

				assert.GreaterOrEqual(t, d, 1)
				assert.LessOrEqual(t, perLeaf, maxPerLeaf, "total=%d, max=%d", total, maxPerLeaf)
			}
		}
	})
}

func TestStorageLen(t *testing.T) {
	assert.Equal(t, 1, storageLen(1))
	assert.Equal(t, 7, storageLen(3))
	assert.Equal(t, 1<<MaxTreeDepth-1, storageLen(MaxTreeDepth))
}

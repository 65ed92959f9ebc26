// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdquad_test

import (
	"context"
	"fmt"

	"github.com/gogama/kdquad"
	"github.com/gogama/kdquad/bbox"
	"github.com/gogama/kdquad/quadtree"
	"github.com/gogama/kdquad/store"
)

func Example() {
	ctx := context.Background()
	s := store.NewMemory(store.MustSchema("x", "y"))
	_, _ = kdquad.LoadExample(ctx, s) // Ignore error ONLY to keep example simple.

	ix, _ := kdquad.Build(ctx, s, kdquad.Columns{X: 0, Y: 1}, kdquad.Options{})
	fmt.Println(ix.Tree())

	r, d, _ := ix.Nearest(ctx, 8, 1.5)
	fmt.Println(r, d)

	inside, _ := ix.Within(ctx, bbox.New(2, 5, 3, 4))
	fmt.Println(inside)
	// Output: KDTree{Bounds:[[2,9],[1,7]],MaxDepth:3,NumPoints:6,Len:7}
	// Record{ID:5,Values:[8 1]} 0.5
	// [Record{ID:1,Values:[2 3]} Record{ID:2,Values:[5 4]}]
}

func ExampleThin() {
	ctx := context.Background()
	s := store.NewMemory(store.MustSchema("x", "y"))
	_, _ = kdquad.LoadExample(ctx, s) // Ignore errors ONLY to keep example simple.
	ix, _ := kdquad.Build(ctx, s, kdquad.Columns{X: 0, Y: 1}, kdquad.Options{})
	qt, _ := quadtree.New(ix.Tree().BoundingBox(), 1)

	levels, _ := ix.QuadLevels(ctx, qt)
	fmt.Println(kdquad.Thin(levels, 1), kdquad.Thin(levels, 2))
	// Output: [3] [1 3 4]
}

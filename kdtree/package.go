// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package kdtree provides a balanced two-dimensional KD-tree built once
// over a static point set and stored as an implicit, pointer-free array.
//
// The tree is a complete binary tree of MaxDepth levels laid out in
// breadth-first order: the node at 1-based tree position p has children
// at 2p and 2p+1 and lives in array slot p-1. Internal nodes carry a
// split threshold on an axis which alternates with depth (x at even
// depths, y at odd depths); leaf nodes carry the ids of their points.
//
// A KDTree is immutable once constructed and all query methods are safe
// for concurrent use.
package kdtree

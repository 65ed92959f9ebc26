// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package quadtree divides a bounding box into uniform spatial bins by
// repeatedly splitting every box into four quadrants at its centroid.
//
// A QuadTree is not a tree of node objects. It is a list of levels, each
// holding the boxes of that depth in a fixed order, and it carries no
// point data.
package quadtree

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package kdquad builds spatial indexes over the records of a store and
// answers queries with exact geometry.
//
// The index itself is a kdtree.KDTree holding record ids. Its queries are
// approximate by construction: RangeQuery returns whole candidate leaves
// and Closest returns the single leaf reached by one descent. An Index
// pairs the tree with the store it was built from so candidates can be
// resolved to records and filtered or ranked by their true coordinates.
//
// The package also derives level-of-detail bins from a quadtree.QuadTree
// laid over the tree's bounding box. Each quadrant at each level elects
// the record nearest its centroid, and thinning by level keeps a
// spatially uniform subsample.
package kdquad

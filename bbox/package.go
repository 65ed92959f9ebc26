// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package bbox provides the axis-aligned bounding box primitive through
// which all of the geometric reasoning in the kdtree and quadtree
// packages is routed.
//
// A Box is a plain value. Every method that "reduces" a Box returns a
// new Box and leaves the receiver untouched, so boxes can be shared
// freely between goroutines.
package bbox

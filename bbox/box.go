// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package bbox

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// An Axis selects one of the two coordinates of the plane.
type Axis int

const (
	// X is the first (horizontal) axis.
	X Axis = 0
	// Y is the second (vertical) axis.
	Y Axis = 1
)

// NumAxes is the dimensionality of the plane.
const NumAxes = 2

// AxisAt returns the axis used at a given tree depth. Axes alternate
// by depth parity, starting with X at the root.
func AxisAt(depth int) Axis {
	return Axis(depth % NumAxes)
}

// String returns "x" or "y".
func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	default:
		return "Axis(" + strconv.Itoa(int(a)) + ")"
	}
}

// Box is an axis-aligned rectangle given by a closed [min, max]
// interval on each axis.
//
// Box does not validate that min <= max on either axis. Reductions can
// produce an inverted Box and the width or height of such a Box is
// negative; keeping bounds sane is the caller's responsibility.
type Box struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// New returns the Box with the given bounds. The argument order, with
// both x bounds first, matches the layout of the Box fields.
func New(minX, maxX, minY, maxY float64) Box {
	return Box{XMin: minX, XMax: maxX, YMin: minY, YMax: maxY}
}

// FromPoints returns the minimum bounding rectangle of a point set
// given as parallel x and y coordinate columns. Panics if either column
// is empty or the columns differ in length.
func FromPoints(xs, ys []float64) Box {
	if len(xs) == 0 || len(ys) == 0 {
		textPanic("empty coordinate column")
	} else if len(xs) != len(ys) {
		fmtPanic("column length mismatch (x=%d, y=%d)", len(xs), len(ys))
	}
	return Box{
		XMin: floats.Min(xs),
		XMax: floats.Max(xs),
		YMin: floats.Min(ys),
		YMax: floats.Max(ys),
	}
}

// Min returns the lower bound of the Box on an axis.
func (b Box) Min(a Axis) float64 {
	switch a {
	case X:
		return b.XMin
	case Y:
		return b.YMin
	}
	fmtPanic("invalid axis %d", int(a))
	return 0
}

// Max returns the upper bound of the Box on an axis.
func (b Box) Max(a Axis) float64 {
	switch a {
	case X:
		return b.XMax
	case Y:
		return b.YMax
	}
	fmtPanic("invalid axis %d", int(a))
	return 0
}

// LowerLeft returns the corner with the smallest coordinates.
func (b Box) LowerLeft() (x, y float64) {
	return b.XMin, b.YMin
}

// Width returns the extent of the Box on the X axis.
func (b Box) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the extent of the Box on the Y axis.
func (b Box) Height() float64 {
	return b.YMax - b.YMin
}

// Area returns Width() * Height().
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// Centroid returns the center of the Box, computed as the lower bound
// plus half the extent on each axis.
func (b Box) Centroid() (x, y float64) {
	return b.XMin + b.Width()/2, b.YMin + b.Height()/2
}

// Within reports whether a value lies in the closed interval of the Box
// on an axis. Both ends are inclusive.
func (b Box) Within(v float64, a Axis) bool {
	return b.Min(a) <= v && v <= b.Max(a)
}

// Contains reports whether the point (x, y) lies inside the Box or on
// its boundary.
func (b Box) Contains(x, y float64) bool {
	return b.Within(x, X) && b.Within(y, Y)
}

// Partition tests the Box against the threshold v on an axis. left is
// true when some part of the Box lies at or below v and right is true
// when some part lies at or above v. Both are true when the Box
// straddles or touches v.
func (b Box) Partition(v float64, a Axis) (left, right bool) {
	return b.Min(a) <= v, v <= b.Max(a)
}

// ReduceMin returns a copy of the Box whose lower bound on an axis is
// set to v.
func (b Box) ReduceMin(a Axis, v float64) Box {
	c := b
	*c.min(a) = v
	return c
}

// ReduceMax returns a copy of the Box whose upper bound on an axis is
// set to v.
func (b Box) ReduceMax(a Axis, v float64) Box {
	c := b
	*c.max(a) = v
	return c
}

// ReduceMinBy returns a copy of the Box whose lower bound on an axis is
// increased by delta.
func (b Box) ReduceMinBy(a Axis, delta float64) Box {
	c := b
	*c.min(a) += delta
	return c
}

// ReduceMaxBy returns a copy of the Box whose upper bound on an axis is
// decreased by delta.
func (b Box) ReduceMaxBy(a Axis, delta float64) Box {
	c := b
	*c.max(a) -= delta
	return c
}

func (b *Box) min(a Axis) *float64 {
	switch a {
	case X:
		return &b.XMin
	case Y:
		return &b.YMin
	}
	fmtPanic("invalid axis %d", int(a))
	return nil
}

func (b *Box) max(a Axis) *float64 {
	switch a {
	case X:
		return &b.XMax
	case Y:
		return &b.YMax
	}
	fmtPanic("invalid axis %d", int(a))
	return nil
}

// String returns the Box as a 2x2 matrix of bounds, one row per axis,
// e.g. "[[2,9],[1,7]]".
func (b Box) String() string {
	var s strings.Builder
	s.WriteString("[[")
	s.WriteString(formatFloat(b.XMin))
	s.WriteByte(',')
	s.WriteString(formatFloat(b.XMax))
	s.WriteString("],[")
	s.WriteString(formatFloat(b.YMin))
	s.WriteByte(',')
	s.WriteString(formatFloat(b.YMax))
	s.WriteString("]]")
	return s.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 8, 64)
}

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdtree

import (
	"strconv"
	"strings"

	"github.com/gogama/kdquad/bbox"
)

// A Point is a single input record: an opaque id from the record store
// plus the two coordinates used for partitioning.
type Point struct {
	ID int64
	X  float64
	Y  float64
}

// Coord returns the coordinate of the Point on an axis.
func (p *Point) Coord(a bbox.Axis) float64 {
	if a == bbox.X {
		return p.X
	}
	return p.Y
}

// Kind distinguishes the roles a node slot can have.
type Kind uint8

const (
	// Unused marks a slot below a leaf which was created early because
	// its point subset shrank to a single point.
	Unused Kind = iota
	// Internal marks a node that splits its points at Node.Partition.
	Internal
	// Leaf marks a node that stores point ids in Node.Elements.
	Leaf
)

// String returns a lowercase name for the Kind.
func (k Kind) String() string {
	switch k {
	case Unused:
		return "unused"
	case Internal:
		return "internal"
	case Leaf:
		return "leaf"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// A Node is one slot of the KDTree's flat node array. Exactly one of
// Partition (Internal) or Elements (Leaf) is meaningful.
type Node struct {
	// Pos is the node's 1-based tree position.
	Pos Pos
	// Depth is the node's level, the root being at depth 0.
	Depth int
	// Axis is the split axis, equal to bbox.AxisAt(Depth).
	Axis bbox.Axis
	// Kind tells whether the slot is used and how.
	Kind Kind
	// Partition is the split threshold of an Internal node: the largest
	// coordinate on Axis among the points sent to the left child.
	Partition float64
	// Elements holds the point ids of a Leaf node.
	Elements []int64
}

// String returns a summary of the Node.
func (n Node) String() string {
	var b strings.Builder
	b.WriteString("Node{Pos:")
	b.WriteString(strconv.Itoa(int(n.Pos)))
	b.WriteString(",Depth:")
	b.WriteString(strconv.Itoa(n.Depth))
	b.WriteString(",Axis:")
	b.WriteString(n.Axis.String())
	switch n.Kind {
	case Internal:
		b.WriteString(",Partition:")
		b.WriteString(strconv.FormatFloat(n.Partition, 'g', -1, 64))
	case Leaf:
		b.WriteString(",Elements:[")
		for i, id := range n.Elements {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatInt(id, 10))
		}
		b.WriteByte(']')
	default:
		b.WriteString(",")
		b.WriteString(n.Kind.String())
	}
	b.WriteByte('}')
	return b.String()
}

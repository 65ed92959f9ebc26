// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdtree

import (
	"fmt"
	"io"

	"github.com/gogama/kdquad/bbox"
	flatbuffers "github.com/google/flatbuffers/go"
)

// The serialized KDTree is a size-prefixed FlatBuffers buffer with the
// following schema:
//
//	table Node {
//	  pos:       uint32;
//	  depth:     uint8;
//	  axis:      uint8;
//	  kind:      uint8;
//	  partition: double;
//	  elements:  [long];
//	}
//
//	table Tree {
//	  max_depth:  uint8;
//	  num_points: ulong;
//	  bounds:     [double];  // x min, x max, y min, y max
//	  nodes:      [Node];    // every slot, breadth-first
//	}
//
//	root_type Tree;
//
// The accessors are written by hand against the runtime library since
// the schema is small and private to this package.

// Field slots of the Node table.
const (
	nodePos = iota
	nodeDepth
	nodeAxis
	nodeKind
	nodePartition
	nodeElements
	numNodeFields
)

// Field slots of the Tree table.
const (
	treeMaxDepth = iota
	treeNumPoints
	treeBounds
	treeNodes
	numTreeFields
)

// maxEncodedLen is an artificial limit, not imposed by FlatBuffers, on
// the size of a serialized tree Unmarshal will read. It keeps a
// corrupted size prefix from causing a huge allocation.
const maxEncodedLen = 1 << 30

// safeFlatBuffersInteraction runs a function that interacts with
// FlatBuffers, trapping any panic that occurs and converting it to a
// normal Go error.
//
// FlatBuffers accessors do not return errors, so reading a malformed
// buffer panics with an index out of range.
func safeFlatBuffersInteraction(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: flatbuffers: %v", r)
		}
	}()
	err = f()
	return
}

// vtableOffset converts a field slot number to its vtable offset.
func vtableOffset(slot int) flatbuffers.VOffsetT {
	return flatbuffers.VOffsetT(4 + 2*slot)
}

// Marshal serializes the KDTree to a writer as a size-prefixed
// FlatBuffers table, returning the number of bytes written.
func (t *KDTree) Marshal(w io.Writer) (n int, err error) {
	if w == nil {
		textPanic("nil writer")
	}
	b := flatbuffers.NewBuilder(64 * len(t.nodes))

	// Children must be complete before their parent table starts, so
	// build every node table first.
	offsets := make([]flatbuffers.UOffsetT, len(t.nodes))
	for i := range t.nodes {
		offsets[i] = marshalNode(b, &t.nodes[i])
	}

	b.StartVector(flatbuffers.SizeUOffsetT, len(offsets), flatbuffers.SizeUOffsetT)
	for i := len(offsets) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offsets[i])
	}
	nodes := b.EndVector(len(offsets))

	bounds := [4]float64{t.bounds.XMin, t.bounds.XMax, t.bounds.YMin, t.bounds.YMax}
	b.StartVector(flatbuffers.SizeFloat64, len(bounds), flatbuffers.SizeFloat64)
	for i := len(bounds) - 1; i >= 0; i-- {
		b.PrependFloat64(bounds[i])
	}
	boundsVec := b.EndVector(len(bounds))

	b.StartObject(numTreeFields)
	b.PrependUint8Slot(treeMaxDepth, uint8(t.maxDepth), 0)
	b.PrependUint64Slot(treeNumPoints, uint64(t.numPoints), 0)
	b.PrependUOffsetTSlot(treeBounds, boundsVec, 0)
	b.PrependUOffsetTSlot(treeNodes, nodes, 0)
	root := b.EndObject()
	b.FinishSizePrefixed(root)

	n, err = w.Write(b.FinishedBytes())
	if err != nil {
		err = wrapErr("failed to write tree", err)
	}
	return
}

func marshalNode(b *flatbuffers.Builder, n *Node) flatbuffers.UOffsetT {
	var elements flatbuffers.UOffsetT
	if n.Kind == Leaf {
		b.StartVector(flatbuffers.SizeInt64, len(n.Elements), flatbuffers.SizeInt64)
		for i := len(n.Elements) - 1; i >= 0; i-- {
			b.PrependInt64(n.Elements[i])
		}
		elements = b.EndVector(len(n.Elements))
	}

	b.StartObject(numNodeFields)
	b.PrependUint32Slot(nodePos, uint32(n.Pos), 0)
	b.PrependUint8Slot(nodeDepth, uint8(n.Depth), 0)
	b.PrependUint8Slot(nodeAxis, uint8(n.Axis), 0)
	b.PrependUint8Slot(nodeKind, uint8(n.Kind), 0)
	b.PrependFloat64Slot(nodePartition, n.Partition, 0)
	if n.Kind == Leaf {
		b.PrependUOffsetTSlot(nodeElements, elements, 0)
	}
	return b.EndObject()
}

// Unmarshal deserializes a KDTree written by Marshal. The reader is
// left positioned at the first byte after the tree.
func Unmarshal(r io.Reader) (*KDTree, error) {
	if r == nil {
		textPanic("nil reader")
	}

	// Read the size prefix and then the table it measures.
	prefix := make([]byte, flatbuffers.SizeUint32)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, wrapErr("failed to read size prefix", err)
	}
	size := flatbuffers.GetUint32(prefix)
	if size > maxEncodedLen {
		return nil, fmtErr("encoded tree size %d exceeds limit %d", size, maxEncodedLen)
	}
	buf := make([]byte, flatbuffers.SizeUint32+int(size))
	copy(buf, prefix)
	if _, err := io.ReadFull(r, buf[flatbuffers.SizeUint32:]); err != nil {
		return nil, wrapErr("failed to read tree", err)
	}

	var t *KDTree
	err := safeFlatBuffersInteraction(func() error {
		var err error
		t, err = unmarshalTree(buf)
		return err
	})
	if err != nil {
		return nil, wrapErr("failed to decode tree", err)
	}
	if err = t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

func unmarshalTree(buf []byte) (*KDTree, error) {
	var tab flatbuffers.Table
	tab.Bytes = buf
	tab.Pos = flatbuffers.GetUOffsetT(buf[flatbuffers.SizeUint32:]) + flatbuffers.SizeUint32

	t := &KDTree{}
	if o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(treeMaxDepth))); o != 0 {
		t.maxDepth = int(tab.GetUint8(o + tab.Pos))
	}
	if o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(treeNumPoints))); o != 0 {
		t.numPoints = int(tab.GetUint64(o + tab.Pos))
	}

	o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(treeBounds)))
	if o == 0 || tab.VectorLen(o) != 4 {
		return nil, textErr("missing bounds")
	}
	a := tab.Vector(o)
	t.bounds = bbox.New(
		tab.GetFloat64(a),
		tab.GetFloat64(a+flatbuffers.SizeFloat64),
		tab.GetFloat64(a+2*flatbuffers.SizeFloat64),
		tab.GetFloat64(a+3*flatbuffers.SizeFloat64),
	)

	o = flatbuffers.UOffsetT(tab.Offset(vtableOffset(treeNodes)))
	if o == 0 {
		return nil, textErr("missing nodes")
	}
	t.nodes = make([]Node, tab.VectorLen(o))
	a = tab.Vector(o)
	for i := range t.nodes {
		var nt flatbuffers.Table
		nt.Bytes = buf
		nt.Pos = tab.Indirect(a + flatbuffers.UOffsetT(i)*flatbuffers.SizeUOffsetT)
		unmarshalNode(&nt, &t.nodes[i])
	}
	return t, nil
}

func unmarshalNode(tab *flatbuffers.Table, n *Node) {
	if o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(nodePos))); o != 0 {
		n.Pos = Pos(tab.GetUint32(o + tab.Pos))
	}
	if o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(nodeDepth))); o != 0 {
		n.Depth = int(tab.GetUint8(o + tab.Pos))
	}
	if o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(nodeAxis))); o != 0 {
		n.Axis = bbox.Axis(tab.GetUint8(o + tab.Pos))
	}
	if o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(nodeKind))); o != 0 {
		n.Kind = Kind(tab.GetUint8(o + tab.Pos))
	}
	if o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(nodePartition))); o != 0 {
		n.Partition = tab.GetFloat64(o + tab.Pos)
	}
	if o := flatbuffers.UOffsetT(tab.Offset(vtableOffset(nodeElements))); o != 0 {
		n.Elements = make([]int64, tab.VectorLen(o))
		a := tab.Vector(o)
		for i := range n.Elements {
			n.Elements[i] = tab.GetInt64(a + flatbuffers.UOffsetT(i)*flatbuffers.SizeInt64)
		}
	}
}

// check verifies the structural invariants of a decoded tree: slot
// count, positions, axes, and that every point is stored exactly once.
func (t *KDTree) check() error {
	if t.maxDepth < 1 || t.maxDepth > MaxTreeDepth {
		return fmtErr("invalid max depth %d", t.maxDepth)
	} else if len(t.nodes) != storageLen(t.maxDepth) {
		return fmtErr("node count mismatch (depth=%d, expected=%d, actual=%d)", t.maxDepth, storageLen(t.maxDepth), len(t.nodes))
	} else if t.nodes[0].Kind == Unused {
		return textErr("unused root node")
	}

	var count int
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.Kind == Unused {
			continue
		}
		if n.Pos.Storage() != i {
			return fmtErr("node in slot %d has position %d", i, n.Pos)
		} else if n.Depth != n.Pos.Depth() || n.Axis != bbox.AxisAt(n.Depth) {
			return fmtErr("node %d has inconsistent depth %d or axis %d", n.Pos, n.Depth, n.Axis)
		}
		switch n.Kind {
		case Leaf:
			count += len(n.Elements)
		case Internal:
			r := n.Pos.Right().Storage()
			if r >= len(t.nodes) {
				return fmtErr("internal node %d at last level", n.Pos)
			} else if t.nodes[r-1].Kind == Unused || t.nodes[r].Kind == Unused {
				return fmtErr("internal node %d has an unused child", n.Pos)
			}
		default:
			return fmtErr("node %d has invalid kind %d", n.Pos, n.Kind)
		}
	}
	if count != t.numPoints {
		return fmtErr("point count mismatch (header=%d, leaves=%d)", t.numPoints, count)
	} else if u := usefulDepth(t.numPoints); t.maxDepth > u {
		return fmtErr("max depth %d exceeds %d for %d points", t.maxDepth, u, t.numPoints)
	}
	return nil
}

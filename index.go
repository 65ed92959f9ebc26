// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdquad

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gogama/kdquad/bbox"
	"github.com/gogama/kdquad/kdtree"
	"github.com/gogama/kdquad/store"
)

// Columns gives the 0-based value indices of the x and y coordinates in
// a store's records.
type Columns struct {
	X, Y int
}

// ColumnsOf looks up the coordinate columns by field name.
func ColumnsOf(s store.Schema, x, y string) (Columns, error) {
	xi, err := s.Index(x)
	if err != nil {
		return Columns{}, err
	}
	yi, err := s.Index(y)
	if err != nil {
		return Columns{}, err
	}
	return Columns{X: xi, Y: yi}, nil
}

func (c Columns) String() string {
	return fmt.Sprintf("Columns{X:%d,Y:%d}", c.X, c.Y)
}

// point extracts the coordinates of a record.
func (c Columns) point(r *store.Record) (kdtree.Point, error) {
	if c.X < 0 || c.X >= len(r.Values) || c.Y < 0 || c.Y >= len(r.Values) {
		return kdtree.Point{}, fmtErr("record %d has %d values, no column %s", r.ID, len(r.Values), c)
	}
	return kdtree.Point{ID: r.ID, X: r.Values[c.X], Y: r.Values[c.Y]}, nil
}

// Options configures Build.
type Options struct {
	// Tree configures the depth and construction of the KDTree.
	Tree kdtree.Options
	// Logger receives build events. Nil means slog.Default.
	Logger *slog.Logger
}

// Index is a KDTree over the records of a store. It is safe for
// concurrent use when the store is.
type Index struct {
	store  store.Store
	tree   *kdtree.KDTree
	cols   Columns
	logger *slog.Logger
}

// Build reads every record of a store and builds a KDTree over their
// coordinates. An empty store fails with kdtree.ErrEmpty.
func Build(ctx context.Context, s store.Store, cols Columns, opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, wrapErr("failed to list keys", err)
	}
	records, err := s.Query(ctx, keys)
	if err != nil {
		return nil, wrapErr("failed to read %d records", err, len(keys))
	}
	points := make([]kdtree.Point, len(records))
	for i := range records {
		if points[i], err = cols.point(&records[i]); err != nil {
			return nil, err
		}
	}
	tree, err := kdtree.New(points, opts.Tree)
	if err != nil {
		return nil, err
	}

	logger.Info("tree_built",
		"points", tree.NumPoints(),
		"depth", tree.MaxDepth(),
		"slots", tree.Len(),
		"bounds", tree.BoundingBox().String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Index{store: s, tree: tree, cols: cols, logger: logger}, nil
}

// NewIndex pairs an existing tree, for example one read back with
// kdtree.Unmarshal, with the store its ids refer to.
func NewIndex(s store.Store, tree *kdtree.KDTree, cols Columns, logger *slog.Logger) *Index {
	if s == nil {
		textPanic("nil store")
	} else if tree == nil {
		textPanic("nil tree")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{store: s, tree: tree, cols: cols, logger: logger}
}

// Tree returns the index's KDTree.
func (ix *Index) Tree() *kdtree.KDTree {
	return ix.tree
}

// Store returns the store the index resolves ids against.
func (ix *Index) Store() store.Store {
	return ix.store
}

// Columns returns the coordinate columns of the store's records.
func (ix *Index) Columns() Columns {
	return ix.cols
}

func (ix *Index) String() string {
	return fmt.Sprintf("Index{Tree:%s,Columns:%s}", ix.tree, ix.cols)
}

// Nearest returns the record of the leaf reached by Closest(x, y) that
// lies nearest (x, y), along with its Euclidean distance. Ties go to the
// record listed first in the leaf.
//
// The search never leaves that leaf, so a record in a neighbouring leaf
// may be nearer.
func (ix *Index) Nearest(ctx context.Context, x, y float64) (store.Record, float64, error) {
	records, err := ix.store.Query(ctx, ix.tree.Closest(x, y))
	if err != nil {
		return store.Record{}, 0, wrapErr("failed to read closest leaf", err)
	}
	best, bestDist := -1, math.Inf(1)
	for i := range records {
		p, err := ix.cols.point(&records[i])
		if err != nil {
			return store.Record{}, 0, err
		}
		if d := math.Hypot(p.X-x, p.Y-y); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return store.Record{}, 0, fmt.Errorf("%w near (%g, %g)", ErrNoCandidates, x, y)
	}
	return records[best], bestDist, nil
}

// Within returns the records inside the query box, boundaries included,
// in the order RangeQuery yields their ids.
func (ix *Index) Within(ctx context.Context, q bbox.Box) ([]store.Record, error) {
	records, err := ix.store.Query(ctx, ix.tree.RangeQuery(q))
	if err != nil {
		return nil, wrapErr("failed to read range candidates", err)
	}
	inside := records[:0]
	for i := range records {
		p, err := ix.cols.point(&records[i])
		if err != nil {
			return nil, err
		}
		if q.Contains(p.X, p.Y) {
			inside = append(inside, records[i])
		}
	}
	ix.logger.Debug("range_filtered", "query", q.String(), "candidates", len(records), "inside", len(inside))
	return inside, nil
}

// Occupancy returns the number of ids held in each storage slot of the
// tree, indexed by slot. Internal and unused slots hold none.
func Occupancy(t *kdtree.KDTree) []int {
	counts := make([]int, t.Len())
	for i := range counts {
		counts[i] = len(t.Node(kdtree.Pos(i + 1)).Elements)
	}
	return counts
}

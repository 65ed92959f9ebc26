// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdquad

import (
	"context"
	"sort"

	"github.com/gogama/kdquad/quadtree"
	"github.com/gogama/kdquad/store"
)

// QuadLevels assigns every record of the index a level of detail from
// a quadtree laid over it.
//
// Every id starts at qt.Depth()+1, a level no quadrant has. Levels are
// then visited from the deepest to 0, and for each quadrant the record
// nearest its centroid, as found by Nearest, is given that level. Since
// shallower levels come later, an id ends with the smallest level at
// which it stood for a quadrant. Quadrants whose leaf resolves to no
// record are skipped.
func (ix *Index) QuadLevels(ctx context.Context, qt *quadtree.QuadTree) (map[int64]int, error) {
	keys, err := ix.store.Keys(ctx)
	if err != nil {
		return nil, wrapErr("failed to list keys", err)
	}
	levels := make(map[int64]int, len(keys))
	for _, id := range keys {
		levels[id] = qt.Depth() + 1
	}
	elected := 0
	for d := qt.Depth(); d >= 0; d-- {
		for _, b := range qt.Quads(d) {
			if err = ctx.Err(); err != nil {
				return nil, err
			}
			x, y := b.Centroid()
			r, _, err := ix.Nearest(ctx, x, y)
			if err != nil {
				if isNoCandidates(err) {
					continue
				}
				return nil, err
			}
			levels[r.ID] = d
			elected++
		}
	}
	ix.logger.Debug("quad_levels_assigned", "depth", qt.Depth(), "records", len(levels), "elections", elected)
	return levels, nil
}

// ApplyQuadLevels writes each id's level into the named field of its
// record.
func ApplyQuadLevels(ctx context.Context, u store.Updater, field string, levels map[int64]int) error {
	for _, id := range sortedIDs(levels) {
		if err := u.UpdateField(ctx, id, field, float64(levels[id])); err != nil {
			return wrapErr("failed to store level of record %d", err, id)
		}
	}
	return nil
}

// Thin returns, in ascending order, the ids whose level is below
// maxLevel. With a quadtree of depth D, Thin(levels, d+1) keeps at most
// the 4^0 + 4^1 + ... + 4^d records elected for levels 0 through d.
func Thin(levels map[int64]int, maxLevel int) []int64 {
	ids := make([]int64, 0)
	for _, id := range sortedIDs(levels) {
		if levels[id] < maxLevel {
			ids = append(ids, id)
		}
	}
	return ids
}

func sortedIDs(levels map[int64]int) []int64 {
	ids := make([]int64, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

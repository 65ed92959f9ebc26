// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kdquad

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gogama/kdquad/store"
)

// ExamplePoints is the six point data set used in the Wikipedia article
// on k-d trees.
var ExamplePoints = [][2]float64{{2, 3}, {5, 4}, {9, 6}, {4, 7}, {8, 1}, {7, 2}}

// LoadExample inserts ExamplePoints as (x, y) records.
func LoadExample(ctx context.Context, ins store.Inserter) ([]int64, error) {
	rows := make([][]float64, len(ExamplePoints))
	for i, p := range ExamplePoints {
		rows[i] = []float64{p[0], p[1]}
	}
	return store.InsertAll(ctx, ins, rows)
}

// LoadCSV inserts one record per line of comma separated numbers. Blank
// lines and lines starting with '#' are skipped, and a first line that
// does not parse as numbers is taken as a header.
func LoadCSV(ctx context.Context, r io.Reader, ins store.Inserter) ([]int64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	ids := make([]int64, 0)
	for line := 1; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ids, nil
		} else if err != nil {
			return ids, wrapErr("failed to read csv", err)
		}
		row, err := parseRow(fields)
		if err != nil {
			if line == 1 {
				continue
			}
			return ids, wrapErr("bad csv record %d", err, line)
		}
		id, err := ins.Insert(ctx, row...)
		if err != nil {
			return ids, wrapErr("failed to insert csv record %d", err, line)
		}
		ids = append(ids, id)
	}
}

func parseRow(fields []string) ([]float64, error) {
	row := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

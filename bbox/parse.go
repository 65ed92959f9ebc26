// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package bbox

import (
	"math"
	"strconv"
	"strings"
)

// Parse reads a Box from four numbers in the order XMin, XMax, YMin,
// YMax. Numbers may be separated by spaces, commas, semicolons or
// brackets, so Parse accepts both the output of Box.String and the
// row-per-axis form "xmin xmax; ymin ymax". Inverted bounds and NaN
// are rejected.
func Parse(s string) (Box, error) {
	v, err := parseFloats(s, 4)
	if err != nil {
		return Box{}, err
	}
	b := New(v[0], v[1], v[2], v[3])
	if b.XMin > b.XMax {
		return Box{}, fmtErr("inverted x bounds [%g, %g]", b.XMin, b.XMax)
	} else if b.YMin > b.YMax {
		return Box{}, fmtErr("inverted y bounds [%g, %g]", b.YMin, b.YMax)
	}
	return b, nil
}

// ParsePoint reads an x and a y coordinate, separated as for Parse.
func ParsePoint(s string) (x, y float64, err error) {
	v, err := parseFloats(s, 2)
	if err != nil {
		return 0, 0, err
	}
	return v[0], v[1], nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', ',', ';', '[', ']':
			return true
		}
		return false
	})
	if len(fields) != n {
		return nil, fmtErr("expected %d numbers, got %d in %q", n, len(fields), s)
	}
	v := make([]float64, n)
	for i, f := range fields {
		var err error
		if v[i], err = strconv.ParseFloat(f, 64); err != nil || math.IsNaN(v[i]) {
			return nil, fmtErr("bad number %q in %q", f, s)
		}
	}
	return v, nil
}

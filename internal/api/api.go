// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package api serves read-only HTTP queries over a built index.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gogama/kdquad"
	"github.com/gogama/kdquad/bbox"
	applog "github.com/gogama/kdquad/internal/logger"
	"github.com/gogama/kdquad/internal/metrics"
	"github.com/gogama/kdquad/quadtree"
	"github.com/gogama/kdquad/store"
)

// box is a bbox.Box on the wire: [xmin, xmax, ymin, ymax].
type box [4]float64

func toBox(b bbox.Box) box {
	return box{b.XMin, b.XMax, b.YMin, b.YMax}
}

func toBoxes(bs []bbox.Box) []box {
	r := make([]box, len(bs))
	for i := range bs {
		r[i] = toBox(bs[i])
	}
	return r
}

type record struct {
	ID     int64     `json:"id"`
	Values []float64 `json:"values"`
}

func toRecords(rs []store.Record) []record {
	r := make([]record, len(rs))
	for i := range rs {
		r[i] = record{ID: rs[i].ID, Values: rs[i].Values}
	}
	return r
}

type boundsResult struct {
	Bounds box `json:"bounds"`
	Depth  int `json:"depth"`
	Points int `json:"points"`
	Slots  int `json:"slots"`
}

type partitionsResult struct {
	Depth int   `json:"depth"`
	Boxes []box `json:"boxes"`
}

type rangeResult struct {
	Candidates []int64  `json:"candidates"`
	Inside     []record `json:"inside"`
}

type closestResult struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Leaf     []int64 `json:"leaf"`
	Nearest  record  `json:"nearest"`
	Distance float64 `json:"distance"`
}

type thinResult struct {
	Level int     `json:"level"`
	IDs   []int64 `json:"ids"`
}

type errorResult struct {
	Error string `json:"error"`
}

// Server answers queries against one index. Quadtree routes are
// answered only when a quadtree was supplied.
type Server struct {
	ix     *kdquad.Index
	qt     *quadtree.QuadTree
	levels map[int64]int
	logger *slog.Logger
}

// New returns a server over an index, an optional quadtree and the
// quad levels computed from them. A nil logger uses the process logger.
func New(ix *kdquad.Index, qt *quadtree.QuadTree, levels map[int64]int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = applog.L()
	}
	return &Server{ix: ix, qt: qt, levels: levels, logger: logger}
}

// BuildRoutes returns the query routes, meant to be mounted under a
// prefix such as /api with http.StripPrefix.
func (s *Server) BuildRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/bounds", s.bounds)
	mux.HandleFunc("/partitions", s.partitions)
	mux.HandleFunc("/range", s.rangeQuery)
	mux.HandleFunc("/closest", s.closest)
	mux.HandleFunc("/storage", s.storage)
	mux.HandleFunc("/quads", s.quads)
	mux.HandleFunc("/thin", s.thin)
	return mux
}

func (s *Server) bounds(w http.ResponseWriter, r *http.Request) {
	t := s.ix.Tree()
	writeJSON(w, http.StatusOK, boundsResult{
		Bounds: toBox(t.BoundingBox()),
		Depth:  t.MaxDepth(),
		Points: t.NumPoints(),
		Slots:  t.Len(),
	})
}

func (s *Server) partitions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	levels := s.ix.Tree().Partitions()
	if r.URL.Query().Get("depth") == "" {
		result := make([]partitionsResult, len(levels))
		for d := range levels {
			result[d] = partitionsResult{Depth: d, Boxes: toBoxes(levels[d])}
		}
		metrics.ObserveQuery("partitions", time.Since(start), len(levels), nil)
		writeJSON(w, http.StatusOK, result)
		return
	}
	d, err := intParam(r, "depth", 0, len(levels)-1)
	if err != nil {
		metrics.ObserveQuery("partitions", time.Since(start), 0, err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	metrics.ObserveQuery("partitions", time.Since(start), len(levels[d]), nil)
	writeJSON(w, http.StatusOK, partitionsResult{Depth: d, Boxes: toBoxes(levels[d])})
}

func (s *Server) rangeQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, err := bbox.Parse(r.URL.Query().Get("bbox"))
	if err != nil {
		metrics.ObserveQuery("range", time.Since(start), 0, err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	inside, err := s.ix.Within(r.Context(), q)
	if err != nil {
		metrics.ObserveQuery("range", time.Since(start), 0, err)
		s.logger.Error("range_query_failed", "query", q.String(), "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	metrics.ObserveQuery("range", time.Since(start), len(inside), nil)
	writeJSON(w, http.StatusOK, rangeResult{
		Candidates: s.ix.Tree().RangeQuery(q),
		Inside:     toRecords(inside),
	})
}

func (s *Server) closest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	x, errX := floatParam(r, "x")
	y, errY := floatParam(r, "y")
	if err := errors.Join(errX, errY); err != nil {
		metrics.ObserveQuery("closest", time.Since(start), 0, err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, d, err := s.ix.Nearest(r.Context(), x, y)
	if err != nil {
		metrics.ObserveQuery("closest", time.Since(start), 0, err)
		status := http.StatusInternalServerError
		if errors.Is(err, kdquad.ErrNoCandidates) {
			status = http.StatusNotFound
		} else {
			s.logger.Error("closest_query_failed", "x", x, "y", y, "err", err)
		}
		writeError(w, status, err)
		return
	}
	metrics.ObserveQuery("closest", time.Since(start), 1, nil)
	writeJSON(w, http.StatusOK, closestResult{
		X:        x,
		Y:        y,
		Leaf:     s.ix.Tree().Closest(x, y),
		Nearest:  record{ID: rec.ID, Values: rec.Values},
		Distance: d,
	})
}

func (s *Server) storage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, kdquad.Occupancy(s.ix.Tree()))
}

var errNoQuadTree = errors.New("quadtree disabled")

func (s *Server) quads(w http.ResponseWriter, r *http.Request) {
	if s.qt == nil {
		writeError(w, http.StatusNotFound, errNoQuadTree)
		return
	}
	d, err := intParam(r, "depth", 0, s.qt.Depth())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, partitionsResult{Depth: d, Boxes: toBoxes(s.qt.Quads(d))})
}

func (s *Server) thin(w http.ResponseWriter, r *http.Request) {
	if s.qt == nil || s.levels == nil {
		writeError(w, http.StatusNotFound, errNoQuadTree)
		return
	}
	start := time.Now()
	level, err := intParam(r, "level", 0, s.qt.Depth()+2)
	if err != nil {
		metrics.ObserveQuery("thin", time.Since(start), 0, err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ids := kdquad.Thin(s.levels, level)
	metrics.ObserveQuery("thin", time.Since(start), len(ids), nil)
	writeJSON(w, http.StatusOK, thinResult{Level: level, IDs: ids})
}

func intParam(r *http.Request, name string, min, max int) (int, error) {
	v := r.URL.Query().Get(name)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", name, v)
	} else if n < min || n > max {
		return 0, fmt.Errorf("%s %d out of range [%d, %d]", name, n, min, max)
	}
	return n, nil
}

// floatParam parses a finite coordinate.
func floatParam(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("bad %s %q", name, v)
	}
	return f, nil
}

// writeJSON encodes v before writing the header, so a value JSON cannot
// represent becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorResult{Error: err.Error()})
	}
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResult{Error: err.Error()})
}

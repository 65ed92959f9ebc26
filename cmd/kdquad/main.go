// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command kdquad builds a KD-tree over the points of a record store,
// answers range and closest point queries, bins the points with a
// quadtree, and optionally serves the results over HTTP.
//
// Settings come from the environment (see internal/config), seeded
// from a .env file. Flags select the queries to print:
//
//	kdquad -range "2 5; 3 4" -closest "7 2" -bbox-depth 2 -quad-level 3
//
// Without -points and with the memory store, the six point example
// data set is used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogama/kdquad"
	"github.com/gogama/kdquad/bbox"
	"github.com/gogama/kdquad/internal/api"
	"github.com/gogama/kdquad/internal/config"
	"github.com/gogama/kdquad/internal/logger"
	"github.com/gogama/kdquad/internal/metrics"
	"github.com/gogama/kdquad/kdtree"
	"github.com/gogama/kdquad/quadtree"
	"github.com/gogama/kdquad/store"
)

type flags struct {
	env       string
	points    string
	in        string
	out       string
	rangeBox  string
	closest   string
	bboxDepth int
	quadLevel int
	storage   bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("kdquad", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.env, "env", ".env", "`file` of environment defaults; empty to skip")
	fs.StringVar(&f.points, "points", "", "CSV `file` of points to insert before building")
	fs.StringVar(&f.in, "in", "", "read a marshalled tree from `file` instead of building")
	fs.StringVar(&f.out, "out", "", "write the marshalled tree to `file`")
	fs.StringVar(&f.rangeBox, "range", "", "range query `\"xmin xmax; ymin ymax\"`")
	fs.StringVar(&f.closest, "closest", "", "closest point query `\"x y\"`")
	fs.IntVar(&f.bboxDepth, "bbox-depth", -1, "print the partitions at `depth`")
	fs.IntVar(&f.quadLevel, "quad-level", -1, "print the points elected below `level`")
	fs.BoolVar(&f.storage, "storage", false, "print the number of ids in each storage slot")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments %q", fs.Args())
	}
	return f, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	l := logger.Setup()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, l); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		l.Error("kdquad_failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, l *slog.Logger) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := config.Load(f.env)
	if err != nil {
		return err
	}
	schema, err := cfg.Schema()
	if err != nil {
		return err
	}
	cols, err := kdquad.ColumnsOf(schema, cfg.XField, cfg.YField)
	if err != nil {
		return err
	}

	s, closeStore, err := openStore(ctx, &cfg, schema, l)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	if err = load(ctx, f, &cfg, s, l); err != nil {
		return err
	}

	ix, err := index(ctx, f, &cfg, s, cols, l)
	if err != nil {
		return err
	}
	tree := ix.Tree()
	fmt.Fprintln(stdout, "tree:", tree)

	if f.storage {
		fmt.Fprintln(stdout, "storage:", kdquad.Occupancy(tree))
	}
	if f.bboxDepth >= 0 {
		levels := tree.Partitions()
		if f.bboxDepth >= len(levels) {
			return fmt.Errorf("bbox depth %d out of range [0, %d]", f.bboxDepth, len(levels)-1)
		}
		fmt.Fprintf(stdout, "partitions[%d]: %v\n", f.bboxDepth, levels[f.bboxDepth])
	}
	if f.rangeBox != "" {
		if err = printRange(ctx, stdout, ix, f.rangeBox); err != nil {
			return err
		}
	}
	if f.closest != "" {
		if err = printClosest(ctx, stdout, ix, f.closest); err != nil {
			return err
		}
	}

	var qt *quadtree.QuadTree
	var levels map[int64]int
	if cfg.QuadDepth > 0 {
		if qt, err = quadtree.New(tree.BoundingBox(), cfg.QuadDepth); err != nil {
			return err
		}
		if levels, err = ix.QuadLevels(ctx, qt); err != nil {
			return err
		}
		if cfg.QuadField != "" {
			if err = kdquad.ApplyQuadLevels(ctx, s, cfg.QuadField, levels); err != nil {
				return err
			}
		}
		fmt.Fprintln(stdout, "quadtree:", qt)
		if f.quadLevel >= 0 {
			thin := kdquad.Thin(levels, f.quadLevel)
			fmt.Fprintf(stdout, "thin[level<%d]: %d of %d %v\n", f.quadLevel, len(thin), len(levels), thin)
		}
	}

	if f.out != "" {
		if err = writeTree(f.out, tree, l); err != nil {
			return err
		}
	}
	if cfg.Addr != "" {
		return serve(ctx, cfg.Addr, api.New(ix, qt, levels, l), l)
	}
	return nil
}

// load inserts the points of the -points file, or the example points
// into an otherwise empty memory store.
func load(ctx context.Context, f *flags, cfg *config.Config, s backend, l *slog.Logger) error {
	var ids []int64
	var err error
	switch {
	case f.points != "":
		file, err := os.Open(f.points)
		if err != nil {
			return err
		}
		defer file.Close()
		ids, err = kdquad.LoadCSV(ctx, file, s)
		if err != nil {
			return err
		}
	case cfg.Store == config.StoreMemory:
		if ids, err = kdquad.LoadExample(ctx, s); err != nil {
			return err
		}
	default:
		return nil
	}
	l.Info("points_loaded", "store", cfg.Store, "points", len(ids), "source", f.points)
	return nil
}

// index builds a tree over the store, or reads one written by -out.
func index(ctx context.Context, f *flags, cfg *config.Config, s store.Store, cols kdquad.Columns, l *slog.Logger) (*kdquad.Index, error) {
	if f.in == "" {
		start := time.Now()
		ix, err := kdquad.Build(ctx, s, cols, kdquad.Options{Tree: cfg.Tree, Logger: l})
		if err != nil {
			return nil, err
		}
		metrics.ObserveBuild(ix.Tree(), time.Since(start))
		return ix, nil
	}
	file, err := os.Open(f.in)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	tree, err := kdtree.Unmarshal(file)
	if err != nil {
		return nil, err
	}
	l.Info("tree_loaded", "file", f.in, "points", tree.NumPoints(), "depth", tree.MaxDepth())
	return kdquad.NewIndex(s, tree, cols, l), nil
}

func printRange(ctx context.Context, w io.Writer, ix *kdquad.Index, arg string) error {
	q, err := bbox.Parse(arg)
	if err != nil {
		return err
	}
	inside, err := ix.Within(ctx, q)
	if err != nil {
		return err
	}
	ids := make([]int64, len(inside))
	for i := range inside {
		ids[i] = inside[i].ID
	}
	fmt.Fprintf(w, "range %s: candidates=%v inside=%v\n", q, ix.Tree().RangeQuery(q), ids)
	return nil
}

func printClosest(ctx context.Context, w io.Writer, ix *kdquad.Index, arg string) error {
	x, y, err := bbox.ParsePoint(arg)
	if err != nil {
		return err
	}
	r, d, err := ix.Nearest(ctx, x, y)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "closest (%g, %g): leaf=%v nearest=%s distance=%g\n", x, y, ix.Tree().Closest(x, y), r, d)
	return nil
}

func writeTree(path string, tree *kdtree.KDTree, l *slog.Logger) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := tree.Marshal(file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	l.Info("tree_written", "file", path, "bytes", n)
	return nil
}

func serve(ctx context.Context, addr string, s *api.Server, l *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", s.BuildRoutes()))
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           logger.AccessMiddleware(l)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	l.Info("server_listen", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	l.Info("server_stopped", "addr", addr)
	return nil
}

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics defines the Prometheus collectors of the kdquad
// server and registers them with the default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/gogama/kdquad/kdtree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000}

var (
	BuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kdquad_builds_total",
		Help: "Total number of KD-tree builds",
	})
	BuildDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kdquad_build_duration_ms",
		Help:    "KD-tree build duration in milliseconds",
		Buckets: durationBuckets,
	})
	TreePoints = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kdquad_tree_points",
		Help: "Number of points in the current KD-tree",
	})
	TreeDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kdquad_tree_depth",
		Help: "Number of levels in the current KD-tree",
	})
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kdquad_queries_total",
		Help: "Total number of queries by kind",
	}, []string{"query"})
	QueryErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kdquad_query_errors_total",
		Help: "Total number of failed queries by kind",
	}, []string{"query"})
	QueryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kdquad_query_duration_ms",
		Help:    "Query duration in milliseconds by kind",
		Buckets: durationBuckets,
	}, []string{"query"})
	QueryResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kdquad_query_results",
		Help:    "Number of ids or records returned per query by kind",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"query"})
)

func init() {
	prometheus.MustRegister(BuildsTotal)
	prometheus.MustRegister(BuildDurationMs)
	prometheus.MustRegister(TreePoints)
	prometheus.MustRegister(TreeDepth)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryErrorsTotal)
	prometheus.MustRegister(QueryDurationMs)
	prometheus.MustRegister(QueryResults)
}

// ObserveBuild records a completed build of t.
func ObserveBuild(t *kdtree.KDTree, d time.Duration) {
	BuildsTotal.Inc()
	BuildDurationMs.Observe(ms(d))
	TreePoints.Set(float64(t.NumPoints()))
	TreeDepth.Set(float64(t.MaxDepth()))
}

// ObserveQuery records one query of the given kind. A non-nil err
// counts as a failure and records no result size.
func ObserveQuery(kind string, d time.Duration, results int, err error) {
	QueriesTotal.WithLabelValues(kind).Inc()
	QueryDurationMs.WithLabelValues(kind).Observe(ms(d))
	if err != nil {
		QueryErrorsTotal.WithLabelValues(kind).Inc()
		return
	}
	QueryResults.WithLabelValues(kind).Observe(float64(results))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Handler serves the default registry in the Prometheus exposition
// format.
func Handler() http.Handler { return promhttp.Handler() }

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gogama/kdquad/kdtree"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBuild(t *testing.T) {
	tree, err := kdtree.New([]kdtree.Point{{ID: 1, X: 0, Y: 0}, {ID: 2, X: 1, Y: 1}, {ID: 3, X: 2, Y: 0}}, kdtree.Options{})
	require.NoError(t, err)
	before := testutil.ToFloat64(BuildsTotal)

	ObserveBuild(tree, 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(BuildsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(TreePoints))
	assert.Equal(t, float64(2), testutil.ToFloat64(TreeDepth))
}

func TestObserveQuery(t *testing.T) {
	ok := testutil.ToFloat64(QueriesTotal.WithLabelValues("test_range"))
	failed := testutil.ToFloat64(QueryErrorsTotal.WithLabelValues("test_range"))

	ObserveQuery("test_range", time.Millisecond, 12, nil)
	ObserveQuery("test_range", time.Millisecond, 0, errors.New("boom"))

	assert.Equal(t, ok+2, testutil.ToFloat64(QueriesTotal.WithLabelValues("test_range")))
	assert.Equal(t, failed+1, testutil.ToFloat64(QueryErrorsTotal.WithLabelValues("test_range")))
}

func TestHandler(t *testing.T) {
	ObserveQuery("test_handler", time.Millisecond, 1, nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kdquad_queries_total{query="test_handler"} 1`)
	assert.Contains(t, rec.Body.String(), "kdquad_build_duration_ms_bucket")
}

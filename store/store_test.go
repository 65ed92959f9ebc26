// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		testCases := []struct {
			name     string
			fields   []string
			expected string
		}{
			{"Empty", []string{"x", ""}, `store: empty name for field 1`},
			{"Reserved", []string{"x", "Key"}, `store: field name "Key" is reserved`},
			{"Duplicate", []string{"x", "y", "x"}, `store: duplicate field name "x"`},
		}

		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				_, err := NewSchema(testCase.fields...)

				assert.EqualError(t, err, testCase.expected)
			})
		}
	})

	t.Run("MustPanic", func(t *testing.T) {
		assert.PanicsWithValue(t, `store: duplicate field name "a"`, func() { MustSchema("a", "a") })
	})

	t.Run("NoFields", func(t *testing.T) {
		s, err := NewSchema()

		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
		assert.Equal(t, "Schema{}", s.String())
	})

	t.Run("Index", func(t *testing.T) {
		s := MustSchema("x", "y", "quad-lvl")

		assert.Equal(t, 3, s.Len())
		assert.Equal(t, []string{"x", "y", "quad-lvl"}, s.Fields())
		assert.Equal(t, "Schema{x,y,quad-lvl}", s.String())
		for i, f := range []string{"x", "y", "quad-lvl"} {
			j, err := s.Index(f)
			assert.NoError(t, err)
			assert.Equal(t, i, j)
		}
		_, err := s.Index(KeyField)
		assert.ErrorIs(t, err, ErrUnknownField)
		assert.EqualError(t, err, `store: unknown field "key"`)
	})

	t.Run("FieldsCopy", func(t *testing.T) {
		s := MustSchema("x", "y")
		fields := s.Fields()
		fields[0] = "z"

		assert.Equal(t, []string{"x", "y"}, s.Fields())
	})
}

func TestRecord_String(t *testing.T) {
	assert.Equal(t, "Record{ID:3,Values:[2 3 0]}", Record{ID: 3, Values: []float64{2, 3, 0}}.String())
}

// fullStore is satisfied by every backend.
type fullStore interface {
	Updater
	Inserter
	Get(ctx context.Context, id int64) (Record, error)
}

// testBackend runs the same scenario against an empty backend with
// schema ("x", "y", "quad-lvl").
func testBackend(t *testing.T, s fullStore) {
	ctx := context.Background()

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	id, err := s.Insert(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	id, err = s.Insert(ctx, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	ids, err := InsertAll(ctx, s, [][]float64{{2, 3}, {3, 4, 5}})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, ids)

	_, err = s.Insert(ctx, 1, 2, 3, 4)
	assert.ErrorIs(t, err, ErrRecordTooLong)
	assert.EqualError(t, err, "store: record has more values than schema fields (values=4, fields=3)")

	ids, err = InsertAll(ctx, s, [][]float64{{0.5}, {1, 2, 3, 4}, {7}})
	assert.ErrorIs(t, err, ErrRecordTooLong)
	assert.Equal(t, []int64{5}, ids)

	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, keys)

	records, err := s.Query(ctx, []int64{4, 99, 2})
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{ID: 4, Values: []float64{3, 4, 5}},
		{ID: 2, Values: []float64{1, 2, 3}},
	}, records)

	records, err = s.Query(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.UpdateField(ctx, 1, "x", 9))
	require.NoError(t, s.Update(ctx, 1, 2, 10))
	r, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Record{ID: 1, Values: []float64{9, 2, 10}}, r)

	err = s.Update(ctx, 1, 3, 0)
	assert.ErrorIs(t, err, ErrUnknownField)
	err = s.Update(ctx, 1, -1, 0)
	assert.ErrorIs(t, err, ErrUnknownField)
	err = s.UpdateField(ctx, 1, "z", 0)
	assert.ErrorIs(t, err, ErrUnknownField)
	err = s.Update(ctx, 42, 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"strings"
)

// KeyField is the reserved name of the id column. It is never one of a
// Schema's value fields.
const KeyField = "key"

// Record is one stored row: the id assigned on insert and one value per
// schema field.
type Record struct {
	ID     int64
	Values []float64
}

func (r Record) String() string {
	return fmt.Sprintf("Record{ID:%d,Values:%v}", r.ID, r.Values)
}

// Store is the read side of a record store, the part a spatial index
// needs to be built and to resolve query results.
type Store interface {
	// Keys returns every record id in ascending order.
	Keys(ctx context.Context) ([]int64, error)
	// Query returns the records with the given ids in the order
	// requested. Unknown ids are skipped.
	Query(ctx context.Context, ids []int64) ([]Record, error)
}

// Inserter adds records to a store.
type Inserter interface {
	// Insert stores one record and returns its new id. Values shorter
	// than the schema are padded with zeros; longer values fail with
	// ErrRecordTooLong.
	Insert(ctx context.Context, values ...float64) (int64, error)
}

// Updater changes single values of stored records.
type Updater interface {
	Store
	// Update sets the value at the 0-based value index of a record.
	Update(ctx context.Context, id int64, index int, value float64) error
	// UpdateField sets the value of the named field of a record.
	UpdateField(ctx context.Context, id int64, field string, value float64) error
}

// Schema names the value columns of a store's records.
type Schema struct {
	fields []string
	index  map[string]int
}

// NewSchema returns a schema with the given field names in column
// order. Names must be non-empty, unique and different from KeyField.
func NewSchema(fields ...string) (Schema, error) {
	s := Schema{
		fields: make([]string, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f == "" {
			return Schema{}, fmtErr("empty name for field %d", i)
		} else if strings.EqualFold(f, KeyField) {
			return Schema{}, fmtErr("field name %q is reserved", f)
		} else if _, ok := s.index[f]; ok {
			return Schema{}, fmtErr("duplicate field name %q", f)
		}
		s.fields[i] = f
		s.index[f] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(fields ...string) Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// Len returns the number of value fields.
func (s Schema) Len() int {
	return len(s.fields)
}

// Fields returns the field names in column order.
func (s Schema) Fields() []string {
	return append([]string(nil), s.fields...)
}

// Index returns the 0-based value index of the named field.
func (s Schema) Index(field string) (int, error) {
	if i, ok := s.index[field]; ok {
		return i, nil
	}
	return -1, fmt.Errorf("%w %q", ErrUnknownField, field)
}

func (s Schema) String() string {
	return "Schema{" + strings.Join(s.fields, ",") + "}"
}

// pad validates the length of values against the schema and returns a
// row of exactly Len values.
func (s Schema) pad(values []float64) ([]float64, error) {
	if len(values) > len(s.fields) {
		return nil, fmt.Errorf("%w (values=%d, fields=%d)", ErrRecordTooLong, len(values), len(s.fields))
	}
	row := make([]float64, len(s.fields))
	copy(row, values)
	return row, nil
}

func (s Schema) checkIndex(index int) error {
	if index < 0 || index >= len(s.fields) {
		return fmt.Errorf("%w index %d (fields=%d)", ErrUnknownField, index, len(s.fields))
	}
	return nil
}

// InsertAll inserts each row in turn and returns the new ids in order.
// It stops at the first failure, returning the ids inserted so far.
func InsertAll(ctx context.Context, s Inserter, rows [][]float64) ([]int64, error) {
	ids := make([]int64, 0, len(rows))
	for i, row := range rows {
		id, err := s.Insert(ctx, row...)
		if err != nil {
			return ids, fmt.Errorf("%w (row %d)", err, i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var (
	_ Updater  = (*Memory)(nil)
	_ Inserter = (*Memory)(nil)
	_ Updater  = (*Redis)(nil)
	_ Inserter = (*Redis)(nil)
	_ Updater  = (*Postgres)(nil)
	_ Inserter = (*Postgres)(nil)
)

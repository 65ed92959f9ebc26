// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process record store. It is safe for concurrent use.
type Memory struct {
	schema Schema

	mu      sync.RWMutex
	records map[int64][]float64
	seq     int64
}

// NewMemory returns an empty in-memory store with the given schema.
func NewMemory(schema Schema) *Memory {
	return &Memory{
		schema:  schema,
		records: make(map[int64][]float64),
	}
}

// Schema returns the store's schema.
func (m *Memory) Schema() Schema {
	return m.schema
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory) Insert(_ context.Context, values ...float64) (int64, error) {
	row, err := m.schema.pad(values)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.records[m.seq] = row
	return m.seq, nil
}

func (m *Memory) Keys(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	keys := make([]int64, 0, len(m.records))
	for id := range m.records {
		keys = append(keys, id)
	}
	m.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (m *Memory) Query(_ context.Context, ids []int64) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if row, ok := m.records[id]; ok {
			records = append(records, Record{ID: id, Values: append([]float64(nil), row...)})
		}
	}
	return records, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (m *Memory) Get(_ context.Context, id int64) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w (id=%d)", ErrNotFound, id)
	}
	return Record{ID: id, Values: append([]float64(nil), row...)}, nil
}

func (m *Memory) Update(_ context.Context, id int64, index int, value float64) error {
	if err := m.schema.checkIndex(index); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w (id=%d)", ErrNotFound, id)
	}
	row[index] = value
	return nil
}

func (m *Memory) UpdateField(ctx context.Context, id int64, field string, value float64) error {
	index, err := m.schema.Index(field)
	if err != nil {
		return err
	}
	return m.Update(ctx, id, index, value)
}

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// DefaultPostgresTable is the table used when NewPostgres is given an
// empty table name.
const DefaultPostgresTable = "kdquad_records"

// Postgres is a record store kept in a PostgreSQL table with a BIGSERIAL
// id column and a DOUBLE PRECISION[] column holding one element per
// schema field.
type Postgres struct {
	db     *sql.DB
	table  string
	schema Schema
	logger *slog.Logger
}

// NewPostgres returns a store over an open database handle, creating the
// table if it does not exist. A nil logger uses slog.Default.
func NewPostgres(ctx context.Context, db *sql.DB, table string, schema Schema, logger *slog.Logger) (*Postgres, error) {
	if db == nil {
		textPanic("nil database handle")
	}
	if table == "" {
		table = DefaultPostgresTable
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Postgres{db: db, table: pq.QuoteIdentifier(table), schema: schema, logger: logger}
	ddl := "CREATE TABLE IF NOT EXISTS " + p.table + " (id BIGSERIAL PRIMARY KEY, vals DOUBLE PRECISION[] NOT NULL)"
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, wrapErr("failed to create table %s", err, p.table)
	}
	logger.Debug("pg_table_ready", "table", table)
	return p, nil
}

// Schema returns the store's schema.
func (p *Postgres) Schema() Schema {
	return p.schema
}

func (p *Postgres) Insert(ctx context.Context, values ...float64) (int64, error) {
	row, err := p.schema.pad(values)
	if err != nil {
		return 0, err
	}
	var id int64
	err = p.db.QueryRowContext(ctx, "INSERT INTO "+p.table+" (vals) VALUES ($1) RETURNING id", pq.Array(row)).Scan(&id)
	if err != nil {
		return 0, wrapErr("failed to insert record", err)
	}
	return id, nil
}

func (p *Postgres) Keys(ctx context.Context) ([]int64, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT id FROM "+p.table+" ORDER BY id")
	if err != nil {
		return nil, wrapErr("failed to list record ids", err)
	}
	defer rows.Close()
	keys := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, wrapErr("failed to scan record id", err)
		}
		keys = append(keys, id)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr("failed to list record ids", err)
	}
	return keys, nil
}

func (p *Postgres) Query(ctx context.Context, ids []int64) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}
	rows, err := p.db.QueryContext(ctx, "SELECT id, vals FROM "+p.table+" WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, wrapErr("failed to query %d records", err, len(ids))
	}
	defer rows.Close()
	found := make(map[int64][]float64, len(ids))
	for rows.Next() {
		var id int64
		var vals pq.Float64Array
		if err = rows.Scan(&id, &vals); err != nil {
			return nil, wrapErr("failed to scan record", err)
		}
		found[id] = p.fit(vals)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr("failed to query %d records", err, len(ids))
	}
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if row, ok := found[id]; ok {
			records = append(records, Record{ID: id, Values: append([]float64(nil), row...)})
		}
	}
	return records, nil
}

// fit resizes a stored array to the schema length, which differs only
// when the schema changed after the row was written.
func (p *Postgres) fit(vals []float64) []float64 {
	row := make([]float64, p.schema.Len())
	copy(row, vals)
	return row
}

// Get returns the record with the given id, or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, id int64) (Record, error) {
	var vals pq.Float64Array
	err := p.db.QueryRowContext(ctx, "SELECT vals FROM "+p.table+" WHERE id = $1", id).Scan(&vals)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w (id=%d)", ErrNotFound, id)
	} else if err != nil {
		return Record{}, wrapErr("failed to get record %d", err, id)
	}
	return Record{ID: id, Values: p.fit(vals)}, nil
}

func (p *Postgres) Update(ctx context.Context, id int64, index int, value float64) error {
	if err := p.schema.checkIndex(index); err != nil {
		return err
	}
	// PostgreSQL arrays are 1-based.
	res, err := p.db.ExecContext(ctx, "UPDATE "+p.table+" SET vals[$1] = $2 WHERE id = $3", index+1, value, id)
	if err != nil {
		return wrapErr("failed to update record %d", err, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("failed to update record %d", err, id)
	} else if n == 0 {
		return fmt.Errorf("%w (id=%d)", ErrNotFound, id)
	}
	return nil
}

func (p *Postgres) UpdateField(ctx context.Context, id int64, field string, value float64) error {
	index, err := p.schema.Index(field)
	if err != nil {
		return err
	}
	return p.Update(ctx, id, index, value)
}

// Drop removes the store's table.
func (p *Postgres) Drop(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+p.table); err != nil {
		return wrapErr("failed to drop table %s", err, p.table)
	}
	return nil
}

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix used when NewRedis is given an
// empty prefix.
const DefaultRedisPrefix = "kdquad"

// Redis is a record store kept in a Redis server. Under its key prefix
// it uses:
//
//	<prefix>:seq       string, INCR counter issuing record ids
//	<prefix>:ids       sorted set of record ids scored by id
//	<prefix>:rec:<id>  hash of field name to value
//
// Values are stored in their shortest exact decimal form.
type Redis struct {
	client redis.UniversalClient
	prefix string
	schema Schema
	logger *slog.Logger
}

// NewRedis returns a store over an open client. A nil logger uses
// slog.Default.
func NewRedis(client redis.UniversalClient, prefix string, schema Schema, logger *slog.Logger) *Redis {
	if client == nil {
		textPanic("nil redis client")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, prefix: prefix, schema: schema, logger: logger}
}

// Schema returns the store's schema.
func (r *Redis) Schema() Schema {
	return r.schema
}

func (r *Redis) seqKey() string { return r.prefix + ":seq" }
func (r *Redis) idsKey() string { return r.prefix + ":ids" }

func (r *Redis) recordKey(id int64) string {
	return r.prefix + ":rec:" + strconv.FormatInt(id, 10)
}

func (r *Redis) Insert(ctx context.Context, values ...float64) (int64, error) {
	row, err := r.schema.pad(values)
	if err != nil {
		return 0, err
	}
	id, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return 0, wrapErr("failed to issue record id", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(row) > 0 {
			hash := make([]interface{}, 0, 2*len(row))
			for i, v := range row {
				hash = append(hash, r.schema.fields[i], strconv.FormatFloat(v, 'g', -1, 64))
			}
			pipe.HSet(ctx, r.recordKey(id), hash...)
		}
		pipe.ZAdd(ctx, r.idsKey(), redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		return 0, wrapErr("failed to insert record %d", err, id)
	}
	r.logger.Debug("redis_record_insert", "prefix", r.prefix, "id", id)
	return id, nil
}

func (r *Redis) Keys(ctx context.Context) ([]int64, error) {
	members, err := r.client.ZRange(ctx, r.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, wrapErr("failed to list record ids", err)
	}
	keys := make([]int64, len(members))
	for i, m := range members {
		if keys[i], err = strconv.ParseInt(m, 10, 64); err != nil {
			return nil, wrapErr("bad record id %q", err, m)
		}
	}
	return keys, nil
}

func (r *Redis) Query(ctx context.Context, ids []int64) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}
	scores := make([]*redis.FloatCmd, len(ids))
	values := make([]*redis.SliceCmd, len(ids))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			scores[i] = pipe.ZScore(ctx, r.idsKey(), strconv.FormatInt(id, 10))
			if r.schema.Len() > 0 {
				values[i] = pipe.HMGet(ctx, r.recordKey(id), r.schema.fields...)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, wrapErr("failed to query %d records", err, len(ids))
	}
	records := make([]Record, 0, len(ids))
	for i, id := range ids {
		if err := scores[i].Err(); errors.Is(err, redis.Nil) {
			continue
		} else if err != nil {
			return nil, wrapErr("failed to query record %d", err, id)
		}
		row := make([]float64, r.schema.Len())
		if values[i] != nil {
			if err := values[i].Err(); err != nil {
				return nil, wrapErr("failed to query record %d", err, id)
			}
			if err := parseHash(values[i].Val(), row); err != nil {
				return nil, wrapErr("bad record %d", err, id)
			}
		}
		records = append(records, Record{ID: id, Values: row})
	}
	return records, nil
}

func parseHash(raw []interface{}, row []float64) error {
	for j, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		row[j] = f
	}
	return nil
}

// Get returns the record with the given id, or ErrNotFound.
func (r *Redis) Get(ctx context.Context, id int64) (Record, error) {
	records, err := r.Query(ctx, []int64{id})
	if err != nil {
		return Record{}, err
	} else if len(records) == 0 {
		return Record{}, fmt.Errorf("%w (id=%d)", ErrNotFound, id)
	}
	return records[0], nil
}

func (r *Redis) Update(ctx context.Context, id int64, index int, value float64) error {
	if err := r.schema.checkIndex(index); err != nil {
		return err
	}
	err := r.client.ZScore(ctx, r.idsKey(), strconv.FormatInt(id, 10)).Err()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w (id=%d)", ErrNotFound, id)
	} else if err != nil {
		return wrapErr("failed to look up record %d", err, id)
	}
	field := r.schema.fields[index]
	if err = r.client.HSet(ctx, r.recordKey(id), field, strconv.FormatFloat(value, 'g', -1, 64)).Err(); err != nil {
		return wrapErr("failed to update field %q of record %d", err, field, id)
	}
	return nil
}

func (r *Redis) UpdateField(ctx context.Context, id int64, field string, value float64) error {
	index, err := r.schema.Index(field)
	if err != nil {
		return err
	}
	return r.Update(ctx, id, index, value)
}

// Clear deletes every key the store owns under its prefix.
func (r *Redis) Clear(ctx context.Context) error {
	ids, err := r.Keys(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+2)
	keys = append(keys, r.seqKey(), r.idsKey())
	for _, id := range ids {
		keys = append(keys, r.recordKey(id))
	}
	if err = r.client.Del(ctx, keys...).Err(); err != nil {
		return wrapErr("failed to clear prefix %q", err, r.prefix)
	}
	return nil
}

// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gogama/kdquad/internal/config"
	"github.com/gogama/kdquad/store"
	"github.com/redis/go-redis/v9"
)

// backend is what the command needs from a store.
type backend interface {
	store.Updater
	store.Inserter
}

// openStore opens the configured backend. The returned close function
// releases its connections.
func openStore(ctx context.Context, cfg *config.Config, schema store.Schema, l *slog.Logger) (backend, func() error, error) {
	switch cfg.Store {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Pass,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr(), err)
		}
		l.Info("store_open_ok", "store", cfg.Store, "addr", cfg.Redis.Addr(), "db", cfg.Redis.DB, "prefix", cfg.Redis.Prefix)
		return store.NewRedis(client, cfg.Redis.Prefix, schema, l), client.Close, nil
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		if err = db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres ping %s:%s: %w", cfg.Postgres.Host, cfg.Postgres.Port, err)
		}
		p, err := store.NewPostgres(ctx, db, cfg.Postgres.Table, schema, l)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		l.Info("store_open_ok", "store", cfg.Store, "host", cfg.Postgres.Host, "db", cfg.Postgres.DB, "table", cfg.Postgres.Table)
		return p, db.Close, nil
	default:
		l.Debug("store_open_ok", "store", config.StoreMemory)
		return store.NewMemory(schema), func() error { return nil }, nil
	}
}

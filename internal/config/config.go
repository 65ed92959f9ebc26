// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config reads the kdquad command's settings from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/gogama/kdquad/kdtree"
	"github.com/gogama/kdquad/store"
	"github.com/joho/godotenv"
)

// Store backend names.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// DefaultQuadDepth is the quadtree depth used when KDQUAD_QUAD_DEPTH is
// not set.
const DefaultQuadDepth = 5

// Redis holds the connection settings of the Redis backend.
type Redis struct {
	Host   string
	Port   string
	Pass   string
	DB     int
	Prefix string
}

// Addr returns host:port.
func (r Redis) Addr() string {
	return r.Host + ":" + r.Port
}

// Postgres holds the connection settings of the PostgreSQL backend.
type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	Table    string
}

// DSN returns a postgres:// connection URL.
func (p Postgres) DSN() string {
	dsn := "postgres://" + p.User
	if p.Password != "" {
		dsn += ":" + p.Password
	}
	return dsn + "@" + p.Host + ":" + p.Port + "/" + p.DB + "?sslmode=" + p.SSLMode
}

// Config is the complete command configuration.
type Config struct {
	// Store is one of StoreMemory, StoreRedis or StorePostgres.
	Store string
	// XField and YField name the coordinate fields of stored records.
	XField, YField string
	// QuadField names the field receiving quad levels. Empty disables
	// writing levels back to the store.
	QuadField string
	Tree      kdtree.Options
	QuadDepth int
	// Addr is the HTTP listen address. Empty means do not serve.
	Addr     string
	Redis    Redis
	Postgres Postgres
}

// Schema returns the record schema implied by the field settings.
func (c *Config) Schema() (store.Schema, error) {
	fields := []string{c.XField, c.YField}
	if c.QuadField != "" {
		fields = append(fields, c.QuadField)
	}
	return store.NewSchema(fields...)
}

// Load reads the .env file at path, if it exists, into the environment
// without overriding variables already set, then returns FromEnv.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	e := env{}
	c := Config{
		Store:     strings.ToLower(e.str("KDQUAD_STORE", StoreMemory)),
		XField:    e.str("KDQUAD_X_FIELD", "x"),
		YField:    e.str("KDQUAD_Y_FIELD", "y"),
		QuadField: e.str("KDQUAD_QUAD_FIELD", "quad"),
		Tree: kdtree.Options{
			MaxDepth:           e.int("KDQUAD_MAX_DEPTH", 0),
			MaxElementsPerLeaf: e.int("KDQUAD_MAX_ELEMENTS", 0),
			Parallelism:        e.int("KDQUAD_PARALLELISM", 0),
		},
		QuadDepth: e.int("KDQUAD_QUAD_DEPTH", DefaultQuadDepth),
		Addr:      e.str("KDQUAD_ADDR", ""),
		Redis: Redis{
			Host:   e.str("REDIS_HOST", "127.0.0.1"),
			Port:   e.str("REDIS_PORT", "6379"),
			Pass:   e.str("REDIS_PASS", ""),
			DB:     e.int("REDIS_DB", 0),
			Prefix: e.str("KDQUAD_REDIS_PREFIX", store.DefaultRedisPrefix),
		},
		Postgres: Postgres{
			Host:     e.str("PG_HOST", "localhost"),
			Port:     e.str("PG_PORT", "5432"),
			User:     e.str("PG_USER", "postgres"),
			Password: e.str("PG_PASSWORD", ""),
			DB:       e.str("PG_DB", "kdquad"),
			SSLMode:  e.str("PG_SSLMODE", "disable"),
			Table:    e.str("KDQUAD_PG_TABLE", store.DefaultPostgresTable),
		},
	}
	if e.err != nil {
		return Config{}, e.err
	}
	switch c.Store {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return Config{}, fmt.Errorf("config: unknown store %q", c.Store)
	}
	if c.Redis.DB < 0 {
		return Config{}, fmt.Errorf("config: REDIS_DB may not be negative (%d)", c.Redis.DB)
	}
	return c, nil
}

// env reads variables, keeping the first parse error.
type env struct {
	err error
}

func (e *env) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("config: bad %s: %w", key, err)
	}
	return n
}

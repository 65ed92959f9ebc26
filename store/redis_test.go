// Copyright 2026 The kdquad (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	assert.PanicsWithValue(t, "store: nil redis client", func() { NewRedis(nil, "", Schema{}, nil) })

	r := NewRedis(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "", MustSchema("x"), nil)
	assert.Equal(t, DefaultRedisPrefix, r.prefix)
	assert.Equal(t, "kdquad:rec:12", r.recordKey(12))
	assert.Equal(t, MustSchema("x"), r.Schema())
}

func TestParseHash(t *testing.T) {
	row := make([]float64, 3)

	require.NoError(t, parseHash([]interface{}{"1.5", nil, "-2e3"}, row))
	assert.Equal(t, []float64{1.5, 0, -2000}, row)
	assert.Error(t, parseHash([]interface{}{"one"}, row))
}

// scriptedPipeline answers pipelines without a server: every ZSCORE
// finds its member and every HMGET fails with hmgetErr.
type scriptedPipeline struct {
	hmgetErr error
}

func (h scriptedPipeline) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h scriptedPipeline) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return next(ctx, cmd)
	}
}

func (h scriptedPipeline) ProcessPipelineHook(_ redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			switch c := cmd.(type) {
			case *redis.FloatCmd:
				c.SetVal(1)
			case *redis.SliceCmd:
				c.SetErr(h.hmgetErr)
			}
		}
		return nil
	}
}

func TestRedis_QueryValuesError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	hmgetErr := errors.New("connection reset")
	client.AddHook(scriptedPipeline{hmgetErr: hmgetErr})
	r := NewRedis(client, "", MustSchema("x", "y"), nil)

	records, err := r.Query(context.Background(), []int64{4})

	assert.Nil(t, records)
	assert.EqualError(t, err, "store: failed to query record 4: connection reset")
	assert.ErrorIs(t, err, hmgetErr)
}

// TestRedis runs against a live server at KDQUAD_TEST_REDIS_ADDR.
func TestRedis(t *testing.T) {
	addr := os.Getenv("KDQUAD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KDQUAD_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	r := NewRedis(client, fmt.Sprintf("kdquad-test-%d", time.Now().UnixNano()), MustSchema("x", "y", "quad-lvl"), nil)
	t.Cleanup(func() { _ = r.Clear(context.Background()) })

	testBackend(t, r)
}

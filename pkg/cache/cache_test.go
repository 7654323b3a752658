// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastCache_GetSetDel(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(FastCacheConfig{})

	_, err := fc.Get(ctx, "missing").Result()
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, fc.Set(ctx, "k", "v", 0).Err())
	val, err := fc.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	n, err := fc.Del(ctx, "k", "other").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = fc.Get(ctx, "k").Result()
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFastCache_StructValue(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(FastCacheConfig{})

	require.NoError(t, fc.Set(ctx, "role", map[string]string{"id": "1"}, 0).Err())
	val, err := fc.Get(ctx, "role").Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, val)
}

func TestFastCache_Expiration(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(FastCacheConfig{})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }

	require.NoError(t, fc.Set(ctx, "k", "v", time.Minute).Err())
	_, err := fc.Get(ctx, "k").Result()
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = fc.Get(ctx, "k").Result()
	assert.ErrorIs(t, err, ErrCacheMiss)

	ok, err := fc.Expire(ctx, "k", time.Minute).Result()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFastCache_ExpireExtends(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(FastCacheConfig{})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }

	require.NoError(t, fc.Set(ctx, "k", "v", time.Minute).Err())
	ok, err := fc.Expire(ctx, "k", time.Hour).Result()
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(30 * time.Minute)
	val, err := fc.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "guildsync:discord:roles:g1", Key("discord", "roles", "g1"))
	assert.Equal(t, "guildsync:event:42", Key("event", "", 42))
	assert.Equal(t, "guildsync", Key())
}

func TestCachedQuery(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(FastCacheConfig{})
	calls := 0
	cq := NewCachedQuery[[]string](fc,
		[]any{"roles", "g1"},
		func(ctx context.Context) ([]string, error) {
			calls++
			return []string{"MEMBER", "ADMIN"}, nil
		},
		WithTTL[[]string](time.Minute),
	)
	assert.Equal(t, "guildsync:roles:g1", cq.Key())

	got, err := cq.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MEMBER", "ADMIN"}, got)

	got, err = cq.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MEMBER", "ADMIN"}, got)
	assert.Equal(t, 1, calls)

	require.NoError(t, cq.Invalidate(ctx))
	_, err = cq.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCachedQuery_LoadError(t *testing.T) {
	boom := errors.New("boom")
	cq := NewCachedQuery[int](nil, []any{"k"},
		func(ctx context.Context) (int, error) { return 0, boom },
	)
	_, err := cq.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCachedQuery_CorruptEntryReloads(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(FastCacheConfig{})
	require.NoError(t, fc.Set(ctx, Key("n"), "{not json", time.Minute).Err())
	cq := NewCachedQuery[map[string]int](fc, []any{"n"},
		func(ctx context.Context) (map[string]int, error) { return map[string]int{"a": 1}, nil },
	)
	got, err := cq.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got["a"])
}

func TestProvideICache(t *testing.T) {
	c, err := ProvideICache(Config{Driver: "local"})
	require.NoError(t, err)
	assert.IsType(t, &FastCache{}, c)

	_, err = ProvideICache(Config{Driver: "memcached"})
	assert.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	opts, err := Redis{Address: "a:6379, b:6379", DB: 2}.options()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:6379"}, opts.Addrs)
	assert.Equal(t, 2, opts.DB)

	opts, err = Redis{Mode: "cluster", Address: "a:1,b:2,c:3", DB: 2}.options()
	require.NoError(t, err)
	assert.True(t, opts.IsClusterMode)
	assert.Len(t, opts.Addrs, 3)
	assert.Zero(t, opts.DB)

	_, err = Redis{Mode: "sentinel", Address: "s:26379"}.options()
	assert.Error(t, err)

	_, err = Redis{Mode: "sentinel", Address: "s:26379", MasterName: "guild"}.options()
	assert.NoError(t, err)

	_, err = Redis{Mode: "ring", Address: "a:1"}.options()
	assert.Error(t, err)

	_, err = Redis{}.options()
	assert.Error(t, err)
}

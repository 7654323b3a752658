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
	"encoding/binary"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

type FastCacheConfig struct {
	MaxBytes int // 默认 16MB
}

// FastCache is a process-local ICache on VictoriaMetrics fastcache, used when
// no redis is configured. Each entry is an 8-byte big-endian expiry in unix
// nanos (0 = none) followed by the value; expired entries read as misses and
// are dropped on access or overwritten by fastcache's own eviction.
type FastCache struct {
	mu    sync.Mutex
	cache *fastcache.Cache
	now   func() time.Time
}

func NewFastCache(conf FastCacheConfig) *FastCache {
	maxBytes := conf.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 16 << 20
	}
	return &FastCache{cache: fastcache.New(maxBytes), now: time.Now}
}

func (fc *FastCache) encode(value []byte, ttl time.Duration) []byte {
	buf := make([]byte, 8+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(fc.now().Add(ttl).UnixNano()))
	}
	copy(buf[8:], value)
	return buf
}

// load returns the live value for key; the caller holds mu.
func (fc *FastCache) load(key []byte) ([]byte, bool) {
	raw, ok := fc.cache.HasGet(nil, key)
	if !ok || len(raw) < 8 {
		return nil, false
	}
	if exp := int64(binary.BigEndian.Uint64(raw)); exp != 0 && fc.now().UnixNano() >= exp {
		fc.cache.Del(key)
		return nil, false
	}
	return raw[8:], true
}

func (fc *FastCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	fc.mu.Lock()
	v, ok := fc.load([]byte(key))
	fc.mu.Unlock()
	if !ok {
		cmd.SetErr(ErrCacheMiss)
		return cmd
	}
	cmd.SetVal(string(v))
	return cmd
}

// Set stores strings and byte slices as is and sonic-encodes anything else.
func (fc *FastCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)

	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		data, err := sonic.Marshal(v)
		if err != nil {
			cmd.SetErr(err)
			return cmd
		}
		b = data
	}

	fc.mu.Lock()
	fc.cache.Set([]byte(key), fc.encode(b, expiration))
	fc.mu.Unlock()
	cmd.SetVal("OK")
	return cmd
}

func (fc *FastCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	var n int64

	fc.mu.Lock()
	for _, key := range keys {
		k := []byte(key)
		if _, ok := fc.load(k); ok {
			n++
		}
		fc.cache.Del(k)
	}
	fc.mu.Unlock()

	cmd.SetVal(n)
	return cmd
}

// Expire resets the ttl of a live key and reports whether it existed.
func (fc *FastCache) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key)
	k := []byte(key)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	v, ok := fc.load(k)
	if ok {
		fc.cache.Set(k, fc.encode(v, expiration))
	}
	cmd.SetVal(ok)
	return cmd
}

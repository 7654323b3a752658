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
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/guildsync/pkg/log"
	"golang.org/x/sync/singleflight"
)

// QueryFunc loads the value from its source of truth on a cache miss.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// CachedQuery is a cache-aside reader keyed under one namespace. Values are
// stored as sonic JSON. Concurrent misses for the same key share one load.
type CachedQuery[T any] struct {
	cache     ICache
	namespace []any
	load      QueryFunc[T]
	ttl       time.Duration
	group     singleflight.Group
}

type CachedQueryOption[T any] func(*CachedQuery[T])

func WithTTL[T any](ttl time.Duration) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		if ttl > 0 {
			cq.ttl = ttl
		}
	}
}

// NewCachedQuery builds a reader whose keys are Key(namespace...).
// A nil cache disables caching; loads are still collapsed.
func NewCachedQuery[T any](c ICache, namespace []any, load QueryFunc[T], opts ...CachedQueryOption[T]) *CachedQuery[T] {
	cq := &CachedQuery[T]{
		cache:     c,
		namespace: namespace,
		load:      load,
		ttl:       time.Hour,
	}
	for _, opt := range opts {
		opt(cq)
	}
	return cq
}

// Key returns the full cache key the reader uses.
func (cq *CachedQuery[T]) Key() string {
	return Key(cq.namespace...)
}

// Get returns the cached value or loads, stores and returns it. Cache
// backend errors are logged and never fail the read.
func (cq *CachedQuery[T]) Get(ctx context.Context) (T, error) {
	key := cq.Key()
	if v, ok := cq.lookup(ctx, key); ok {
		return v, nil
	}

	v, err, shared := cq.group.Do(key, func() (any, error) {
		res, err := cq.load(ctx)
		if err != nil {
			return res, err
		}
		cq.store(ctx, key, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		log.Debugw("cache load shared", "key", key)
	}
	return v.(T), nil
}

func (cq *CachedQuery[T]) lookup(ctx context.Context, key string) (T, bool) {
	var out T
	if cq.cache == nil {
		return out, false
	}
	raw, err := cq.cache.Get(ctx, key).Result()
	if err != nil {
		if !IsMiss(err) {
			log.Warnw("cache get failed", "key", key, "error", err)
		}
		return out, false
	}
	if raw == "" {
		return out, false
	}
	if err := sonic.UnmarshalString(raw, &out); err != nil {
		log.Warnw("cache entry undecodable, reloading", "key", key, "error", err)
		return out, false
	}
	return out, true
}

func (cq *CachedQuery[T]) store(ctx context.Context, key string, v T) {
	if cq.cache == nil {
		return
	}
	raw, err := sonic.MarshalString(v)
	if err != nil {
		log.Warnw("cache encode failed", "key", key, "error", err)
		return
	}
	if err := cq.cache.Set(ctx, key, raw, cq.ttl).Err(); err != nil {
		log.Warnw("cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops the cached entry so the next Get reloads.
func (cq *CachedQuery[T]) Invalidate(ctx context.Context) error {
	if cq.cache == nil {
		return nil
	}
	key := cq.Key()
	if err := cq.cache.Del(ctx, key).Err(); err != nil {
		log.Warnw("cache invalidate failed", "key", key, "error", err)
		return err
	}
	return nil
}

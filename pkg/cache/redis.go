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
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/redis/go-redis/v9"
)

// Redis is the [cache.redis] section. Address is a comma separated list for
// sentinel and cluster modes.
type Redis struct {
	Mode             string // single | sentinel | cluster
	Address          string
	Password         string
	DB               int
	PoolSize         int
	UseTLS           bool
	MasterName       string
	SentinelUsername string
	SentinelPassword string
	DialTimeout      time.Duration // 秒
	ReadTimeout      time.Duration // 秒
	WriteTimeout     time.Duration // 秒
}

func (r Redis) options() (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{
		Addrs:        splitAddrs(r.Address),
		Password:     r.Password,
		PoolSize:     r.PoolSize,
		DialTimeout:  r.DialTimeout * time.Second,
		ReadTimeout:  r.ReadTimeout * time.Second,
		WriteTimeout: r.WriteTimeout * time.Second,
	}
	if r.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if len(opts.Addrs) == 0 {
		return nil, fmt.Errorf("redis address is empty")
	}

	switch r.Mode {
	case "single", "":
		opts.Addrs = opts.Addrs[:1]
		opts.DB = r.DB
	case "sentinel":
		if r.MasterName == "" {
			return nil, fmt.Errorf("redis sentinel mode needs masterName")
		}
		opts.MasterName = r.MasterName
		opts.SentinelUsername = r.SentinelUsername
		opts.SentinelPassword = r.SentinelPassword
		opts.DB = r.DB
	case "cluster":
		opts.IsClusterMode = true
	default:
		return nil, fmt.Errorf("unsupported redis mode: %s", r.Mode)
	}
	return opts, nil
}

func splitAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// NewRedis builds the client for cfg.Mode and pings it.
func NewRedis(cfg Redis) (redis.UniversalClient, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Errorw("redis ping failed", "mode", cfg.Mode, "address", cfg.Address, "error", err)
		return nil, err
	}
	log.Infow("redis connected", "mode", cfg.Mode, "address", cfg.Address)
	return client, nil
}

// RedisCache adapts any redis.Cmdable to ICache.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) *redis.StringCmd {
	return r.client.Get(ctx, key)
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	return r.client.Set(ctx, key, value, expiration)
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return r.client.Del(ctx, keys...)
}

func (r *RedisCache) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return r.client.Expire(ctx, key, expiration)
}

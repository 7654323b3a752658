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
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates that the key was not found in cache
var ErrCacheMiss = redis.Nil

// KeyPrefix namespaces every key written by this process so a shared redis
// can hold several guilds.
const KeyPrefix = "guildsync"

// ICache 缓存抽象, redis 与本地 fastcache 共用
type ICache interface {
	// Get 未命中时返回 ErrCacheMiss
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Key joins parts under KeyPrefix, e.g. Key("discord", "roles", guildId)
// gives "guildsync:discord:roles:<guildId>". Empty parts are dropped.
func Key(parts ...any) string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	for _, p := range parts {
		s := fmt.Sprint(p)
		if s == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// IsMiss reports whether err is a cache miss rather than a backend failure.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

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
	"fmt"

	"github.com/google/wire"
)

// defaultLocalMaxBytes is the default cache size (32MB)
const defaultLocalMaxBytes = 32 * 1024 * 1024

// Config selects the cache backend.
type Config struct {
	Driver        string `mapstructure:"driver"` // redis | local
	LocalMaxBytes int    `mapstructure:"localMaxBytes"`
	Redis         Redis  `mapstructure:"redis"`
}

// ProviderSet 提供缓存依赖
var ProviderSet = wire.NewSet(ProvideICache)

// ProvideICache 根据 Driver 提供 Redis 或本地 FastCache 实现
func ProvideICache(conf Config) (ICache, error) {
	switch conf.Driver {
	case "redis":
		client, err := NewRedis(conf.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisCache(client), nil
	case "local", "":
		maxBytes := conf.LocalMaxBytes
		if maxBytes <= 0 {
			maxBytes = defaultLocalMaxBytes
		}
		return NewFastCache(FastCacheConfig{MaxBytes: maxBytes}), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", conf.Driver)
	}
}

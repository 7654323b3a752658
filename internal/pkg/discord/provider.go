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

package discord

import (
	"github.com/google/wire"

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/pkg/cache"
)

// ProviderSet 提供 guild API 客户端
var ProviderSet = wire.NewSet(ProvideClient, wire.Bind(new(guild.Adapter), new(*Client)))

func ProvideClient(conf Config, c cache.ICache) (*Client, error) {
	return New(conf, c)
}

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

package service

import (
	"github.com/google/wire"

	"github.com/go-arcade/guildsync/internal/engine/conf"
	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/metrics"
)

// ProviderSet 提供 service 层依赖
var ProviderSet = wire.NewSet(ProvideOptions, ProvideServices)

// ProvideOptions maps the sync and event sections onto engine options.
func ProvideOptions(c conf.AppConfig) Options {
	return Options{
		BatchSize:       c.Sync.BatchSize,
		NewbieRoleName:  c.Sync.NewbieRoleName,
		GracePeriod:     c.Event.Grace(),
		DefaultDuration: c.Event.Length(),
		CreateTempRole:  c.Event.CreateTempRole,
	}
}

func ProvideServices(repos *repo.Repositories, adapter guild.Adapter, collector *metrics.SyncCollector, opts Options) *Services {
	return NewServices(repos, adapter, collector, opts)
}

//go:build wireinject
// +build wireinject

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

package main

import (
	"github.com/go-arcade/guildsync/internal/bootstrap"
	"github.com/go-arcade/guildsync/internal/engine/conf"
	"github.com/go-arcade/guildsync/internal/engine/job"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/internal/engine/router"
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/internal/pkg/discord"
	"github.com/go-arcade/guildsync/pkg/cache"
	"github.com/go-arcade/guildsync/pkg/database"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/metrics"
	"github.com/go-arcade/guildsync/pkg/pprof"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// 配置层
		conf.ProviderSet,
		log.ProviderSet,
		// 基础设施
		database.ProviderSet,
		cache.ProviderSet,
		metrics.ProviderSet,
		pprof.ProviderSet,
		// 仓储层
		repo.ProviderSet,
		// guild API
		discord.ProviderSet,
		// 业务层
		service.ProviderSet,
		job.ProviderSet,
		// 路由层
		router.ProviderSet,
		// 应用层
		bootstrap.NewApp,
	))
}

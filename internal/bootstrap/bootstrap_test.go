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

package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arcade/guildsync/internal/engine/conf"
	"github.com/go-arcade/guildsync/internal/engine/guild/guildtest"
	"github.com/go-arcade/guildsync/internal/engine/job"
	"github.com/go-arcade/guildsync/internal/engine/repo/memory"
	"github.com/go-arcade/guildsync/internal/engine/router"
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/metrics"
	"github.com/go-arcade/guildsync/pkg/pprof"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	appConf := conf.AppConfig{
		Http: http.Http{Host: "127.0.0.1", Port: 0, Auth: http.Auth{Disabled: true}},
	}
	metricsServer := metrics.NewServer(metrics.MetricsConfig{})
	collector, err := metrics.ProvideSyncCollector(metricsServer)
	require.NoError(t, err)

	store := memory.NewStore()
	services := service.NewServices(store.Repositories(), &guildtest.Nop{}, collector, service.Options{})
	cleanupJob := job.NewCleanupJob(services, collector)
	app, cleanup, err := NewApp(
		router.NewRouter(&appConf.Http, services),
		services,
		job.NewScheduler(appConf.Scheduler, cleanupJob),
		cleanupJob,
		metricsServer,
		pprof.NewServer(pprof.PprofConfig{}),
		zap.NewNop(),
		appConf,
	)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return app
}

func TestBootstrap(t *testing.T) {
	app, _, appConf, err := Bootstrap("unused.toml", func(string) (*App, func(), error) {
		a := newTestApp(t)
		return a, func() {}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", appConf.Http.Host)
	assert.NotNil(t, app.HttpApp)
}

func TestApp_StartAndShutdown(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.Start())
	assert.False(t, app.Shutdown.IsShuttingDown())

	require.NoError(t, app.Shutdown.Shutdown(context.Background()))
	assert.True(t, app.Shutdown.IsShuttingDown())
	select {
	case <-app.Shutdown.Wait():
	default:
		t.Fatal("shutdown channel not closed")
	}
}

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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/conf"
	"github.com/go-arcade/guildsync/internal/engine/job"
	"github.com/go-arcade/guildsync/internal/engine/router"
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/metrics"
	"github.com/go-arcade/guildsync/pkg/pprof"
	"github.com/go-arcade/guildsync/pkg/shutdown"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type App struct {
	HttpApp    *fiber.App
	Services   *service.Services
	Scheduler  *job.Scheduler
	CleanupJob *job.CleanupJob
	Metrics    *metrics.Server
	Pprof      *pprof.Server
	Logger     *zap.Logger
	AppConf    conf.AppConfig
	Shutdown   *shutdown.Manager
}

// InitAppFunc init app function type
type InitAppFunc func(configPath string) (*App, func(), error)

func NewApp(
	rt *router.Router,
	services *service.Services,
	scheduler *job.Scheduler,
	cleanupJob *job.CleanupJob,
	metricsServer *metrics.Server,
	pprofServer *pprof.Server,
	logger *zap.Logger,
	appConf conf.AppConfig,
) (*App, func(), error) {
	app := &App{
		HttpApp:    rt.Router(),
		Services:   services,
		Scheduler:  scheduler,
		CleanupJob: cleanupJob,
		Metrics:    metricsServer,
		Pprof:      pprofServer,
		Logger:     logger,
		AppConf:    appConf,
		Shutdown:   shutdown.NewManager(),
	}

	cleanup := func() {
		_ = log.Sync()
	}
	return app, cleanup, nil
}

// Bootstrap init app, return App instance and cleanup function
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), conf.AppConfig, error) {
	app, cleanup, err := initApp(configFile)
	if err != nil {
		return nil, nil, conf.AppConfig{}, err
	}
	return app, cleanup, app.AppConf, nil
}

// Start starts every server and the scheduler and registers their shutdown
// hooks. Hooks run in reverse order, so the http listener stops first.
func (a *App) Start() error {
	if err := a.Metrics.Start(); err != nil {
		return err
	}
	a.Shutdown.Register("metrics", a.Metrics.Stop)

	if err := a.Pprof.Start(); err != nil {
		return err
	}
	a.Shutdown.Register("pprof", a.Pprof.Stop)

	if err := a.Scheduler.Start(); err != nil {
		return err
	}
	a.Shutdown.Register("scheduler", a.Scheduler.Stop)

	addr := a.AppConf.Http.Addr()
	listenErr := make(chan error, 1)
	go func() {
		log.Infow("HTTP listener started", "address", addr)
		if err := a.HttpApp.Listen(addr); err != nil {
			log.Errorw("HTTP listener failed", "address", addr, "error", err)
			listenErr <- err
		}
	}()
	a.Shutdown.Register("http", a.HttpApp.ShutdownWithContext)

	// surface immediate bind failures
	select {
	case err := <-listenErr:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Run start app and wait for exit signal, then gracefully shutdown
func Run(app *App, cleanup func()) {
	defer cleanup()

	if err := app.Start(); err != nil {
		log.Errorw("failed to start", "error", err)
		shutdownApp(app)
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-quit
	log.Infow("received signal, shutting down gracefully", "signal", sig.String())

	shutdownApp(app)
	log.Info("server shutdown complete")
}

func shutdownApp(app *App) {
	timeout := time.Duration(app.AppConf.Http.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := app.Shutdown.Shutdown(ctx); err != nil {
		log.Errorw("shutdown finished with errors", "error", err)
	}
}

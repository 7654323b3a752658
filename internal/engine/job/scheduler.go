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

package job

import (
	"context"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/conf"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/safe"
	"github.com/robfig/cron"
)

// Scheduler runs the periodic jobs.
type Scheduler struct {
	cfg     conf.SchedulerConfig
	cron    *cron.Cron
	cleanup *CleanupJob
	timeout time.Duration
}

func NewScheduler(cfg conf.SchedulerConfig, cleanup *CleanupJob) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		cron:    cron.New(),
		cleanup: cleanup,
		timeout: 5 * time.Minute,
	}
}

// Start registers the jobs and starts the cron loop. It is a no-op when
// the scheduler is disabled.
func (s *Scheduler) Start() error {
	if !s.cfg.Enable {
		log.Info("scheduler disabled")
		return nil
	}
	spec := s.cfg.CleanupSpec
	if spec == "" {
		spec = "@every 1m"
	}
	if err := s.cron.AddFunc(spec, s.runCleanup); err != nil {
		return err
	}
	s.cron.Start()
	log.Infow("scheduler started", "job", CleanupJobName, "spec", spec)
	return nil
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := safe.Try(CleanupJobName, func() error {
		_, err := s.cleanup.Run(ctx)
		return err
	})
	if err != nil {
		log.Warnw("scheduled cleanup finished with errors", "job", CleanupJobName, "error", err)
	}
}

// Stop 停止调度，不等待正在执行的任务
func (s *Scheduler) Stop(_ context.Context) error {
	if s.cfg.Enable {
		s.cron.Stop()
	}
	return nil
}

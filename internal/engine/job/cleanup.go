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
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/metrics"
)

const CleanupJobName = "event_cleanup"

// CleanupJob closes active events whose end time has passed and revokes
// their voice access.
type CleanupJob struct {
	events    *service.EventService
	access    *service.EventAccessService
	collector *metrics.SyncCollector
	now       func() time.Time
	running   atomic.Bool
}

func NewCleanupJob(services *service.Services, collector *metrics.SyncCollector) *CleanupJob {
	return &CleanupJob{
		events:    services.Event,
		access:    services.EventAccess,
		collector: collector,
		now:       time.Now,
	}
}

// CleanupReport summarizes one run.
type CleanupReport struct {
	Events       int `json:"events"`
	UsersRevoked int `json:"usersRevoked"`
	Failed       int `json:"failed"`
	RemoteErrors int `json:"remoteErrors"`
}

// Run processes every expired event once. Overlapping runs are skipped.
func (j *CleanupJob) Run(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{}
	if !j.running.CompareAndSwap(false, true) {
		log.Warnw("cleanup job still running, skipped", "job", CleanupJobName)
		return report, nil
	}
	defer j.running.Store(false)

	start := time.Now()
	err := j.run(ctx, report)
	j.collector.JobRun(CleanupJobName, time.Since(start), err)
	return report, err
}

func (j *CleanupJob) run(ctx context.Context, report *CleanupReport) error {
	expired, err := j.events.ListExpiredActiveEvents(ctx, j.now())
	if err != nil {
		return err
	}

	var errs []error
	for _, event := range expired {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		report.Events++
		stats, err := j.access.CleanupEvent(ctx, event.EventId, service.ReasonEventEnded, "system")
		if err != nil {
			report.Failed++
			log.Errorw("event cleanup failed", "eventId", event.EventId, "error", err)
			errs = append(errs, err)
			continue
		}
		report.UsersRevoked += stats.UsersRevoked
		report.RemoteErrors += stats.Errors
		log.Infow("event cleaned up", "eventId", event.EventId, "title", event.Title,
			"usersRevoked", stats.UsersRevoked, "errors", stats.Errors)
	}
	return errors.Join(errs...)
}

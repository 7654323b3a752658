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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arcade/guildsync/internal/engine/conf"
	"github.com/go-arcade/guildsync/internal/engine/guild/guildtest"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo/memory"
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/pkg/metrics"
	"github.com/go-arcade/guildsync/pkg/statemachine"
)

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	guild    *guildtest.Nop
	services *service.Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: memory.NewStore(), guild: &guildtest.Nop{}}
	f.services = service.NewServices(f.store.Repositories(), f.guild, metrics.NewSyncCollector(), service.Options{})
	return f
}

func (f *fixture) activeEvent(t *testing.T, startedAgo time.Duration, minutes int) *model.Event {
	t.Helper()
	channel := "c1"
	event, err := f.services.Event.CreateEvent(f.ctx, &model.CreateEventReq{
		Title:           "Raid night",
		ScheduledAt:     time.Now().Add(-startedAgo),
		DurationMinutes: &minutes,
		RemoteChannelId: &channel,
	}, "admin")
	require.NoError(t, err)
	_, err = f.services.Event.TransitionStatus(f.ctx, event.EventId, statemachine.EventActive, "admin")
	require.NoError(t, err)
	return event
}

func TestCleanupJob_Run(t *testing.T) {
	f := newFixture(t)
	expired := f.activeEvent(t, 3*time.Hour, 60)
	running := f.activeEvent(t, 10*time.Minute, 120)

	for _, u := range []string{"u1", "u2"} {
		remote := "d-" + u
		require.NoError(t, f.store.Repositories().User.CreateUser(f.ctx, &model.User{UserId: u, RemoteUserId: &remote}))
		_, err := f.services.EventAccess.AdminGrantAccess(f.ctx, expired.EventId, u, "admin")
		require.NoError(t, err)
	}

	collector := metrics.NewSyncCollector()
	job := NewCleanupJob(f.services, collector)
	report, err := job.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Events)
	assert.Equal(t, 2, report.UsersRevoked)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 2, f.guild.Calls("DeletePermissionOverwrite"))

	got, err := f.services.Event.GetEvent(f.ctx, expired.EventId)
	require.NoError(t, err)
	assert.Equal(t, statemachine.EventCompleted, got.Status)

	got, err = f.services.Event.GetEvent(f.ctx, running.EventId)
	require.NoError(t, err)
	assert.Equal(t, statemachine.EventActive, got.Status)

	status, err := f.services.EventAccess.GetUserAccessStatus(f.ctx, expired.EventId, "u1")
	require.NoError(t, err)
	assert.False(t, status.HasAccess)
	assert.Equal(t, string(service.ReasonEventEnded), status.RevokeReason)

	// nothing left to do
	report, err = job.Run(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Events)
}

func TestCleanupJob_SkipsOverlappingRun(t *testing.T) {
	f := newFixture(t)
	f.activeEvent(t, 3*time.Hour, 60)

	job := NewCleanupJob(f.services, nil)
	job.running.Store(true)
	report, err := job.Run(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Events)
}

func TestScheduler_Disabled(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(conf.SchedulerConfig{Enable: false}, NewCleanupJob(f.services, nil))
	require.NoError(t, s.Start())
	assert.Empty(t, s.cron.Entries())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_InvalidSpec(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(conf.SchedulerConfig{Enable: true, CleanupSpec: "not a spec"}, NewCleanupJob(f.services, nil))
	assert.Error(t, s.Start())
}

func TestScheduler_Start(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(conf.SchedulerConfig{Enable: true, CleanupSpec: "@every 1h"}, NewCleanupJob(f.services, nil))
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	assert.NoError(t, s.Stop(context.Background()))
}

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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/pkg/statemachine"
)

func ptr[T any](v T) *T { return &v }

// activeEvent creates an event on channel c1 starting at e.now and moves it to active.
func (e *testEnv) activeEvent(t *testing.T, req model.CreateEventReq) *model.Event {
	t.Helper()
	if req.Title == "" {
		req.Title = "Go meetup"
	}
	if req.ScheduledAt.IsZero() {
		req.ScheduledAt = e.now
	}
	if req.RemoteChannelId == nil {
		req.RemoteChannelId = ptr("c1")
	}
	ev, err := e.svc.Event.CreateEvent(e.ctx, &req, "admin")
	require.NoError(t, err)
	res, err := e.svc.Event.TransitionStatus(e.ctx, ev.EventId, statemachine.EventActive, "admin")
	require.NoError(t, err)
	return res.Event
}

func TestEventService_CreateValidation(t *testing.T) {
	e := newTestEnv(t, Options{})

	_, err := e.svc.Event.CreateEvent(e.ctx, &model.CreateEventReq{ScheduledAt: e.now}, "admin")
	requireCode(t, err, CodeValidation)
	_, err = e.svc.Event.CreateEvent(e.ctx, &model.CreateEventReq{Title: "x"}, "admin")
	requireCode(t, err, CodeValidation)
	_, err = e.svc.Event.CreateEvent(e.ctx, &model.CreateEventReq{Title: "x", ScheduledAt: e.now, Capacity: ptr(0)}, "admin")
	requireCode(t, err, CodeValidation)

	ev, err := e.svc.Event.CreateEvent(e.ctx, &model.CreateEventReq{
		Title: "x", ScheduledAt: e.now, PrerequisiteRoles: []string{"Speaker", " ", "Speaker"},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, statemachine.EventScheduled, ev.Status)
	assert.Equal(t, []string{"Speaker"}, ev.PrerequisiteRoles)

	_, err = e.svc.Event.GetEvent(e.ctx, "missing")
	requireCode(t, err, CodeEventNotFound)
}

func TestEventService_TransitionStatus(t *testing.T) {
	e := newTestEnv(t, Options{CreateTempRole: true})
	ev, err := e.svc.Event.CreateEvent(e.ctx, &model.CreateEventReq{
		Title: "Launch", ScheduledAt: e.now, RemoteChannelId: ptr("c1"), RemoteEventId: ptr("se1"),
	}, "admin")
	require.NoError(t, err)

	_, err = e.svc.Event.TransitionStatus(e.ctx, ev.EventId, statemachine.EventCompleted, "admin")
	ae := requireCode(t, err, CodeInvalidTransition)
	assert.Equal(t, statemachine.EventScheduled, ae.Details["from"])

	res, err := e.svc.Event.TransitionStatus(e.ctx, ev.EventId, statemachine.EventActive, "admin")
	require.NoError(t, err)
	assert.Equal(t, statemachine.EventScheduled, res.From)
	require.NotNil(t, res.Event.RemoteTempRoleId)
	assert.Equal(t, guild.ScheduledEventActive, e.guild.events["se1"])

	stored, err := e.svc.Event.GetEvent(e.ctx, ev.EventId)
	require.NoError(t, err)
	assert.Equal(t, statemachine.EventActive, stored.Status)
	assert.Equal(t, *res.Event.RemoteTempRoleId, *stored.RemoteTempRoleId)

	_, err = e.svc.Event.TransitionStatus(e.ctx, ev.EventId, "bogus", "admin")
	requireCode(t, err, CodeValidation)
}

func TestEventService_ScheduledEventFailureIsWarning(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.guild.failOn("UpdateScheduledEvent", errors.New("unknown event"))
	ev, err := e.svc.Event.CreateEvent(e.ctx, &model.CreateEventReq{Title: "x", ScheduledAt: e.now, RemoteEventId: ptr("se1")}, "admin")
	require.NoError(t, err)

	res, err := e.svc.Event.TransitionStatus(e.ctx, ev.EventId, statemachine.EventCancelled, "admin")
	require.NoError(t, err)
	require.Len(t, res.SyncWarnings, 1)
	assert.Equal(t, "update_scheduled_event", res.SyncWarnings[0].Op)

	stored, err := e.svc.Event.GetEvent(e.ctx, ev.EventId)
	require.NoError(t, err)
	assert.Equal(t, statemachine.EventCancelled, stored.Status)
}

func TestEventService_ListExpiredActiveEvents(t *testing.T) {
	e := newTestEnv(t, Options{DefaultDuration: time.Hour})
	short := e.activeEvent(t, model.CreateEventReq{Title: "short", ScheduledAt: e.now.Add(-2 * time.Hour)})
	e.activeEvent(t, model.CreateEventReq{Title: "long", ScheduledAt: e.now.Add(-2 * time.Hour), DurationMinutes: ptr(180)})
	e.activeEvent(t, model.CreateEventReq{Title: "now"})

	expired, err := e.svc.Event.ListExpiredActiveEvents(e.ctx, e.now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, short.EventId, expired[0].EventId)
}

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
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/id"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/statemachine"
)

// EventService owns event records and their status machine.
type EventService struct {
	engine
}

type StatusChange struct {
	Event        *model.Event             `json:"event"`
	From         statemachine.EventStatus `json:"from"`
	To           statemachine.EventStatus `json:"to"`
	SyncWarnings []SyncWarning            `json:"syncWarnings,omitempty"`
}

func (s *EventService) CreateEvent(ctx context.Context, req *model.CreateEventReq, actorId string) (event *model.Event, err error) {
	defer recoverInto(&err, "CreateEvent")

	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return nil, validation("title is required")
	case req.ScheduledAt.IsZero():
		return nil, validation("scheduledAt is required")
	case req.Capacity != nil && *req.Capacity < 1:
		return nil, validation("capacity must be positive")
	case req.DurationMinutes != nil && *req.DurationMinutes < 1:
		return nil, validation("durationMinutes must be positive")
	}

	event = &model.Event{
		EventId:           id.GetUUID(),
		Title:             title,
		Description:       req.Description,
		ScheduledAt:       req.ScheduledAt,
		DurationMinutes:   req.DurationMinutes,
		Capacity:          req.Capacity,
		PrerequisiteRoles: uniqueNames(req.PrerequisiteRoles),
		RemoteChannelId:   req.RemoteChannelId,
		RemoteEventId:     req.RemoteEventId,
		Status:            statemachine.EventScheduled,
		CreatedBy:         actorId,
	}
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		if err := tx.Event.CreateEvent(ctx, event); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionEventCreated, model.EntityEvent, event.EventId,
			map[string]any{"title": event.Title, "scheduledAt": event.ScheduledAt})
	})
	if err != nil {
		return nil, dbError(err)
	}
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventId string) (event *model.Event, err error) {
	defer recoverInto(&err, "GetEvent")
	event, err = s.repos.Event.GetEvent(ctx, eventId)
	if err != nil {
		return nil, lookupError(err, eventNotFound(eventId))
	}
	return event, nil
}

func eventNotFound(eventId string) *Error {
	return newError(CodeEventNotFound, "event not found", map[string]any{"eventId": eventId})
}

// TransitionStatus moves an event through the status machine, then cascades
// the change to the guild scheduled event. Entering active may create the
// temporary event role.
func (s *EventService) TransitionStatus(ctx context.Context, eventId string, to statemachine.EventStatus, actorId string) (res *StatusChange, err error) {
	defer recoverInto(&err, "TransitionStatus")

	if !to.Valid() {
		return nil, newError(CodeValidation, "unknown event status", map[string]any{"status": to})
	}

	res = &StatusChange{To: to}
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		event, err := tx.Event.GetEvent(ctx, eventId)
		if err != nil {
			return lookupError(err, eventNotFound(eventId))
		}
		res.From = event.Status
		if err := statemachine.NewEventStateMachine(event.Status).TransitionTo(to); err != nil {
			return transitionError(err)
		}
		event.Status = to
		if err := tx.Event.SaveEvent(ctx, event); err != nil {
			return err
		}
		res.Event = event
		return audit(ctx, tx, actorId, model.ActionEventStatus, model.EntityEvent, eventId,
			map[string]any{"from": res.From, "to": to})
	})
	if err != nil {
		return nil, dbError(err)
	}
	log.Infow("event status changed", "eventId", eventId, "from", res.From, "to", to)

	event := res.Event
	if to == statemachine.EventActive && s.opts.CreateTempRole && event.RemoteTempRoleId == nil && event.RemoteChannelId != nil {
		roleId, err := s.guild.CreateTemporaryEventRole(ctx, event.Title, *event.RemoteChannelId)
		if w := s.remote(ctx, "create_temp_role", err, actorId, model.EntityEvent, eventId, event.Title, ""); w != nil {
			res.SyncWarnings = append(res.SyncWarnings, *w)
		} else if roleId != "" {
			event.RemoteTempRoleId = &roleId
			if err := s.repos.Event.SaveEvent(ctx, event); err != nil {
				log.Errorw("failed to store temporary event role", "eventId", eventId, "remoteRoleId", roleId, "error", err)
			}
		}
	}
	if event.RemoteEventId != nil {
		status := remoteEventStatus(to)
		start := event.ScheduledAt.UTC().Format(time.RFC3339)
		err := s.guild.UpdateScheduledEvent(ctx, *event.RemoteEventId, guild.ScheduledEventPatch{
			Name:        &event.Title,
			Description: &event.Description,
			StartTime:   &start,
			Status:      &status,
		})
		res.SyncWarnings = appendWarning(res.SyncWarnings,
			s.remote(ctx, "update_scheduled_event", err, actorId, model.EntityEvent, eventId, event.Title, *event.RemoteEventId))
	}
	return res, nil
}

func transitionError(err error) error {
	var te *statemachine.TransitionError[statemachine.EventStatus]
	if errors.As(err, &te) {
		return withCause(newError(CodeInvalidTransition, "invalid status transition", map[string]any{
			"from": te.From, "to": te.To, "allowed": te.Allowed,
		}), err)
	}
	return err
}

func remoteEventStatus(s statemachine.EventStatus) guild.ScheduledEventStatus {
	switch s {
	case statemachine.EventActive:
		return guild.ScheduledEventActive
	case statemachine.EventCompleted:
		return guild.ScheduledEventCompleted
	case statemachine.EventCancelled:
		return guild.ScheduledEventCanceled
	default:
		return guild.ScheduledEventScheduled
	}
}

// ListExpiredActiveEvents returns active events whose end time is before now.
func (s *EventService) ListExpiredActiveEvents(ctx context.Context, now time.Time) (events []model.Event, err error) {
	defer recoverInto(&err, "ListExpiredActiveEvents")

	active, err := s.repos.Event.ListEventsByStatus(ctx, statemachine.EventActive)
	if err != nil {
		return nil, dbError(err)
	}
	events = []model.Event{}
	for _, e := range active {
		if !e.EndsAt(s.opts.DefaultDuration).After(now) {
			events = append(events, e)
		}
	}
	return events, nil
}

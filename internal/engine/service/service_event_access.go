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
	"math"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/parallel"
	"github.com/go-arcade/guildsync/pkg/statemachine"
)

// RevokeReason explains why voice access ended.
type RevokeReason string

const (
	ReasonUserLeft     RevokeReason = "user_left"
	ReasonAdminRevoked RevokeReason = "admin_revoked"
	ReasonEventEnded   RevokeReason = "event_ended"
)

func (r RevokeReason) Valid() bool {
	return r == ReasonUserLeft || r == ReasonAdminRevoked || r == ReasonEventEnded
}

// forcesDisconnect reports whether members are kicked out of the channel.
func (r RevokeReason) forcesDisconnect() bool {
	return r == ReasonAdminRevoked || r == ReasonEventEnded
}

// EventAccessService gates temporary voice channel access for events.
type EventAccessService struct {
	engine
	events *EventService
}

type MissingPrerequisite struct {
	Id          string `json:"id,omitempty"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Color       int    `json:"color"`
	Icon        string `json:"icon,omitempty"`
}

type AccessResult struct {
	EventId        string                  `json:"eventId"`
	UserId         string                  `json:"userId"`
	HasAccess      bool                    `json:"hasAccess"`
	AlreadyGranted bool                    `json:"alreadyGranted,omitempty"`
	Revoked        bool                    `json:"revoked,omitempty"`
	Access         *model.EventVoiceAccess `json:"access,omitempty"`
	SyncWarnings   []SyncWarning           `json:"syncWarnings,omitempty"`
}

type Eligibility struct {
	EventId           string                   `json:"eventId"`
	Status            statemachine.EventStatus `json:"status"`
	Eligible          bool                     `json:"eligible"`
	HasAccess         bool                     `json:"hasAccess"`
	Linked            bool                     `json:"linked"`
	Missing           []MissingPrerequisite    `json:"missing"`
	OpensAt           time.Time                `json:"opensAt"`
	CapacityRemaining *int                     `json:"capacityRemaining,omitempty"`
}

type AccessStatus struct {
	EventId      string                         `json:"eventId"`
	UserId       string                         `json:"userId"`
	HasAccess    bool                           `json:"hasAccess"`
	Status       statemachine.VoiceAccessStatus `json:"status,omitempty"`
	GrantedAt    *time.Time                     `json:"grantedAt,omitempty"`
	RevokedAt    *time.Time                     `json:"revokedAt,omitempty"`
	RevokeReason string                         `json:"revokeReason,omitempty"`
}

type CleanupStats struct {
	UsersRevoked       int  `json:"usersRevoked"`
	DiscordRoleDeleted bool `json:"discordRoleDeleted"`
	Errors             int  `json:"errors"`
}

// RequestEventAccess grants the user voice access after checking status,
// the grace window, identity, prerequisites and capacity. The guild
// overwrite is created first; the local row is written only after it
// succeeds and the overwrite is rolled back when that write fails.
func (s *EventAccessService) RequestEventAccess(ctx context.Context, eventId, userId string) (res *AccessResult, err error) {
	defer func() { s.recordOutcome(err) }()
	defer recoverInto(&err, "RequestEventAccess")

	event, err := s.repos.Event.GetEvent(ctx, eventId)
	if err != nil {
		return nil, lookupError(err, eventNotFound(eventId))
	}
	if event.Status != statemachine.EventActive {
		return nil, newError(CodeEventNotActive, "event is not active", map[string]any{"eventId": eventId, "status": event.Status})
	}
	now := s.now()
	opensAt := event.ScheduledAt.Add(-s.opts.GracePeriod)
	if now.Before(opensAt) {
		wait := int64(math.Ceil(opensAt.Sub(now).Seconds()))
		return nil, newError(CodeEventTooEarly, "event access is not open yet", map[string]any{
			"eventId": eventId, "opensAt": opensAt, "waitSeconds": wait,
		})
	}

	if res, ok, err := s.existingGrant(ctx, eventId, userId); err != nil || ok {
		return res, err
	}

	remoteUserId, err := s.remoteUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	missing, err := s.missingPrerequisites(ctx, event, userId)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, newError(CodeMissingRequiredTags, "missing required roles or tags", map[string]any{
			"eventId": eventId, "missing": missing,
		})
	}

	if err := s.checkCapacity(ctx, s.repos, event); err != nil {
		return nil, err
	}
	return s.grant(ctx, event, userId, remoteUserId, userId, false)
}

// AdminGrantAccess grants access without status, window, eligibility or
// capacity checks. Identity, ordering and compensation are unchanged.
func (s *EventAccessService) AdminGrantAccess(ctx context.Context, eventId, userId, adminUserId string) (res *AccessResult, err error) {
	defer func() { s.recordOutcome(err) }()
	defer recoverInto(&err, "AdminGrantAccess")

	event, err := s.repos.Event.GetEvent(ctx, eventId)
	if err != nil {
		return nil, lookupError(err, eventNotFound(eventId))
	}
	if res, ok, err := s.existingGrant(ctx, eventId, userId); err != nil || ok {
		return res, err
	}
	remoteUserId, err := s.remoteUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	return s.grant(ctx, event, userId, remoteUserId, adminUserId, true)
}

func (s *EventAccessService) recordOutcome(err error) {
	if err != nil {
		s.metrics.AccessOutcome(string(AsError(err).Code))
		return
	}
	s.metrics.AccessOutcome("granted")
}

func (s *EventAccessService) existingGrant(ctx context.Context, eventId, userId string) (*AccessResult, bool, error) {
	access, err := s.repos.VoiceAccess.GetAccess(ctx, eventId, userId)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dbError(err)
	}
	if !access.Active() {
		return nil, false, nil
	}
	return &AccessResult{EventId: eventId, UserId: userId, HasAccess: true, AlreadyGranted: true, Access: access}, true, nil
}

func (s *EventAccessService) checkCapacity(ctx context.Context, repos *repo.Repositories, event *model.Event) error {
	if event.Capacity == nil {
		return nil
	}
	current, err := repos.VoiceAccess.CountActiveAccess(ctx, event.EventId)
	if err != nil {
		return err
	}
	if current >= int64(*event.Capacity) {
		return newError(CodeEventFull, "event is full", map[string]any{
			"eventId": event.EventId, "capacity": *event.Capacity, "current": current,
		})
	}
	return nil
}

func (s *EventAccessService) grant(ctx context.Context, event *model.Event, userId, remoteUserId, actorId string, admin bool) (*AccessResult, error) {
	if event.RemoteChannelId == nil || *event.RemoteChannelId == "" {
		return nil, newError(CodeValidation, "event has no voice channel", map[string]any{"eventId": event.EventId})
	}
	channelId := *event.RemoteChannelId
	res := &AccessResult{EventId: event.EventId, UserId: userId}

	err := s.guild.CreatePermissionOverwrite(ctx, channelId, remoteUserId, guild.VoiceAllow, guild.VoiceDeny, "event voice access")
	s.metrics.RemoteOp("create_overwrite", err)
	if err != nil {
		log.Warnw("failed to grant voice channel access", "eventId", event.EventId, "userId", userId,
			"remoteUserId", remoteUserId, "channelId", channelId, "error", err)
		return nil, withCause(newError(CodeDiscordAccessFailed, "failed to grant voice channel access",
			map[string]any{"eventId": event.EventId}), err)
	}
	tempRoleAdded := false
	if event.RemoteTempRoleId != nil {
		err := s.guild.AddMemberRole(ctx, remoteUserId, *event.RemoteTempRoleId, "event voice access")
		w := s.remote(ctx, "add_temp_role", err, actorId, model.EntityEvent, event.EventId, userId, *event.RemoteTempRoleId)
		res.SyncWarnings = appendWarning(res.SyncWarnings, w)
		tempRoleAdded = w == nil
	}

	now := s.now()
	var access *model.EventVoiceAccess
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		// grants on one event serialise on the event row
		locked, err := tx.Event.GetEventForUpdate(ctx, event.EventId)
		if err != nil {
			return lookupError(err, eventNotFound(event.EventId))
		}
		if !admin && locked.Status != statemachine.EventActive {
			return newError(CodeEventNotActive, "event is not active", map[string]any{"eventId": event.EventId, "status": locked.Status})
		}
		existing, err := tx.VoiceAccess.GetAccessForUpdate(ctx, event.EventId, userId)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Active() {
			// granted concurrently; the overwrite is the same one
			access = existing
			res.AlreadyGranted = true
			return nil
		}
		if !admin {
			if err := s.checkCapacity(ctx, tx, locked); err != nil {
				return err
			}
		}
		if existing == nil {
			existing = &model.EventVoiceAccess{EventId: event.EventId, UserId: userId, Status: statemachine.VoiceAccessActive}
		} else if err := statemachine.NewVoiceAccessStateMachine(existing.Status).TransitionTo(statemachine.VoiceAccessActive); err != nil {
			return err
		}
		existing.Status = statemachine.VoiceAccessActive
		existing.RemoteUserId = remoteUserId
		existing.GrantedAt = now
		existing.GrantedBy = optional(actorId)
		existing.RevokedAt = nil
		existing.RevokeReason = ""
		if err := tx.VoiceAccess.SaveAccess(ctx, existing); err != nil {
			return err
		}
		access = existing

		p, err := tx.Participant.GetParticipant(ctx, event.EventId, userId)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if p == nil {
			p = &model.EventParticipant{EventId: event.EventId, UserId: userId}
		}
		p.Status = model.ParticipantJoined
		p.JoinedAt = now
		p.LeftAt = nil
		if err := tx.Participant.SaveParticipant(ctx, p); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionVoiceGranted, model.EntityEvent, event.EventId, map[string]any{
			"userId": userId, "remoteUserId": remoteUserId, "admin": admin,
		})
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// lost the insert race; the winner's row relies on the same overwrite
		if winner, gerr := s.repos.VoiceAccess.GetAccess(ctx, event.EventId, userId); gerr == nil && winner.Active() {
			log.Infow("voice access granted concurrently", "eventId", event.EventId, "userId", userId)
			res.HasAccess = true
			res.AlreadyGranted = true
			res.Access = winner
			return res, nil
		}
	}
	if err != nil {
		compensated := s.compensate(ctx, event, userId, remoteUserId, actorId, tempRoleAdded)
		e := dbError(err)
		if e.Details == nil {
			e.Details = map[string]any{}
		}
		e.Details["compensated"] = compensated
		return nil, e
	}

	log.Infow("voice access granted", "eventId", event.EventId, "userId", userId, "admin", admin)
	res.HasAccess = true
	res.Access = access
	return res, nil
}

// compensate undoes a remote grant whose local record could not be written.
func (s *EventAccessService) compensate(ctx context.Context, event *model.Event, userId, remoteUserId, actorId string, tempRoleAdded bool) bool {
	channelId := *event.RemoteChannelId
	err := s.guild.DeletePermissionOverwrite(ctx, channelId, remoteUserId, "compensate failed grant")
	s.metrics.RemoteOp("delete_overwrite", err)
	ok := err == nil
	if tempRoleAdded {
		rerr := s.guild.RemoveMemberRole(ctx, remoteUserId, *event.RemoteTempRoleId, "compensate failed grant")
		s.metrics.RemoteOp("remove_temp_role", rerr)
		if rerr != nil {
			log.Errorw("failed to remove temporary role during compensation", "eventId", event.EventId,
				"userId", userId, "remoteRoleId", *event.RemoteTempRoleId, "error", rerr)
		}
	}
	s.metrics.Compensated()
	log.Errorw("voice access compensated", "eventId", event.EventId, "userId", userId,
		"remoteUserId", remoteUserId, "channelId", channelId, "compensated", ok, "error", err)

	detail := map[string]any{"userId": userId, "remoteUserId": remoteUserId, "channelId": channelId, "compensated": ok}
	if aerr := audit(ctx, s.repos, actorId, model.ActionRemoteCompensated, model.EntityEvent, event.EventId, detail); aerr != nil {
		log.Errorw("failed to record compensation", "eventId", event.EventId, "error", aerr)
	}
	return ok
}

// RevokeEventAccess ends the user's access. Without active access it returns
// hasAccess=false. Remote failures are reported as warnings and never keep the
// local row active.
func (s *EventAccessService) RevokeEventAccess(ctx context.Context, eventId, userId string, reason RevokeReason, actorId string) (res *AccessResult, err error) {
	defer recoverInto(&err, "RevokeEventAccess")

	if !reason.Valid() {
		return nil, newError(CodeValidation, "invalid revoke reason", map[string]any{"reason": reason})
	}
	event, err := s.repos.Event.GetEvent(ctx, eventId)
	if err != nil {
		return nil, lookupError(err, eventNotFound(eventId))
	}
	res = &AccessResult{EventId: eventId, UserId: userId}
	access, err := s.repos.VoiceAccess.GetAccess(ctx, eventId, userId)
	if errors.Is(err, repo.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	if !access.Active() {
		res.Access = access
		return res, nil
	}

	res.SyncWarnings = s.revokeRemote(ctx, event, access.RemoteUserId, userId, reason, actorId)

	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		current, err := tx.VoiceAccess.GetAccessForUpdate(ctx, eventId, userId)
		if err != nil {
			return err
		}
		if !current.Active() {
			access = current
			return nil
		}
		if err := statemachine.NewVoiceAccessStateMachine(current.Status).TransitionTo(statemachine.VoiceAccessRevoked); err != nil {
			return err
		}
		now := s.now()
		current.Status = statemachine.VoiceAccessRevoked
		current.RevokedAt = &now
		current.RevokeReason = string(reason)
		if err := tx.VoiceAccess.SaveAccess(ctx, current); err != nil {
			return err
		}
		access = current
		if err := markLeft(ctx, tx, eventId, userId, now); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionVoiceRevoked, model.EntityEvent, eventId,
			map[string]any{"userId": userId, "reason": reason})
	})
	if err != nil {
		return nil, dbError(err)
	}

	log.Infow("voice access revoked", "eventId", eventId, "userId", userId, "reason", reason)
	res.Revoked = true
	res.Access = access
	return res, nil
}

// revokeRemote removes the overwrite and temporary role and, for forced
// reasons, disconnects the member when connected to the event channel.
func (s *EventAccessService) revokeRemote(ctx context.Context, event *model.Event, remoteUserId, userId string, reason RevokeReason, actorId string) []SyncWarning {
	var warnings []SyncWarning
	if event.RemoteChannelId != nil {
		channelId := *event.RemoteChannelId
		err := s.guild.DeletePermissionOverwrite(ctx, channelId, remoteUserId, string(reason))
		warnings = appendWarning(warnings,
			s.remote(ctx, "delete_overwrite", err, actorId, model.EntityEvent, event.EventId, userId, channelId))

		if reason.forcesDisconnect() {
			connected, err := s.guild.GetMemberVoiceChannel(ctx, remoteUserId)
			warnings = appendWarning(warnings,
				s.remote(ctx, "get_voice_state", err, actorId, model.EntityEvent, event.EventId, userId, remoteUserId))
			if err == nil && connected == channelId {
				err := s.guild.DisconnectMember(ctx, remoteUserId, string(reason))
				warnings = appendWarning(warnings,
					s.remote(ctx, "disconnect_member", err, actorId, model.EntityEvent, event.EventId, userId, remoteUserId))
			}
		}
	}
	if event.RemoteTempRoleId != nil {
		err := s.guild.RemoveMemberRole(ctx, remoteUserId, *event.RemoteTempRoleId, string(reason))
		warnings = appendWarning(warnings,
			s.remote(ctx, "remove_temp_role", err, actorId, model.EntityEvent, event.EventId, userId, *event.RemoteTempRoleId))
	}
	return warnings
}

func markLeft(ctx context.Context, tx *repo.Repositories, eventId, userId string, at time.Time) error {
	p, err := tx.Participant.GetParticipant(ctx, eventId, userId)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p.Status = model.ParticipantLeft
	p.LeftAt = &at
	return tx.Participant.SaveParticipant(ctx, p)
}

// CleanupEvent revokes every active access of the event, deletes its
// temporary role, flips all rows to REVOKED and completes the event. Remote
// failures are counted, not returned.
func (s *EventAccessService) CleanupEvent(ctx context.Context, eventId string, reason RevokeReason, actorId string) (stats *CleanupStats, err error) {
	defer recoverInto(&err, "CleanupEvent")

	if reason == "" {
		reason = ReasonEventEnded
	}
	if !reason.Valid() {
		return nil, newError(CodeValidation, "invalid revoke reason", map[string]any{"reason": reason})
	}
	event, err := s.repos.Event.GetEvent(ctx, eventId)
	if err != nil {
		return nil, lookupError(err, eventNotFound(eventId))
	}
	active, err := s.repos.VoiceAccess.ListActiveAccess(ctx, eventId)
	if err != nil {
		return nil, dbError(err)
	}

	stats = &CleanupStats{}
	outcomes := parallel.Batch(ctx, active, s.opts.BatchSize, func(ctx context.Context, a model.EventVoiceAccess) bool {
		// the temporary role is deleted below, no need to strip it per member
		e := *event
		e.RemoteTempRoleId = nil
		return len(s.revokeRemote(ctx, &e, a.RemoteUserId, a.UserId, reason, actorId)) == 0
	})
	for _, ok := range outcomes {
		if ok {
			stats.UsersRevoked++
		} else {
			stats.Errors++
		}
	}

	if event.RemoteTempRoleId != nil {
		err := s.guild.DeleteTemporaryEventRole(ctx, *event.RemoteTempRoleId)
		if w := s.remote(ctx, "delete_temp_role", err, actorId, model.EntityEvent, eventId, event.Title, *event.RemoteTempRoleId); w != nil {
			stats.Errors++
		} else {
			stats.DiscordRoleDeleted = true
		}
	}

	now := s.now()
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		current, err := tx.Event.GetEventForUpdate(ctx, eventId)
		if err != nil {
			return err
		}
		if _, err := tx.VoiceAccess.RevokeAllActive(ctx, eventId, string(reason), now); err != nil {
			return err
		}
		for _, a := range active {
			if err := markLeft(ctx, tx, eventId, a.UserId, now); err != nil {
				return err
			}
		}
		if stats.DiscordRoleDeleted {
			current.RemoteTempRoleId = nil
			if err := tx.Event.SaveEvent(ctx, current); err != nil {
				return err
			}
		}
		return audit(ctx, tx, actorId, model.ActionEventCleanedUp, model.EntityEvent, eventId, map[string]any{
			"reason": reason, "usersRevoked": stats.UsersRevoked,
			"discordRoleDeleted": stats.DiscordRoleDeleted, "errors": stats.Errors,
		})
	})
	if err != nil {
		return nil, dbError(err)
	}

	if _, err := s.events.TransitionStatus(ctx, eventId, statemachine.EventCompleted, actorId); err != nil {
		stats.Errors++
		log.Warnw("event not completed after cleanup", "eventId", eventId, "status", event.Status, "error", err)
	}
	log.Infow("event cleaned up", "eventId", eventId, "usersRevoked", stats.UsersRevoked,
		"discordRoleDeleted", stats.DiscordRoleDeleted, "errors", stats.Errors)
	return stats, nil
}

// CheckEventEligibility reports whether the user could request access now,
// without changing anything.
func (s *EventAccessService) CheckEventEligibility(ctx context.Context, eventId, userId string) (res *Eligibility, err error) {
	defer recoverInto(&err, "CheckEventEligibility")

	event, err := s.repos.Event.GetEvent(ctx, eventId)
	if err != nil {
		return nil, lookupError(err, eventNotFound(eventId))
	}
	missing, err := s.missingPrerequisites(ctx, event, userId)
	if err != nil {
		return nil, err
	}
	res = &Eligibility{
		EventId: eventId,
		Status:  event.Status,
		Missing: missing,
		OpensAt: event.ScheduledAt.Add(-s.opts.GracePeriod),
	}
	if user, err := s.repos.User.GetUser(ctx, userId); err == nil {
		res.Linked = user.RemoteUserId != nil && *user.RemoteUserId != ""
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, dbError(err)
	}
	existing, _, err := s.existingGrant(ctx, eventId, userId)
	if err != nil {
		return nil, err
	}
	res.HasAccess = existing != nil

	full := false
	if event.Capacity != nil {
		current, err := s.repos.VoiceAccess.CountActiveAccess(ctx, eventId)
		if err != nil {
			return nil, dbError(err)
		}
		remaining := max(*event.Capacity-int(current), 0)
		res.CapacityRemaining = &remaining
		full = remaining == 0
	}
	res.Eligible = len(missing) == 0 && res.Linked && !full
	return res, nil
}

// GetUserAccessStatus returns the user's access row for the event.
func (s *EventAccessService) GetUserAccessStatus(ctx context.Context, eventId, userId string) (res *AccessStatus, err error) {
	defer recoverInto(&err, "GetUserAccessStatus")

	if _, err := s.repos.Event.GetEvent(ctx, eventId); err != nil {
		return nil, lookupError(err, eventNotFound(eventId))
	}
	res = &AccessStatus{EventId: eventId, UserId: userId}
	access, err := s.repos.VoiceAccess.GetAccess(ctx, eventId, userId)
	if errors.Is(err, repo.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	res.HasAccess = access.Active()
	res.Status = access.Status
	res.GrantedAt = &access.GrantedAt
	res.RevokedAt = access.RevokedAt
	res.RevokeReason = access.RevokeReason
	return res, nil
}

// missingPrerequisites lists, in prerequisite order, every name the user
// holds neither as an active role nor as an active tag.
func (s *EventAccessService) missingPrerequisites(ctx context.Context, event *model.Event, userId string) ([]MissingPrerequisite, error) {
	missing := []MissingPrerequisite{}
	if len(event.PrerequisiteRoles) == 0 {
		return missing, nil
	}

	held := map[string]struct{}{}
	roleGrants, err := s.repos.UserRole.ListActiveGrantsByUser(ctx, userId)
	if err != nil {
		return nil, dbError(err)
	}
	roleIds := make([]string, 0, len(roleGrants))
	for _, g := range roleGrants {
		roleIds = append(roleIds, g.RoleId)
	}
	roles, err := s.repos.Role.ListRolesByIds(ctx, roleIds)
	if err != nil {
		return nil, dbError(err)
	}
	for _, r := range roles {
		held[guild.NormalizeName(r.Name)] = struct{}{}
	}

	tagGrants, err := s.repos.UserTag.ListActiveGrantsByUser(ctx, userId)
	if err != nil {
		return nil, dbError(err)
	}
	tagIds := make([]string, 0, len(tagGrants))
	for _, g := range tagGrants {
		tagIds = append(tagIds, g.TagId)
	}
	tags, err := s.repos.Tag.ListTagsByIds(ctx, tagIds)
	if err != nil {
		return nil, dbError(err)
	}
	for _, t := range tags {
		held[guild.NormalizeName(t.Name)] = struct{}{}
	}

	for _, name := range event.PrerequisiteRoles {
		if _, ok := held[guild.NormalizeName(name)]; ok {
			continue
		}
		missing = append(missing, s.describePrerequisite(ctx, name))
	}
	return missing, nil
}

func (s *EventAccessService) describePrerequisite(ctx context.Context, name string) MissingPrerequisite {
	if tag, err := s.repos.Tag.GetActiveTagByName(ctx, name); err == nil {
		return MissingPrerequisite{Id: tag.TagId, Name: tag.Name, DisplayName: tag.Label(), Color: tag.Color, Icon: tag.Icon}
	}
	if role, err := s.repos.Role.GetActiveRoleByName(ctx, name); err == nil {
		return MissingPrerequisite{Id: role.RoleId, Name: role.Name, DisplayName: role.Name, Color: role.Color}
	}
	return MissingPrerequisite{Name: name, DisplayName: name}
}

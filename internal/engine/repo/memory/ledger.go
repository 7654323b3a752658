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

package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/statemachine"

	"github.com/pkg/errors"
)

type userRoleRepo struct{ s *Store }

func (r *userRoleRepo) GetGrant(_ context.Context, userId, roleId string) (*model.UserRoleGrant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.data.roleGrants[pairKey(userId, roleId)]
	if !ok {
		return nil, errors.WithMessage(repo.ErrNotFound, "get role grant")
	}
	return &g, nil
}

func (r *userRoleRepo) SaveGrant(_ context.Context, grant *model.UserRoleGrant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey(grant.UserId, grant.RoleId)
	if existing, ok := r.s.data.roleGrants[key]; ok && existing.ID != grant.ID {
		return errors.WithMessage(repo.ErrDuplicate, "save role grant")
	}
	r.s.stamp(&grant.BaseModel)
	r.s.data.roleGrants[key] = *grant
	return nil
}

func (r *userRoleRepo) ListActiveGrantsByUser(_ context.Context, userId string) ([]model.UserRoleGrant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.UserRoleGrant
	for _, g := range r.s.data.roleGrants {
		if g.UserId == userId && g.Active() {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b model.UserRoleGrant) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *userRoleRepo) CountActiveGrantsByRole(_ context.Context, roleId string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, g := range r.s.data.roleGrants {
		if g.RoleId == roleId && g.Active() {
			n++
		}
	}
	return n, nil
}

type userTagRepo struct{ s *Store }

func (r *userTagRepo) GetGrant(_ context.Context, userId, tagId string) (*model.UserTagGrant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.data.tagGrants[pairKey(userId, tagId)]
	if !ok {
		return nil, errors.WithMessage(repo.ErrNotFound, "get tag grant")
	}
	return &g, nil
}

func (r *userTagRepo) SaveGrant(_ context.Context, grant *model.UserTagGrant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey(grant.UserId, grant.TagId)
	if existing, ok := r.s.data.tagGrants[key]; ok && existing.ID != grant.ID {
		return errors.WithMessage(repo.ErrDuplicate, "save tag grant")
	}
	r.s.stamp(&grant.BaseModel)
	r.s.data.tagGrants[key] = *grant
	return nil
}

func (r *userTagRepo) ListActiveGrantsByUser(_ context.Context, userId string) ([]model.UserTagGrant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.UserTagGrant
	for _, g := range r.s.data.tagGrants {
		if g.UserId == userId && g.Active() {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b model.UserTagGrant) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *userTagRepo) CountActiveGrantsByTag(_ context.Context, tagId string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, g := range r.s.data.tagGrants {
		if g.TagId == tagId && g.Active() {
			n++
		}
	}
	return n, nil
}

func (r *userTagRepo) ClearPrimary(_ context.Context, userId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key, g := range r.s.data.tagGrants {
		if g.UserId == userId && g.IsPrimary {
			g.IsPrimary = false
			g.UpdatedAt = r.s.now()
			r.s.data.tagGrants[key] = g
		}
	}
	return nil
}

type eventRepo struct{ s *Store }

func (r *eventRepo) CreateEvent(_ context.Context, event *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.events[event.EventId]; ok {
		return errors.WithMessage(repo.ErrDuplicate, "create event")
	}
	event.ID = 0
	r.s.stamp(&event.BaseModel)
	r.s.data.events[event.EventId] = copyEvent(*event)
	return nil
}

func (r *eventRepo) GetEvent(_ context.Context, eventId string) (*model.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	event, ok := r.s.data.events[eventId]
	if !ok || event.IsArchived {
		return nil, errors.WithMessage(repo.ErrNotFound, "get event")
	}
	event = copyEvent(event)
	return &event, nil
}

// GetEventForUpdate needs no lock of its own: Store serialises transactions.
func (r *eventRepo) GetEventForUpdate(ctx context.Context, eventId string) (*model.Event, error) {
	return r.GetEvent(ctx, eventId)
}

func (r *eventRepo) SaveEvent(_ context.Context, event *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&event.BaseModel)
	r.s.data.events[event.EventId] = copyEvent(*event)
	return nil
}

func (r *eventRepo) ListEventsByStatus(_ context.Context, status statemachine.EventStatus) ([]model.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Event
	for _, e := range r.s.data.events {
		if e.Status == status && !e.IsArchived {
			out = append(out, copyEvent(e))
		}
	}
	slices.SortFunc(out, func(a, b model.Event) int { return a.ScheduledAt.Compare(b.ScheduledAt) })
	return out, nil
}

func copyEvent(e model.Event) model.Event {
	e.PrerequisiteRoles = slices.Clone(e.PrerequisiteRoles)
	return e
}

type voiceAccessRepo struct{ s *Store }

func (r *voiceAccessRepo) GetAccess(_ context.Context, eventId, userId string) (*model.EventVoiceAccess, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.data.access[pairKey(eventId, userId)]
	if !ok {
		return nil, errors.WithMessage(repo.ErrNotFound, "get voice access")
	}
	return &a, nil
}

func (r *voiceAccessRepo) GetAccessForUpdate(ctx context.Context, eventId, userId string) (*model.EventVoiceAccess, error) {
	return r.GetAccess(ctx, eventId, userId)
}

func (r *voiceAccessRepo) SaveAccess(_ context.Context, access *model.EventVoiceAccess) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey(access.EventId, access.UserId)
	if existing, ok := r.s.data.access[key]; ok && existing.ID != access.ID {
		return errors.WithMessage(repo.ErrDuplicate, "save voice access")
	}
	r.s.stamp(&access.BaseModel)
	r.s.data.access[key] = *access
	return nil
}

func (r *voiceAccessRepo) ListActiveAccess(_ context.Context, eventId string) ([]model.EventVoiceAccess, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.EventVoiceAccess
	for _, a := range r.s.data.access {
		if a.EventId == eventId && a.Active() {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b model.EventVoiceAccess) int { return a.GrantedAt.Compare(b.GrantedAt) })
	return out, nil
}

func (r *voiceAccessRepo) CountActiveAccess(_ context.Context, eventId string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, a := range r.s.data.access {
		if a.EventId == eventId && a.Active() {
			n++
		}
	}
	return n, nil
}

func (r *voiceAccessRepo) RevokeAllActive(_ context.Context, eventId, reason string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for key, a := range r.s.data.access {
		if a.EventId != eventId || !a.Active() {
			continue
		}
		revokedAt := at
		a.Status = statemachine.VoiceAccessRevoked
		a.RevokedAt = &revokedAt
		a.RevokeReason = reason
		a.UpdatedAt = r.s.now()
		r.s.data.access[key] = a
		n++
	}
	return n, nil
}

type participantRepo struct{ s *Store }

func (r *participantRepo) GetParticipant(_ context.Context, eventId, userId string) (*model.EventParticipant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.data.participants[pairKey(eventId, userId)]
	if !ok {
		return nil, errors.WithMessage(repo.ErrNotFound, "get participant")
	}
	return &p, nil
}

func (r *participantRepo) SaveParticipant(_ context.Context, p *model.EventParticipant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey(p.EventId, p.UserId)
	if existing, ok := r.s.data.participants[key]; ok && existing.ID != p.ID {
		return errors.WithMessage(repo.ErrDuplicate, "save participant")
	}
	r.s.stamp(&p.BaseModel)
	r.s.data.participants[key] = *p
	return nil
}

type activityLogRepo struct{ s *Store }

func (r *activityLogRepo) CreateLog(_ context.Context, entry *model.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.nextID()
	entry.CreatedAt = r.s.now()
	r.s.data.logs = append(r.s.data.logs, *entry)
	return nil
}

func (r *activityLogRepo) ListLogsByEntity(_ context.Context, entityType model.EntityType, entityId string) ([]model.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.ActivityLog
	for _, l := range r.s.data.logs {
		if l.EntityType == entityType && l.EntityId == entityId {
			out = append(out, l)
		}
	}
	return out, nil
}

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

package repo

import (
	"context"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/pkg/database"
	"github.com/go-arcade/guildsync/pkg/statemachine"
)

type IEventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, eventId string) (*model.Event, error)
	// GetEventForUpdate is GetEvent holding a row lock until the surrounding
	// transaction ends.
	GetEventForUpdate(ctx context.Context, eventId string) (*model.Event, error)
	SaveEvent(ctx context.Context, event *model.Event) error
	ListEventsByStatus(ctx context.Context, status statemachine.EventStatus) ([]model.Event, error)
}

type EventRepo struct {
	database.IDatabase
}

func NewEventRepo(db database.IDatabase) IEventRepository {
	return &EventRepo{
		IDatabase: db,
	}
}

// CreateEvent 创建活动
func (r *EventRepo) CreateEvent(ctx context.Context, event *model.Event) error {
	return wrap(r.Database().WithContext(ctx).Create(event).Error, "create event")
}

// GetEvent 获取未归档活动
func (r *EventRepo) GetEvent(ctx context.Context, eventId string) (*model.Event, error) {
	var event model.Event
	err := r.Database().WithContext(ctx).
		Where("event_id = ? AND is_archived = ?", eventId, false).First(&event).Error
	if err != nil {
		return nil, wrap(err, "get event")
	}
	return &event, nil
}

// GetEventForUpdate 加行锁读取活动，同一活动的授权由此串行
func (r *EventRepo) GetEventForUpdate(ctx context.Context, eventId string) (*model.Event, error) {
	var event model.Event
	err := forUpdate(r.Database().WithContext(ctx)).
		Where("event_id = ? AND is_archived = ?", eventId, false).First(&event).Error
	if err != nil {
		return nil, wrap(err, "lock event")
	}
	return &event, nil
}

func (r *EventRepo) SaveEvent(ctx context.Context, event *model.Event) error {
	return wrap(r.Database().WithContext(ctx).Save(event).Error, "save event")
}

func (r *EventRepo) ListEventsByStatus(ctx context.Context, status statemachine.EventStatus) ([]model.Event, error) {
	var events []model.Event
	err := r.Database().WithContext(ctx).
		Where("status = ? AND is_archived = ?", status, false).
		Order("scheduled_at").Find(&events).Error
	return events, wrap(err, "list events by status")
}

type IVoiceAccessRepository interface {
	GetAccess(ctx context.Context, eventId, userId string) (*model.EventVoiceAccess, error)
	GetAccessForUpdate(ctx context.Context, eventId, userId string) (*model.EventVoiceAccess, error)
	SaveAccess(ctx context.Context, access *model.EventVoiceAccess) error
	ListActiveAccess(ctx context.Context, eventId string) ([]model.EventVoiceAccess, error)
	CountActiveAccess(ctx context.Context, eventId string) (int64, error)
	// RevokeAllActive flips every ACTIVE row of the event to REVOKED.
	RevokeAllActive(ctx context.Context, eventId, reason string, at time.Time) (int64, error)
}

type VoiceAccessRepo struct {
	database.IDatabase
}

func NewVoiceAccessRepo(db database.IDatabase) IVoiceAccessRepository {
	return &VoiceAccessRepo{
		IDatabase: db,
	}
}

func (r *VoiceAccessRepo) GetAccess(ctx context.Context, eventId, userId string) (*model.EventVoiceAccess, error) {
	var access model.EventVoiceAccess
	err := r.Database().WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventId, userId).First(&access).Error
	if err != nil {
		return nil, wrap(err, "get voice access")
	}
	return &access, nil
}

func (r *VoiceAccessRepo) GetAccessForUpdate(ctx context.Context, eventId, userId string) (*model.EventVoiceAccess, error) {
	var access model.EventVoiceAccess
	err := forUpdate(r.Database().WithContext(ctx)).
		Where("event_id = ? AND user_id = ?", eventId, userId).First(&access).Error
	if err != nil {
		return nil, wrap(err, "lock voice access")
	}
	return &access, nil
}

func (r *VoiceAccessRepo) SaveAccess(ctx context.Context, access *model.EventVoiceAccess) error {
	db := r.Database().WithContext(ctx)
	if access.ID == 0 {
		return wrap(db.Create(access).Error, "create voice access")
	}
	return wrap(db.Save(access).Error, "update voice access")
}

func (r *VoiceAccessRepo) ListActiveAccess(ctx context.Context, eventId string) ([]model.EventVoiceAccess, error) {
	var list []model.EventVoiceAccess
	err := r.Database().WithContext(ctx).
		Where("event_id = ? AND status = ?", eventId, statemachine.VoiceAccessActive).
		Order("granted_at").Find(&list).Error
	return list, wrap(err, "list active voice access")
}

func (r *VoiceAccessRepo) CountActiveAccess(ctx context.Context, eventId string) (int64, error) {
	var count int64
	err := r.Database().WithContext(ctx).Model(&model.EventVoiceAccess{}).
		Where("event_id = ? AND status = ?", eventId, statemachine.VoiceAccessActive).
		Count(&count).Error
	return count, wrap(err, "count active voice access")
}

// RevokeAllActive 批量撤销活动的语音访问
func (r *VoiceAccessRepo) RevokeAllActive(ctx context.Context, eventId, reason string, at time.Time) (int64, error) {
	res := r.Database().WithContext(ctx).Model(&model.EventVoiceAccess{}).
		Where("event_id = ? AND status = ?", eventId, statemachine.VoiceAccessActive).
		Updates(map[string]any{
			"status":        statemachine.VoiceAccessRevoked,
			"revoked_at":    at,
			"revoke_reason": reason,
		})
	return res.RowsAffected, wrap(res.Error, "revoke all voice access")
}

type IParticipantRepository interface {
	GetParticipant(ctx context.Context, eventId, userId string) (*model.EventParticipant, error)
	SaveParticipant(ctx context.Context, p *model.EventParticipant) error
}

type ParticipantRepo struct {
	database.IDatabase
}

func NewParticipantRepo(db database.IDatabase) IParticipantRepository {
	return &ParticipantRepo{
		IDatabase: db,
	}
}

func (r *ParticipantRepo) GetParticipant(ctx context.Context, eventId, userId string) (*model.EventParticipant, error) {
	var p model.EventParticipant
	err := r.Database().WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventId, userId).First(&p).Error
	if err != nil {
		return nil, wrap(err, "get participant")
	}
	return &p, nil
}

func (r *ParticipantRepo) SaveParticipant(ctx context.Context, p *model.EventParticipant) error {
	db := r.Database().WithContext(ctx)
	if p.ID == 0 {
		return wrap(db.Create(p).Error, "create participant")
	}
	return wrap(db.Save(p).Error, "update participant")
}

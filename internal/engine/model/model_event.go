package model

import (
	"time"

	"github.com/go-arcade/guildsync/pkg/statemachine"
)

type Event struct {
	BaseModel
	EventId           string                   `gorm:"column:event_id;not null;uniqueIndex;size:64" json:"eventId"`
	Title             string                   `gorm:"column:title;not null;size:200" json:"title"`
	Description       string                   `gorm:"column:description;type:text" json:"description"`
	ScheduledAt       time.Time                `gorm:"column:scheduled_at;not null;index" json:"scheduledAt"`
	DurationMinutes   *int                     `gorm:"column:duration_minutes" json:"durationMinutes"`
	Capacity          *int                     `gorm:"column:capacity" json:"capacity"`
	PrerequisiteRoles []string                 `gorm:"column:prerequisite_roles;type:text;serializer:sonic" json:"prerequisiteRoles"` // 角色或标签名称
	RemoteChannelId   *string                  `gorm:"column:remote_channel_id;size:32" json:"remoteChannelId"`
	RemoteEventId     *string                  `gorm:"column:remote_event_id;size:32" json:"remoteEventId"`
	RemoteTempRoleId  *string                  `gorm:"column:remote_temp_role_id;size:32" json:"remoteTempRoleId"`
	Status            statemachine.EventStatus `gorm:"column:status;not null;index;size:20" json:"status"`
	IsArchived        bool                     `gorm:"column:is_archived;not null" json:"isArchived"`
	CreatedBy         string                   `gorm:"column:created_by;size:64" json:"createdBy"`
}

func (Event) TableName() string {
	return "t_event"
}

// EndsAt returns the scheduled end, using fallback when no duration is set.
func (e *Event) EndsAt(fallback time.Duration) time.Time {
	if e.DurationMinutes != nil && *e.DurationMinutes > 0 {
		return e.ScheduledAt.Add(time.Duration(*e.DurationMinutes) * time.Minute)
	}
	return e.ScheduledAt.Add(fallback)
}

type CreateEventReq struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	ScheduledAt       time.Time `json:"scheduledAt"`
	DurationMinutes   *int      `json:"durationMinutes"`
	Capacity          *int      `json:"capacity"`
	PrerequisiteRoles []string  `json:"prerequisiteRoles"`
	RemoteChannelId   *string   `json:"remoteChannelId"`
	RemoteEventId     *string   `json:"remoteEventId"`
}

// EventVoiceAccess 活动语音频道访问记录，(event_id, user_id) 唯一，重新授权时复用同一行
type EventVoiceAccess struct {
	BaseModel
	EventId      string                         `gorm:"column:event_id;not null;uniqueIndex:uk_event_user;size:64" json:"eventId"`
	UserId       string                         `gorm:"column:user_id;not null;uniqueIndex:uk_event_user;size:64" json:"userId"`
	RemoteUserId string                         `gorm:"column:remote_user_id;not null;size:32" json:"remoteUserId"`
	Status       statemachine.VoiceAccessStatus `gorm:"column:status;not null;index;size:20" json:"status"`
	GrantedAt    time.Time                      `gorm:"column:granted_at;not null" json:"grantedAt"`
	GrantedBy    *string                        `gorm:"column:granted_by;size:64" json:"grantedBy"`
	RevokedAt    *time.Time                     `gorm:"column:revoked_at" json:"revokedAt"`
	RevokeReason string                         `gorm:"column:revoke_reason;size:64" json:"revokeReason"`
}

func (EventVoiceAccess) TableName() string {
	return "t_event_voice_access"
}

func (a *EventVoiceAccess) Active() bool {
	return a.Status == statemachine.VoiceAccessActive
}

type ParticipantStatus string

const (
	ParticipantJoined ParticipantStatus = "joined"
	ParticipantLeft   ParticipantStatus = "left"
)

// EventParticipant 活动参与记录
type EventParticipant struct {
	BaseModel
	EventId  string            `gorm:"column:event_id;not null;uniqueIndex:uk_participant;size:64" json:"eventId"`
	UserId   string            `gorm:"column:user_id;not null;uniqueIndex:uk_participant;size:64" json:"userId"`
	Status   ParticipantStatus `gorm:"column:status;not null;size:20" json:"status"`
	JoinedAt time.Time         `gorm:"column:joined_at;not null" json:"joinedAt"`
	LeftAt   *time.Time        `gorm:"column:left_at" json:"leftAt"`
}

func (EventParticipant) TableName() string {
	return "t_event_participant"
}

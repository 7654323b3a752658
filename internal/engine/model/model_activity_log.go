package model

import "time"

type ActivityAction string

const (
	ActionRoleCreated       ActivityAction = "ROLE_CREATED"
	ActionRoleUpdated       ActivityAction = "ROLE_UPDATED"
	ActionRoleArchived      ActivityAction = "ROLE_ARCHIVED"
	ActionRoleGranted       ActivityAction = "ROLE_GRANTED"
	ActionRoleRevoked       ActivityAction = "ROLE_REVOKED"
	ActionTagCreated        ActivityAction = "TAG_CREATED"
	ActionTagUpdated        ActivityAction = "TAG_UPDATED"
	ActionTagArchived       ActivityAction = "TAG_ARCHIVED"
	ActionTagGranted        ActivityAction = "TAG_GRANTED"
	ActionTagRevoked        ActivityAction = "TAG_REVOKED"
	ActionPrimaryTagSet     ActivityAction = "PRIMARY_TAG_SET"
	ActionEventCreated      ActivityAction = "EVENT_CREATED"
	ActionEventStatus       ActivityAction = "EVENT_STATUS_CHANGED"
	ActionVoiceGranted      ActivityAction = "VOICE_ACCESS_GRANTED"
	ActionVoiceRevoked      ActivityAction = "VOICE_ACCESS_REVOKED"
	ActionEventCleanedUp    ActivityAction = "EVENT_CLEANED_UP"
	ActionRemoteSyncFailed  ActivityAction = "REMOTE_SYNC_FAILED"
	ActionRemoteCompensated ActivityAction = "REMOTE_COMPENSATED"
)

type EntityType string

const (
	EntityRole  EntityType = "role"
	EntityTag   EntityType = "tag"
	EntityUser  EntityType = "user"
	EntityEvent EntityType = "event"
)

// ActivityLog is the append-only audit trail.
type ActivityLog struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LogId      string         `gorm:"column:log_id;not null;uniqueIndex;size:64" json:"logId"`
	ActorId    string         `gorm:"column:actor_id;index;size:64" json:"actorId"`
	Action     ActivityAction `gorm:"column:action;not null;index;size:40" json:"action"`
	EntityType EntityType     `gorm:"column:entity_type;not null;size:20" json:"entityType"`
	EntityId   string         `gorm:"column:entity_id;not null;index;size:64" json:"entityId"`
	Detail     map[string]any `gorm:"column:detail;type:text;serializer:sonic" json:"detail"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "t_activity_log"
}

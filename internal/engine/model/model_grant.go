package model

import "time"

// GrantState is the grant/revoke bookkeeping shared by role and tag grants.
// A grant is active while RevokedAt is nil.
type GrantState struct {
	GrantedAt    time.Time  `gorm:"column:granted_at;not null" json:"grantedAt"`
	GrantedBy    *string    `gorm:"column:granted_by;size:64" json:"grantedBy"`
	GrantReason  string     `gorm:"column:grant_reason;size:255" json:"grantReason"`
	RevokedAt    *time.Time `gorm:"column:revoked_at;index" json:"revokedAt"`
	RevokedBy    *string    `gorm:"column:revoked_by;size:64" json:"revokedBy"`
	RevokeReason string     `gorm:"column:revoke_reason;size:255" json:"revokeReason"`
}

func (g *GrantState) Active() bool {
	return g.RevokedAt == nil
}

// UserRoleGrant 用户角色授权，(user_id, role_id) 全局唯一
type UserRoleGrant struct {
	BaseModel
	GrantId string `gorm:"column:grant_id;not null;uniqueIndex;size:64" json:"grantId"`
	UserId  string `gorm:"column:user_id;not null;uniqueIndex:uk_user_role;size:64" json:"userId"`
	RoleId  string `gorm:"column:role_id;not null;uniqueIndex:uk_user_role;index;size:64" json:"roleId"`
	GrantState
	IsSystemGranted bool `gorm:"column:is_system_granted;not null" json:"isSystemGranted"`
}

func (UserRoleGrant) TableName() string {
	return "t_user_role_grant"
}

// UserTagGrant 用户标签授权，(user_id, tag_id) 全局唯一
type UserTagGrant struct {
	BaseModel
	GrantId string `gorm:"column:grant_id;not null;uniqueIndex;size:64" json:"grantId"`
	UserId  string `gorm:"column:user_id;not null;uniqueIndex:uk_user_tag;size:64" json:"userId"`
	TagId   string `gorm:"column:tag_id;not null;uniqueIndex:uk_user_tag;index;size:64" json:"tagId"`
	GrantState
	IsPrimary bool `gorm:"column:is_primary;not null" json:"isPrimary"`
}

func (UserTagGrant) TableName() string {
	return "t_user_tag_grant"
}

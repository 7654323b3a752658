package model

import "gorm.io/gorm"

// Role is a guild role definition. Name is unique among non-archived roles,
// compared case-insensitively.
type Role struct {
	BaseModel
	RoleId       string  `gorm:"column:role_id;not null;uniqueIndex;size:64" json:"roleId"`
	Name         string  `gorm:"column:name;not null;index;size:100" json:"name"`         // 角色名称
	Description  string  `gorm:"column:description;size:500" json:"description"`         // 角色描述
	Color        int     `gorm:"column:color;not null;default:0" json:"color"`           // RGB 颜色
	SortOrder    int     `gorm:"column:sort_order;not null;default:0" json:"sortOrder"`  // 排序
	IsSystemRole bool    `gorm:"column:is_system_role;not null" json:"isSystemRole"`     // 系统角色不参与远端同步
	RemoteRoleId *string `gorm:"column:remote_role_id;size:32" json:"remoteRoleId"`      // 远端角色 ID
	IsArchived   bool    `gorm:"column:is_archived;not null;index" json:"isArchived"`    // 软删除
	CreatedBy    string  `gorm:"column:created_by;size:64" json:"createdBy"`
	ActiveName   *string `gorm:"column:active_name;size:100;uniqueIndex:uk_role_active_name" json:"-"`
}

func (Role) TableName() string {
	return "t_role"
}

func (r *Role) BeforeSave(*gorm.DB) error {
	r.ActiveName = activeName(r.Name, r.IsArchived)
	return nil
}

// Managed reports whether the role is mirrored to the guild.
func (r *Role) Managed() bool {
	return !r.IsArchived && !r.IsSystemRole
}

type CreateRoleReq struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Color        int    `json:"color"`
	SortOrder    int    `json:"sortOrder"`
	IsSystemRole bool   `json:"isSystemRole"`
}

type UpdateRoleReq struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *int    `json:"color,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

// RoleFilter drives ListRoles.
type RoleFilter struct {
	Search          string `query:"search"`
	System          *bool  `query:"system"`
	IncludeArchived bool   `query:"includeArchived"`
	SortBy          string `query:"sortBy"`    // name | sortOrder | createdAt
	SortOrder       string `query:"sortOrder"` // asc | desc
	Page            int    `query:"page"`
	PageSize        int    `query:"pageSize"`
}

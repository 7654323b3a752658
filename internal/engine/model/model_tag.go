package model

import "gorm.io/gorm"

type TagCategory string

const (
	TagSkill       TagCategory = "skill"
	TagAchievement TagCategory = "achievement"
	TagSpecial     TagCategory = "special"
)

func (c TagCategory) Valid() bool {
	return c == TagSkill || c == TagAchievement || c == TagSpecial
}

// Tag is a badge mirrored to its own guild role. Name follows the same
// uniqueness rule as Role.
type Tag struct {
	BaseModel
	TagId        string      `gorm:"column:tag_id;not null;uniqueIndex;size:64" json:"tagId"`
	Name         string      `gorm:"column:name;not null;index;size:100" json:"name"`
	ActiveName   *string     `gorm:"column:active_name;size:100;uniqueIndex:uk_tag_active_name" json:"-"`
	DisplayName  string      `gorm:"column:display_name;size:100" json:"displayName"`
	Description  string      `gorm:"column:description;size:500" json:"description"`
	Category     TagCategory `gorm:"column:category;not null;size:20" json:"category"`
	Color        int         `gorm:"column:color;not null;default:0" json:"color"`
	Icon         string      `gorm:"column:icon;size:255" json:"icon"`
	SortOrder    int         `gorm:"column:sort_order;not null;default:0" json:"sortOrder"`
	RemoteRoleId *string     `gorm:"column:remote_role_id;size:32" json:"remoteRoleId"`
	IsArchived   bool        `gorm:"column:is_archived;not null;index" json:"isArchived"`
	CreatedBy    string      `gorm:"column:created_by;size:64" json:"createdBy"`
}

func (Tag) TableName() string {
	return "t_tag"
}

func (t *Tag) BeforeSave(*gorm.DB) error {
	t.ActiveName = activeName(t.Name, t.IsArchived)
	return nil
}

// Label returns the display name, falling back to the name.
func (t *Tag) Label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}

type CreateTagReq struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName"`
	Description string      `json:"description"`
	Category    TagCategory `json:"category"`
	Color       int         `json:"color"`
	Icon        string      `json:"icon"`
	SortOrder   int         `json:"sortOrder"`
}

type UpdateTagReq struct {
	Name        *string      `json:"name,omitempty"`
	DisplayName *string      `json:"displayName,omitempty"`
	Description *string      `json:"description,omitempty"`
	Category    *TagCategory `json:"category,omitempty"`
	Color       *int         `json:"color,omitempty"`
	Icon        *string      `json:"icon,omitempty"`
	SortOrder   *int         `json:"sortOrder,omitempty"`
}

type TagFilter struct {
	Search          string      `query:"search"`
	Category        TagCategory `query:"category"`
	IncludeArchived bool        `query:"includeArchived"`
	Page            int         `query:"page"`
	PageSize        int         `query:"pageSize"`
}

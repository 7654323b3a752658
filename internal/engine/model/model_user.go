package model

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/16 20:19
 * @file: model_user.go
 * @description: user model
 */

// User is owned by the auth flow; guildsync only reads it to resolve the
// linked guild member id.
type User struct {
	BaseModel
	UserId       string  `gorm:"column:user_id;not null;uniqueIndex;size:64" json:"userId"`
	Username     string  `gorm:"column:username;size:100" json:"username"`
	DisplayName  string  `gorm:"column:display_name;size:100" json:"displayName"`
	RemoteUserId *string `gorm:"column:remote_user_id;index;size:32" json:"remoteUserId"` // 关联的 Discord 用户 ID
}

func (User) TableName() string {
	return "t_user"
}

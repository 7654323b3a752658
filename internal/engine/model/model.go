package model

import (
	"strings"
	"time"

	"github.com/go-arcade/guildsync/pkg/database"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/28 21:55
 * @file: model.go
 * @description: base model
 */

type BaseModel struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// FoldName is the case-insensitive form role and tag names are compared in.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// activeName backs the unique index on non-archived names. Archived rows
// store NULL, which the index ignores.
func activeName(name string, archived bool) *string {
	if archived {
		return nil
	}
	folded := FoldName(name)
	return &folded
}

func init() {
	database.RegisterModels(
		&Role{},
		&Tag{},
		&User{},
		&UserRoleGrant{},
		&UserTagGrant{},
		&Event{},
		&EventVoiceAccess{},
		&EventParticipant{},
		&ActivityLog{},
	)
}

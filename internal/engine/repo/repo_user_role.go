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

	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/pkg/database"
)

type IUserRoleRepository interface {
	// GetGrant returns the single (user, role) row, active or revoked. Inside a
	// transaction the row stays locked until it ends.
	GetGrant(ctx context.Context, userId, roleId string) (*model.UserRoleGrant, error)
	// SaveGrant inserts when ID is zero and updates otherwise.
	SaveGrant(ctx context.Context, grant *model.UserRoleGrant) error
	ListActiveGrantsByUser(ctx context.Context, userId string) ([]model.UserRoleGrant, error)
	CountActiveGrantsByRole(ctx context.Context, roleId string) (int64, error)
}

type UserRoleRepo struct {
	database.IDatabase
}

func NewUserRoleRepo(db database.IDatabase) IUserRoleRepository {
	return &UserRoleRepo{
		IDatabase: db,
	}
}

func (r *UserRoleRepo) GetGrant(ctx context.Context, userId, roleId string) (*model.UserRoleGrant, error) {
	var grant model.UserRoleGrant
	err := forUpdate(r.Database().WithContext(ctx)).
		Where("user_id = ? AND role_id = ?", userId, roleId).First(&grant).Error
	if err != nil {
		return nil, wrap(err, "get role grant")
	}
	return &grant, nil
}

func (r *UserRoleRepo) SaveGrant(ctx context.Context, grant *model.UserRoleGrant) error {
	db := r.Database().WithContext(ctx)
	if grant.ID == 0 {
		return wrap(db.Create(grant).Error, "create role grant")
	}
	return wrap(db.Save(grant).Error, "update role grant")
}

// ListActiveGrantsByUser 获取用户当前有效的角色授权
func (r *UserRoleRepo) ListActiveGrantsByUser(ctx context.Context, userId string) ([]model.UserRoleGrant, error) {
	var grants []model.UserRoleGrant
	err := r.Database().WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL", userId).Find(&grants).Error
	return grants, wrap(err, "list active role grants")
}

func (r *UserRoleRepo) CountActiveGrantsByRole(ctx context.Context, roleId string) (int64, error) {
	var count int64
	err := r.Database().WithContext(ctx).Model(&model.UserRoleGrant{}).
		Where("role_id = ? AND revoked_at IS NULL", roleId).Count(&count).Error
	return count, wrap(err, "count active role grants")
}

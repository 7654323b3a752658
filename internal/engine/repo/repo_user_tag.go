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

type IUserTagRepository interface {
	// GetGrant locks the row like IUserRoleRepository.GetGrant.
	GetGrant(ctx context.Context, userId, tagId string) (*model.UserTagGrant, error)
	SaveGrant(ctx context.Context, grant *model.UserTagGrant) error
	ListActiveGrantsByUser(ctx context.Context, userId string) ([]model.UserTagGrant, error)
	CountActiveGrantsByTag(ctx context.Context, tagId string) (int64, error)
	// ClearPrimary unsets is_primary on every row of the user.
	ClearPrimary(ctx context.Context, userId string) error
}

type UserTagRepo struct {
	database.IDatabase
}

func NewUserTagRepo(db database.IDatabase) IUserTagRepository {
	return &UserTagRepo{
		IDatabase: db,
	}
}

func (r *UserTagRepo) GetGrant(ctx context.Context, userId, tagId string) (*model.UserTagGrant, error) {
	var grant model.UserTagGrant
	err := forUpdate(r.Database().WithContext(ctx)).
		Where("user_id = ? AND tag_id = ?", userId, tagId).First(&grant).Error
	if err != nil {
		return nil, wrap(err, "get tag grant")
	}
	return &grant, nil
}

func (r *UserTagRepo) SaveGrant(ctx context.Context, grant *model.UserTagGrant) error {
	db := r.Database().WithContext(ctx)
	if grant.ID == 0 {
		return wrap(db.Create(grant).Error, "create tag grant")
	}
	return wrap(db.Save(grant).Error, "update tag grant")
}

func (r *UserTagRepo) ListActiveGrantsByUser(ctx context.Context, userId string) ([]model.UserTagGrant, error) {
	var grants []model.UserTagGrant
	err := r.Database().WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL", userId).Find(&grants).Error
	return grants, wrap(err, "list active tag grants")
}

func (r *UserTagRepo) CountActiveGrantsByTag(ctx context.Context, tagId string) (int64, error) {
	var count int64
	err := r.Database().WithContext(ctx).Model(&model.UserTagGrant{}).
		Where("tag_id = ? AND revoked_at IS NULL", tagId).Count(&count).Error
	return count, wrap(err, "count active tag grants")
}

// ClearPrimary 清除用户所有主标签标记
func (r *UserTagRepo) ClearPrimary(ctx context.Context, userId string) error {
	err := r.Database().WithContext(ctx).Model(&model.UserTagGrant{}).
		Where("user_id = ? AND is_primary = ?", userId, true).
		Update("is_primary", false).Error
	return wrap(err, "clear primary tag")
}

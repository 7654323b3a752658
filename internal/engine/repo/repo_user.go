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

type IUserRepository interface {
	GetUser(ctx context.Context, userId string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

type UserRepo struct {
	database.IDatabase
}

func NewUserRepo(db database.IDatabase) IUserRepository {
	return &UserRepo{
		IDatabase: db,
	}
}

// GetUser 获取用户
func (r *UserRepo) GetUser(ctx context.Context, userId string) (*model.User, error) {
	var user model.User
	err := r.Database().WithContext(ctx).
		Select("id", "user_id", "username", "display_name", "remote_user_id").
		Where("user_id = ?", userId).First(&user).Error
	if err != nil {
		return nil, wrap(err, "get user")
	}
	return &user, nil
}

// CreateUser 创建用户
func (r *UserRepo) CreateUser(ctx context.Context, user *model.User) error {
	return wrap(r.Database().WithContext(ctx).Create(user).Error, "create user")
}

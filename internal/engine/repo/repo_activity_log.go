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

type IActivityLogRepository interface {
	CreateLog(ctx context.Context, entry *model.ActivityLog) error
	ListLogsByEntity(ctx context.Context, entityType model.EntityType, entityId string) ([]model.ActivityLog, error)
}

type ActivityLogRepo struct {
	database.IDatabase
}

func NewActivityLogRepo(db database.IDatabase) IActivityLogRepository {
	return &ActivityLogRepo{
		IDatabase: db,
	}
}

// CreateLog 写入审计日志
func (r *ActivityLogRepo) CreateLog(ctx context.Context, entry *model.ActivityLog) error {
	return wrap(r.Database().WithContext(ctx).Create(entry).Error, "create activity log")
}

func (r *ActivityLogRepo) ListLogsByEntity(ctx context.Context, entityType model.EntityType, entityId string) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	err := r.Database().WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityId).
		Order("id").Find(&logs).Error
	return logs, wrap(err, "list activity logs")
}

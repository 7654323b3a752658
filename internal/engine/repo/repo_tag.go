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

type ITagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTag(ctx context.Context, tagId string) (*model.Tag, error)
	GetTagForUpdate(ctx context.Context, tagId string) (*model.Tag, error)
	GetActiveTagByName(ctx context.Context, name string) (*model.Tag, error)
	GetActiveTagsByNames(ctx context.Context, names []string) ([]model.Tag, error)
	ListTagsByIds(ctx context.Context, tagIds []string) ([]model.Tag, error)
	ListManagedTags(ctx context.Context) ([]model.Tag, error)
	ListTags(ctx context.Context, filter *model.TagFilter) ([]model.Tag, int64, error)
	SaveTag(ctx context.Context, tag *model.Tag) error
}

type TagRepo struct {
	database.IDatabase
}

func NewTagRepo(db database.IDatabase) ITagRepository {
	return &TagRepo{
		IDatabase: db,
	}
}

// CreateTag 创建标签
func (r *TagRepo) CreateTag(ctx context.Context, tag *model.Tag) error {
	return wrap(r.Database().WithContext(ctx).Create(tag).Error, "create tag")
}

// GetTag 获取标签（包括已归档）
func (r *TagRepo) GetTag(ctx context.Context, tagId string) (*model.Tag, error) {
	var tag model.Tag
	if err := r.Database().WithContext(ctx).Where("tag_id = ?", tagId).First(&tag).Error; err != nil {
		return nil, wrap(err, "get tag")
	}
	return &tag, nil
}

func (r *TagRepo) GetTagForUpdate(ctx context.Context, tagId string) (*model.Tag, error) {
	var tag model.Tag
	err := forUpdate(r.Database().WithContext(ctx)).Where("tag_id = ?", tagId).First(&tag).Error
	if err != nil {
		return nil, wrap(err, "lock tag")
	}
	return &tag, nil
}

func (r *TagRepo) GetActiveTagByName(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag
	err := r.Database().WithContext(ctx).
		Where("active_name = ?", model.FoldName(name)).First(&tag).Error
	if err != nil {
		return nil, wrap(err, "get tag by name")
	}
	return &tag, nil
}

func (r *TagRepo) GetActiveTagsByNames(ctx context.Context, names []string) ([]model.Tag, error) {
	var tags []model.Tag
	if len(names) == 0 {
		return tags, nil
	}
	err := r.Database().WithContext(ctx).
		Where("active_name IN ?", foldNames(names)).Find(&tags).Error
	return tags, wrap(err, "get tags by names")
}

func (r *TagRepo) ListTagsByIds(ctx context.Context, tagIds []string) ([]model.Tag, error) {
	var tags []model.Tag
	if len(tagIds) == 0 {
		return tags, nil
	}
	err := r.Database().WithContext(ctx).Where("tag_id IN ?", tagIds).Find(&tags).Error
	return tags, wrap(err, "list tags by ids")
}

// ListManagedTags 获取所有未归档标签
func (r *TagRepo) ListManagedTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.Database().WithContext(ctx).Where("is_archived = ?", false).
		Order("sort_order").Find(&tags).Error
	return tags, wrap(err, "list managed tags")
}

// ListTags 分页查询标签
func (r *TagRepo) ListTags(ctx context.Context, filter *model.TagFilter) ([]model.Tag, int64, error) {
	var (
		tags  []model.Tag
		total int64
	)
	page, size := NormalizePage(filter.Page, filter.PageSize)

	query := r.Database().WithContext(ctx).Model(&model.Tag{})
	if !filter.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR display_name LIKE ? OR description LIKE ?", like, like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "count tags")
	}
	err := query.Order("category").Order("sort_order").Order("name").
		Offset((page - 1) * size).Limit(size).Find(&tags).Error
	return tags, total, wrap(err, "list tags")
}

func (r *TagRepo) SaveTag(ctx context.Context, tag *model.Tag) error {
	return wrap(r.Database().WithContext(ctx).Save(tag).Error, "save tag")
}

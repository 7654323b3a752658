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

type IRoleRepository interface {
	CreateRole(ctx context.Context, role *model.Role) error
	GetRole(ctx context.Context, roleId string) (*model.Role, error)
	GetRoleForUpdate(ctx context.Context, roleId string) (*model.Role, error)
	GetActiveRoleByName(ctx context.Context, name string) (*model.Role, error)
	GetActiveRolesByNames(ctx context.Context, names []string) ([]model.Role, error)
	ListRolesByIds(ctx context.Context, roleIds []string) ([]model.Role, error)
	ListManagedRoles(ctx context.Context) ([]model.Role, error)
	ListRoles(ctx context.Context, filter *model.RoleFilter) ([]model.Role, int64, error)
	SaveRole(ctx context.Context, role *model.Role) error
}

type RoleRepo struct {
	database.IDatabase
}

func NewRoleRepo(db database.IDatabase) IRoleRepository {
	return &RoleRepo{
		IDatabase: db,
	}
}

// CreateRole 创建角色
func (r *RoleRepo) CreateRole(ctx context.Context, role *model.Role) error {
	return wrap(r.Database().WithContext(ctx).Create(role).Error, "create role")
}

// GetRole 获取角色（包括已归档）
func (r *RoleRepo) GetRole(ctx context.Context, roleId string) (*model.Role, error) {
	var role model.Role
	err := r.Database().WithContext(ctx).Where("role_id = ?", roleId).First(&role).Error
	if err != nil {
		return nil, wrap(err, "get role")
	}
	return &role, nil
}

// GetRoleForUpdate 加行锁读取角色，归档与授权由此串行
func (r *RoleRepo) GetRoleForUpdate(ctx context.Context, roleId string) (*model.Role, error) {
	var role model.Role
	err := forUpdate(r.Database().WithContext(ctx)).Where("role_id = ?", roleId).First(&role).Error
	if err != nil {
		return nil, wrap(err, "lock role")
	}
	return &role, nil
}

// GetActiveRoleByName 根据名称获取未归档角色，忽略大小写
func (r *RoleRepo) GetActiveRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.Database().WithContext(ctx).
		Where("active_name = ?", model.FoldName(name)).First(&role).Error
	if err != nil {
		return nil, wrap(err, "get role by name")
	}
	return &role, nil
}

// GetActiveRolesByNames 批量根据名称获取未归档角色
func (r *RoleRepo) GetActiveRolesByNames(ctx context.Context, names []string) ([]model.Role, error) {
	var roles []model.Role
	if len(names) == 0 {
		return roles, nil
	}
	err := r.Database().WithContext(ctx).
		Where("active_name IN ?", foldNames(names)).Find(&roles).Error
	return roles, wrap(err, "get roles by names")
}

func (r *RoleRepo) ListRolesByIds(ctx context.Context, roleIds []string) ([]model.Role, error) {
	var roles []model.Role
	if len(roleIds) == 0 {
		return roles, nil
	}
	err := r.Database().WithContext(ctx).Where("role_id IN ?", roleIds).Find(&roles).Error
	return roles, wrap(err, "list roles by ids")
}

// ListManagedRoles 获取需要同步到远端的角色
func (r *RoleRepo) ListManagedRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.Database().WithContext(ctx).
		Where("is_archived = ? AND is_system_role = ?", false, false).
		Order("sort_order").Find(&roles).Error
	return roles, wrap(err, "list managed roles")
}

// ListRoles 分页查询角色
func (r *RoleRepo) ListRoles(ctx context.Context, filter *model.RoleFilter) ([]model.Role, int64, error) {
	var (
		roles []model.Role
		total int64
	)
	page, size := NormalizePage(filter.Page, filter.PageSize)

	query := r.Database().WithContext(ctx).Model(&model.Role{})
	if !filter.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if filter.System != nil {
		query = query.Where("is_system_role = ?", *filter.System)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "count roles")
	}

	order := SortColumn(filter.SortBy)
	if SortDesc(filter.SortOrder) {
		order += " DESC"
	}
	err := query.Order(order).Order("name").
		Offset((page - 1) * size).Limit(size).Find(&roles).Error
	return roles, total, wrap(err, "list roles")
}

// SaveRole 更新角色全部字段
func (r *RoleRepo) SaveRole(ctx context.Context, role *model.Role) error {
	return wrap(r.Database().WithContext(ctx).Save(role).Error, "save role")
}

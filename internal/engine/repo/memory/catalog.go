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

package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"

	"github.com/pkg/errors"
)

type roleRepo struct{ s *Store }

func (r *roleRepo) CreateRole(_ context.Context, role *model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.roles[role.RoleId]; ok {
		return errors.WithMessage(repo.ErrDuplicate, "create role")
	}
	if err := r.checkName(role); err != nil {
		return err
	}
	role.ID = 0
	r.s.stamp(&role.BaseModel)
	r.s.data.roles[role.RoleId] = *role
	return nil
}

func (r *roleRepo) GetRole(_ context.Context, roleId string) (*model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.data.roles[roleId]
	if !ok {
		return nil, errors.WithMessage(repo.ErrNotFound, "get role")
	}
	return &role, nil
}

func (r *roleRepo) GetRoleForUpdate(ctx context.Context, roleId string) (*model.Role, error) {
	return r.GetRole(ctx, roleId)
}

func (r *roleRepo) GetActiveRoleByName(_ context.Context, name string) (*model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.data.roles {
		if !role.IsArchived && model.FoldName(role.Name) == model.FoldName(name) {
			return &role, nil
		}
	}
	return nil, errors.WithMessage(repo.ErrNotFound, "get role by name")
}

func (r *roleRepo) GetActiveRolesByNames(_ context.Context, names []string) ([]model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Role
	for _, role := range r.s.data.roles {
		if !role.IsArchived && containsFolded(names, role.Name) {
			out = append(out, role)
		}
	}
	sortRoles(out, "", "")
	return out, nil
}

func (r *roleRepo) ListRolesByIds(_ context.Context, roleIds []string) ([]model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Role
	for _, id := range roleIds {
		if role, ok := r.s.data.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *roleRepo) ListManagedRoles(_ context.Context) ([]model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Role
	for _, role := range r.s.data.roles {
		if role.Managed() {
			out = append(out, role)
		}
	}
	sortRoles(out, "", "")
	return out, nil
}

func (r *roleRepo) ListRoles(_ context.Context, filter *model.RoleFilter) ([]model.Role, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []model.Role
	for _, role := range r.s.data.roles {
		if role.IsArchived && !filter.IncludeArchived {
			continue
		}
		if filter.System != nil && role.IsSystemRole != *filter.System {
			continue
		}
		if filter.Search != "" && !strings.Contains(role.Name, filter.Search) &&
			!strings.Contains(role.Description, filter.Search) {
			continue
		}
		matched = append(matched, role)
	}
	sortRoles(matched, filter.SortBy, filter.SortOrder)
	page, size := repo.NormalizePage(filter.Page, filter.PageSize)
	return paginate(matched, page, size), int64(len(matched)), nil
}

func (r *roleRepo) SaveRole(_ context.Context, role *model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkName(role); err != nil {
		return err
	}
	r.s.stamp(&role.BaseModel)
	r.s.data.roles[role.RoleId] = *role
	return nil
}

// checkName mirrors the unique index on non-archived folded names. Caller holds mu.
func (r *roleRepo) checkName(role *model.Role) error {
	if role.IsArchived {
		return nil
	}
	for _, other := range r.s.data.roles {
		if other.RoleId != role.RoleId && !other.IsArchived && model.FoldName(other.Name) == model.FoldName(role.Name) {
			return errors.WithMessage(repo.ErrDuplicate, "role name")
		}
	}
	return nil
}

func containsFolded(names []string, name string) bool {
	return slices.ContainsFunc(names, func(n string) bool { return model.FoldName(n) == model.FoldName(name) })
}

func sortRoles(roles []model.Role, sortBy, order string) {
	desc := repo.SortDesc(order)
	column := repo.SortColumn(sortBy)
	slices.SortFunc(roles, func(a, b model.Role) int {
		var c int
		switch column {
		case "name":
			c = cmp.Compare(a.Name, b.Name)
		case "created_at":
			c = cmp.Compare(a.ID, b.ID)
		default:
			c = cmp.Compare(a.SortOrder, b.SortOrder)
		}
		if desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.Name, b.Name)
		}
		return c
	})
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

type tagRepo struct{ s *Store }

func (r *tagRepo) CreateTag(_ context.Context, tag *model.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.tags[tag.TagId]; ok {
		return errors.WithMessage(repo.ErrDuplicate, "create tag")
	}
	if err := r.checkName(tag); err != nil {
		return err
	}
	tag.ID = 0
	r.s.stamp(&tag.BaseModel)
	r.s.data.tags[tag.TagId] = *tag
	return nil
}

func (r *tagRepo) GetTag(_ context.Context, tagId string) (*model.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tag, ok := r.s.data.tags[tagId]
	if !ok {
		return nil, errors.WithMessage(repo.ErrNotFound, "get tag")
	}
	return &tag, nil
}

func (r *tagRepo) GetTagForUpdate(ctx context.Context, tagId string) (*model.Tag, error) {
	return r.GetTag(ctx, tagId)
}

func (r *tagRepo) GetActiveTagByName(_ context.Context, name string) (*model.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, tag := range r.s.data.tags {
		if !tag.IsArchived && model.FoldName(tag.Name) == model.FoldName(name) {
			return &tag, nil
		}
	}
	return nil, errors.WithMessage(repo.ErrNotFound, "get tag by name")
}

func (r *tagRepo) GetActiveTagsByNames(_ context.Context, names []string) ([]model.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Tag
	for _, tag := range r.s.data.tags {
		if !tag.IsArchived && containsFolded(names, tag.Name) {
			out = append(out, tag)
		}
	}
	sortTags(out)
	return out, nil
}

func (r *tagRepo) ListTagsByIds(_ context.Context, tagIds []string) ([]model.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Tag
	for _, id := range tagIds {
		if tag, ok := r.s.data.tags[id]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (r *tagRepo) ListManagedTags(_ context.Context) ([]model.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Tag
	for _, tag := range r.s.data.tags {
		if !tag.IsArchived {
			out = append(out, tag)
		}
	}
	sortTags(out)
	return out, nil
}

func (r *tagRepo) ListTags(_ context.Context, filter *model.TagFilter) ([]model.Tag, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []model.Tag
	for _, tag := range r.s.data.tags {
		if tag.IsArchived && !filter.IncludeArchived {
			continue
		}
		if filter.Category != "" && tag.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(tag.Name, filter.Search) &&
			!strings.Contains(tag.DisplayName, filter.Search) &&
			!strings.Contains(tag.Description, filter.Search) {
			continue
		}
		matched = append(matched, tag)
	}
	sortTags(matched)
	page, size := repo.NormalizePage(filter.Page, filter.PageSize)
	return paginate(matched, page, size), int64(len(matched)), nil
}

func (r *tagRepo) SaveTag(_ context.Context, tag *model.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkName(tag); err != nil {
		return err
	}
	r.s.stamp(&tag.BaseModel)
	r.s.data.tags[tag.TagId] = *tag
	return nil
}

func (r *tagRepo) checkName(tag *model.Tag) error {
	if tag.IsArchived {
		return nil
	}
	for _, other := range r.s.data.tags {
		if other.TagId != tag.TagId && !other.IsArchived && model.FoldName(other.Name) == model.FoldName(tag.Name) {
			return errors.WithMessage(repo.ErrDuplicate, "tag name")
		}
	}
	return nil
}

func sortTags(tags []model.Tag) {
	slices.SortFunc(tags, func(a, b model.Tag) int {
		return cmp.Or(
			cmp.Compare(a.Category, b.Category),
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.Name, b.Name),
		)
	})
}

type userRepo struct{ s *Store }

func (r *userRepo) GetUser(_ context.Context, userId string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.data.users[userId]
	if !ok {
		return nil, errors.WithMessage(repo.ErrNotFound, "get user")
	}
	return &user, nil
}

func (r *userRepo) CreateUser(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[user.UserId]; ok {
		return errors.WithMessage(repo.ErrDuplicate, "create user")
	}
	r.s.stamp(&user.BaseModel)
	r.s.data.users[user.UserId] = *user
	return nil
}

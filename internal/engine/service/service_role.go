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

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/id"
	"github.com/go-arcade/guildsync/pkg/log"
)

const maxNameLength = 100

// RoleService owns the role catalog and mirrors it to the guild.
type RoleService struct {
	engine
}

// RoleMutation is the outcome of a catalog write.
type RoleMutation struct {
	Role         *model.Role   `json:"role"`
	SyncWarnings []SyncWarning `json:"syncWarnings,omitempty"`
}

type RoleList struct {
	Roles    []model.Role `json:"roles"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validation("name is required")
	}
	if len(name) > maxNameLength {
		return "", validation("name is too long")
	}
	return name, nil
}

// CreateRole creates a role; non-system roles are then ensured on the guild.
func (s *RoleService) CreateRole(ctx context.Context, req *model.CreateRoleReq, actorId string) (res *RoleMutation, err error) {
	defer recoverInto(&err, "CreateRole")

	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}

	role := &model.Role{
		RoleId:       id.GetUUID(),
		Name:         name,
		Description:  req.Description,
		Color:        req.Color,
		SortOrder:    req.SortOrder,
		IsSystemRole: req.IsSystemRole,
		CreatedBy:    actorId,
	}
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		if err := ensureRoleNameFree(ctx, tx, name, ""); err != nil {
			return err
		}
		if err := tx.Role.CreateRole(ctx, role); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionRoleCreated, model.EntityRole, role.RoleId,
			map[string]any{"name": role.Name, "isSystemRole": role.IsSystemRole})
	})
	if err != nil {
		return nil, dbError(err)
	}
	log.Infow("role created", "roleId", role.RoleId, "name", role.Name)

	res = &RoleMutation{Role: role}
	if role.Managed() {
		res.SyncWarnings = appendWarning(res.SyncWarnings, s.ensureRemote(ctx, role, actorId))
	}
	return res, nil
}

func ensureRoleNameFree(ctx context.Context, tx *repo.Repositories, name, selfId string) error {
	existing, err := tx.Role.GetActiveRoleByName(ctx, name)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.RoleId == selfId:
		return nil
	}
	return newError(CodeConflict, "role name already exists", map[string]any{"name": name, "roleId": existing.RoleId})
}

// ensureRemote creates or finds the guild role and stores its id.
func (s *RoleService) ensureRemote(ctx context.Context, role *model.Role, actorId string) *SyncWarning {
	remoteId, err := s.guild.EnsureRole(ctx, guild.RoleSpec{
		Name:        role.Name,
		Color:       role.Color,
		Mentionable: true,
	}, "role created")
	if w := s.remote(ctx, "ensure_role", err, actorId, model.EntityRole, role.RoleId, role.Name, ""); w != nil {
		return w
	}
	role.RemoteRoleId = &remoteId
	if err := s.repos.Role.SaveRole(ctx, role); err != nil {
		log.Errorw("failed to store remote role id", "roleId", role.RoleId, "remoteRoleId", remoteId, "error", err)
	}
	return nil
}

// UpdateRole applies patch and mirrors name and color to the guild role.
func (s *RoleService) UpdateRole(ctx context.Context, roleId string, patch *model.UpdateRoleReq, actorId string) (res *RoleMutation, err error) {
	defer recoverInto(&err, "UpdateRole")

	var (
		role    *model.Role
		changed = map[string]any{}
	)
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		var err error
		role, err = tx.Role.GetRoleForUpdate(ctx, roleId)
		if err != nil {
			return lookupError(err, notFound("role", roleId))
		}
		if role.IsArchived {
			return archived("role", roleId)
		}
		if patch.Name != nil {
			name, err := validateName(*patch.Name)
			if err != nil {
				return err
			}
			if name != role.Name {
				if err := ensureRoleNameFree(ctx, tx, name, role.RoleId); err != nil {
					return err
				}
				role.Name = name
				changed["name"] = name
			}
		}
		if patch.Description != nil {
			role.Description = *patch.Description
			changed["description"] = role.Description
		}
		if patch.Color != nil {
			role.Color = *patch.Color
			changed["color"] = role.Color
		}
		if patch.SortOrder != nil {
			role.SortOrder = *patch.SortOrder
			changed["sortOrder"] = role.SortOrder
		}
		if err := tx.Role.SaveRole(ctx, role); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionRoleUpdated, model.EntityRole, role.RoleId, changed)
	})
	if err != nil {
		return nil, dbError(err)
	}

	res = &RoleMutation{Role: role}
	if !role.Managed() {
		return res, nil
	}
	if role.RemoteRoleId == nil {
		res.SyncWarnings = appendWarning(res.SyncWarnings, s.ensureRemote(ctx, role, actorId))
		return res, nil
	}
	_, nameChanged := changed["name"]
	_, colorChanged := changed["color"]
	if nameChanged || colorChanged {
		rp := guild.RolePatch{}
		if nameChanged {
			rp.Name = &role.Name
		}
		if colorChanged {
			rp.Color = &role.Color
		}
		err := s.guild.UpdateRole(ctx, *role.RemoteRoleId, rp, "role updated")
		res.SyncWarnings = appendWarning(res.SyncWarnings,
			s.remote(ctx, "update_role", err, actorId, model.EntityRole, role.RoleId, role.Name, *role.RemoteRoleId))
	}
	return res, nil
}

// ArchiveRole soft-deletes a role that no user actively holds, then deletes
// the guild role.
func (s *RoleService) ArchiveRole(ctx context.Context, roleId, actorId string) (res *RoleMutation, err error) {
	defer recoverInto(&err, "ArchiveRole")

	var role *model.Role
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		var err error
		role, err = tx.Role.GetRoleForUpdate(ctx, roleId)
		if err != nil {
			return lookupError(err, notFound("role", roleId))
		}
		if role.IsArchived {
			return archived("role", roleId)
		}
		if role.IsSystemRole {
			return newError(CodeValidation, "system roles cannot be archived", map[string]any{"roleId": roleId, "name": role.Name})
		}
		active, err := tx.UserRole.CountActiveGrantsByRole(ctx, roleId)
		if err != nil {
			return err
		}
		if active > 0 {
			return newError(CodeConflict, "role is still in use", map[string]any{
				"roleId": roleId, "name": role.Name, "activeGrants": active,
			})
		}
		role.IsArchived = true
		if err := tx.Role.SaveRole(ctx, role); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionRoleArchived, model.EntityRole, roleId, map[string]any{"name": role.Name})
	})
	if err != nil {
		return nil, dbError(err)
	}
	log.Infow("role archived", "roleId", roleId, "name", role.Name)

	res = &RoleMutation{Role: role}
	if role.RemoteRoleId != nil {
		remoteId := *role.RemoteRoleId
		err := s.guild.DeleteRole(ctx, remoteId, "role archived")
		if w := s.remote(ctx, "delete_role", err, actorId, model.EntityRole, roleId, role.Name, remoteId); w != nil {
			res.SyncWarnings = append(res.SyncWarnings, *w)
			return res, nil
		}
		role.RemoteRoleId = nil
		if err := s.repos.Role.SaveRole(ctx, role); err != nil {
			log.Errorw("failed to clear remote role id", "roleId", roleId, "error", err)
		}
	}
	return res, nil
}

// GetRole returns a role including archived ones.
func (s *RoleService) GetRole(ctx context.Context, roleId string) (role *model.Role, err error) {
	defer recoverInto(&err, "GetRole")
	role, err = s.repos.Role.GetRole(ctx, roleId)
	if err != nil {
		return nil, lookupError(err, notFound("role", roleId))
	}
	return role, nil
}

func (s *RoleService) ListRoles(ctx context.Context, filter *model.RoleFilter) (list *RoleList, err error) {
	defer recoverInto(&err, "ListRoles")
	if filter == nil {
		filter = &model.RoleFilter{}
	}
	roles, total, err := s.repos.Role.ListRoles(ctx, filter)
	if err != nil {
		return nil, dbError(err)
	}
	page, size := repo.NormalizePage(filter.Page, filter.PageSize)
	if roles == nil {
		roles = []model.Role{}
	}
	return &RoleList{Roles: roles, Total: total, Page: page, PageSize: size}, nil
}

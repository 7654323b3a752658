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

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/internal/engine/ledger"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/id"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/parallel"
)

// TagService owns tags and the user tag ledger. Every tag maps to its own
// guild role.
type TagService struct {
	engine
}

type TagMutation struct {
	Tag          *model.Tag    `json:"tag"`
	SyncWarnings []SyncWarning `json:"syncWarnings,omitempty"`
}

type TagList struct {
	Tags     []model.Tag `json:"tags"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

type AssignTagRequest struct {
	UserId         string `json:"userId"`
	TagName        string `json:"tagName"`
	ActorId        string `json:"actorId"`
	Reason         string `json:"reason"`
	SkipRemoteSync bool   `json:"skipRemoteSync"`
}

// TagChangeResult reports whether the ledger changed; Changed is false when
// the call was redundant.
type TagChangeResult struct {
	TagName      string         `json:"tagName"`
	Changed      bool           `json:"changed"`
	Sync         *TagSyncReport `json:"sync,omitempty"`
	SyncWarnings []SyncWarning  `json:"syncWarnings,omitempty"`
}

type TagSyncReport struct {
	Removed []string        `json:"removed"`
	Added   []string        `json:"added"`
	Errors  []RoleSyncError `json:"errors,omitempty"`
}

type UserTag struct {
	Tag       model.Tag        `json:"tag"`
	IsPrimary bool             `json:"isPrimary"`
	Grant     model.GrantState `json:"grant"`
}

func (s *TagService) CreateTag(ctx context.Context, req *model.CreateTagReq, actorId string) (res *TagMutation, err error) {
	defer recoverInto(&err, "CreateTag")

	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	category := req.Category
	if category == "" {
		category = model.TagSkill
	}
	if !category.Valid() {
		return nil, newError(CodeValidation, "invalid tag category", map[string]any{"category": category})
	}

	tag := &model.Tag{
		TagId:       id.GetUUID(),
		Name:        name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Category:    category,
		Color:       req.Color,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
		CreatedBy:   actorId,
	}
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		if err := ensureTagNameFree(ctx, tx, name, ""); err != nil {
			return err
		}
		if err := tx.Tag.CreateTag(ctx, tag); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionTagCreated, model.EntityTag, tag.TagId,
			map[string]any{"name": tag.Name, "category": tag.Category})
	})
	if err != nil {
		return nil, dbError(err)
	}
	log.Infow("tag created", "tagId", tag.TagId, "name", tag.Name)

	res = &TagMutation{Tag: tag}
	if _, err := s.tagRoleId(ctx, tag, actorId); err != nil {
		res.SyncWarnings = append(res.SyncWarnings, SyncWarning{Op: "ensure_role", Target: tag.Name, Message: err.Error()})
	}
	return res, nil
}

func ensureTagNameFree(ctx context.Context, tx *repo.Repositories, name, selfId string) error {
	existing, err := tx.Tag.GetActiveTagByName(ctx, name)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.TagId == selfId:
		return nil
	}
	return newError(CodeConflict, "tag name already exists", map[string]any{"name": name, "tagId": existing.TagId})
}

// tagRoleId returns the tag's guild role id, ensuring and storing it when absent.
func (s *TagService) tagRoleId(ctx context.Context, tag *model.Tag, actorId string) (string, error) {
	if tag.RemoteRoleId != nil && *tag.RemoteRoleId != "" {
		return *tag.RemoteRoleId, nil
	}
	remoteId, err := s.guild.EnsureRole(ctx, guild.RoleSpec{Name: tag.Name, Color: tag.Color}, "tag role")
	if w := s.remote(ctx, "ensure_role", err, actorId, model.EntityTag, tag.TagId, tag.Name, ""); w != nil {
		return "", err
	}
	tag.RemoteRoleId = &remoteId
	if err := s.repos.Tag.SaveTag(ctx, tag); err != nil {
		log.Errorw("failed to store remote tag role id", "tagId", tag.TagId, "remoteRoleId", remoteId, "error", err)
	}
	return remoteId, nil
}

func (s *TagService) UpdateTag(ctx context.Context, tagId string, patch *model.UpdateTagReq, actorId string) (res *TagMutation, err error) {
	defer recoverInto(&err, "UpdateTag")

	var (
		tag     *model.Tag
		changed = map[string]any{}
	)
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		var err error
		tag, err = tx.Tag.GetTagForUpdate(ctx, tagId)
		if err != nil {
			return lookupError(err, notFound("tag", tagId))
		}
		if tag.IsArchived {
			return archived("tag", tagId)
		}
		if patch.Name != nil {
			name, err := validateName(*patch.Name)
			if err != nil {
				return err
			}
			if name != tag.Name {
				if err := ensureTagNameFree(ctx, tx, name, tag.TagId); err != nil {
					return err
				}
				tag.Name = name
				changed["name"] = name
			}
		}
		if patch.Category != nil {
			if !patch.Category.Valid() {
				return newError(CodeValidation, "invalid tag category", map[string]any{"category": *patch.Category})
			}
			tag.Category = *patch.Category
			changed["category"] = tag.Category
		}
		if patch.DisplayName != nil {
			tag.DisplayName = *patch.DisplayName
			changed["displayName"] = tag.DisplayName
		}
		if patch.Description != nil {
			tag.Description = *patch.Description
			changed["description"] = tag.Description
		}
		if patch.Color != nil {
			tag.Color = *patch.Color
			changed["color"] = tag.Color
		}
		if patch.Icon != nil {
			tag.Icon = *patch.Icon
			changed["icon"] = tag.Icon
		}
		if patch.SortOrder != nil {
			tag.SortOrder = *patch.SortOrder
			changed["sortOrder"] = tag.SortOrder
		}
		if err := tx.Tag.SaveTag(ctx, tag); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionTagUpdated, model.EntityTag, tag.TagId, changed)
	})
	if err != nil {
		return nil, dbError(err)
	}

	res = &TagMutation{Tag: tag}
	_, nameChanged := changed["name"]
	_, colorChanged := changed["color"]
	if tag.RemoteRoleId != nil && (nameChanged || colorChanged) {
		rp := guild.RolePatch{}
		if nameChanged {
			rp.Name = &tag.Name
		}
		if colorChanged {
			rp.Color = &tag.Color
		}
		err := s.guild.UpdateRole(ctx, *tag.RemoteRoleId, rp, "tag updated")
		res.SyncWarnings = appendWarning(res.SyncWarnings,
			s.remote(ctx, "update_role", err, actorId, model.EntityTag, tag.TagId, tag.Name, *tag.RemoteRoleId))
	}
	return res, nil
}

// ArchiveTag soft-deletes a tag nobody actively holds and deletes its guild role.
func (s *TagService) ArchiveTag(ctx context.Context, tagId, actorId string) (res *TagMutation, err error) {
	defer recoverInto(&err, "ArchiveTag")

	var tag *model.Tag
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		var err error
		tag, err = tx.Tag.GetTagForUpdate(ctx, tagId)
		if err != nil {
			return lookupError(err, notFound("tag", tagId))
		}
		if tag.IsArchived {
			return archived("tag", tagId)
		}
		active, err := tx.UserTag.CountActiveGrantsByTag(ctx, tagId)
		if err != nil {
			return err
		}
		if active > 0 {
			return newError(CodeConflict, "tag is still in use", map[string]any{
				"tagId": tagId, "name": tag.Name, "activeGrants": active,
			})
		}
		tag.IsArchived = true
		if err := tx.Tag.SaveTag(ctx, tag); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionTagArchived, model.EntityTag, tagId, map[string]any{"name": tag.Name})
	})
	if err != nil {
		return nil, dbError(err)
	}

	res = &TagMutation{Tag: tag}
	if tag.RemoteRoleId != nil {
		remoteId := *tag.RemoteRoleId
		err := s.guild.DeleteRole(ctx, remoteId, "tag archived")
		if w := s.remote(ctx, "delete_role", err, actorId, model.EntityTag, tagId, tag.Name, remoteId); w != nil {
			res.SyncWarnings = append(res.SyncWarnings, *w)
			return res, nil
		}
		tag.RemoteRoleId = nil
		if err := s.repos.Tag.SaveTag(ctx, tag); err != nil {
			log.Errorw("failed to clear remote tag role id", "tagId", tagId, "error", err)
		}
	}
	return res, nil
}

func (s *TagService) GetTag(ctx context.Context, tagId string) (tag *model.Tag, err error) {
	defer recoverInto(&err, "GetTag")
	tag, err = s.repos.Tag.GetTag(ctx, tagId)
	if err != nil {
		return nil, lookupError(err, notFound("tag", tagId))
	}
	return tag, nil
}

func (s *TagService) ListTags(ctx context.Context, filter *model.TagFilter) (list *TagList, err error) {
	defer recoverInto(&err, "ListTags")
	if filter == nil {
		filter = &model.TagFilter{}
	}
	tags, total, err := s.repos.Tag.ListTags(ctx, filter)
	if err != nil {
		return nil, dbError(err)
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	page, size := repo.NormalizePage(filter.Page, filter.PageSize)
	return &TagList{Tags: tags, Total: total, Page: page, PageSize: size}, nil
}

// AssignTagToUser grants a tag; holding it already is reported as unchanged.
func (s *TagService) AssignTagToUser(ctx context.Context, req AssignTagRequest) (res *TagChangeResult, err error) {
	defer recoverInto(&err, "AssignTagToUser")

	if req.UserId == "" {
		return nil, validation("userId is required")
	}
	if _, err := s.repos.User.GetUser(ctx, req.UserId); err != nil {
		return nil, lookupError(err, notFound("user", req.UserId))
	}
	tag, err := s.repos.Tag.GetActiveTagByName(ctx, req.TagName)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, namesNotFound("tag", []string{req.TagName})
		}
		return nil, dbError(err)
	}

	res = &TagChangeResult{TagName: tag.Name}
	in := ledger.GrantInput{At: s.now(), By: optional(req.ActorId), Reason: req.Reason}
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		locked, err := tx.Tag.GetTagForUpdate(ctx, tag.TagId)
		if err != nil {
			return err
		}
		if locked.IsArchived {
			return archived("tag", tag.TagId)
		}
		existing, err := tx.UserTag.GetGrant(ctx, req.UserId, tag.TagId)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		var state *model.GrantState
		if existing != nil {
			state = &existing.GrantState
		}
		next, transition := ledger.Grant(state, in)
		res.Changed = transition.Changed()
		if !res.Changed {
			return nil
		}
		if existing == nil {
			existing = &model.UserTagGrant{GrantId: id.GetUUID(), UserId: req.UserId, TagId: tag.TagId}
		}
		existing.GrantState = next
		existing.IsPrimary = false
		if err := tx.UserTag.SaveGrant(ctx, existing); err != nil {
			return err
		}
		return audit(ctx, tx, req.ActorId, model.ActionTagGranted, model.EntityUser, req.UserId, map[string]any{
			"tagId": tag.TagId, "tagName": tag.Name, "transition": transition.String(), "reason": req.Reason,
		})
	})
	if err != nil {
		return nil, dbError(err)
	}

	if res.Changed && !req.SkipRemoteSync {
		res.Sync, res.SyncWarnings = s.syncAfterWrite(ctx, req.UserId, req.ActorId)
	}
	return res, nil
}

// RemoveTagFromUser revokes a tag; not holding it is reported as unchanged.
func (s *TagService) RemoveTagFromUser(ctx context.Context, req AssignTagRequest) (res *TagChangeResult, err error) {
	defer recoverInto(&err, "RemoveTagFromUser")

	res = &TagChangeResult{TagName: req.TagName}
	tag, err := s.repos.Tag.GetActiveTagByName(ctx, req.TagName)
	if errors.Is(err, repo.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, dbError(err)
	}

	in := ledger.RevokeInput{At: s.now(), By: optional(req.ActorId), Reason: req.Reason}
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		existing, err := tx.UserTag.GetGrant(ctx, req.UserId, tag.TagId)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		next, transition := ledger.Revoke(&existing.GrantState, in)
		res.Changed = transition.Changed()
		if !res.Changed {
			return nil
		}
		existing.GrantState = next
		existing.IsPrimary = false
		if err := tx.UserTag.SaveGrant(ctx, existing); err != nil {
			return err
		}
		return audit(ctx, tx, req.ActorId, model.ActionTagRevoked, model.EntityUser, req.UserId, map[string]any{
			"tagId": tag.TagId, "tagName": tag.Name, "reason": req.Reason,
		})
	})
	if err != nil {
		return nil, dbError(err)
	}

	if res.Changed && !req.SkipRemoteSync {
		res.Sync, res.SyncWarnings = s.syncAfterWrite(ctx, req.UserId, req.ActorId)
	}
	return res, nil
}

func (s *TagService) syncAfterWrite(ctx context.Context, userId, actorId string) (*TagSyncReport, []SyncWarning) {
	report, err := s.syncUserTags(ctx, userId, actorId)
	var warnings []SyncWarning
	if err != nil {
		warnings = append(warnings, SyncWarning{Op: "sync_tags", Target: userId, Message: err.Error()})
	}
	if report != nil {
		for _, se := range report.Errors {
			warnings = append(warnings, SyncWarning{Op: se.Op, Target: se.Role, Message: se.Message})
		}
	}
	return report, warnings
}

// SetPrimaryTag marks one actively held tag as primary, clearing every other
// primary flag of the user in the same transaction.
func (s *TagService) SetPrimaryTag(ctx context.Context, userId, tagName, actorId string) (grant *model.UserTagGrant, err error) {
	defer recoverInto(&err, "SetPrimaryTag")

	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		tag, err := tx.Tag.GetActiveTagByName(ctx, tagName)
		if err != nil {
			return lookupError(err, newError(CodeNotFound, "tag not found", map[string]any{"tagName": tagName}))
		}
		grant, err = tx.UserTag.GetGrant(ctx, userId, tag.TagId)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if grant == nil || !grant.Active() {
			return newError(CodeValidation, "user does not hold this tag", map[string]any{"userId": userId, "tagName": tagName})
		}
		if err := tx.UserTag.ClearPrimary(ctx, userId); err != nil {
			return err
		}
		grant.IsPrimary = true
		if err := tx.UserTag.SaveGrant(ctx, grant); err != nil {
			return err
		}
		return audit(ctx, tx, actorId, model.ActionPrimaryTagSet, model.EntityUser, userId,
			map[string]any{"tagId": tag.TagId, "tagName": tag.Name})
	})
	if err != nil {
		return nil, dbError(err)
	}
	return grant, nil
}

// BulkAssignTag assigns one tag to many users in batches.
func (s *TagService) BulkAssignTag(ctx context.Context, tagName string, userIds []string, actorId, reason string) (res *BulkResult[*TagChangeResult], err error) {
	defer recoverInto(&err, "BulkAssignTag")

	items := parallel.Batch(ctx, userIds, s.opts.BatchSize,
		func(ctx context.Context, userId string) BulkItemResult[*TagChangeResult] {
			r, err := s.AssignTagToUser(ctx, AssignTagRequest{UserId: userId, TagName: tagName, ActorId: actorId, Reason: reason})
			if err != nil {
				return BulkItemResult[*TagChangeResult]{UserId: userId, Error: AsError(err)}
			}
			return BulkItemResult[*TagChangeResult]{UserId: userId, Success: true, Data: r}
		})
	res = collectBulk(items)
	log.Infow("bulk tag assign finished", "tag", tagName, "total", len(userIds), "success", res.Success, "failed", res.Failed)
	return res, nil
}

// SyncUserTagsWithDiscord removes every tag role the member currently has and
// re-adds the full active set. Tag roles are replaced wholesale, not diffed.
func (s *TagService) SyncUserTagsWithDiscord(ctx context.Context, userId string) (report *TagSyncReport, err error) {
	defer recoverInto(&err, "SyncUserTagsWithDiscord")
	return s.syncUserTags(ctx, userId, "")
}

func (s *TagService) syncUserTags(ctx context.Context, userId, actorId string) (*TagSyncReport, error) {
	remoteUserId, err := s.remoteUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	tags, err := s.repos.Tag.ListManagedTags(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	tagRoleIds := map[string]model.Tag{}
	tagNames := map[string]model.Tag{}
	for _, t := range tags {
		if t.RemoteRoleId != nil {
			tagRoleIds[*t.RemoteRoleId] = t
		}
		tagNames[guild.NormalizeName(t.Name)] = t
	}

	memberRoles, found, err := s.guild.GetMemberRoles(ctx, remoteUserId)
	s.metrics.RemoteOp("get_member", err)
	if err != nil {
		return nil, withCause(newError(CodeDiscordAccessFailed, "failed to fetch member roles",
			map[string]any{"userId": userId}), err)
	}
	if !found {
		return nil, newError(CodeActorNotPresent, "user is not a member of the guild",
			map[string]any{"userId": userId, "remoteUserId": remoteUserId})
	}

	report := &TagSyncReport{Removed: []string{}, Added: []string{}}
	for _, rr := range memberRoles {
		t, ok := tagRoleIds[rr.ID]
		if !ok {
			t, ok = tagNames[guild.NormalizeName(rr.Name)]
		}
		if !ok {
			continue
		}
		err := s.guild.RemoveMemberRole(ctx, remoteUserId, rr.ID, "tag sync")
		if w := s.remote(ctx, "remove_member_role", err, actorId, model.EntityUser, userId, t.Name, rr.ID); w != nil {
			report.Errors = append(report.Errors, RoleSyncError{Role: t.Name, Op: "remove", Message: w.Message})
			continue
		}
		report.Removed = append(report.Removed, t.Name)
	}

	grants, err := s.repos.UserTag.ListActiveGrantsByUser(ctx, userId)
	if err != nil {
		return report, dbError(err)
	}
	for _, g := range grants {
		tag, err := s.repos.Tag.GetTag(ctx, g.TagId)
		if err != nil || tag.IsArchived {
			continue
		}
		remoteRoleId, err := s.tagRoleId(ctx, tag, actorId)
		if err == nil {
			err = s.guild.AddMemberRole(ctx, remoteUserId, remoteRoleId, "tag sync")
			s.remote(ctx, "add_member_role", err, actorId, model.EntityUser, userId, tag.Name, remoteRoleId)
		}
		if err != nil {
			report.Errors = append(report.Errors, RoleSyncError{Role: tag.Name, Op: "add", Message: err.Error()})
			continue
		}
		report.Added = append(report.Added, tag.Name)
	}

	log.Infow("member tag roles replaced", "userId", userId, "removed", len(report.Removed),
		"added", len(report.Added), "errors", len(report.Errors))
	return report, nil
}

// GetUserTags returns the user's active tags, primary first.
func (s *TagService) GetUserTags(ctx context.Context, userId string) (tags []UserTag, err error) {
	defer recoverInto(&err, "GetUserTags")

	grants, err := s.repos.UserTag.ListActiveGrantsByUser(ctx, userId)
	if err != nil {
		return nil, dbError(err)
	}
	tags = []UserTag{}
	for _, g := range grants {
		tag, err := s.repos.Tag.GetTag(ctx, g.TagId)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			return nil, dbError(err)
		}
		item := UserTag{Tag: *tag, IsPrimary: g.IsPrimary, Grant: g.GrantState}
		if g.IsPrimary {
			tags = append([]UserTag{item}, tags...)
			continue
		}
		tags = append(tags, item)
	}
	return tags, nil
}

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

// RoleSyncService grants and revokes roles locally and reconciles the
// member's guild roles against the active grants.
type RoleSyncService struct {
	engine
}

type ApplyRolesRequest struct {
	UserId         string   `json:"userId"`
	RoleNames      []string `json:"roleNames"`
	GrantedBy      string   `json:"grantedBy"`
	Reason         string   `json:"reason"`
	SkipRemoteSync bool     `json:"skipRemoteSync"`
	SystemGranted  bool     `json:"systemGranted"`
}

type ApplyRolesResult struct {
	AppliedRoles []string      `json:"appliedRoles"`
	SkippedRoles []string      `json:"skippedRoles"`
	Sync         *SyncReport   `json:"sync,omitempty"`
	SyncWarnings []SyncWarning `json:"syncWarnings,omitempty"`
}

type RemoveRolesRequest struct {
	UserId         string   `json:"userId"`
	RoleNames      []string `json:"roleNames"`
	RevokedBy      string   `json:"revokedBy"`
	Reason         string   `json:"reason"`
	SkipRemoteSync bool     `json:"skipRemoteSync"`
}

type RemoveRolesResult struct {
	RevokedRoles []string      `json:"revokedRoles"`
	SkippedRoles []string      `json:"skippedRoles"`
	Sync         *SyncReport   `json:"sync,omitempty"`
	SyncWarnings []SyncWarning `json:"syncWarnings,omitempty"`
}

// RoleSyncError is one failed add or remove during reconciliation.
type RoleSyncError struct {
	Role    string `json:"role"`
	Op      string `json:"op"`
	Message string `json:"message"`
}

// SyncReport is the outcome of one reconciliation pass.
type SyncReport struct {
	Added        []string        `json:"added"`
	Removed      []string        `json:"removed"`
	Errors       []RoleSyncError `json:"errors,omitempty"`
	ActorMissing bool            `json:"actorMissing"`
}

func newSyncReport() *SyncReport {
	return &SyncReport{Added: []string{}, Removed: []string{}}
}

// ApplyRolesToUser grants every named role the user does not actively hold.
// Unknown names fail the whole call before anything is written. Remote
// reconciliation runs after commit and never reverts the local grants.
func (s *RoleSyncService) ApplyRolesToUser(ctx context.Context, req ApplyRolesRequest) (res *ApplyRolesResult, err error) {
	defer recoverInto(&err, "ApplyRolesToUser")

	names := uniqueNames(req.RoleNames)
	if req.UserId == "" || len(names) == 0 {
		return nil, validation("userId and at least one role name are required")
	}
	if _, err := s.repos.User.GetUser(ctx, req.UserId); err != nil {
		return nil, lookupError(err, notFound("user", req.UserId))
	}
	roles, err := s.resolveRoles(ctx, names)
	if err != nil {
		return nil, err
	}

	res = &ApplyRolesResult{AppliedRoles: []string{}, SkippedRoles: []string{}}
	in := ledger.GrantInput{At: s.now(), By: optional(req.GrantedBy), Reason: req.Reason}
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		// reset so a failed attempt leaves no partial lists behind
		res.AppliedRoles, res.SkippedRoles = []string{}, []string{}
		for _, role := range roles {
			// holds off a concurrent ArchiveRole until commit
			locked, err := tx.Role.GetRoleForUpdate(ctx, role.RoleId)
			if err != nil {
				return err
			}
			if locked.IsArchived {
				return archived("role", role.RoleId)
			}
			existing, err := tx.UserRole.GetGrant(ctx, req.UserId, role.RoleId)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			var state *model.GrantState
			if existing != nil {
				state = &existing.GrantState
			}
			next, transition := ledger.Grant(state, in)
			if !transition.Changed() {
				res.SkippedRoles = append(res.SkippedRoles, role.Name)
				continue
			}
			if existing == nil {
				existing = &model.UserRoleGrant{GrantId: id.GetUUID(), UserId: req.UserId, RoleId: role.RoleId}
			}
			existing.GrantState = next
			existing.IsSystemGranted = req.SystemGranted
			if err := tx.UserRole.SaveGrant(ctx, existing); err != nil {
				return err
			}
			if err := audit(ctx, tx, req.GrantedBy, model.ActionRoleGranted, model.EntityUser, req.UserId, map[string]any{
				"roleId": role.RoleId, "roleName": role.Name,
				"transition": transition.String(), "reason": req.Reason,
			}); err != nil {
				return err
			}
			res.AppliedRoles = append(res.AppliedRoles, role.Name)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}
	log.Infow("roles applied", "userId", req.UserId, "applied", res.AppliedRoles, "skipped", res.SkippedRoles)

	if !req.SkipRemoteSync {
		res.Sync, res.SyncWarnings = s.syncAfterWrite(ctx, req.UserId, req.GrantedBy)
	}
	return res, nil
}

// RemoveRolesFromUser revokes the named roles the user actively holds. Names
// the user does not hold, including unknown ones, are skipped.
func (s *RoleSyncService) RemoveRolesFromUser(ctx context.Context, req RemoveRolesRequest) (res *RemoveRolesResult, err error) {
	defer recoverInto(&err, "RemoveRolesFromUser")

	names := uniqueNames(req.RoleNames)
	if req.UserId == "" || len(names) == 0 {
		return nil, validation("userId and at least one role name are required")
	}
	roles, err := s.repos.Role.GetActiveRolesByNames(ctx, names)
	if err != nil {
		return nil, dbError(err)
	}
	byName := make(map[string]model.Role, len(roles))
	for _, r := range roles {
		byName[model.FoldName(r.Name)] = r
	}

	res = &RemoveRolesResult{RevokedRoles: []string{}, SkippedRoles: []string{}}
	in := ledger.RevokeInput{At: s.now(), By: optional(req.RevokedBy), Reason: req.Reason}
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		res.RevokedRoles, res.SkippedRoles = []string{}, []string{}
		for _, name := range names {
			role, ok := byName[model.FoldName(name)]
			if !ok {
				res.SkippedRoles = append(res.SkippedRoles, name)
				continue
			}
			existing, err := tx.UserRole.GetGrant(ctx, req.UserId, role.RoleId)
			if errors.Is(err, repo.ErrNotFound) {
				res.SkippedRoles = append(res.SkippedRoles, name)
				continue
			}
			if err != nil {
				return err
			}
			next, transition := ledger.Revoke(&existing.GrantState, in)
			if !transition.Changed() {
				res.SkippedRoles = append(res.SkippedRoles, name)
				continue
			}
			existing.GrantState = next
			if err := tx.UserRole.SaveGrant(ctx, existing); err != nil {
				return err
			}
			if err := audit(ctx, tx, req.RevokedBy, model.ActionRoleRevoked, model.EntityUser, req.UserId, map[string]any{
				"roleId": role.RoleId, "roleName": role.Name, "reason": req.Reason,
			}); err != nil {
				return err
			}
			res.RevokedRoles = append(res.RevokedRoles, name)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err)
	}
	log.Infow("roles revoked", "userId", req.UserId, "revoked", res.RevokedRoles, "skipped", res.SkippedRoles)

	if !req.SkipRemoteSync {
		res.Sync, res.SyncWarnings = s.syncAfterWrite(ctx, req.UserId, req.RevokedBy)
	}
	return res, nil
}

// syncAfterWrite reconciles and folds every failure into warnings.
func (s *RoleSyncService) syncAfterWrite(ctx context.Context, userId, actorId string) (*SyncReport, []SyncWarning) {
	report, err := s.reconcile(ctx, userId, actorId)
	var warnings []SyncWarning
	if err != nil {
		e := AsError(err)
		log.Warnw("role reconciliation skipped", "userId", userId, "code", e.Code, "error", err)
		warnings = append(warnings, SyncWarning{Op: "reconcile", Target: userId, Message: e.Error()})
	}
	if report != nil {
		for _, se := range report.Errors {
			warnings = append(warnings, SyncWarning{Op: se.Op, Target: se.Role, Message: se.Message})
		}
	}
	return report, warnings
}

// resolveRoles looks names up case-insensitively and keeps the request order.
func (s *RoleSyncService) resolveRoles(ctx context.Context, names []string) ([]model.Role, error) {
	roles, err := s.repos.Role.GetActiveRolesByNames(ctx, names)
	if err != nil {
		return nil, dbError(err)
	}
	byName := make(map[string]model.Role, len(roles))
	for _, r := range roles {
		byName[model.FoldName(r.Name)] = r
	}
	ordered := make([]model.Role, 0, len(names))
	var missing []string
	for _, n := range names {
		r, ok := byName[model.FoldName(n)]
		if !ok {
			missing = append(missing, n)
			continue
		}
		ordered = append(ordered, r)
	}
	if len(missing) > 0 {
		return nil, namesNotFound("role", missing)
	}
	return ordered, nil
}

// ReconcileMemberRoles diffs the user's active managed roles against the
// member's guild roles and applies adds, then removes. A second call with
// unchanged local state performs no remote mutation. A user who is not a
// guild member yields ACTOR_NOT_PRESENT together with the report.
func (s *RoleSyncService) ReconcileMemberRoles(ctx context.Context, userId string) (report *SyncReport, err error) {
	defer recoverInto(&err, "ReconcileMemberRoles")
	return s.reconcile(ctx, userId, "")
}

func (s *RoleSyncService) reconcile(ctx context.Context, userId, actorId string) (*SyncReport, error) {
	remoteUserId, err := s.remoteUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	managed, err := s.repos.Role.ListManagedRoles(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	// roles with a stored guild id match by id only; the rest by folded name
	byRemoteId := map[string]model.Role{}
	byName := map[string]model.Role{}
	for _, r := range managed {
		if r.RemoteRoleId != nil && *r.RemoteRoleId != "" {
			byRemoteId[*r.RemoteRoleId] = r
			continue
		}
		byName[guild.NormalizeName(r.Name)] = r
	}

	grants, err := s.repos.UserRole.ListActiveGrantsByUser(ctx, userId)
	if err != nil {
		return nil, dbError(err)
	}
	desired := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		desired[g.RoleId] = struct{}{}
	}

	report := newSyncReport()
	memberRoles, found, err := s.guild.GetMemberRoles(ctx, remoteUserId)
	s.metrics.RemoteOp("get_member", err)
	if err != nil {
		log.Warnw("failed to fetch member roles", "userId", userId, "remoteUserId", remoteUserId, "error", err)
		return nil, withCause(newError(CodeDiscordAccessFailed, "failed to fetch member roles",
			map[string]any{"userId": userId}), err)
	}
	if !found {
		report.ActorMissing = true
		log.Warnw("user is not a guild member", "userId", userId, "remoteUserId", remoteUserId)
		return report, newError(CodeActorNotPresent, "user is not a member of the guild",
			map[string]any{"userId": userId, "remoteUserId": remoteUserId})
	}

	// local role id -> guild role id the member carries
	current := map[string]string{}
	for _, rr := range memberRoles {
		if rr.Managed || guild.NormalizeName(rr.Name) == "@everyone" {
			continue
		}
		if r, ok := byRemoteId[rr.ID]; ok {
			if guild.NormalizeName(rr.Name) != guild.NormalizeName(r.Name) {
				log.Warnw("guild role name drifted from catalog", "roleId", r.RoleId,
					"name", r.Name, "remoteRoleId", rr.ID, "remoteName", rr.Name)
			}
			current[r.RoleId] = rr.ID
			continue
		}
		if r, ok := byName[guild.NormalizeName(rr.Name)]; ok {
			current[r.RoleId] = rr.ID
		}
	}

	// managed is in catalog order, which keeps the report stable
	for _, role := range managed {
		if _, ok := desired[role.RoleId]; !ok {
			continue
		}
		if _, ok := current[role.RoleId]; ok {
			continue
		}
		remoteRoleId, err := s.remoteRoleId(ctx, &role, actorId)
		if err == nil {
			err = s.guild.AddMemberRole(ctx, remoteUserId, remoteRoleId, "role granted")
			s.remote(ctx, "add_member_role", err, actorId, model.EntityUser, userId, role.Name, remoteRoleId)
		}
		if err != nil {
			report.Errors = append(report.Errors, RoleSyncError{Role: role.Name, Op: "add", Message: err.Error()})
			continue
		}
		report.Added = append(report.Added, role.Name)
	}
	for _, role := range managed {
		remoteRoleId, ok := current[role.RoleId]
		if !ok {
			continue
		}
		if _, ok := desired[role.RoleId]; ok {
			continue
		}
		err := s.guild.RemoveMemberRole(ctx, remoteUserId, remoteRoleId, "role revoked")
		if w := s.remote(ctx, "remove_member_role", err, actorId, model.EntityUser, userId, role.Name, remoteRoleId); w != nil {
			report.Errors = append(report.Errors, RoleSyncError{Role: role.Name, Op: "remove", Message: w.Message})
			continue
		}
		report.Removed = append(report.Removed, role.Name)
	}

	log.Infow("member roles reconciled", "userId", userId, "added", report.Added,
		"removed", report.Removed, "errors", len(report.Errors))
	return report, nil
}

// remoteRoleId returns the stored guild role id, ensuring and storing it when absent.
func (s *RoleSyncService) remoteRoleId(ctx context.Context, role *model.Role, actorId string) (string, error) {
	if role.RemoteRoleId != nil && *role.RemoteRoleId != "" {
		return *role.RemoteRoleId, nil
	}
	remoteId, err := s.guild.EnsureRole(ctx, guild.RoleSpec{Name: role.Name, Color: role.Color, Mentionable: true}, "role sync")
	if w := s.remote(ctx, "ensure_role", err, actorId, model.EntityRole, role.RoleId, role.Name, ""); w != nil {
		return "", err
	}
	role.RemoteRoleId = &remoteId
	if err := s.repos.Role.SaveRole(ctx, role); err != nil {
		log.Errorw("failed to store remote role id", "roleId", role.RoleId, "remoteRoleId", remoteId, "error", err)
	}
	return remoteId, nil
}

type RoleAssignment struct {
	UserId         string   `json:"userId"`
	RoleNames      []string `json:"roleNames"`
	GrantedBy      string   `json:"grantedBy"`
	Reason         string   `json:"reason"`
	SkipRemoteSync bool     `json:"skipRemoteSync"`
}

type BulkItemResult[T any] struct {
	UserId  string `json:"userId"`
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type BulkItemError struct {
	Index  int    `json:"index"`
	UserId string `json:"userId"`
	Error  *Error `json:"error"`
}

// BulkResult aggregates per-item outcomes; one failure never aborts the rest.
type BulkResult[T any] struct {
	Success int                 `json:"success"`
	Failed  int                 `json:"failed"`
	Results []BulkItemResult[T] `json:"results"`
	Errors  []BulkItemError     `json:"errors"`
}

func collectBulk[T any](items []BulkItemResult[T]) *BulkResult[T] {
	out := &BulkResult[T]{Results: items, Errors: []BulkItemError{}}
	for i, item := range items {
		if item.Success {
			out.Success++
			continue
		}
		out.Failed++
		out.Errors = append(out.Errors, BulkItemError{Index: i, UserId: item.UserId, Error: item.Error})
	}
	return out
}

// BulkApplyRoles applies assignments in batches: concurrent inside a batch,
// sequential across batches.
func (s *RoleSyncService) BulkApplyRoles(ctx context.Context, assignments []RoleAssignment) (res *BulkResult[*ApplyRolesResult], err error) {
	defer recoverInto(&err, "BulkApplyRoles")

	items := parallel.Batch(ctx, assignments, s.opts.BatchSize,
		func(ctx context.Context, a RoleAssignment) BulkItemResult[*ApplyRolesResult] {
			r, err := s.ApplyRolesToUser(ctx, ApplyRolesRequest{
				UserId:         a.UserId,
				RoleNames:      a.RoleNames,
				GrantedBy:      a.GrantedBy,
				Reason:         a.Reason,
				SkipRemoteSync: a.SkipRemoteSync,
			})
			if err != nil {
				return BulkItemResult[*ApplyRolesResult]{UserId: a.UserId, Error: AsError(err)}
			}
			return BulkItemResult[*ApplyRolesResult]{UserId: a.UserId, Success: true, Data: r}
		})
	res = collectBulk(items)
	log.Infow("bulk role apply finished", "total", len(assignments), "success", res.Success, "failed", res.Failed)
	return res, nil
}

// AssignNewbieRole grants the configured newbie role. A missing role yields
// NEWBIE_ROLE_NOT_CONFIGURED so the caller can decide how fatal that is.
func (s *RoleSyncService) AssignNewbieRole(ctx context.Context, userId string) (res *ApplyRolesResult, err error) {
	defer recoverInto(&err, "AssignNewbieRole")

	name := s.opts.NewbieRoleName
	if _, err := s.repos.Role.GetActiveRoleByName(ctx, name); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(CodeNewbieRoleNotConfigured, "newbie role is not configured", map[string]any{"roleName": name})
		}
		return nil, dbError(err)
	}
	return s.ApplyRolesToUser(ctx, ApplyRolesRequest{
		UserId:        userId,
		RoleNames:     []string{name},
		Reason:        "newbie auto-assignment",
		SystemGranted: true,
	})
}

// GetUserRoles returns the roles the user actively holds.
func (s *RoleSyncService) GetUserRoles(ctx context.Context, userId string) (roles []model.Role, err error) {
	defer recoverInto(&err, "GetUserRoles")

	grants, err := s.repos.UserRole.ListActiveGrantsByUser(ctx, userId)
	if err != nil {
		return nil, dbError(err)
	}
	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.RoleId)
	}
	roles, err = s.repos.Role.ListRolesByIds(ctx, ids)
	if err != nil {
		return nil, dbError(err)
	}
	if roles == nil {
		roles = []model.Role{}
	}
	return roles, nil
}

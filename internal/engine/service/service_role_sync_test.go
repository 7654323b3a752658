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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arcade/guildsync/internal/engine/model"
)

func TestApplyRoles_GrantsAndReconciles(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.role(t, "Mentor")
	e.role(t, "Speaker")
	remote := e.member(t, "u1")

	res, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{
		UserId: "u1", RoleNames: []string{"Mentor", "Speaker", "Mentor"}, GrantedBy: "admin", Reason: "promotion",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mentor", "Speaker"}, res.AppliedRoles)
	assert.Empty(t, res.SkippedRoles)
	require.NotNil(t, res.Sync)
	assert.ElementsMatch(t, []string{"Mentor", "Speaker"}, res.Sync.Added)
	assert.Empty(t, res.SyncWarnings)
	assert.Equal(t, []string{"Mentor", "Speaker"}, e.guild.memberRoleNames(remote))
	assert.Len(t, e.logs(model.ActionRoleGranted), 2)
}

func TestApplyRoles_Idempotent(t *testing.T) {
	e := newTestEnv(t, Options{})
	role := e.role(t, "Mentor")
	e.member(t, "u1")

	_, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}})
	require.NoError(t, err)
	e.guild.resetCalls()

	res, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}})
	require.NoError(t, err)
	assert.Empty(t, res.AppliedRoles)
	assert.Equal(t, []string{"Mentor"}, res.SkippedRoles)
	assert.Zero(t, e.guild.mutations())
	assert.Equal(t, 1, e.store.CountRoleGrantRows("u1", role.RoleId))
	assert.Len(t, e.logs(model.ActionRoleGranted), 1)
}

func TestApplyRoles_NamesFoldCase(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.role(t, "MENTOR")
	remote := e.member(t, "u1")

	res, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"mentor", "Mentor"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"MENTOR"}, res.AppliedRoles)
	assert.Empty(t, res.SkippedRoles)
	assert.Equal(t, []string{"MENTOR"}, e.guild.memberRoleNames(remote))

	rm, err := e.svc.RoleSync.RemoveRolesFromUser(e.ctx, RemoveRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mentor"}, rm.RevokedRoles)
	assert.Empty(t, e.guild.memberRoleNames(remote))
}

func TestApplyRoles_UnknownNamesWriteNothing(t *testing.T) {
	e := newTestEnv(t, Options{})
	role := e.role(t, "Mentor")
	e.member(t, "u1")

	_, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor", "Ghost", "Phantom"}})
	ae := requireCode(t, err, CodeValidation)
	assert.Equal(t, []string{"Ghost", "Phantom"}, ae.Details["missing"])
	var nf *NamesNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "role", nf.Kind)
	assert.Zero(t, e.store.CountRoleGrantRows("u1", role.RoleId))

	_, err = e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "nobody", RoleNames: []string{"Mentor"}})
	requireCode(t, err, CodeNotFound)

	_, err = e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1"})
	requireCode(t, err, CodeValidation)
}

func TestApplyRoles_RemoteFailureKeepsLocalGrant(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.role(t, "Mentor")
	e.member(t, "u1")
	e.guild.failOn("AddMemberRole", errors.New("rate limited"))

	res, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mentor"}, res.AppliedRoles)
	require.NotNil(t, res.Sync)
	require.Len(t, res.Sync.Errors, 1)
	assert.Equal(t, "add", res.Sync.Errors[0].Op)
	assert.NotEmpty(t, res.SyncWarnings)

	roles, err := e.svc.RoleSync.GetUserRoles(e.ctx, "u1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Mentor", roles[0].Name)
	assert.NotEmpty(t, e.logs(model.ActionRemoteSyncFailed))
}

func TestApplyRoles_SkipRemoteSync(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.role(t, "Mentor")
	e.member(t, "u1")
	e.guild.resetCalls()

	res, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}, SkipRemoteSync: true})
	require.NoError(t, err)
	assert.Nil(t, res.Sync)
	assert.Empty(t, e.guild.calls)
}

func TestRemoveRoles_ReactivationReusesRow(t *testing.T) {
	e := newTestEnv(t, Options{})
	role := e.role(t, "Mentor")
	remote := e.member(t, "u1")

	_, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}})
	require.NoError(t, err)

	rm, err := e.svc.RoleSync.RemoveRolesFromUser(e.ctx, RemoveRolesRequest{UserId: "u1", RoleNames: []string{"Mentor", "Ghost"}, RevokedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mentor"}, rm.RevokedRoles)
	assert.Equal(t, []string{"Ghost"}, rm.SkippedRoles)
	assert.Equal(t, []string{"Mentor"}, rm.Sync.Removed)
	assert.Empty(t, e.guild.memberRoleNames(remote))

	rm, err = e.svc.RoleSync.RemoveRolesFromUser(e.ctx, RemoveRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}})
	require.NoError(t, err)
	assert.Empty(t, rm.RevokedRoles)

	res, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mentor"}, res.AppliedRoles)
	assert.Equal(t, 1, e.store.CountRoleGrantRows("u1", role.RoleId))

	grant, err := e.store.Repositories().UserRole.GetGrant(e.ctx, "u1", role.RoleId)
	require.NoError(t, err)
	assert.True(t, grant.Active())
	assert.Nil(t, grant.RevokedBy)
	assert.Empty(t, grant.RevokeReason)
}

func TestReconcile_ConvergesAndIsIdempotent(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.role(t, "Mentor")
	speaker := e.role(t, "Speaker")
	remote := e.member(t, "u1")

	// the member carries Speaker remotely without a local grant, plus roles we do not manage
	require.NotNil(t, speaker.RemoteRoleId)
	boostId := e.guild.addRole("Nitro Booster", true)
	otherId := e.guild.addRole("Some Bot Role", false)
	e.guild.members[remote] = []string{*speaker.RemoteRoleId, boostId, otherId}

	_, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}, SkipRemoteSync: true})
	require.NoError(t, err)

	report, err := e.svc.RoleSync.ReconcileMemberRoles(e.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mentor"}, report.Added)
	assert.Equal(t, []string{"Speaker"}, report.Removed)
	assert.Equal(t, []string{"Mentor", "Nitro Booster", "Some Bot Role"}, e.guild.memberRoleNames(remote))

	e.guild.resetCalls()
	report, err = e.svc.RoleSync.ReconcileMemberRoles(e.ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, report.Added)
	assert.Empty(t, report.Removed)
	assert.Zero(t, e.guild.mutations())
}

func TestReconcile_MatchesByRemoteIdAfterFailedRename(t *testing.T) {
	e := newTestEnv(t, Options{})
	mentor := e.role(t, "MENTOR")
	remote := e.member(t, "u1")

	_, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"MENTOR"}})
	require.NoError(t, err)

	e.guild.failOn("UpdateRole", errors.New("missing permissions"))
	upd, err := e.svc.Role.UpdateRole(e.ctx, mentor.RoleId, &model.UpdateRoleReq{Name: ptr("GUIDE")}, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, upd.SyncWarnings)
	assert.Equal(t, []string{"MENTOR"}, e.guild.memberRoleNames(remote))

	for range 2 {
		e.guild.resetCalls()
		report, err := e.svc.RoleSync.ReconcileMemberRoles(e.ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, report.Added)
		assert.Empty(t, report.Removed)
		assert.Zero(t, e.guild.mutations())
	}

	rm, err := e.svc.RoleSync.RemoveRolesFromUser(e.ctx, RemoveRolesRequest{UserId: "u1", RoleNames: []string{"GUIDE"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"GUIDE"}, rm.Sync.Removed)
	assert.Empty(t, e.guild.memberRoleNames(remote))
}

func TestReconcile_FallsBackToNameWithoutRemoteId(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.guild.failOn("EnsureRole", errors.New("timeout"))
	role := e.role(t, "Mentor")
	require.Nil(t, role.RemoteRoleId)
	e.guild.failOn("EnsureRole", nil)

	remote := e.member(t, "u1")
	lookalike := e.guild.addRole("mentor", false)
	e.guild.members[remote] = []string{lookalike}

	_, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "u1", RoleNames: []string{"Mentor"}, SkipRemoteSync: true})
	require.NoError(t, err)

	e.guild.resetCalls()
	report, err := e.svc.RoleSync.ReconcileMemberRoles(e.ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, report.Added)
	assert.Empty(t, report.Removed)
	assert.Zero(t, e.guild.mutations())
}

func TestReconcile_ActorNotPresent(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.role(t, "Mentor")
	remote := "d-ghost"
	require.NoError(t, e.store.Repositories().User.CreateUser(e.ctx, &model.User{UserId: "ghost", RemoteUserId: &remote}))

	res, err := e.svc.RoleSync.ApplyRolesToUser(e.ctx, ApplyRolesRequest{UserId: "ghost", RoleNames: []string{"Mentor"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mentor"}, res.AppliedRoles)
	require.NotNil(t, res.Sync)
	assert.True(t, res.Sync.ActorMissing)
	assert.NotEmpty(t, res.SyncWarnings)

	report, err := e.svc.RoleSync.ReconcileMemberRoles(e.ctx, "ghost")
	requireCode(t, err, CodeActorNotPresent)
	require.NotNil(t, report)
	assert.True(t, report.ActorMissing)
	assert.True(t, errors.Is(err, ErrActorNotPresent))
}

func TestReconcile_IdentityAndFetchErrors(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.unlinkedUser(t, "u2")
	_, err := e.svc.RoleSync.ReconcileMemberRoles(e.ctx, "u2")
	requireCode(t, err, CodeRemoteIdentityMissing)

	e.member(t, "u1")
	e.guild.failOn("GetMemberRoles", errors.New("timeout"))
	_, err = e.svc.RoleSync.ReconcileMemberRoles(e.ctx, "u1")
	requireCode(t, err, CodeDiscordAccessFailed)
}

func TestBulkApplyRoles_PartialFailure(t *testing.T) {
	e := newTestEnv(t, Options{BatchSize: 2})
	e.role(t, "Mentor")
	var assignments []RoleAssignment
	for i := range 5 {
		id := fmt.Sprintf("u%d", i)
		e.member(t, id)
		assignments = append(assignments, RoleAssignment{UserId: id, RoleNames: []string{"Mentor"}})
	}
	assignments = append(assignments, RoleAssignment{UserId: "missing", RoleNames: []string{"Mentor"}})

	res, err := e.svc.RoleSync.BulkApplyRoles(e.ctx, assignments)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Success)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 5, res.Errors[0].Index)
	assert.Equal(t, CodeNotFound, res.Errors[0].Error.Code)
	assert.Len(t, res.Results, 6)
	assert.Equal(t, "u0", res.Results[0].UserId)
}

func TestAssignNewbieRole(t *testing.T) {
	e := newTestEnv(t, Options{NewbieRoleName: "Newcomer"})
	e.member(t, "u1")

	_, err := e.svc.RoleSync.AssignNewbieRole(e.ctx, "u1")
	requireCode(t, err, CodeNewbieRoleNotConfigured)

	role := e.role(t, "Newcomer")
	res, err := e.svc.RoleSync.AssignNewbieRole(e.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Newcomer"}, res.AppliedRoles)

	grant, err := e.store.Repositories().UserRole.GetGrant(e.ctx, "u1", role.RoleId)
	require.NoError(t, err)
	assert.True(t, grant.IsSystemGranted)
}

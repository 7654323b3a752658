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
	"context"
	"testing"
	"time"

	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/statemachine"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoleLookups(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	require.NoError(t, repos.Role.CreateRole(ctx, &model.Role{RoleId: "r1", Name: "MENTOR", SortOrder: 2}))
	require.NoError(t, repos.Role.CreateRole(ctx, &model.Role{RoleId: "r2", Name: "ADMIN", IsSystemRole: true}))
	require.NoError(t, repos.Role.CreateRole(ctx, &model.Role{RoleId: "r3", Name: "OLD", IsArchived: true}))

	role, err := repos.Role.GetActiveRoleByName(ctx, "MENTOR")
	require.NoError(t, err)
	assert.Equal(t, "r1", role.RoleId)

	_, err = repos.Role.GetActiveRoleByName(ctx, "OLD")
	assert.True(t, errors.Is(err, repo.ErrNotFound))

	managed, err := repos.Role.ListManagedRoles(ctx)
	require.NoError(t, err)
	require.Len(t, managed, 1)
	assert.Equal(t, "MENTOR", managed[0].Name)

	list, total, err := repos.Role.ListRoles(ctx, &model.RoleFilter{IncludeArchived: true, SortBy: "name"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"ADMIN", "MENTOR", "OLD"}, []string{list[0].Name, list[1].Name, list[2].Name})

	system := false
	list, total, err = repos.Role.ListRoles(ctx, &model.RoleFilter{System: &system, Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Empty(t, list)
}

func TestStore_ActiveNameFoldsCase(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	require.NoError(t, repos.Role.CreateRole(ctx, &model.Role{RoleId: "r1", Name: "MENTOR"}))
	role, err := repos.Role.GetActiveRoleByName(ctx, " mentor ")
	require.NoError(t, err)
	assert.Equal(t, "r1", role.RoleId)

	roles, err := repos.Role.GetActiveRolesByNames(ctx, []string{"Mentor"})
	require.NoError(t, err)
	require.Len(t, roles, 1)

	err = repos.Role.CreateRole(ctx, &model.Role{RoleId: "r2", Name: "Mentor"})
	assert.True(t, errors.Is(err, repo.ErrDuplicate))

	role.IsArchived = true
	require.NoError(t, repos.Role.SaveRole(ctx, role))
	require.NoError(t, repos.Role.CreateRole(ctx, &model.Role{RoleId: "r2", Name: "Mentor"}))

	require.NoError(t, repos.Tag.CreateTag(ctx, &model.Tag{TagId: "t1", Name: "Speaker"}))
	err = repos.Tag.CreateTag(ctx, &model.Tag{TagId: "t2", Name: "SPEAKER"})
	assert.True(t, errors.Is(err, repo.ErrDuplicate))
}

func TestStore_GrantUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	grant := &model.UserRoleGrant{GrantId: "g1", UserId: "u1", RoleId: "r1"}
	require.NoError(t, repos.UserRole.SaveGrant(ctx, grant))
	assert.NotZero(t, grant.ID)

	dup := &model.UserRoleGrant{GrantId: "g2", UserId: "u1", RoleId: "r1"}
	err := repos.UserRole.SaveGrant(ctx, dup)
	assert.True(t, errors.Is(err, repo.ErrDuplicate))

	now := time.Now()
	grant.RevokedAt = &now
	require.NoError(t, repos.UserRole.SaveGrant(ctx, grant))
	assert.Equal(t, 1, store.CountRoleGrantRows("u1", "r1"))

	active, err := repos.UserRole.ListActiveGrantsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	boom := errors.New("boom")
	err := repos.Transaction(ctx, func(tx *repo.Repositories) error {
		require.NoError(t, tx.Role.CreateRole(ctx, &model.Role{RoleId: "r1", Name: "MENTOR"}))
		require.NoError(t, tx.ActivityLog.CreateLog(ctx, &model.ActivityLog{LogId: "l1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Role.GetRole(ctx, "r1")
	assert.True(t, errors.Is(err, repo.ErrNotFound))
	assert.Empty(t, store.Logs())

	require.NoError(t, repos.Transaction(ctx, func(tx *repo.Repositories) error {
		return tx.Role.CreateRole(ctx, &model.Role{RoleId: "r1", Name: "MENTOR"})
	}))
	_, err = repos.Role.GetRole(ctx, "r1")
	assert.NoError(t, err)
}

func TestStore_PrimaryAndVoiceAccess(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	require.NoError(t, repos.UserTag.SaveGrant(ctx, &model.UserTagGrant{GrantId: "a", UserId: "u1", TagId: "t1", IsPrimary: true}))
	require.NoError(t, repos.UserTag.SaveGrant(ctx, &model.UserTagGrant{GrantId: "b", UserId: "u1", TagId: "t2"}))
	require.NoError(t, repos.UserTag.ClearPrimary(ctx, "u1"))
	grants, err := repos.UserTag.ListActiveGrantsByUser(ctx, "u1")
	require.NoError(t, err)
	for _, g := range grants {
		assert.False(t, g.IsPrimary)
	}

	for _, uid := range []string{"u1", "u2"} {
		require.NoError(t, repos.VoiceAccess.SaveAccess(ctx, &model.EventVoiceAccess{
			EventId: "e1", UserId: uid, Status: statemachine.VoiceAccessActive, GrantedAt: time.Now(),
		}))
	}
	n, err := repos.VoiceAccess.CountActiveAccess(ctx, "e1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	revoked, err := repos.VoiceAccess.RevokeAllActive(ctx, "e1", "event_ended", time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 2, revoked)

	access, err := repos.VoiceAccess.GetAccess(ctx, "e1", "u2")
	require.NoError(t, err)
	assert.Equal(t, statemachine.VoiceAccessRevoked, access.Status)
	assert.Equal(t, "event_ended", access.RevokeReason)
	assert.NotNil(t, access.RevokedAt)
}

func TestStore_EventCopiesPrerequisites(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	event := &model.Event{EventId: "e1", PrerequisiteRoles: []string{"MENTOR"}, Status: statemachine.EventScheduled}
	require.NoError(t, repos.Event.CreateEvent(ctx, event))
	event.PrerequisiteRoles[0] = "changed"

	got, err := repos.Event.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"MENTOR"}, got.PrerequisiteRoles)

	scheduled, err := repos.Event.ListEventsByStatus(ctx, statemachine.EventScheduled)
	require.NoError(t, err)
	assert.Len(t, scheduled, 1)
}

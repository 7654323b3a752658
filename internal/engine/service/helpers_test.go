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
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/internal/engine/model"
	"github.com/go-arcade/guildsync/internal/engine/repo/memory"
	"github.com/go-arcade/guildsync/pkg/metrics"
)

// fakeGuild is an in-memory guild that records every call.
type fakeGuild struct {
	mu         sync.Mutex
	seq        int
	roles      map[string]guild.RemoteRole
	members    map[string][]string // remote user -> role ids
	overwrites map[string]bool     // channel/user
	voice      map[string]string   // remote user -> channel
	events     map[string]guild.ScheduledEventStatus
	calls      []string
	fail       map[string]error
}

var mutatingOps = []string{
	"EnsureRole.create", "UpdateRole", "DeleteRole", "AddMemberRole", "RemoveMemberRole",
	"CreatePermissionOverwrite", "DeletePermissionOverwrite", "DisconnectMember",
	"CreateTemporaryEventRole", "DeleteTemporaryEventRole", "UpdateScheduledEvent",
}

func newFakeGuild() *fakeGuild {
	return &fakeGuild{
		roles:      map[string]guild.RemoteRole{},
		members:    map[string][]string{},
		overwrites: map[string]bool{},
		voice:      map[string]string{},
		events:     map[string]guild.ScheduledEventStatus{},
		fail:       map[string]error{},
	}
}

func (f *fakeGuild) record(op string) error {
	f.calls = append(f.calls, op)
	return f.fail[op]
}

func (f *fakeGuild) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeGuild) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeGuild) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if slices.Contains(mutatingOps, c) {
			n++
		}
	}
	return n
}

func (f *fakeGuild) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// join makes the remote user a guild member.
func (f *fakeGuild) join(remoteUserId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.members[remoteUserId]; !ok {
		f.members[remoteUserId] = []string{}
	}
}

// addRole puts a role on the guild without going through EnsureRole.
func (f *fakeGuild) addRole(name string, managed bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("r%d", f.seq)
	f.roles[id] = guild.RemoteRole{ID: id, Name: name, Managed: managed}
	return id
}

func (f *fakeGuild) memberRoleNames(remoteUserId string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, id := range f.members[remoteUserId] {
		out = append(out, f.roles[id].Name)
	}
	slices.Sort(out)
	return out
}

func (f *fakeGuild) hasOverwrite(channelId, remoteUserId string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overwrites[channelId+"/"+remoteUserId]
}

func (f *fakeGuild) EnsureRole(_ context.Context, spec guild.RoleSpec, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureRole"); err != nil {
		return "", err
	}
	for _, r := range f.roles {
		if guild.NormalizeName(r.Name) == guild.NormalizeName(spec.Name) {
			return r.ID, nil
		}
	}
	f.calls = append(f.calls, "EnsureRole.create")
	f.seq++
	id := fmt.Sprintf("r%d", f.seq)
	f.roles[id] = guild.RemoteRole{ID: id, Name: spec.Name}
	return id, nil
}

func (f *fakeGuild) UpdateRole(_ context.Context, remoteRoleID string, patch guild.RolePatch, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateRole"); err != nil {
		return err
	}
	r, ok := f.roles[remoteRoleID]
	if !ok {
		return guild.ErrNotFound
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	f.roles[remoteRoleID] = r
	return nil
}

func (f *fakeGuild) DeleteRole(_ context.Context, remoteRoleID string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteRole"); err != nil {
		return err
	}
	delete(f.roles, remoteRoleID)
	return nil
}

func (f *fakeGuild) AddMemberRole(_ context.Context, remoteUserID, remoteRoleID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddMemberRole"); err != nil {
		return err
	}
	if _, ok := f.members[remoteUserID]; !ok {
		return guild.ErrNotFound
	}
	if !slices.Contains(f.members[remoteUserID], remoteRoleID) {
		f.members[remoteUserID] = append(f.members[remoteUserID], remoteRoleID)
	}
	return nil
}

func (f *fakeGuild) RemoveMemberRole(_ context.Context, remoteUserID, remoteRoleID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RemoveMemberRole"); err != nil {
		return err
	}
	f.members[remoteUserID] = slices.DeleteFunc(f.members[remoteUserID], func(id string) bool { return id == remoteRoleID })
	return nil
}

func (f *fakeGuild) GetMemberRoles(_ context.Context, remoteUserID string) ([]guild.RemoteRole, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetMemberRoles"); err != nil {
		return nil, false, err
	}
	ids, ok := f.members[remoteUserID]
	if !ok {
		return nil, false, nil
	}
	out := make([]guild.RemoteRole, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.roles[id])
	}
	return out, true, nil
}

func (f *fakeGuild) CreatePermissionOverwrite(_ context.Context, channelID, remoteUserID string, allow, deny guild.Permission, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreatePermissionOverwrite"); err != nil {
		return err
	}
	if allow != guild.VoiceAllow || deny != guild.VoiceDeny {
		return fmt.Errorf("unexpected permissions %s/%s", allow, deny)
	}
	f.overwrites[channelID+"/"+remoteUserID] = true
	return nil
}

func (f *fakeGuild) DeletePermissionOverwrite(_ context.Context, channelID, remoteUserID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeletePermissionOverwrite"); err != nil {
		return err
	}
	delete(f.overwrites, channelID+"/"+remoteUserID)
	return nil
}

func (f *fakeGuild) DisconnectMember(_ context.Context, remoteUserID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DisconnectMember"); err != nil {
		return err
	}
	delete(f.voice, remoteUserID)
	return nil
}

func (f *fakeGuild) GetMemberVoiceChannel(_ context.Context, remoteUserID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetMemberVoiceChannel"); err != nil {
		return "", err
	}
	return f.voice[remoteUserID], nil
}

func (f *fakeGuild) CreateTemporaryEventRole(_ context.Context, title, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateTemporaryEventRole"); err != nil {
		return "", err
	}
	f.seq++
	id := fmt.Sprintf("r%d", f.seq)
	f.roles[id] = guild.RemoteRole{ID: id, Name: "Event: " + title}
	return id, nil
}

func (f *fakeGuild) DeleteTemporaryEventRole(_ context.Context, remoteRoleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteTemporaryEventRole"); err != nil {
		return err
	}
	delete(f.roles, remoteRoleID)
	return nil
}

func (f *fakeGuild) UpdateScheduledEvent(_ context.Context, remoteEventID string, patch guild.ScheduledEventPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateScheduledEvent"); err != nil {
		return err
	}
	if patch.Status != nil {
		f.events[remoteEventID] = *patch.Status
	}
	return nil
}

type testEnv struct {
	ctx   context.Context
	store *memory.Store
	guild *fakeGuild
	svc   *Services
	now   time.Time
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	e := &testEnv{
		ctx:   context.Background(),
		store: memory.NewStore(),
		guild: newFakeGuild(),
		now:   time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
	}
	e.svc = NewServices(e.store.Repositories(), e.guild, metrics.NewSyncCollector(), opts)
	clock := func() time.Time { return e.now }
	e.svc.Role.now = clock
	e.svc.RoleSync.now = clock
	e.svc.Tag.now = clock
	e.svc.Event.now = clock
	e.svc.EventAccess.now = clock
	e.svc.EventAccess.events.now = clock
	return e
}

// member creates a linked user who is also a guild member.
func (e *testEnv) member(t *testing.T, userId string) string {
	t.Helper()
	remote := "d-" + userId
	require.NoError(t, e.store.Repositories().User.CreateUser(e.ctx, &model.User{UserId: userId, Username: userId, RemoteUserId: &remote}))
	e.guild.join(remote)
	return remote
}

func (e *testEnv) unlinkedUser(t *testing.T, userId string) {
	t.Helper()
	require.NoError(t, e.store.Repositories().User.CreateUser(e.ctx, &model.User{UserId: userId, Username: userId}))
}

func (e *testEnv) role(t *testing.T, name string) *model.Role {
	t.Helper()
	res, err := e.svc.Role.CreateRole(e.ctx, &model.CreateRoleReq{Name: name}, "admin")
	require.NoError(t, err)
	return res.Role
}

func (e *testEnv) tag(t *testing.T, name string) *model.Tag {
	t.Helper()
	res, err := e.svc.Tag.CreateTag(e.ctx, &model.CreateTagReq{Name: name}, "admin")
	require.NoError(t, err)
	return res.Tag
}

func (e *testEnv) logs(action model.ActivityAction) []model.ActivityLog {
	var out []model.ActivityLog
	for _, l := range e.store.Logs() {
		if l.Action == action {
			out = append(out, l)
		}
	}
	return out
}

func requireCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	require.Error(t, err)
	e := AsError(err)
	require.Equal(t, code, e.Code, "error: %v", err)
	return e
}

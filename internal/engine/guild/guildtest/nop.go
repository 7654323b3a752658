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

// Package guildtest provides a guild.Adapter for tests outside the engine.
package guildtest

import (
	"context"
	"sync"

	"github.com/go-arcade/guildsync/internal/engine/guild"
)

var _ guild.Adapter = (*Nop)(nil)

// Nop accepts every call and counts them by method name. Every user is a
// guild member holding no roles.
type Nop struct {
	mu    sync.Mutex
	calls map[string]int
}

func (n *Nop) record(op string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = map[string]int{}
	}
	n.calls[op]++
}

// Calls returns how many times op was invoked.
func (n *Nop) Calls(op string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[op]
}

func (n *Nop) EnsureRole(_ context.Context, spec guild.RoleSpec, _ string) (string, error) {
	n.record("EnsureRole")
	return "r-" + guild.NormalizeName(spec.Name), nil
}

func (n *Nop) UpdateRole(context.Context, string, guild.RolePatch, string) error {
	n.record("UpdateRole")
	return nil
}

func (n *Nop) DeleteRole(context.Context, string, string) error {
	n.record("DeleteRole")
	return nil
}

func (n *Nop) AddMemberRole(context.Context, string, string, string) error {
	n.record("AddMemberRole")
	return nil
}

func (n *Nop) RemoveMemberRole(context.Context, string, string, string) error {
	n.record("RemoveMemberRole")
	return nil
}

func (n *Nop) GetMemberRoles(context.Context, string) ([]guild.RemoteRole, bool, error) {
	n.record("GetMemberRoles")
	return nil, true, nil
}

func (n *Nop) CreatePermissionOverwrite(context.Context, string, string, guild.Permission, guild.Permission, string) error {
	n.record("CreatePermissionOverwrite")
	return nil
}

func (n *Nop) DeletePermissionOverwrite(context.Context, string, string, string) error {
	n.record("DeletePermissionOverwrite")
	return nil
}

func (n *Nop) DisconnectMember(context.Context, string, string) error {
	n.record("DisconnectMember")
	return nil
}

func (n *Nop) GetMemberVoiceChannel(context.Context, string) (string, error) {
	n.record("GetMemberVoiceChannel")
	return "", nil
}

func (n *Nop) CreateTemporaryEventRole(context.Context, string, string) (string, error) {
	n.record("CreateTemporaryEventRole")
	return "", nil
}

func (n *Nop) DeleteTemporaryEventRole(context.Context, string) error {
	n.record("DeleteTemporaryEventRole")
	return nil
}

func (n *Nop) UpdateScheduledEvent(context.Context, string, guild.ScheduledEventPatch) error {
	n.record("UpdateScheduledEvent")
	return nil
}

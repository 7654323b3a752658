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

package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/go-arcade/guildsync/internal/engine/guild"
	"github.com/go-arcade/guildsync/pkg/log"
)

var _ guild.Adapter = (*Client)(nil)

const maxRoleName = 100

type apiRole struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Permissions string `json:"permissions"`
	Managed     bool   `json:"managed"`
}

type apiMember struct {
	Roles []string `json:"roles"`
}

type apiVoiceState struct {
	ChannelId *string `json:"channel_id"`
}

type roleBody struct {
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Permissions string `json:"permissions"`
	Hoist       bool   `json:"hoist"`
	Mentionable bool   `json:"mentionable"`
}

type overwriteBody struct {
	Allow string `json:"allow"`
	Deny  string `json:"deny"`
	Type  int    `json:"type"`
}

const overwriteMember = 1

func (c *Client) guildPath(format string, args ...any) string {
	return "/guilds/" + c.cfg.GuildId + fmt.Sprintf(format, args...)
}

func (c *Client) fetchRoles(ctx context.Context) ([]apiRole, error) {
	var roles []apiRole
	if err := c.call(ctx, http.MethodGet, c.guildPath("/roles"), nil, &roles, ""); err != nil {
		return nil, err
	}
	return roles, nil
}

func (c *Client) invalidateRoles(ctx context.Context) {
	_ = c.roles.Invalidate(ctx)
}

func (c *Client) EnsureRole(ctx context.Context, spec guild.RoleSpec, reason string) (string, error) {
	roles, err := c.roles.Get(ctx)
	if err != nil {
		return "", err
	}
	want := guild.NormalizeName(spec.Name)
	for _, r := range roles {
		if guild.NormalizeName(r.Name) == want {
			return r.ID, nil
		}
	}

	var created apiRole
	body := roleBody{
		Name:        truncate(spec.Name, maxRoleName),
		Color:       spec.Color,
		Permissions: spec.Permissions.String(),
		Hoist:       spec.Hoist,
		Mentionable: spec.Mentionable,
	}
	if err := c.call(ctx, http.MethodPost, c.guildPath("/roles"), body, &created, reason); err != nil {
		return "", err
	}
	c.invalidateRoles(ctx)
	log.Infow("discord role created", "name", spec.Name, "roleId", created.ID)
	return created.ID, nil
}

func (c *Client) UpdateRole(ctx context.Context, remoteRoleID string, patch guild.RolePatch, reason string) error {
	body := map[string]any{}
	if patch.Name != nil {
		body["name"] = truncate(*patch.Name, maxRoleName)
	}
	if patch.Color != nil {
		body["color"] = *patch.Color
	}
	if len(body) == 0 {
		return nil
	}
	if err := c.call(ctx, http.MethodPatch, c.guildPath("/roles/%s", remoteRoleID), body, nil, reason); err != nil {
		return err
	}
	c.invalidateRoles(ctx)
	return nil
}

func (c *Client) DeleteRole(ctx context.Context, remoteRoleID string, reason string) error {
	err := c.call(ctx, http.MethodDelete, c.guildPath("/roles/%s", remoteRoleID), nil, nil, reason)
	c.invalidateRoles(ctx)
	return err
}

func (c *Client) AddMemberRole(ctx context.Context, remoteUserID, remoteRoleID, reason string) error {
	return c.call(ctx, http.MethodPut, c.guildPath("/members/%s/roles/%s", remoteUserID, remoteRoleID), nil, nil, reason)
}

func (c *Client) RemoveMemberRole(ctx context.Context, remoteUserID, remoteRoleID, reason string) error {
	return c.call(ctx, http.MethodDelete, c.guildPath("/members/%s/roles/%s", remoteUserID, remoteRoleID), nil, nil, reason)
}

// GetMemberRoles resolves the member's role ids against the role catalog. The
// catalog is reloaded once when it does not know one of the ids.
func (c *Client) GetMemberRoles(ctx context.Context, remoteUserID string) ([]guild.RemoteRole, bool, error) {
	var member apiMember
	err := c.call(ctx, http.MethodGet, c.guildPath("/members/%s", remoteUserID), nil, &member, "")
	if errors.Is(err, guild.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	catalog, err := c.roles.Get(ctx)
	if err != nil {
		return nil, true, err
	}
	out, complete := resolveRoles(member.Roles, catalog)
	if !complete {
		c.invalidateRoles(ctx)
		if catalog, err = c.roles.Get(ctx); err != nil {
			return nil, true, err
		}
		out, _ = resolveRoles(member.Roles, catalog)
	}
	return out, true, nil
}

func resolveRoles(ids []string, catalog []apiRole) ([]guild.RemoteRole, bool) {
	byId := make(map[string]apiRole, len(catalog))
	for _, r := range catalog {
		byId[r.ID] = r
	}
	out := make([]guild.RemoteRole, 0, len(ids))
	complete := true
	for _, id := range ids {
		r, ok := byId[id]
		if !ok {
			complete = false
			continue
		}
		out = append(out, guild.RemoteRole{ID: r.ID, Name: r.Name, Managed: r.Managed})
	}
	return out, complete
}

func (c *Client) CreatePermissionOverwrite(ctx context.Context, channelID, remoteUserID string, allow, deny guild.Permission, reason string) error {
	body := overwriteBody{Allow: allow.String(), Deny: deny.String(), Type: overwriteMember}
	return c.call(ctx, http.MethodPut, fmt.Sprintf("/channels/%s/permissions/%s", channelID, remoteUserID), body, nil, reason)
}

// DeletePermissionOverwrite treats a missing overwrite as already deleted.
func (c *Client) DeletePermissionOverwrite(ctx context.Context, channelID, remoteUserID, reason string) error {
	err := c.call(ctx, http.MethodDelete, fmt.Sprintf("/channels/%s/permissions/%s", channelID, remoteUserID), nil, nil, reason)
	if errors.Is(err, guild.ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) DisconnectMember(ctx context.Context, remoteUserID, reason string) error {
	body := map[string]any{"channel_id": nil}
	return c.call(ctx, http.MethodPatch, c.guildPath("/members/%s", remoteUserID), body, nil, reason)
}

func (c *Client) GetMemberVoiceChannel(ctx context.Context, remoteUserID string) (string, error) {
	var state apiVoiceState
	err := c.call(ctx, http.MethodGet, c.guildPath("/voice-states/%s", remoteUserID), nil, &state, "")
	if errors.Is(err, guild.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if state.ChannelId == nil {
		return "", nil
	}
	return *state.ChannelId, nil
}

func (c *Client) CreateTemporaryEventRole(ctx context.Context, title, channelID string) (string, error) {
	name := truncate(c.cfg.TempRolePrefix+title, maxRoleName)
	var created apiRole
	body := roleBody{Name: name, Permissions: "0", Mentionable: true}
	if err := c.call(ctx, http.MethodPost, c.guildPath("/roles"), body, &created, "voice event "+channelID); err != nil {
		return "", err
	}
	c.invalidateRoles(ctx)
	return created.ID, nil
}

func (c *Client) DeleteTemporaryEventRole(ctx context.Context, remoteRoleID string) error {
	err := c.DeleteRole(ctx, remoteRoleID, "voice event ended")
	if errors.Is(err, guild.ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) UpdateScheduledEvent(ctx context.Context, remoteEventID string, patch guild.ScheduledEventPatch) error {
	body := map[string]any{}
	if patch.Name != nil {
		body["name"] = *patch.Name
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.StartTime != nil {
		body["scheduled_start_time"] = *patch.StartTime
	}
	if patch.Status != nil {
		body["status"] = int(*patch.Status)
	}
	if len(body) == 0 {
		return nil
	}
	return c.call(ctx, http.MethodPatch, c.guildPath("/scheduled-events/%s", remoteEventID), body, nil, "")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

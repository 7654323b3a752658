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
// Package guild defines the remote guild capabilities the reconciliation
// engines depend on. Implementations live outside the engine.
package guild

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Permission is a guild permission bit set.
type Permission uint64

const (
	PermissionStream      Permission = 1 << 9
	PermissionViewChannel Permission = 1 << 10
	PermissionConnect     Permission = 1 << 20
	PermissionSpeak       Permission = 1 << 21
	PermissionUseVAD      Permission = 1 << 25
)

// Voice access overwrite: may see, join and talk, may not stream or use
// voice activity detection.
const (
	VoiceAllow = PermissionViewChannel | PermissionConnect | PermissionSpeak
	VoiceDeny  = PermissionStream | PermissionUseVAD
)

// String renders the bit set the way the guild API expects it.
func (p Permission) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// Has reports whether every bit of q is set in p.
func (p Permission) Has(q Permission) bool {
	return p&q == q
}

// ErrNotFound is returned by adapters when a remote object does not exist.
var ErrNotFound = errors.New("remote object not found")

// RoleSpec describes a role to create or find by name.
type RoleSpec struct {
	Name        string
	Color       int
	Permissions Permission
	Hoist       bool
	Mentionable bool
}

// RolePatch updates a remote role. Nil fields are left unchanged.
type RolePatch struct {
	Name  *string
	Color *int
}

// RemoteRole is a role as seen on the guild.
type RemoteRole struct {
	ID      string
	Name    string
	Managed bool
}

// ScheduledEventPatch updates the guild scheduled event mirroring a local event.
type ScheduledEventPatch struct {
	Name        *string
	Description *string
	StartTime   *string // RFC3339
	Status      *ScheduledEventStatus
}

// ScheduledEventStatus is the guild scheduled event status code.
type ScheduledEventStatus int

const (
	ScheduledEventScheduled ScheduledEventStatus = 1
	ScheduledEventActive    ScheduledEventStatus = 2
	ScheduledEventCompleted ScheduledEventStatus = 3
	ScheduledEventCanceled  ScheduledEventStatus = 4
)

// Adapter is the remote guild. Every call may fail with a transport, rate
// limit or not-found error; callers treat all failures alike except where a
// method documents a distinct result.
type Adapter interface {
	// EnsureRole returns the id of the role named spec.Name, creating it when absent.
	EnsureRole(ctx context.Context, spec RoleSpec, reason string) (string, error)
	UpdateRole(ctx context.Context, remoteRoleID string, patch RolePatch, reason string) error
	DeleteRole(ctx context.Context, remoteRoleID string, reason string) error

	AddMemberRole(ctx context.Context, remoteUserID, remoteRoleID, reason string) error
	RemoveMemberRole(ctx context.Context, remoteUserID, remoteRoleID, reason string) error
	// GetMemberRoles returns the member's roles. found is false when the user
	// is not a member of the guild; that is not an error.
	GetMemberRoles(ctx context.Context, remoteUserID string) (roles []RemoteRole, found bool, err error)

	CreatePermissionOverwrite(ctx context.Context, channelID, remoteUserID string, allow, deny Permission, reason string) error
	DeletePermissionOverwrite(ctx context.Context, channelID, remoteUserID, reason string) error
	DisconnectMember(ctx context.Context, remoteUserID, reason string) error
	// GetMemberVoiceChannel returns the voice channel the member is connected
	// to, or "" when not connected.
	GetMemberVoiceChannel(ctx context.Context, remoteUserID string) (string, error)

	// CreateTemporaryEventRole returns "" when the guild declines to create one.
	CreateTemporaryEventRole(ctx context.Context, title, channelID string) (string, error)
	DeleteTemporaryEventRole(ctx context.Context, remoteRoleID string) error
	UpdateScheduledEvent(ctx context.Context, remoteEventID string, patch ScheduledEventPatch) error
}

// NormalizeName folds a role name for comparisons between local and remote.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

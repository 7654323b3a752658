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

package main

import (
	"github.com/go-arcade/guildsync/internal/bootstrap"
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Grant, revoke and reconcile member roles",
}

var roleFlags struct {
	user       string
	roles      []string
	reason     string
	skipRemote bool
}

var roleApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Grant roles to a user and sync the guild",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *bootstrap.App) error {
			res, err := app.Services.RoleSync.ApplyRolesToUser(cmd.Context(), service.ApplyRolesRequest{
				UserId:         roleFlags.user,
				RoleNames:      roleFlags.roles,
				GrantedBy:      actorId,
				Reason:         roleFlags.reason,
				SkipRemoteSync: roleFlags.skipRemote,
			})
			return printResult(cmd, res, err)
		})
	},
}

var roleRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Revoke roles from a user and sync the guild",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *bootstrap.App) error {
			res, err := app.Services.RoleSync.RemoveRolesFromUser(cmd.Context(), service.RemoveRolesRequest{
				UserId:         roleFlags.user,
				RoleNames:      roleFlags.roles,
				RevokedBy:      actorId,
				Reason:         roleFlags.reason,
				SkipRemoteSync: roleFlags.skipRemote,
			})
			return printResult(cmd, res, err)
		})
	},
}

var roleSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a member's guild roles with the local grants",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *bootstrap.App) error {
			report, err := app.Services.RoleSync.ReconcileMemberRoles(cmd.Context(), roleFlags.user)
			return printResult(cmd, report, err)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{roleApplyCmd, roleRemoveCmd, roleSyncCmd} {
		c.Flags().StringVarP(&roleFlags.user, "user", "u", "", "user id")
		_ = c.MarkFlagRequired("user")
	}
	for _, c := range []*cobra.Command{roleApplyCmd, roleRemoveCmd} {
		c.Flags().StringSliceVarP(&roleFlags.roles, "roles", "r", nil, "role names, comma separated")
		c.Flags().StringVar(&roleFlags.reason, "reason", "", "reason recorded on the grant")
		c.Flags().BoolVar(&roleFlags.skipRemote, "skip-remote", false, "only update the local ledger")
		_ = c.MarkFlagRequired("roles")
	}
	roleCmd.AddCommand(roleApplyCmd, roleRemoveCmd, roleSyncCmd)
}

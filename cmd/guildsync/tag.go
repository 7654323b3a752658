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
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag maintenance",
}

var tagUser string

var tagSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replace a member's tag roles with the active tag grants",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *bootstrap.App) error {
			report, err := app.Services.Tag.SyncUserTagsWithDiscord(cmd.Context(), tagUser)
			return printResult(cmd, report, err)
		})
	},
}

func init() {
	tagSyncCmd.Flags().StringVarP(&tagUser, "user", "u", "", "user id")
	_ = tagSyncCmd.MarkFlagRequired("user")
	tagCmd.AddCommand(tagSyncCmd)
}

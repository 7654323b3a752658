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

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event voice access maintenance",
}

var eventFlags struct {
	event  string
	user   string
	reason string
}

var eventCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Revoke voice access for one event, or for every expired event when --event is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *bootstrap.App) error {
			if eventFlags.event == "" {
				report, err := app.CleanupJob.Run(cmd.Context())
				return printResult(cmd, report, err)
			}
			stats, err := app.Services.EventAccess.CleanupEvent(cmd.Context(), eventFlags.event,
				service.RevokeReason(eventFlags.reason), actorId)
			return printResult(cmd, stats, err)
		})
	},
}

var eventStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a user's voice access for an event",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *bootstrap.App) error {
			status, err := app.Services.EventAccess.GetUserAccessStatus(cmd.Context(), eventFlags.event, eventFlags.user)
			return printResult(cmd, status, err)
		})
	},
}

func init() {
	eventCleanupCmd.Flags().StringVarP(&eventFlags.event, "event", "e", "", "event id")
	eventCleanupCmd.Flags().StringVar(&eventFlags.reason, "reason", string(service.ReasonEventEnded), "revoke reason: event_ended | admin_revoked | user_left")

	eventStatusCmd.Flags().StringVarP(&eventFlags.event, "event", "e", "", "event id")
	eventStatusCmd.Flags().StringVarP(&eventFlags.user, "user", "u", "", "user id")
	_ = eventStatusCmd.MarkFlagRequired("event")
	_ = eventStatusCmd.MarkFlagRequired("user")

	eventCmd.AddCommand(eventCleanupCmd, eventStatusCmd)
}

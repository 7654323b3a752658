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
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/guildsync/internal/bootstrap"
	"github.com/go-arcade/guildsync/internal/engine/service"
	"github.com/go-arcade/guildsync/pkg/version"
	"github.com/spf13/cobra"
)

/**
 * @file: main.go
 * @description: guildsync server and admin cli
 */

var (
	configFile string
	actorId    string
)

var rootCmd = &cobra.Command{
	Use:           "guildsync",
	Short:         "guildsync keeps guild roles, tags and event voice access in sync",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "conf", "c", "conf.d/config.toml", "conf file path, e.g. -c ./conf.d/config.toml")
	rootCmd.PersistentFlags().StringVar(&actorId, "actor", "system", "actor id recorded in the activity log")

	rootCmd.AddCommand(serveCmd, roleCmd, tagCmd, eventCmd, version.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the app without starting any listener.
func withApp(fn func(app *bootstrap.App) error) error {
	app, cleanup, _, err := bootstrap.Bootstrap(configFile, initApp)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(app)
}

// printResult writes the result envelope as json and returns err so the
// process exits non-zero on failure.
func printResult[T any](cmd *cobra.Command, data T, err error) error {
	out, merr := sonic.ConfigStd.MarshalIndent(service.NewResult(data, err), "", "  ")
	if merr != nil {
		return merr
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

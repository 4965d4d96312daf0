// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/accountd/internal/config"
)

// NewRootCmd creates the root command for the accountd CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWith(
		newServeCmd(),
		newMigrateCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newMailCmd(),
	)
}

// newRootCmdWith builds the root command around subcommands and registers
// the configuration flags they share.
func newRootCmdWith(subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accountd",
		Short: "accountd - user accounts and sessions over HTTP",
		Long: `accountd registers users, authenticates them with email and password,
and manages cookie-based sessions backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (YAML)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(subcommands...)

	return cmd
}

// loadConfig layers defaults, the --config file, the environment and the
// flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config") //nolint:errcheck // registered on the root command
	return config.Load(path, cmd.Flags())
}

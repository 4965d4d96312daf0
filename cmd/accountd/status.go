// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accountd/internal/store"
)

// ServiceStatus is the report printed by the status command. It matches the
// dependencies section of GET /api/v1/status.
type ServiceStatus struct {
	UpdatedAt time.Time             `json:"updated_at"`
	Reachable bool                  `json:"reachable"`
	Database  *store.DatabaseStatus `json:"database,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	timeout    time.Duration
}

func newStatusCmd() *cobra.Command {
	return newStatusCmdWithDeps(nil)
}

func newStatusCmdWithDeps(deps *StatusDeps) *cobra.Command {
	cfg := &statusConfig{}
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database status",
		Long:  `Connect to the configured database and report its version and connection usage.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg, deps)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 5*time.Second, "how long to wait for the database")

	return cmd
}

// runStatus executes the status command. An unreachable database is
// reported, not returned as an error.
func runStatus(cmd *cobra.Command, cfg *statusConfig, deps *StatusDeps) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := appCfg.RequireDatabase(); err != nil {
		return err
	}
	logger, err := cliLogger(appCfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(contextOf(cmd), cfg.timeout)
	defer cancel()

	status := ServiceStatus{UpdatedAt: time.Now().UTC()}
	db, err := deps.DatabaseFactory(ctx, store.PoolConfig{
		URL:            appCfg.Database.URL,
		MaxConns:       1,
		ConnectTimeout: cfg.timeout,
	}, logger)
	if err != nil {
		status.Error = err.Error()
	} else {
		defer db.Close()
		status.Reachable = true
		status.Database, err = store.ProbeDatabase(ctx, db)
		if err != nil {
			status.Error = err.Error()
		}
	}

	var output string
	if cfg.jsonOutput {
		output, err = formatStatusJSON(status)
		if err != nil {
			return err
		}
	} else {
		output = formatStatusTable(status)
	}

	cmd.Println(output)
	return nil
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ServiceStatus) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "DEPENDENCY\tSTATUS\tVERSION\tCONNECTIONS")
	_, _ = fmt.Fprintln(w, "----------\t------\t-------\t-----------")

	switch {
	case status.Database != nil:
		_, _ = fmt.Fprintf(w, "database\tup\t%s\t%d/%d\n",
			status.Database.Version,
			status.Database.OpenedConnections,
			status.Database.MaxConnections)
	case status.Reachable:
		_, _ = fmt.Fprintf(w, "database\tdegraded\t-\t%s\n", status.Error)
	default:
		_, _ = fmt.Fprintf(w, "database\tdown\t-\t%s\n", status.Error)
	}

	_ = w.Flush()
	return buf.String()
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(status ServiceStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", oops.With("operation", "marshal status").Wrap(err)
	}
	return string(data), nil
}

// contextOf returns the command context, or Background when the command
// runs outside Execute.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

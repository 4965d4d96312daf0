// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// DatabaseStatus describes the PostgreSQL server behind the pool.
type DatabaseStatus struct {
	Version           string `json:"version"`
	MaxConnections    int    `json:"max_connections"`
	OpenedConnections int    `json:"opened_connections"`
}

// Querier is the query surface needed by ProbeDatabase.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProbeDatabase reads the server version, the connection limit and the
// number of connections open against the current database.
func ProbeDatabase(ctx context.Context, db Querier) (*DatabaseStatus, error) {
	var status DatabaseStatus

	if err := db.QueryRow(ctx, `SHOW server_version`).Scan(&status.Version); err != nil {
		return nil, oops.Code("DB_STATUS_FAILED").With("operation", "read server version").Wrap(err)
	}

	var maxConns string
	if err := db.QueryRow(ctx, `SHOW max_connections`).Scan(&maxConns); err != nil {
		return nil, oops.Code("DB_STATUS_FAILED").With("operation", "read max connections").Wrap(err)
	}
	n, err := strconv.Atoi(maxConns)
	if err != nil {
		return nil, oops.Code("DB_STATUS_FAILED").
			With("operation", "parse max connections").
			With("value", maxConns).
			Wrap(err)
	}
	status.MaxConnections = n

	if err := db.QueryRow(ctx,
		`SELECT count(*)::int FROM pg_stat_activity WHERE datname = current_database()`,
	).Scan(&status.OpenedConnections); err != nil {
		return nil, oops.Code("DB_STATUS_FAILED").With("operation", "count open connections").Wrap(err)
	}

	return &status, nil
}

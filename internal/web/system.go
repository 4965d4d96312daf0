// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/accountd/internal/store"
)

type statusBody struct {
	UpdatedAt    time.Time          `json:"updated_at"`
	Dependencies dependenciesStatus `json:"dependencies"`
}

type dependenciesStatus struct {
	Database *store.DatabaseStatus `json:"database"`
}

// getStatus handles GET /api/v1/status.
func (a *API) getStatus(w http.ResponseWriter, r *http.Request) {
	db, err := a.status(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, statusBody{
		UpdatedAt:    a.now().UTC(),
		Dependencies: dependenciesStatus{Database: db},
	})
}

// listMigrations handles GET /api/v1/migrations: a dry run listing what
// POST would apply.
func (a *API) listMigrations(w http.ResponseWriter, r *http.Request) {
	a.withMigrator(w, r, func(m Migrator) {
		pending, err := m.PendingMigrations()
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		a.writeJSON(w, r, http.StatusOK, nonNil(pending))
	})
}

// runMigrations handles POST /api/v1/migrations. It answers 201 when at
// least one migration ran and 200 otherwise.
func (a *API) runMigrations(w http.ResponseWriter, r *http.Request) {
	a.withMigrator(w, r, func(m Migrator) {
		applied, err := m.Apply()
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		status := http.StatusOK
		if len(applied) > 0 {
			status = http.StatusCreated
			a.logger.InfoContext(r.Context(), "migrations applied", "count", len(applied))
		}
		a.writeJSON(w, r, status, nonNil(applied))
	})
}

func (a *API) withMigrator(w http.ResponseWriter, r *http.Request, fn func(Migrator)) {
	m, err := a.migrators()
	if err != nil {
		a.writeError(w, r, oops.With("operation", "open migrator").Wrap(err))
		return
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			a.logger.WarnContext(r.Context(), "failed to close migrator", "error", cerr)
		}
	}()
	fn(m)
}

func nonNil(ms []store.Migration) []store.Migration {
	if ms == nil {
		return []store.Migration{}
	}
	return ms
}

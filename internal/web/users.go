// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"

	"github.com/holomush/accountd/internal/auth"
)

// createUser handles POST /api/v1/users.
func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var in auth.CreateUserInput
	if err := decodeBody(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.users.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID.String())
	a.writeJSON(w, r, http.StatusCreated, newUserBody(user))
}

// getUser handles GET /api/v1/users/{username}.
func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.FindByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, newUserBody(user))
}

// updateUser handles PATCH /api/v1/users/{username}.
func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	var in auth.UpdateUserInput
	if err := decodeBody(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.users.Update(r.Context(), r.PathValue("username"), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, newUserBody(user))
}

// currentUser handles GET /api/v1/user: it renews the caller's session,
// refreshes the cookie and returns the session owner.
func (a *API) currentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := a.activeSession(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	renewed, err := a.sessions.Renew(ctx, session.ID)
	if err != nil {
		a.writeError(w, r, asUnauthorized(err))
		return
	}
	a.setSessionCookie(w, renewed.Token, a.sessions.TTL())

	user, err := a.users.FindByID(ctx, renewed.UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	a.writeJSON(w, r, http.StatusOK, newUserBody(user))
}

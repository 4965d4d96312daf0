// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"net/http"

	"github.com/holomush/accountd/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// createSession handles POST /api/v1/sessions (login).
func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in loginRequest
	if err := decodeBody(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.authn.GetAuthenticationUser(ctx, in.Email, in.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	session, err := a.sessions.Create(ctx, user.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.setSessionCookie(w, session.Token, a.sessions.TTL())
	a.writeJSON(w, r, http.StatusCreated, newSessionBody(session))
}

// deleteSession handles DELETE /api/v1/sessions (logout).
func (a *API) deleteSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.activeSession(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	expired, err := a.sessions.ExpireByID(r.Context(), session.ID)
	if err != nil {
		a.writeError(w, r, asUnauthorized(err))
		return
	}

	a.clearSessionCookie(w)
	a.writeJSON(w, r, http.StatusOK, newSessionBody(expired))
}

// activeSession resolves the session cookie. A missing, unknown or expired
// token is an UnauthorizedError and clears the cookie.
func (a *API) activeSession(w http.ResponseWriter, r *http.Request) (*auth.Session, error) {
	session, err := a.sessions.FindOneValidByToken(r.Context(), sessionToken(r))
	if err != nil {
		if auth.IsKind(err, auth.KindNotFound) {
			a.clearSessionCookie(w)
		}
		return nil, asUnauthorized(err)
	}
	return session, nil
}

// asUnauthorized turns a missing session into an UnauthorizedError.
func asUnauthorized(err error) error {
	if !auth.IsKind(err, auth.KindNotFound) {
		return err
	}
	return &auth.Error{
		Kind:    auth.KindUnauthorized,
		Message: "The user does not have an active session.",
		Action:  "Check that this user is logged in and try again.",
		Cause:   err,
	}
}

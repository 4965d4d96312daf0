// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/pkg/errutil"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON form of an auth.Error.
type errorBody struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	Action     string `json:"action"`
	StatusCode int    `json:"status_code"`
}

// userBody is the public form of a user. It never carries the password hash.
type userBody struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserBody(u *auth.User) userBody {
	return userBody{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type sessionBody struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSessionBody(s *auth.Session) sessionBody {
	return sessionBody{
		ID:        s.ID,
		Token:     s.Token,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

// writeError renders err. auth.Errors keep their kind; everything else is
// logged and hidden behind InternalServerError.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := auth.AsError(err)
	if !ok || e.Kind == auth.KindInternal {
		errutil.LogErrorContext(r.Context(), a.logger, "request failed", err)
		if !ok {
			e = auth.NewInternalError(err)
		}
	}
	a.writeJSON(w, r, e.StatusCode(), errorBody{
		Name:       string(e.Kind),
		Message:    e.Message,
		Action:     e.Action,
		StatusCode: e.StatusCode(),
	})
}

// decodeBody reads a JSON object into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return auth.NewValidationError(
				"The request body is too large.",
				"Send a smaller request body.",
			)
		}
		if errors.Is(err, io.EOF) {
			return auth.NewValidationError(
				"The request body is empty.",
				"Send a JSON object in the request body.",
			)
		}
		return auth.NewValidationError(
			"The request body is not valid JSON.",
			"Check the request body format and try again.",
		)
	}
	return nil
}

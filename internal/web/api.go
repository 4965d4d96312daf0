// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/holomush/accountd/internal/auth"
)

// API holds the handlers for the /api/v1 routes.
type API struct {
	users         UserService
	sessions      SessionService
	authn         Authenticator
	migrators     MigratorFactory
	status        StatusProber
	secureCookies bool
	logger        *slog.Logger
	observer      RequestObserver
	now           func() time.Time
}

// New creates the API.
func New(deps Deps) (*API, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	a := &API{
		users:         deps.Users,
		sessions:      deps.Sessions,
		authn:         deps.Authenticator,
		migrators:     deps.Migrators,
		status:        deps.Status,
		secureCookies: deps.SecureCookies,
		logger:        deps.Logger,
		observer:      deps.Observer,
		now:           deps.Now,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.observer == nil {
		a.observer = noopObserver{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// methods maps HTTP methods to handlers for one route.
type methods map[string]http.HandlerFunc

// Routes returns the HTTP handler for the whole API.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	a.handle(mux, "/api/v1/users", methods{
		http.MethodPost: a.createUser,
	})
	a.handle(mux, "/api/v1/users/{username}", methods{
		http.MethodGet:   a.getUser,
		http.MethodPatch: a.updateUser,
	})
	a.handle(mux, "/api/v1/sessions", methods{
		http.MethodPost:   a.createSession,
		http.MethodDelete: a.deleteSession,
	})
	a.handle(mux, "/api/v1/user", methods{
		http.MethodGet: a.currentUser,
	})
	a.handle(mux, "/api/v1/status", methods{
		http.MethodGet: a.getStatus,
	})
	a.handle(mux, "/api/v1/migrations", methods{
		http.MethodGet:  a.listMigrations,
		http.MethodPost: a.runMigrations,
	})

	mux.Handle("/", a.instrument("unmatched", http.HandlerFunc(a.notFound)))
	return mux
}

func (a *API) handle(mux *http.ServeMux, pattern string, ms methods) {
	allowed := make([]string, 0, len(ms))
	for m := range ms {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")

	dispatch := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := ms[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			a.writeError(w, r, auth.NewMethodNotAllowedError())
			return
		}
		h(w, r)
	})
	mux.Handle(pattern, a.instrument(pattern, dispatch))
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	a.writeError(w, r, auth.NewNotFoundError(
		"The requested resource was not found.",
		"Check the request path.",
		nil,
	))
}

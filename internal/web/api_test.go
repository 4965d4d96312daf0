// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/store"
	"github.com/holomush/accountd/internal/web"
	"github.com/holomush/accountd/internal/web/mocks"
	"github.com/holomush/accountd/pkg/errutil"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)

type observation struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, observation{method: method, route: route, status: status})
}

func (o *recordingObserver) last() observation {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.obs) == 0 {
		return observation{}
	}
	return o.obs[len(o.obs)-1]
}

type apiFixture struct {
	users    *mocks.MockUserService
	sessions *mocks.MockSessionService
	authn    *mocks.MockAuthenticator
	migrator *mocks.MockMigrator

	migratorErr error
	dbStatus    *store.DatabaseStatus
	statusErr   error

	observer *recordingObserver
	logs     *bytes.Buffer
	handler  http.Handler
}

func newAPIFixture(t *testing.T, secure bool) *apiFixture {
	t.Helper()
	f := &apiFixture{
		users:    mocks.NewMockUserService(t),
		sessions: mocks.NewMockSessionService(t),
		authn:    mocks.NewMockAuthenticator(t),
		migrator: mocks.NewMockMigrator(t),
		observer: &recordingObserver{},
		logs:     &bytes.Buffer{},
	}
	api, err := web.New(web.Deps{
		Users:         f.users,
		Sessions:      f.sessions,
		Authenticator: f.authn,
		Migrators: func() (web.Migrator, error) {
			if f.migratorErr != nil {
				return nil, f.migratorErr
			}
			return f.migrator, nil
		},
		Status: func(context.Context) (*store.DatabaseStatus, error) {
			return f.dbStatus, f.statusErr
		},
		SecureCookies: secure,
		Logger:        slog.New(slog.NewJSONHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Observer:      f.observer,
		Now:           func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.handler = api.Routes()
	return f
}

func (f *apiFixture) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func assertErrorBody(t *testing.T, rec *httptest.ResponseRecorder, status int, name string) map[string]any {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, name, body["name"])
	assert.Equal(t, float64(status), body["status_code"])
	assert.NotEmpty(t, body["message"])
	assert.NotEmpty(t, body["action"])
	return body
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == web.SessionCookieName {
			return c
		}
	}
	return nil
}

func testUser() *auth.User {
	return &auth.User{
		ID:           uuid.New(),
		Username:     "MesmoCase",
		Email:        "mesmo.case@example.com",
		PasswordHash: "$2a$04$secrethash",
		CreatedAt:    fixedNow.Add(-time.Hour),
		UpdatedAt:    fixedNow.Add(-time.Hour),
	}
}

func testSession(userID uuid.UUID) *auth.Session {
	return &auth.Session{
		ID:        uuid.New(),
		Token:     strings.Repeat("ab", 48),
		UserID:    userID,
		ExpiresAt: fixedNow.Add(time.Hour),
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	full := func() web.Deps {
		return web.Deps{
			Users:         mocks.NewMockUserService(t),
			Sessions:      mocks.NewMockSessionService(t),
			Authenticator: mocks.NewMockAuthenticator(t),
			Migrators:     func() (web.Migrator, error) { return nil, nil },
			Status:        func(context.Context) (*store.DatabaseStatus, error) { return nil, nil },
		}
	}

	tests := []struct {
		name    string
		mutate  func(*web.Deps)
		message string
	}{
		{"users", func(d *web.Deps) { d.Users = nil }, "user service is required"},
		{"sessions", func(d *web.Deps) { d.Sessions = nil }, "session service is required"},
		{"authenticator", func(d *web.Deps) { d.Authenticator = nil }, "authenticator is required"},
		{"migrators", func(d *web.Deps) { d.Migrators = nil }, "migrator factory is required"},
		{"status", func(d *web.Deps) { d.Status = nil }, "status prober is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full()
			tt.mutate(&deps)
			api, err := web.New(deps)
			require.Error(t, err)
			assert.Nil(t, api)
			errutil.AssertErrorCode(t, err, "WEB_INVALID_CONFIG")
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	t.Run("optional fields default", func(t *testing.T) {
		api, err := web.New(full())
		require.NoError(t, err)
		assert.NotNil(t, api.Routes())
	})
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
		allow  string
	}{
		{http.MethodGet, "/api/v1/users", "POST"},
		{http.MethodDelete, "/api/v1/users/someone", "GET, PATCH"},
		{http.MethodPut, "/api/v1/sessions", "DELETE, POST"},
		{http.MethodPost, "/api/v1/user", "GET"},
		{http.MethodDelete, "/api/v1/status", "GET"},
		{http.MethodPut, "/api/v1/migrations", "GET, POST"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			f := newAPIFixture(t, false)

			rec := f.do(tt.method, tt.path, "")
			body := assertErrorBody(t, rec, http.StatusMethodNotAllowed, "MethodNotAllowedError")
			assert.Equal(t, tt.allow, rec.Header().Get("Allow"))
			assert.Equal(t, "Method not allowed for this endpoint.", body["message"])
		})
	}
}

func TestRoutes_UnknownPath(t *testing.T) {
	f := newAPIFixture(t, false)

	rec := f.do(http.MethodGet, "/api/v1/nope", "")
	assertErrorBody(t, rec, http.StatusNotFound, "NotFoundError")
	assert.Equal(t, observation{method: http.MethodGet, route: "unmatched", status: http.StatusNotFound}, f.observer.last())
}

func TestRoutes_InternalErrorsAreHidden(t *testing.T) {
	f := newAPIFixture(t, false)
	f.users.On("FindByUsername", mock.Anything, "someone").
		Return(nil, errors.New("connection refused: 10.0.0.7:5432"))

	rec := f.do(http.MethodGet, "/api/v1/users/someone", "")
	body := assertErrorBody(t, rec, http.StatusInternalServerError, "InternalServerError")
	assert.Equal(t, "An unexpected internal error occurred.", body["message"])
	assert.Equal(t, "Contact support.", body["action"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")

	assert.Contains(t, f.logs.String(), "request failed")
	assert.Contains(t, f.logs.String(), "10.0.0.7")
}

func TestRoutes_PanicIsRecovered(t *testing.T) {
	f := newAPIFixture(t, false)
	f.users.On("FindByUsername", mock.Anything, "boom").
		Run(func(mock.Arguments) { panic("kaboom") }).
		Return(nil, nil)

	rec := f.do(http.MethodGet, "/api/v1/users/boom", "")
	assertErrorBody(t, rec, http.StatusInternalServerError, "InternalServerError")
	assert.Contains(t, f.logs.String(), "panic recovered")
	assert.Equal(t, http.StatusInternalServerError, f.observer.last().status)
}

func TestRoutes_ObserveRegisteredPattern(t *testing.T) {
	f := newAPIFixture(t, false)
	user := testUser()
	f.users.On("FindByUsername", mock.Anything, "MesmoCase").Return(user, nil)

	rec := f.do(http.MethodGet, "/api/v1/users/MesmoCase", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, observation{
		method: http.MethodGet,
		route:  "/api/v1/users/{username}",
		status: http.StatusOK,
	}, f.observer.last())

	var entry map[string]any
	lines := strings.Split(strings.TrimSpace(f.logs.String()), "\n")
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "/api/v1/users/MesmoCase", entry["path"])
	assert.Equal(t, "/api/v1/users/{username}", entry["route"])
}

func TestRoutes_ClientErrorsLogAtWarn(t *testing.T) {
	f := newAPIFixture(t, false)

	f.do(http.MethodPost, "/api/v1/users", "{")
	assert.Contains(t, f.logs.String(), `"level":"WARN"`)
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty", "", "The request body is empty."},
		{"invalid json", "{not json", "The request body is not valid JSON."},
		{"too large", `{"username":"` + strings.Repeat("a", 2<<20) + `"}`, "The request body is too large."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, false)

			rec := f.do(http.MethodPost, "/api/v1/users", tt.body)
			body := assertErrorBody(t, rec, http.StatusBadRequest, "ValidationError")
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

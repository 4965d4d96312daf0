// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/store"
)

// UserService is the user directory as seen by the handlers.
type UserService interface {
	Create(ctx context.Context, in auth.CreateUserInput) (*auth.User, error)
	FindByUsername(ctx context.Context, username string) (*auth.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
	Update(ctx context.Context, username string, in auth.UpdateUserInput) (*auth.User, error)
}

// SessionService is the session store as seen by the handlers.
type SessionService interface {
	Create(ctx context.Context, userID uuid.UUID) (*auth.Session, error)
	FindOneValidByToken(ctx context.Context, token string) (*auth.Session, error)
	Renew(ctx context.Context, id uuid.UUID) (*auth.Session, error)
	ExpireByID(ctx context.Context, id uuid.UUID) (*auth.Session, error)
	TTL() time.Duration
}

// Authenticator verifies login credentials.
type Authenticator interface {
	GetAuthenticationUser(ctx context.Context, email, password string) (*auth.User, error)
}

// Migrator runs schema migrations for the migrations endpoint.
type Migrator interface {
	PendingMigrations() ([]store.Migration, error)
	Apply() ([]store.Migration, error)
	Close() error
}

// MigratorFactory opens a Migrator for one request. golang-migrate holds a
// database lock for the migrator's lifetime, so each request gets its own.
type MigratorFactory func() (Migrator, error)

// StatusProber reports facts about the database.
type StatusProber func(ctx context.Context) (*store.DatabaseStatus, error)

// RequestObserver receives one observation per served request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Deps wires the API to its services. Logger, Observer and Now are
// optional.
type Deps struct {
	Users         UserService
	Sessions      SessionService
	Authenticator Authenticator
	Migrators     MigratorFactory
	Status        StatusProber

	// SecureCookies sets the Secure attribute on the session cookie.
	SecureCookies bool

	Logger   *slog.Logger
	Observer RequestObserver
	Now      func() time.Time
}

func (d *Deps) validate() error {
	missing := func(name string) error {
		return oops.Code("WEB_INVALID_CONFIG").Errorf("%s is required", name)
	}
	switch {
	case d.Users == nil:
		return missing("user service")
	case d.Sessions == nil:
		return missing("session service")
	case d.Authenticator == nil:
		return missing("authenticator")
	case d.Migrators == nil:
		return missing("migrator factory")
	case d.Status == nil:
		return missing("status prober")
	}
	return nil
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, string, int, time.Duration) {}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Authentication failure reasons. They are logged and counted but never
// shown to the client.
const (
	ReasonUnknownEmail     = "unknown_email"
	ReasonPasswordMismatch = "password_mismatch"
)

// FailureRecorder counts failed authentications by reason.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

type noopFailureRecorder struct{}

func (noopFailureRecorder) RecordAuthFailure(string) {}

// UserLookup is the part of the user directory the Authenticator needs.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	NeedsRehash(user *User) bool
	RehashPassword(ctx context.Context, user *User, password string) error
}

// Authenticator verifies email and password pairs.
type Authenticator struct {
	users     UserLookup
	hasher    PasswordHasher
	dummyHash string
	logger    *slog.Logger
	failures  FailureRecorder
}

// dummyPassword is hashed once at startup. Unknown emails are compared
// against that hash so they cost as much as a real mismatch.
//
//nolint:gosec // G101: not a credential, it never matches a stored account.
const dummyPassword = "accountd-timing-equalizer"

// NewAuthenticator creates an Authenticator. It hashes a dummy password with
// hasher, so construction takes as long as one hash at the configured cost.
func NewAuthenticator(ctx context.Context, users UserLookup, hasher PasswordHasher, opts ...Option) (*Authenticator, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("user lookup is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	dummyHash, err := hasher.Hash(ctx, dummyPassword)
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").
			With("operation", "hash dummy password").
			Wrap(err)
	}
	o := buildOptions(opts)
	return &Authenticator{
		users:     users,
		hasher:    hasher,
		dummyHash: dummyHash,
		logger:    o.logger,
		failures:  o.failures,
	}, nil
}

// GetAuthenticationUser returns the user owning email when password matches.
// Unknown email and wrong password give the same UnauthorizedError.
func (a *Authenticator) GetAuthenticationUser(ctx context.Context, email, password string) (*User, error) {
	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if !IsKind(err, KindNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "find user by email").
				Wrap(err)
		}
		// Result ignored; the comparison only spends the same time as a real one.
		_, _ = a.hasher.Compare(ctx, password, a.dummyHash) //nolint:errcheck // timing only
		return nil, a.reject(ctx, ReasonUnknownEmail)
	}

	ok, err := a.hasher.Compare(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	if !ok {
		return nil, a.reject(ctx, ReasonPasswordMismatch, "user_id", user.ID.String())
	}

	if a.users.NeedsRehash(user) {
		if err := a.users.RehashPassword(ctx, user, password); err != nil {
			a.logger.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID.String(),
				"error", err)
		}
	}
	return user, nil
}

func (a *Authenticator) reject(ctx context.Context, reason string, attrs ...any) error {
	a.failures.RecordAuthFailure(reason)
	a.logger.WarnContext(ctx, "authentication failed", append([]any{"reason", reason}, attrs...)...)
	return UnauthorizedCredentialsError()
}

// UnauthorizedCredentialsError is the single error clients see for any
// authentication failure.
func UnauthorizedCredentialsError() *Error {
	return NewUnauthorizedError(
		"Authentication data does not match.",
		"Check that the data sent is correct.",
	)
}

// Compile-time interface check.
var _ UserLookup = (*UserDirectory)(nil)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// UserDirectory registers, looks up and updates users.
type UserDirectory struct {
	users    UserRepository
	hasher   PasswordHasher
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

// NewUserDirectory creates a UserDirectory.
func NewUserDirectory(users UserRepository, hasher PasswordHasher, opts ...Option) (*UserDirectory, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	o := buildOptions(opts)
	return &UserDirectory{
		users:    users,
		hasher:   hasher,
		validate: newInputValidator(),
		now:      o.now,
		logger:   o.logger,
	}, nil
}

// Create validates the input, checks that email and username are free,
// hashes the password and stores the new user.
func (d *UserDirectory) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	if err := validateInput(d.validate, in); err != nil {
		return nil, err
	}
	if err := d.ensureEmailAvailable(ctx, in.Email, uuid.Nil); err != nil {
		return nil, err
	}
	if err := d.ensureUsernameAvailable(ctx, in.Username, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := d.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(in.Username, in.Email, hash, Timestamp(d.now()))
	if err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "build user").
			Wrap(err)
	}

	if err := d.users.Create(ctx, user); err != nil {
		return nil, d.writeError(err, "USER_CREATE_FAILED", user)
	}

	d.logger.InfoContext(ctx, "user created", "user_id", user.ID.String())
	return user, nil
}

// FindByUsername looks up a user ignoring case.
func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, err := d.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewNotFoundError(
				"The username was not found.",
				"Check that the username is correct.",
				err,
			)
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// FindByEmail looks up a user ignoring case.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := d.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewNotFoundError(
				"The email was not found.",
				"Check that the email is correct.",
				err,
			)
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// FindByID looks up a user by ID.
func (d *UserDirectory) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewNotFoundError(
				"The user was not found.",
				"Check that the user id is correct.",
				err,
			)
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "get user by id").
			With("user_id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// Update applies a partial update to the user named username. Uniqueness is
// checked only for the fields present, ignoring the user itself.
func (d *UserDirectory) Update(ctx context.Context, username string, in UpdateUserInput) (*User, error) {
	if err := validateInput(d.validate, in); err != nil {
		return nil, err
	}

	user, err := d.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		if err := d.ensureUsernameAvailable(ctx, *in.Username, user.ID); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if err := d.ensureEmailAvailable(ctx, *in.Email, user.ID); err != nil {
			return nil, err
		}
	}

	updated := *user
	if in.Username != nil {
		updated.Username = *in.Username
	}
	if in.Email != nil {
		updated.Email = *in.Email
	}
	if in.Password != nil {
		hash, hashErr := d.hasher.Hash(ctx, *in.Password)
		if hashErr != nil {
			return nil, oops.Code("USER_UPDATE_FAILED").
				With("operation", "hash password").
				With("user_id", user.ID.String()).
				Wrap(hashErr)
		}
		updated.PasswordHash = hash
	}

	// updated_at must move forward even when the clock has not.
	now := Timestamp(d.now())
	if !now.After(user.UpdatedAt) {
		now = user.UpdatedAt.Add(time.Millisecond)
	}
	updated.UpdatedAt = now

	if err := d.users.Update(ctx, &updated); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewNotFoundError(
				"The username was not found.",
				"Check that the username is correct.",
				err,
			)
		}
		return nil, d.writeError(err, "USER_UPDATE_FAILED", &updated)
	}
	return &updated, nil
}

func (d *UserDirectory) ensureEmailAvailable(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := d.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return oops.Code("USER_LOOKUP_FAILED").
			With("operation", "check email availability").
			Wrap(err)
	case existing.ID == self:
		return nil
	default:
		return emailTakenError()
	}
}

func (d *UserDirectory) ensureUsernameAvailable(ctx context.Context, username string, self uuid.UUID) error {
	existing, err := d.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return oops.Code("USER_LOOKUP_FAILED").
			With("operation", "check username availability").
			With("username", username).
			Wrap(err)
	case existing.ID == self:
		return nil
	default:
		return usernameTakenError()
	}
}

// writeError maps unique index violations that slipped past the pre-check
// onto the same ValidationError the pre-check would have produced.
func (d *UserDirectory) writeError(err error, code string, user *User) error {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return emailTakenError()
	case errors.Is(err, ErrUsernameTaken):
		return usernameTakenError()
	default:
		return oops.Code(code).
			With("user_id", user.ID.String()).
			Wrap(err)
	}
}

func emailTakenError() *Error {
	return NewValidationError(
		"The email provided is already in use.",
		"Use another email to carry out this operation.",
	)
}

func usernameTakenError() *Error {
	return NewValidationError(
		"The username provided is already in use.",
		"Use another username to carry out this operation.",
	)
}

// RehashPassword replaces the stored hash of user with a hash of password at
// the current cost. updated_at is left alone since the account data did not
// change.
func (d *UserDirectory) RehashPassword(ctx context.Context, user *User, password string) error {
	hash, err := d.hasher.Hash(ctx, password)
	if err != nil {
		return oops.Code("USER_REHASH_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	upgraded := *user
	upgraded.PasswordHash = hash
	if err := d.users.Update(ctx, &upgraded); err != nil {
		return oops.Code("USER_REHASH_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	user.PasswordHash = hash
	return nil
}

// NeedsRehash reports whether user's stored hash uses a stale cost.
func (d *UserDirectory) NeedsRehash(user *User) bool {
	return d.hasher.NeedsRehash(user.PasswordHash)
}

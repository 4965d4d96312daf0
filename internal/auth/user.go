// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Field limits, matching the users table.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 30
	MaxEmailLength    = 250
)

// usernameRegex matches usernames made of letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a validated User with a fresh v4 ID. now is used for both
// timestamps.
func NewUser(username, email, passwordHash string, now time.Time) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, oops.Code("AUTH_INVALID_PASSWORD").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must contain only letters, numbers, and underscores")
	}
	return nil
}

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,max=250,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Username *string `json:"username" validate:"omitnil,required,username"`
	Email    *string `json:"email" validate:"omitnil,required,max=250,email"`
	Password *string `json:"password" validate:"omitnil,required,maxbytes=72"`
}

// newInputValidator builds the validator used for user payloads. Field names
// in messages come from the json tags.
func newInputValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	//nolint:errcheck // registration only fails on empty tag names
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	})
	// bcrypt reads at most 72 bytes, so the limit counts bytes, not runes.
	//nolint:errcheck // registration only fails on empty tag names
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// validateInput runs struct validation and converts the first failure into a
// ValidationError.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return oops.Code("AUTH_INPUT_VALIDATION_FAILED").Wrap(err)
	}
	fe := fieldErrs[0]
	return NewValidationError(fieldMessage(fe), fmt.Sprintf("Adjust the '%s' field and try again.", fe.Field()))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The '%s' field is required.", fe.Field())
	case "max":
		return fmt.Sprintf("The '%s' field must be at most %s characters.", fe.Field(), fe.Param())
	case "maxbytes":
		return fmt.Sprintf("The '%s' field must be at most %s bytes long.", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("The '%s' field must be a valid email address.", fe.Field())
	case "username":
		return fmt.Sprintf("The '%s' field must have %d to %d characters made of letters, numbers and underscores.",
			fe.Field(), MinUsernameLength, MaxUsernameLength)
	default:
		return fmt.Sprintf("The '%s' field is invalid.", fe.Field())
	}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user.
	// Returns ErrUsernameTaken or ErrEmailTaken when a unique index rejects the row.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByUsername retrieves a user by username (case-insensitive).
	// Returns ErrNotFound if no user has the given username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists username, email, password hash and updated_at.
	// Returns ErrUsernameTaken or ErrEmailTaken when a unique index rejects the row.
	Update(ctx context.Context, user *User) error
}

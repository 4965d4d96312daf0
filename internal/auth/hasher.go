// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Bcrypt cost factors.
const (
	ProductionBcryptCost = 14
	MinBcryptCost        = bcrypt.MinCost
	MaxBcryptCost        = bcrypt.MaxCost

	// MaxPasswordBytes is the bcrypt input limit; longer inputs are rejected
	// rather than silently truncated.
	MaxPasswordBytes = 72
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted bcrypt hash of the password.
	Hash(ctx context.Context, password string) (string, error)

	// Compare checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Compare(ctx context.Context, password, hash string) (bool, error)

	// NeedsRehash returns true if the hash was produced with a different cost.
	NeedsRehash(hash string) bool
}

// CostForEnvironment returns the bcrypt cost used for an environment name.
// Production pays the full work factor; everything else uses the minimum so
// test suites stay fast.
func CostForEnvironment(environment string) int {
	if environment == "production" {
		return ProductionBcryptCost
	}
	return MinBcryptCost
}

// BcryptHasher implements PasswordHasher using bcrypt. At most `limit`
// hashes run at the same time; further callers wait or give up when their
// context ends.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcryptHasher creates a BcryptHasher. limit <= 0 means runtime.NumCPU().
func NewBcryptHasher(cost, limit int) (*BcryptHasher, error) {
	if cost < MinBcryptCost || cost > MaxBcryptCost {
		return nil, oops.Code("AUTH_INVALID_COST").
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", MinBcryptCost, MaxBcryptCost)
	}
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &BcryptHasher{cost: cost, sem: semaphore.NewWeighted(int64(limit))}, nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", oops.Code("AUTH_PASSWORD_TOO_LONG").
			With("max_bytes", MaxPasswordBytes).
			Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}

	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("cost", h.cost).Wrap(err)
	}
	return string(hash), nil
}

// Compare checks if the password matches the hash.
func (h *BcryptHasher) Compare(ctx context.Context, password, hash string) (bool, error) {
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
}

// NeedsRehash returns true if the stored cost differs from the configured one
// or the hash is not a bcrypt hash at all.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

func (h *BcryptHasher) acquire(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		err = h.sem.Acquire(ctx, 1)
	}
	if err != nil {
		return oops.Code("AUTH_HASH_CANCELLED").
			With("operation", "acquire hash slot").
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)

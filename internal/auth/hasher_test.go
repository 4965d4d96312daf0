// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/pkg/errutil"
)

func newTestHasher(t *testing.T) *auth.BcryptHasher {
	t.Helper()
	hasher, err := auth.NewBcryptHasher(auth.MinBcryptCost, 2)
	require.NoError(t, err)
	return hasher
}

func TestCostForEnvironment(t *testing.T) {
	assert.Equal(t, auth.ProductionBcryptCost, auth.CostForEnvironment("production"))
	assert.Equal(t, auth.MinBcryptCost, auth.CostForEnvironment("development"))
	assert.Equal(t, auth.MinBcryptCost, auth.CostForEnvironment("test"))
	assert.Equal(t, auth.MinBcryptCost, auth.CostForEnvironment(""))
}

func TestNewBcryptHasher(t *testing.T) {
	t.Run("rejects cost below minimum", func(t *testing.T) {
		_, err := auth.NewBcryptHasher(auth.MinBcryptCost-1, 1)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_COST")
	})

	t.Run("rejects cost above maximum", func(t *testing.T) {
		_, err := auth.NewBcryptHasher(auth.MaxBcryptCost+1, 1)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_COST")
	})

	t.Run("non-positive limit defaults to cpu count", func(t *testing.T) {
		hasher, err := auth.NewBcryptHasher(auth.MinBcryptCost, 0)
		require.NoError(t, err)
		assert.Equal(t, auth.MinBcryptCost, hasher.Cost())
	})
}

func TestBcryptHasher_Hash(t *testing.T) {
	ctx := context.Background()
	hasher := newTestHasher(t)

	t.Run("produces bcrypt hash with configured cost", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "senha123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"))

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, auth.MinBcryptCost, cost)
	})

	t.Run("hash fits the password column", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, strings.Repeat("x", auth.MaxPasswordBytes))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(hash), 72)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash(ctx, "samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash(ctx, "samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("never contains the plaintext", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "plaintext-secret")
		require.NoError(t, err)
		assert.NotContains(t, hash, "plaintext-secret")
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash(ctx, "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})

	t.Run("rejects password longer than bcrypt input", func(t *testing.T) {
		_, err := hasher.Hash(ctx, strings.Repeat("x", auth.MaxPasswordBytes+1))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_PASSWORD_TOO_LONG")
	})
}

func TestBcryptHasher_Compare(t *testing.T) {
	ctx := context.Background()
	hasher := newTestHasher(t)

	hash, err := hasher.Hash(ctx, "correctpassword")
	require.NoError(t, err)

	t.Run("correct password matches", func(t *testing.T) {
		ok, err := hasher.Compare(ctx, "correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password returns false without error", func(t *testing.T) {
		ok, err := hasher.Compare(ctx, "wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed hash returns error", func(t *testing.T) {
		ok, err := hasher.Compare(ctx, "password", "not-a-valid-hash")
		require.Error(t, err)
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})

	t.Run("hash from a different cost still verifies", func(t *testing.T) {
		other, err := auth.NewBcryptHasher(auth.MinBcryptCost+1, 1)
		require.NoError(t, err)
		otherHash, err := other.Hash(ctx, "crosscost")
		require.NoError(t, err)

		ok, err := hasher.Compare(ctx, "crosscost", otherHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestBcryptHasher_NeedsRehash(t *testing.T) {
	ctx := context.Background()
	hasher := newTestHasher(t)

	t.Run("same cost does not need rehash", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "password")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsRehash(hash))
	})

	t.Run("different cost needs rehash", func(t *testing.T) {
		other, err := auth.NewBcryptHasher(auth.MinBcryptCost+1, 1)
		require.NoError(t, err)
		hash, err := other.Hash(ctx, "password")
		require.NoError(t, err)
		assert.True(t, hasher.NeedsRehash(hash))
	})

	t.Run("non-bcrypt hash needs rehash", func(t *testing.T) {
		assert.True(t, hasher.NeedsRehash("$argon2id$v=19$m=65536,t=1,p=4$salt$hash"))
	})
}

func TestBcryptHasher_ConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	hasher, err := auth.NewBcryptHasher(auth.MinBcryptCost, 1)
	require.NoError(t, err)

	t.Run("concurrent callers all complete", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, hashErr := hasher.Hash(context.Background(), "concurrent")
				errs <- hashErr
			}()
		}
		wg.Wait()
		close(errs)
		for hashErr := range errs {
			assert.NoError(t, hashErr)
		}
	})

	t.Run("cancelled context gives up waiting", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		<-ctx.Done()

		_, err := hasher.Hash(ctx, "cancelled")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_HASH_CANCELLED")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/pkg/errutil"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"single character", "a", false},
		{"letters and digits", "user01", false},
		{"leading digit", "1user", false},
		{"underscore", "mesmo_case", false},
		{"max length", strings.Repeat("a", auth.MaxUsernameLength), false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", auth.MaxUsernameLength+1), true},
		{"dot", "user.name", true},
		{"hyphen", "user-name", true},
		{"space", "user name", true},
		{"non ascii", "usuário", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_USERNAME")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewUser(t *testing.T) {
	t.Run("valid user", func(t *testing.T) {
		user, err := auth.NewUser("user01", "user01@example.com", "$2a$04$hash", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), user.ID.Version())
		assert.Equal(t, fixedNow, user.CreatedAt)
		assert.Equal(t, fixedNow, user.UpdatedAt)
	})

	t.Run("ids are unique", func(t *testing.T) {
		a, err := auth.NewUser("a", "a@example.com", "h", fixedNow)
		require.NoError(t, err)
		b, err := auth.NewUser("b", "b@example.com", "h", fixedNow)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		_, err := auth.NewUser("user01", " ", "h", fixedNow)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := auth.NewUser("user01", "a@example.com", "", fixedNow)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_PASSWORD")
	})
}

func TestTimestamp(t *testing.T) {
	got := auth.Timestamp(fixedNow)
	assert.Equal(t, 0, got.Nanosecond()%1_000_000)
	assert.True(t, got.Location() == fixedNow.UTC().Location())
}

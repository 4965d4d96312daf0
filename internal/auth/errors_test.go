// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accountd/internal/auth"
)

func TestKind_StatusCode(t *testing.T) {
	tests := []struct {
		kind auth.Kind
		want int
	}{
		{auth.KindValidation, http.StatusBadRequest},
		{auth.KindNotFound, http.StatusNotFound},
		{auth.KindUnauthorized, http.StatusUnauthorized},
		{auth.KindMethodNotAllowed, http.StatusMethodNotAllowed},
		{auth.KindInternal, http.StatusInternalServerError},
		{auth.Kind("Unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.StatusCode())
		})
	}
}

func TestError(t *testing.T) {
	t.Run("message without cause", func(t *testing.T) {
		err := auth.NewValidationError("bad field", "fix it")
		assert.Equal(t, "ValidationError: bad field", err.Error())
		assert.Equal(t, http.StatusBadRequest, err.StatusCode())
	})

	t.Run("unwraps cause", func(t *testing.T) {
		err := auth.NewNotFoundError("missing", "look again", auth.ErrNotFound)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("found through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", auth.NewUnauthorizedError("no", "retry"))
		e, ok := auth.AsError(wrapped)
		require.True(t, ok)
		assert.Equal(t, auth.KindUnauthorized, e.Kind)
		assert.True(t, auth.IsKind(wrapped, auth.KindUnauthorized))
		assert.False(t, auth.IsKind(wrapped, auth.KindNotFound))
	})

	t.Run("plain errors are not client errors", func(t *testing.T) {
		_, ok := auth.AsError(errors.New("plain"))
		assert.False(t, ok)
		assert.False(t, auth.IsKind(nil, auth.KindInternal))
	})

	t.Run("internal error hides cause", func(t *testing.T) {
		cause := errors.New("password=hunter2")
		err := auth.NewInternalError(cause)
		assert.Equal(t, auth.KindInternal, err.Kind)
		assert.NotContains(t, err.Message, "hunter2")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("method not allowed", func(t *testing.T) {
		err := auth.NewMethodNotAllowedError()
		assert.Equal(t, http.StatusMethodNotAllowed, err.StatusCode())
		assert.NotEmpty(t, err.Action)
	})
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 48 // 48 bytes = 96 hex chars
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// Session is an opaque bearer token tied to a user.
type Session struct {
	ID        uuid.UUID
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpiredAt returns true if the session is no longer valid at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}

// GenerateSessionToken creates a random hex token.
func GenerateSessionToken() (string, error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetValidByToken retrieves the session with the given token whose
	// expires_at is after now. Returns ErrNotFound otherwise.
	GetValidByToken(ctx context.Context, token string, now time.Time) (*Session, error)

	// UpdateExpiry sets expires_at and updated_at on a session that is still
	// valid at now and returns the updated row. Returns ErrNotFound if the
	// session does not exist or has already expired.
	UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt, now time.Time) (*Session, error)

	// DeleteExpiredBefore removes sessions that expired before cutoff and
	// returns the count of deleted records.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeRecorder counts sessions removed by the janitor.
type PurgeRecorder interface {
	RecordSessionsPurged(n int64)
}

type noopPurgeRecorder struct{}

func (noopPurgeRecorder) RecordSessionsPurged(int64) {}

// SessionStore issues, validates, renews and expires sessions.
type SessionStore struct {
	sessions SessionRepository
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	purges   PurgeRecorder
}

// NewSessionStore creates a SessionStore. ttl <= 0 means DefaultSessionTTL.
func NewSessionStore(sessions SessionRepository, ttl time.Duration, opts ...Option) (*SessionStore, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("sessions repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	o := buildOptions(opts)
	return &SessionStore{
		sessions: sessions,
		ttl:      ttl,
		now:      o.now,
		logger:   o.logger,
		purges:   o.purges,
	}, nil
}

// TTL returns the session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create opens a new session for userID.
func (s *SessionStore) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	now := Timestamp(s.now())
	session := &Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return session, nil
}

// FindOneValidByToken returns the unexpired session holding token. Unknown
// and expired tokens give the same NotFoundError.
func (s *SessionStore) FindOneValidByToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, sessionNotFoundError(ErrNotFound)
	}
	session, err := s.sessions.GetValidByToken(ctx, token, Timestamp(s.now()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, sessionNotFoundError(err)
		}
		return nil, oops.Code("SESSION_LOOKUP_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}
	return session, nil
}

// Renew pushes the expiry of a valid session to now + TTL.
func (s *SessionStore) Renew(ctx context.Context, id uuid.UUID) (*Session, error) {
	now := Timestamp(s.now())
	return s.updateExpiry(ctx, id, now.Add(s.ttl), now, "renew session")
}

// ExpireByID ends a valid session immediately.
func (s *SessionStore) ExpireByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	now := Timestamp(s.now())
	return s.updateExpiry(ctx, id, now, now, "expire session")
}

func (s *SessionStore) updateExpiry(ctx context.Context, id uuid.UUID, expiresAt, now time.Time, operation string) (*Session, error) {
	session, err := s.sessions.UpdateExpiry(ctx, id, expiresAt, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, sessionNotFoundError(err)
		}
		return nil, oops.Code("SESSION_UPDATE_FAILED").
			With("operation", operation).
			With("session_id", id.String()).
			Wrap(err)
	}
	return session, nil
}

// PurgeExpired deletes sessions that expired more than retention ago.
func (s *SessionStore) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := Timestamp(s.now()).Add(-retention)
	n, err := s.sessions.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").
			With("cutoff", cutoff).
			Wrap(err)
	}
	return n, nil
}

// RunJanitor calls PurgeExpired every interval until ctx is done. Failures
// are logged and retried on the next tick.
func (s *SessionStore) RunJanitor(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx, retention)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.WarnContext(ctx, "session purge failed", "error", err)
				continue
			}
			s.purges.RecordSessionsPurged(n)
			if n > 0 {
				s.logger.InfoContext(ctx, "purged expired sessions", "count", n)
			}
		}
	}
}

func sessionNotFoundError(cause error) *Error {
	return NewNotFoundError(
		"The user does not have an active session.",
		"Check that this user is logged in and try again.",
		cause,
	)
}

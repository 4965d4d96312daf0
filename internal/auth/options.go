// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"log/slog"
	"time"
)

// Option configures the auth services.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	now      func() time.Time
	failures FailureRecorder
	purges   PurgeRecorder
}

// WithLogger sets the logger used for warnings. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now. Results are normalized by Timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithFailureRecorder sets the sink for authentication failure reasons.
func WithFailureRecorder(r FailureRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.failures = r
		}
	}
}

// WithPurgeRecorder sets the sink for janitor purge counts.
func WithPurgeRecorder(r PurgeRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.purges = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		now:      time.Now,
		failures: noopFailureRecorder{},
		purges:   noopPurgeRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Timestamp normalizes t to the precision stored by the database.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

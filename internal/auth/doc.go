// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides account registration, password verification and
// login sessions for accountd.
//
// # Domain Types
//
// User and Session are created by the services below; direct struct
// initialization bypasses validation. Repository implementations receive
// pre-validated values.
//
// # Services
//
//   - UserDirectory - registration, case-insensitive lookup, partial update
//   - SessionStore - session issue, validation, renewal, expiry and purge
//   - Authenticator - email and password verification with a single
//     client-facing failure
//
// Services are created with New* constructors that validate dependencies.
//
// # Errors
//
// Errors meant for API clients are *Error values carrying a Kind, a message
// and a suggested action. Everything else is an oops error with a code and
// context, rendered to clients as an internal error.
package auth

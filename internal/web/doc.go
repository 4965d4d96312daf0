// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web serves the accountd JSON API under /api/v1.
//
// Handlers are thin adapters over the auth services: they decode the body,
// call one or two service operations and render either the result or an
// auth.Error as {name, message, action, status_code}. Anything that is not
// an auth.Error is logged with its oops context and rendered as a generic
// InternalServerError.
//
// The session token travels in the session_id cookie. Login sets it, GET
// /api/v1/user refreshes it after renewing the session, and logout clears it.
package web

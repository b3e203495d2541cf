// Package api contains the client-side transport layer for SQL Parrot.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) covering the
//     whole backend surface: the session-authentication operations, settings,
//     connection management, groups, snapshots and history.
//  2. An HTTP implementation (see HTTPClient) speaking the REST envelope
//     under /api, attaching the session token as a Bearer header and mapping
//     transport failures to sentinel errors.
//  3. A desktop-bridge implementation (see BridgeClient) speaking
//     newline-delimited JSON over a Unix socket using the desktop runtime's
//     command names. This transport variant does not use bearer tokens; its
//     password check answers with a bare boolean.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized. Backend-rejected
// operations surface the first entry of the response's error-message list
// verbatim.
//
// Both response shapes of the password check (detailed object or bare
// boolean) are resolved here, at the transport boundary, into
// models.AuthCheck before they reach gate logic.
package api

// Package middleware exposes net/http adapters for authcore.Engine.
//
// # Guards
//
//   - [RequireSession] — bearer-token verification via Engine.VerifySession;
//     the session rides the request context and a re-signed token is
//     surfaced through the X-Session-Token response header.
//   - [RequireFresh] — authoritative re-check via Engine.RequireFresh for
//     privileged routes; runs inside RequireSession.
//   - [ClientIP] — stamps the caller's address into the context for the
//     login rate limiter and audit trail.
//
// This package translates HTTP semantics into Engine calls. It does not
// implement authentication logic itself; every decision is delegated to
// the engine.
package middleware

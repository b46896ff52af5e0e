// Package audit defines the audit event model and the asynchronous
// dispatcher that forwards events to a caller-supplied sink. Events cover
// the trust-sensitive paths: logins, rate-limit trips, revocations, role
// and status changes, and moderation actions.
//
// # What this package must NOT do
//
//   - Persist events. Durable audit storage is the sink implementer's
//     concern, not the core's.
//   - Block request paths: emission is buffered and, when configured,
//     drops under backpressure.
package audit

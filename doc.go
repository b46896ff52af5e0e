// Package authcore is the trust-maintenance core of a role-gated content
// moderation application. It keeps long-lived stateless sessions honest:
// signed tokens cache identity attributes, a lazy verifier re-validates
// them against authoritative storage on a jittered interval, a freshness
// guard bypasses the cache entirely for privileged operations, and a
// dual-guard rate limiter protects the password login path.
//
// Construction goes through the Builder:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithIdentityStore(identities).
//		WithPostStore(posts).
//		Build()
//
// Engines are safe for concurrent use; call Close on shutdown to stop
// the limiter sweep and drain the audit dispatcher.
package authcore

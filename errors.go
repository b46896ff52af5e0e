package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is the generic login failure: unknown email,
	// missing stored hash, federated account, or password mismatch all
	// collapse into it so the response does not leak which one happened.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeactivated is returned when the account resolved but is
	// administratively disabled. Deliberately distinguishable from
	// ErrInvalidCredentials.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrLoginRateLimited is the sentinel every *RateLimitError unwraps to.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrUnauthenticated is returned when no usable session or subject was
	// presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrIdentityNotFound is returned by the freshness guard when the
	// subject no longer resolves in authoritative storage.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrForbidden is returned when the caller is authenticated but its
	// current role is not in the allowed set.
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable is returned when an authoritative read or write
	// failed transiently. Guarded operations fail closed with it.
	ErrStoreUnavailable = errors.New("authoritative store unavailable")
	// ErrEmailExists is returned by CreateAccount for a duplicate email.
	ErrEmailExists = errors.New("email already registered")
	// ErrProviderMismatch rejects an OAuth sign-in against an identity
	// bound to a different provider. Allowing it would let control of one
	// provider account hijack another.
	ErrProviderMismatch = errors.New("identity bound to a different provider")
	// ErrSelfDeactivation rejects an administrator deactivating their own
	// account.
	ErrSelfDeactivation = errors.New("cannot deactivate own account")
	// ErrInvalidInput is returned for malformed account or post payloads.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPostNotFound is returned when a moderation target does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrEngineNotReady is returned when a partially constructed engine is
	// used.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Guard names which rate-limit counter tripped.
type Guard string

const (
	// GuardIP is the network-origin guard, evaluated first.
	GuardIP Guard = "ip"
	// GuardEmail is the target-identity guard.
	GuardEmail Guard = "email"
)

// RateLimitError reports a tripped login guard and the time remaining
// until that guard's window resets. It unwraps to ErrLoginRateLimited so
// callers can match with errors.Is without inspecting the guard.
type RateLimitError struct {
	Guard      Guard
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("login rate limited by %s guard, retry after %s", e.Guard, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrLoginRateLimited
}

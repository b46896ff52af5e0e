package identity

import (
	"context"
	"errors"
	"strings"
)

// Role is the account role stored in authoritative storage and mirrored
// into token claims. The set is closed: three roles, no runtime extension.
type Role string

const (
	// RoleSuperAdmin can manage identities, moderate content, and access
	// the admin area.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleAdmin can moderate content and access the admin area.
	RoleAdmin Role = "ADMIN"
	// RoleUser can create content only.
	RoleUser Role = "USER"
)

// AuthProvider records how an identity authenticates.
type AuthProvider string

const (
	// ProviderManual is email+password through the credential verifier.
	ProviderManual AuthProvider = "MANUAL"
	// ProviderGoogle is federated sign-in; such identities carry no
	// password hash and are rejected by the credential verifier.
	ProviderGoogle AuthProvider = "GOOGLE"
)

var (
	// ErrUnknownRole is returned by ParseRole for values outside the role enum.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownProvider is returned by ParseProvider for values outside the
	// provider enum.
	ErrUnknownProvider = errors.New("unknown auth provider")

	// ErrNotFound is returned by Store implementations when an identity does
	// not resolve. Lookup failures that are not ErrNotFound are treated as
	// transient by the token verifier and as unavailability by the freshness
	// guard.
	ErrNotFound = errors.New("identity not found")
	// ErrAlreadyExists is returned by Store.Create when the email is taken.
	ErrAlreadyExists = errors.New("identity already exists")
)

// Store is the authoritative-storage collaborator. Implementations live
// outside the core (see the store package for the Redis-backed one); the
// core only reads identities and performs the narrow updates below.
type Store interface {
	GetByID(ctx context.Context, id string) (Identity, error)
	GetByEmail(ctx context.Context, email string) (Identity, error)
	Create(ctx context.Context, ident Identity) error
	UpdateRole(ctx context.Context, id string, role Role) error
	UpdateActive(ctx context.Context, id string, active bool) error
	// UpdateProfile refreshes display fields only. Used by OAuth sign-in;
	// never touches role, active flag, or provider binding.
	UpdateProfile(ctx context.Context, id string, name, image string) error
}

// ParseRole validates a wire-level role string against the closed enum.
// Unknown values fail; callers must treat that as a hard rejection, never
// coerce to a default role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// ParseProvider validates a wire-level provider string.
func ParseProvider(s string) (AuthProvider, error) {
	switch AuthProvider(s) {
	case ProviderManual, ProviderGoogle:
		return AuthProvider(s), nil
	}
	return "", ErrUnknownProvider
}

// Identity is the durable record read from authoritative storage. It is
// ground truth for every authorization decision; token claims only cache
// a subset of it between verification intervals.
type Identity struct {
	ID    string
	Email string
	Name  string
	// Image is an avatar URL, supplied by the identity provider on
	// federated sign-in. Empty for manual accounts.
	Image        string
	Role         Role
	IsActive     bool
	AuthProvider AuthProvider

	// PasswordHash is empty for federated identities. It never leaves the
	// credential verifier.
	PasswordHash string
}

// NormalizeEmail lowercases and trims an email for use as a rate-limit
// key. Authoritative lookups do not use it; they match the stored value
// exactly.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

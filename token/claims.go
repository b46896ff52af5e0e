package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/modboard/authcore/identity"
)

// SchemaVersion is the current claim schema. Tokens carrying any other
// version are rejected at parse time rather than coerced.
const SchemaVersion = 1

var (
	// ErrMalformedClaims is returned when a token parses cryptographically
	// but its claim set fails schema validation. Verification failures never
	// fall back to a partial claim set.
	ErrMalformedClaims = errors.New("malformed token claims")
)

// Claims is the signed, client-held session state. The shape is fixed and
// versioned: every field is validated on deserialization and unknown role
// or provider values fail closed.
//
// Subject (RegisteredClaims.Subject) carries the identity id. LastVerified
// is epoch milliseconds; zero means the claims are due for authoritative
// re-verification on the next request.
type Claims struct {
	SchemaVersion int    `json:"v"`
	Role          string `json:"role"`
	Active        bool   `json:"act"`
	Provider      string `json:"prv"`
	LastVerified  int64  `json:"lvt"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Empty reports whether the claims represent no session. Revocation empties
// the claim set wholesale; consumers must treat an empty set as forced
// logout, not as a stale session.
func (c Claims) Empty() bool {
	return c.RegisteredClaims.Subject == ""
}

// validate enforces the fixed schema. Called after signature verification;
// a malformed claim set is indistinguishable from an invalid token to the
// caller.
func (c Claims) validate() error {
	if c.SchemaVersion != SchemaVersion {
		return ErrMalformedClaims
	}
	if c.Subject == "" {
		return ErrMalformedClaims
	}
	if _, err := identity.ParseRole(c.Role); err != nil {
		return ErrMalformedClaims
	}
	if _, err := identity.ParseProvider(c.Provider); err != nil {
		return ErrMalformedClaims
	}
	if c.LastVerified < 0 {
		return ErrMalformedClaims
	}
	return nil
}

// Session is the read-only projection of Claims handed to application
// code. Derived, never persisted; recomputed on every access.
type Session struct {
	ID           string
	Role         identity.Role
	IsActive     bool
	AuthProvider identity.AuthProvider
	Name         string
	Email        string
	Permissions  identity.Permissions
}

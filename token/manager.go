package token

import (
	"context"
	"crypto/ed25519"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/modboard/authcore/identity"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodEd25519 is the default.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 uses a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

// LookupFunc reads the authoritative identity for a subject id. It must
// return identity.ErrNotFound (possibly wrapped) when the id does not
// resolve; any other error is treated as a transient storage failure.
type LookupFunc func(ctx context.Context, id string) (identity.Identity, error)

// Config holds token lifecycle tuning.
//
// BaseInterval and JitterMax control lazy re-verification: a claim set is
// due at lastVerified + BaseInterval + uniform(0, JitterMax). The jitter
// spreads re-check traffic from tokens issued in the same instant so the
// authoritative store does not see synchronized read spikes.
type Config struct {
	BaseInterval time.Duration // default 5m
	JitterMax    time.Duration // default 60s
	SessionTTL   time.Duration // token expiry, default 30 days

	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration

	// JitterFunc overrides the jitter source, for deterministic tests.
	// nil means uniform(0, JitterMax).
	JitterFunc func() time.Duration

	// Now overrides the clock Parse validates iat/exp against. nil means
	// time.Now. Must match the clock callers pass to Sign, or tokens
	// signed under an injected clock are rejected by wall time.
	Now func() time.Time
}

// Outcome reports what a Verify call did, mirroring the claim state
// machine: Issued/Verified claims inside their interval are skipped,
// elapsed ones are re-verified or revoked, unreachable storage defers.
type Outcome uint8

const (
	// OutcomeSkipped means the interval had not elapsed; zero storage reads.
	OutcomeSkipped Outcome = iota
	// OutcomeVerified means claims were refreshed from authoritative storage.
	OutcomeVerified
	// OutcomeRevoked means the identity is missing or inactive; the returned
	// claims are empty and the session must be treated as unauthenticated.
	OutcomeRevoked
	// OutcomeDeferred means the authoritative read failed transiently; the
	// previous claims are kept unchanged and the next request retries.
	OutcomeDeferred
)

// Manager owns the claim lifecycle: it populates claims at login, lazily
// re-validates them against authoritative storage, and prunes them to the
// public Session projection. Issue, Sign, and Verify take now explicitly,
// which keeps them deterministic under test; Parse validates expiry
// against the configured clock.
type Manager struct {
	cfg    Config
	lookup LookupFunc
	jitter func() time.Duration
	now    func() time.Time
	warn   func(format string, args ...any)
}

// NewManager validates cfg and binds the authoritative lookup.
func NewManager(cfg Config, lookup LookupFunc) (*Manager, error) {
	if lookup == nil {
		return nil, errors.New("token: lookup required")
	}
	if cfg.BaseInterval <= 0 {
		return nil, errors.New("token: BaseInterval must be > 0")
	}
	if cfg.JitterMax < 0 {
		return nil, errors.New("token: JitterMax must be >= 0")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("token: SessionTTL must be > 0")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token: invalid Leeway")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("token: hs256 requires PrivateKey")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("token: invalid ed25519 private key")
		}
		if len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("token: invalid ed25519 public key")
		}
	default:
		return nil, errors.New("token: unsupported signing method")
	}

	m := &Manager{cfg: cfg, lookup: lookup}
	m.jitter = cfg.JitterFunc
	if m.jitter == nil {
		m.jitter = func() time.Duration {
			if cfg.JitterMax <= 0 {
				return 0
			}
			return time.Duration(rand.Int64N(int64(cfg.JitterMax)))
		}
	}
	m.now = cfg.Now
	if m.now == nil {
		m.now = time.Now
	}
	m.warn = func(string, ...any) {}
	return m, nil
}

// SetWarnFunc installs a logging hook for deferred verifications. A nil
// hook disables it.
func (m *Manager) SetWarnFunc(warn func(format string, args ...any)) {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	m.warn = warn
}

// Issue populates a claim set from a freshly authenticated identity.
// Transition: Unset -> Issued.
func (m *Manager) Issue(ident identity.Identity, now time.Time) Claims {
	return Claims{
		SchemaVersion: SchemaVersion,
		Role:          string(ident.Role),
		Active:        ident.IsActive,
		Provider:      string(ident.AuthProvider),
		LastVerified:  now.UnixMilli(),
		Name:          ident.Name,
		Email:         ident.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: ident.ID,
		},
	}
}

// Verify lazily re-validates claims against authoritative storage.
//
// Inside the verification interval it returns the claims unchanged with
// zero storage reads. Once due, it re-reads the identity: missing or
// inactive revokes the session (empty claims), a live record overwrites
// role, active flag, and provider and stamps LastVerified. A transient
// read failure keeps the previous claims and timestamp so the next
// request retries instead of forcing logout; staleness is bounded by the
// interval, never extended indefinitely.
func (m *Manager) Verify(ctx context.Context, claims Claims, now time.Time) (Claims, Outcome) {
	if claims.Empty() {
		return Claims{}, OutcomeRevoked
	}

	if claims.LastVerified > 0 {
		dueAt := time.UnixMilli(claims.LastVerified).Add(m.cfg.BaseInterval + m.jitter())
		if now.Before(dueAt) {
			return claims, OutcomeSkipped
		}
	}

	ident, err := m.lookup(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return Claims{}, OutcomeRevoked
		}
		m.warn("token: verification deferred for subject %s: %v", claims.Subject, err)
		return claims, OutcomeDeferred
	}
	if !ident.IsActive {
		return Claims{}, OutcomeRevoked
	}

	claims.Role = string(ident.Role)
	claims.Active = ident.IsActive
	claims.Provider = string(ident.AuthProvider)
	claims.LastVerified = now.UnixMilli()
	return claims, OutcomeVerified
}

// ApplyClientUpdate handles a client-initiated "refresh my session"
// trigger. Client-proposed field values are never merged into the claims;
// the update only zeroes LastVerified so the next Verify performs a real
// authoritative read. Merging proposed role or status here would be a
// privilege escalation.
func (m *Manager) ApplyClientUpdate(claims Claims, _ Session) Claims {
	claims.LastVerified = 0
	return claims
}

// Project derives the read-only session view from claims. Pure, total,
// side-effect free; empty claims project to the zero Session.
func (m *Manager) Project(claims Claims) Session {
	if claims.Empty() {
		return Session{}
	}
	role := identity.Role(claims.Role)
	return Session{
		ID:           claims.Subject,
		Role:         role,
		IsActive:     claims.Active,
		AuthProvider: identity.AuthProvider(claims.Provider),
		Name:         claims.Name,
		Email:        claims.Email,
		Permissions:  identity.PermissionsFor(role),
	}
}

// Sign serializes and signs claims, stamping issuer, issue time, and
// expiry from the manager config.
func (m *Manager) Sign(claims Claims, now time.Time) (string, error) {
	claims.Issuer = m.cfg.Issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.cfg.SessionTTL))

	tok := jwt.NewWithClaims(m.method(), claims)
	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(key)
}

// Parse verifies a signed token and validates its claim schema. Unknown
// schema versions, roles, or providers fail closed.
func (m *Manager) Parse(tokenStr string) (Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.cfg.Leeway))
	}
	if m.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.cfg.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.verifyKey()
	})
	if err != nil {
		return Claims{}, err
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	if err := claims.validate(); err != nil {
		return Claims{}, err
	}
	return *claims, nil
}

func (m *Manager) method() jwt.SigningMethod {
	if m.cfg.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (m *Manager) signKey() (interface{}, error) {
	if m.cfg.SigningMethod == MethodHS256 {
		return m.cfg.PrivateKey, nil
	}
	return ed25519.PrivateKey(m.cfg.PrivateKey), nil
}

func (m *Manager) verifyKey() (interface{}, error) {
	if m.cfg.SigningMethod == MethodHS256 {
		return m.cfg.PrivateKey, nil
	}
	return ed25519.PublicKey(m.cfg.PublicKey), nil
}

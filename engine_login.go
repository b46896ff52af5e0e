package authcore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/modboard/authcore/identity"
	"github.com/modboard/authcore/internal/rate"
)

// Login authenticates an email+password pair and returns a signed token
// plus the session projection.
//
// The rate limiter is consulted before any credential work: the IP guard
// first, then the email guard, and a tripped guard aborts without
// recording the attempt anywhere else. All credential failures collapse
// into ErrInvalidCredentials; only a deactivated account is reported
// distinctly, because that case drives a user-facing message.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (string, *Session, error) {
	if e == nil || e.hasher == nil || e.tokens == nil {
		return "", nil, ErrEngineNotReady
	}

	ip := req.IP
	if ip == "" {
		ip = clientIPFromContext(ctx)
	}

	if e.limiter != nil {
		if err := e.limiter.Check(ip, req.Email); err != nil {
			var limitErr *rate.LimitError
			if errors.As(err, &limitErr) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrLoginRateLimited, func() map[string]string {
					return map[string]string{
						"email": identity.NormalizeEmail(req.Email),
						"guard": string(limitErr.Guard),
					}
				})
				return "", nil, &RateLimitError{
					Guard:      Guard(limitErr.Guard),
					RetryAfter: limitErr.RetryAfter,
				}
			}
			return "", nil, err
		}
	}

	if req.Email == "" || req.Password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "empty_input"}
		})
		return "", nil, ErrInvalidCredentials
	}

	ident, err := e.identities.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
				return map[string]string{"reason": "unknown_email"}
			})
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Join(ErrStoreUnavailable, err)
	}

	// An identity without a stored hash fails exactly like an unknown
	// email, so a probe cannot learn whether the account exists.
	if ident.PasswordHash == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, ident.ID, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "no_password"}
		})
		return "", nil, ErrInvalidCredentials
	}

	if !ident.IsActive {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, ident.ID, "", ErrAccountDeactivated, func() map[string]string {
			return map[string]string{"reason": "deactivated"}
		})
		return "", nil, ErrAccountDeactivated
	}

	// An identity bound to a federated provider never takes the password
	// path, whatever its record carries; the failure stays generic so the
	// response does not reveal which provider an email uses.
	if ident.AuthProvider != identity.ProviderManual {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, ident.ID, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "provider_bound"}
		})
		return "", nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(req.Password, ident.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, ident.ID, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "password_mismatch"}
		})
		return "", nil, ErrInvalidCredentials
	}

	return e.issueSession(ctx, ident, auditEventLoginSuccess, MetricLoginSuccess)
}

// LoginOAuth handles a federated sign-in with an upstream-verified
// profile.
//
// An existing identity bound to a different provider is denied outright;
// accepting it would let whoever controls the OAuth account take over a
// password account with the same email. A matching identity gets a
// narrow profile refresh (display name and avatar only), and an unknown
// email is provisioned as an active USER bound to the profile's
// provider.
//
// There is no rate limiter on this path: the upstream identity provider
// already throttles and the profile arrives pre-authenticated.
func (e *Engine) LoginOAuth(ctx context.Context, profile OAuthProfile) (string, *Session, error) {
	if e == nil || e.tokens == nil {
		return "", nil, ErrEngineNotReady
	}
	if profile.Email == "" || profile.Provider == identity.ProviderManual {
		return "", nil, ErrInvalidInput
	}
	if _, err := identity.ParseProvider(string(profile.Provider)); err != nil {
		return "", nil, ErrInvalidInput
	}

	ident, err := e.identities.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if ident.AuthProvider != profile.Provider {
			e.metricInc(MetricOAuthDenied)
			e.emitAudit(ctx, auditEventOAuthDenied, false, ident.ID, "", ErrProviderMismatch, func() map[string]string {
				return map[string]string{
					"bound_provider":    string(ident.AuthProvider),
					"asserted_provider": string(profile.Provider),
				}
			})
			return "", nil, ErrProviderMismatch
		}
		name, image := ident.Name, ident.Image
		if profile.Name != "" {
			name = profile.Name
		}
		if profile.Image != "" {
			image = profile.Image
		}
		if name != ident.Name || image != ident.Image {
			// Display refresh is best-effort; a stale name must not block
			// sign-in.
			if err := e.identities.UpdateProfile(ctx, ident.ID, name, image); err == nil {
				ident.Name, ident.Image = name, image
			}
		}
	case errors.Is(err, identity.ErrNotFound):
		ident = identity.Identity{
			ID:           uuid.NewString(),
			Email:        profile.Email,
			Name:         profile.Name,
			Image:        profile.Image,
			Role:         identity.RoleUser,
			IsActive:     true,
			AuthProvider: profile.Provider,
		}
		if err := e.identities.Create(ctx, ident); err != nil {
			if !errors.Is(err, identity.ErrAlreadyExists) {
				return "", nil, errors.Join(ErrStoreUnavailable, err)
			}
			// Lost a provisioning race; re-read and re-run the binding check.
			ident, err = e.identities.GetByEmail(ctx, profile.Email)
			if err != nil {
				return "", nil, errors.Join(ErrStoreUnavailable, err)
			}
			if ident.AuthProvider != profile.Provider {
				e.metricInc(MetricOAuthDenied)
				e.emitAudit(ctx, auditEventOAuthDenied, false, ident.ID, "", ErrProviderMismatch, nil)
				return "", nil, ErrProviderMismatch
			}
		}
	default:
		return "", nil, errors.Join(ErrStoreUnavailable, err)
	}

	if !ident.IsActive {
		e.metricInc(MetricOAuthDenied)
		e.emitAudit(ctx, auditEventOAuthDenied, false, ident.ID, "", ErrAccountDeactivated, nil)
		return "", nil, ErrAccountDeactivated
	}

	return e.issueSession(ctx, ident, auditEventOAuthSuccess, MetricOAuthSuccess)
}

func (e *Engine) issueSession(ctx context.Context, ident identity.Identity, auditAction string, metric MetricID) (string, *Session, error) {
	now := e.clock()
	claims := e.tokens.Issue(ident, now)

	signed, err := e.tokens.Sign(claims, now)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return "", nil, err
	}

	sess := e.tokens.Project(claims)
	e.metricInc(MetricTokenIssued)
	e.metricInc(metric)
	e.emitAudit(ctx, auditAction, true, ident.ID, "", nil, nil)

	return signed, &sess, nil
}

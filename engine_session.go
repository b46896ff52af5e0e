package authcore

import (
	"context"
	"time"

	"github.com/modboard/authcore/token"
)

// VerifySession parses a signed token, lazily re-validates its claims
// against authoritative storage, and returns the (possibly re-signed)
// token plus the session projection.
//
// Inside the verification interval the token comes back unchanged with
// zero storage reads. Once the interval has elapsed, a live identity
// refreshes the cached role/status and the token is re-signed; a missing
// or deactivated identity revokes the session (ErrUnauthenticated); a
// transient store failure keeps the previous claims so the next request
// retries instead of logging the user out.
func (e *Engine) VerifySession(ctx context.Context, tokenStr string) (string, *Session, error) {
	if e == nil || e.tokens == nil {
		return "", nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricVerifyLatency, time.Since(start))
		}()
	}

	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		return "", nil, ErrUnauthenticated
	}

	return e.verifyClaims(ctx, tokenStr, claims, false)
}

// RefreshSession handles a client-initiated session update. Whatever
// field values the client proposed are discarded; the only effect is
// forcing the next verification to hit authoritative storage, so the
// returned session is freshly read server truth.
func (e *Engine) RefreshSession(ctx context.Context, tokenStr string, proposed Session) (string, *Session, error) {
	if e == nil || e.tokens == nil {
		return "", nil, ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		return "", nil, ErrUnauthenticated
	}

	claims = e.tokens.ApplyClientUpdate(claims, proposed)
	return e.verifyClaims(ctx, tokenStr, claims, true)
}

// verifyClaims runs the shared verify-and-resign path. forceSign makes a
// deferred outcome persist the zeroed verification timestamp into the
// returned token, so a client-forced refresh keeps retrying on the next
// request even when the authoritative read failed this time.
func (e *Engine) verifyClaims(ctx context.Context, tokenStr string, claims token.Claims, forceSign bool) (string, *Session, error) {
	now := e.clock()
	verified, outcome := e.tokens.Verify(ctx, claims, now)

	switch outcome {
	case token.OutcomeRevoked:
		e.metricInc(MetricTokenRevoked)
		e.emitAudit(ctx, auditEventSessionRevoked, true, claims.Subject, "", nil, nil)
		return "", nil, ErrUnauthenticated
	case token.OutcomeDeferred:
		e.metricInc(MetricTokenDeferred)
		if forceSign {
			resigned, err := e.tokens.Sign(verified, now)
			if err != nil {
				return "", nil, err
			}
			tokenStr = resigned
		}
	case token.OutcomeVerified:
		e.metricInc(MetricTokenVerified)
		resigned, err := e.tokens.Sign(verified, now)
		if err != nil {
			return "", nil, err
		}
		tokenStr = resigned
	}

	sess := e.tokens.Project(verified)
	return tokenStr, &sess, nil
}

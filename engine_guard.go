package authcore

import (
	"context"
	"errors"
	"slices"

	"github.com/modboard/authcore/identity"
)

// RequireFresh is the authorization gate for privileged operations. It
// never trusts session-cached claims: every call reads the subject from
// authoritative storage, so a role change or deactivation takes effect
// immediately regardless of what the caller's token still says.
//
// It fails with ErrUnauthenticated for an empty subject,
// ErrIdentityNotFound when the subject does not resolve,
// ErrAccountDeactivated for a disabled account, and ErrForbidden when
// roles is non-empty and the current role is not in it. A failed
// authoritative read fails closed with ErrStoreUnavailable.
func (e *Engine) RequireFresh(ctx context.Context, subjectID string, roles ...Role) (Identity, error) {
	if e == nil || e.identities == nil {
		return Identity{}, ErrEngineNotReady
	}
	if subjectID == "" {
		e.metricInc(MetricFreshDenied)
		return Identity{}, ErrUnauthenticated
	}

	ident, err := e.identities.GetByID(ctx, subjectID)
	if err != nil {
		e.metricInc(MetricFreshDenied)
		if errors.Is(err, identity.ErrNotFound) {
			e.emitAudit(ctx, auditEventFreshDenied, false, subjectID, "", ErrIdentityNotFound, nil)
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, errors.Join(ErrStoreUnavailable, err)
	}

	if !ident.IsActive {
		e.metricInc(MetricFreshDenied)
		e.emitAudit(ctx, auditEventFreshDenied, false, subjectID, "", ErrAccountDeactivated, nil)
		return Identity{}, ErrAccountDeactivated
	}

	if len(roles) > 0 && !slices.Contains(roles, ident.Role) {
		e.metricInc(MetricFreshDenied)
		e.emitAudit(ctx, auditEventFreshDenied, false, subjectID, "", ErrForbidden, func() map[string]string {
			return map[string]string{"role": string(ident.Role)}
		})
		return Identity{}, ErrForbidden
	}

	e.metricInc(MetricFreshGranted)
	return ident, nil
}

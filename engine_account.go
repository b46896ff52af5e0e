package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/modboard/authcore/identity"
)

// CreateAccount provisions a password account. SUPER_ADMIN only, checked
// fresh against authoritative storage.
func (e *Engine) CreateAccount(ctx context.Context, actorID string, req CreateAccountRequest) (Identity, error) {
	if e == nil || e.hasher == nil {
		return Identity{}, ErrEngineNotReady
	}
	if _, err := e.RequireFresh(ctx, actorID, identity.RoleSuperAdmin); err != nil {
		return Identity{}, err
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return Identity{}, ErrInvalidInput
	}
	if len(req.Password) < 8 {
		return Identity{}, ErrInvalidInput
	}
	if _, err := identity.ParseRole(string(req.Role)); err != nil {
		return Identity{}, ErrInvalidInput
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return Identity{}, ErrInvalidInput
	}

	ident := identity.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         req.Role,
		IsActive:     true,
		AuthProvider: identity.ProviderManual,
		PasswordHash: hash,
	}

	if err := e.identities.Create(ctx, ident); err != nil {
		if errors.Is(err, identity.ErrAlreadyExists) {
			return Identity{}, ErrEmailExists
		}
		return Identity{}, errors.Join(ErrStoreUnavailable, err)
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, actorID, ident.ID, nil, func() map[string]string {
		return map[string]string{"role": string(ident.Role)}
	})

	// The hash stays in storage; the returned record never carries it.
	ident.PasswordHash = ""
	return ident, nil
}

// ChangeRole updates the target's role. SUPER_ADMIN only. The change is
// picked up by live sessions at their next verification; RequireFresh
// callers see it immediately.
func (e *Engine) ChangeRole(ctx context.Context, actorID, targetID string, role Role) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if _, err := e.RequireFresh(ctx, actorID, identity.RoleSuperAdmin); err != nil {
		return err
	}
	if _, err := identity.ParseRole(string(role)); err != nil {
		return ErrInvalidInput
	}

	if err := e.identities.UpdateRole(ctx, targetID, role); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrIdentityNotFound
		}
		return errors.Join(ErrStoreUnavailable, err)
	}

	e.metricInc(MetricRoleChanged)
	e.emitAudit(ctx, auditEventRoleChanged, true, actorID, targetID, nil, func() map[string]string {
		return map[string]string{"role": string(role)}
	})
	return nil
}

// SetActiveStatus enables or disables the target account. SUPER_ADMIN
// only; deactivating yourself is rejected so the last administrator
// cannot lock everyone out.
func (e *Engine) SetActiveStatus(ctx context.Context, actorID, targetID string, active bool) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if _, err := e.RequireFresh(ctx, actorID, identity.RoleSuperAdmin); err != nil {
		return err
	}
	if !active && actorID == targetID {
		return ErrSelfDeactivation
	}

	if err := e.identities.UpdateActive(ctx, targetID, active); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrIdentityNotFound
		}
		return errors.Join(ErrStoreUnavailable, err)
	}

	e.metricInc(MetricStatusChanged)
	e.emitAudit(ctx, auditEventStatusChanged, true, actorID, targetID, nil, func() map[string]string {
		if active {
			return map[string]string{"active": "true"}
		}
		return map[string]string{"active": "false"}
	})
	return nil
}

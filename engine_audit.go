package authcore

import (
	"context"

	"github.com/modboard/authcore/internal/audit"
)

const (
	auditEventLoginSuccess     = "login.success"
	auditEventLoginFailure     = "login.failure"
	auditEventLoginRateLimited = "login.rate_limited"
	auditEventOAuthSuccess     = "login.oauth.success"
	auditEventOAuthDenied      = "login.oauth.denied"
	auditEventSessionRevoked   = "session.revoked"
	auditEventFreshDenied      = "guard.denied"
	auditEventAccountCreated   = "account.created"
	auditEventRoleChanged      = "account.role_changed"
	auditEventStatusChanged    = "account.status_changed"
	auditEventPostCreated      = "post.created"
	auditEventPostModerated    = "post.moderated"
)

// emitAudit queues one audit event. metadata is lazily built so disabled
// audit costs nothing on the request path.
func (e *Engine) emitAudit(ctx context.Context, action string, success bool, actorID, targetID string, opErr error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := audit.Event{
		Action:   action,
		ActorID:  actorID,
		TargetID: targetID,
		IP:       clientIPFromContext(ctx),
		Success:  success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}

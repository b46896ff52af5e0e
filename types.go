package authcore

import (
	"github.com/modboard/authcore/content"
	"github.com/modboard/authcore/identity"
	"github.com/modboard/authcore/internal/audit"
	"github.com/modboard/authcore/token"
)

// Re-exported domain types so callers wiring the engine do not have to
// import every sub-package.
type (
	// Session is the read-only projection handed to request handlers.
	Session = token.Session
	// Identity is the authoritative account record.
	Identity = identity.Identity
	// Role is the closed account role enum.
	Role = identity.Role
	// AuthProvider records how an identity authenticates.
	AuthProvider = identity.AuthProvider
	// Permissions is the role-derived capability matrix.
	Permissions = identity.Permissions
	// Post is a moderated content item.
	Post = content.Post

	// AuditEvent is a single trust-relevant occurrence.
	AuditEvent = audit.Event
	// AuditSink receives emitted audit events.
	AuditSink = audit.Sink
	// NoOpSink drops audit events.
	NoOpSink = audit.NoOpSink
)

const (
	RoleSuperAdmin = identity.RoleSuperAdmin
	RoleAdmin      = identity.RoleAdmin
	RoleUser       = identity.RoleUser

	ProviderManual = identity.ProviderManual
	ProviderGoogle = identity.ProviderGoogle
)

// LoginRequest carries one password login attempt. IP feeds the first
// rate-limit guard; when empty, the engine falls back to the context IP
// attached via WithClientIP.
type LoginRequest struct {
	Email    string
	Password string
	IP       string
}

// OAuthProfile is the subset of an upstream identity-provider profile the
// engine consumes on federated sign-in.
type OAuthProfile struct {
	Email    string
	Name     string
	Image    string
	Provider AuthProvider
}

// CreateAccountRequest carries a privileged account creation.
type CreateAccountRequest struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// CreatePostRequest carries a new content submission.
type CreatePostRequest struct {
	Title   string
	Content string
}

// ModerateDecision is the moderator verdict on a pending post.
type ModerateDecision string

const (
	// DecisionApprove publishes the post.
	DecisionApprove ModerateDecision = "approve"
	// DecisionReject removes the post permanently.
	DecisionReject ModerateDecision = "reject"
)

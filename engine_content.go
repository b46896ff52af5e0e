package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/modboard/authcore/content"
	"github.com/modboard/authcore/identity"
)

const (
	maxPostTitleLen   = 200
	maxPostContentLen = 5000
)

// CreatePost accepts a content submission from an active account. Every
// role may create content per the permission matrix, but the matrix is
// consulted rather than assumed so tightening it later needs no change
// here. New posts always start unapproved.
func (e *Engine) CreatePost(ctx context.Context, actorID string, req CreatePostRequest) (Post, error) {
	if e == nil || e.posts == nil {
		return Post{}, ErrEngineNotReady
	}

	actor, err := e.RequireFresh(ctx, actorID)
	if err != nil {
		return Post{}, err
	}
	if !identity.PermissionsFor(actor.Role).CanCreateContent {
		return Post{}, ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Content)
	if title == "" || len(title) > maxPostTitleLen {
		return Post{}, ErrInvalidInput
	}
	if body == "" || len(body) > maxPostContentLen {
		return Post{}, ErrInvalidInput
	}

	post := content.Post{
		ID:        uuid.NewString(),
		AuthorID:  actor.ID,
		Title:     title,
		Content:   body,
		Approved:  false,
		CreatedAt: e.clock(),
	}

	if err := e.posts.Create(ctx, post); err != nil {
		return Post{}, errors.Join(ErrStoreUnavailable, err)
	}

	e.metricInc(MetricPostCreated)
	e.emitAudit(ctx, auditEventPostCreated, true, actorID, post.ID, nil, nil)
	return post, nil
}

// ModeratePost applies a moderator verdict to a pending post: approve
// publishes it, reject deletes it. ADMIN or SUPER_ADMIN, checked fresh.
func (e *Engine) ModeratePost(ctx context.Context, actorID, postID string, decision ModerateDecision) error {
	if e == nil || e.posts == nil {
		return ErrEngineNotReady
	}
	if _, err := e.RequireFresh(ctx, actorID, identity.RoleAdmin, identity.RoleSuperAdmin); err != nil {
		return err
	}

	var err error
	var metric MetricID
	switch decision {
	case DecisionApprove:
		err = e.posts.Approve(ctx, postID)
		metric = MetricPostApproved
	case DecisionReject:
		err = e.posts.Delete(ctx, postID)
		metric = MetricPostRejected
	default:
		return ErrInvalidInput
	}

	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return ErrPostNotFound
		}
		return errors.Join(ErrStoreUnavailable, err)
	}

	e.metricInc(metric)
	e.emitAudit(ctx, auditEventPostModerated, true, actorID, postID, nil, func() map[string]string {
		return map[string]string{"decision": string(decision)}
	})
	return nil
}

// ListPendingPosts returns the moderation queue, newest first. ADMIN or
// SUPER_ADMIN, checked fresh.
func (e *Engine) ListPendingPosts(ctx context.Context, actorID string) ([]Post, error) {
	if e == nil || e.posts == nil {
		return nil, ErrEngineNotReady
	}
	if _, err := e.RequireFresh(ctx, actorID, identity.RoleAdmin, identity.RoleSuperAdmin); err != nil {
		return nil, err
	}

	posts, err := e.posts.ListPending(ctx)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return posts, nil
}

// ListApprovedPosts returns the public wall, newest first. No guard: the
// wall is readable by anyone.
func (e *Engine) ListApprovedPosts(ctx context.Context) ([]Post, error) {
	if e == nil || e.posts == nil {
		return nil, ErrEngineNotReady
	}

	posts, err := e.posts.ListApproved(ctx)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return posts, nil
}

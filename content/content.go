// Package content holds the post model and the storage collaborator
// interface for the moderation wall.
package content

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store implementations when a post does not
// resolve.
var ErrNotFound = errors.New("post not found")

// Post is a wall entry. Posts start unapproved and become visible only
// after a moderator approves them; rejection deletes the post outright.
type Post struct {
	ID        string
	AuthorID  string
	Title     string
	Content   string
	Approved  bool
	CreatedAt time.Time
}

// Store is the post storage collaborator.
type Store interface {
	Create(ctx context.Context, post Post) error
	GetByID(ctx context.Context, id string) (Post, error)
	Approve(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ListPending(ctx context.Context) ([]Post, error)
	ListApproved(ctx context.Context) ([]Post, error)
}

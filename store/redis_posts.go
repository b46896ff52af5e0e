package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/modboard/authcore/content"
)

// RedisPosts implements content.Store over a Redis client. Posts are
// JSON records; pending/approved membership lives in two sets.
type RedisPosts struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisPosts wraps client. An empty prefix defaults to "mb".
func NewRedisPosts(client redis.UniversalClient, prefix string) *RedisPosts {
	if prefix == "" {
		prefix = "mb"
	}
	return &RedisPosts{client: client, prefix: prefix}
}

type postRecord struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Approved  bool   `json:"approved"`
	CreatedAt int64  `json:"created_at"` // epoch ms
}

func (r *RedisPosts) postKey(id string) string {
	return r.prefix + ":post:" + id
}

func (r *RedisPosts) pendingKey() string {
	return r.prefix + ":posts:pending"
}

func (r *RedisPosts) approvedKey() string {
	return r.prefix + ":posts:approved"
}

// Create stores the post and indexes it as pending or approved.
func (r *RedisPosts) Create(ctx context.Context, post content.Post) error {
	data, err := json.Marshal(encodePost(post))
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.postKey(post.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("store: create post: %w", err)
	}
	index := r.pendingKey()
	if post.Approved {
		index = r.approvedKey()
	}
	if err := r.client.SAdd(ctx, index, post.ID).Err(); err != nil {
		return fmt.Errorf("store: index post: %w", err)
	}
	return nil
}

// GetByID reads a post record.
func (r *RedisPosts) GetByID(ctx context.Context, id string) (content.Post, error) {
	data, err := r.client.Get(ctx, r.postKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return content.Post{}, content.ErrNotFound
		}
		return content.Post{}, fmt.Errorf("store: get post: %w", err)
	}
	var rec postRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return content.Post{}, fmt.Errorf("store: corrupt post record: %w", err)
	}
	return decodePost(rec), nil
}

// Approve flips the approved flag and moves the id between indexes.
func (r *RedisPosts) Approve(ctx context.Context, id string) error {
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	post.Approved = true

	data, err := json.Marshal(encodePost(post))
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.postKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("store: approve post: %w", err)
	}
	if err := r.client.SMove(ctx, r.pendingKey(), r.approvedKey(), id).Err(); err != nil {
		return fmt.Errorf("store: reindex post: %w", err)
	}
	return nil
}

// Delete removes the post and both index memberships.
func (r *RedisPosts) Delete(ctx context.Context, id string) error {
	removed, err := r.client.Del(ctx, r.postKey(id)).Result()
	if err != nil {
		return fmt.Errorf("store: delete post: %w", err)
	}
	if removed == 0 {
		return content.ErrNotFound
	}
	if err := r.client.SRem(ctx, r.pendingKey(), id).Err(); err != nil {
		return fmt.Errorf("store: unindex post: %w", err)
	}
	if err := r.client.SRem(ctx, r.approvedKey(), id).Err(); err != nil {
		return fmt.Errorf("store: unindex post: %w", err)
	}
	return nil
}

// ListPending returns unapproved posts, newest first.
func (r *RedisPosts) ListPending(ctx context.Context) ([]content.Post, error) {
	return r.listIndexed(ctx, r.pendingKey())
}

// ListApproved returns approved posts, newest first.
func (r *RedisPosts) ListApproved(ctx context.Context) ([]content.Post, error) {
	return r.listIndexed(ctx, r.approvedKey())
}

func (r *RedisPosts) listIndexed(ctx context.Context, index string) ([]content.Post, error) {
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("store: list posts: %w", err)
	}

	posts := make([]content.Post, 0, len(ids))
	for _, id := range ids {
		post, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				// index lag after a delete; skip
				continue
			}
			return nil, err
		}
		posts = append(posts, post)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func encodePost(post content.Post) postRecord {
	return postRecord{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		Content:   post.Content,
		Approved:  post.Approved,
		CreatedAt: post.CreatedAt.UnixMilli(),
	}
}

func decodePost(rec postRecord) content.Post {
	return content.Post{
		ID:        rec.ID,
		AuthorID:  rec.AuthorID,
		Title:     rec.Title,
		Content:   rec.Content,
		Approved:  rec.Approved,
		CreatedAt: time.UnixMilli(rec.CreatedAt),
	}
}

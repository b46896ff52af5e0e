package store

import (
	"context"
	"sort"
	"sync"

	"github.com/modboard/authcore/content"
	"github.com/modboard/authcore/identity"
)

// MemoryIdentity implements identity.Store in process memory. Used by
// tests and single-node deployments that do not want Redis.
type MemoryIdentity struct {
	mu      sync.RWMutex
	users   map[string]identity.Identity
	byEmail map[string]string
}

// NewMemoryIdentity returns an empty in-memory identity store.
func NewMemoryIdentity() *MemoryIdentity {
	return &MemoryIdentity{
		users:   make(map[string]identity.Identity),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryIdentity) GetByID(_ context.Context, id string) (identity.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ident, ok := m.users[id]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return ident, nil
}

func (m *MemoryIdentity) GetByEmail(_ context.Context, email string) (identity.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemoryIdentity) Create(_ context.Context, ident identity.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[ident.Email]; taken {
		return identity.ErrAlreadyExists
	}
	m.byEmail[ident.Email] = ident.ID
	m.users[ident.ID] = ident
	return nil
}

func (m *MemoryIdentity) UpdateRole(_ context.Context, id string, role identity.Role) error {
	return m.mutate(id, func(ident *identity.Identity) {
		ident.Role = role
	})
}

func (m *MemoryIdentity) UpdateActive(_ context.Context, id string, active bool) error {
	return m.mutate(id, func(ident *identity.Identity) {
		ident.IsActive = active
	})
}

func (m *MemoryIdentity) UpdateProfile(_ context.Context, id string, name, image string) error {
	return m.mutate(id, func(ident *identity.Identity) {
		ident.Name = name
		ident.Image = image
	})
}

func (m *MemoryIdentity) mutate(id string, fn func(*identity.Identity)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ident, ok := m.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	fn(&ident)
	m.users[id] = ident
	return nil
}

// MemoryPosts implements content.Store in process memory.
type MemoryPosts struct {
	mu    sync.RWMutex
	posts map[string]content.Post
}

// NewMemoryPosts returns an empty in-memory post store.
func NewMemoryPosts() *MemoryPosts {
	return &MemoryPosts{posts: make(map[string]content.Post)}
}

func (m *MemoryPosts) Create(_ context.Context, post content.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.posts[post.ID] = post
	return nil
}

func (m *MemoryPosts) GetByID(_ context.Context, id string) (content.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[id]
	if !ok {
		return content.Post{}, content.ErrNotFound
	}
	return post, nil
}

func (m *MemoryPosts) Approve(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return content.ErrNotFound
	}
	post.Approved = true
	m.posts[id] = post
	return nil
}

func (m *MemoryPosts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return content.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *MemoryPosts) ListPending(_ context.Context) ([]content.Post, error) {
	return m.list(false), nil
}

func (m *MemoryPosts) ListApproved(_ context.Context) ([]content.Post, error) {
	return m.list(true), nil
}

func (m *MemoryPosts) list(approved bool) []content.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := make([]content.Post, 0, len(m.posts))
	for _, post := range m.posts {
		if post.Approved == approved {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/modboard/authcore/identity"
)

// RedisIdentity implements identity.Store over a Redis client. Records
// are JSON; email uniqueness is enforced with SETNX on the email index
// key.
type RedisIdentity struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisIdentity wraps client. An empty prefix defaults to "mb".
func NewRedisIdentity(client redis.UniversalClient, prefix string) *RedisIdentity {
	if prefix == "" {
		prefix = "mb"
	}
	return &RedisIdentity{client: client, prefix: prefix}
}

// Ping round-trips the backend and reports the observed latency.
func (r *RedisIdentity) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("store: ping: %w", err)
	}
	return time.Since(start), nil
}

type identityRecord struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`
	Role         string `json:"role"`
	IsActive     bool   `json:"is_active"`
	AuthProvider string `json:"auth_provider"`
	PasswordHash string `json:"password_hash,omitempty"`
}

func (r *RedisIdentity) userKey(id string) string {
	return r.prefix + ":user:" + id
}

// Email keys are exact: lookup is case-sensitive on the stored value.
func (r *RedisIdentity) emailKey(email string) string {
	return r.prefix + ":user:email:" + email
}

// GetByID reads the authoritative identity record.
func (r *RedisIdentity) GetByID(ctx context.Context, id string) (identity.Identity, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return identity.Identity{}, identity.ErrNotFound
		}
		return identity.Identity{}, fmt.Errorf("store: get identity: %w", err)
	}
	return decodeIdentity(data)
}

// GetByEmail resolves the email index, then reads the record.
func (r *RedisIdentity) GetByEmail(ctx context.Context, email string) (identity.Identity, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return identity.Identity{}, identity.ErrNotFound
		}
		return identity.Identity{}, fmt.Errorf("store: resolve email: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Create writes a new identity. The email index is claimed first with
// SETNX, so a concurrent create for the same email loses cleanly.
func (r *RedisIdentity) Create(ctx context.Context, ident identity.Identity) error {
	claimed, err := r.client.SetNX(ctx, r.emailKey(ident.Email), ident.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("store: claim email: %w", err)
	}
	if !claimed {
		return identity.ErrAlreadyExists
	}

	data, err := json.Marshal(encodeIdentity(ident))
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.userKey(ident.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("store: create identity: %w", err)
	}
	return nil
}

// UpdateRole rewrites the role field of an existing record.
func (r *RedisIdentity) UpdateRole(ctx context.Context, id string, role identity.Role) error {
	return r.mutateIdentity(ctx, id, func(ident *identity.Identity) {
		ident.Role = role
	})
}

// UpdateActive rewrites the active flag of an existing record.
func (r *RedisIdentity) UpdateActive(ctx context.Context, id string, active bool) error {
	return r.mutateIdentity(ctx, id, func(ident *identity.Identity) {
		ident.IsActive = active
	})
}

// UpdateProfile refreshes display fields only.
func (r *RedisIdentity) UpdateProfile(ctx context.Context, id string, name, image string) error {
	return r.mutateIdentity(ctx, id, func(ident *identity.Identity) {
		ident.Name = name
		ident.Image = image
	})
}

func (r *RedisIdentity) mutateIdentity(ctx context.Context, id string, mutate func(*identity.Identity)) error {
	ident, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	mutate(&ident)

	data, err := json.Marshal(encodeIdentity(ident))
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.userKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("store: update identity: %w", err)
	}
	return nil
}

func encodeIdentity(ident identity.Identity) identityRecord {
	return identityRecord{
		ID:           ident.ID,
		Email:        ident.Email,
		Name:         ident.Name,
		Image:        ident.Image,
		Role:         string(ident.Role),
		IsActive:     ident.IsActive,
		AuthProvider: string(ident.AuthProvider),
		PasswordHash: ident.PasswordHash,
	}
}

func decodeIdentity(data []byte) (identity.Identity, error) {
	var rec identityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return identity.Identity{}, fmt.Errorf("store: corrupt identity record: %w", err)
	}
	role, err := identity.ParseRole(rec.Role)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("store: corrupt identity record: %w", err)
	}
	provider, err := identity.ParseProvider(rec.AuthProvider)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("store: corrupt identity record: %w", err)
	}
	return identity.Identity{
		ID:           rec.ID,
		Email:        rec.Email,
		Name:         rec.Name,
		Image:        rec.Image,
		Role:         role,
		IsActive:     rec.IsActive,
		AuthProvider: provider,
		PasswordHash: rec.PasswordHash,
	}, nil
}

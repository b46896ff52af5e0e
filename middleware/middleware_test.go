package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modboard/authcore"
	"github.com/modboard/authcore/middleware"
	"github.com/modboard/authcore/password"
	"github.com/modboard/authcore/store"
)

func newTestEngine(t *testing.T) (*authcore.Engine, identityStore) {
	t.Helper()

	cfg := authcore.DefaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password = authcore.PasswordConfig{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	}

	identities := store.NewMemoryIdentity()
	engine, err := authcore.New().
		WithConfig(cfg).
		WithIdentityStore(identities).
		WithPostStore(store.NewMemoryPosts()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, identities
}

type identityStore interface {
	Create(ctx context.Context, ident authcore.Identity) error
	UpdateActive(ctx context.Context, id string, active bool) error
}

func seedAndLogin(t *testing.T, engine *authcore.Engine, identities identityStore, role authcore.Role) string {
	t.Helper()

	hasher, err := password.NewHasher(password.Config{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	hash, err := hasher.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	err = identities.Create(context.Background(), authcore.Identity{
		ID:           "u-1",
		Email:        "ada@example.com",
		Name:         "Ada",
		Role:         role,
		IsActive:     true,
		AuthProvider: authcore.ProviderManual,
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	signed, _, err := engine.Login(context.Background(), authcore.LoginRequest{
		Email:    "ada@example.com",
		Password: "hunter2hunter2",
		IP:       "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return signed
}

func TestRequireSessionAdmitsBearer(t *testing.T) {
	engine, identities := newTestEngine(t)
	signed := seedAndLogin(t, engine, identities, authcore.RoleUser)

	var gotID string
	handler := middleware.RequireSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.SessionFromContext(r.Context())
		if !ok {
			t.Fatal("expected session in context")
		}
		gotID = sess.ID
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "u-1" {
		t.Fatalf("expected session for u-1, got %q", gotID)
	}
}

func TestRequireSessionRejects(t *testing.T) {
	engine, _ := newTestEngine(t)

	handler := middleware.RequireSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireFreshDeniesWrongRole(t *testing.T) {
	engine, identities := newTestEngine(t)
	signed := seedAndLogin(t, engine, identities, authcore.RoleUser)

	handler := middleware.RequireSession(engine)(
		middleware.RequireFresh(engine, authcore.RoleAdmin, authcore.RoleSuperAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireFreshAdmitsMatchingRole(t *testing.T) {
	engine, identities := newTestEngine(t)
	signed := seedAndLogin(t, engine, identities, authcore.RoleAdmin)

	handler := middleware.RequireSession(engine)(
		middleware.RequireFresh(engine, authcore.RoleAdmin, authcore.RoleSuperAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRequireFreshDeniesDeactivatedAccount(t *testing.T) {
	engine, identities := newTestEngine(t)
	signed := seedAndLogin(t, engine, identities, authcore.RoleAdmin)

	// The token still verifies; the authoritative re-check must deny.
	if err := identities.UpdateActive(context.Background(), "u-1", false); err != nil {
		t.Fatalf("UpdateActive: %v", err)
	}

	handler := middleware.RequireSession(engine)(
		middleware.RequireFresh(engine, authcore.RoleAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestClientIPFeedsLimiter(t *testing.T) {
	cfg := authcore.DefaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password = authcore.PasswordConfig{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	}
	cfg.RateLimit.IPLimit = 1

	engine, err := authcore.New().
		WithConfig(cfg).
		WithIdentityStore(store.NewMemoryIdentity()).
		WithPostStore(store.NewMemoryPosts()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	// A login handler relying solely on the context IP.
	var lastErr error
	handler := middleware.ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, lastErr = engine.Login(r.Context(), authcore.LoginRequest{
			Email:    "ghost@example.com",
			Password: "wrongwrongwrong",
		})
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.9:4411"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if !errors.Is(lastErr, authcore.ErrLoginRateLimited) {
		t.Fatalf("expected IP guard fed from context, got %v", lastErr)
	}
}

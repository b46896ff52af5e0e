package authcore

import (
	"context"
	"errors"
	"testing"
)

func seedSuperAdmin(t *testing.T, f *testFixture) Identity {
	t.Helper()
	return f.seed(t, "root", "root@example.com", "hunter2hunter2", RoleSuperAdmin, true)
}

func TestCreateAccountSuccess(t *testing.T) {
	f := newTestFixture(t, nil)
	seedSuperAdmin(t, f)

	ident, err := f.engine.CreateAccount(context.Background(), "root", CreateAccountRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter2hunter2",
		Role:     RoleAdmin,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if ident.PasswordHash != "" {
		t.Fatal("returned identity must not carry the hash")
	}
	if ident.Role != RoleAdmin || !ident.IsActive || ident.AuthProvider != ProviderManual {
		t.Fatalf("unexpected identity: %+v", ident)
	}

	// The created account can log in.
	if _, _, err := f.engine.Login(context.Background(), LoginRequest{
		Email:    "ada@example.com",
		Password: "hunter2hunter2",
		IP:       "10.0.0.1",
	}); err != nil {
		t.Fatalf("Login as created account: %v", err)
	}
}

func TestCreateAccountRequiresSuperAdmin(t *testing.T) {
	f := newTestFixture(t, nil)
	f.seed(t, "adm", "adm@example.com", "hunter2hunter2", RoleAdmin, true)

	_, err := f.engine.CreateAccount(context.Background(), "adm", CreateAccountRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter2hunter2",
		Role:     RoleUser,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	f := newTestFixture(t, nil)
	seedSuperAdmin(t, f)

	cases := []struct {
		name string
		req  CreateAccountRequest
	}{
		{"empty name", CreateAccountRequest{Email: "a@example.com", Password: "hunter2hunter2", Role: RoleUser}},
		{"empty email", CreateAccountRequest{Name: "Ada", Password: "hunter2hunter2", Role: RoleUser}},
		{"email without at", CreateAccountRequest{Name: "Ada", Email: "nope", Password: "hunter2hunter2", Role: RoleUser}},
		{"short password", CreateAccountRequest{Name: "Ada", Email: "a@example.com", Password: "short", Role: RoleUser}},
		{"bogus role", CreateAccountRequest{Name: "Ada", Email: "a@example.com", Password: "hunter2hunter2", Role: Role("OVERLORD")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.engine.CreateAccount(context.Background(), "root", tc.req); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	f := newTestFixture(t, nil)
	seedSuperAdmin(t, f)
	f.seed(t, "u-1", "ada@example.com", "hunter2hunter2", RoleUser, true)

	_, err := f.engine.CreateAccount(context.Background(), "root", CreateAccountRequest{
		Name:     "Ada Again",
		Email:    "ada@example.com",
		Password: "hunter2hunter2",
		Role:     RoleUser,
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestChangeRole(t *testing.T) {
	f := newTestFixture(t, nil)
	seedSuperAdmin(t, f)
	f.seed(t, "u-1", "ada@example.com", "hunter2hunter2", RoleUser, true)

	if err := f.engine.ChangeRole(context.Background(), "root", "u-1", RoleAdmin); err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}

	got, _ := f.identities.GetByID(context.Background(), "u-1")
	if got.Role != RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", got.Role)
	}

	if err := f.engine.ChangeRole(context.Background(), "root", "ghost", RoleAdmin); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
	if err := f.engine.ChangeRole(context.Background(), "root", "u-1", Role("OVERLORD")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChangeRoleRequiresSuperAdmin(t *testing.T) {
	f := newTestFixture(t, nil)
	f.seed(t, "adm", "adm@example.com", "hunter2hunter2", RoleAdmin, true)
	f.seed(t, "u-1", "ada@example.com", "hunter2hunter2", RoleUser, true)

	if err := f.engine.ChangeRole(context.Background(), "adm", "u-1", RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSetActiveStatus(t *testing.T) {
	f := newTestFixture(t, nil)
	seedSuperAdmin(t, f)
	f.seed(t, "u-1", "ada@example.com", "hunter2hunter2", RoleUser, true)

	if err := f.engine.SetActiveStatus(context.Background(), "root", "u-1", false); err != nil {
		t.Fatalf("SetActiveStatus: %v", err)
	}
	got, _ := f.identities.GetByID(context.Background(), "u-1")
	if got.IsActive {
		t.Fatal("expected deactivated account")
	}

	if err := f.engine.SetActiveStatus(context.Background(), "root", "u-1", true); err != nil {
		t.Fatalf("SetActiveStatus: %v", err)
	}
	got, _ = f.identities.GetByID(context.Background(), "u-1")
	if !got.IsActive {
		t.Fatal("expected reactivated account")
	}
}

func TestSetActiveStatusRejectsSelfDeactivation(t *testing.T) {
	f := newTestFixture(t, nil)
	seedSuperAdmin(t, f)

	if err := f.engine.SetActiveStatus(context.Background(), "root", "root", false); !errors.Is(err, ErrSelfDeactivation) {
		t.Fatalf("expected ErrSelfDeactivation, got %v", err)
	}

	// Reactivating yourself is a no-op but not an error.
	if err := f.engine.SetActiveStatus(context.Background(), "root", "root", true); err != nil {
		t.Fatalf("SetActiveStatus: %v", err)
	}
}

func TestSetActiveStatusUnknownTarget(t *testing.T) {
	f := newTestFixture(t, nil)
	seedSuperAdmin(t, f)

	if err := f.engine.SetActiveStatus(context.Background(), "root", "ghost", false); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

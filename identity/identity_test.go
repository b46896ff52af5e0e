package identity

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"SUPER_ADMIN", "ADMIN", "USER"} {
		role, err := ParseRole(valid)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", valid, err)
		}
		if string(role) != valid {
			t.Fatalf("expected %q, got %q", valid, role)
		}
	}

	for _, invalid := range []string{"", "user", "ROOT", "SUPERADMIN"} {
		if _, err := ParseRole(invalid); !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("ParseRole(%q): expected ErrUnknownRole, got %v", invalid, err)
		}
	}
}

func TestParseProvider(t *testing.T) {
	for _, valid := range []string{"MANUAL", "GOOGLE"} {
		if _, err := ParseProvider(valid); err != nil {
			t.Fatalf("ParseProvider(%q): %v", valid, err)
		}
	}

	for _, invalid := range []string{"", "google", "GITHUB"} {
		if _, err := ParseProvider(invalid); !errors.Is(err, ErrUnknownProvider) {
			t.Fatalf("ParseProvider(%q): expected ErrUnknownProvider, got %v", invalid, err)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Ada@Example.com", "ada@example.com"},
		{"  ada@example.com  ", "ada@example.com"},
		{"ADA@EXAMPLE.COM", "ada@example.com"},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPermissionsForMatrix(t *testing.T) {
	cases := []struct {
		role Role
		want Permissions
	}{
		{RoleSuperAdmin, Permissions{CanCreateContent: true, CanModerateContent: true, CanManageIdentities: true, CanAccessAdminArea: true}},
		{RoleAdmin, Permissions{CanCreateContent: true, CanModerateContent: true, CanAccessAdminArea: true}},
		{RoleUser, Permissions{CanCreateContent: true}},
		{Role("BOGUS"), Permissions{}},
		{Role(""), Permissions{}},
	}

	for _, tc := range cases {
		if got := PermissionsFor(tc.role); got != tc.want {
			t.Fatalf("PermissionsFor(%q) = %+v, want %+v", tc.role, got, tc.want)
		}
	}
}

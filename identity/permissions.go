package identity

// Permissions is the capability set derived from a role. It drives UI
// affordances only; privileged mutations are gated by the freshness guard,
// never by this matrix alone.
type Permissions struct {
	CanCreateContent    bool
	CanModerateContent  bool
	CanManageIdentities bool
	CanAccessAdminArea  bool
}

// PermissionsFor maps a role to its capabilities. Pure and total over the
// role enum; unknown roles get the zero value (no capabilities).
func PermissionsFor(role Role) Permissions {
	switch role {
	case RoleSuperAdmin:
		return Permissions{
			CanCreateContent:    true,
			CanModerateContent:  true,
			CanManageIdentities: true,
			CanAccessAdminArea:  true,
		}
	case RoleAdmin:
		return Permissions{
			CanCreateContent:   true,
			CanModerateContent: true,
			CanAccessAdminArea: true,
		}
	case RoleUser:
		return Permissions{
			CanCreateContent: true,
		}
	default:
		return Permissions{}
	}
}

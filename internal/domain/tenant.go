package domain

import "time"

// Role is the permission level a user holds inside a tenant.
type Role string

const (
	RoleVisitor    Role = "visitor"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether the role is one of the known levels.
func (r Role) Valid() bool {
	switch r {
	case RoleVisitor, RoleEditor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Tenant is an organization; the unit of data isolation and role scoping.
type Tenant struct {
	ID        int64
	Name      string
	Slug      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership ties a user to a tenant with a single role.
// (user, tenant) is unique; a user holds at most one role per tenant.
type Membership struct {
	ID         int64
	UserID     int64
	TenantID   int64
	TenantName string
	Role       Role
	Active     bool
	CreatedAt  time.Time
}

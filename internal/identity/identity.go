// Package identity defines the resolved caller identity constructed once at
// the authentication boundary and threaded through downstream calls.
package identity

import (
	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/token"
)

// Identity is the verified caller attached to a request context.
// RefreshTokenID is non-zero only when the refresh-token guard resolved the
// caller, binding the request to the exact ledger row being redeemed.
type Identity struct {
	UserID         int64
	Email          string
	Memberships    []token.MembershipClaim
	RefreshTokenID int64
}

// MembershipFor returns the caller's membership claim for a tenant, if any.
func (id Identity) MembershipFor(tenantID int64) (token.MembershipClaim, bool) {
	for _, m := range id.Memberships {
		if m.TenantID == tenantID {
			return m, true
		}
	}
	return token.MembershipClaim{}, false
}

// HasRole reports whether the caller holds one of the roles in the tenant.
func (id Identity) HasRole(tenantID int64, roles ...domain.Role) bool {
	m, ok := id.MembershipFor(tenantID)
	if !ok {
		return false
	}
	for _, r := range roles {
		if m.Role == r {
			return true
		}
	}
	return false
}

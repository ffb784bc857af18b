package service

import (
	"time"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
)

// UserView is the public projection of a user. The password hash never
// leaves the service layer.
type UserView struct {
	ID        int64     `json:"id,string"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// MembershipView summarizes one tenant membership for API responses.
type MembershipView struct {
	TenantID   int64       `json:"tenantId,string"`
	TenantName string      `json:"tenantName"`
	Role       domain.Role `json:"role"`
}

// ProfileView is the public projection of a user profile.
type ProfileView struct {
	AvatarURL string            `json:"avatarUrl"`
	Bio       string            `json:"bio"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Session bundles a freshly minted token pair. The refresh token is raw and
// must only travel to the client as an HTTP-only cookie; handlers never place
// it in a JSON body.
type Session struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"-"`
	ExpiresIn    int              `json:"expiresIn"`
	User         UserView         `json:"user"`
	Memberships  []MembershipView `json:"tenantMemberships"`
}

// RegisterResult is the register outcome; Session is set only when
// auto-login-on-register is enabled.
type RegisterResult struct {
	User    UserView
	Session *Session
}

func newUserView(u domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func newMembershipViews(memberships []domain.Membership) []MembershipView {
	views := make([]MembershipView, 0, len(memberships))
	for _, m := range memberships {
		if !m.Active {
			continue
		}
		views = append(views, MembershipView{
			TenantID:   m.TenantID,
			TenantName: m.TenantName,
			Role:       m.Role,
		})
	}
	return views
}

package domain

import "time"

// RefreshToken is the persisted ledger entry backing a signed refresh token.
// Only a salted one-way hash of the raw token is ever stored; the row id is
// embedded in the token's claims so revocation can be checked server-side.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// Expired reports whether the record is past its signed lifetime.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Usable reports whether the record can still redeem a refresh call.
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && !t.Expired(now) && t.TokenHash != ""
}

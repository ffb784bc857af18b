// Package token mints and verifies the signed credentials carried by clients.
// Access and refresh tokens are signed with distinct secrets so a leaked
// secret for one kind can never forge the other.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/shoutbase/shoutbase-auth/internal/domain"
)

// ErrInvalidToken covers bad signatures, wrong token kinds, and expiry.
// Callers must not expose the distinction to clients.
var ErrInvalidToken = errors.New("token: invalid or expired")

// MembershipClaim is one tenant-role pair inside a token payload.
type MembershipClaim struct {
	TenantID   int64       `json:"tenant_id"`
	TenantName string      `json:"tenant_name,omitempty"`
	Role       domain.Role `json:"role"`
}

// AccessClaims is the custom payload of an access token.
type AccessClaims struct {
	Email       string            `json:"email"`
	Memberships []MembershipClaim `json:"memberships"`
}

// RefreshClaims extends the access payload with the ledger row id. The row id
// binding is what makes server-side revocation of a signed token possible.
type RefreshClaims struct {
	AccessClaims
	TokenID int64 `json:"token_id,string"`
}

// Issuer signs and verifies both token kinds.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewIssuer constructs an Issuer. TTLs are configuration, not constants.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}
}

// AccessTTL exposes the configured access-token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL exposes the configured refresh-token lifetime.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccessToken signs an access token for the user.
func (i *Issuer) IssueAccessToken(userID int64, claims AccessClaims) (string, error) {
	return i.sign(i.accessSecret, userID, i.accessTTL, claims)
}

// IssueRefreshToken signs a refresh token bound to a ledger row.
func (i *Issuer) IssueRefreshToken(userID int64, claims RefreshClaims) (string, error) {
	if claims.TokenID == 0 {
		return "", fmt.Errorf("refresh claims missing token id")
	}
	return i.sign(i.refreshSecret, userID, i.refreshTTL, claims)
}

// VerifyAccessToken checks signature and expiry against the access secret.
func (i *Issuer) VerifyAccessToken(raw string) (int64, *AccessClaims, error) {
	var custom AccessClaims
	userID, err := i.verify(i.accessSecret, raw, &custom)
	if err != nil {
		return 0, nil, err
	}
	return userID, &custom, nil
}

// VerifyRefreshToken checks signature and expiry against the refresh secret.
func (i *Issuer) VerifyRefreshToken(raw string) (int64, *RefreshClaims, error) {
	var custom RefreshClaims
	userID, err := i.verify(i.refreshSecret, raw, &custom)
	if err != nil {
		return 0, nil, err
	}
	if custom.TokenID == 0 {
		return 0, nil, ErrInvalidToken
	}
	return userID, &custom, nil
}

func (i *Issuer) sign(secret []byte, userID int64, ttl time.Duration, custom any) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    i.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(ttl)),
	}

	serialized, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return serialized, nil
}

func (i *Issuer) verify(secret []byte, raw string, custom any) (int64, error) {
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return 0, ErrInvalidToken
	}

	var std gojwt.Claims
	if err := parsed.Claims(secret, &std, custom); err != nil {
		return 0, ErrInvalidToken
	}
	if err := std.Validate(gojwt.Expected{Issuer: i.issuer, Time: time.Now().UTC()}); err != nil {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

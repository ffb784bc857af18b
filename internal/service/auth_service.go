package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/config"
	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/hashing"
	"github.com/shoutbase/shoutbase-auth/internal/identity"
	"github.com/shoutbase/shoutbase-auth/internal/repository"
	"github.com/shoutbase/shoutbase-auth/internal/token"
)

const defaultAvatarURL = "https://cdn.shoutbase.io/avatars/default.png"

// AuthService orchestrates register, login, refresh, and logout.
type AuthService struct {
	users       repository.UserRepository
	profiles    repository.ProfileRepository
	memberships repository.MembershipRepository
	tokens      repository.RefreshTokenRepository
	tx          repository.TxManager
	issuer      *token.Issuer
	hasher      *hashing.Hasher
	node        *snowflake.Node
	cfg         config.Config
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	memberships repository.MembershipRepository,
	tokens repository.RefreshTokenRepository,
	tx repository.TxManager,
	issuer *token.Issuer,
	hasher *hashing.Hasher,
	node *snowflake.Node,
	cfg config.Config,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		profiles:    profiles,
		memberships: memberships,
		tokens:      tokens,
		tx:          tx,
		issuer:      issuer,
		hasher:      hasher,
		node:        node,
		cfg:         cfg,
		logger:      logger,
		tracer:      otel.Tracer("github.com/shoutbase/shoutbase-auth/internal/service"),
	}
}

// Register creates a user with a default profile. Tokens are issued only when
// auto-login-on-register is enabled; the tenant-aware flow keeps registration
// and tenant assignment decoupled.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (RegisterResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	// Email uniqueness is case-sensitive as stored.
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return RegisterResult{}, newAuthError("invalid_request", "A valid email is required.", 400)
	}
	if err := s.validatePassword(password); err != nil {
		return RegisterResult{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return RegisterResult{}, ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return RegisterResult{}, fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		span.RecordError(err)
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	var created domain.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err = s.users.Create(ctx, domain.User{
			ID:           s.node.Generate().Int64(),
			Email:        email,
			PasswordHash: hashed,
			Name:         strings.TrimSpace(name),
			Active:       true,
		})
		if err != nil {
			return err
		}
		_, err = s.profiles.Create(ctx, domain.UserProfile{
			UserID:    created.ID,
			AvatarURL: defaultAvatarURL,
			Bio:       "",
			Metadata:  map[string]string{},
		})
		return err
	})
	if err != nil {
		// The unique constraint is the backstop for concurrent registrations.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return RegisterResult{}, ErrDuplicateEmail
		}
		span.RecordError(err)
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}

	s.audit("auth.register.success", "user_id", created.ID)

	result := RegisterResult{User: newUserView(created)}
	if s.cfg.AutoLoginOnRegister {
		session, err := s.startSession(ctx, created)
		if err != nil {
			span.RecordError(err)
			return RegisterResult{}, err
		}
		result.Session = session
	}
	return result, nil
}

// Login authenticates credentials and opens a new single-active session.
// Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		span.RecordError(err)
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Compare(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.audit("auth.login.success", "user_id", user.ID)
	return session, nil
}

// Refresh rotates the single-use refresh token bound to the identity and
// returns a fresh pair. The guard has already verified signature, revocation
// state, and the stored hash.
func (s *AuthService) Refresh(ctx context.Context, ident identity.Identity) (*Session, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Refresh")
	defer span.End()

	if ident.RefreshTokenID == 0 {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		span.RecordError(err)
		return nil, fmt.Errorf("refresh load user: %w", err)
	}
	if !user.Active {
		return nil, ErrUnauthorized
	}

	memberships, err := s.memberships.ListByUser(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("refresh load memberships: %w", err)
	}

	var session *Session
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Rotation: the redeemed token is spent before its successor exists.
		if err := s.tokens.Revoke(ctx, ident.RefreshTokenID); err != nil {
			return err
		}
		session, err = s.issueTokens(ctx, user, memberships)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	s.audit("auth.refresh.success", "user_id", user.ID)
	return session, nil
}

// Logout revokes every refresh token the user holds, ending all sessions.
func (s *AuthService) Logout(ctx context.Context, ident identity.Identity) error {
	ctx, span := s.startSpan(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.tokens.RevokeAllActive(ctx, ident.UserID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("revoke sessions: %w", err)
	}

	s.audit("auth.logout.success", "user_id", ident.UserID)
	return nil
}

// AuthenticateAccess resolves an identity from a raw bearer access token.
func (s *AuthService) AuthenticateAccess(ctx context.Context, raw string) (identity.Identity, error) {
	userID, claims, err := s.issuer.VerifyAccessToken(raw)
	if err != nil {
		return identity.Identity{}, ErrUnauthorized
	}
	return identity.Identity{
		UserID:      userID,
		Email:       claims.Email,
		Memberships: claims.Memberships,
	}, nil
}

// AuthenticateRefresh resolves an identity from a raw refresh token by
// verifying the signature, loading the ledger row named in the claims, and
// hash-comparing the raw token against the stored hash. Every failure mode
// collapses into the same client-visible error.
func (s *AuthService) AuthenticateRefresh(ctx context.Context, raw string) (identity.Identity, error) {
	userID, claims, err := s.issuer.VerifyRefreshToken(raw)
	if err != nil {
		return identity.Identity{}, ErrUnauthorized
	}

	record, err := s.tokens.GetByID(ctx, claims.TokenID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log().Warn("refresh ledger lookup failed", zap.Error(err))
		}
		return identity.Identity{}, ErrUnauthorized
	}
	if record.UserID != userID || !record.Usable(time.Now()) {
		s.log().Debug("refresh token rejected by ledger state", zap.Int64("token_id", record.ID))
		return identity.Identity{}, ErrUnauthorized
	}

	match, err := s.hasher.Compare(raw, record.TokenHash)
	if err != nil || !match {
		s.log().Debug("refresh token hash mismatch", zap.Int64("token_id", record.ID))
		return identity.Identity{}, ErrUnauthorized
	}

	return identity.Identity{
		UserID:         userID,
		Email:          claims.Email,
		Memberships:    claims.Memberships,
		RefreshTokenID: record.ID,
	}, nil
}

// Me returns the caller's user, profile, and membership views.
func (s *AuthService) Me(ctx context.Context, ident identity.Identity) (UserView, ProfileView, []MembershipView, error) {
	user, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return UserView{}, ProfileView{}, nil, ErrUnauthorized
		}
		return UserView{}, ProfileView{}, nil, fmt.Errorf("load user: %w", err)
	}
	profile, err := s.profiles.GetByUserID(ctx, ident.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return UserView{}, ProfileView{}, nil, fmt.Errorf("load profile: %w", err)
	}
	memberships, err := s.memberships.ListByUser(ctx, ident.UserID)
	if err != nil {
		return UserView{}, ProfileView{}, nil, fmt.Errorf("load memberships: %w", err)
	}
	view := ProfileView{AvatarURL: profile.AvatarURL, Bio: profile.Bio, Metadata: profile.Metadata}
	return newUserView(user), view, newMembershipViews(memberships), nil
}

// UpdateProfile mutates the caller's profile independently of the user row.
func (s *AuthService) UpdateProfile(ctx context.Context, ident identity.Identity, avatarURL, bio *string, metadata map[string]string) (ProfileView, error) {
	ctx, span := s.startSpan(ctx, "AuthService.UpdateProfile")
	defer span.End()

	profile, err := s.profiles.GetByUserID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ProfileView{}, ErrNotFound
		}
		span.RecordError(err)
		return ProfileView{}, fmt.Errorf("load profile: %w", err)
	}

	if avatarURL != nil {
		profile.AvatarURL = strings.TrimSpace(*avatarURL)
	}
	if bio != nil {
		profile.Bio = *bio
	}
	if metadata != nil {
		profile.Metadata = metadata
	}

	updated, err := s.profiles.Update(ctx, profile)
	if err != nil {
		span.RecordError(err)
		return ProfileView{}, fmt.Errorf("update profile: %w", err)
	}

	s.audit("auth.profile.updated", "user_id", ident.UserID)
	return ProfileView{AvatarURL: updated.AvatarURL, Bio: updated.Bio, Metadata: updated.Metadata}, nil
}

// startSession enforces the single-active-session policy: all prior refresh
// tokens are revoked and expired rows purged before the new pair is minted.
func (s *AuthService) startSession(ctx context.Context, user domain.User) (*Session, error) {
	memberships, err := s.memberships.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}

	var session *Session
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tokens.RevokeAllActive(ctx, user.ID); err != nil {
			return err
		}
		if err := s.tokens.DeleteExpired(ctx, user.ID); err != nil {
			return err
		}
		session, err = s.issueTokens(ctx, user, memberships)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return session, nil
}

// issueTokens performs the two-phase ledger creation: persist a placeholder
// row to obtain its id, sign the refresh token embedding that id, then write
// the token's hash back into the row. A crash between the phases leaves a row
// whose empty hash can never match, which is safe.
func (s *AuthService) issueTokens(ctx context.Context, user domain.User, memberships []domain.Membership) (*Session, error) {
	record, err := s.tokens.Create(ctx, domain.RefreshToken{
		ID:        s.node.Generate().Int64(),
		UserID:    user.ID,
		TokenHash: "",
		ExpiresAt: time.Now().Add(s.issuer.RefreshTTL()),
	})
	if err != nil {
		return nil, fmt.Errorf("create token record: %w", err)
	}

	claims := buildAccessClaims(user, memberships)
	access, err := s.issuer.IssueAccessToken(user.ID, claims)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(user.ID, token.RefreshClaims{
		AccessClaims: claims,
		TokenID:      record.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	hash, err := s.hasher.Hash(refresh)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}
	if err := s.tokens.StoreHash(ctx, record.ID, hash); err != nil {
		return nil, fmt.Errorf("persist token hash: %w", err)
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.issuer.AccessTTL().Seconds()),
		User:         newUserView(user),
		Memberships:  newMembershipViews(memberships),
	}, nil
}

func buildAccessClaims(user domain.User, memberships []domain.Membership) token.AccessClaims {
	claims := token.AccessClaims{
		Email:       user.Email,
		Memberships: make([]token.MembershipClaim, 0, len(memberships)),
	}
	for _, m := range memberships {
		if !m.Active {
			continue
		}
		claims.Memberships = append(claims.Memberships, token.MembershipClaim{
			TenantID:   m.TenantID,
			TenantName: m.TenantName,
			Role:       m.Role,
		})
	}
	return claims
}

func (s *AuthService) validatePassword(password string) error {
	if len(password) < s.cfg.PasswordMinLength {
		return newAuthError("invalid_request",
			fmt.Sprintf("Password must be at least %d characters.", s.cfg.PasswordMinLength), 400)
	}
	if !s.cfg.PasswordRequireMix {
		return nil
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return newAuthError("invalid_request", "Password must contain letters and digits.", 400)
	}
	return nil
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

// audit emits structured audit events. Raw tokens and hashes never appear in
// the attribute list.
func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

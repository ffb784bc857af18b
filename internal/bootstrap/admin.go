package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/shoutbase/shoutbase-auth/internal/config"
	"github.com/shoutbase/shoutbase-auth/internal/domain"
	"github.com/shoutbase/shoutbase-auth/internal/hashing"
	"github.com/shoutbase/shoutbase-auth/internal/repository"
)

// EnsureAdmin seeds a superadmin account plus the default tenant on startup.
// It is a no-op unless BOOTSTRAP_ADMIN_EMAIL is configured, so production
// deployments opt in explicitly.
func EnsureAdmin(
	lc fx.Lifecycle,
	cfg config.Config,
	users repository.UserRepository,
	tenants repository.TenantRepository,
	memberships repository.MembershipRepository,
	profiles repository.ProfileRepository,
	tx repository.TxManager,
	hasher *hashing.Hasher,
	node *snowflake.Node,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureAdmin(ctx, cfg, users, tenants, memberships, profiles, tx, hasher, node, logger)
		},
	})
}

func ensureAdmin(
	ctx context.Context,
	cfg config.Config,
	users repository.UserRepository,
	tenants repository.TenantRepository,
	memberships repository.MembershipRepository,
	profiles repository.ProfileRepository,
	tx repository.TxManager,
	hasher *hashing.Hasher,
	node *snowflake.Node,
	logger *zap.Logger,
) error {
	email := strings.TrimSpace(cfg.BootstrapAdminEmail)
	if email == "" {
		return nil
	}
	if strings.TrimSpace(cfg.BootstrapAdminPassword) == "" {
		return fmt.Errorf("bootstrap admin password is required when BOOTSTRAP_ADMIN_EMAIL is set")
	}

	tenant, err := tenants.GetBySlug(ctx, cfg.BootstrapTenantSlug)
	if errors.Is(err, domain.ErrNotFound) {
		tenant, err = tenants.Create(ctx, domain.Tenant{
			ID:     node.Generate().Int64(),
			Name:   cfg.BootstrapTenantName,
			Slug:   cfg.BootstrapTenantSlug,
			Active: true,
		})
	}
	if err != nil {
		return fmt.Errorf("bootstrap tenant: %w", err)
	}

	user, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// Account already exists; make sure the membership does too.
	case errors.Is(err, domain.ErrNotFound):
		hash, hashErr := hasher.Hash(cfg.BootstrapAdminPassword)
		if hashErr != nil {
			return fmt.Errorf("bootstrap hash password: %w", hashErr)
		}
		createErr := tx.WithinTx(ctx, func(ctx context.Context) error {
			created, err := users.Create(ctx, domain.User{
				ID:           node.Generate().Int64(),
				Email:        email,
				PasswordHash: hash,
				Name:         "Admin",
				Active:       true,
			})
			if err != nil {
				return err
			}
			user = created
			_, err = profiles.Create(ctx, domain.UserProfile{UserID: created.ID})
			return err
		})
		if createErr != nil {
			return fmt.Errorf("bootstrap create user: %w", createErr)
		}
	default:
		return fmt.Errorf("bootstrap lookup user: %w", err)
	}

	if _, err := memberships.GetByUserAndTenant(ctx, user.ID, tenant.ID); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("bootstrap lookup membership: %w", err)
	}

	_, err = memberships.Create(ctx, domain.Membership{
		ID:       node.Generate().Int64(),
		UserID:   user.ID,
		TenantID: tenant.ID,
		Role:     domain.RoleSuperAdmin,
		Active:   true,
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateMembership) {
		return fmt.Errorf("bootstrap create membership: %w", err)
	}

	if logger != nil {
		logger.Info("bootstrap admin ready",
			zap.String("email", user.Email),
			zap.Int64("tenant_id", tenant.ID),
			zap.Int64("user_id", user.ID),
		)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/shoutbase/shoutbase-auth/internal/adapter/cache"
	"github.com/shoutbase/shoutbase-auth/internal/bootstrap"
	"github.com/shoutbase/shoutbase-auth/internal/config"
	"github.com/shoutbase/shoutbase-auth/internal/hashing"
	httptransport "github.com/shoutbase/shoutbase-auth/internal/http"
	"github.com/shoutbase/shoutbase-auth/internal/http/handler"
	"github.com/shoutbase/shoutbase-auth/internal/http/middleware"
	"github.com/shoutbase/shoutbase-auth/internal/repository"
	"github.com/shoutbase/shoutbase-auth/internal/server"
	"github.com/shoutbase/shoutbase-auth/internal/service"
	"github.com/shoutbase/shoutbase-auth/internal/telemetry"
	"github.com/shoutbase/shoutbase-auth/internal/tenant"
	"github.com/shoutbase/shoutbase-auth/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newRedisClient,
			newTenantCache,
			newUserRepository,
			newProfileRepository,
			newMembershipRepository,
			newTenantRepository,
			newRefreshTokenRepository,
			newTestimonialRepository,
			newTxManager,
			newHasher,
			newIssuer,
			tenant.NewResolver,
			service.NewAuthService,
			service.NewTestimonialService,
			handler.NewAuthHandler,
			handler.NewTestimonialHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureAdmin, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Production() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) redis.UniversalClient {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Redis only backs the tenant cache, so an unreachable instance degrades
	// to direct database lookups instead of failing startup.
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, tenant cache degraded", zap.Error(err))
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

func newTenantCache(client redis.UniversalClient) tenant.Cache {
	return cacheadapter.NewRedisTenantCache(client)
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return repository.NewPostgresProfileRepo(pool)
}

func newMembershipRepository(pool *pgxpool.Pool) repository.MembershipRepository {
	return repository.NewPostgresMembershipRepo(pool)
}

func newTenantRepository(pool *pgxpool.Pool) repository.TenantRepository {
	return repository.NewPostgresTenantRepo(pool)
}

func newRefreshTokenRepository(pool *pgxpool.Pool) repository.RefreshTokenRepository {
	return repository.NewPostgresRefreshTokenRepo(pool)
}

func newTestimonialRepository(pool *pgxpool.Pool) repository.TestimonialRepository {
	return repository.NewPostgresTestimonialRepo(pool)
}

func newTxManager(pool *pgxpool.Pool) repository.TxManager {
	return repository.NewPgxTxManager(pool)
}

func newHasher(cfg config.Config) *hashing.Hasher {
	return hashing.New(cfg.HashTimeCost)
}

func newIssuer(cfg config.Config) *token.Issuer {
	return token.NewIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.TokenIssuer)
}

func newAuthMiddleware(authService *service.AuthService) *middleware.Auth {
	return &middleware.Auth{AuthService: authService}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				logger.Info("http server listening", zap.String("addr", addr))
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}

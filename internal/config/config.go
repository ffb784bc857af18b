package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minTokenSecretLen = 32

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	TokenIssuer        string

	HashTimeCost        int
	PasswordMinLength   int
	PasswordRequireMix  bool
	AutoLoginOnRegister bool

	CookieDomain string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapTenantName    string
	BootstrapTenantSlug    string

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "shoutbase-auth"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		AccessTokenSecret:  strings.TrimSpace(os.Getenv("ACCESS_TOKEN_SECRET")),
		RefreshTokenSecret: strings.TrimSpace(os.Getenv("REFRESH_TOKEN_SECRET")),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		TokenIssuer:        getEnv("TOKEN_ISSUER", "shoutbase-auth"),

		HashTimeCost:        getInt("HASH_TIME_COST", 3),
		PasswordMinLength:   getInt("PASSWORD_MIN_LENGTH", 8),
		PasswordRequireMix:  getBool("PASSWORD_REQUIRE_MIX", true),
		AutoLoginOnRegister: getBool("AUTO_LOGIN_ON_REGISTER", false),

		CookieDomain: os.Getenv("COOKIE_DOMAIN"),

		BootstrapAdminEmail:    strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL")),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapTenantName:    getEnv("BOOTSTRAP_TENANT_NAME", "Shoutbase"),
		BootstrapTenantSlug:    getEnv("BOOTSTRAP_TENANT_SLUG", "shoutbase"),

		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AccessTokenSecret == "" {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	// HS256 requires keys of at least the hash size; go-jose refuses to sign
	// with anything shorter.
	if len(cfg.AccessTokenSecret) < minTokenSecretLen {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_SECRET must be at least %d bytes", minTokenSecretLen)
	}
	if len(cfg.RefreshTokenSecret) < minTokenSecretLen {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_SECRET must be at least %d bytes", minTokenSecretLen)
	}
	// A shared secret would make access and refresh tokens mutually verifiable.
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	if cfg.HashTimeCost < 1 {
		cfg.HashTimeCost = 1
	}
	if cfg.PasswordMinLength < 6 {
		cfg.PasswordMinLength = 6
	}

	return cfg, nil
}

// Production reports whether the service runs outside development.
func (c Config) Production() bool {
	return c.Environment != "development"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}

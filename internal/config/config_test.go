package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shoutbase/shoutbase-auth/internal/config"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/shoutbase")
	t.Setenv("ACCESS_TOKEN_SECRET", strings.Repeat("a", 32))
	t.Setenv("REFRESH_TOKEN_SECRET", strings.Repeat("b", 32))
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 8, cfg.PasswordMinLength)
	require.False(t, cfg.AutoLoginOnRegister)
	require.False(t, cfg.Production())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setValidEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsShortSecrets(t *testing.T) {
	// go-jose rejects HS256 keys under 32 bytes, so Load must refuse them
	// before the issuer ever sees one.
	setValidEnv(t)
	t.Setenv("ACCESS_TOKEN_SECRET", strings.Repeat("a", 31))

	_, err := config.Load()
	require.ErrorContains(t, err, "ACCESS_TOKEN_SECRET")

	setValidEnv(t)
	t.Setenv("REFRESH_TOKEN_SECRET", strings.Repeat("b", 31))

	_, err = config.Load()
	require.ErrorContains(t, err, "REFRESH_TOKEN_SECRET")
}

func TestLoadRejectsSharedSecret(t *testing.T) {
	setValidEnv(t)
	t.Setenv("REFRESH_TOKEN_SECRET", strings.Repeat("a", 32))

	_, err := config.Load()
	require.ErrorContains(t, err, "must differ")
}

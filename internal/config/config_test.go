// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accountd/internal/config"
	"github.com/holomush/accountd/pkg/errutil"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accountd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, config.EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, 30*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, time.Hour, cfg.Auth.SessionPurgeInterval)
	assert.Equal(t, 0, cfg.Auth.BcryptCost)
	assert.Equal(t, 1025, cfg.SMTP.Port)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_Layering(t *testing.T) {
	path := writeFile(t, `
environment: production
http:
  addr: ":8080"
database:
  url: postgres://file@db/accountd
auth:
  session_ttl: 48h
  bcrypt_cost: 12
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, ":8080", cfg.HTTP.Addr)
		assert.Equal(t, 48*time.Hour, cfg.Auth.SessionTTL)
		assert.Equal(t, 12, cfg.Auth.BcryptCost)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("ACCOUNTD_HTTP_ADDR", ":9090")
		t.Setenv("ACCOUNTD_AUTH_SESSION_TTL", "1h")
		t.Setenv("DATABASE_URL", "postgres://env@db/accountd")

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.HTTP.Addr)
		assert.Equal(t, time.Hour, cfg.Auth.SessionTTL)
		assert.Equal(t, "postgres://env@db/accountd", cfg.Database.URL)
	})

	t.Run("prefixed database variable beats DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://plain@db/accountd")
		t.Setenv("ACCOUNTD_DATABASE_URL", "postgres://prefixed@db/accountd")

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://prefixed@db/accountd", cfg.Database.URL)
	})

	t.Run("unknown prefixed variables are ignored", func(t *testing.T) {
		t.Setenv("ACCOUNTD_AUTH_SESSION", "bogus")
		t.Setenv("ACCOUNTD_SMTP_PORT", "2525")

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 48*time.Hour, cfg.Auth.SessionTTL)
		assert.Equal(t, 2525, cfg.SMTP.Port)
	})

	t.Run("changed flags override environment", func(t *testing.T) {
		t.Setenv("ACCOUNTD_HTTP_ADDR", ":9090")

		cfg, err := config.Load(path, newFlags(t, "--http-addr", ":7070", "--session-ttl", "2h"))
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.HTTP.Addr)
		assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	})

	t.Run("unchanged flags keep lower layers", func(t *testing.T) {
		cfg, err := config.Load(path, newFlags(t))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTP.Addr)
		assert.Equal(t, config.EnvProduction, cfg.Environment)
		assert.Equal(t, 48*time.Hour, cfg.Auth.SessionTTL)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "http: [unterminated"), nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "environment: staging\nlog:\n  format: xml\n"), nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		assert.Contains(t, err.Error(), "Config.Environment")
		assert.Contains(t, err.Error(), "Config.Log.Format")
	})

	t.Run("bcrypt cost out of range", func(t *testing.T) {
		t.Setenv("ACCOUNTD_AUTH_BCRYPT_COST", "2")
		_, err := config.Load("", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BcryptCost")
	})
}

func TestConfig_RequireDatabase(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.RequireDatabase()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCOUNTD_DATABASE_URL")

	cfg.Database.URL = "postgres://localhost/accountd"
	assert.NoError(t, cfg.RequireDatabase())
}

func TestConfig_Redacted(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.URL = "postgres://accountd:s3cret@db:5432/accountd?sslmode=disable"
	cfg.SMTP.Password = "mailpass"

	redacted := cfg.Redacted()
	assert.Equal(t, "postgres://accountd:xxxxx@db:5432/accountd?sslmode=disable", redacted.Database.URL)
	assert.Equal(t, "xxxxx", redacted.SMTP.Password)
	assert.NotContains(t, redacted.Database.URL, "s3cret")

	// The original is untouched.
	assert.Contains(t, cfg.Database.URL, "s3cret")
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "ACCOUNTD_AUTH_SESSION_PURGE_INTERVAL", config.EnvName("auth.session_purge_interval"))
	assert.Equal(t, "ACCOUNTD_ENVIRONMENT", config.EnvName("environment"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.OAuthEnabled())
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DSN", "postgres://u:p@localhost:5432/water?sslmode=disable")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("GOOGLE_KEY", "key")
	t.Setenv("GOOGLE_SECRET", "secret")
	t.Setenv("BUCKET_NAME", "uploads")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.True(t, cfg.OAuthEnabled())
	assert.True(t, cfg.ArchiveEnabled())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{DBDriver: "sqlite", DSN: "x.db", JWTSecretKey: "k", AccessTokenTTL: time.Minute}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.JWTSecretKey = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.AccessTokenTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.RateLimitPerMinute = -1
	assert.Error(t, cfg.Validate())
}

func TestObjectStorageEndpoint(t *testing.T) {
	cfg := Config{}
	assert.Empty(t, cfg.ObjectStorageEndpoint())

	cfg.AccountID = "abc123"
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", cfg.ObjectStorageEndpoint())

	cfg.S3Endpoint = "http://127.0.0.1:9000"
	assert.Equal(t, "http://127.0.0.1:9000", cfg.ObjectStorageEndpoint())
}

// Package config reads the service settings from the environment, with an
// optional .env file loaded first.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the API server.
//
// Defaults are meant for local development only. JWTSecretKey and
// SessionSecret must be overridden in production.
type Config struct {
	Port string `env:"PORT,default=3000"`

	DBDriver string `env:"DB_DRIVER,default=sqlite" description:"sqlite or postgres"`
	DSN      string `env:"DSN,default=water_quality.sqlite" description:"connection string for DB_DRIVER"`

	JWTSecretKey   string        `env:"JWT_SECRET_KEY,default=dev-jwt-secret-change-me"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL,default=15m"`
	SessionSecret  string        `env:"SESSION_SECRET,default=dev-session-secret-change-me"`

	CORSOrigin         string `env:"CORS_ORIGIN,default=http://localhost:4200"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE,default=120" description:"0 disables rate limiting"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`

	GoogleKey        string `env:"GOOGLE_KEY"`
	GoogleSecret     string `env:"GOOGLE_SECRET"`
	OAuthCallbackURL string `env:"OAUTH_CALLBACK_URL,default=http://localhost:3000/auth/google/callback"`
	SecureCookies    bool   `env:"SECURE_COOKIES,default=false"`

	BucketName      string `env:"BUCKET_NAME"`
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	S3Endpoint      string `env:"S3_ENDPOINT" description:"overrides the R2 endpoint derived from ACCOUNT_ID"`
}

// Load reads envFiles (if present) into the process environment and then
// decodes the environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		// a missing file is fine, variables may come from the real environment
		_ = godotenv.Load(f)
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be expressed with envdecode tags.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DSN == "" {
		return errors.New("DSN is empty")
	}
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY is empty")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// OAuthEnabled reports whether Google OAuth credentials are configured.
func (c *Config) OAuthEnabled() bool {
	return c.GoogleKey != "" && c.GoogleSecret != ""
}

// ArchiveEnabled reports whether raw uploads should be copied to object
// storage.
func (c *Config) ArchiveEnabled() bool {
	return c.BucketName != ""
}

// ObjectStorageEndpoint returns S3Endpoint, or the Cloudflare R2 endpoint
// for AccountID when no explicit endpoint is set.
func (c *Config) ObjectStorageEndpoint() string {
	if c.S3Endpoint != "" {
		return c.S3Endpoint
	}
	if c.AccountID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

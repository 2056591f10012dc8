package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terang55/rainbow-rich-auth-server/pkg/hash"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SIGNING_SECRET", "signing")
	t.Setenv("ADMIN_SECRET_DIGEST", hash.Digest("admin"))
	t.Setenv("STORE_DRIVER", "memory")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "licenses", cfg.MongoDatabase)
	assert.Equal(t, []string{"default", "rainbowg"}, cfg.Products)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, "http://localhost:3000", cfg.AllowedOrigin)
	assert.Equal(t, 5*time.Minute, cfg.StatsInterval)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PRODUCTS", " Default ,rainbowg,default,,pro")
	t.Setenv("TIMEZONE", "Asia/Seoul")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("RATE_LIMIT_MAX", "5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "rainbowg", "pro"}, cfg.Products)
	assert.Equal(t, "Asia/Seoul", cfg.Location.String())
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.RateLimitMax)
}

func TestFromEnv_MissingSecrets(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SIGNING_SECRET", "")
	t.Setenv("ADMIN_SECRET_DIGEST", "")

	_, err := FromEnv()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "SIGNING_SECRET is required")
	assert.Contains(t, err.Error(), "ADMIN_SECRET_DIGEST is required")
}

func TestFromEnv_StoreRequirements(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "")

	_, err := FromEnv()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "MONGO_URI")

	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err = FromEnv()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("STORE_DRIVER", "SQLite")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "licenses.db", cfg.SQLitePath)

	t.Setenv("STORE_DRIVER", "dynamo")
	_, err = FromEnv()
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFromEnv_RejectsMalformedDigest(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_SECRET_DIGEST", "plaintext-password")

	_, err := FromEnv()
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFromEnv_AcceptsBcryptDigest(t *testing.T) {
	setRequired(t)
	hashed, err := hash.HashPassword("admin")
	require.NoError(t, err)
	t.Setenv("ADMIN_SECRET_DIGEST", hashed)

	_, err = FromEnv()
	assert.NoError(t, err)
}

func TestFromEnv_BadTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := FromEnv()
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFromEnv_MetricsCredentialsPaired(t *testing.T) {
	setRequired(t)
	t.Setenv("METRICS_USER", "prom")
	t.Setenv("METRICS_PASSWORD", "")

	_, err := FromEnv()
	require.ErrorIs(t, err, ErrConfiguration)
}

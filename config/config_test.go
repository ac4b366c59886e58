package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("UPLOAD_MAX_MB", "")
	t.Setenv("ASSET_CLEANUP_DELAY_MINUTES", "")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://postgres:postgres@db:5432/campus_orgs?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, int64(4<<20), cfg.Upload.MaxUploadBytes())
	assert.Equal(t, 15*time.Minute, cfg.Upload.CleanupDelay())
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
}

func TestDSN_PrefersURL(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://u:p@h/db", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h/db", c.DSN())
}

func TestCleanupDelay_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ASSET_CLEANUP_DELAY_MINUTES", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Upload.CleanupDelay())
}

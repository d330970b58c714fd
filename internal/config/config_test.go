package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "PUBLIC_BASE_URL", "ADMIN_PASSWORD", "JWT_SIGNING_KEY", "FONT_DIRS", "BULK_WORKERS", "ADMIN_TOKEN_TTL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, "admin123", cfg.AdminPassword)
	assert.Len(t, cfg.JWTSigningKey, 64)
	assert.Nil(t, cfg.FontDirs)
	assert.Equal(t, 4, cfg.BulkWorkers)
	assert.Equal(t, 12*time.Hour, cfg.AdminTokenTTL)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("FONT_DIRS", " /a ,, /b")
	t.Setenv("BULK_WORKERS", "-2")
	t.Setenv("ADMIN_TOKEN_TTL", "soon")
	t.Setenv("JWT_SIGNING_KEY", "k")
	cfg := Load()
	assert.True(t, cfg.Production())
	assert.Equal(t, "http://localhost:9000", cfg.PublicBaseURL)
	assert.Equal(t, []string{"/a", "/b"}, cfg.FontDirs)
	assert.Equal(t, 4, cfg.BulkWorkers)
	assert.Equal(t, 12*time.Hour, cfg.AdminTokenTTL)
	assert.Equal(t, "k", cfg.JWTSigningKey)
}

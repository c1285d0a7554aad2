package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impulse-events/ticketing/internal/utils"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"DB_USER":               "impulse",
		"DB_HOST":               "127.0.0.1",
		"DB_NAME":               "impulse",
		"DB_PORT":               "",
		"NOTIFY_TRANSPORT":      "log",
		"IDENTITY_PROVIDER":     "jwt",
		"JWT_SECRET":            "dev-secret",
		"ADMIN_API_KEY_HASH":    "",
		"ADMIN_API_KEY":         "",
		"ADMIN_BOOTSTRAP_EMAIL": "",
		"ORGANIZER_EMAIL":       "",
		"ADMIN_EMAIL":           "",
		"NOTIFY_SEND_TIMEOUT":   "",
		"NOTIFY_POOL_SIZE":      "",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadReportsAllMissingVars(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ORGANIZER_EMAIL", "org@impulse.events, Boss@impulse.events")
	t.Setenv("ADMIN_EMAIL", "boss@impulse.events,ops@impulse.events")
	t.Setenv("ADMIN_BOOTSTRAP_EMAIL", "  Root@Impulse.Events ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, TransportLog, cfg.Notify.Transport)
	assert.Equal(t, 10*time.Second, cfg.Notify.SendTimeout)
	assert.Equal(t, 8, cfg.Notify.PoolSize)
	assert.Equal(t, []string{"org@impulse.events", "Boss@impulse.events", "ops@impulse.events"}, cfg.Notify.AdminEmails)
	assert.Equal(t, "root@impulse.events", cfg.Admin.BootstrapEmail)
	assert.Empty(t, cfg.Admin.APIKeyHash)
}

func TestLoadHashesPlainAdminKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADMIN_API_KEY", "letmein")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEqual(t, "letmein", cfg.Admin.APIKeyHash)
	assert.True(t, utils.VerifySecret(cfg.Admin.APIKeyHash, "letmein"))
}

func TestLoadValidatesProviders(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("NOTIFY_TRANSPORT", "smtp")
	t.Setenv("SMTP_HOST", "")
	_, err := Load()
	assert.ErrorContains(t, err, "SMTP_HOST")

	setBaseEnv(t)
	t.Setenv("IDENTITY_PROVIDER", "jwt")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	setBaseEnv(t)
	t.Setenv("NOTIFY_TRANSPORT", "pigeon")
	_, err = Load()
	assert.ErrorContains(t, err, "pigeon")
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "off")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("WEBHOOK_SECRET", "hook")
	t.Setenv("LINK_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("PUBLIC_BASE_URL", "https://speakers.example.com/")
	t.Setenv("EMAIL_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "https://speakers.example.com", cfg.PublicBaseURL)
	assert.Equal(t, 3*time.Second, cfg.EmailTimeout)
	assert.Equal(t, 90*24*time.Hour, cfg.ContractTTL())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins())
	assert.Equal(t, "SPK", cfg.ContractPrefix)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.LinkSecret)
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg := Config{ContractTTLDays: 90}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "WEBHOOK_SECRET")
	assert.Contains(t, err.Error(), "LINK_SECRET")

	cfg = Config{JWTSecret: "j", WebhookSecret: "w", LinkSecret: "too-short", ContractTTLDays: 90}
	assert.ErrorContains(t, cfg.Validate(), "LINK_SECRET")
}

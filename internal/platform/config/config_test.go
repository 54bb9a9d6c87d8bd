package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/api", cfg.BasePath)
	assert.Equal(t, "jac_session", cfg.Session.CookieName)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.True(t, cfg.UsesDevResetSecret())
	assert.Empty(t, cfg.Recaptcha.Secret)
	assert.Equal(t, 5, cfg.Lockout.Attempts)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Window)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JUNTAS_BASE_PATH", "juntas/api/")
	t.Setenv("JUNTAS_PUBLIC_URL", "https://juntas.boyaca.gov.co/")
	t.Setenv("JUNTAS_CORS_ORIGINS", "https://a.gov.co,https://b.gov.co")
	t.Setenv("JUNTAS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JUNTAS_RESET_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/juntas/api", cfg.BasePath)
	assert.Equal(t, "https://juntas.boyaca.gov.co", cfg.PublicURL)
	assert.Equal(t, []string{"https://a.gov.co", "https://b.gov.co"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.UsesDevResetSecret())
}

func TestLoad_RootBasePath(t *testing.T) {
	t.Setenv("JUNTAS_BASE_PATH", "/")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.BasePath)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Run("storage", func(t *testing.T) {
		t.Setenv("JUNTAS_STORAGE", "sqlite")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("recaptcha score", func(t *testing.T) {
		t.Setenv("RECAPTCHA_MIN_SCORE", "1.5")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("lockout attempts", func(t *testing.T) {
		t.Setenv("JUNTAS_LOCKOUT_ATTEMPTS", "0")
		_, err := Load()
		require.Error(t, err)
	})
}

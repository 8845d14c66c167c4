package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ENVIRONMENT", "HOST", "PORT", "LOG_LEVEL", "FRONTEND_URL", "JWT_SECRET",
		"ROOM_IDLE_TIMEOUT", "REAP_INTERVAL", "AI_STREAM_DELAY",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
		"DATABASE_URL", "REDIS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.RoomIdleTimeout)
	assert.Equal(t, time.Minute, cfg.ReapInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.AIStreamDelay)
	assert.False(t, cfg.S3Enabled())
}

func TestLoadConfigParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("LOG_LEVEL", " WARN ")
	t.Setenv("FRONTEND_URL", "http://localhost:3000, https://roleready.app ,")
	t.Setenv("AI_STREAM_DELAY", "5ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.Addr())
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000", "https://roleready.app"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Millisecond, cfg.AIStreamDelay)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"non numeric port":   {"PORT": "abc"},
		"privileged port":    {"PORT": "80"},
		"bad duration":       {"ROOM_IDLE_TIMEOUT": "soon"},
		"negative duration":  {"REAP_INTERVAL": "-1s"},
		"missing jwt secret": {"ENVIRONMENT": "production"},
		"partial s3 config":  {"S3_BUCKET_NAME": "resumes"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

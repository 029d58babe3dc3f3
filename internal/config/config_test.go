package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "REACTION_MAX_ATTEMPTS", "CORS_ORIGINS", "USER_GATE_TTL", "GIN_MODE"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.ReactionMaxAttempts)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.UserGateTTL)
	assert.False(t, cfg.Development())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REACTION_MAX_ATTEMPTS", "5")
	t.Setenv("REACTION_RATE_PER_SECOND", "2.5")
	t.Setenv("REACTION_REQUEST_TIMEOUT", "750ms")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,,")
	t.Setenv("GIN_MODE", "debug")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5, cfg.ReactionMaxAttempts)
	assert.Equal(t, 2.5, cfg.ReactionRatePerSecond)
	assert.Equal(t, 750*time.Millisecond, cfg.ReactionRequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.Development())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REACTION_MAX_ATTEMPTS", "three")
	t.Setenv("USER_GATE_TTL", "30")

	cfg := Load()
	assert.Equal(t, 3, cfg.ReactionMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.UserGateTTL)
}

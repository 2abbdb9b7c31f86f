package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		unsetenv(t, "PORT", "SERVICE_NAME", "SEED_SAMPLE_DATA", "VERIFY_USERS", "USER_SERVICE_URL",
			"USER_SERVICE_TIMEOUT", "KAFKA_BROKERS", "KAFKA_TOPIC", "TRACE_PROBABILITY", "TRACE_STDOUT", "CORS_ALLOWED_ORIGINS")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "3002", cfg.Port)
		assert.Equal(t, "order-service", cfg.ServiceName)
		assert.True(t, cfg.SeedSampleData)
		assert.False(t, cfg.VerifyUsers)
		assert.Equal(t, "http://localhost:3001", cfg.UserServiceURL)
		assert.Equal(t, 5*time.Second, cfg.UserServiceTimeout)
		assert.Equal(t, "order-events", cfg.KafkaTopic)
		assert.Equal(t, 1.0, cfg.TraceProbability)
		assert.False(t, cfg.TraceStdout)
		assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
		assert.Empty(t, cfg.Brokers())
	})

	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("VERIFY_USERS", "true")
		t.Setenv("USER_SERVICE_URL", "http://users:3001/")
		t.Setenv("USER_SERVICE_TIMEOUT", "250ms")
		t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
		t.Setenv("RATE_LIMIT_RPS", "12.5")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
		t.Setenv("SEED_SAMPLE_DATA", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.True(t, cfg.VerifyUsers)
		assert.Equal(t, "http://users:3001", cfg.UserServiceURL)
		assert.Equal(t, 250*time.Millisecond, cfg.UserServiceTimeout)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
		assert.Equal(t, 12.5, cfg.RateLimitRPS)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
		assert.False(t, cfg.SeedSampleData)
	})

	t.Run("Invalid values", func(t *testing.T) {
		t.Setenv("USER_SERVICE_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("Probability out of range", func(t *testing.T) {
		t.Setenv("TRACE_PROBABILITY", "1.5")
		_, err := Load()
		assert.Error(t, err)
	})
}

// unsetenv removes keys for the duration of the test; t.Setenv restores
// the previous values afterwards.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

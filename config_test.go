package sparklr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.RetryConfig.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryConfig.InitialInterval)
	assert.Equal(t, defaultEntityCacheSize, cfg.EntityCacheSize)
	assert.NotNil(t, cfg.Observer)
	assert.Nil(t, cfg.CircuitBreakerConfig)
}

func TestConfigBuilder(t *testing.T) {
	observer := NewMetricsCollector()
	cfg := DefaultConfig().
		WithBaseURL("https://api.sparklr.example").
		WithTimeout(5 * time.Second).
		WithRetries(1).
		WithHeader("X-Session-Token", "token").
		WithCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3}).
		WithRetryStrategy(&NoRetryStrategy{}).
		WithObserver(observer).
		WithEntityCacheSize(128)

	assert.Equal(t, "https://api.sparklr.example", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.RetryConfig.MaxRetries)
	assert.Equal(t, "token", cfg.Headers["X-Session-Token"])
	require.NotNil(t, cfg.CircuitBreakerConfig)
	assert.Equal(t, 3, cfg.CircuitBreakerConfig.FailureThreshold)
	assert.IsType(t, &NoRetryStrategy{}, cfg.RetryStrategy)
	assert.Equal(t, observer, cfg.Observer)
	assert.Equal(t, 128, cfg.EntityCacheSize)
}

func TestConfigValidate(t *testing.T) {
	t.Run("empty base URL", func(t *testing.T) {
		cfg := &Config{}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("fills defaults for zero values", func(t *testing.T) {
		cfg := &Config{BaseURL: "http://localhost:8080"}
		require.NoError(t, cfg.Validate())

		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, 100*time.Millisecond, cfg.RetryConfig.InitialInterval)
		assert.Equal(t, 5*time.Second, cfg.RetryConfig.MaxInterval)
		assert.Equal(t, 2.0, cfg.RetryConfig.Multiplier)
		assert.Equal(t, defaultEntityCacheSize, cfg.EntityCacheSize)
		assert.NotNil(t, cfg.Observer)
	})

	t.Run("fills breaker defaults", func(t *testing.T) {
		cfg := DefaultConfig().WithCircuitBreaker(CircuitBreakerConfig{})
		require.NoError(t, cfg.Validate())

		assert.Equal(t, 5, cfg.CircuitBreakerConfig.FailureThreshold)
		assert.Equal(t, 2, cfg.CircuitBreakerConfig.SuccessThreshold)
		assert.Equal(t, 30*time.Second, cfg.CircuitBreakerConfig.Timeout)
	})

	t.Run("negative retries clamp to zero", func(t *testing.T) {
		cfg := DefaultConfig().WithRetries(-1)
		require.NoError(t, cfg.Validate())
		assert.Zero(t, cfg.RetryConfig.MaxRetries)
	})
}

func TestWithHeaderOnNilMap(t *testing.T) {
	cfg := &Config{BaseURL: "http://localhost:8080"}
	cfg.WithHeader("X-Key", "v")
	assert.Equal(t, "v", cfg.Headers["X-Key"])
}

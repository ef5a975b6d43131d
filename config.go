package sparklr

import (
	"time"
)

// defaultEntityCacheSize bounds the per-client post and user caches.
// Generous for an interactive session; configurable via WithEntityCacheSize.
const defaultEntityCacheSize = 4096

// Config holds the configuration for a Sparklr client.
// All fields are optional and have sensible defaults.
//
// Configuration is built with the fluent builder pattern:
//
//	cfg := sparklr.DefaultConfig().
//	    WithBaseURL("https://api.sparklr.example").
//	    WithTimeout(10 * time.Second).
//	    WithRetries(5)
//
//	client, err := sparklr.New(cfg)
type Config struct {
	// BaseURL is the base URL of the Sparklr API.
	// Default: "http://localhost:8080"
	BaseURL string

	// Timeout is the HTTP request timeout, including connection time and
	// reading the response body.
	// Default: 30s
	Timeout time.Duration

	// RetryConfig configures automatic retry behavior for failed requests.
	RetryConfig RetryConfig

	// TransportConfig configures connection pooling and keep-alive behavior.
	TransportConfig TransportConfig

	// Headers are custom headers included in every request, e.g. session
	// tokens. Authentication itself is out of scope for the SDK.
	Headers map[string]string

	// CircuitBreakerConfig enables circuit breaking when non-nil.
	CircuitBreakerConfig *CircuitBreakerConfig

	// RetryStrategy overrides the default exponential backoff when non-nil.
	RetryStrategy RetryStrategy

	// Observer receives hooks for requests, retries, breaker transitions and
	// entity-cache activity. If nil, NoopObserver is used.
	Observer Observer

	// EntityCacheSize bounds the number of Post and User instances the
	// client keeps per kind. Least-recently-used entries are evicted past
	// the bound; a later fetch then produces a fresh instance.
	// Default: 4096
	EntityCacheSize int
}

// RetryConfig holds retry-related configuration. The SDK uses exponential
// backoff with jitter by default.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	// Set to 0 to disable retries.
	// Default: 3
	MaxRetries int

	// InitialInterval is the delay before the first retry.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval caps the delay between retries.
	// Default: 5s
	MaxInterval time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64
}

// TransportConfig holds HTTP connection pool settings.
type TransportConfig struct {
	// MaxIdleConns controls the maximum number of idle connections across
	// all hosts. Zero means no limit.
	// Default: 100
	MaxIdleConns int

	// MaxConnsPerHost controls the maximum connections per host.
	// Default: 10
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection is kept before closing.
	// Default: 90s
	IdleConnTimeout time.Duration
}

// DefaultConfig returns a Config with defaults suitable for most use cases:
// localhost base URL, 30s timeout, 3 retries with exponential backoff, and a
// 4096-entry entity cache per kind.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8080",
		Timeout: 30 * time.Second,
		RetryConfig: RetryConfig{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2.0,
		},
		TransportConfig: TransportConfig{
			MaxIdleConns:    100,
			MaxConnsPerHost: 10,
			IdleConnTimeout: 90 * time.Second,
		},
		Headers:         make(map[string]string),
		Observer:        &NoopObserver{},
		EntityCacheSize: defaultEntityCacheSize,
	}
}

// WithBaseURL sets the base URL of the Sparklr API.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout for all operations.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRetries sets the maximum number of retry attempts for failed requests.
// Set to 0 to disable automatic retries.
func (c *Config) WithRetries(maxRetries int) *Config {
	c.RetryConfig.MaxRetries = maxRetries
	return c
}

// WithHeader adds a custom header to be sent with all requests.
//
// Example:
//
//	cfg := sparklr.DefaultConfig().
//	    WithHeader("X-Session-Token", token)
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// WithCircuitBreaker enables circuit breaker protection, failing fast when
// the Sparklr API is struggling.
func (c *Config) WithCircuitBreaker(config CircuitBreakerConfig) *Config {
	c.CircuitBreakerConfig = &config
	return c
}

// WithRetryStrategy sets a custom retry strategy. By default exponential
// backoff with jitter is used.
func (c *Config) WithRetryStrategy(strategy RetryStrategy) *Config {
	c.RetryStrategy = strategy
	return c
}

// WithObserver sets a custom observer for monitoring SDK operations.
func (c *Config) WithObserver(observer Observer) *Config {
	c.Observer = observer
	return c
}

// WithEntityCacheSize bounds the per-kind entity caches. Useful for
// long-running consumers that touch many distinct posts and users.
func (c *Config) WithEntityCacheSize(size int) *Config {
	c.EntityCacheSize = size
	return c
}

// Validate validates the configuration and fills defaults for missing
// values. Called automatically by New.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetryConfig.MaxRetries < 0 {
		c.RetryConfig.MaxRetries = 0
	}
	if c.RetryConfig.InitialInterval <= 0 {
		c.RetryConfig.InitialInterval = 100 * time.Millisecond
	}
	if c.RetryConfig.MaxInterval <= 0 {
		c.RetryConfig.MaxInterval = 5 * time.Second
	}
	if c.RetryConfig.Multiplier <= 1 {
		c.RetryConfig.Multiplier = 2.0
	}
	if c.Observer == nil {
		c.Observer = &NoopObserver{}
	}
	if c.EntityCacheSize <= 0 {
		c.EntityCacheSize = defaultEntityCacheSize
	}
	if c.CircuitBreakerConfig != nil {
		if c.CircuitBreakerConfig.FailureThreshold <= 0 {
			c.CircuitBreakerConfig.FailureThreshold = 5
		}
		if c.CircuitBreakerConfig.SuccessThreshold <= 0 {
			c.CircuitBreakerConfig.SuccessThreshold = 2
		}
		if c.CircuitBreakerConfig.Timeout <= 0 {
			c.CircuitBreakerConfig.Timeout = 30 * time.Second
		}
	}
	return nil
}

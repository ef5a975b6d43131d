package sparklr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// httpTransport handles HTTP communication with the Sparklr API: request
// construction, JSON encoding and decoding, status dispatch, retry and
// circuit breaking, and observer notification. The client hands it a path
// and a result pointer; everything below that line lives here.
type httpTransport struct {
	client   *http.Client
	config   *Config
	baseURL  *url.URL
	breaker  *circuitBreaker
	strategy RetryStrategy
	observer Observer
}

func newHTTPTransport(config *Config) (*httpTransport, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base URL must have a scheme and host")
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        config.TransportConfig.MaxIdleConns,
			MaxConnsPerHost:     config.TransportConfig.MaxConnsPerHost,
			IdleConnTimeout:     config.TransportConfig.IdleConnTimeout,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: config.Timeout,
	}

	t := &httpTransport{
		client:   client,
		config:   config,
		baseURL:  baseURL,
		observer: config.Observer,
	}

	if config.CircuitBreakerConfig != nil {
		t.breaker = newCircuitBreaker(*config.CircuitBreakerConfig, t.observer.OnBreakerStateChange)
	}

	if config.RetryStrategy != nil {
		t.strategy = config.RetryStrategy
	} else {
		t.strategy = &ExponentialBackoffStrategy{
			InitialInterval: config.RetryConfig.InitialInterval,
			MaxInterval:     config.RetryConfig.MaxInterval,
			Multiplier:      config.RetryConfig.Multiplier,
			Jitter:          0.3,
			Budget: RetryBudget{
				MaxAttempts: config.RetryConfig.MaxRetries + 1, // +1 for the initial attempt
			},
		}
	}

	return t, nil
}

// do executes an HTTP request with circuit breaking and retry logic.
func (t *httpTransport) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	t.observer.OnRequestStart(method, path)
	start := time.Now()

	executor := newRetryExecutor(t.strategy, func(attempt int, delay time.Duration, err error) {
		t.observer.OnRetryAttempt(method, path, attempt, delay, err)
	})
	execute := func() error {
		return executor.Execute(ctx, func() error {
			return t.performHTTPRequest(ctx, method, path, body, result)
		})
	}

	var err error
	if t.breaker != nil {
		err = t.breaker.Execute(execute)
	} else {
		err = execute()
	}

	t.observer.OnRequestEnd(method, path, time.Since(start), err)
	return err
}

// performHTTPRequest performs a single HTTP request.
func (t *httpTransport) performHTTPRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	fullURL := t.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "go-sparklr/1.0")
	req.Header.Set("X-Request-ID", requestID)
	for key, value := range t.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		netErr := &NetworkError{Op: method + " " + path, Err: err}
		return netErr.ToError()
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		netErr := &NetworkError{Op: "reading response", Err: err}
		return netErr.ToError()
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	apiErr := parseAPIError(resp.StatusCode, respBody)
	if typed, ok := apiErr.(*APIError); ok {
		enhanced := typed.ToError()
		enhanced.RequestID = requestID
		return enhanced
	}
	return apiErr
}

// get performs a GET request.
func (t *httpTransport) get(ctx context.Context, path string, result interface{}) error {
	return t.do(ctx, http.MethodGet, path, nil, result)
}

// post performs a POST request.
func (t *httpTransport) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return t.do(ctx, http.MethodPost, path, body, result)
}

// close closes the transport.
func (t *httpTransport) close() error {
	t.client.CloseIdleConnections()
	return nil
}

// buildPath substitutes {0}, {1}, ... placeholders in pattern with escaped
// arguments, so ids and names survive URL-unsafe characters.
func buildPath(pattern string, args ...string) string {
	path := pattern
	for i, arg := range args {
		placeholder := fmt.Sprintf("{%d}", i)
		// QueryEscape, then fix + into %20: + is only valid in query strings.
		escaped := strings.Replace(url.QueryEscape(arg), "+", "%20", -1)
		path = strings.Replace(path, placeholder, escaped, 1)
	}
	return path
}

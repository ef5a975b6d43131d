package sparklr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := newCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	}, nil)

	failing := func() error { return NewError(ErrorTypeServer, "boom", nil) }

	for i := 0; i < 3; i++ {
		assert.Error(t, cb.Execute(failing))
	}
	assert.Equal(t, CircuitOpen, cb.State())

	// open circuit fails fast without running fn
	calls := 0
	err := cb.Execute(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls)
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb := newCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	}, nil)

	require.Error(t, cb.Execute(func() error { return NewError(ErrorTypeServer, "boom", nil) }))
	require.Equal(t, CircuitOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// first probe flips to half-open; two successes close the circuit
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CircuitHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerReopensFromHalfOpen(t *testing.T) {
	cb := newCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	}, nil)

	require.Error(t, cb.Execute(func() error { return NewError(ErrorTypeServer, "boom", nil) }))
	time.Sleep(20 * time.Millisecond)

	// probe fails: straight back to open
	require.Error(t, cb.Execute(func() error { return NewError(ErrorTypeServer, "still down", nil) }))
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreakerIgnoresNonRetryableErrors(t *testing.T) {
	cb := newCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	}, nil)

	// a missing post is not a service failure
	for i := 0; i < 10; i++ {
		cb.Execute(func() error { return NewError(ErrorTypeNoData, "missing", nil) })
	}
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := newCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          10 * time.Millisecond,
	}, func(from, to CircuitState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	cb.Execute(func() error { return NewError(ErrorTypeServer, "boom", nil) })
	time.Sleep(20 * time.Millisecond)
	cb.Execute(func() error { return nil })

	assert.Equal(t, []string{
		"closed->open",
		"open->half-open",
		"half-open->closed",
	}, transitions)
}

func TestClientWithCircuitBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"down"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(DefaultConfig().
		WithBaseURL(server.URL).
		WithRetryStrategy(&NoRetryStrategy{}).
		WithCircuitBreaker(CircuitBreakerConfig{
			FailureThreshold: 2,
			SuccessThreshold: 1,
			Timeout:          time.Minute,
		}))
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.Error(t, client.Ping(ctx))
	}

	// circuit is open now: the request never reaches the server
	err = client.Ping(ctx)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

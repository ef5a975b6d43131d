package sparklr

import (
	"sync"
	"time"
)

// CircuitState is the state of the circuit breaker.
//
// Transitions: closed -> open on reaching the failure threshold,
// open -> half-open after the timeout, half-open -> closed after the success
// threshold, half-open -> open on any failure.
type CircuitState int

const (
	// CircuitClosed is the normal operating state.
	CircuitClosed CircuitState = iota
	// CircuitOpen fails requests immediately without touching the network.
	CircuitOpen
	// CircuitHalfOpen lets limited requests through to probe recovery.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the breaker refuses a request.
var ErrCircuitOpen = NewError(ErrorTypeNetwork, "circuit breaker is open", nil)

// CircuitBreakerConfig holds circuit breaker tuning. Zero fields are filled
// with defaults by Config.Validate.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit. Default: 5
	FailureThreshold int

	// SuccessThreshold is the consecutive-success count in half-open state
	// that closes the circuit. Default: 2
	SuccessThreshold int

	// Timeout is how long the circuit stays open before probing recovery.
	// Default: 30s
	Timeout time.Duration
}

// circuitBreaker is a single breaker guarding the whole transport. The
// Sparklr API is one service behind one host, so per-endpoint state would
// only slow failure detection.
type circuitBreaker struct {
	config        CircuitBreakerConfig
	onStateChange func(oldState, newState CircuitState)

	mu              sync.Mutex
	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
}

func newCircuitBreaker(config CircuitBreakerConfig, onStateChange func(CircuitState, CircuitState)) *circuitBreaker {
	return &circuitBreaker{
		config:        config,
		onStateChange: onStateChange,
		state:         CircuitClosed,
	}
}

// Execute runs fn if the circuit allows it, updating state from the result.
func (cb *circuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.record(err)
	return err
}

// State returns the current circuit state.
func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if time.Since(cb.lastFailureTime) >= cb.config.Timeout {
			cb.transition(CircuitHalfOpen)
			return true
		}
		return false
	}
	return true
}

func (cb *circuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.failures = 0
		if cb.state == CircuitHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.transition(CircuitClosed)
			}
		}
		return
	}

	// NoData and validation outcomes are not service failures.
	if !IsRetryable(err) {
		return
	}

	cb.successes = 0
	cb.lastFailureTime = time.Now()
	switch cb.state {
	case CircuitHalfOpen:
		cb.transition(CircuitOpen)
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transition(CircuitOpen)
		}
	}
}

// transition must be called with cb.mu held.
func (cb *circuitBreaker) transition(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}

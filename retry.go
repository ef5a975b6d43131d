package sparklr

import (
	"math"
	"math/rand"
	"time"

	"context"
)

// RetryStrategy defines how failed requests are retried. The SDK ships
// exponential backoff (the default), constant backoff, and no-retry; custom
// strategies just implement this interface.
type RetryStrategy interface {
	// NextInterval returns the delay before the given retry attempt.
	// attempt starts at 1 for the first retry. Return 0 to stop retrying.
	NextInterval(attempt int) time.Duration

	// ShouldRetry reports whether the error warrants another attempt.
	ShouldRetry(err error, attempt int) bool
}

// RetryBudget limits retry attempts by count and total duration.
type RetryBudget struct {
	// MaxAttempts is the maximum number of retry attempts. 0 means unlimited.
	MaxAttempts int

	// MaxDuration is the maximum total time spent retrying, delays included.
	// 0 means no time limit.
	MaxDuration time.Duration
}

// DefaultRetryBudget returns a budget of 3 attempts within 30 seconds.
func DefaultRetryBudget() RetryBudget {
	return RetryBudget{
		MaxAttempts: 3,
		MaxDuration: 30 * time.Second,
	}
}

// IsExhausted reports whether the budget allows no further attempts.
func (rb *RetryBudget) IsExhausted(attempt int, elapsed time.Duration) bool {
	if rb.MaxAttempts > 0 && attempt >= rb.MaxAttempts {
		return true
	}
	if rb.MaxDuration > 0 && elapsed >= rb.MaxDuration {
		return true
	}
	return false
}

// ExponentialBackoffStrategy implements exponential backoff with jitter.
// The delay is InitialInterval * Multiplier^(attempt-1), capped at
// MaxInterval, with ±Jitter randomization to avoid thundering herds.
type ExponentialBackoffStrategy struct {
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration

	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration

	// Multiplier is the exponential growth factor.
	Multiplier float64

	// Jitter is the randomization factor (0.0 to 1.0); 0.3 means ±30%.
	Jitter float64

	// Budget limits retry attempts by count and duration.
	Budget RetryBudget
}

// DefaultExponentialBackoff returns the strategy the SDK uses by default:
// 100ms initial interval doubling up to 5s, ±30% jitter, default budget.
func DefaultExponentialBackoff() *ExponentialBackoffStrategy {
	return &ExponentialBackoffStrategy{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		Jitter:          0.3,
		Budget:          DefaultRetryBudget(),
	}
}

// NextInterval calculates the next retry delay.
func (s *ExponentialBackoffStrategy) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := float64(s.InitialInterval) * math.Pow(s.Multiplier, float64(attempt-1))
	if interval > float64(s.MaxInterval) {
		interval = float64(s.MaxInterval)
	}
	if s.Jitter > 0 {
		jitterRange := interval * s.Jitter
		interval += jitterRange * (2*rand.Float64() - 1)
	}
	if interval < 0 {
		interval = 0
	}
	return time.Duration(interval)
}

// ShouldRetry retries any retryable error within the budget.
func (s *ExponentialBackoffStrategy) ShouldRetry(err error, attempt int) bool {
	return IsRetryable(err)
}

// budget lets the executor enforce count/duration limits per strategy.
func (s *ExponentialBackoffStrategy) budget() RetryBudget { return s.Budget }

// ConstantBackoffStrategy retries at a fixed interval with no randomization.
type ConstantBackoffStrategy struct {
	// Interval is the fixed delay between retries.
	Interval time.Duration

	// Budget limits retry attempts.
	Budget RetryBudget
}

// NextInterval returns the fixed interval.
func (s *ConstantBackoffStrategy) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return s.Interval
}

// ShouldRetry retries any retryable error within the budget.
func (s *ConstantBackoffStrategy) ShouldRetry(err error, attempt int) bool {
	return IsRetryable(err)
}

func (s *ConstantBackoffStrategy) budget() RetryBudget { return s.Budget }

// NoRetryStrategy disables retries entirely.
type NoRetryStrategy struct{}

// NextInterval always returns 0.
func (s *NoRetryStrategy) NextInterval(attempt int) time.Duration { return 0 }

// ShouldRetry always returns false.
func (s *NoRetryStrategy) ShouldRetry(err error, attempt int) bool { return false }

// budgeted is implemented by strategies that carry a RetryBudget.
type budgeted interface {
	budget() RetryBudget
}

// retryExecutor runs an operation under a retry strategy, honoring context
// cancellation between attempts and notifying the observer before each retry.
type retryExecutor struct {
	strategy RetryStrategy
	onRetry  func(attempt int, delay time.Duration, err error)
}

func newRetryExecutor(strategy RetryStrategy, onRetry func(int, time.Duration, error)) *retryExecutor {
	if strategy == nil {
		strategy = DefaultExponentialBackoff()
	}
	return &retryExecutor{strategy: strategy, onRetry: onRetry}
}

// Execute runs fn, retrying per the strategy. The last error is returned
// unwrapped so transport faults reach the caller unchanged.
func (re *retryExecutor) Execute(ctx context.Context, fn func() error) error {
	var lastErr error
	start := time.Now()

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !re.strategy.ShouldRetry(err, attempt+1) {
			break
		}
		if ctx.Err() != nil {
			return NewError(ErrorTypeTimeout, "context canceled during retry", ctx.Err())
		}
		if b, ok := re.strategy.(budgeted); ok {
			if bud := b.budget(); bud.IsExhausted(attempt+1, time.Since(start)) {
				return lastErr
			}
		}

		delay := re.strategy.NextInterval(attempt + 1)
		if delay <= 0 {
			break
		}
		if re.onRetry != nil {
			re.onRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return NewError(ErrorTypeTimeout, "context canceled during retry wait", ctx.Err())
		case <-timer.C:
		}
	}

	return lastErr
}

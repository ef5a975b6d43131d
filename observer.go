package sparklr

import (
	"sync"
	"time"
)

// Observer provides hooks for monitoring SDK operations. Implement it to
// track performance, debug fetch behavior, or feed your observability stack.
// Observer methods should be fast and non-blocking.
//
// The SDK calls an observer at these points: around every HTTP request,
// before every retry attempt, on circuit breaker state changes, and on every
// entity-cache lookup.
type Observer interface {
	// OnRequestStart is called when an HTTP request starts.
	OnRequestStart(method, path string)

	// OnRequestEnd is called when an HTTP request completes, successful or
	// not. err is nil on success.
	OnRequestEnd(method, path string, duration time.Duration, err error)

	// OnRetryAttempt is called before each retry attempt, with the delay
	// about to be waited and the error that triggered the retry.
	OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error)

	// OnBreakerStateChange is called when the circuit breaker changes state.
	OnBreakerStateChange(oldState, newState CircuitState)

	// OnEntityHit is called when an entity lookup is served from the cache.
	// kind is "post" or "user".
	OnEntityHit(kind string, id int64)

	// OnEntityMiss is called when an entity lookup misses the cache and a
	// fetch will follow.
	OnEntityMiss(kind string, id int64)
}

// NoopObserver is the default Observer; it does nothing and has no overhead.
type NoopObserver struct{}

// OnRequestStart does nothing.
func (n *NoopObserver) OnRequestStart(method, path string) {}

// OnRequestEnd does nothing.
func (n *NoopObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {}

// OnRetryAttempt does nothing.
func (n *NoopObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
}

// OnBreakerStateChange does nothing.
func (n *NoopObserver) OnBreakerStateChange(oldState, newState CircuitState) {}

// OnEntityHit does nothing.
func (n *NoopObserver) OnEntityHit(kind string, id int64) {}

// OnEntityMiss does nothing.
func (n *NoopObserver) OnEntityMiss(kind string, id int64) {}

// MetricsCollector is a simple in-memory Observer implementation. It tracks
// request counts and latencies per endpoint, error and retry counts, and
// entity-cache hit rates. Intended for debugging and tests; for production
// export, implement Observer against your own metrics system.
//
// Example:
//
//	metrics := sparklr.NewMetricsCollector()
//	client, _ := sparklr.New(sparklr.DefaultConfig().WithObserver(metrics))
//	// use client...
//	snap := metrics.Snapshot()
//	fmt.Printf("cache hit rate: %.2f\n", snap.EntityHitRate)
type MetricsCollector struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	retryCount   map[string]int64
	latencies    map[string][]time.Duration
	entityHits   int64
	entityMisses int64
}

// MetricsSnapshot is a point-in-time copy of collected metrics.
type MetricsSnapshot struct {
	Requests      map[string]int64
	Errors        map[string]int64
	Retries       map[string]int64
	EntityHits    int64
	EntityMisses  int64
	EntityHitRate float64
}

// NewMetricsCollector creates a thread-safe in-memory metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		retryCount:   make(map[string]int64),
		latencies:    make(map[string][]time.Duration),
	}
}

// OnRequestStart increments the request count for the endpoint.
func (m *MetricsCollector) OnRequestStart(method, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[method+" "+path]++
}

// OnRequestEnd records latency and, on failure, the error count.
func (m *MetricsCollector) OnRequestEnd(method, path string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + path
	m.latencies[key] = append(m.latencies[key], duration)
	if err != nil {
		m.errorCount[key]++
	}
}

// OnRetryAttempt increments the retry count for the endpoint.
func (m *MetricsCollector) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCount[method+" "+path]++
}

// OnBreakerStateChange is a no-op for the collector.
func (m *MetricsCollector) OnBreakerStateChange(oldState, newState CircuitState) {}

// OnEntityHit increments the cache hit counter.
func (m *MetricsCollector) OnEntityHit(kind string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entityHits++
}

// OnEntityMiss increments the cache miss counter.
func (m *MetricsCollector) OnEntityMiss(kind string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entityMisses++
}

// Snapshot returns a copy of the collected metrics.
func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		Requests:     make(map[string]int64, len(m.requestCount)),
		Errors:       make(map[string]int64, len(m.errorCount)),
		Retries:      make(map[string]int64, len(m.retryCount)),
		EntityHits:   m.entityHits,
		EntityMisses: m.entityMisses,
	}
	for k, v := range m.requestCount {
		snap.Requests[k] = v
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.retryCount {
		snap.Retries[k] = v
	}
	if total := m.entityHits + m.entityMisses; total > 0 {
		snap.EntityHitRate = float64(m.entityHits) / float64(total)
	}
	return snap
}

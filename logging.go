package sparklr

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogObserver is an Observer that writes structured logs with logrus.
// Requests log at debug level, failures at warn, breaker transitions at warn.
//
// Example:
//
//	log := logrus.New()
//	log.SetLevel(logrus.DebugLevel)
//	cfg := sparklr.DefaultConfig().WithObserver(sparklr.NewLogObserver(log))
type LogObserver struct {
	log logrus.FieldLogger
}

// NewLogObserver creates a LogObserver. If log is nil the logrus standard
// logger is used.
func NewLogObserver(log logrus.FieldLogger) *LogObserver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogObserver{log: log}
}

// OnRequestStart logs the outgoing request.
func (o *LogObserver) OnRequestStart(method, path string) {
	o.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("request start")
}

// OnRequestEnd logs the request outcome with its latency.
func (o *LogObserver) OnRequestEnd(method, path string, duration time.Duration, err error) {
	fields := logrus.Fields{
		"method":   method,
		"path":     path,
		"duration": duration,
	}
	if err != nil {
		o.log.WithFields(fields).WithError(err).Warn("request failed")
		return
	}
	o.log.WithFields(fields).Debug("request done")
}

// OnRetryAttempt logs the retry with the triggering error.
func (o *LogObserver) OnRetryAttempt(method, path string, attempt int, delay time.Duration, err error) {
	o.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"attempt": attempt,
		"delay":   delay,
	}).WithError(err).Debug("retrying request")
}

// OnBreakerStateChange logs circuit breaker transitions.
func (o *LogObserver) OnBreakerStateChange(oldState, newState CircuitState) {
	o.log.WithFields(logrus.Fields{
		"from": oldState.String(),
		"to":   newState.String(),
	}).Warn("circuit breaker state change")
}

// OnEntityHit logs cache hits at debug level.
func (o *LogObserver) OnEntityHit(kind string, id int64) {
	o.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Debug("entity cache hit")
}

// OnEntityMiss logs cache misses at debug level.
func (o *LogObserver) OnEntityMiss(kind string, id int64) {
	o.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Debug("entity cache miss")
}

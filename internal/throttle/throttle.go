// Package throttle enforces a minimum interval between actuator commands
// per destination, so a signal that hovers past a threshold does not flood
// the messaging channel every tick.
package throttle

import (
	"log"
	"time"

	"github.com/classroom-control/ccc/internal/metrics"
)

// DefaultMinInterval is the default minimum spacing between commands to
// the same destination.
const DefaultMinInterval = 5 * time.Second

// PublishFunc performs the underlying transport send for a destination.
type PublishFunc func(destination, payload string) error

// AuditLogger records the outcome of command attempts.
type AuditLogger interface {
	LogCommand(destination, payload, outcome, detail string)
}

// Audit outcome codes, matching the audit package constants.
const (
	outcomePublished  = "PUBLISHED"
	outcomeSuppressed = "SUPPRESSED"
	outcomeFailed     = "FAILED"
)

// Throttle tracks the last successful emission per destination.
//
// The ledger is owned exclusively by the control loop's tick goroutine,
// so no locking is needed. It grows to at most the number of distinct
// destinations.
type Throttle struct {
	minInterval time.Duration
	publish     PublishFunc
	lastSent    map[string]time.Time
	auditLogger AuditLogger
}

// New creates a throttle around the given transport send.
// A non-positive interval falls back to DefaultMinInterval.
func New(minInterval time.Duration, publish PublishFunc) *Throttle {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Throttle{
		minInterval: minInterval,
		publish:     publish,
		lastSent:    make(map[string]time.Time),
	}
}

// SetAuditLogger attaches an audit trail for command outcomes.
func (t *Throttle) SetAuditLogger(auditLogger AuditLogger) {
	t.auditLogger = auditLogger
}

// TryEmit attempts to send payload to destination at the given instant.
//
// The call is suppressed (returns false, no send attempted) while the
// destination is inside its throttle window. On transport failure the
// ledger is left unchanged, so the next tick may retry immediately;
// a failed send never consumes the window. Destinations are throttled
// independently of each other.
func (t *Throttle) TryEmit(destination, payload string, now time.Time) bool {
	if last, ok := t.lastSent[destination]; ok && now.Sub(last) < t.minInterval {
		metrics.CommandsSuppressed.WithLabelValues(destination).Inc()
		t.logAudit(destination, payload, outcomeSuppressed, "")
		return false
	}

	if err := t.publish(destination, payload); err != nil {
		log.Printf("Failed to publish command %s -> %s: %v", destination, payload, err)
		metrics.PublishFailures.WithLabelValues(destination).Inc()
		t.logAudit(destination, payload, outcomeFailed, err.Error())
		return false
	}

	t.lastSent[destination] = now
	metrics.CommandsPublished.WithLabelValues(destination, payload).Inc()
	t.logAudit(destination, payload, outcomePublished, "")
	return true
}

// MinInterval returns the configured minimum spacing.
func (t *Throttle) MinInterval() time.Duration {
	return t.minInterval
}

func (t *Throttle) logAudit(destination, payload, outcome, detail string) {
	if t.auditLogger == nil {
		return
	}
	t.auditLogger.LogCommand(destination, payload, outcome, detail)
}

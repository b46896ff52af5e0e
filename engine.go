package authcore

import (
	"time"

	"github.com/modboard/authcore/content"
	"github.com/modboard/authcore/identity"
	"github.com/modboard/authcore/internal/audit"
	"github.com/modboard/authcore/internal/rate"
	"github.com/modboard/authcore/password"
	"github.com/modboard/authcore/token"
)

// Engine is the trust-maintenance core. It owns the token lifecycle, the
// freshness guard for privileged operations, and the login rate limiter;
// authoritative storage is injected through the identity and content
// store interfaces.
//
// Engines are built once via Builder and are safe for concurrent use.
type Engine struct {
	config Config

	identities identity.Store
	posts      content.Store

	tokens  *token.Manager
	limiter *rate.Limiter
	hasher  *password.Hasher
	audit   *audit.Dispatcher
	metrics *Metrics

	now func() time.Time
}

// Close tears down background workers: the limiter sweep goroutine and
// the audit dispatcher (draining buffered events).
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.limiter != nil {
		e.limiter.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

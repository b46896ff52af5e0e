package authcore

import (
	"context"
	"time"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	StoreAvailable bool
	StoreLatency   time.Duration
}

// storePinger is implemented by stores with a network backend, such as
// store.RedisIdentity.
type storePinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Health probes the authoritative identity store. Stores without a
// network backend report available with zero latency.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.identities == nil {
		return HealthStatus{}
	}

	p, ok := e.identities.(storePinger)
	if !ok {
		return HealthStatus{StoreAvailable: true}
	}

	latency, err := p.Ping(ctx)
	return HealthStatus{
		StoreAvailable: err == nil,
		StoreLatency:   latency,
	}
}

// LoginAttempts reports the live rate-limit counters for an IP and an
// email without recording an attempt. Zeroes when the limiter is
// disabled or the windows expired.
func (e *Engine) LoginAttempts(ip, email string) (ipCount, emailCount int) {
	if e == nil || e.limiter == nil {
		return 0, 0
	}
	return e.limiter.Attempts(ip, email)
}

package authcore

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful password logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected password logins.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins stopped by either guard.
	MetricLoginRateLimited
	// MetricOAuthSuccess counts successful federated sign-ins.
	MetricOAuthSuccess
	// MetricOAuthDenied counts federated sign-ins denied by provider binding.
	MetricOAuthDenied
	// MetricTokenIssued counts freshly issued claim sets.
	MetricTokenIssued
	// MetricTokenVerified counts claims refreshed from authoritative storage.
	MetricTokenVerified
	// MetricTokenRevoked counts sessions emptied on verification.
	MetricTokenRevoked
	// MetricTokenDeferred counts verifications postponed by store failure.
	MetricTokenDeferred
	// MetricFreshGranted counts freshness-guard passes.
	MetricFreshGranted
	// MetricFreshDenied counts freshness-guard denials.
	MetricFreshDenied
	// MetricAccountCreated counts privileged account creations.
	MetricAccountCreated
	// MetricRoleChanged counts role updates.
	MetricRoleChanged
	// MetricStatusChanged counts active-flag updates.
	MetricStatusChanged
	// MetricPostCreated counts accepted post submissions.
	MetricPostCreated
	// MetricPostApproved counts approve decisions.
	MetricPostApproved
	// MetricPostRejected counts reject decisions.
	MetricPostRejected
	// MetricVerifyLatency is the VerifySession latency histogram.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters. All methods are safe for
// concurrent use and are no-ops on a nil or disabled receiver.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds the counter set from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recording.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recording.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records one latency sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter into maps for export.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:     "login_success_total",
	MetricLoginFailure:     "login_failure_total",
	MetricLoginRateLimited: "login_rate_limited_total",
	MetricOAuthSuccess:     "oauth_success_total",
	MetricOAuthDenied:      "oauth_denied_total",
	MetricTokenIssued:      "token_issued_total",
	MetricTokenVerified:    "token_verified_total",
	MetricTokenRevoked:     "token_revoked_total",
	MetricTokenDeferred:    "token_deferred_total",
	MetricFreshGranted:     "fresh_granted_total",
	MetricFreshDenied:      "fresh_denied_total",
	MetricAccountCreated:   "account_created_total",
	MetricRoleChanged:      "role_changed_total",
	MetricStatusChanged:    "status_changed_total",
	MetricPostCreated:      "post_created_total",
	MetricPostApproved:     "post_approved_total",
	MetricPostRejected:     "post_rejected_total",
	MetricVerifyLatency:    "verify_latency_ms",
}

// histBucketUpperMS mirrors bucketIndex; the last bucket is unbounded.
var histBucketUpperMS = [histBucketCount]string{"5", "10", "25", "50", "100", "250", "500", "+Inf"}

// WritePrometheus renders the snapshot in Prometheus text exposition
// format. prefix is prepended to every metric name, typically
// "authcore_".
func (s MetricsSnapshot) WritePrometheus(w io.Writer, prefix string) error {
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricVerifyLatency {
			continue
		}
		value, ok := s.Counters[id]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%s %d\n", prefix, metricNames[id], value); err != nil {
			return err
		}
	}

	buckets, ok := s.Histograms[MetricVerifyLatency]
	if !ok || len(buckets) != histBucketCount {
		return nil
	}

	name := prefix + metricNames[MetricVerifyLatency]
	var cumulative uint64
	for i, count := range buckets {
		cumulative += count
		if _, err := fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", name, histBucketUpperMS[i], cumulative); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s_count %d\n", name, cumulative)
	return err
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

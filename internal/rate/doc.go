// Package rate implements the dual-guard fixed-window login limiter: one
// counter keyed by client IP (coarse, tolerant of shared NAT origins) and
// one keyed by lowercased target email (strict, stops targeted brute
// force), evaluated together in a single check.
//
// # Window semantics
//
// Fixed windows: an entry is live while now - windowStart < window. A
// stale entry is replaced with a fresh zero-count window at read time, so
// correctness never depends on the sweep. Counts are never decremented on
// success; a correct login does not refill an attacker's budget within
// the same window. Key prefixes:
//   - ip:    — per client IP
//   - email: — per lowercased email
//
// # What this package must NOT do
//
//   - Share state across processes. The store is deliberately in-process;
//     multi-process deployments need an external shared store, which is
//     out of scope here.
//   - Be imported outside the authcore module.
package rate

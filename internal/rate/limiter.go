package rate

import (
	"strings"
	"sync"
	"time"
)

// Config holds limiter tuning. Zero fields fall back to the defaults
// below at Open time.
type Config struct {
	IPLimit       int           // default 50 per window
	EmailLimit    int           // default 5 per window
	Window        time.Duration // default 15m, shared by both guards
	SweepInterval time.Duration // default 5m, decoupled from Window

	// Now overrides the clock for tests.
	Now func() time.Time
}

const (
	defaultIPLimit       = 50
	defaultEmailLimit    = 5
	defaultWindow        = 15 * time.Minute
	defaultSweepInterval = 5 * time.Minute
)

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter is the explicitly owned dual-guard store. One per process,
// created at startup via Open and torn down via Close; it is injected
// into the engine rather than living in module-global state.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	cfg Config
	now func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open creates the limiter store and starts the background sweep.
func Open(cfg Config) *Limiter {
	if cfg.IPLimit <= 0 {
		cfg.IPLimit = defaultIPLimit
	}
	if cfg.EmailLimit <= 0 {
		cfg.EmailLimit = defaultEmailLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	l := &Limiter{
		entries: make(map[string]*entry),
		cfg:     cfg,
		now:     cfg.Now,
		done:    make(chan struct{}),
	}
	if l.now == nil {
		l.now = time.Now
	}

	l.wg.Add(1)
	go l.sweepLoop()

	return l
}

// Close stops the sweep goroutine. The store stays readable afterwards,
// but a closed limiter should not be reused.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
}

// Check evaluates both guards for one login attempt. The IP guard runs
// first; the first guard at or over its ceiling aborts with a *LimitError
// and leaves every count untouched. Only when both guards are under their
// ceilings does the attempt get recorded on both counters.
func (l *Limiter) Check(ip, email string) error {
	now := l.now()
	ipKey := "ip:" + ip
	emailKey := "email:" + strings.ToLower(email)

	l.mu.Lock()
	defer l.mu.Unlock()

	ipEntry := l.currentLocked(ipKey, now)
	if ipEntry.count >= l.cfg.IPLimit {
		return &LimitError{Guard: GuardIP, RetryAfter: l.retryAfter(ipEntry, now)}
	}

	emailEntry := l.currentLocked(emailKey, now)
	if emailEntry.count >= l.cfg.EmailLimit {
		return &LimitError{Guard: GuardEmail, RetryAfter: l.retryAfter(emailEntry, now)}
	}

	ipEntry.count++
	emailEntry.count++
	return nil
}

// currentLocked returns the live entry for key, replacing a stale one
// with a fresh window. Expiry is decided by windowStart, never by
// presence in the map, so a lagging sweep cannot extend a window.
func (l *Limiter) currentLocked(key string, now time.Time) *entry {
	if e, ok := l.entries[key]; ok && now.Sub(e.windowStart) < l.cfg.Window {
		return e
	}
	e := &entry{windowStart: now}
	l.entries[key] = e
	return e
}

func (l *Limiter) retryAfter(e *entry, now time.Time) time.Duration {
	remaining := e.windowStart.Add(l.cfg.Window).Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// sweepLoop periodically drops fully expired entries to bound memory. The
// interval is decoupled from the window; entries may linger briefly past
// logical expiry without affecting correctness.
func (l *Limiter) sweepLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

func (l *Limiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if now.Sub(e.windowStart) >= l.cfg.Window {
			delete(l.entries, key)
		}
	}
}

// Attempts reports the live window counts for an IP and an email without
// recording an attempt. Expired windows read as zero.
func (l *Limiter) Attempts(ip, email string) (ipCount, emailCount int) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries["ip:"+ip]; ok && now.Sub(e.windowStart) < l.cfg.Window {
		ipCount = e.count
	}
	if e, ok := l.entries["email:"+strings.ToLower(email)]; ok && now.Sub(e.windowStart) < l.cfg.Window {
		emailCount = e.count
	}
	return ipCount, emailCount
}

// Len reports the number of stored entries. Test hook.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

package authcore

import (
	"errors"
	"time"

	"github.com/modboard/authcore/content"
	"github.com/modboard/authcore/identity"
	"github.com/modboard/authcore/internal/audit"
	"github.com/modboard/authcore/internal/rate"
	"github.com/modboard/authcore/password"
	"github.com/modboard/authcore/token"
)

// Builder assembles an Engine. Chain With* calls and finish with Build;
// a builder is single-use.
type Builder struct {
	config Config

	identities identity.Store
	posts      content.Store

	auditSink AuditSink
	warn      func(format string, args ...any)
	now       func() time.Time
	jitter    func() time.Duration

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithIdentityStore injects authoritative identity storage. Required.
func (b *Builder) WithIdentityStore(s identity.Store) *Builder {
	b.identities = s
	return b
}

// WithPostStore injects content storage. Required.
func (b *Builder) WithPostStore(s content.Store) *Builder {
	b.posts = s
	return b
}

// WithAuditSink installs the audit event receiver. Ignored unless
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithWarnFunc installs a logging hook for deferred verifications and
// other non-fatal conditions. nil disables it.
func (b *Builder) WithWarnFunc(warn func(format string, args ...any)) *Builder {
	b.warn = warn
	return b
}

// WithClock overrides the engine clock, for deterministic tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithJitterFunc overrides the verification jitter source, for
// deterministic tests.
func (b *Builder) WithJitterFunc(jitter func() time.Duration) *Builder {
	b.jitter = jitter
	return b
}

// WithMetricsEnabled toggles the counter surface.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the sub-systems, and starts
// background workers.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.identities == nil {
		return nil, errors.New("identity store required")
	}
	if b.posts == nil {
		return nil, errors.New("post store required")
	}

	engine := &Engine{
		config:     cfg,
		identities: b.identities,
		posts:      b.posts,
		now:        b.now,
	}

	tm, err := token.NewManager(token.Config{
		BaseInterval:  cfg.Token.BaseInterval,
		JitterMax:     cfg.Token.JitterMax,
		SessionTTL:    cfg.Token.SessionTTL,
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		JitterFunc:    b.jitter,
		Now:           b.now,
	}, b.identities.GetByID)
	if err != nil {
		return nil, err
	}
	if b.warn != nil {
		tm.SetWarnFunc(b.warn)
	}
	engine.tokens = tm

	ph, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = ph

	if cfg.RateLimit.Enabled {
		engine.limiter = rate.Open(rate.Config{
			IPLimit:       cfg.RateLimit.IPLimit,
			EmailLimit:    cfg.RateLimit.EmailLimit,
			Window:        cfg.RateLimit.Window,
			SweepInterval: cfg.RateLimit.SweepInterval,
			Now:           b.now,
		})
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}

package authcore

import (
	"crypto/ed25519"
	"errors"
	"time"
)

// Config defines engine behavior. Pass it to Builder.WithConfig; zero
// sub-structs are not defaulted there, start from defaults via New().
type Config struct {
	Token     TokenConfig
	RateLimit RateLimitConfig
	Password  PasswordConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig holds claim lifecycle and signing parameters.
type TokenConfig struct {
	// BaseInterval is the minimum time between authoritative
	// re-verifications of a live session.
	BaseInterval time.Duration
	// JitterMax widens each verification deadline by uniform(0, JitterMax)
	// so sessions issued together do not re-verify together.
	JitterMax time.Duration
	// SessionTTL is the signed token expiry.
	SessionTTL time.Duration

	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// RateLimitConfig tunes the dual-guard login limiter. The store is
// in-process; limits apply per engine process.
type RateLimitConfig struct {
	Enabled       bool
	IPLimit       int           // attempts per IP per window
	EmailLimit    int           // attempts per email per window
	Window        time.Duration // shared by both guards
	SweepInterval time.Duration
}

// PasswordConfig holds argon2id parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the atomic counter surface.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the recommended starting configuration. Key
// material is intentionally empty; callers must supply signing keys
// before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			BaseInterval:  5 * time.Minute,
			JitterMax:     60 * time.Second,
			SessionTTL:    30 * 24 * time.Hour,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			IPLimit:       50,
			EmailLimit:    5,
			Window:        15 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c *Config) Validate() error {
	if c.Token.BaseInterval <= 0 {
		return errors.New("Token.BaseInterval must be > 0")
	}
	if c.Token.JitterMax < 0 {
		return errors.New("Token.JitterMax must be >= 0")
	}
	if c.Token.SessionTTL <= 0 {
		return errors.New("Token.SessionTTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token.Leeway must be between 0 and 2m")
	}
	switch c.Token.SigningMethod {
	case "ed25519":
		if len(c.Token.PrivateKey) != ed25519.PrivateKeySize {
			return errors.New("Token.PrivateKey must be a raw ed25519 private key")
		}
		if len(c.Token.PublicKey) != ed25519.PublicKeySize {
			return errors.New("Token.PublicKey must be a raw ed25519 public key")
		}
	case "hs256":
		if len(c.Token.PrivateKey) < 32 {
			return errors.New("Token.PrivateKey must be at least 32 bytes for hs256")
		}
	default:
		return errors.New("Token.SigningMethod must be ed25519 or hs256")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.IPLimit <= 0 {
			return errors.New("RateLimit.IPLimit must be > 0")
		}
		if c.RateLimit.EmailLimit <= 0 {
			return errors.New("RateLimit.EmailLimit must be > 0")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit.Window must be > 0")
		}
		if c.RateLimit.SweepInterval <= 0 {
			return errors.New("RateLimit.SweepInterval must be > 0")
		}
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password.Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password.Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password.Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password.SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password.KeyLength must be >= 16")
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit.BufferSize must be >= 0")
	}

	return nil
}

// cloneConfig deep-copies key material so the engine cannot observe later
// mutation of caller-owned slices.
func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
